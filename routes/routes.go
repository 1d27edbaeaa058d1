package routes

import (
	"log"

	"bike-shop/controllers"
	"bike-shop/middleware"
	"bike-shop/models"
	"bike-shop/repositories"
	"bike-shop/services"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetupRoutes(router *gin.Engine) {
	cartRepo := repositories.NewCartRepository()
	productRepo := repositories.NewProductRepository()
	orderRepo := repositories.NewOrderRepository()
	userRepo := repositories.NewUserRepository()
	pageRepo := repositories.NewPageRepository()

	mailer, err := models.NewEmailService()
	if err != nil {
		log.Println("Email disabled:", err)
		mailer = nil
	}

	images, err := models.NewCloudinaryService()
	if err != nil {
		log.Println("Image uploads disabled:", err)
		images = nil
	}

	cartSvc := services.NewCartService(cartRepo, productRepo, services.DefaultCartSettings())
	authSvc := services.NewAuthService(userRepo, cartSvc)
	productSvc := services.NewProductService(productRepo, imageStoreOrNil(images))
	orderSvc := services.NewOrderService(orderRepo, cartSvc, orderMailerOrNil(mailer), services.DefaultOrderSettings())
	paymentSvc := services.NewPaymentService(orderRepo, paymentMailerOrNil(mailer))
	pageSvc := services.NewPageService(pageRepo)

	authCtrl := controllers.NewAuthController(authSvc)
	cartCtrl := controllers.NewCartController(cartSvc)
	productCtrl := controllers.NewProductController(productSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)
	paymentCtrl := controllers.NewPaymentController(paymentSvc)
	pageCtrl := controllers.NewPageController(pageSvc)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	router.POST("/auth/register", authCtrl.Register)
	router.POST("/auth/login", authCtrl.Login)

	router.GET("/products", productCtrl.ListProducts)
	router.GET("/products/:articlenr", productCtrl.GetProduct)

	router.GET("/pages", pageCtrl.GetMenu)
	router.GET("/pages/:slug", pageCtrl.GetPage)

	// Stripe calls this directly; it authenticates with its signature header.
	router.POST("/payments/webhook", paymentCtrl.HandleWebhook)

	// Cart and checkout serve guests and users alike.
	cart := router.Group("/")
	cart.Use(middleware.OptionalAuthMiddleware())
	{
		cart.GET("/cart", cartCtrl.GetCart)
		cart.DELETE("/cart", cartCtrl.ClearCart)
		cart.GET("/cart/count", cartCtrl.GetCartCount)
		cart.POST("/cart/items", cartCtrl.AddItem)
		cart.PATCH("/cart/items/:id", cartCtrl.UpdateItem)
		cart.DELETE("/cart/items/:id", cartCtrl.RemoveItem)

		cart.POST("/orders", orderCtrl.Checkout)
		cart.POST("/payments/intent", paymentCtrl.CreatePaymentIntent)
	}

	auth := router.Group("/")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/auth/profile", authCtrl.GetProfile)
		auth.PATCH("/auth/profile", authCtrl.UpdateProfile)
		auth.POST("/auth/change-password", authCtrl.ChangePassword)

		auth.POST("/cart/merge", cartCtrl.MergeCart)

		auth.GET("/orders", orderCtrl.ListOrders)
		auth.GET("/orders/:id", orderCtrl.GetOrder)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/products", productCtrl.CreateProduct)
		admin.PATCH("/products/:articlenr", productCtrl.UpdateProduct)
		admin.DELETE("/products/:articlenr", productCtrl.DeleteProduct)
		admin.POST("/products/:articlenr/image", productCtrl.UploadProductImage)

		admin.PATCH("/orders/:id/status", orderCtrl.UpdateOrderStatus)

		admin.GET("/pages", pageCtrl.ListPages)
		admin.POST("/pages", pageCtrl.CreatePage)
		admin.GET("/pages/:id", pageCtrl.GetPageByID)
		admin.PATCH("/pages/:id", pageCtrl.UpdatePage)
		admin.PATCH("/pages/:id/publish", pageCtrl.PublishPage)
		admin.DELETE("/pages/:id", pageCtrl.DeletePage)
		admin.POST("/pages/:id/blocks", pageCtrl.AddBlock)
		admin.PATCH("/pages/:id/blocks/reorder", pageCtrl.ReorderBlocks)
		admin.PATCH("/pages/blocks/:blockId", pageCtrl.UpdateBlock)
		admin.DELETE("/pages/blocks/:blockId", pageCtrl.DeleteBlock)
	}
}

// A nil *models.EmailService inside a non-nil interface would dodge the
// service-level nil checks, so convert explicitly.
func orderMailerOrNil(mailer *models.EmailService) services.OrderMailer {
	if mailer == nil {
		return nil
	}
	return mailer
}

func paymentMailerOrNil(mailer *models.EmailService) services.PaymentMailer {
	if mailer == nil {
		return nil
	}
	return mailer
}

func imageStoreOrNil(images *models.CloudinaryService) services.ImageStore {
	if images == nil {
		return nil
	}
	return images
}
