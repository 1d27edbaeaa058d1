package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"bike-shop/models"
	"bike-shop/services"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

// @Summary List products
// @Description Get the paginated catalog of product families, optionally filtered by search
// @Tags Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(12)
// @Param search query string false "Search in article name and manufacturer"
// @Success 200 {object} models.PaginatedResponse
// @Router /products [get]
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	search := strings.TrimSpace(c.Query("search"))

	resp, err := ctrl.products.ListProducts(c.Request.Context(), search, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get product
// @Description Get an article with its variations and, for a product family, its purchasable variants
// @Tags Products
// @Produce json
// @Param articlenr path string true "Article number"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{articlenr} [get]
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	articleNr := c.Param("articlenr")

	detail, err := ctrl.products.GetProductDetail(c.Request.Context(), articleNr)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Product retrieved", Data: detail})
}

// @Summary Create product
// @Description Create a new article (Admin)
// @Tags Admin - Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CreateProductRequest true "Product data"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/products [post]
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	product, err := ctrl.products.CreateProduct(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Product created", Data: product})
}

// @Summary Update product
// @Description Update an article (Admin)
// @Tags Admin - Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param articlenr path string true "Article number"
// @Param body body models.UpdateProductRequest true "Fields to update"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/products/{articlenr} [patch]
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	articleNr := c.Param("articlenr")

	var req models.UpdateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	product, err := ctrl.products.UpdateProduct(c.Request.Context(), articleNr, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Product updated", Data: product})
}

// @Summary Delete product
// @Description Deactivate an article; it disappears from the catalog but order history keeps it (Admin)
// @Tags Admin - Products
// @Security BearerAuth
// @Produce json
// @Param articlenr path string true "Article number"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/products/{articlenr} [delete]
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	articleNr := c.Param("articlenr")

	if err := ctrl.products.DeleteProduct(c.Request.Context(), articleNr); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Product deactivated"})
}

// @Summary Upload product image
// @Description Upload or replace an article's image (Admin)
// @Tags Admin - Products
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param articlenr path string true "Article number"
// @Param image formData file true "Product image"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/products/{articlenr}/image [post]
func (ctrl *ProductController) UploadProductImage(c *gin.Context) {
	articleNr := c.Param("articlenr")

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Image file required"})
		return
	}

	product, err := ctrl.products.UploadProductImage(c.Request.Context(), articleNr, file)
	if err != nil {
		if statusForError(err) == http.StatusInternalServerError {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Product image uploaded", Data: product})
}
