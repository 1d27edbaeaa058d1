package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"bike-shop/models"
	"bike-shop/services"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

// ownerFromContext builds the cart owner key for the request: the
// authenticated user when present, otherwise the guest session from the
// X-Guest-Session header (or the given fallback from a request body).
func ownerFromContext(c *gin.Context, fallbackSession string) models.OwnerKey {
	if userID, exists := c.Get("user_id"); exists {
		return models.UserKey(userID.(int))
	}

	session := c.GetHeader("X-Guest-Session")
	if session == "" {
		session = fallbackSession
	}
	return models.GuestKey(session)
}

func userIDFromContext(c *gin.Context) *int {
	if userID, exists := c.Get("user_id"); exists {
		id := userID.(int)
		return &id
	}
	return nil
}

// statusForError maps domain errors onto HTTP statuses. Anything unmapped is
// a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrProductNotPurchasable):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrOutOfStock),
		errors.Is(err, models.ErrConflictRetryExhausted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	c.JSON(status, models.ErrorResponse{Success: false, Message: msg})
}

// @Summary Get cart
// @Description Get the current cart with items and totals. Guests identify via the X-Guest-Session header; omitting it starts a new cart whose session id is returned in the cart object.
// @Tags Cart
// @Produce json
// @Param X-Guest-Session header string false "Guest session id"
// @Param country query string false "Destination country for VAT (ISO 3166-1 alpha-2)"
// @Success 200 {object} models.Response
// @Router /cart [get]
func (ctrl *CartController) GetCart(c *gin.Context) {
	owner := ownerFromContext(c, "")
	country := c.Query("country")

	view, err := ctrl.carts.ViewCart(c.Request.Context(), owner, country)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart retrieved", Data: view})
}

// @Summary Get cart count
// @Description Get total quantity and distinct item count for the header badge
// @Tags Cart
// @Produce json
// @Param X-Guest-Session header string false "Guest session id"
// @Success 200 {object} models.Response
// @Router /cart/count [get]
func (ctrl *CartController) GetCartCount(c *gin.Context) {
	owner := ownerFromContext(c, "")

	count, err := ctrl.carts.CartCount(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart count retrieved", Data: count})
}

// @Summary Add item to cart
// @Description Add a product to the cart. Adding an article already in the cart sums the quantities, capped at the maximum per line.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Guest-Session header string false "Guest session id"
// @Param body body models.AddToCartRequest true "Article and quantity"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /cart/items [post]
func (ctrl *CartController) AddItem(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	owner := ownerFromContext(c, req.GuestSession)

	view, err := ctrl.carts.AddItem(c.Request.Context(), owner, req.ArticleNr, quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Item added to cart", Data: view})
}

// @Summary Update cart item quantity
// @Description Set a cart line's quantity; 0 removes the line
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Guest-Session header string false "Guest session id"
// @Param id path int true "Cart item ID"
// @Param body body models.UpdateCartItemRequest true "New quantity"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /cart/items/{id} [patch]
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	lineID, err := strconv.Atoi(c.Param("id"))
	if err != nil || lineID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid cart item ID"})
		return
	}

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	owner := ownerFromContext(c, "")

	view, err := ctrl.carts.UpdateItemQuantity(c.Request.Context(), owner, lineID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart updated", Data: view})
}

// @Summary Remove cart item
// @Description Remove a line from the cart
// @Tags Cart
// @Produce json
// @Param X-Guest-Session header string false "Guest session id"
// @Param id path int true "Cart item ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /cart/items/{id} [delete]
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	lineID, err := strconv.Atoi(c.Param("id"))
	if err != nil || lineID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid cart item ID"})
		return
	}

	owner := ownerFromContext(c, "")

	view, err := ctrl.carts.RemoveItem(c.Request.Context(), owner, lineID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Item removed from cart", Data: view})
}

// @Summary Clear cart
// @Description Remove all items from the cart
// @Tags Cart
// @Produce json
// @Param X-Guest-Session header string false "Guest session id"
// @Success 200 {object} models.Response
// @Router /cart [delete]
func (ctrl *CartController) ClearCart(c *gin.Context) {
	owner := ownerFromContext(c, "")

	if err := ctrl.carts.ClearCart(c.Request.Context(), owner); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Clearing a cart that never existed is fine.
			c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart cleared"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart cleared"})
}

// @Summary Merge guest cart
// @Description Merge a guest cart into the authenticated user's cart. Quantities for articles in both carts are summed; the guest cart is deleted. Safe to retry.
// @Tags Cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.MergeCartRequest true "Guest session id"
// @Success 200 {object} models.Response
// @Failure 401 {object} models.ErrorResponse
// @Router /cart/merge [post]
func (ctrl *CartController) MergeCart(c *gin.Context) {
	var req models.MergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	userID := userIDFromContext(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Success: false, Message: "Authentication required"})
		return
	}

	view, err := ctrl.carts.MergeGuestIntoUser(c.Request.Context(), req.GuestSession, *userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Carts merged", Data: view})
}
