package controllers

import (
	"io"
	"net/http"

	"bike-shop/models"
	"bike-shop/services"

	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// @Summary Create payment intent
// @Description Open a Stripe PaymentIntent for an order and return the client secret for confirmation
// @Tags Payments
// @Accept json
// @Produce json
// @Param body body models.CreatePaymentIntentRequest true "Order to pay"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /payments/intent [post]
func (ctrl *PaymentController) CreatePaymentIntent(c *gin.Context) {
	var req models.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	userID := userIDFromContext(c)

	order, clientSecret, err := ctrl.payments.CreatePaymentIntent(c.Request.Context(), req.OrderID, userID)
	if err != nil {
		if statusForError(err) == http.StatusInternalServerError {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Payment intent created",
		Data: gin.H{
			"order":         order,
			"client_secret": clientSecret,
		},
	})
}

// @Summary Stripe webhook
// @Description Receive Stripe payment events. The signature is verified against the configured webhook secret.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /payments/webhook [post]
func (ctrl *PaymentController) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 65536))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Failed to read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")

	if err := ctrl.payments.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Webhook rejected", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Event processed"})
}
