package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            int             `json:"web_order_id"`
	OrderNr       string          `json:"ordernr"`
	UserID        *int            `json:"user_id,omitempty"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	Address       string          `json:"address"`
	PostalCode    string          `json:"postal_code"`
	City          string          `json:"city"`
	Country       string          `json:"country"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Shipping      decimal.Decimal `json:"shipping"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	PaymentStatus string          `json:"payment_status"`
	PaymentIntent string          `json:"payment_intent_id,omitempty"`
	Items         []OrderItem     `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID          int             `json:"order_item_id"`
	OrderID     int             `json:"web_order_id"`
	ArticleNr   string          `json:"articlenr"`
	ArticleName string          `json:"articlename"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Payment statuses follow the Stripe lifecycle as far as we track it.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusAwaiting = "awaiting_payment"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)
