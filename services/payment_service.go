package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"bike-shop/config"
	"bike-shop/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
)

// PaymentMailer sends the receipt after Stripe confirms a charge; nil
// disables it.
type PaymentMailer interface {
	SendPaymentReceipt(order *models.Order) error
}

type PaymentService struct {
	orders OrderStore
	mailer PaymentMailer
}

func NewPaymentService(orders OrderStore, mailer PaymentMailer) *PaymentService {
	stripe.Key = config.AppConfig.StripeSecretKey
	return &PaymentService{orders: orders, mailer: mailer}
}

// CreatePaymentIntent opens a Stripe PaymentIntent for an order and moves it
// to awaiting_payment. The client confirms the payment with the returned
// secret; the webhook closes the loop.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, orderID int, userID *int) (*models.Order, string, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	if order.UserID != nil && (userID == nil || *order.UserID != *userID) {
		return nil, "", models.ErrForbidden
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, "", errors.New("order already paid")
	}

	// Stripe wants the amount in the currency's smallest unit.
	amount := order.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(string(stripe.CurrencyEUR)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(order.CustomerEmail),
	}
	params.AddMetadata("ordernr", order.OrderNr)

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, "", fmt.Errorf("create payment intent: %w", err)
	}

	if err := s.orders.UpdatePaymentStatus(ctx, order.ID, models.PaymentStatusAwaiting, intent.ID); err != nil {
		return nil, "", err
	}
	order.PaymentStatus = models.PaymentStatusAwaiting
	order.PaymentIntent = intent.ID

	return order, intent.ClientSecret, nil
}

// HandleWebhook verifies a Stripe event signature and applies the payment
// outcome to the matching order. Events for unknown intents are acknowledged
// and dropped so Stripe stops retrying them.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, config.AppConfig.StripeWebhookSecret)
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return s.applyIntentStatus(ctx, event, models.PaymentStatusPaid)
	case "payment_intent.payment_failed":
		return s.applyIntentStatus(ctx, event, models.PaymentStatusFailed)
	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return fmt.Errorf("parse charge event: %w", err)
		}
		if charge.PaymentIntent == nil {
			return nil
		}
		return s.markOrder(ctx, charge.PaymentIntent.ID, models.PaymentStatusRefunded)
	default:
		log.Println("Ignoring stripe event:", event.Type)
		return nil
	}
}

func (s *PaymentService) applyIntentStatus(ctx context.Context, event stripe.Event, status string) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("parse payment intent event: %w", err)
	}
	return s.markOrder(ctx, intent.ID, status)
}

func (s *PaymentService) markOrder(ctx context.Context, paymentIntentID, status string) error {
	order, err := s.orders.GetByPaymentIntent(ctx, paymentIntentID)
	if errors.Is(err, models.ErrNotFound) {
		log.Println("Stripe event for unknown payment intent:", paymentIntentID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.orders.UpdatePaymentStatus(ctx, order.ID, status, paymentIntentID); err != nil {
		return err
	}

	if status == models.PaymentStatusPaid && s.mailer != nil {
		order.PaymentStatus = status
		go func(o models.Order) {
			if err := s.mailer.SendPaymentReceipt(&o); err != nil {
				log.Printf("Payment receipt email for %s failed: %v", o.OrderNr, err)
			}
		}(*order)
	}

	return nil
}
