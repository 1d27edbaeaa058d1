package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"bike-shop/config"
	"bike-shop/models"
)

// OrderStore is the persistence port for orders and the per-year number
// sequence.
type OrderStore interface {
	// NextSequence atomically increments and returns the counter for a year,
	// creating it at floor on the first allocation of that year. Two
	// concurrent calls never observe the same value.
	NextSequence(ctx context.Context, year, floor int) (int, error)

	InsertOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID int) (*models.Order, error)
	ListByUser(ctx context.Context, userID int) ([]models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID int, status, paymentIntentID string) error
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
}

// OrderMailer sends customer notifications; nil disables them.
type OrderMailer interface {
	SendOrderConfirmation(order *models.Order) error
}

type OrderSettings struct {
	Prefix   string
	Floor    int
	Currency string
}

func DefaultOrderSettings() OrderSettings {
	return OrderSettings{
		Prefix:   config.AppConfig.OrderPrefix,
		Floor:    config.AppConfig.OrderSequenceFloor,
		Currency: config.AppConfig.Currency,
	}
}

type OrderService struct {
	orders   OrderStore
	carts    *CartService
	mailer   OrderMailer
	settings OrderSettings
}

func NewOrderService(orders OrderStore, carts *CartService, mailer OrderMailer, settings OrderSettings) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		mailer:   mailer,
		settings: settings,
	}
}

// AllocateOrderNumber produces the next number for the year in the form
// {prefix}-{seq}-{year}, e.g. AT-1001-2025. The sequence lives in a per-year
// counter row and is advanced with a single atomic upsert, so numbers are
// unique under arbitrary concurrency; gaps from rolled-back orders are
// acceptable and never reused.
func (s *OrderService) AllocateOrderNumber(ctx context.Context, year int) (string, error) {
	seq, err := s.orders.NextSequence(ctx, year, s.settings.Floor)
	if err != nil {
		return "", fmt.Errorf("next sequence for %d: %w", year, err)
	}
	return fmt.Sprintf("%s-%d-%d", s.settings.Prefix, seq, year), nil
}

// CreateOrder turns the caller's cart into an order: allocates the order
// number, snapshots the lines into order items with the cart's price
// snapshots, and clears the cart lines (the cart row stays).
func (s *OrderService) CreateOrder(ctx context.Context, userID *int, req models.CheckoutRequest) (*models.Order, error) {
	var owner models.OwnerKey
	if userID != nil {
		owner = models.UserKey(*userID)
	} else {
		owner = models.GuestKey(req.GuestSession)
	}

	cart, err := s.carts.ResolveCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	view, err := s.carts.BuildView(ctx, cart, req.Country)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, models.ErrNotFound
	}

	orderNr, err := s.AllocateOrderNumber(ctx, time.Now().UTC().Year())
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNr:       orderNr,
		UserID:        userID,
		CustomerEmail: req.Email,
		CustomerName:  req.FirstName + " " + req.LastName,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		City:          req.City,
		Country:       req.Country,
		Subtotal:      view.Summary.Subtotal,
		TaxAmount:     view.Summary.TaxAmount,
		Shipping:      view.Summary.Shipping,
		TotalAmount:   view.Summary.Total,
		Currency:      s.settings.Currency,
		PaymentStatus: models.PaymentStatusPending,
	}
	for _, item := range view.Items {
		order.Items = append(order.Items, models.OrderItem{
			ArticleNr:   item.ArticleNr,
			ArticleName: item.ArticleName,
			Quantity:    item.Quantity,
			UnitPrice:   item.PriceAtAddition,
		})
	}

	if err := s.orders.InsertOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := s.carts.ClearCart(ctx, owner); err != nil {
		return nil, fmt.Errorf("clear cart after checkout: %w", err)
	}

	if s.mailer != nil {
		go func(o models.Order) {
			if err := s.mailer.SendOrderConfirmation(&o); err != nil {
				log.Printf("Order confirmation email for %s failed: %v", o.OrderNr, err)
			}
		}(*order)
	}

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

// GetOrderForUser enforces that the order belongs to the requesting user.
func (s *OrderService) GetOrderForUser(ctx context.Context, orderID, userID int) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, models.ErrForbidden
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID int) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID int, status, paymentIntentID string) error {
	return s.orders.UpdatePaymentStatus(ctx, orderID, status, paymentIntentID)
}
