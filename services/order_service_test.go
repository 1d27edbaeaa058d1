package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bike-shop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memOrderStore is an in-memory OrderStore; the mutex around NextSequence
// mirrors the atomicity the database upsert provides.
type memOrderStore struct {
	mu        sync.Mutex
	sequences map[int]int
	orders    map[int]*models.Order
	nextID    int
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		sequences: map[int]int{},
		orders:    map[int]*models.Order{},
		nextID:    1,
	}
}

func (s *memOrderStore) NextSequence(ctx context.Context, year, floor int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq, ok := s.sequences[year]; ok {
		s.sequences[year] = seq + 1
	} else {
		s.sequences[year] = floor
	}
	return s.sequences[year], nil
}

func (s *memOrderStore) InsertOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = s.nextID
	s.nextID++
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *memOrderStore) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *memOrderStore) ListByUser(ctx context.Context, userID int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []models.Order{}
	for id := 1; id < s.nextID; id++ {
		if order, ok := s.orders[id]; ok && order.UserID != nil && *order.UserID == userID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (s *memOrderStore) UpdatePaymentStatus(ctx context.Context, orderID int, status, paymentIntentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	order.PaymentStatus = status
	if paymentIntentID != "" {
		order.PaymentIntent = paymentIntentID
	}
	return nil
}

func (s *memOrderStore) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.PaymentIntent == paymentIntentID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

type recordingMailer struct {
	confirmations chan models.Order
}

func (m *recordingMailer) SendOrderConfirmation(order *models.Order) error {
	m.confirmations <- *order
	return nil
}

func testOrderSettings() OrderSettings {
	return OrderSettings{Prefix: "AT", Floor: 1001, Currency: "EUR"}
}

func newTestOrderService(mailer OrderMailer) (*OrderService, *CartService, *memOrderStore) {
	cartSvc, _ := newTestCartService()
	store := newMemOrderStore()
	return NewOrderService(store, cartSvc, mailer, testOrderSettings()), cartSvc, store
}

func TestAllocateOrderNumberFormat(t *testing.T) {
	svc, _, _ := newTestOrderService(nil)
	ctx := context.Background()

	first, err := svc.AllocateOrderNumber(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, "AT-1001-2025", first)

	second, err := svc.AllocateOrderNumber(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, "AT-1002-2025", second)
}

func TestAllocateOrderNumberYearRollover(t *testing.T) {
	svc, _, _ := newTestOrderService(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.AllocateOrderNumber(ctx, 2025)
		require.NoError(t, err)
	}

	// A new year starts over at the floor; the old year keeps counting.
	number, err := svc.AllocateOrderNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "AT-1001-2026", number)

	number, err = svc.AllocateOrderNumber(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, "AT-1006-2025", number)
}

func TestAllocateOrderNumberConcurrent(t *testing.T) {
	svc, _, _ := newTestOrderService(nil)
	ctx := context.Background()

	const n = 100
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := svc.AllocateOrderNumber(ctx, 2025)
			assert.NoError(t, err)
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for number := range results {
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)

	// Exactly the range [floor, floor+n-1] was handed out.
	for seq := 1001; seq < 1001+n; seq++ {
		assert.True(t, seen[fmt.Sprintf("AT-%d-2025", seq)])
	}
}

func checkoutRequest(session string) models.CheckoutRequest {
	return models.CheckoutRequest{
		Email:        "anna@example.at",
		FirstName:    "Anna",
		LastName:     "Gruber",
		Address:      "Hauptstrasse 1",
		PostalCode:   "1010",
		City:         "Wien",
		Country:      "AT",
		GuestSession: session,
	}
}

func TestCreateOrderFromCart(t *testing.T) {
	mailer := &recordingMailer{confirmations: make(chan models.Order, 1)}
	svc, carts, _ := newTestOrderService(mailer)
	ctx := context.Background()

	userID := 5
	_, err := carts.AddItem(ctx, models.UserKey(userID), "BIKE-1", 2)
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, &userID, checkoutRequest(""))
	require.NoError(t, err)

	year := time.Now().UTC().Year()
	assert.Equal(t, fmt.Sprintf("AT-1001-%d", year), order.OrderNr)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "EUR", order.Currency)
	assert.Equal(t, "Anna Gruber", order.CustomerName)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "BIKE-1", order.Items[0].ArticleNr)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].UnitPrice.Equal(money("125.00")))

	assert.True(t, order.Subtotal.Equal(money("250.00")))
	assert.True(t, order.TaxAmount.Equal(money("50.00")))
	assert.True(t, order.Shipping.IsZero())
	assert.True(t, order.TotalAmount.Equal(money("300.00")))

	// Checkout empties the cart but keeps it usable.
	view, err := carts.ViewCart(ctx, models.UserKey(userID), "")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	select {
	case sent := <-mailer.confirmations:
		assert.Equal(t, order.OrderNr, sent.OrderNr)
		assert.Equal(t, "anna@example.at", sent.CustomerEmail)
	case <-time.After(time.Second):
		t.Fatal("confirmation email was not sent")
	}
}

func TestCreateOrderGuestCheckout(t *testing.T) {
	svc, carts, _ := newTestOrderService(nil)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, models.GuestKey("sess-9"), "LIGHT-1", 1)
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, nil, checkoutRequest("sess-9"))
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.True(t, order.Shipping.Equal(money("9.99")))
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, _, _ := newTestOrderService(nil)

	userID := 5
	_, err := svc.CreateOrder(context.Background(), &userID, checkoutRequest(""))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetOrderForUser(t *testing.T) {
	svc, carts, _ := newTestOrderService(nil)
	ctx := context.Background()

	userID := 5
	_, err := carts.AddItem(ctx, models.UserKey(userID), "BIKE-1", 1)
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, &userID, checkoutRequest(""))
	require.NoError(t, err)

	got, err := svc.GetOrderForUser(ctx, order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNr, got.OrderNr)

	_, err = svc.GetOrderForUser(ctx, order.ID, 99)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.GetOrderForUser(ctx, 4242, userID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListUserOrders(t *testing.T) {
	svc, carts, _ := newTestOrderService(nil)
	ctx := context.Background()

	userID := 5
	for i := 0; i < 3; i++ {
		_, err := carts.AddItem(ctx, models.UserKey(userID), "BIKE-1", 1)
		require.NoError(t, err)
		_, err = svc.CreateOrder(ctx, &userID, checkoutRequest(""))
		require.NoError(t, err)
	}

	orders, err := svc.ListUserOrders(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	orders, err = svc.ListUserOrders(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
