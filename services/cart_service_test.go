package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"bike-shop/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCartStore is an in-memory CartStore for service tests.
type memCartStore struct {
	mu         sync.Mutex
	carts      map[int]*models.Cart
	lines      map[int]*models.CartLine
	nextCartID int
	nextLineID int
}

func newMemCartStore() *memCartStore {
	return &memCartStore{
		carts:      map[int]*models.Cart{},
		lines:      map[int]*models.CartLine{},
		nextCartID: 1,
		nextLineID: 1,
	}
}

func (s *memCartStore) WithinTx(ctx context.Context, fn func(CartStore) error) error {
	return fn(s)
}

func (s *memCartStore) GetCartByOwner(ctx context.Context, owner models.OwnerKey) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cart := range s.carts {
		switch owner.Kind {
		case models.OwnerUser:
			if cart.UserID != nil && *cart.UserID == owner.UserID {
				copied := *cart
				return &copied, nil
			}
		case models.OwnerGuest:
			if cart.GuestSession != nil && *cart.GuestSession == owner.GuestSession {
				copied := *cart
				return &copied, nil
			}
		}
	}
	return nil, models.ErrNotFound
}

func (s *memCartStore) CreateCart(ctx context.Context, owner models.OwnerKey) (*models.Cart, error) {
	if _, err := s.GetCartByOwner(ctx, owner); err == nil {
		return nil, models.ErrDuplicateKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := &models.Cart{ID: s.nextCartID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.nextCartID++
	switch owner.Kind {
	case models.OwnerUser:
		userID := owner.UserID
		cart.UserID = &userID
	case models.OwnerGuest:
		session := owner.GuestSession
		cart.GuestSession = &session
	}
	s.carts[cart.ID] = cart
	copied := *cart
	return &copied, nil
}

func (s *memCartStore) GetCart(ctx context.Context, cartID int) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[cartID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *cart
	return &copied, nil
}

func (s *memCartStore) DeleteCart(ctx context.Context, cartID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carts[cartID]; !ok {
		return models.ErrNotFound
	}
	delete(s.carts, cartID)
	for id, line := range s.lines {
		if line.CartID == cartID {
			delete(s.lines, id)
		}
	}
	return nil
}

func (s *memCartStore) TouchCart(ctx context.Context, cartID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart, ok := s.carts[cartID]; ok {
		cart.UpdatedAt = time.Now()
	}
	return nil
}

func (s *memCartStore) GetLines(ctx context.Context, cartID int) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := []models.CartLine{}
	for id := 1; id < s.nextLineID; id++ {
		if line, ok := s.lines[id]; ok && line.CartID == cartID {
			lines = append(lines, *line)
		}
	}
	return lines, nil
}

func (s *memCartStore) GetLine(ctx context.Context, lineID int) (*models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[lineID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *line
	return &copied, nil
}

func (s *memCartStore) GetLineByArticle(ctx context.Context, cartID int, articleNr string) (*models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.lines {
		if line.CartID == cartID && line.ArticleNr == articleNr {
			copied := *line
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *memCartStore) InsertLine(ctx context.Context, line *models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line.ID = s.nextLineID
	line.AddedAt = time.Now()
	s.nextLineID++
	copied := *line
	s.lines[line.ID] = &copied
	return nil
}

func (s *memCartStore) UpdateLineQuantity(ctx context.Context, lineID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[lineID]
	if !ok {
		return models.ErrNotFound
	}
	line.Quantity = quantity
	return nil
}

func (s *memCartStore) ReparentLine(ctx context.Context, lineID, newCartID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[lineID]
	if !ok {
		return models.ErrNotFound
	}
	line.CartID = newCartID
	return nil
}

func (s *memCartStore) DeleteLine(ctx context.Context, lineID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[lineID]; !ok {
		return models.ErrNotFound
	}
	delete(s.lines, lineID)
	return nil
}

func (s *memCartStore) ClearLines(ctx context.Context, cartID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, line := range s.lines {
		if line.CartID == cartID {
			delete(s.lines, id)
		}
	}
	return nil
}

type memProducts struct {
	products map[string]*models.Product
}

func (p *memProducts) FindByArticleNr(ctx context.Context, articleNr string) (*models.Product, error) {
	product, ok := p.products[articleNr]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *product
	return &copied, nil
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSettings() CartSettings {
	return CartSettings{
		MaxQuantity:           100,
		FreeShippingThreshold: money("100"),
		FlatShippingFee:       money("9.99"),
		DefaultVATCountry:     "AT",
	}
}

func testProducts() *memProducts {
	return &memProducts{products: map[string]*models.Product{
		"BIKE-1": {
			ArticleNr:   "BIKE-1",
			ArticleName: "Gravel Bike 54cm",
			PriceEUR:    money("125.00"),
			Stock:       500,
			IsActive:    true,
		},
		"BIKE-FATHER": {
			ArticleNr:       "BIKE-FATHER",
			ArticleName:     "Gravel Bike",
			PriceEUR:        money("125.00"),
			IsFatherArticle: true,
			IsActive:        true,
		},
		"LIGHT-1": {
			ArticleNr:   "LIGHT-1",
			ArticleName: "Front Light",
			PriceEUR:    money("19.90"),
			Stock:       3,
			IsActive:    true,
		},
		"GONE-1": {
			ArticleNr:   "GONE-1",
			ArticleName: "Discontinued Pedals",
			PriceEUR:    money("25.00"),
			Stock:       10,
			IsActive:    false,
		},
	}}
}

func newTestCartService() (*CartService, *memCartStore) {
	store := newMemCartStore()
	return NewCartService(store, testProducts(), testSettings()), store
}

func TestResolveCartMintsGuestSession(t *testing.T) {
	svc, _ := newTestCartService()

	cart, err := svc.ResolveCart(context.Background(), models.GuestKey(""))
	require.NoError(t, err)
	require.NotNil(t, cart.GuestSession)
	assert.NotEmpty(t, *cart.GuestSession)
	assert.Nil(t, cart.UserID)
}

func TestResolveCartIsStablePerOwner(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	first, err := svc.ResolveCart(ctx, models.UserKey(7))
	require.NoError(t, err)
	second, err := svc.ResolveCart(ctx, models.UserKey(7))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

// lostCreateStore simulates losing the lookup-or-create race once: the first
// CreateCart plants the winner's cart and reports the unique violation, so the
// caller has to loop around and fetch it.
type lostCreateStore struct {
	*memCartStore
	lost bool
}

func (s *lostCreateStore) WithinTx(ctx context.Context, fn func(CartStore) error) error {
	return fn(s)
}

func (s *lostCreateStore) CreateCart(ctx context.Context, owner models.OwnerKey) (*models.Cart, error) {
	if !s.lost {
		s.lost = true
		if _, err := s.memCartStore.CreateCart(ctx, owner); err != nil {
			return nil, err
		}
		return nil, models.ErrDuplicateKey
	}
	return s.memCartStore.CreateCart(ctx, owner)
}

func TestResolveCartRefetchesAfterLostCreate(t *testing.T) {
	store := &lostCreateStore{memCartStore: newMemCartStore()}
	svc := NewCartService(store, testProducts(), testSettings())
	ctx := context.Background()

	cart, err := svc.ResolveCart(ctx, models.UserKey(7))
	require.NoError(t, err)

	// The cart handed back is the one the concurrent winner created.
	winner, err := store.memCartStore.GetCartByOwner(ctx, models.UserKey(7))
	require.NoError(t, err)
	assert.Equal(t, winner.ID, cart.ID)
	assert.True(t, store.lost)
}

// conflictingCartStore never lets a create land and never finds a cart,
// which is how a pathological store would starve the retry loop.
type conflictingCartStore struct {
	*memCartStore
	creates int
}

func (s *conflictingCartStore) WithinTx(ctx context.Context, fn func(CartStore) error) error {
	return fn(s)
}

func (s *conflictingCartStore) GetCartByOwner(ctx context.Context, owner models.OwnerKey) (*models.Cart, error) {
	return nil, models.ErrNotFound
}

func (s *conflictingCartStore) CreateCart(ctx context.Context, owner models.OwnerKey) (*models.Cart, error) {
	s.creates++
	return nil, models.ErrDuplicateKey
}

func TestResolveCartGivesUpAfterRetries(t *testing.T) {
	store := &conflictingCartStore{memCartStore: newMemCartStore()}
	svc := NewCartService(store, testProducts(), testSettings())

	_, err := svc.ResolveCart(context.Background(), models.UserKey(7))
	assert.ErrorIs(t, err, models.ErrConflictRetryExhausted)
	assert.Equal(t, resolveRetries, store.creates)
}

func TestAddItemAccumulatesAndClamps(t *testing.T) {
	svc, store := newTestCartService()
	ctx := context.Background()
	owner := models.UserKey(1)

	view, err := svc.AddItem(ctx, owner, "BIKE-1", 60)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 60, view.Items[0].Quantity)

	// Same article again: quantities sum, capped at 100.
	view, err = svc.AddItem(ctx, owner, "BIKE-1", 60)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 100, view.Items[0].Quantity)

	lines, err := store.GetLines(ctx, view.Cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 100, lines[0].Quantity)
}

func TestAddItemRejectsBadInput(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()
	owner := models.UserKey(1)

	_, err := svc.AddItem(ctx, owner, "BIKE-1", 0)
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, owner, "BIKE-1", -3)
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, owner, "NOPE-404", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.AddItem(ctx, owner, "GONE-1", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.AddItem(ctx, owner, "BIKE-FATHER", 1)
	assert.ErrorIs(t, err, models.ErrProductNotPurchasable)

	_, err = svc.AddItem(ctx, owner, "LIGHT-1", 4)
	assert.ErrorIs(t, err, models.ErrOutOfStock)
}

// racingLineStore loses the first line insert to a concurrent request: it
// plants the winner's line and reports the unique violation.
type racingLineStore struct {
	*memCartStore
	lost bool
}

func (s *racingLineStore) WithinTx(ctx context.Context, fn func(CartStore) error) error {
	return fn(s)
}

func (s *racingLineStore) InsertLine(ctx context.Context, line *models.CartLine) error {
	if !s.lost {
		s.lost = true
		winner := *line
		winner.Quantity = 2
		if err := s.memCartStore.InsertLine(ctx, &winner); err != nil {
			return err
		}
		return models.ErrDuplicateKey
	}
	return s.memCartStore.InsertLine(ctx, line)
}

func TestAddItemFoldsLostInsertIntoWinnerLine(t *testing.T) {
	store := &racingLineStore{memCartStore: newMemCartStore()}
	svc := NewCartService(store, testProducts(), testSettings())
	ctx := context.Background()

	view, err := svc.AddItem(ctx, models.UserKey(1), "BIKE-1", 3)
	require.NoError(t, err)
	require.True(t, store.lost)

	// One line, holding both requests' quantities.
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestAddItemSnapshotsPrice(t *testing.T) {
	products := testProducts()
	store := newMemCartStore()
	svc := NewCartService(store, products, testSettings())
	ctx := context.Background()
	owner := models.UserKey(1)

	view, err := svc.AddItem(ctx, owner, "BIKE-1", 1)
	require.NoError(t, err)
	assert.True(t, view.Items[0].PriceAtAddition.Equal(money("125.00")))
	assert.False(t, view.Items[0].PriceChanged)

	// Price rises after the item is in the cart: the snapshot stays, the
	// view flags the change and subtotals keep using the snapshot.
	products.products["BIKE-1"].PriceEUR = money("150.00")

	view, err = svc.ViewCart(ctx, owner, "")
	require.NoError(t, err)
	assert.True(t, view.Items[0].PriceAtAddition.Equal(money("125.00")))
	assert.True(t, view.Items[0].CurrentPrice.Equal(money("150.00")))
	assert.True(t, view.Items[0].PriceChanged)
	assert.True(t, view.Summary.Subtotal.Equal(money("125.00")))
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()
	owner := models.UserKey(1)

	view, err := svc.AddItem(ctx, owner, "BIKE-1", 2)
	require.NoError(t, err)
	lineID := view.Items[0].ID

	view, err = svc.UpdateItemQuantity(ctx, owner, lineID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)

	// Above the cap: clamps silently.
	view, err = svc.UpdateItemQuantity(ctx, owner, lineID, 9999)
	require.NoError(t, err)
	assert.Equal(t, 100, view.Items[0].Quantity)

	_, err = svc.UpdateItemQuantity(ctx, owner, lineID, -1)
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)

	// Zero removes the line; touching it afterwards is NotFound.
	view, err = svc.UpdateItemQuantity(ctx, owner, lineID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = svc.RemoveItem(ctx, owner, lineID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateItemQuantityForeignCart(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	view, err := svc.AddItem(ctx, models.UserKey(1), "BIKE-1", 2)
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(ctx, models.UserKey(2), view.Items[0].ID, 5)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.RemoveItem(ctx, models.UserKey(2), view.Items[0].ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestMergeGuestIntoUser(t *testing.T) {
	svc, store := newTestCartService()
	ctx := context.Background()

	guestView, err := svc.AddItem(ctx, models.GuestKey("sess-1"), "BIKE-1", 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, models.GuestKey("sess-1"), "LIGHT-1", 1)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, models.UserKey(9), "BIKE-1", 2)
	require.NoError(t, err)

	view, err := svc.MergeGuestIntoUser(ctx, "sess-1", 9)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	byArticle := map[string]models.CartLineView{}
	for _, item := range view.Items {
		byArticle[item.ArticleNr] = item
	}
	assert.Equal(t, 5, byArticle["BIKE-1"].Quantity)
	assert.Equal(t, 1, byArticle["LIGHT-1"].Quantity)

	// Guest cart is gone.
	_, err = store.GetCart(ctx, guestView.Cart.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// A retried merge is a no-op.
	again, err := svc.MergeGuestIntoUser(ctx, "sess-1", 9)
	require.NoError(t, err)
	require.Len(t, again.Items, 2)
	for _, item := range again.Items {
		assert.Equal(t, byArticle[item.ArticleNr].Quantity, item.Quantity)
	}
}

func TestMergeClampsSummedQuantities(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, models.GuestKey("sess-2"), "BIKE-1", 80)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, models.UserKey(4), "BIKE-1", 80)
	require.NoError(t, err)

	view, err := svc.MergeGuestIntoUser(ctx, "sess-2", 4)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 100, view.Items[0].Quantity)
}

func TestMergeWithoutGuestCart(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, models.UserKey(4), "BIKE-1", 1)
	require.NoError(t, err)

	view, err := svc.MergeGuestIntoUser(ctx, "never-existed", 4)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)
}

func TestCartCount(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()
	owner := models.UserKey(3)

	// No cart yet: zero, not an error.
	count, err := svc.CartCount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, count.Count)
	assert.Equal(t, 0, count.UniqueItems)

	_, err = svc.AddItem(ctx, owner, "BIKE-1", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, "LIGHT-1", 3)
	require.NoError(t, err)

	count, err = svc.CartCount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, count.Count)
	assert.Equal(t, 2, count.UniqueItems)
}

func TestClearCart(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()
	owner := models.UserKey(3)

	_, err := svc.AddItem(ctx, owner, "BIKE-1", 2)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, owner))

	view, err := svc.ViewCart(ctx, owner, "")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.Summary.ItemCount)
}

func TestComputeTotalsWorkedExample(t *testing.T) {
	svc, _ := newTestCartService()

	// 2 x 125.00 = 250.00; AT VAT 20% = 50.00; free shipping above 100.
	lines := []models.CartLine{
		{ArticleNr: "BIKE-1", Quantity: 2, PriceAtAddition: money("125.00")},
	}

	summary := svc.ComputeTotals(lines, "AT")
	assert.True(t, summary.Subtotal.Equal(money("250.00")), "subtotal %s", summary.Subtotal)
	assert.True(t, summary.TaxRate.Equal(money("20")), "tax rate %s", summary.TaxRate)
	assert.True(t, summary.TaxAmount.Equal(money("50.00")), "tax %s", summary.TaxAmount)
	assert.True(t, summary.Shipping.IsZero(), "shipping %s", summary.Shipping)
	assert.True(t, summary.Total.Equal(money("300.00")), "total %s", summary.Total)
	assert.Equal(t, 2, summary.ItemCount)
	assert.Equal(t, 1, summary.UniqueItems)
}

func TestComputeTotalsShippingAndFallbacks(t *testing.T) {
	svc, _ := newTestCartService()

	lines := []models.CartLine{
		{ArticleNr: "LIGHT-1", Quantity: 1, PriceAtAddition: money("19.90")},
	}

	// Below the threshold: flat fee applies.
	summary := svc.ComputeTotals(lines, "DE")
	assert.True(t, summary.TaxRate.Equal(money("19")))
	assert.True(t, summary.Shipping.Equal(money("9.99")))
	expected := summary.Subtotal.Add(summary.TaxAmount).Add(summary.Shipping)
	assert.True(t, summary.Total.Equal(expected))

	// Unknown country falls back to the default rate, never to zero.
	summary = svc.ComputeTotals(lines, "XX")
	assert.True(t, summary.TaxRate.Equal(money("20")))

	// Empty country means the default too.
	summary = svc.ComputeTotals(lines, "")
	assert.True(t, summary.TaxRate.Equal(money("20")))

	// Empty cart ships nothing and costs nothing.
	summary = svc.ComputeTotals(nil, "AT")
	assert.True(t, summary.Subtotal.IsZero())
	assert.True(t, summary.Shipping.IsZero())
	assert.True(t, summary.Total.IsZero())
}

func TestTotalsAreSumOfRoundedParts(t *testing.T) {
	svc, _ := newTestCartService()

	lines := []models.CartLine{
		{ArticleNr: "A", Quantity: 3, PriceAtAddition: money("10.333")},
		{ArticleNr: "B", Quantity: 1, PriceAtAddition: money("0.005")},
	}

	summary := svc.ComputeTotals(lines, "AT")
	expected := summary.Subtotal.Add(summary.TaxAmount).Add(summary.Shipping)
	assert.True(t, summary.Total.Equal(expected),
		"total %s != %s + %s + %s", summary.Total, summary.Subtotal, summary.TaxAmount, summary.Shipping)
	assert.Equal(t, int32(-2), summary.Subtotal.Exponent())
}
