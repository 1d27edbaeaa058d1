package services

import (
	"context"
	"errors"
	"fmt"

	"bike-shop/config"
	"bike-shop/models"
	"bike-shop/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartStore is the persistence port for carts and their lines. The pgx
// implementation lives in repositories; tests use an in-memory store.
type CartStore interface {
	// WithinTx runs fn atomically. A store already bound to a transaction
	// just runs fn against itself.
	WithinTx(ctx context.Context, fn func(CartStore) error) error

	GetCartByOwner(ctx context.Context, owner models.OwnerKey) (*models.Cart, error)
	// CreateCart returns models.ErrDuplicateKey when another request created
	// a cart for the same owner first.
	CreateCart(ctx context.Context, owner models.OwnerKey) (*models.Cart, error)
	GetCart(ctx context.Context, cartID int) (*models.Cart, error)
	DeleteCart(ctx context.Context, cartID int) error
	TouchCart(ctx context.Context, cartID int) error

	GetLines(ctx context.Context, cartID int) ([]models.CartLine, error)
	GetLine(ctx context.Context, lineID int) (*models.CartLine, error)
	GetLineByArticle(ctx context.Context, cartID int, articleNr string) (*models.CartLine, error)
	// InsertLine returns models.ErrDuplicateKey when the cart already holds
	// a line for the same article.
	InsertLine(ctx context.Context, line *models.CartLine) error
	UpdateLineQuantity(ctx context.Context, lineID, quantity int) error
	ReparentLine(ctx context.Context, lineID, newCartID int) error
	DeleteLine(ctx context.Context, lineID int) error
	ClearLines(ctx context.Context, cartID int) error
}

// ProductFinder is the catalog port the cart depends on.
type ProductFinder interface {
	FindByArticleNr(ctx context.Context, articleNr string) (*models.Product, error)
}

type CartSettings struct {
	MaxQuantity           int
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	DefaultVATCountry     string
}

func DefaultCartSettings() CartSettings {
	return CartSettings{
		MaxQuantity:           config.AppConfig.MaxCartQuantity,
		FreeShippingThreshold: config.AppConfig.FreeShippingThreshold,
		FlatShippingFee:       config.AppConfig.FlatShippingFee,
		DefaultVATCountry:     config.AppConfig.DefaultVATCountry,
	}
}

// CartService owns the cart lifecycle for both guests and authenticated users:
// lookup-or-create, line mutation, totals, and the guest-to-user merge on login.
type CartService struct {
	carts    CartStore
	products ProductFinder
	settings CartSettings
}

func NewCartService(carts CartStore, products ProductFinder, settings CartSettings) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		settings: settings,
	}
}

const resolveRetries = 3

// ResolveCart finds the cart for an owner key, creating one lazily. A guest
// key without a session id mints a fresh session. Concurrent first requests
// for the same key are resolved by the store's unique owner index: the losing
// insert refetches the winner's row.
func (s *CartService) ResolveCart(ctx context.Context, owner models.OwnerKey) (*models.Cart, error) {
	if owner.Kind == models.OwnerGuest && owner.GuestSession == "" {
		owner.GuestSession = uuid.NewString()
	}

	for attempt := 0; attempt < resolveRetries; attempt++ {
		cart, err := s.carts.GetCartByOwner(ctx, owner)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("get cart by owner: %w", err)
		}

		cart, err = s.carts.CreateCart(ctx, owner)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, models.ErrDuplicateKey) {
			return nil, fmt.Errorf("create cart: %w", err)
		}
		// Lost the insert race, loop around and fetch the winner.
	}

	return nil, models.ErrConflictRetryExhausted
}

// AddItem puts a product into the owner's cart. An existing line for the same
// article has the quantities summed and clamped to the configured maximum
// (excess is dropped silently, matching shop behavior); a new line snapshots
// the product's current price.
func (s *CartService) AddItem(ctx context.Context, owner models.OwnerKey, articleNr string, quantity int) (*models.CartView, error) {
	if quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}

	product, err := s.products.FindByArticleNr(ctx, articleNr)
	if err != nil {
		return nil, err
	}
	if product.IsFatherArticle {
		return nil, models.ErrProductNotPurchasable
	}
	if !product.IsActive {
		return nil, models.ErrNotFound
	}

	cart, err := s.ResolveCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	err = s.carts.WithinTx(ctx, func(tx CartStore) error {
		line, err := tx.GetLineByArticle(ctx, cart.ID, articleNr)
		switch {
		case err == nil:
			newQty := s.clampQuantity(line.Quantity + quantity)
			if product.Stock < newQty {
				return models.ErrOutOfStock
			}
			if err := tx.UpdateLineQuantity(ctx, line.ID, newQty); err != nil {
				return fmt.Errorf("update line quantity: %w", err)
			}
		case errors.Is(err, models.ErrNotFound):
			newQty := s.clampQuantity(quantity)
			if product.Stock < newQty {
				return models.ErrOutOfStock
			}
			newLine := &models.CartLine{
				CartID:          cart.ID,
				ArticleNr:       articleNr,
				Quantity:        newQty,
				PriceAtAddition: product.PriceEUR,
			}
			insertErr := tx.InsertLine(ctx, newLine)
			if errors.Is(insertErr, models.ErrDuplicateKey) {
				// Lost a concurrent insert for the same article; fold the
				// quantity into the winner's line instead.
				winner, err := tx.GetLineByArticle(ctx, cart.ID, articleNr)
				if err != nil {
					return fmt.Errorf("refetch line after lost insert: %w", err)
				}
				merged := s.clampQuantity(winner.Quantity + quantity)
				if product.Stock < merged {
					return models.ErrOutOfStock
				}
				if err := tx.UpdateLineQuantity(ctx, winner.ID, merged); err != nil {
					return fmt.Errorf("update line quantity: %w", err)
				}
			} else if insertErr != nil {
				return fmt.Errorf("insert line: %w", insertErr)
			}
		default:
			return fmt.Errorf("get line by article: %w", err)
		}

		return tx.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.BuildView(ctx, cart, "")
}

// UpdateItemQuantity sets a line's quantity; zero deletes the line. The clamp
// to [1, max] applies silently on the way up, never on the way down.
func (s *CartService) UpdateItemQuantity(ctx context.Context, owner models.OwnerKey, lineID, quantity int) (*models.CartView, error) {
	if quantity < 0 {
		return nil, models.ErrInvalidQuantity
	}

	line, err := s.carts.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, line.CartID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(owner, cart); err != nil {
		return nil, err
	}

	if quantity == 0 {
		if err := s.carts.DeleteLine(ctx, lineID); err != nil {
			return nil, err
		}
	} else {
		if err := s.carts.UpdateLineQuantity(ctx, lineID, s.clampQuantity(quantity)); err != nil {
			return nil, err
		}
	}

	if err := s.carts.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.BuildView(ctx, cart, "")
}

// RemoveItem deletes a line. A second call for the same id reports NotFound.
func (s *CartService) RemoveItem(ctx context.Context, owner models.OwnerKey, lineID int) (*models.CartView, error) {
	line, err := s.carts.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, line.CartID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(owner, cart); err != nil {
		return nil, err
	}

	if err := s.carts.DeleteLine(ctx, lineID); err != nil {
		return nil, err
	}
	if err := s.carts.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.BuildView(ctx, cart, "")
}

// MergeGuestIntoUser reconciles a guest cart into the user's cart after login.
// Lines for articles the user already has get their quantities summed and
// clamped; the rest are reparented wholesale, which keeps the guest's price
// snapshots and added-at timestamps. The guest cart row is deleted last, all
// inside one transaction, so a retried merge finds no guest cart and is a
// no-op: the operation is idempotent.
func (s *CartService) MergeGuestIntoUser(ctx context.Context, guestSession string, userID int) (*models.CartView, error) {
	userCart, err := s.ResolveCart(ctx, models.UserKey(userID))
	if err != nil {
		return nil, err
	}

	guestCart, err := s.carts.GetCartByOwner(ctx, models.GuestKey(guestSession))
	if errors.Is(err, models.ErrNotFound) {
		// Login without a prior guest cart is the common case.
		return s.BuildView(ctx, userCart, "")
	}
	if err != nil {
		return nil, fmt.Errorf("get guest cart: %w", err)
	}

	err = s.carts.WithinTx(ctx, func(tx CartStore) error {
		guestLines, err := tx.GetLines(ctx, guestCart.ID)
		if err != nil {
			return fmt.Errorf("get guest lines: %w", err)
		}

		for _, guestLine := range guestLines {
			userLine, err := tx.GetLineByArticle(ctx, userCart.ID, guestLine.ArticleNr)
			switch {
			case err == nil:
				merged := s.clampQuantity(userLine.Quantity + guestLine.Quantity)
				if err := tx.UpdateLineQuantity(ctx, userLine.ID, merged); err != nil {
					return fmt.Errorf("merge line quantity: %w", err)
				}
			case errors.Is(err, models.ErrNotFound):
				if err := tx.ReparentLine(ctx, guestLine.ID, userCart.ID); err != nil {
					return fmt.Errorf("reparent line: %w", err)
				}
			default:
				return fmt.Errorf("get user line: %w", err)
			}
		}

		// Remaining guest lines (the summed ones) go down with the cart.
		if err := tx.DeleteCart(ctx, guestCart.ID); err != nil {
			return fmt.Errorf("delete guest cart: %w", err)
		}

		return tx.TouchCart(ctx, userCart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.BuildView(ctx, userCart, "")
}

// ClearCart removes all lines but keeps the cart row; used on checkout
// completion and by the explicit clear endpoint.
func (s *CartService) ClearCart(ctx context.Context, owner models.OwnerKey) error {
	cart, err := s.carts.GetCartByOwner(ctx, owner)
	if err != nil {
		return err
	}

	if err := s.carts.ClearLines(ctx, cart.ID); err != nil {
		return err
	}
	return s.carts.TouchCart(ctx, cart.ID)
}

// CartCount reports total quantity and distinct lines for the header badge.
// A missing cart is an empty cart, not an error.
func (s *CartService) CartCount(ctx context.Context, owner models.OwnerKey) (models.CartCountResponse, error) {
	cart, err := s.carts.GetCartByOwner(ctx, owner)
	if errors.Is(err, models.ErrNotFound) {
		return models.CartCountResponse{}, nil
	}
	if err != nil {
		return models.CartCountResponse{}, err
	}

	lines, err := s.carts.GetLines(ctx, cart.ID)
	if err != nil {
		return models.CartCountResponse{}, err
	}

	count := models.CartCountResponse{UniqueItems: len(lines)}
	for _, line := range lines {
		count.Count += line.Quantity
	}
	return count, nil
}

// ViewCart resolves (or lazily creates) the cart and builds the full view.
func (s *CartService) ViewCart(ctx context.Context, owner models.OwnerKey, countryCode string) (*models.CartView, error) {
	cart, err := s.ResolveCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.BuildView(ctx, cart, countryCode)
}

// BuildView assembles line views with live product data (price_changed flags
// included) and the computed totals for the given destination country.
func (s *CartService) BuildView(ctx context.Context, cart *models.Cart, countryCode string) (*models.CartView, error) {
	lines, err := s.carts.GetLines(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	items := make([]models.CartLineView, 0, len(lines))
	for _, line := range lines {
		item := models.CartLineView{
			CartLine:     line,
			CurrentPrice: line.PriceAtAddition,
			LineSubtotal: utils.RoundMoney(line.PriceAtAddition.Mul(decimal.NewFromInt(int64(line.Quantity)))),
		}

		product, err := s.products.FindByArticleNr(ctx, line.ArticleNr)
		if err == nil {
			item.ArticleName = product.ArticleName
			item.Manufacturer = product.Manufacturer
			item.ImageURL = product.ImageURL
			item.CurrentPrice = product.PriceEUR
			item.PriceChanged = !product.PriceEUR.Equal(line.PriceAtAddition)
		} else if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("find product %s: %w", line.ArticleNr, err)
		}

		items = append(items, item)
	}

	return &models.CartView{
		Cart:    *cart,
		Items:   items,
		Summary: s.ComputeTotals(lines, countryCode),
	}, nil
}

// ComputeTotals is pure over the lines. VAT comes from the destination
// country's rate (falling back to the configured default country, never to
// zero); shipping is free above the threshold. Every monetary result is
// rounded to 2 decimal places with banker's rounding, and the total is the
// exact sum of the already-rounded parts.
func (s *CartService) ComputeTotals(lines []models.CartLine, countryCode string) models.CartSummary {
	if countryCode == "" {
		countryCode = s.settings.DefaultVATCountry
	}

	subtotal := decimal.Zero
	itemCount := 0
	for _, line := range lines {
		subtotal = subtotal.Add(line.PriceAtAddition.Mul(decimal.NewFromInt(int64(line.Quantity))))
		itemCount += line.Quantity
	}
	subtotal = utils.RoundMoney(subtotal)

	taxRate := utils.VATRate(countryCode, s.settings.DefaultVATCountry)
	taxAmount := utils.RoundMoney(subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)))

	shipping := decimal.Zero
	if itemCount > 0 && subtotal.LessThan(s.settings.FreeShippingThreshold) {
		shipping = utils.RoundMoney(s.settings.FlatShippingFee)
	}

	return models.CartSummary{
		Subtotal:    subtotal,
		TaxRate:     taxRate,
		TaxAmount:   taxAmount,
		Shipping:    shipping,
		Total:       subtotal.Add(taxAmount).Add(shipping),
		ItemCount:   itemCount,
		UniqueItems: len(lines),
	}
}

func (s *CartService) clampQuantity(quantity int) int {
	if quantity > s.settings.MaxQuantity {
		return s.settings.MaxQuantity
	}
	if quantity < 1 {
		return 1
	}
	return quantity
}

// Guests are trusted by possession of the session id; authenticated callers
// must actually own the cart.
func (s *CartService) checkOwnership(owner models.OwnerKey, cart *models.Cart) error {
	if owner.Kind != models.OwnerUser {
		return nil
	}
	if cart.UserID == nil || *cart.UserID != owner.UserID {
		return models.ErrForbidden
	}
	return nil
}
