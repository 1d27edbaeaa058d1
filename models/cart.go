package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnerKey identifies who a cart belongs to: an authenticated user or a guest
// browser session, never both. Lookups switch on Kind exhaustively.
type OwnerKind int

const (
	OwnerUser OwnerKind = iota
	OwnerGuest
)

type OwnerKey struct {
	Kind         OwnerKind
	UserID       int
	GuestSession string
}

func UserKey(userID int) OwnerKey {
	return OwnerKey{Kind: OwnerUser, UserID: userID}
}

func GuestKey(session string) OwnerKey {
	return OwnerKey{Kind: OwnerGuest, GuestSession: session}
}

type Cart struct {
	ID           int       `json:"cart_id"`
	UserID       *int      `json:"user_id,omitempty"`
	GuestSession *string   `json:"guest_session_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CartLine is one product in a cart. PriceAtAddition is the unit price
// snapshotted when the line was created; it never tracks later catalog changes.
type CartLine struct {
	ID              int             `json:"cart_item_id"`
	CartID          int             `json:"cart_id"`
	ArticleNr       string          `json:"articlenr"`
	Quantity        int             `json:"quantity"`
	PriceAtAddition decimal.Decimal `json:"price_at_addition"`
	AddedAt         time.Time       `json:"added_at"`
}

type CartLineView struct {
	CartLine
	ArticleName  string          `json:"articlename"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	PriceChanged bool            `json:"price_changed"`
	LineSubtotal decimal.Decimal `json:"subtotal"`
}

type CartSummary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Shipping    decimal.Decimal `json:"shipping"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
	UniqueItems int             `json:"unique_items"`
}

type CartView struct {
	Cart
	Items   []CartLineView `json:"items"`
	Summary CartSummary    `json:"summary"`
}
