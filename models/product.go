package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product maps one article. A father article represents a product family
// (e.g. "this bike") and cannot be purchased itself; only child variants
// carry stock and end up in carts.
type Product struct {
	ID              int             `json:"productid"`
	ArticleNr       string          `json:"articlenr"`
	ArticleName     string          `json:"articlename"`
	Description     string          `json:"description,omitempty"`
	Manufacturer    string          `json:"manufacturer,omitempty"`
	PriceEUR        decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	Colour          string          `json:"colour,omitempty"`
	Size            string          `json:"size,omitempty"`
	FatherArticle   string          `json:"father_article,omitempty"`
	IsFatherArticle bool            `json:"is_father_article"`
	ImageURL        string          `json:"image_url,omitempty"`
	ImagePublicID   string          `json:"-"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Variation is one selectable option of a father article, e.g. Colour=Red.
type Variation struct {
	FatherArticle string `json:"father_article"`
	Variation     string `json:"variation"`
	Value         string `json:"variation_value"`
	SortNr        int    `json:"sort_nr"`
	ValueSortNr   int    `json:"value_sort_nr"`
}

type ProductDetail struct {
	Product
	Variations []Variation `json:"variations,omitempty"`
	Children   []Product   `json:"children,omitempty"`
}
