package models

import "time"

// Page is a CMS page built from ordered content blocks.
type Page struct {
	ID          int         `json:"page_id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	ShowInMenu  bool        `json:"show_in_menu"`
	MenuOrder   int         `json:"menu_order"`
	IsPublished bool        `json:"is_published"`
	Blocks      []PageBlock `json:"blocks,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PageBlock content is free-form JSON interpreted by the frontend per block type
// (hero, text, image, product_grid, ...).
type PageBlock struct {
	ID        int       `json:"block_id"`
	PageID    int       `json:"page_id"`
	BlockType string    `json:"block_type"`
	Content   string    `json:"content"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
