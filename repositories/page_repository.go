package repositories

import (
	"context"
	"errors"
	"fmt"

	"bike-shop/config"
	"bike-shop/models"

	"github.com/jackc/pgx/v5"
)

type PageRepository struct{}

func NewPageRepository() *PageRepository {
	return &PageRepository{}
}

const pageColumns = `page_id, slug, title, description, show_in_menu, menu_order,
	is_published, created_at, updated_at`

func (r *PageRepository) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	row := config.DB.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = $1`, slug)
	page, err := scanPage(row)
	if err != nil {
		return nil, err
	}

	blocks, err := r.GetBlocks(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	page.Blocks = blocks
	return page, nil
}

func (r *PageRepository) GetByID(ctx context.Context, pageID int) (*models.Page, error) {
	row := config.DB.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE page_id = $1`, pageID)
	page, err := scanPage(row)
	if err != nil {
		return nil, err
	}

	blocks, err := r.GetBlocks(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	page.Blocks = blocks
	return page, nil
}

// ListMenu returns published pages flagged for the navigation menu.
func (r *PageRepository) ListMenu(ctx context.Context) ([]models.Page, error) {
	return r.list(ctx,
		`SELECT `+pageColumns+` FROM pages
		 WHERE show_in_menu = TRUE AND is_published = TRUE
		 ORDER BY menu_order, title`)
}

func (r *PageRepository) ListAll(ctx context.Context) ([]models.Page, error) {
	return r.list(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY menu_order, title`)
}

func (r *PageRepository) Create(ctx context.Context, page *models.Page) error {
	err := config.DB.QueryRow(ctx,
		`INSERT INTO pages (slug, title, description, show_in_menu, menu_order)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING page_id, is_published, created_at, updated_at`,
		page.Slug, page.Title, page.Description, page.ShowInMenu, page.MenuOrder,
	).Scan(&page.ID, &page.IsPublished, &page.CreatedAt, &page.UpdatedAt)
	if isUniqueViolation(err) {
		return models.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

func (r *PageRepository) Update(ctx context.Context, page *models.Page) error {
	tag, err := config.DB.Exec(ctx,
		`UPDATE pages SET title = $1, description = $2, show_in_menu = $3,
			menu_order = $4, updated_at = NOW()
		 WHERE page_id = $5`,
		page.Title, page.Description, page.ShowInMenu, page.MenuOrder, page.ID)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PageRepository) SetPublished(ctx context.Context, pageID int, published bool) error {
	tag, err := config.DB.Exec(ctx,
		`UPDATE pages SET is_published = $1, updated_at = NOW() WHERE page_id = $2`,
		published, pageID)
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PageRepository) Delete(ctx context.Context, pageID int) error {
	tag, err := config.DB.Exec(ctx, `DELETE FROM pages WHERE page_id = $1`, pageID)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PageRepository) GetBlocks(ctx context.Context, pageID int) ([]models.PageBlock, error) {
	rows, err := config.DB.Query(ctx,
		`SELECT block_id, page_id, block_type, content, sort_order, created_at, updated_at
		 FROM page_blocks WHERE page_id = $1 ORDER BY sort_order, block_id`, pageID)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	blocks := []models.PageBlock{}
	for rows.Next() {
		var b models.PageBlock
		if err := rows.Scan(&b.ID, &b.PageID, &b.BlockType, &b.Content, &b.SortOrder, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (r *PageRepository) AddBlock(ctx context.Context, block *models.PageBlock) error {
	err := config.DB.QueryRow(ctx,
		`INSERT INTO page_blocks (page_id, block_type, content, sort_order)
		 VALUES ($1, $2, $3, $4)
		 RETURNING block_id, created_at, updated_at`,
		block.PageID, block.BlockType, block.Content, block.SortOrder,
	).Scan(&block.ID, &block.CreatedAt, &block.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (r *PageRepository) UpdateBlock(ctx context.Context, blockID int, content string, sortOrder *int) error {
	tag, err := config.DB.Exec(ctx,
		`UPDATE page_blocks
		 SET content = CASE WHEN $1 <> '' THEN $1 ELSE content END,
			 sort_order = COALESCE($2, sort_order),
			 updated_at = NOW()
		 WHERE block_id = $3`,
		content, sortOrder, blockID)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PageRepository) DeleteBlock(ctx context.Context, blockID int) error {
	tag, err := config.DB.Exec(ctx, `DELETE FROM page_blocks WHERE block_id = $1`, blockID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ReorderBlocks rewrites sort_order following the given id order.
func (r *PageRepository) ReorderBlocks(ctx context.Context, pageID int, blockIDs []int) (txErr error) {
	tx, err := config.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx rollback: %w", rbErr))
			}
		}
	}()

	for i, blockID := range blockIDs {
		tag, err := tx.Exec(ctx,
			`UPDATE page_blocks SET sort_order = $1, updated_at = NOW()
			 WHERE block_id = $2 AND page_id = $3`,
			i, blockID, pageID)
		if err != nil {
			return fmt.Errorf("reorder block %d: %w", blockID, err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *PageRepository) list(ctx context.Context, query string) ([]models.Page, error) {
	rows, err := config.DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	pages := []models.Page{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *page)
	}
	return pages, rows.Err()
}

func scanPage(row pgx.Row) (*models.Page, error) {
	var page models.Page
	err := row.Scan(
		&page.ID, &page.Slug, &page.Title, &page.Description,
		&page.ShowInMenu, &page.MenuOrder, &page.IsPublished,
		&page.CreatedAt, &page.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan page: %w", err)
	}
	return &page, nil
}
