package repositories

import (
	"context"
	"errors"
	"fmt"

	"bike-shop/config"
	"bike-shop/models"

	"github.com/jackc/pgx/v5"
)

type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

const productColumns = `productid, articlenr, articlename, description, manufacturer,
	price_eur, stock, colour, size, father_article, is_father_article,
	image_url, image_public_id, is_active, created_at, updated_at`

func (r *ProductRepository) FindByArticleNr(ctx context.Context, articleNr string) (*models.Product, error) {
	row := config.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE articlenr = $1`, articleNr)
	return scanProduct(row)
}

// ListFathers pages through father articles (the browsable catalog entries).
// Search matches article name and manufacturer.
func (r *ProductRepository) ListFathers(ctx context.Context, search string, page, limit int) ([]models.Product, int, error) {
	offset := (page - 1) * limit

	var total int
	countQuery := `SELECT COUNT(*) FROM products WHERE is_father_article = TRUE AND is_active = TRUE`
	listQuery := `SELECT ` + productColumns + `
		FROM products WHERE is_father_article = TRUE AND is_active = TRUE`

	args := []any{}
	if search != "" {
		countQuery += ` AND (articlename ILIKE $1 OR manufacturer ILIKE $1)`
		listQuery += ` AND (articlename ILIKE $1 OR manufacturer ILIKE $1)`
		args = append(args, "%"+search+"%")
	}

	if err := config.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	listQuery += fmt.Sprintf(` ORDER BY articlename LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := config.DB.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *ProductRepository) GetVariations(ctx context.Context, fatherArticle string) ([]models.Variation, error) {
	rows, err := config.DB.Query(ctx,
		`SELECT father_article, variation, variation_value, sort_nr, value_sort_nr
		 FROM variations WHERE father_article = $1
		 ORDER BY sort_nr, value_sort_nr`, fatherArticle)
	if err != nil {
		return nil, fmt.Errorf("query variations: %w", err)
	}
	defer rows.Close()

	variations := []models.Variation{}
	for rows.Next() {
		var v models.Variation
		if err := rows.Scan(&v.FatherArticle, &v.Variation, &v.Value, &v.SortNr, &v.ValueSortNr); err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		variations = append(variations, v)
	}
	return variations, rows.Err()
}

func (r *ProductRepository) GetChildren(ctx context.Context, fatherArticle string) ([]models.Product, error) {
	rows, err := config.DB.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE father_article = $1 AND is_active = TRUE
		 ORDER BY articlenr`, fatherArticle)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	children := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, *p)
	}
	return children, rows.Err()
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	err := config.DB.QueryRow(ctx,
		`INSERT INTO products
			(articlenr, articlename, description, manufacturer, price_eur, stock,
			 colour, size, father_article, is_father_article, image_url, image_public_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING productid, is_active, created_at, updated_at`,
		product.ArticleNr, product.ArticleName, product.Description, product.Manufacturer,
		product.PriceEUR, product.Stock, product.Colour, product.Size,
		product.FatherArticle, product.IsFatherArticle, product.ImageURL, product.ImagePublicID,
	).Scan(&product.ID, &product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	if isUniqueViolation(err) {
		return models.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	tag, err := config.DB.Exec(ctx,
		`UPDATE products SET articlename = $1, description = $2, manufacturer = $3,
			price_eur = $4, stock = $5, is_active = $6, image_url = $7,
			image_public_id = $8, updated_at = NOW()
		 WHERE productid = $9`,
		product.ArticleName, product.Description, product.Manufacturer,
		product.PriceEUR, product.Stock, product.IsActive,
		product.ImageURL, product.ImagePublicID, product.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deactivates the article; order history keeps referencing it.
func (r *ProductRepository) Delete(ctx context.Context, articleNr string) error {
	tag, err := config.DB.Exec(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE articlenr = $1`, articleNr)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.ArticleNr, &p.ArticleName, &p.Description, &p.Manufacturer,
		&p.PriceEUR, &p.Stock, &p.Colour, &p.Size, &p.FatherArticle, &p.IsFatherArticle,
		&p.ImageURL, &p.ImagePublicID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}
