package repositories

import (
	"context"
	"errors"
	"fmt"

	"bike-shop/config"
	"bike-shop/models"
	"bike-shop/services"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository code runs inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type CartRepository struct {
	db querier
}

func NewCartRepository() *CartRepository {
	return &CartRepository{db: config.DB}
}

func (r *CartRepository) WithinTx(ctx context.Context, fn func(services.CartStore) error) (txErr error) {
	pool, ok := r.db.(*pgxpool.Pool)
	if !ok {
		// Already transaction-bound.
		return fn(r)
	}

	tx, err := pool.Begin(ctx)
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

	if err := fn(&CartRepository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *CartRepository) GetCartByOwner(ctx context.Context, owner models.OwnerKey) (*models.Cart, error) {
	var row pgx.Row
	switch owner.Kind {
	case models.OwnerUser:
		row = r.db.QueryRow(ctx,
			`SELECT cart_id, user_id, guest_session_id, created_at, updated_at
			 FROM shopping_carts WHERE user_id = $1`, owner.UserID)
	case models.OwnerGuest:
		row = r.db.QueryRow(ctx,
			`SELECT cart_id, user_id, guest_session_id, created_at, updated_at
			 FROM shopping_carts WHERE guest_session_id = $1`, owner.GuestSession)
	default:
		return nil, fmt.Errorf("unknown owner kind %d", owner.Kind)
	}

	return scanCart(row)
}

func (r *CartRepository) CreateCart(ctx context.Context, owner models.OwnerKey) (*models.Cart, error) {
	var row pgx.Row
	switch owner.Kind {
	case models.OwnerUser:
		row = r.db.QueryRow(ctx,
			`INSERT INTO shopping_carts (user_id) VALUES ($1)
			 RETURNING cart_id, user_id, guest_session_id, created_at, updated_at`, owner.UserID)
	case models.OwnerGuest:
		row = r.db.QueryRow(ctx,
			`INSERT INTO shopping_carts (guest_session_id) VALUES ($1)
			 RETURNING cart_id, user_id, guest_session_id, created_at, updated_at`, owner.GuestSession)
	default:
		return nil, fmt.Errorf("unknown owner kind %d", owner.Kind)
	}

	cart, err := scanCart(row)
	if isUniqueViolation(err) {
		return nil, models.ErrDuplicateKey
	}
	return cart, err
}

func (r *CartRepository) GetCart(ctx context.Context, cartID int) (*models.Cart, error) {
	row := r.db.QueryRow(ctx,
		`SELECT cart_id, user_id, guest_session_id, created_at, updated_at
		 FROM shopping_carts WHERE cart_id = $1`, cartID)
	return scanCart(row)
}

func (r *CartRepository) DeleteCart(ctx context.Context, cartID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM shopping_carts WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CartRepository) TouchCart(ctx context.Context, cartID int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE shopping_carts SET updated_at = NOW() WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

func (r *CartRepository) GetLines(ctx context.Context, cartID int) ([]models.CartLine, error) {
	rows, err := r.db.Query(ctx,
		`SELECT cart_item_id, cart_id, articlenr, quantity, price_at_addition, added_at
		 FROM cart_items WHERE cart_id = $1 ORDER BY added_at, cart_item_id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ID, &line.CartID, &line.ArticleNr, &line.Quantity, &line.PriceAtAddition, &line.AddedAt); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *CartRepository) GetLine(ctx context.Context, lineID int) (*models.CartLine, error) {
	row := r.db.QueryRow(ctx,
		`SELECT cart_item_id, cart_id, articlenr, quantity, price_at_addition, added_at
		 FROM cart_items WHERE cart_item_id = $1`, lineID)
	return scanLine(row)
}

func (r *CartRepository) GetLineByArticle(ctx context.Context, cartID int, articleNr string) (*models.CartLine, error) {
	row := r.db.QueryRow(ctx,
		`SELECT cart_item_id, cart_id, articlenr, quantity, price_at_addition, added_at
		 FROM cart_items WHERE cart_id = $1 AND articlenr = $2`, cartID, articleNr)
	return scanLine(row)
}

func (r *CartRepository) InsertLine(ctx context.Context, line *models.CartLine) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO cart_items (cart_id, articlenr, quantity, price_at_addition)
		 VALUES ($1, $2, $3, $4)
		 RETURNING cart_item_id, added_at`,
		line.CartID, line.ArticleNr, line.Quantity, line.PriceAtAddition,
	).Scan(&line.ID, &line.AddedAt)
	if isUniqueViolation(err) {
		// Another request inserted a line for the same article first.
		return models.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert line: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateLineQuantity(ctx context.Context, lineID, quantity int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE cart_item_id = $2`, quantity, lineID)
	if err != nil {
		return fmt.Errorf("update line quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CartRepository) ReparentLine(ctx context.Context, lineID, newCartID int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cart_items SET cart_id = $1 WHERE cart_item_id = $2`, newCartID, lineID)
	if err != nil {
		return fmt.Errorf("reparent line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CartRepository) DeleteLine(ctx context.Context, lineID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_item_id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("delete line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CartRepository) ClearLines(ctx context.Context, cartID int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear lines: %w", err)
	}
	return nil
}

func scanCart(row pgx.Row) (*models.Cart, error) {
	var cart models.Cart
	err := row.Scan(&cart.ID, &cart.UserID, &cart.GuestSession, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart: %w", err)
	}
	return &cart, nil
}

func scanLine(row pgx.Row) (*models.CartLine, error) {
	var line models.CartLine
	err := row.Scan(&line.ID, &line.CartID, &line.ArticleNr, &line.Quantity, &line.PriceAtAddition, &line.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan line: %w", err)
	}
	return &line, nil
}
