package repositories

import (
	"context"
	"errors"
	"fmt"

	"bike-shop/config"
	"bike-shop/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{pool: config.DB}
}

// NextSequence advances the per-year order counter in one atomic statement.
// The first allocation of a year inserts the floor; later ones increment.
// Concurrent callers each get a distinct value because the row-level update
// serializes on the counter row.
func (r *OrderRepository) NextSequence(ctx context.Context, year, floor int) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO order_sequences (year, seq) VALUES ($1, $2)
		 ON CONFLICT (year) DO UPDATE SET seq = order_sequences.seq + 1
		 RETURNING seq`,
		year, floor,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("advance order sequence: %w", err)
	}
	return seq, nil
}

func (r *OrderRepository) InsertOrder(ctx context.Context, order *models.Order) (txErr error) {
	tx, err := r.pool.Begin(ctx)
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

	err = tx.QueryRow(ctx,
		`INSERT INTO web_orders
			(ordernr, user_id, customer_email, customer_name, address, postal_code, city, country,
			 subtotal, tax_amount, shipping, total_amount, currency, payment_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING web_order_id, created_at, updated_at`,
		order.OrderNr, order.UserID, order.CustomerEmail, order.CustomerName,
		order.Address, order.PostalCode, order.City, order.Country,
		order.Subtotal, order.TaxAmount, order.Shipping, order.TotalAmount,
		order.Currency, order.PaymentStatus,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO web_order_items (web_order_id, articlenr, articlename, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING order_item_id`,
			item.OrderID, item.ArticleNr, item.ArticleName, item.Quantity, item.UnitPrice,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT web_order_id, ordernr, user_id, customer_email, customer_name, address,
			postal_code, city, country, subtotal, tax_amount, shipping, total_amount,
			currency, payment_status, payment_intent_id, created_at, updated_at
		 FROM web_orders WHERE web_order_id = $1`, orderID)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *OrderRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT web_order_id, ordernr, user_id, customer_email, customer_name, address,
			postal_code, city, country, subtotal, tax_amount, shipping, total_amount,
			currency, payment_status, payment_intent_id, created_at, updated_at
		 FROM web_orders WHERE payment_intent_id = $1`, paymentIntentID)
	return scanOrder(row)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT web_order_id, ordernr, user_id, customer_email, customer_name, address,
			postal_code, city, country, subtotal, tax_amount, shipping, total_amount,
			currency, payment_status, payment_intent_id, created_at, updated_at
		 FROM web_orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, orderID int, status, paymentIntentID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE web_orders
		 SET payment_status = $1,
			 payment_intent_id = CASE WHEN $2 <> '' THEN $2 ELSE payment_intent_id END,
			 updated_at = NOW()
		 WHERE web_order_id = $3`,
		status, paymentIntentID, orderID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) getItems(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_item_id, web_order_id, articlenr, articlename, quantity, unit_price
		 FROM web_order_items WHERE web_order_id = $1 ORDER BY order_item_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ArticleNr, &item.ArticleName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID, &order.OrderNr, &order.UserID, &order.CustomerEmail, &order.CustomerName,
		&order.Address, &order.PostalCode, &order.City, &order.Country,
		&order.Subtotal, &order.TaxAmount, &order.Shipping, &order.TotalAmount,
		&order.Currency, &order.PaymentStatus, &order.PaymentIntent,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &order, nil
}
