package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, order_number, user_id, status,
       subtotal, tax, shipping, discount, total,
       shipping_address, billing_address, payment, notes, created_at, updated_at`

// CreateOrder inserts the order, its items, the initial timeline entry, and
// applies every stock reservation inside a single transaction. Stock is
// taken with a conditional decrement; zero rows affected means another
// request got there first, and the whole order rolls back.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	shipAddr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	billAddr, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return err
	}
	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, order_number, user_id, status,
		   subtotal, tax, shipping, discount, total,
		   shipping_address, billing_address, payment, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.OrderNumber, o.UserID, o.Status,
		o.Summary.Subtotal, o.Summary.Tax, o.Summary.Shipping, o.Summary.Discount, o.Summary.Total,
		shipAddr, billAddr, payment, o.Notes, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items
			  (id, order_id, product_id, variant_id, product_name, sku, unit_price, quantity, total_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			item.ID, o.ID, item.ProductID, item.VariantID,
			item.ProductName, item.SKU, item.UnitPrice, item.Quantity, item.TotalPrice)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE product_variants
			SET quantity = quantity - $1, reserved = reserved + $1
			WHERE product_id = $2 AND variant_id = $3 AND quantity >= $1`,
			item.Quantity, item.ProductID, item.VariantID)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var available int
			if err := tx.QueryRowContext(ctx, `
				SELECT quantity FROM product_variants
				WHERE product_id = $1 AND variant_id = $2`,
				item.ProductID, item.VariantID).Scan(&available); err != nil {
				if err == sql.ErrNoRows {
					return apperr.NotFound(fmt.Sprintf("Variant %s not found", item.VariantID))
				}
				return err
			}
			return &apperr.InsufficientStockError{
				ProductName: item.ProductName,
				VariantID:   item.VariantID,
				Available:   available,
			}
		}
	}

	for _, entry := range o.Timeline {
		if err := insertTimelineEntry(ctx, tx, o.ID, entry); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertTimelineEntry(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, entry TimelineEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_timeline (id, order_id, status, note, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		uuid.New(), orderID, entry.Status, entry.Note, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert timeline entry: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, uid))
	if err != nil {
		return nil, err
	}
	return r.loadChildren(ctx, o)
}

func (r *postgresRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, orderNumber))
	if err != nil {
		return nil, err
	}
	return r.loadChildren(ctx, o)
}

func (r *postgresRepo) ListOrdersByUser(ctx context.Context, userID string, q ListQuery) ([]*Order, int, error) {
	where := `WHERE user_id=$1`
	args := []interface{}{userID}
	if q.Status != "" {
		args = append(args, q.Status)
		where += fmt.Sprintf(` AND status=$%d`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i, o := range orders {
		if orders[i], err = r.loadChildren(ctx, o); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

// CancelOrder restores stock for every item and appends the cancelled
// timeline entry in one transaction.
func (r *postgresRepo) CancelOrder(ctx context.Context, o *Order, entry TimelineEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		StatusCancelled, time.Now(), o.ID, StatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.InvalidTransition("Order can no longer be cancelled")
	}

	for _, item := range o.Items {
		_, err := tx.ExecContext(ctx, `
			UPDATE product_variants
			SET quantity = quantity + $1, reserved = reserved - $1
			WHERE product_id = $2 AND variant_id = $3`,
			item.Quantity, item.ProductID, item.VariantID)
		if err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := insertTimelineEntry(ctx, tx, o.ID, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*Order, error) {
	o := &Order{}
	var shipAddr, billAddr, payment []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status,
		&o.Summary.Subtotal, &o.Summary.Tax, &o.Summary.Shipping,
		&o.Summary.Discount, &o.Summary.Total,
		&shipAddr, &billAddr, &payment, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shipAddr, &o.ShippingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billAddr, &o.BillingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payment, &o.Payment); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) loadChildren(ctx context.Context, o *Order) (*Order, error) {
	items, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, variant_id, product_name, sku, unit_price, quantity, total_price
		FROM order_items WHERE order_id=$1`, o.ID)
	if err != nil {
		return nil, err
	}
	defer items.Close()
	for items.Next() {
		var it Item
		if err := items.Scan(&it.ID, &it.ProductID, &it.VariantID,
			&it.ProductName, &it.SKU, &it.UnitPrice, &it.Quantity, &it.TotalPrice); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := items.Err(); err != nil {
		return nil, err
	}

	timeline, err := r.db.QueryContext(ctx, `
		SELECT status, note, created_at
		FROM order_timeline WHERE order_id=$1 ORDER BY created_at ASC`, o.ID)
	if err != nil {
		return nil, err
	}
	defer timeline.Close()
	for timeline.Next() {
		var e TimelineEntry
		if err := timeline.Scan(&e.Status, &e.Note, &e.Timestamp); err != nil {
			return nil, err
		}
		o.Timeline = append(o.Timeline, e)
	}
	return o, timeline.Err()
}
