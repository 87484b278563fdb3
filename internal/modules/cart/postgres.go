package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Items live in a jsonb column so every mutation is a single-row UPDATE.
const cartColumns = `id, owner_kind, owner_id, items, items_count,
       subtotal, tax, shipping, estimated_total, created_at, updated_at, expires_at`

func (r *postgresRepo) GetByOwner(ctx context.Context, owner Owner) (*Cart, error) {
	return r.scanCart(r.db.QueryRowContext(ctx, `
		SELECT `+cartColumns+`
		FROM carts
		WHERE owner_kind=$1 AND owner_id=$2 AND expires_at > NOW()`,
		owner.Kind, owner.ID))
}

func (r *postgresRepo) Create(ctx context.Context, c *Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts
		  (id, owner_kind, owner_id, items, items_count,
		   subtotal, tax, shipping, estimated_total, created_at, updated_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		c.ID, c.Owner.Kind, c.Owner.ID, items, c.ItemsCount,
		c.Subtotal, c.Tax, c.Shipping, c.EstimatedTotal,
		c.CreatedAt, c.UpdatedAt, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (r *postgresRepo) Save(ctx context.Context, c *Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE carts SET
		  items=$1, items_count=$2, subtotal=$3, tax=$4, shipping=$5,
		  estimated_total=$6, updated_at=$7, expires_at=$8
		WHERE id=$9`,
		items, c.ItemsCount, c.Subtotal, c.Tax, c.Shipping,
		c.EstimatedTotal, c.UpdatedAt, c.ExpiresAt, c.ID)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func (r *postgresRepo) SetOwner(ctx context.Context, cartID string, owner Owner) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE carts SET owner_kind=$1, owner_id=$2 WHERE id=$3`,
		owner.Kind, owner.ID, cartID)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id=$1`, cartID)
	return err
}

func (r *postgresRepo) scanCart(row *sql.Row) (*Cart, error) {
	c := &Cart{}
	var items []byte
	err := row.Scan(&c.ID, &c.Owner.Kind, &c.Owner.ID, &items, &c.ItemsCount,
		&c.Subtotal, &c.Tax, &c.Shipping, &c.EstimatedTotal,
		&c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &c.Items); err != nil {
			return nil, err
		}
	}
	return c, nil
}
