package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const storeColumns = `id, store_id, name, street, city, state, zip_code, country,
       longitude, latitude, phone, email, hours, services, manager, is_active, created_at`

// haversineSQL computes the great-circle distance in meters from ($1,$2)
// (latitude, longitude) to each store row. LEAST clamps rounding noise out
// of acos's domain.
const haversineSQL = `6371000 * acos(LEAST(1.0,
       cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2))
       + sin(radians($1)) * sin(radians(latitude))))`

func (r *postgresRepo) CreateStore(ctx context.Context, s *Store) error {
	hours, err := json.Marshal(s.Hours)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO stores
		  (id, store_id, name, street, city, state, zip_code, country,
		   longitude, latitude, phone, email, hours, services, manager, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		s.ID, s.StoreID, s.Name,
		s.Address.Street, s.Address.City, s.Address.State, s.Address.ZipCode, s.Address.Country,
		s.Longitude, s.Latitude, s.Phone, s.Email, hours, pq.Array(s.Services),
		s.Manager, s.IsActive, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetStoreByID(ctx context.Context, id string) (*Store, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	s, err := scanStore(r.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE id=$1`, uid))
	if err != nil {
		return nil, err
	}
	s.Inventory, err = r.listInventory(ctx, s.ID)
	return s, err
}

func (r *postgresRepo) GetStoreByStoreID(ctx context.Context, storeID string) (*Store, error) {
	s, err := scanStore(r.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE store_id=$1`, storeID))
	if err != nil {
		return nil, err
	}
	s.Inventory, err = r.listInventory(ctx, s.ID)
	return s, err
}

func (r *postgresRepo) ListStores(ctx context.Context, q ListQuery) ([]*Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE 1=1`
	args := []interface{}{}
	if q.City != "" {
		args = append(args, q.City)
		query += fmt.Sprintf(` AND city ILIKE $%d`, len(args))
	}
	if q.State != "" {
		args = append(args, q.State)
		query += fmt.Sprintf(` AND state ILIKE $%d`, len(args))
	}
	if q.Active != nil {
		args = append(args, *q.Active)
		query += fmt.Sprintf(` AND is_active=$%d`, len(args))
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stores []*Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *postgresRepo) Nearby(ctx context.Context, q SearchQuery) ([]*Store, []float64, error) {
	where := `WHERE is_active`
	args := []interface{}{q.Latitude, q.Longitude, q.Radius}
	where += ` AND ` + haversineSQL + ` <= $3`

	if q.ProductID != "" {
		args = append(args, q.ProductID)
		cond := fmt.Sprintf(`i.product_id=$%d AND i.quantity > 0`, len(args))
		if q.VariantID != "" {
			args = append(args, q.VariantID)
			cond += fmt.Sprintf(` AND i.variant_id=$%d`, len(args))
		}
		where += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM store_inventory i WHERE i.store_id = stores.id AND %s)`, cond)
	}
	if len(q.Services) > 0 {
		args = append(args, pq.Array(q.Services))
		where += fmt.Sprintf(` AND services @> $%d`, len(args))
	}
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s, %s AS distance FROM stores %s ORDER BY distance ASC LIMIT $%d`,
		storeColumns, haversineSQL, where, len(args)), args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var stores []*Store
	var distances []float64
	for rows.Next() {
		s := &Store{}
		var hours []byte
		var distance float64
		if err := rows.Scan(&s.ID, &s.StoreID, &s.Name,
			&s.Address.Street, &s.Address.City, &s.Address.State, &s.Address.ZipCode, &s.Address.Country,
			&s.Longitude, &s.Latitude, &s.Phone, &s.Email, &hours, pq.Array(&s.Services),
			&s.Manager, &s.IsActive, &s.CreatedAt, &distance); err != nil {
			return nil, nil, err
		}
		if err := unmarshalHours(hours, s); err != nil {
			return nil, nil, err
		}
		stores = append(stores, s)
		distances = append(distances, distance)
	}
	return stores, distances, rows.Err()
}

func (r *postgresRepo) SetInventory(ctx context.Context, storeUUID string, item InventoryItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO store_inventory (store_id, product_id, variant_id, quantity)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (store_id, product_id, variant_id)
		DO UPDATE SET quantity = EXCLUDED.quantity`,
		storeUUID, item.ProductID, item.VariantID, item.Quantity)
	return err
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStore(row rowScanner) (*Store, error) {
	s := &Store{}
	var hours []byte
	err := row.Scan(&s.ID, &s.StoreID, &s.Name,
		&s.Address.Street, &s.Address.City, &s.Address.State, &s.Address.ZipCode, &s.Address.Country,
		&s.Longitude, &s.Latitude, &s.Phone, &s.Email, &hours, pq.Array(&s.Services),
		&s.Manager, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalHours(hours, s); err != nil {
		return nil, err
	}
	return s, nil
}

func unmarshalHours(b []byte, s *Store) error {
	if len(b) == 0 {
		s.Hours = map[string]DayHours{}
		return nil
	}
	return json.Unmarshal(b, &s.Hours)
}

func (r *postgresRepo) listInventory(ctx context.Context, storeUUID uuid.UUID) ([]InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, variant_id, quantity
		FROM store_inventory WHERE store_id=$1`, storeUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.ProductID, &it.VariantID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
