package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id, sku, name, description, brand, categories, base_price,
       specifications, search_keywords, average_rating, total_reviews, rating_distribution,
       status, tags, created_by, created_at, updated_at`

// CreateProduct inserts the product and all its variants inside one transaction.
func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dist, err := json.Marshal(p.RatingSummary.Distribution)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO products
		  (id, sku, name, description, brand, categories, base_price,
		   specifications, search_keywords, average_rating, total_reviews, rating_distribution,
		   status, tags, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		p.ID, p.SKU, p.Name, p.Description, p.Brand, pq.Array(p.Categories), p.BasePrice,
		nullableJSON(p.Specifications), pq.Array(p.SearchKeywords),
		p.RatingSummary.AverageRating, p.RatingSummary.TotalReviews, dist,
		p.Status, pq.Array(p.Tags), p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	for i := range p.Variants {
		if err := insertVariant(ctx, tx, p.ID, &p.Variants[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertVariant(ctx context.Context, tx *sql.Tx, productID uuid.UUID, v *Variant) error {
	attrs, err := json.Marshal(v.Attributes)
	if err != nil {
		return err
	}
	images, err := json.Marshal(v.Images)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO product_variants
		  (variant_id, product_id, name, sku, price, attributes,
		   quantity, reserved, warehouse_location, images, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.VariantID, productID, v.Name, v.SKU, v.Price, attrs,
		v.Inventory.Quantity, v.Inventory.Reserved, v.Inventory.WarehouseLocation,
		images, v.IsActive)
	if err != nil {
		return fmt.Errorf("insert product_variant: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetProductByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, uid))
	if err != nil {
		return nil, err
	}
	p.Variants, err = r.listVariants(ctx, p.ID)
	return p, err
}

func (r *postgresRepo) ExistingVariantSKUs(ctx context.Context, skus []string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sku FROM product_variants WHERE sku = ANY($1)`, pq.Array(skus))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var taken []string
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, err
		}
		taken = append(taken, sku)
	}
	return taken, rows.Err()
}

// SearchProducts builds the WHERE clause incrementally so every filter is
// optional. Price and stock filters look through the variants table.
func (r *postgresRepo) SearchProducts(ctx context.Context, q SearchQuery) ([]*Product, int, error) {
	where := `WHERE p.status = 'active'`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Q != "" {
		n := arg("%" + q.Q + "%")
		where += fmt.Sprintf(` AND (p.name ILIKE %[1]s OR p.description ILIKE %[1]s OR p.brand ILIKE %[1]s
			OR EXISTS (SELECT 1 FROM unnest(p.search_keywords) kw WHERE kw ILIKE %[1]s))`, n)
	}
	if q.Category != "" {
		where += fmt.Sprintf(` AND %s = ANY(p.categories)`, arg(q.Category))
	}
	if q.Brand != "" {
		where += fmt.Sprintf(` AND p.brand ILIKE %s`, arg(q.Brand))
	}
	if q.MinPrice != nil {
		where += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM product_variants v
			WHERE v.product_id = p.id AND v.is_active AND v.price >= %s)`, arg(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		where += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM product_variants v
			WHERE v.product_id = p.id AND v.is_active AND v.price <= %s)`, arg(*q.MaxPrice))
	}
	if q.MinRating != nil {
		where += fmt.Sprintf(` AND p.average_rating >= %s`, arg(*q.MinRating))
	}
	if q.InStock {
		where += ` AND EXISTS (SELECT 1 FROM product_variants v
			WHERE v.product_id = p.id AND v.is_active AND v.quantity > 0)`
	}
	if len(q.Tags) > 0 {
		where += fmt.Sprintf(` AND p.tags && %s`, arg(pq.Array(q.Tags)))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products p `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := `p.created_at DESC`
	switch q.SortBy {
	case "price_asc":
		orderBy = `(SELECT MIN(v.price) FROM product_variants v WHERE v.product_id = p.id AND v.is_active) ASC`
	case "price_desc":
		orderBy = `(SELECT MIN(v.price) FROM product_variants v WHERE v.product_id = p.id AND v.is_active) DESC`
	case "rating":
		orderBy = `p.average_rating DESC`
	case "newest":
		orderBy = `p.created_at DESC`
	}

	query := fmt.Sprintf(`SELECT %s FROM products p %s ORDER BY %s LIMIT %s OFFSET %s`,
		aliasedProductColumns, where, orderBy, arg(q.Limit), arg((q.Page-1)*q.Limit))
	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// UpdateProduct overwrites the product-level columns. Variant rows,
// including their stock counters, are left untouched; variant writes go
// through SetVariantQuantity and the order reservation updates.
func (r *postgresRepo) UpdateProduct(ctx context.Context, p *Product) error {
	dist, err := json.Marshal(p.RatingSummary.Distribution)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET
		  name=$1, description=$2, brand=$3, categories=$4,
		  specifications=$5, search_keywords=$6,
		  average_rating=$7, total_reviews=$8, rating_distribution=$9,
		  status=$10, tags=$11, updated_at=$12
		WHERE id=$13`,
		p.Name, p.Description, p.Brand, pq.Array(p.Categories),
		nullableJSON(p.Specifications), pq.Array(p.SearchKeywords),
		p.RatingSummary.AverageRating, p.RatingSummary.TotalReviews, dist,
		p.Status, pq.Array(p.Tags), time.Now(), p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *postgresRepo) SetProductStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func (r *postgresRepo) SetVariantQuantity(ctx context.Context, productID, variantID string, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE product_variants SET quantity=$1 WHERE product_id=$2 AND variant_id=$3`,
		quantity, productID, variantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func (r *postgresRepo) UpdateRatingSummary(ctx context.Context, productID string, rs RatingSummary) error {
	dist, err := json.Marshal(rs.Distribution)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE products SET average_rating=$1, total_reviews=$2, rating_distribution=$3, updated_at=$4
		WHERE id=$5`,
		rs.AverageRating, rs.TotalReviews, dist, time.Now(), productID)
	return err
}

func (r *postgresRepo) Recommendations(ctx context.Context, p *Product, limit int) ([]*Product, error) {
	return r.queryProducts(ctx, `
		SELECT `+aliasedProductColumns+` FROM products p
		WHERE p.status = 'active' AND p.id <> $1 AND p.categories && $2
		ORDER BY p.average_rating DESC, p.total_reviews DESC
		LIMIT $3`,
		p.ID, pq.Array(p.Categories), limit)
}

// ── categories ───────────────────────────────────────────────────────────────

const categoryColumns = `id, name, slug, description, parent_id, level, path,
       children, image, sort_order, is_active, created_at`

func (r *postgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	var image interface{}
	if c.Image != nil {
		b, err := json.Marshal(c.Image)
		if err != nil {
			return err
		}
		image = b
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories
		  (id, name, slug, description, parent_id, level, path,
		   children, image, sort_order, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		c.ID, c.Name, c.Slug, c.Description, nullableString(c.ParentID),
		c.Level, c.Path, pq.Array(c.Children), image, c.SortOrder, c.IsActive, c.CreatedAt)
	return err
}

func (r *postgresRepo) GetCategoryByID(ctx context.Context, id string) (*Category, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	return scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id=$1`, uid))
}

func (r *postgresRepo) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	return scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug=$1`, slug))
}

func (r *postgresRepo) ListCategories(ctx context.Context, parentID string, level *int) ([]*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE is_active`
	args := []interface{}{}
	if parentID != "" {
		args = append(args, parentID)
		query += fmt.Sprintf(` AND parent_id=$%d`, len(args))
	}
	if level != nil {
		args = append(args, *level)
		query += fmt.Sprintf(` AND level=$%d`, len(args))
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *postgresRepo) AddCategoryChild(ctx context.Context, parentID, childID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET children = array_append(children, $1) WHERE id=$2`,
		childID, parentID)
	return err
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*Product, error) {
	p := &Product{}
	var specs, dist []byte
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Brand,
		pq.Array(&p.Categories), &p.BasePrice, &specs, pq.Array(&p.SearchKeywords),
		&p.RatingSummary.AverageRating, &p.RatingSummary.TotalReviews, &dist,
		&p.Status, pq.Array(&p.Tags), &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Specifications = specs
	if len(dist) > 0 {
		if err := json.Unmarshal(dist, &p.RatingSummary.Distribution); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (r *postgresRepo) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.Variants, err = r.listVariants(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *postgresRepo) listVariants(ctx context.Context, productID uuid.UUID) ([]Variant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT variant_id, name, sku, price, attributes,
		       quantity, reserved, warehouse_location, images, is_active
		FROM product_variants WHERE product_id=$1 ORDER BY sku ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var variants []Variant
	for rows.Next() {
		var v Variant
		var attrs, images []byte
		if err := rows.Scan(&v.VariantID, &v.Name, &v.SKU, &v.Price, &attrs,
			&v.Inventory.Quantity, &v.Inventory.Reserved, &v.Inventory.WarehouseLocation,
			&images, &v.IsActive); err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
				return nil, err
			}
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &v.Images); err != nil {
				return nil, err
			}
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func scanCategory(row rowScanner) (*Category, error) {
	c := &Category{}
	var parentID sql.NullString
	var image []byte
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &parentID,
		&c.Level, &c.Path, pq.Array(&c.Children), &image,
		&c.SortOrder, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.ParentID = parentID.String
	if len(image) > 0 {
		c.Image = &Image{}
		if err := json.Unmarshal(image, c.Image); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// aliasedProductColumns is productColumns qualified with the "p" alias used
// by the search queries.
const aliasedProductColumns = `p.id, p.sku, p.name, p.description, p.brand, p.categories, p.base_price,
       p.specifications, p.search_keywords, p.average_rating, p.total_reviews, p.rating_distribution,
       p.status, p.tags, p.created_by, p.created_at, p.updated_at`

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
