package analytics

import (
	"context"
	"database/sql"
	"math"

	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) SalesMetrics(ctx context.Context, d DateRange) (*SalesMetrics, error) {
	d = d.Normalize()
	m := &SalesMetrics{PeriodStart: d.Start, PeriodEnd: d.End}
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*), COUNT(DISTINCT user_id)
		FROM orders
		WHERE status = ANY($1) AND created_at >= $2 AND created_at <= $3`,
		pq.Array(revenueStatuses), d.Start, d.End).
		Scan(&m.TotalRevenue, &m.TotalOrders, &m.UniqueCustomers)
	if err != nil {
		return nil, err
	}
	m.TotalRevenue = round2(m.TotalRevenue)
	if m.TotalOrders > 0 {
		m.AverageOrderValue = round2(m.TotalRevenue / float64(m.TotalOrders))
	}
	return m, nil
}

func (r *postgresRepo) TopProducts(ctx context.Context, d DateRange, limit int) ([]TopProduct, error) {
	d = d.Normalize()
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.product_id, MIN(i.product_name), SUM(i.quantity), SUM(i.total_price)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status = ANY($1) AND o.created_at >= $2 AND o.created_at <= $3
		GROUP BY i.product_id
		ORDER BY SUM(i.quantity) DESC
		LIMIT $4`,
		pq.Array(revenueStatuses), d.Start, d.End, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.UnitsSold, &p.TotalRevenue); err != nil {
			return nil, err
		}
		p.TotalRevenue = round2(p.TotalRevenue)
		out = append(out, p)
	}
	return out, rows.Err()
}

// RevenueByCategory attributes each order item's revenue to every category
// of its product, unnesting the products.categories array.
func (r *postgresRepo) RevenueByCategory(ctx context.Context, d DateRange) ([]CategoryRevenue, error) {
	d = d.Normalize()
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.category, SUM(i.total_price), SUM(i.quantity)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		JOIN products p ON p.id::text = i.product_id
		CROSS JOIN LATERAL unnest(p.categories) AS c(category)
		WHERE o.status = ANY($1) AND o.created_at >= $2 AND o.created_at <= $3
		GROUP BY c.category
		ORDER BY SUM(i.total_price) DESC`,
		pq.Array(revenueStatuses), d.Start, d.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryRevenue
	for rows.Next() {
		var c CategoryRevenue
		if err := rows.Scan(&c.Category, &c.TotalRevenue, &c.UnitsSold); err != nil {
			return nil, err
		}
		c.TotalRevenue = round2(c.TotalRevenue)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) CustomerLifetimeValue(ctx context.Context, minOrders, limit int) ([]CustomerValue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, SUM(total), COUNT(*), MIN(created_at), MAX(created_at)
		FROM orders
		WHERE status = ANY($1)
		GROUP BY user_id
		HAVING COUNT(*) >= $2
		ORDER BY SUM(total) DESC
		LIMIT $3`,
		pq.Array(revenueStatuses), minOrders, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerValue
	for rows.Next() {
		var c CustomerValue
		if err := rows.Scan(&c.UserID, &c.TotalSpent, &c.OrderCount, &c.FirstOrderAt, &c.LastOrderAt); err != nil {
			return nil, err
		}
		c.TotalSpent = round2(c.TotalSpent)
		c.AverageOrderValue = round2(c.TotalSpent / float64(c.OrderCount))
		c.LifespanDays = int(c.LastOrderAt.Sub(c.FirstOrderAt).Hours() / 24)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) RevenueTrends(ctx context.Context, months int) ([]MonthlyRevenue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM'), SUM(total), COUNT(*)
		FROM orders
		WHERE status = ANY($1) AND created_at >= date_trunc('month', NOW()) - ($2::int || ' months')::interval
		GROUP BY 1
		ORDER BY 1 ASC`,
		pq.Array(revenueStatuses), months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyRevenue
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Orders); err != nil {
			return nil, err
		}
		m.Revenue = round2(m.Revenue)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *postgresRepo) InventoryAlerts(ctx context.Context, threshold int) ([]InventoryAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.product_id, p.name, v.variant_id, v.sku, v.quantity
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.is_active AND p.status = 'active' AND v.quantity < $1
		ORDER BY v.quantity ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InventoryAlert
	for rows.Next() {
		var a InventoryAlert
		if err := rows.Scan(&a.ProductID, &a.ProductName, &a.VariantID, &a.SKU, &a.Quantity); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) DashboardSummary(ctx context.Context, lowStockThreshold int) (*DashboardSummary, error) {
	s := &DashboardSummary{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM users),
		  (SELECT COUNT(*) FROM products),
		  (SELECT COUNT(*) FROM orders),
		  (SELECT COUNT(*) FROM stores),
		  (SELECT COALESCE(SUM(total), 0) FROM orders
		     WHERE status = ANY($1) AND created_at >= NOW() - interval '30 days'),
		  (SELECT COUNT(*) FROM product_variants WHERE is_active AND quantity < $2)`,
		pq.Array(revenueStatuses), lowStockThreshold).
		Scan(&s.TotalUsers, &s.TotalProducts, &s.TotalOrders, &s.TotalStores,
			&s.RevenueLast30d, &s.LowStockVariants)
	if err != nil {
		return nil, err
	}
	s.RevenueLast30d = round2(s.RevenueLast30d)
	return s, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
