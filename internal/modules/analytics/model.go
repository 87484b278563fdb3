package analytics

import "time"

// revenueStatuses are the order states that count toward revenue.
var revenueStatuses = []string{"completed", "shipped", "delivered"}

// DateRange bounds an analytics query; zero values default to the last
// thirty days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Normalize fills unset bounds with the default window.
func (d DateRange) Normalize() DateRange {
	if d.End.IsZero() {
		d.End = time.Now().UTC()
	}
	if d.Start.IsZero() {
		d.Start = d.End.AddDate(0, 0, -30)
	}
	return d
}

// SalesMetrics summarizes revenue over a date range.
type SalesMetrics struct {
	TotalRevenue      float64   `json:"total_revenue"`
	TotalOrders       int       `json:"total_orders"`
	AverageOrderValue float64   `json:"average_order_value"`
	UniqueCustomers   int       `json:"unique_customers"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
}

// TopProduct is one row of the best-seller report.
type TopProduct struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	UnitsSold    int     `json:"units_sold"`
	TotalRevenue float64 `json:"total_revenue"`
}

// CategoryRevenue is the revenue attributed to one category.
type CategoryRevenue struct {
	Category     string  `json:"category"`
	TotalRevenue float64 `json:"total_revenue"`
	UnitsSold    int     `json:"units_sold"`
}

// CustomerValue is the lifetime-value report row for one customer.
type CustomerValue struct {
	UserID            string    `json:"user_id"`
	TotalSpent        float64   `json:"total_spent"`
	OrderCount        int       `json:"order_count"`
	AverageOrderValue float64   `json:"average_order_value"`
	FirstOrderAt      time.Time `json:"first_order_at"`
	LastOrderAt       time.Time `json:"last_order_at"`
	LifespanDays      int       `json:"lifespan_days"`
}

// MonthlyRevenue is one month's bucket in the revenue trend.
type MonthlyRevenue struct {
	Month   string  `json:"month"` // "2026-01"
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// InventoryAlert flags a variant running low on stock.
type InventoryAlert struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantID   string `json:"variant_id"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
}

// DashboardSummary is the at-a-glance report.
type DashboardSummary struct {
	TotalUsers       int     `json:"total_users"`
	TotalProducts    int     `json:"total_products"`
	TotalOrders      int     `json:"total_orders"`
	TotalStores      int     `json:"total_stores"`
	RevenueLast30d   float64 `json:"revenue_last_30_days"`
	LowStockVariants int     `json:"low_stock_variants"`
}
