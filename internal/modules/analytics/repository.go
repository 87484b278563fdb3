package analytics

import "context"

// Repository defines the reporting queries. All revenue figures cover
// completed, shipped and delivered orders only.
type Repository interface {
	SalesMetrics(ctx context.Context, d DateRange) (*SalesMetrics, error)
	TopProducts(ctx context.Context, d DateRange, limit int) ([]TopProduct, error)
	RevenueByCategory(ctx context.Context, d DateRange) ([]CategoryRevenue, error)
	CustomerLifetimeValue(ctx context.Context, minOrders, limit int) ([]CustomerValue, error)
	RevenueTrends(ctx context.Context, months int) ([]MonthlyRevenue, error)
	InventoryAlerts(ctx context.Context, threshold int) ([]InventoryAlert, error)
	DashboardSummary(ctx context.Context, lowStockThreshold int) (*DashboardSummary, error)
}
