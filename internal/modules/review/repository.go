package review

import "context"

// Repository defines review persistence.
type Repository interface {
	CreateReview(ctx context.Context, r *Review) error
	GetReviewByID(ctx context.Context, id string) (*Review, error)

	// GetByProductAndUser enforces the one-review-per-product-per-user rule
	// at the service level; sql.ErrNoRows means the user has not reviewed.
	GetByProductAndUser(ctx context.Context, productID, userID string) (*Review, error)

	ListReviews(ctx context.Context, q ListQuery) ([]*Review, int, error)
	UpdateReview(ctx context.Context, r *Review) error

	// CastVote records a helpfulness vote. The first vote by a user inserts
	// the vote row and adjusts the counters; a repeat vote only flips the
	// stored vote. Uniqueness per (review, user) is enforced by the primary
	// key on the votes table.
	CastVote(ctx context.Context, reviewID, userID, vote string) (*Review, error)

	// ProductStats aggregates totals, average, distribution and verified
	// share over approved reviews.
	ProductStats(ctx context.Context, productID string) (*Stats, error)

	// UserPurchasedProduct reports whether the given order belongs to the
	// user and contains the product.
	UserPurchasedProduct(ctx context.Context, orderID, userID, productID string) (bool, error)
}
