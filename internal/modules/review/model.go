package review

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Review moderation states. New reviews start approved; moderation is a
// manual flip of the status column.
const (
	StatusApproved = "approved"
	StatusPending  = "pending"
	StatusRejected = "rejected"
)

// Vote values stored per (review, user).
const (
	VoteHelpful   = "helpful"
	VoteUnhelpful = "unhelpful"
)

// Review is a customer product review.
type Review struct {
	ID               uuid.UUID `json:"id"`
	ProductID        string    `json:"product_id"`
	UserID           string    `json:"user_id"`
	OrderID          string    `json:"order_id,omitempty"`
	Rating           int       `json:"rating"`
	Title            string    `json:"title"`
	Comment          string    `json:"comment"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	HelpfulVotes     int       `json:"helpful_votes"`
	UnhelpfulVotes   int       `json:"unhelpful_votes"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HelpfulnessScore is helpful votes as a percentage of all votes, zero
// when nobody has voted.
func (r *Review) HelpfulnessScore() float64 {
	total := r.HelpfulVotes + r.UnhelpfulVotes
	if total == 0 {
		return 0
	}
	return round2(float64(r.HelpfulVotes) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// View decorates a review with its derived score.
type View struct {
	*Review
	HelpfulnessScore float64 `json:"helpfulness_score"`
}

func NewView(r *Review) *View {
	return &View{Review: r, HelpfulnessScore: r.HelpfulnessScore()}
}

// Stats is the product-level review aggregate.
type Stats struct {
	ProductID          string         `json:"product_id"`
	TotalReviews       int            `json:"total_reviews"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	VerifiedPercentage float64        `json:"verified_percentage"`
}

// CreateReviewRequest is the payload for posting a review.
type CreateReviewRequest struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id,omitempty"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}

// UpdateReviewRequest edits an existing review; nil fields are untouched.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty"`
	Title   *string `json:"title,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// VoteRequest casts a helpfulness vote.
type VoteRequest struct {
	Helpful bool `json:"helpful"`
}

// ListQuery holds review listing filters.
type ListQuery struct {
	ProductID    string
	UserID       string
	Rating       *int
	VerifiedOnly bool
	Status       string
	SortBy       string // newest, oldest, rating_high, rating_low, helpful
	Page         int
	Limit        int
}

// ListResponse is a paginated review listing. Product-scoped listings also
// carry the product's rating aggregate.
type ListResponse struct {
	Reviews    []*View `json:"reviews"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
	Stats      *Stats  `json:"stats,omitempty"`
}
