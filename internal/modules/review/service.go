package review

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/modules/catalog"
)

// Service defines the review business logic.
type Service interface {
	// CreateReview posts a review, marks it verified when the referenced
	// order proves the purchase, and folds the rating into the product's
	// summary.
	CreateReview(ctx context.Context, userID string, req CreateReviewRequest) (*View, error)

	GetReview(ctx context.Context, id string) (*View, error)

	// ListReviews returns a filtered page; product-scoped listings include
	// the product's rating aggregate.
	ListReviews(ctx context.Context, q ListQuery) (*ListResponse, error)

	// UpdateReview edits a review; only its author may.
	UpdateReview(ctx context.Context, id, userID string, req UpdateReviewRequest) (*View, error)

	// Vote casts a helpfulness vote, one per user per review.
	Vote(ctx context.Context, reviewID, userID string, helpful bool) (*View, error)

	ProductStats(ctx context.Context, productID string) (*Stats, error)
}

type service struct {
	repo    Repository
	catalog catalog.Service
}

// NewService creates a new review service.
func NewService(repo Repository, cat catalog.Service) Service {
	return &service{repo: repo, catalog: cat}
}

func (s *service) CreateReview(ctx context.Context, userID string, req CreateReviewRequest) (*View, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	if req.ProductID == "" {
		return nil, apperr.Validation("product_id is required")
	}
	if _, err := s.catalog.GetProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByProductAndUser(ctx, req.ProductID, userID); err == nil {
		return nil, apperr.Conflict("You have already reviewed this product")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	verified := false
	if req.OrderID != "" {
		ok, err := s.repo.UserPurchasedProduct(ctx, req.OrderID, userID, req.ProductID)
		if err != nil {
			return nil, err
		}
		verified = ok
	}

	now := time.Now().UTC()
	rev := &Review{
		ID:               uuid.New(),
		ProductID:        req.ProductID,
		UserID:           userID,
		OrderID:          req.OrderID,
		Rating:           req.Rating,
		Title:            req.Title,
		Comment:          req.Comment,
		VerifiedPurchase: verified,
		Status:           StatusApproved,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateReview(ctx, rev); err != nil {
		return nil, err
	}
	if err := s.catalog.UpdateRating(ctx, req.ProductID, req.Rating); err != nil {
		return nil, err
	}
	return NewView(rev), nil
}

func (s *service) GetReview(ctx context.Context, id string) (*View, error) {
	rev, err := s.getReview(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(rev), nil
}

func (s *service) ListReviews(ctx context.Context, q ListQuery) (*ListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	if q.Status == "" {
		q.Status = StatusApproved
	}
	reviews, total, err := s.repo.ListReviews(ctx, q)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(reviews))
	for _, rev := range reviews {
		views = append(views, NewView(rev))
	}
	resp := &ListResponse{
		Reviews:    views,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
	if q.ProductID != "" {
		if resp.Stats, err = s.repo.ProductStats(ctx, q.ProductID); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (s *service) UpdateReview(ctx context.Context, id, userID string, req UpdateReviewRequest) (*View, error) {
	rev, err := s.getReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if rev.UserID != userID {
		return nil, apperr.PermissionDenied("Not authorized to edit this review")
	}
	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, apperr.Validation("rating must be between 1 and 5")
		}
		rev.Rating = *req.Rating
	}
	if req.Title != nil {
		rev.Title = *req.Title
	}
	if req.Comment != nil {
		rev.Comment = *req.Comment
	}
	rev.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateReview(ctx, rev); err != nil {
		return nil, err
	}
	return NewView(rev), nil
}

func (s *service) Vote(ctx context.Context, reviewID, userID string, helpful bool) (*View, error) {
	rev, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rev.UserID == userID {
		return nil, apperr.Validation("You cannot vote on your own review")
	}
	vote := VoteHelpful
	if !helpful {
		vote = VoteUnhelpful
	}
	updated, err := s.repo.CastVote(ctx, reviewID, userID, vote)
	if err != nil {
		return nil, err
	}
	return NewView(updated), nil
}

func (s *service) ProductStats(ctx context.Context, productID string) (*Stats, error) {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ProductStats(ctx, productID)
}

func (s *service) getReview(ctx context.Context, id string) (*Review, error) {
	rev, err := s.repo.GetReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Review not found")
		}
		return nil, err
	}
	return rev, nil
}
