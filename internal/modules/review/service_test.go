package review

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
	"github.com/georgemunganga/shopcart-backend/internal/modules/catalog"
)

type voteKey struct{ reviewID, userID string }

type fakeRepo struct {
	reviews   map[string]*Review
	votes     map[voteKey]string
	purchases map[string]bool // orderID|userID|productID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		reviews:   map[string]*Review{},
		votes:     map[voteKey]string{},
		purchases: map[string]bool{},
	}
}

func purchaseKey(orderID, userID, productID string) string {
	return orderID + "|" + userID + "|" + productID
}

func (f *fakeRepo) CreateReview(ctx context.Context, r *Review) error {
	f.reviews[r.ID.String()] = r
	return nil
}

func (f *fakeRepo) GetReviewByID(ctx context.Context, id string) (*Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

func (f *fakeRepo) GetByProductAndUser(ctx context.Context, productID, userID string) (*Review, error) {
	for _, r := range f.reviews {
		if r.ProductID == productID && r.UserID == userID {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepo) ListReviews(ctx context.Context, q ListQuery) ([]*Review, int, error) {
	var out []*Review
	for _, r := range f.reviews {
		if q.ProductID != "" && r.ProductID != q.ProductID {
			continue
		}
		if q.VerifiedOnly && !r.VerifiedPurchase {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateReview(ctx context.Context, r *Review) error {
	f.reviews[r.ID.String()] = r
	return nil
}

func (f *fakeRepo) CastVote(ctx context.Context, reviewID, userID, vote string) (*Review, error) {
	r, ok := f.reviews[reviewID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	key := voteKey{reviewID, userID}
	existing, voted := f.votes[key]
	if !voted {
		f.votes[key] = vote
		if vote == VoteHelpful {
			r.HelpfulVotes++
		} else {
			r.UnhelpfulVotes++
		}
	} else if existing != vote {
		f.votes[key] = vote
	}
	return r, nil
}

func (f *fakeRepo) ProductStats(ctx context.Context, productID string) (*Stats, error) {
	stats := &Stats{
		ProductID:          productID,
		RatingDistribution: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0},
	}
	return stats, nil
}

func (f *fakeRepo) UserPurchasedProduct(ctx context.Context, orderID, userID, productID string) (bool, error) {
	return f.purchases[purchaseKey(orderID, userID, productID)], nil
}

type fakeCatalog struct {
	catalog.Service
	known   map[string]bool
	ratings []int
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*catalog.ProductView, error) {
	if !f.known[id] {
		return nil, apperr.NotFound("product not found")
	}
	return catalog.NewProductView(&catalog.Product{Name: "Known"}), nil
}

func (f *fakeCatalog) UpdateRating(ctx context.Context, productID string, rating int) error {
	f.ratings = append(f.ratings, rating)
	return nil
}

const productID = "p1"

func newService() (Service, *fakeRepo, *fakeCatalog) {
	repo := newFakeRepo()
	cat := &fakeCatalog{known: map[string]bool{productID: true}}
	return NewService(repo, cat), repo, cat
}

func TestCreateReviewUpdatesProductRating(t *testing.T) {
	svc, _, cat := newService()

	v, err := svc.CreateReview(context.Background(), "u1", CreateReviewRequest{
		ProductID: productID, Rating: 4, Title: "Solid", Comment: "Works well",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, v.Status)
	assert.False(t, v.VerifiedPurchase)
	assert.Equal(t, []int{4}, cat.ratings)
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.CreateReview(context.Background(), "u1", CreateReviewRequest{ProductID: productID, Rating: 4})
	require.NoError(t, err)

	_, err = svc.CreateReview(context.Background(), "u1", CreateReviewRequest{ProductID: productID, Rating: 5})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateReviewVerifiedPurchase(t *testing.T) {
	svc, repo, _ := newService()
	repo.purchases[purchaseKey("o1", "u1", productID)] = true

	v, err := svc.CreateReview(context.Background(), "u1", CreateReviewRequest{
		ProductID: productID, OrderID: "o1", Rating: 5,
	})
	require.NoError(t, err)
	assert.True(t, v.VerifiedPurchase)

	// Someone else's order does not verify the purchase.
	v2, err := svc.CreateReview(context.Background(), "u2", CreateReviewRequest{
		ProductID: productID, OrderID: "o1", Rating: 3,
	})
	require.NoError(t, err)
	assert.False(t, v2.VerifiedPurchase)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.CreateReview(context.Background(), "u1", CreateReviewRequest{ProductID: productID, Rating: 0})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreateReview(context.Background(), "u1", CreateReviewRequest{ProductID: productID, Rating: 6})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreateReview(context.Background(), "u1", CreateReviewRequest{ProductID: "unknown", Rating: 4})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateReviewAuthorOnly(t *testing.T) {
	svc, _, _ := newService()

	v, err := svc.CreateReview(context.Background(), "u1", CreateReviewRequest{ProductID: productID, Rating: 4})
	require.NoError(t, err)

	newRating := 5
	_, err = svc.UpdateReview(context.Background(), v.ID.String(), "u2", UpdateReviewRequest{Rating: &newRating})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	updated, err := svc.UpdateReview(context.Background(), v.ID.String(), "u1", UpdateReviewRequest{Rating: &newRating})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
}

func TestVoteCountersAndRevote(t *testing.T) {
	svc, repo, _ := newService()

	v, err := svc.CreateReview(context.Background(), "u1", CreateReviewRequest{ProductID: productID, Rating: 4})
	require.NoError(t, err)
	id := v.ID.String()

	got, err := svc.Vote(context.Background(), id, "u2", true)
	require.NoError(t, err)
	assert.Equal(t, 1, got.HelpfulVotes)
	assert.Equal(t, 100.0, got.HelpfulnessScore)

	got, err = svc.Vote(context.Background(), id, "u3", false)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnhelpfulVotes)
	assert.Equal(t, 50.0, got.HelpfulnessScore)

	// A re-vote flips the stored vote without touching the counters.
	got, err = svc.Vote(context.Background(), id, "u2", false)
	require.NoError(t, err)
	assert.Equal(t, 1, got.HelpfulVotes)
	assert.Equal(t, 1, got.UnhelpfulVotes)
	assert.Equal(t, VoteUnhelpful, repo.votes[voteKey{id, "u2"}])

	// Authors cannot vote on themselves.
	_, err = svc.Vote(context.Background(), id, "u1", true)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Vote(context.Background(), uuid.NewString(), "u2", true)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestHelpfulnessScoreNoVotes(t *testing.T) {
	r := &Review{}
	assert.Equal(t, 0.0, r.HelpfulnessScore())

	r = &Review{HelpfulVotes: 2, UnhelpfulVotes: 1}
	assert.Equal(t, 66.67, r.HelpfulnessScore())
}
