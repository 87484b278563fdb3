package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const reviewColumns = `id, product_id, user_id, order_id, rating, title, comment,
       verified_purchase, helpful_votes, unhelpful_votes, status, created_at, updated_at`

func (r *postgresRepo) CreateReview(ctx context.Context, rev *Review) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews
		  (id, product_id, user_id, order_id, rating, title, comment,
		   verified_purchase, helpful_votes, unhelpful_votes, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		rev.ID, rev.ProductID, rev.UserID, nullableString(rev.OrderID),
		rev.Rating, rev.Title, rev.Comment,
		rev.VerifiedPurchase, rev.HelpfulVotes, rev.UnhelpfulVotes,
		rev.Status, rev.CreatedAt, rev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetReviewByID(ctx context.Context, id string) (*Review, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	return scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id=$1`, uid))
}

func (r *postgresRepo) GetByProductAndUser(ctx context.Context, productID, userID string) (*Review, error) {
	return scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id=$1 AND user_id=$2`,
		productID, userID))
}

func (r *postgresRepo) ListReviews(ctx context.Context, q ListQuery) ([]*Review, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.ProductID != "" {
		where += ` AND product_id=` + arg(q.ProductID)
	}
	if q.UserID != "" {
		where += ` AND user_id=` + arg(q.UserID)
	}
	if q.Rating != nil {
		where += ` AND rating=` + arg(*q.Rating)
	}
	if q.VerifiedOnly {
		where += ` AND verified_purchase`
	}
	if q.Status != "" {
		where += ` AND status=` + arg(q.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := `created_at DESC`
	switch q.SortBy {
	case "oldest":
		orderBy = `created_at ASC`
	case "rating_high":
		orderBy = `rating DESC, created_at DESC`
	case "rating_low":
		orderBy = `rating ASC, created_at DESC`
	case "helpful":
		orderBy = `helpful_votes DESC, created_at DESC`
	}

	query := fmt.Sprintf(`SELECT %s FROM reviews %s ORDER BY %s LIMIT %s OFFSET %s`,
		reviewColumns, where, orderBy, arg(q.Limit), arg((q.Page-1)*q.Limit))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, total, rows.Err()
}

func (r *postgresRepo) UpdateReview(ctx context.Context, rev *Review) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reviews SET rating=$1, title=$2, comment=$3, updated_at=$4 WHERE id=$5`,
		rev.Rating, rev.Title, rev.Comment, time.Now(), rev.ID)
	return err
}

// CastVote runs in a transaction so the counter adjustment and the vote row
// stay consistent. A user's first vote moves a counter; changing one's mind
// later only flips the stored vote.
func (r *postgresRepo) CastVote(ctx context.Context, reviewID, userID, vote string) (*Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT vote FROM review_votes WHERE review_id=$1 AND user_id=$2`,
		reviewID, userID).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO review_votes (review_id, user_id, vote) VALUES ($1,$2,$3)`,
			reviewID, userID, vote); err != nil {
			return nil, fmt.Errorf("insert vote: %w", err)
		}
		column := "helpful_votes"
		if vote == VoteUnhelpful {
			column = "unhelpful_votes"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE reviews SET %s = %s + 1 WHERE id=$1`, column, column), reviewID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case existing != vote:
		if _, err := tx.ExecContext(ctx,
			`UPDATE review_votes SET vote=$1 WHERE review_id=$2 AND user_id=$3`,
			vote, reviewID, userID); err != nil {
			return nil, err
		}
	}

	rev, err := scanReview(tx.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id=$1`, reviewID))
	if err != nil {
		return nil, err
	}
	return rev, tx.Commit()
}

func (r *postgresRepo) ProductStats(ctx context.Context, productID string) (*Stats, error) {
	stats := &Stats{
		ProductID:          productID,
		RatingDistribution: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0},
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT rating, verified_purchase FROM reviews
		WHERE product_id=$1 AND status=$2`, productID, StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sum, verified := 0, 0
	for rows.Next() {
		var rating int
		var isVerified bool
		if err := rows.Scan(&rating, &isVerified); err != nil {
			return nil, err
		}
		stats.TotalReviews++
		sum += rating
		if isVerified {
			verified++
		}
		if rating >= 1 && rating <= 5 {
			stats.RatingDistribution[fmt.Sprintf("%d", rating)]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = round2(float64(sum) / float64(stats.TotalReviews))
		stats.VerifiedPercentage = round2(float64(verified) / float64(stats.TotalReviews) * 100)
	}
	return stats, nil
}

func (r *postgresRepo) UserPurchasedProduct(ctx context.Context, orderID, userID, productID string) (bool, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return false, nil
	}
	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders o
			JOIN order_items i ON i.order_id = o.id
			WHERE o.id=$1 AND o.user_id=$2 AND i.product_id=$3)`,
		oid, userID, productID).Scan(&exists)
	return exists, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(row rowScanner) (*Review, error) {
	rev := &Review{}
	var orderID sql.NullString
	err := row.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &orderID,
		&rev.Rating, &rev.Title, &rev.Comment,
		&rev.VerifiedPurchase, &rev.HelpfulVotes, &rev.UnhelpfulVotes,
		&rev.Status, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rev.OrderID = orderID.String
	return rev, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
