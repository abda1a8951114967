package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tattoo-market/internal/models"
)

const reviewCardQuery = `
	SELECT r.id, r.work_id, r.master_id, r.client_id, r.rating, r.text, r.reply, r.created_at,
	       ca.username AS client_username,
	       ca.external_id AS client_external_id,
	       ma.username AS master_username,
	       ma.external_id AS master_external_id
	FROM reviews r
	JOIN accounts ca ON ca.id = r.client_id
	JOIN master_profiles m ON m.id = r.master_id
	JOIN accounts ma ON ma.id = m.account_id`

// CreateReview inserts a review and recomputes the master's rating in the same transaction
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO reviews (work_id, master_id, client_id, rating, text)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`

		err := tx.QueryRowxContext(ctx, query,
			review.WorkID, review.MasterID, review.ClientID, review.Rating, review.Text).
			Scan(&review.ID, &review.CreatedAt)
		if isPQCode(err, pqForeignKeyViolation) {
			return models.ErrMasterNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}

		_, err = recomputeRating(ctx, tx, review.MasterID)
		return err
	})
}

// DeleteReview removes a review and recomputes the master's rating
func (s *Store) DeleteReview(ctx context.Context, id int64) (masterID int64, err error) {
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &masterID, "DELETE FROM reviews WHERE id = $1 RETURNING master_id", id)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrReviewNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}

		_, err = recomputeRating(ctx, tx, masterID)
		return err
	})
	return masterID, err
}

// GetReviewCard retrieves a review with both parties' handles
func (s *Store) GetReviewCard(ctx context.Context, id int64) (*models.ReviewCard, error) {
	var card models.ReviewCard
	err := s.db.GetContext(ctx, &card, reviewCardQuery+" WHERE r.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// SetReviewReply overwrites the reply of a review
func (s *Store) SetReviewReply(ctx context.Context, id int64, reply string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE reviews SET reply = $2 WHERE id = $1", id, reply)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrReviewNotFound
	}
	return nil
}

// recomputeRating sets the cached rating to the mean of the master's reviews, or
// zero without reviews. The profile row is locked first so the mean is computed
// from a snapshot taken after any concurrent review commit.
func recomputeRating(ctx context.Context, tx *sqlx.Tx, masterID int64) (float64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, "SELECT id FROM master_profiles WHERE id = $1 FOR UPDATE", masterID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrMasterNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock master profile: %w", err)
	}

	var rating float64
	err = tx.GetContext(ctx, &rating, `
		UPDATE master_profiles
		SET rating = COALESCE((SELECT AVG(rating)::float8 FROM reviews WHERE master_id = $1), 0)
		WHERE id = $1
		RETURNING rating`, masterID)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute rating: %w", err)
	}
	return rating, nil
}
