package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tattoo-market/internal/models"
)

// ToggleLike flips the (account, work) like and adjusts the counter in one transaction
func (s *Store) ToggleLike(ctx context.Context, accountID, workID int64) (liked bool, count int, err error) {
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, "SELECT id FROM works WHERE id = $1 FOR UPDATE", workID)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrWorkNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock work: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			"DELETE FROM likes WHERE account_id = $1 AND work_id = $2", accountID, workID)
		if err != nil {
			return fmt.Errorf("failed to remove like: %w", err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return err
		}

		delta := -1
		if removed == 0 {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO likes (account_id, work_id) VALUES ($1, $2)", accountID, workID); err != nil {
				return fmt.Errorf("failed to add like: %w", err)
			}
			delta = 1
		}

		liked = delta > 0
		count, err = applyLikeDelta(ctx, tx, workID, delta)
		return err
	})
	return liked, count, err
}

func applyLikeDelta(ctx context.Context, tx *sqlx.Tx, workID int64, delta int) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		"UPDATE works SET likes_count = likes_count + $2 WHERE id = $1 RETURNING likes_count", workID, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to update like counter: %w", err)
	}
	return count, nil
}

// IsLiked reports whether the account likes the work
func (s *Store) IsLiked(ctx context.Context, accountID, workID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM likes WHERE account_id = $1 AND work_id = $2)", accountID, workID)
	return exists, err
}

// CreateComment appends a comment to a work
func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (work_id, account_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query, comment.WorkID, comment.AccountID, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt)
	if isPQCode(err, pqForeignKeyViolation) {
		return models.ErrWorkNotFound
	}
	return err
}

// ListComments returns a page of comments, newest first
func (s *Store) ListComments(ctx context.Context, workID int64, limit, offset int) ([]models.CommentView, error) {
	query := `
		SELECT c.id, c.work_id, c.account_id, c.text, c.created_at, a.username, a.external_id
		FROM comments c
		JOIN accounts a ON a.id = c.account_id
		WHERE c.work_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3`

	var comments []models.CommentView
	err := s.db.SelectContext(ctx, &comments, query, workID, limit, offset)
	return comments, err
}

// CountComments returns the number of comments on a work
func (s *Store) CountComments(ctx context.Context, workID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM comments WHERE work_id = $1", workID)
	return n, err
}
