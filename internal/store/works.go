package store

import (
	"context"
	"database/sql"
	"errors"

	"tattoo-market/internal/models"
)

const workColumns = "id, master_id, category_id, image_file_id, description, price, status, likes_count, invoice_id, created_at"

const workCardQuery = `
	SELECT w.id, w.master_id, w.category_id, w.image_file_id, w.description, w.price, w.status,
	       w.likes_count, w.invoice_id, w.created_at,
	       c.name AS category_name,
	       a.username AS master_username,
	       a.external_id AS master_external_id,
	       (SELECT COUNT(*) FROM comments cm WHERE cm.work_id = w.id) AS comment_count
	FROM works w
	JOIN categories c ON c.id = w.category_id
	JOIN master_profiles m ON m.id = w.master_id
	JOIN accounts a ON a.id = m.account_id`

// CreateWork inserts a work in pending_payment
func (s *Store) CreateWork(ctx context.Context, work *models.Work) error {
	query := `
		INSERT INTO works (master_id, category_id, image_file_id, description, price, status, invoice_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, likes_count, created_at`

	work.Status = models.WorkStatusPendingPayment
	return s.db.QueryRowxContext(ctx, query,
		work.MasterID, work.CategoryID, work.ImageFileID, work.Description, work.Price, work.Status, work.InvoiceID).
		Scan(&work.ID, &work.LikesCount, &work.CreatedAt)
}

// GetWork retrieves a work by ID
func (s *Store) GetWork(ctx context.Context, id int64) (*models.Work, error) {
	var work models.Work
	err := s.db.GetContext(ctx, &work, "SELECT "+workColumns+" FROM works WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrWorkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &work, nil
}

// GetWorkCard retrieves a work with its display fields
func (s *Store) GetWorkCard(ctx context.Context, id int64) (*models.WorkCard, error) {
	var card models.WorkCard
	err := s.db.GetContext(ctx, &card, workCardQuery+" WHERE w.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrWorkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// TransitionWorkStatus moves a work from one status to the next only if it is
// still in from. A work in any other status yields ErrInvalidTransition.
func (s *Store) TransitionWorkStatus(ctx context.Context, id int64, from, to models.WorkStatus) (*models.Work, error) {
	if !from.CanTransitionTo(to) {
		return nil, models.ErrInvalidTransition
	}

	var work models.Work
	err := s.db.GetContext(ctx, &work,
		"UPDATE works SET status = $3 WHERE id = $1 AND status = $2 RETURNING "+workColumns,
		id, from, to)
	if err == nil {
		return &work, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM works WHERE id = $1)", id); err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrWorkNotFound
	}
	return nil, models.ErrInvalidTransition
}
