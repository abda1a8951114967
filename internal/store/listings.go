package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
)

// keyset builds a one-row keyset query over an id column
type keyset struct {
	column string
	conds  []string
	args   []interface{}
}

// where adds a condition; %s in cond is replaced by the placeholder for arg
func (k *keyset) where(cond string, arg interface{}) {
	k.args = append(k.args, arg)
	k.conds = append(k.conds, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(k.args))))
}

func (k *keyset) build(base string, order pagination.Order, dir pagination.Direction, anchor int64) (string, []interface{}) {
	b := pagination.BoundFor(order, dir)
	if b.Comparator != "" {
		k.where(k.column+" "+b.Comparator+" %s", anchor)
	}

	var sb strings.Builder
	sb.WriteString(base)
	if len(k.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(k.conds, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s LIMIT 1", k.column, b.Sort)
	return sb.String(), k.args
}

func (s *Store) stepWork(ctx context.Context, k *keyset, order pagination.Order, dir pagination.Direction, anchor int64) (*models.WorkCard, error) {
	query, args := k.build(workCardQuery, order, dir, anchor)

	var card models.WorkCard
	err := s.db.GetContext(ctx, &card, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *Store) stepReview(ctx context.Context, k *keyset, dir pagination.Direction, anchor int64) (*models.ReviewCard, error) {
	query, args := k.build(reviewCardQuery, pagination.Descending, dir, anchor)

	var card models.ReviewCard
	err := s.db.GetContext(ctx, &card, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// StepPublishedWork walks published works in ascending id, optionally within one category
func (s *Store) StepPublishedWork(ctx context.Context, dir pagination.Direction, anchor, categoryID int64) (*models.WorkCard, error) {
	k := &keyset{column: "w.id"}
	k.where("w.status = %s", models.WorkStatusPublished)
	if categoryID > 0 {
		k.where("w.category_id = %s", categoryID)
	}
	return s.stepWork(ctx, k, pagination.Ascending, dir, anchor)
}

// StepMasterWork walks every work of one master in ascending id
func (s *Store) StepMasterWork(ctx context.Context, masterID int64, dir pagination.Direction, anchor int64) (*models.WorkCard, error) {
	k := &keyset{column: "w.id"}
	k.where("w.master_id = %s", masterID)
	return s.stepWork(ctx, k, pagination.Ascending, dir, anchor)
}

// StepInvoicedWork walks works that were ever paid for, newest first
func (s *Store) StepInvoicedWork(ctx context.Context, dir pagination.Direction, anchor int64) (*models.WorkCard, error) {
	k := &keyset{column: "w.id"}
	k.conds = append(k.conds, "w.status IN ('pending_approval', 'published', 'rejected')")
	return s.stepWork(ctx, k, pagination.Descending, dir, anchor)
}

// StepReview walks all reviews, newest first
func (s *Store) StepReview(ctx context.Context, dir pagination.Direction, anchor int64) (*models.ReviewCard, error) {
	return s.stepReview(ctx, &keyset{column: "r.id"}, dir, anchor)
}

// StepMasterReview walks the reviews of one master, newest first
func (s *Store) StepMasterReview(ctx context.Context, masterID int64, dir pagination.Direction, anchor int64) (*models.ReviewCard, error) {
	k := &keyset{column: "r.id"}
	k.where("r.master_id = %s", masterID)
	return s.stepReview(ctx, k, dir, anchor)
}

// MasterPage returns the active master ranked at position page (1-based) by
// rating, ties broken by id, together with the number of matching masters.
// City matching is case-insensitive and exact.
func (s *Store) MasterPage(ctx context.Context, page int, city string) (*models.MasterCard, int, error) {
	conds := []string{"m.is_active"}
	var args []interface{}
	if city != "" {
		args = append(args, city)
		conds = append(conds, "LOWER(m.city) = LOWER($1)")
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM master_profiles m"+where, args...); err != nil {
		return nil, 0, err
	}

	p := pagination.Page{Number: page, Size: 1, Total: total}
	if total == 0 || page < 1 || page > p.Pages() {
		return nil, total, nil
	}

	args = append(args, p.Offset())
	query := fmt.Sprintf("%s%s ORDER BY m.rating DESC, m.id ASC LIMIT 1 OFFSET $%d", masterCardQuery, where, len(args))

	var card models.MasterCard
	err := s.db.GetContext(ctx, &card, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, total, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return &card, total, nil
}
