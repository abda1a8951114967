package store

import (
	"context"
	"database/sql"
	"errors"

	"tattoo-market/internal/models"
)

const accountColumns = "id, external_id, username, full_name, role, created_at"

// UpsertAccount creates the account on first contact and refreshes its names afterwards
func (s *Store) UpsertAccount(ctx context.Context, externalID int64, username, fullName string) (*models.Account, error) {
	query := `
		INSERT INTO accounts (external_id, username, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_id) DO UPDATE
		SET username = EXCLUDED.username, full_name = EXCLUDED.full_name
		RETURNING ` + accountColumns

	var account models.Account
	if err := s.db.GetContext(ctx, &account, query, externalID, username, fullName); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByExternalID retrieves an account by its chat id
func (s *Store) GetAccountByExternalID(ctx context.Context, externalID int64) (*models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account,
		"SELECT "+accountColumns+" FROM accounts WHERE external_id = $1", externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByID retrieves an account by ID
func (s *Store) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccountExternalIDs returns the chat id of every known account
func (s *Store) ListAccountExternalIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, "SELECT external_id FROM accounts ORDER BY id")
	return ids, err
}
