package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tattoo-market/internal/models"
)

const masterCardQuery = `
	SELECT m.id, m.account_id, m.city, m.bio, m.social_links, m.is_active, m.rating, m.created_at,
	       a.username, a.external_id
	FROM master_profiles m
	JOIN accounts a ON a.id = m.account_id`

// CreateMasterProfile creates the profile and promotes the account in one transaction
func (s *Store) CreateMasterProfile(ctx context.Context, profile *models.MasterProfile) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO master_profiles (account_id, city, bio, social_links)
			VALUES ($1, $2, $3, $4)
			RETURNING id, is_active, rating, created_at`

		err := tx.QueryRowxContext(ctx, query,
			profile.AccountID, profile.City, profile.Bio, profile.SocialLinks).
			Scan(&profile.ID, &profile.IsActive, &profile.Rating, &profile.CreatedAt)
		if isPQCode(err, pqUniqueViolation) {
			return models.ErrAlreadyMaster
		}
		if err != nil {
			return fmt.Errorf("failed to insert master profile: %w", err)
		}

		return setRole(ctx, tx, profile.AccountID, models.RoleMaster)
	})
}

// GetMasterCard retrieves a master by profile ID
func (s *Store) GetMasterCard(ctx context.Context, id int64) (*models.MasterCard, error) {
	return s.getMasterCard(ctx, masterCardQuery+" WHERE m.id = $1", id)
}

// GetMasterCardByAccount retrieves a master by account ID
func (s *Store) GetMasterCardByAccount(ctx context.Context, accountID int64) (*models.MasterCard, error) {
	return s.getMasterCard(ctx, masterCardQuery+" WHERE m.account_id = $1", accountID)
}

func (s *Store) getMasterCard(ctx context.Context, query string, arg int64) (*models.MasterCard, error) {
	var card models.MasterCard
	err := s.db.GetContext(ctx, &card, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrMasterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateMasterCity sets the city of a master
func (s *Store) UpdateMasterCity(ctx context.Context, accountID int64, city string) error {
	return s.updateMaster(ctx, "UPDATE master_profiles SET city = $2 WHERE account_id = $1", accountID, city)
}

// UpdateMasterBio sets the bio of a master
func (s *Store) UpdateMasterBio(ctx context.Context, accountID int64, bio string) error {
	return s.updateMaster(ctx, "UPDATE master_profiles SET bio = $2 WHERE account_id = $1", accountID, bio)
}

// UpdateMasterSocials replaces the social links of a master
func (s *Store) UpdateMasterSocials(ctx context.Context, accountID int64, links models.SocialLinks) error {
	return s.updateMaster(ctx, "UPDATE master_profiles SET social_links = $2 WHERE account_id = $1", accountID, links)
}

// SetMasterActive blocks or unblocks a master
func (s *Store) SetMasterActive(ctx context.Context, accountID int64, active bool) error {
	return s.updateMaster(ctx, "UPDATE master_profiles SET is_active = $2 WHERE account_id = $1", accountID, active)
}

func (s *Store) updateMaster(ctx context.Context, query string, accountID int64, value interface{}) error {
	res, err := s.db.ExecContext(ctx, query, accountID, value)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrMasterNotFound
	}
	return nil
}

// RevokeMaster deletes the profile with its works and demotes the account
func (s *Store) RevokeMaster(ctx context.Context, accountID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var profileID int64
		err := tx.GetContext(ctx, &profileID,
			"DELETE FROM master_profiles WHERE account_id = $1 RETURNING id", accountID)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrMasterNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete master profile: %w", err)
		}

		return setRole(ctx, tx, accountID, models.RoleClient)
	})
}

func setRole(ctx context.Context, tx *sqlx.Tx, accountID int64, role string) error {
	res, err := tx.ExecContext(ctx, "UPDATE accounts SET role = $2 WHERE id = $1", accountID, role)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}
