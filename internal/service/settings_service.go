package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tattoo-market/internal/models"
)

const defaultMasterPrice = "0"

type settingsStore interface {
	GetSetting(ctx context.Context, key, def string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// SettingsService exposes operator-tunable parameters
type SettingsService struct {
	store  settingsStore
	admins Admins
}

// NewSettingsService creates a new settings service
func NewSettingsService(store settingsStore, admins Admins) *SettingsService {
	return &SettingsService{store: store, admins: admins}
}

// MasterPrice returns the master registration fee
func (s *SettingsService) MasterPrice(ctx context.Context) (float64, string, error) {
	raw, err := s.store.GetSetting(ctx, models.SettingMasterPrice, defaultMasterPrice)
	if err != nil {
		return 0, "", err
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 {
		return 0, defaultMasterPrice, nil
	}
	return price, raw, nil
}

// SetMasterPrice updates the registration fee; admin only
func (s *SettingsService) SetMasterPrice(ctx context.Context, account *models.Account, raw string) (string, error) {
	if !s.admins.Contains(account.ExternalID) {
		return "", models.ErrForbidden
	}

	raw = strings.TrimSpace(raw)
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 {
		return "", fmt.Errorf("%w: price must be a non-negative number", models.ErrInvalidInput)
	}

	value := strconv.FormatFloat(price, 'f', -1, 64)
	if err := s.store.SetSetting(ctx, models.SettingMasterPrice, value); err != nil {
		return "", err
	}
	return value, nil
}
