package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tattoo-market/internal/conversation"
	"tattoo-market/internal/models"
	"tattoo-market/internal/util"
)

type categoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// CategoryService manages work styles; mutations are admin only
type CategoryService struct {
	store  categoryStore
	admins Admins
	logger *zap.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(store categoryStore, admins Admins) *CategoryService {
	return &CategoryService{store: store, admins: admins, logger: util.GetLogger()}
}

// List returns every category
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// BeginAdd asks the admin for a category name
func (s *CategoryService) BeginAdd(account *models.Account, session *conversation.Session) error {
	if !s.admins.Contains(account.ExternalID) {
		return models.ErrForbidden
	}
	*session = *conversation.New(conversation.StateAdminCategoryName)
	return nil
}

// SupplyName creates the category
func (s *CategoryService) SupplyName(ctx context.Context, account *models.Account, session *conversation.Session, name string) (*models.Category, error) {
	if !session.Is(conversation.StateAdminCategoryName) {
		return nil, models.ErrUnexpectedInput
	}
	category, err := s.Add(ctx, account, name)
	if err != nil {
		return nil, err
	}
	*session = *conversation.New(conversation.StateIdle)
	return category, nil
}

// Add creates a category with a unique name
func (s *CategoryService) Add(ctx context.Context, account *models.Account, name string) (*models.Category, error) {
	if !s.admins.Contains(account.ExternalID) {
		return nil, models.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if err := validate.Var(name, "required,max=64"); err != nil {
		return nil, fmt.Errorf("%w: category name must be 1-64 characters", models.ErrInvalidInput)
	}

	category, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("category created", zap.Int64("category_id", category.ID), zap.String("name", name))
	return category, nil
}

// Delete removes a category that no work references
func (s *CategoryService) Delete(ctx context.Context, account *models.Account, id int64) error {
	if !s.admins.Contains(account.ExternalID) {
		return models.ErrForbidden
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", zap.Int64("category_id", id))
	return nil
}
