package store

import (
	"context"
	"database/sql"
	"errors"

	"tattoo-market/internal/models"
)

// ListCategories returns all categories ordered by name
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, "SELECT id, name FROM categories ORDER BY name, id")
	return categories, err
}

// CountCategories returns the number of categories
func (s *Store) CountCategories(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM categories")
	return n, err
}

// GetCategory retrieves a category by ID
func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT id, name FROM categories WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a category with a unique name
func (s *Store) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category,
		"INSERT INTO categories (name) VALUES ($1) RETURNING id, name", name)
	if isPQCode(err, pqUniqueViolation) {
		return nil, models.ErrCategoryExists
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes a category; categories referenced by works are kept
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if isPQCode(err, pqForeignKeyViolation) {
		return models.ErrCategoryInUse
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrCategoryNotFound
	}
	return nil
}
