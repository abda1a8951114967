package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return New(sqlxDB), mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlxDB.Close()
	}
}

var workCols = []string{"id", "master_id", "category_id", "image_file_id", "description", "price", "status", "likes_count", "invoice_id", "created_at"}

func workCardRows() *sqlmock.Rows {
	cols := append(append([]string{}, workCols...), "category_name", "master_username", "master_external_id", "comment_count")
	return sqlmock.NewRows(cols)
}

func TestToggleLikeAddsThenRemoves(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM works WHERE id = $1 FOR UPDATE")).
		WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec("DELETE FROM likes").WithArgs(1, 7).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO likes").WithArgs(1, 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE works SET likes_count = likes_count + $2")).
		WithArgs(7, 1).WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(1))
	mock.ExpectCommit()

	liked, count, err := s.ToggleLike(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM works WHERE id = $1 FOR UPDATE")).
		WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec("DELETE FROM likes").WithArgs(1, 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE works SET likes_count = likes_count + $2")).
		WithArgs(7, -1).WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(0))
	mock.ExpectCommit()

	liked, count, err = s.ToggleLike(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)
}

func TestToggleLikeMissingWork(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM works").WithArgs(99).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, _, err := s.ToggleLike(context.Background(), 1, 99)
	assert.ErrorIs(t, err, models.ErrWorkNotFound)
}

func TestTransitionWorkStatus(t *testing.T) {
	t.Run("moves a work in the expected state", func(t *testing.T) {
		s, mock, done := newStoreMock(t)
		defer done()

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE works SET status = $3 WHERE id = $1 AND status = $2")).
			WithArgs(5, "pending_payment", "pending_approval").
			WillReturnRows(sqlmock.NewRows(workCols).
				AddRow(5, 2, 3, "file", "desc", 100, "pending_approval", 0, 555, time.Now()))

		work, err := s.TransitionWorkStatus(context.Background(), 5,
			models.WorkStatusPendingPayment, models.WorkStatusPendingApproval)
		require.NoError(t, err)
		assert.Equal(t, models.WorkStatusPendingApproval, work.Status)
		require.NotNil(t, work.InvoiceID)
		assert.Equal(t, int64(555), *work.InvoiceID)
	})

	t.Run("reports wrong state as invalid transition", func(t *testing.T) {
		s, mock, done := newStoreMock(t)
		defer done()

		mock.ExpectQuery("UPDATE works SET status").
			WithArgs(5, "pending_approval", "published").
			WillReturnRows(sqlmock.NewRows(workCols))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM works WHERE id = $1)")).
			WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := s.TransitionWorkStatus(context.Background(), 5,
			models.WorkStatusPendingApproval, models.WorkStatusPublished)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("reports missing work", func(t *testing.T) {
		s, mock, done := newStoreMock(t)
		defer done()

		mock.ExpectQuery("UPDATE works SET status").WillReturnRows(sqlmock.NewRows(workCols))
		mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := s.TransitionWorkStatus(context.Background(), 5,
			models.WorkStatusPendingApproval, models.WorkStatusRejected)
		assert.ErrorIs(t, err, models.ErrWorkNotFound)
	})

	t.Run("refuses illegal edges without touching the database", func(t *testing.T) {
		s, _, done := newStoreMock(t)
		defer done()

		_, err := s.TransitionWorkStatus(context.Background(), 5,
			models.WorkStatusRejected, models.WorkStatusPublished)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestCreateReviewRecomputesRating(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	workID := int64(4)
	review := &models.Review{WorkID: &workID, MasterID: 2, ClientID: 9, Rating: 5, Text: "great"}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs(&workID, 2, 9, 5, "great").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM master_profiles WHERE id = $1 FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SET rating = COALESCE((SELECT AVG(rating)::float8 FROM reviews WHERE master_id = $1), 0)")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(4.5))
	mock.ExpectCommit()

	require.NoError(t, s.CreateReview(context.Background(), review))
	assert.Equal(t, int64(11), review.ID)
}

func TestDeleteReviewMissing(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM reviews").WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"master_id"}))
	mock.ExpectRollback()

	_, err := s.DeleteReview(context.Background(), 3)
	assert.ErrorIs(t, err, models.ErrReviewNotFound)
}

func TestDeleteReviewRecomputesRating(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM reviews").WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"master_id"}).AddRow(2))
	mock.ExpectQuery("SELECT id FROM master_profiles").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery("UPDATE master_profiles").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(0.0))
	mock.ExpectCommit()

	masterID, err := s.DeleteReview(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), masterID)
}

func TestCategoryConstraints(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO categories").WithArgs("Blackwork").
		WillReturnError(&pq.Error{Code: "23505"})
	_, err := s.CreateCategory(context.Background(), "Blackwork")
	assert.ErrorIs(t, err, models.ErrCategoryExists)

	mock.ExpectExec("DELETE FROM categories").WithArgs(1).
		WillReturnError(&pq.Error{Code: "23503"})
	assert.ErrorIs(t, s.DeleteCategory(context.Background(), 1), models.ErrCategoryInUse)

	mock.ExpectExec("DELETE FROM categories").WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.DeleteCategory(context.Background(), 2), models.ErrCategoryNotFound)
}

func TestStepPublishedWork(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectQuery(`WHERE w.status = \$1 AND w.category_id = \$2 ORDER BY w.id ASC LIMIT 1`).
		WithArgs("published", 3).
		WillReturnRows(workCardRows().
			AddRow(10, 2, 3, "file", "desc", 100, "published", 4, 1, time.Now(), "Blackwork", "ink", 555, 2))

	card, err := s.StepPublishedWork(context.Background(), pagination.First, 0, 3)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, int64(10), card.ID)
	assert.Equal(t, "Blackwork", card.CategoryName)
	assert.Equal(t, 2, card.CommentCount)

	mock.ExpectQuery(`WHERE w.status = \$1 AND w.id > \$2 ORDER BY w.id ASC LIMIT 1`).
		WithArgs("published", 10).
		WillReturnRows(workCardRows())

	card, err = s.StepPublishedWork(context.Background(), pagination.Next, 10, 0)
	require.NoError(t, err)
	assert.Nil(t, card)
}

func TestStepDescendingListings(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectQuery(`FROM works w .* WHERE w.status IN \('pending_approval', 'published', 'rejected'\) AND w.id < \$1 ORDER BY w.id DESC LIMIT 1`).
		WithArgs(20).WillReturnRows(workCardRows())
	_, err := s.StepInvoicedWork(context.Background(), pagination.Next, 20)
	require.NoError(t, err)

	mock.ExpectQuery(`FROM reviews r .* WHERE r.master_id = \$1 AND r.id > \$2 ORDER BY r.id ASC LIMIT 1`).
		WithArgs(2, 8).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	card, err := s.StepMasterReview(context.Background(), 2, pagination.Prev, 8)
	require.NoError(t, err)
	assert.Nil(t, card)

	mock.ExpectQuery(`FROM reviews r .* ORDER BY r.id DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = s.StepReview(context.Background(), pagination.First, 0)
	require.NoError(t, err)
}

func TestMasterPage(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM master_profiles m WHERE m.is_active AND LOWER(m.city) = LOWER($1)")).
		WithArgs("berlin").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY m.rating DESC, m.id ASC LIMIT 1 OFFSET $2")).
		WithArgs("berlin", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "city", "bio", "social_links", "is_active", "rating", "created_at", "username", "external_id"}).
			AddRow(4, 40, "Berlin", "bio", []byte(`[{"name":"link","url":"https://t.me/ink"}]`), true, 4.5, time.Now(), "ink", 400))

	card, total, err := s.MasterPage(context.Background(), 2, "berlin")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.NotNil(t, card)
	assert.Equal(t, []string{"https://t.me/ink"}, card.SocialLinks.URLs())

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	card, total, err = s.MasterPage(context.Background(), 4, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Nil(t, card)
}

func TestRevokeMaster(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM master_profiles WHERE account_id = \\$1 RETURNING id").
		WithArgs(40).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec("UPDATE accounts SET role = \\$2 WHERE id = \\$1").
		WithArgs(40, models.RoleClient).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.RevokeMaster(context.Background(), 40))
}

func TestGetSettingDefault(t *testing.T) {
	s, mock, done := newStoreMock(t)
	defer done()

	mock.ExpectQuery("SELECT value FROM settings").WithArgs(models.SettingMasterPrice).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	value, err := s.GetSetting(context.Background(), models.SettingMasterPrice, "0")
	require.NoError(t, err)
	assert.Equal(t, "0", value)
}
