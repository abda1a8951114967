package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
	"tattoo-market/internal/util"
)

type catalogStore interface {
	StepPublishedWork(ctx context.Context, dir pagination.Direction, anchor, categoryID int64) (*models.WorkCard, error)
	StepMasterWork(ctx context.Context, masterID int64, dir pagination.Direction, anchor int64) (*models.WorkCard, error)
	StepInvoicedWork(ctx context.Context, dir pagination.Direction, anchor int64) (*models.WorkCard, error)
	StepReview(ctx context.Context, dir pagination.Direction, anchor int64) (*models.ReviewCard, error)
	StepMasterReview(ctx context.Context, masterID int64, dir pagination.Direction, anchor int64) (*models.ReviewCard, error)
	MasterPage(ctx context.Context, page int, city string) (*models.MasterCard, int, error)
	GetMasterCard(ctx context.Context, id int64) (*models.MasterCard, error)
	GetMasterCardByAccount(ctx context.Context, accountID int64) (*models.MasterCard, error)
	GetWorkCard(ctx context.Context, id int64) (*models.WorkCard, error)
	IsLiked(ctx context.Context, accountID, workID int64) (bool, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// MasterPage is one ranked master with its position in the listing
type MasterPage struct {
	Master *models.MasterCard
	Page   pagination.Page
	City   string
}

// CatalogService serves the single-item listings. Every fetch returns nil when
// nothing satisfies the cursor; callers tell an empty listing (first) from a
// boundary (next/prev) by the direction they asked for.
type CatalogService struct {
	store  catalogStore
	admins Admins
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store catalogStore, admins Admins) *CatalogService {
	return &CatalogService{store: store, admins: admins, logger: util.GetLogger()}
}

// Categories returns every category
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// PublishedWork steps through published works, optionally within one category
func (s *CatalogService) PublishedWork(ctx context.Context, viewer *models.Account, dir pagination.Direction, anchor, categoryID int64) (*models.WorkCard, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.PublishedWork")
	defer span.End()

	card, err := s.store.StepPublishedWork(ctx, dir, anchor, categoryID)
	if err != nil || card == nil {
		return nil, err
	}
	return card, s.decorate(ctx, viewer, card)
}

// OwnWork steps through every work of the viewing master regardless of status
func (s *CatalogService) OwnWork(ctx context.Context, viewer *models.Account, dir pagination.Direction, anchor int64) (*models.WorkCard, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.OwnWork")
	defer span.End()

	master, err := s.masterOf(ctx, viewer)
	if err != nil {
		return nil, err
	}

	card, err := s.store.StepMasterWork(ctx, master.ID, dir, anchor)
	if err != nil || card == nil {
		return nil, err
	}
	return card, s.decorate(ctx, viewer, card)
}

// InvoicedWork steps through the admin payment queue, newest first
func (s *CatalogService) InvoicedWork(ctx context.Context, viewer *models.Account, dir pagination.Direction, anchor int64) (*models.WorkCard, error) {
	if !s.admins.Contains(viewer.ExternalID) {
		return nil, models.ErrForbidden
	}
	return s.store.StepInvoicedWork(ctx, dir, anchor)
}

// Review steps through the admin review queue, newest first
func (s *CatalogService) Review(ctx context.Context, viewer *models.Account, dir pagination.Direction, anchor int64) (*models.ReviewCard, error) {
	if !s.admins.Contains(viewer.ExternalID) {
		return nil, models.ErrForbidden
	}
	return s.store.StepReview(ctx, dir, anchor)
}

// OwnReview steps through the viewing master's reviews, newest first
func (s *CatalogService) OwnReview(ctx context.Context, viewer *models.Account, dir pagination.Direction, anchor int64) (*models.ReviewCard, error) {
	master, err := s.masterOf(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return s.store.StepMasterReview(ctx, master.ID, dir, anchor)
}

// Master returns one ranked master by page number, active masters only
func (s *CatalogService) Master(ctx context.Context, page int, city string) (*MasterPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Master")
	defer span.End()

	if page < 1 {
		page = 1
	}

	card, total, err := s.store.MasterPage(ctx, page, city)
	if err != nil {
		return nil, err
	}
	return &MasterPage{
		Master: card,
		Page:   pagination.Page{Number: page, Size: 1, Total: total},
		City:   city,
	}, nil
}

// MasterCard returns a master by profile id
func (s *CatalogService) MasterCard(ctx context.Context, masterID int64) (*models.MasterCard, error) {
	return s.store.GetMasterCard(ctx, masterID)
}

// OwnProfile returns the viewing master's profile
func (s *CatalogService) OwnProfile(ctx context.Context, viewer *models.Account) (*models.MasterCard, error) {
	return s.masterOf(ctx, viewer)
}

// Work returns one work with display fields for the viewer
func (s *CatalogService) Work(ctx context.Context, viewer *models.Account, workID int64) (*models.WorkCard, error) {
	card, err := s.store.GetWorkCard(ctx, workID)
	if err != nil {
		return nil, err
	}
	return card, s.decorate(ctx, viewer, card)
}

func (s *CatalogService) masterOf(ctx context.Context, account *models.Account) (*models.MasterCard, error) {
	if !account.IsMaster() {
		return nil, models.ErrNotAMaster
	}
	master, err := s.store.GetMasterCardByAccount(ctx, account.ID)
	if errors.Is(err, models.ErrMasterNotFound) {
		return nil, models.ErrNotAMaster
	}
	return master, err
}

func (s *CatalogService) decorate(ctx context.Context, viewer *models.Account, card *models.WorkCard) error {
	if viewer == nil {
		return nil
	}
	liked, err := s.store.IsLiked(ctx, viewer.ID, card.ID)
	if err != nil {
		return err
	}
	card.Liked = liked
	return nil
}
