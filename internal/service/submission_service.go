package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"tattoo-market/internal/broker"
	"tattoo-market/internal/conversation"
	"tattoo-market/internal/models"
	"tattoo-market/internal/payment"
	"tattoo-market/internal/util"
)

const paymentCheckLockTTL = 30 * time.Second

type submissionStore interface {
	GetMasterCardByAccount(ctx context.Context, accountID int64) (*models.MasterCard, error)
	CountCategories(ctx context.Context) (int, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateWork(ctx context.Context, work *models.Work) error
	GetWork(ctx context.Context, id int64) (*models.Work, error)
	GetWorkCard(ctx context.Context, id int64) (*models.WorkCard, error)
	TransitionWorkStatus(ctx context.Context, id int64, from, to models.WorkStatus) (*models.Work, error)
}

// Submission is a persisted work awaiting its placement payment
type Submission struct {
	Work   *models.Work
	PayURL string
}

// SubmissionService drives a work from draft to pending_approval.
// The draft lives in the caller's conversation session until the invoice exists.
type SubmissionService struct {
	store     submissionStore
	gateway   PaymentGateway
	notifier  Notifier
	publisher EventPublisher
	locker    Locker
	admins    Admins
	asset     string
	fee       string
	logger    *zap.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	store submissionStore,
	gateway PaymentGateway,
	notifier Notifier,
	publisher EventPublisher,
	locker Locker,
	admins Admins,
	asset, fee string,
) *SubmissionService {
	return &SubmissionService{
		store:     store,
		gateway:   gateway,
		notifier:  notifier,
		publisher: publisher,
		locker:    locker,
		admins:    admins,
		asset:     asset,
		fee:       fee,
		logger:    util.GetLogger(),
	}
}

// PlacementFee returns the fee charged per work
func (s *SubmissionService) PlacementFee() (asset, amount string) {
	return s.asset, s.fee
}

// BeginSubmission opens a fresh draft, abandoning any previous one
func (s *SubmissionService) BeginSubmission(ctx context.Context, account *models.Account, session *conversation.Session) error {
	ctx, span := util.StartSpan(ctx, "SubmissionService.BeginSubmission")
	defer span.End()

	if !account.IsMaster() {
		return models.ErrNotAMaster
	}

	master, err := s.store.GetMasterCardByAccount(ctx, account.ID)
	if errors.Is(err, models.ErrMasterNotFound) {
		return models.ErrNotAMaster
	}
	if err != nil {
		return err
	}
	if !master.IsActive {
		return models.ErrForbidden
	}

	n, err := s.store.CountCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if n == 0 {
		return models.ErrNoCategories
	}

	*session = *conversation.New(conversation.StateSubmissionPhoto)
	return nil
}

// SupplyPhoto records the image reference
func (s *SubmissionService) SupplyPhoto(session *conversation.Session, fileID string) error {
	if !session.Is(conversation.StateSubmissionPhoto) {
		return models.ErrUnexpectedInput
	}
	if err := validate.Var(fileID, "required"); err != nil {
		return fmt.Errorf("%w: photo is required", models.ErrInvalidInput)
	}

	session.Set(conversation.KeyPhotoFileID, fileID)
	session.State = conversation.StateSubmissionDescription
	return nil
}

// SupplyDescription records the description and returns the styles to choose from
func (s *SubmissionService) SupplyDescription(ctx context.Context, session *conversation.Session, text string) ([]models.Category, error) {
	if !session.Is(conversation.StateSubmissionDescription) {
		return nil, models.ErrUnexpectedInput
	}
	text = strings.TrimSpace(text)
	if err := validate.Var(text, "required,max=1000"); err != nil {
		return nil, fmt.Errorf("%w: description must be 1-1000 characters", models.ErrInvalidInput)
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, models.ErrNoCategories
	}

	session.Set(conversation.KeyDescription, text)
	session.State = conversation.StateSubmissionStyle
	return categories, nil
}

// SupplyStyle records the category
func (s *SubmissionService) SupplyStyle(ctx context.Context, session *conversation.Session, categoryID int64) (*models.Category, error) {
	if !session.Is(conversation.StateSubmissionStyle) {
		return nil, models.ErrUnexpectedInput
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	session.SetInt64(conversation.KeyCategoryID, category.ID)
	session.State = conversation.StateSubmissionPrice
	return category, nil
}

// SupplyPrice validates the price and finalizes the draft: an invoice is
// requested first and the work row is created only if that succeeds.
func (s *SubmissionService) SupplyPrice(ctx context.Context, account *models.Account, session *conversation.Session, raw string) (*Submission, error) {
	ctx, span := util.StartSpan(ctx, "SubmissionService.SupplyPrice")
	defer span.End()

	if !session.Is(conversation.StateSubmissionPrice) {
		return nil, models.ErrUnexpectedInput
	}

	price, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || validate.Var(price, "gte=0") != nil {
		return nil, fmt.Errorf("%w: price must be a non-negative whole number", models.ErrInvalidInput)
	}

	categoryID, ok := session.Int64(conversation.KeyCategoryID)
	if !ok {
		*session = *conversation.New(conversation.StateIdle)
		return nil, models.ErrUnexpectedInput
	}

	master, err := s.store.GetMasterCardByAccount(ctx, account.ID)
	if errors.Is(err, models.ErrMasterNotFound) {
		*session = *conversation.New(conversation.StateIdle)
		return nil, models.ErrNotAMaster
	}
	if err != nil {
		return nil, err
	}

	invoice, err := s.gateway.CreateInvoice(ctx, s.asset, s.fee)
	if err != nil {
		*session = *conversation.New(conversation.StateIdle)
		s.logger.Warn("invoice creation failed, draft abandoned",
			zap.Int64("account_id", account.ID),
			zap.Error(err))
		if errors.Is(err, models.ErrPaymentGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentGatewayUnavailable, err)
	}

	work := &models.Work{
		MasterID:    master.ID,
		CategoryID:  categoryID,
		ImageFileID: session.Get(conversation.KeyPhotoFileID),
		Description: session.Get(conversation.KeyDescription),
		Price:       price,
		InvoiceID:   &invoice.ID,
	}
	if err := s.store.CreateWork(ctx, work); err != nil {
		*session = *conversation.New(conversation.StateIdle)
		return nil, fmt.Errorf("failed to create work: %w", err)
	}

	*session = *conversation.New(conversation.StateIdle)
	util.WorksSubmittedTotal.Inc()

	s.logger.Info("work submitted",
		zap.Int64("work_id", work.ID),
		zap.Int64("master_id", master.ID),
		zap.Int64("invoice_id", invoice.ID))

	return &Submission{Work: work, PayURL: invoice.PayURL}, nil
}

// CheckPayment polls the invoice of a work and, once paid, moves it to
// pending_approval and prompts every admin. Repeated checks after the
// transition report PaymentAlreadyProcessed without notifying again.
func (s *SubmissionService) CheckPayment(ctx context.Context, workID int64) (PaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "SubmissionService.CheckPayment", attribute.Int64("work_id", workID))
	defer span.End()

	result, err := s.checkPayment(ctx, workID)
	if err != nil {
		util.RecordError(span, err)
		return result, err
	}
	span.SetAttributes(attribute.String("result", result.String()))
	util.PaymentChecksTotal.WithLabelValues(result.String()).Inc()
	return result, nil
}

func (s *SubmissionService) checkPayment(ctx context.Context, workID int64) (PaymentResult, error) {
	if s.locker != nil {
		lockKey := fmt.Sprintf("payment-check:%d", workID)
		acquired, err := s.locker.AcquireLock(ctx, lockKey, paymentCheckLockTTL)
		switch {
		case err != nil:
			s.logger.Warn("payment check lock unavailable", zap.Int64("work_id", workID), zap.Error(err))
		case !acquired:
			return PaymentCheckInProgress, nil
		default:
			defer func() {
				if err := s.locker.ReleaseLock(context.Background(), lockKey); err != nil {
					s.logger.Warn("failed to release payment check lock", zap.Int64("work_id", workID), zap.Error(err))
				}
			}()
		}
	}

	work, err := s.store.GetWork(ctx, workID)
	if err != nil {
		return PaymentPending, err
	}
	if work.Status != models.WorkStatusPendingPayment {
		return PaymentAlreadyProcessed, nil
	}
	if work.InvoiceID == nil {
		return PaymentPending, fmt.Errorf("work %d has no invoice", workID)
	}

	status, err := s.gateway.GetInvoiceStatus(ctx, *work.InvoiceID)
	if err != nil {
		return PaymentPending, err
	}
	if status != payment.StatusPaid {
		return PaymentPending, nil
	}

	work, err = s.store.TransitionWorkStatus(ctx, workID, models.WorkStatusPendingPayment, models.WorkStatusPendingApproval)
	if errors.Is(err, models.ErrInvalidTransition) {
		return PaymentAlreadyProcessed, nil
	}
	if err != nil {
		return PaymentPending, fmt.Errorf("failed to confirm payment: %w", err)
	}

	util.PaymentsConfirmedTotal.WithLabelValues("placement").Inc()
	s.logger.Info("placement paid", zap.Int64("work_id", workID), zap.Int64("invoice_id", *work.InvoiceID))

	s.promptAdmins(ctx, workID)
	s.publishSubmitted(ctx, work)

	return PaymentConfirmed, nil
}

func (s *SubmissionService) promptAdmins(ctx context.Context, workID int64) {
	card, err := s.store.GetWorkCard(ctx, workID)
	if err != nil {
		s.logger.Error("failed to load work for moderation prompt", zap.Int64("work_id", workID), zap.Error(err))
		return
	}

	for _, adminID := range s.admins {
		if err := s.notifier.SendModerationPrompt(ctx, adminID, card); err != nil {
			util.NotificationsFailedTotal.WithLabelValues("moderation_prompt").Inc()
			s.logger.Error("failed to send moderation prompt",
				zap.Int64("work_id", workID),
				zap.Int64("admin_id", adminID),
				zap.Error(err))
		}
	}
}

func (s *SubmissionService) publishSubmitted(ctx context.Context, work *models.Work) {
	if s.publisher == nil {
		return
	}

	event := &models.WorkSubmittedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeWorkSubmitted),
		WorkID:    work.ID,
		MasterID:  work.MasterID,
	}
	if work.InvoiceID != nil {
		event.InvoiceID = *work.InvoiceID
	}
	if err := s.publisher.PublishWorkSubmitted(ctx, event); err != nil {
		s.logger.Warn("failed to publish work submitted event", zap.Int64("work_id", work.ID), zap.Error(err))
	}
}
