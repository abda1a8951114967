package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tattoo-market/internal/broker"
	"tattoo-market/internal/conversation"
	"tattoo-market/internal/models"
	"tattoo-market/internal/util"
)

type mailingStore interface {
	ListAccountExternalIDs(ctx context.Context) ([]int64, error)
}

// MailingReport summarises one broadcast
type MailingReport struct {
	Delivered int
	Failed    int
}

// MailingService composes admin broadcasts and delivers them. Composition
// happens in the bot process; delivery runs in the mailing worker.
type MailingService struct {
	store     mailingStore
	notifier  Notifier
	publisher EventPublisher
	admins    Admins
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewMailingService creates a new mailing service. ratePerSecond caps deliveries
// to stay under the chat provider's flood limit.
func NewMailingService(store mailingStore, notifier Notifier, publisher EventPublisher, admins Admins, ratePerSecond float64, burst int) *MailingService {
	if burst < 1 {
		burst = 1
	}
	return &MailingService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		admins:    admins,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		logger:    util.GetLogger(),
	}
}

// BeginMailing asks the admin for the broadcast text
func (s *MailingService) BeginMailing(account *models.Account, session *conversation.Session) error {
	if !s.admins.Contains(account.ExternalID) {
		return models.ErrForbidden
	}
	*session = *conversation.New(conversation.StateAdminMailingText)
	return nil
}

// SupplyText stores the draft broadcast; photoFileID is optional
func (s *MailingService) SupplyText(session *conversation.Session, text, photoFileID string) (string, error) {
	if !session.Is(conversation.StateAdminMailingText) {
		return "", models.ErrUnexpectedInput
	}
	text = strings.TrimSpace(text)
	if err := validate.Var(text, "required,max=4000"); err != nil {
		return "", fmt.Errorf("%w: message must be 1-4000 characters", models.ErrInvalidInput)
	}

	session.Set(conversation.KeyMailingText, text)
	if photoFileID != "" {
		session.Set(conversation.KeyPhotoFileID, photoFileID)
	}
	session.State = conversation.StateAdminMailingReady
	return text, nil
}

// Confirm publishes the drafted broadcast for the mailing worker
func (s *MailingService) Confirm(ctx context.Context, account *models.Account, session *conversation.Session) error {
	ctx, span := util.StartSpan(ctx, "MailingService.Confirm")
	defer span.End()

	if !s.admins.Contains(account.ExternalID) {
		return models.ErrForbidden
	}
	if !session.Is(conversation.StateAdminMailingReady) {
		return models.ErrUnexpectedInput
	}

	event := &models.MailingRequestedEvent{
		BaseEvent:   broker.NewBaseEvent(models.EventTypeMailingRequested),
		Text:        session.Get(conversation.KeyMailingText),
		PhotoFileID: session.Get(conversation.KeyPhotoFileID),
		RequestedBy: account.ExternalID,
	}
	if err := s.publisher.PublishMailingRequested(ctx, event); err != nil {
		return fmt.Errorf("failed to queue mailing: %w", err)
	}

	*session = *conversation.New(conversation.StateIdle)
	s.logger.Info("mailing queued", zap.String("event_id", event.EventID), zap.Int64("admin_id", account.ExternalID))
	return nil
}

// Cancel drops the drafted broadcast
func (s *MailingService) Cancel(session *conversation.Session) {
	*session = *conversation.New(conversation.StateIdle)
}

// Deliver sends the broadcast to every account. Per-recipient failures are
// counted and do not stop the run.
func (s *MailingService) Deliver(ctx context.Context, event *models.MailingRequestedEvent) (*MailingReport, error) {
	ctx, span := util.StartSpan(ctx, "MailingService.Deliver")
	defer span.End()

	recipients, err := s.store.ListAccountExternalIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	report := &MailingReport{}
	for _, chatID := range recipients {
		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}

		if event.PhotoFileID != "" {
			err = s.notifier.SendPhoto(ctx, chatID, event.PhotoFileID, event.Text)
		} else {
			err = s.notifier.SendText(ctx, chatID, event.Text)
		}
		if err != nil {
			report.Failed++
			util.MailingDeliveriesTotal.WithLabelValues("failed").Inc()
			s.logger.Warn("mailing delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
			continue
		}
		report.Delivered++
		util.MailingDeliveriesTotal.WithLabelValues("delivered").Inc()
	}

	s.logger.Info("mailing delivered",
		zap.String("event_id", event.EventID),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed))

	if s.admins.Contains(event.RequestedBy) {
		summary := fmt.Sprintf("📨 Mailing finished: %d delivered, %d failed.", report.Delivered, report.Failed)
		if err := s.notifier.SendText(ctx, event.RequestedBy, summary); err != nil {
			s.logger.Warn("failed to report mailing result", zap.Error(err))
		}
	}
	return report, nil
}
