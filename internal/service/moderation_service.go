package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tattoo-market/internal/broker"
	"tattoo-market/internal/models"
	"tattoo-market/internal/util"
)

type moderationStore interface {
	TransitionWorkStatus(ctx context.Context, id int64, from, to models.WorkStatus) (*models.Work, error)
	GetMasterCard(ctx context.Context, id int64) (*models.MasterCard, error)
}

// ModerationService applies admin decisions to paid works
type ModerationService struct {
	store     moderationStore
	notifier  Notifier
	publisher EventPublisher
	admins    Admins
	logger    *zap.Logger
}

// NewModerationService creates a new moderation service
func NewModerationService(store moderationStore, notifier Notifier, publisher EventPublisher, admins Admins) *ModerationService {
	return &ModerationService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		admins:    admins,
		logger:    util.GetLogger(),
	}
}

// Approve publishes a work awaiting approval
func (s *ModerationService) Approve(ctx context.Context, moderatorID, workID int64) (*models.Work, error) {
	ctx, span := util.StartSpan(ctx, "ModerationService.Approve")
	defer span.End()

	return s.decide(ctx, moderatorID, workID, models.WorkStatusPublished)
}

// Reject rejects a work awaiting approval
func (s *ModerationService) Reject(ctx context.Context, moderatorID, workID int64) (*models.Work, error) {
	ctx, span := util.StartSpan(ctx, "ModerationService.Reject")
	defer span.End()

	return s.decide(ctx, moderatorID, workID, models.WorkStatusRejected)
}

func (s *ModerationService) decide(ctx context.Context, moderatorID, workID int64, to models.WorkStatus) (*models.Work, error) {
	if !s.admins.Contains(moderatorID) {
		return nil, models.ErrForbidden
	}

	work, err := s.store.TransitionWorkStatus(ctx, workID, models.WorkStatusPendingApproval, to)
	if err != nil {
		return nil, err
	}

	util.ModerationDecisionsTotal.WithLabelValues(string(to)).Inc()
	s.logger.Info("work moderated",
		zap.Int64("work_id", workID),
		zap.String("status", string(to)),
		zap.Int64("moderator_id", moderatorID))

	s.notifyMaster(ctx, work)

	if s.publisher != nil {
		event := &models.WorkModeratedEvent{
			BaseEvent:   broker.NewBaseEvent(models.EventTypeWorkModerated),
			WorkID:      work.ID,
			MasterID:    work.MasterID,
			Status:      to,
			ModeratorID: moderatorID,
		}
		if err := s.publisher.PublishWorkModerated(ctx, event); err != nil {
			s.logger.Warn("failed to publish work moderated event", zap.Int64("work_id", work.ID), zap.Error(err))
		}
	}

	return work, nil
}

func (s *ModerationService) notifyMaster(ctx context.Context, work *models.Work) {
	master, err := s.store.GetMasterCard(ctx, work.MasterID)
	if err != nil {
		s.logger.Error("failed to load master for moderation notice", zap.Int64("work_id", work.ID), zap.Error(err))
		return
	}

	text := fmt.Sprintf("✅ Your work #%d has been approved and published.", work.ID)
	if work.Status == models.WorkStatusRejected {
		text = fmt.Sprintf("❌ Your work #%d has been rejected by the moderator.", work.ID)
	}

	if err := s.notifier.SendText(ctx, master.ExternalID, text); err != nil {
		util.NotificationsFailedTotal.WithLabelValues("moderation_outcome").Inc()
		s.logger.Error("failed to notify master",
			zap.Int64("work_id", work.ID),
			zap.Int64("master_id", work.MasterID),
			zap.Error(err))
	}
}
