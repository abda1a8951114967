package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tattoo-market/internal/broker"
	"tattoo-market/internal/models"
	"tattoo-market/internal/service"
	"tattoo-market/internal/util"
)

// messageSource is the consuming side of a Kafka topic
type messageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// mailer delivers a broadcast to every account
type mailer interface {
	Deliver(ctx context.Context, event *models.MailingRequestedEvent) (*service.MailingReport, error)
}

// MailingWorker fans admin broadcasts out to every account
type MailingWorker struct {
	consumer     messageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewMailingWorker creates a new mailing worker
func NewMailingWorker(consumer messageSource, mailing mailer) *MailingWorker {
	w := &MailingWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnMailingRequested(func(ctx context.Context, event *models.MailingRequestedEvent) error {
		w.logger.Info("delivering mailing", zap.String("event_id", event.EventID), zap.Int64("requested_by", event.RequestedBy))
		_, err := mailing.Deliver(ctx, event)
		return err
	})

	return w
}

// Start starts the worker
func (w *MailingWorker) Start(ctx context.Context) error {
	w.logger.Info("starting mailing worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *MailingWorker) Stop() error {
	w.logger.Info("stopping mailing worker")
	return w.consumer.Close()
}

// WorkEventWorker follows the work lifecycle stream. It keeps the payment time
// of every work awaiting moderation and observes the moderation turnaround when
// the decision arrives. Events are keyed by work, so both events of one work
// reach the same consumer.
type WorkEventWorker struct {
	consumer     messageSource
	eventHandler *broker.EventHandler
	awaiting     map[int64]time.Time
	observe      func(decision models.WorkStatus, turnaround time.Duration)
	logger       *zap.Logger
}

// NewWorkEventWorker creates a new work event worker
func NewWorkEventWorker(consumer messageSource) *WorkEventWorker {
	w := &WorkEventWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		awaiting:     make(map[int64]time.Time),
		observe: func(decision models.WorkStatus, turnaround time.Duration) {
			util.ModerationTurnaround.WithLabelValues(string(decision)).Observe(turnaround.Seconds())
		},
		logger: util.GetLogger(),
	}

	w.eventHandler.OnWorkSubmitted(w.handleSubmitted)
	w.eventHandler.OnWorkModerated(w.handleModerated)

	return w
}

func (w *WorkEventWorker) handleSubmitted(_ context.Context, event *models.WorkSubmittedEvent) error {
	util.WorkEventsConsumedTotal.WithLabelValues(event.EventType).Inc()
	w.logger.Info("work paid and queued for moderation",
		zap.String("event_id", event.EventID),
		zap.Int64("work_id", event.WorkID),
		zap.Int64("master_id", event.MasterID),
		zap.Int64("invoice_id", event.InvoiceID))

	// redelivery keeps the first payment time
	if _, ok := w.awaiting[event.WorkID]; !ok {
		w.awaiting[event.WorkID] = event.Timestamp
	}
	return nil
}

func (w *WorkEventWorker) handleModerated(_ context.Context, event *models.WorkModeratedEvent) error {
	util.WorkEventsConsumedTotal.WithLabelValues(event.EventType).Inc()
	w.logger.Info("work moderated",
		zap.String("event_id", event.EventID),
		zap.Int64("work_id", event.WorkID),
		zap.String("status", string(event.Status)),
		zap.Int64("moderator_id", event.ModeratorID))

	paidAt, ok := w.awaiting[event.WorkID]
	if !ok {
		// submitted before this consumer started
		return nil
	}
	delete(w.awaiting, event.WorkID)

	turnaround := event.Timestamp.Sub(paidAt)
	if turnaround < 0 {
		turnaround = 0
	}
	w.observe(event.Status, turnaround)
	return nil
}

// Start starts the worker
func (w *WorkEventWorker) Start(ctx context.Context) error {
	w.logger.Info("starting work event worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *WorkEventWorker) Stop() error {
	w.logger.Info("stopping work event worker")
	return w.consumer.Close()
}
