package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"tattoo-market/internal/models"
	"tattoo-market/internal/payment"
)

var validate = validator.New()

// Admins is the fixed list of admin chat ids
type Admins []int64

// Contains reports whether externalID is an admin
func (a Admins) Contains(externalID int64) bool {
	for _, id := range a {
		if id == externalID {
			return true
		}
	}
	return false
}

// Notifier delivers messages to chat ids. Delivery is always best-effort for
// callers in this package.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	SendModerationPrompt(ctx context.Context, chatID int64, card *models.WorkCard) error
}

// PaymentGateway issues and polls invoices
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, asset, amount string) (*payment.Invoice, error)
	GetInvoiceStatus(ctx context.Context, invoiceID int64) (payment.InvoiceStatus, error)
}

// Locker is a best-effort distributed lock
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	PublishWorkSubmitted(ctx context.Context, event *models.WorkSubmittedEvent) error
	PublishWorkModerated(ctx context.Context, event *models.WorkModeratedEvent) error
	PublishMailingRequested(ctx context.Context, event *models.MailingRequestedEvent) error
}

// PaymentResult is the outcome of a user-triggered payment check
type PaymentResult int

const (
	PaymentPending PaymentResult = iota
	PaymentConfirmed
	PaymentAlreadyProcessed
	PaymentCheckInProgress
)

func (r PaymentResult) String() string {
	switch r {
	case PaymentConfirmed:
		return "confirmed"
	case PaymentAlreadyProcessed:
		return "already_processed"
	case PaymentCheckInProgress:
		return "in_progress"
	default:
		return "pending"
	}
}
