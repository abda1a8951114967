package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tattoo-market/internal/conversation"
	"tattoo-market/internal/models"
	"tattoo-market/internal/util"
)

type reviewStore interface {
	GetMasterCard(ctx context.Context, id int64) (*models.MasterCard, error)
	GetMasterCardByAccount(ctx context.Context, accountID int64) (*models.MasterCard, error)
	GetWork(ctx context.Context, id int64) (*models.Work, error)
	CreateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id int64) (int64, error)
	GetReviewCard(ctx context.Context, id int64) (*models.ReviewCard, error)
	SetReviewReply(ctx context.Context, id int64, reply string) error
}

// ReviewService handles client reviews, replies and admin deletion.
// Rating aggregation happens in the store inside the review write.
type ReviewService struct {
	store    reviewStore
	notifier Notifier
	admins   Admins
	logger   *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store reviewStore, notifier Notifier, admins Admins) *ReviewService {
	return &ReviewService{store: store, notifier: notifier, admins: admins, logger: util.GetLogger()}
}

// BeginReview starts a review of the master, optionally about one of the master's works
func (s *ReviewService) BeginReview(ctx context.Context, account *models.Account, session *conversation.Session, masterID, workID int64) (*models.MasterCard, error) {
	master, err := s.store.GetMasterCard(ctx, masterID)
	if err != nil {
		return nil, err
	}
	if master.AccountID == account.ID {
		return nil, models.ErrForbidden
	}

	*session = *conversation.New(conversation.StateReviewRating)
	session.SetInt64(conversation.KeyMasterID, master.ID)
	if workID > 0 {
		session.SetInt64(conversation.KeyWorkID, workID)
	}
	return master, nil
}

// BeginWorkReview starts a review of the master who owns the work
func (s *ReviewService) BeginWorkReview(ctx context.Context, account *models.Account, session *conversation.Session, workID int64) (*models.MasterCard, error) {
	work, err := s.store.GetWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	return s.BeginReview(ctx, account, session, work.MasterID, work.ID)
}

// SupplyRating records a 1-5 rating
func (s *ReviewService) SupplyRating(session *conversation.Session, rating int) error {
	if !session.Is(conversation.StateReviewRating) {
		return models.ErrUnexpectedInput
	}
	if err := validate.Var(rating, "min=1,max=5"); err != nil {
		return fmt.Errorf("%w: rating must be between 1 and 5", models.ErrInvalidInput)
	}

	session.Set(conversation.KeyRating, strconv.Itoa(rating))
	session.State = conversation.StateReviewText
	return nil
}

// SupplyText stores the review; the master's rating is recomputed with it
func (s *ReviewService) SupplyText(ctx context.Context, account *models.Account, session *conversation.Session, text string) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.SupplyText")
	defer span.End()

	if !session.Is(conversation.StateReviewText) {
		return nil, models.ErrUnexpectedInput
	}
	text = strings.TrimSpace(text)
	if err := validate.Var(text, "required,max=2000"); err != nil {
		return nil, fmt.Errorf("%w: review text must be 1-2000 characters", models.ErrInvalidInput)
	}

	masterID, okMaster := session.Int64(conversation.KeyMasterID)
	rating, okRating := session.Int64(conversation.KeyRating)
	if !okMaster || !okRating {
		*session = *conversation.New(conversation.StateIdle)
		return nil, models.ErrUnexpectedInput
	}

	review := &models.Review{
		MasterID: masterID,
		ClientID: account.ID,
		Rating:   int(rating),
		Text:     text,
	}
	if workID, ok := session.Int64(conversation.KeyWorkID); ok {
		review.WorkID = &workID
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	*session = *conversation.New(conversation.StateIdle)
	util.ReviewsTotal.WithLabelValues("created").Inc()

	if master, err := s.store.GetMasterCard(ctx, masterID); err == nil {
		s.notify(ctx, master.ExternalID, fmt.Sprintf("⭐ New review (%d/5) from @%s:\n%s", review.Rating, account.Handle(), review.Text))
	} else {
		s.logger.Error("failed to load master for review notice", zap.Int64("master_id", masterID), zap.Error(err))
	}

	return review, nil
}

// BeginReply lets an admin or the reviewed master answer a review
func (s *ReviewService) BeginReply(ctx context.Context, account *models.Account, session *conversation.Session, reviewID int64) (*models.ReviewCard, error) {
	card, err := s.store.GetReviewCard(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !s.admins.Contains(account.ExternalID) && card.MasterExternalID != account.ExternalID {
		return nil, models.ErrForbidden
	}

	*session = *conversation.New(conversation.StateReviewReply)
	session.SetInt64(conversation.KeyReviewID, reviewID)
	return card, nil
}

// SupplyReply overwrites the reply and tells the other party
func (s *ReviewService) SupplyReply(ctx context.Context, account *models.Account, session *conversation.Session, text string) (*models.ReviewCard, error) {
	if !session.Is(conversation.StateReviewReply) {
		return nil, models.ErrUnexpectedInput
	}
	text = strings.TrimSpace(text)
	if err := validate.Var(text, "required,max=2000"); err != nil {
		return nil, fmt.Errorf("%w: reply must be 1-2000 characters", models.ErrInvalidInput)
	}

	reviewID, ok := session.Int64(conversation.KeyReviewID)
	if !ok {
		*session = *conversation.New(conversation.StateIdle)
		return nil, models.ErrUnexpectedInput
	}

	card, err := s.store.GetReviewCard(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetReviewReply(ctx, reviewID, text); err != nil {
		return nil, err
	}
	card.Reply = &text
	*session = *conversation.New(conversation.StateIdle)
	util.ReviewsTotal.WithLabelValues("replied").Inc()

	if card.MasterExternalID == account.ExternalID {
		s.notify(ctx, card.ClientExternalID, fmt.Sprintf("💬 Master @%s replied to your review:\n%s", account.Handle(), text))
	} else {
		s.notify(ctx, card.MasterExternalID, fmt.Sprintf("💬 The administrator replied to a review about you:\n%s", text))
	}
	return card, nil
}

// Delete removes a review; admin only
func (s *ReviewService) Delete(ctx context.Context, account *models.Account, reviewID int64) error {
	if !s.admins.Contains(account.ExternalID) {
		return models.ErrForbidden
	}

	masterID, err := s.store.DeleteReview(ctx, reviewID)
	if err != nil {
		return err
	}

	util.ReviewsTotal.WithLabelValues("deleted").Inc()
	s.logger.Info("review deleted", zap.Int64("review_id", reviewID), zap.Int64("master_id", masterID))
	return nil
}

func (s *ReviewService) notify(ctx context.Context, chatID int64, text string) {
	if err := s.notifier.SendText(ctx, chatID, text); err != nil {
		util.NotificationsFailedTotal.WithLabelValues("review").Inc()
		s.logger.Error("failed to deliver review notice", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
