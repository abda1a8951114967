package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tattoo-market/internal/conversation"
	"tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
	"tattoo-market/internal/util"
)

// CommentsPerPage is the page size of the comment listing
const CommentsPerPage = 5

type socialStore interface {
	ToggleLike(ctx context.Context, accountID, workID int64) (bool, int, error)
	GetWorkCard(ctx context.Context, id int64) (*models.WorkCard, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, workID int64, limit, offset int) ([]models.CommentView, error)
	CountComments(ctx context.Context, workID int64) (int, error)
}

// CommentPage is one page of comments, newest first
type CommentPage struct {
	WorkID   int64
	Comments []models.CommentView
	Page     pagination.Page
}

// SocialService handles likes and comments
type SocialService struct {
	store    socialStore
	notifier Notifier
	logger   *zap.Logger
}

// NewSocialService creates a new social service
func NewSocialService(store socialStore, notifier Notifier) *SocialService {
	return &SocialService{store: store, notifier: notifier, logger: util.GetLogger()}
}

// ToggleLike flips the viewer's like and returns the new state and counter
func (s *SocialService) ToggleLike(ctx context.Context, account *models.Account, workID int64) (bool, int, error) {
	ctx, span := util.StartSpan(ctx, "SocialService.ToggleLike")
	defer span.End()

	liked, count, err := s.store.ToggleLike(ctx, account.ID, workID)
	if err != nil {
		return false, 0, err
	}

	action := "unlike"
	if liked {
		action = "like"
	}
	util.LikesToggledTotal.WithLabelValues(action).Inc()
	return liked, count, nil
}

// Comments returns a page of comments on a work
func (s *SocialService) Comments(ctx context.Context, workID int64, page int) (*CommentPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.store.CountComments(ctx, workID)
	if err != nil {
		return nil, err
	}

	p := pagination.Page{Number: page, Size: CommentsPerPage, Total: total}
	if pages := p.Pages(); pages > 0 && page > pages {
		p.Number = pages
	}

	comments, err := s.store.ListComments(ctx, workID, p.Size, p.Offset())
	if err != nil {
		return nil, err
	}
	return &CommentPage{WorkID: workID, Comments: comments, Page: p}, nil
}

// BeginComment starts a comment on a work
func (s *SocialService) BeginComment(ctx context.Context, session *conversation.Session, workID int64) error {
	if _, err := s.store.GetWorkCard(ctx, workID); err != nil {
		return err
	}

	*session = *conversation.New(conversation.StateComment)
	session.SetInt64(conversation.KeyWorkID, workID)
	return nil
}

// SupplyComment stores the comment and tells the work's master
func (s *SocialService) SupplyComment(ctx context.Context, account *models.Account, session *conversation.Session, text string) (*models.Comment, error) {
	if !session.Is(conversation.StateComment) {
		return nil, models.ErrUnexpectedInput
	}
	text = strings.TrimSpace(text)
	if err := validate.Var(text, "required,max=1000"); err != nil {
		return nil, fmt.Errorf("%w: comment must be 1-1000 characters", models.ErrInvalidInput)
	}

	workID, ok := session.Int64(conversation.KeyWorkID)
	if !ok {
		*session = *conversation.New(conversation.StateIdle)
		return nil, models.ErrUnexpectedInput
	}

	comment := &models.Comment{WorkID: workID, AccountID: account.ID, Text: text}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	*session = *conversation.New(conversation.StateIdle)

	card, err := s.store.GetWorkCard(ctx, workID)
	if err != nil {
		s.logger.Error("failed to load work for comment notice", zap.Int64("work_id", workID), zap.Error(err))
		return comment, nil
	}
	if card.MasterExternalID != account.ExternalID {
		msg := fmt.Sprintf("💬 New comment on your work #%d from @%s:\n%s", workID, account.Handle(), text)
		if err := s.notifier.SendText(ctx, card.MasterExternalID, msg); err != nil {
			util.NotificationsFailedTotal.WithLabelValues("comment").Inc()
			s.logger.Error("failed to deliver comment notice", zap.Int64("work_id", workID), zap.Error(err))
		}
	}
	return comment, nil
}
