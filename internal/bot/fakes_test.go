package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tattoo-market/internal/conversation"
	domain "tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []*tgbot.SendMessageParams
	photos   []*tgbot.SendPhotoParams
	edits    []*tgbot.EditMessageTextParams
	media    []*tgbot.EditMessageMediaParams
	markups  []*tgbot.EditMessageReplyMarkupParams
	answers  []*tgbot.AnswerCallbackQueryParams
	editErr  error
	sendErr  error
}

func (f *fakeSender) SendMessage(_ context.Context, p *tgbot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.messages = append(f.messages, p)
	return &models.Message{ID: len(f.messages)}, nil
}

func (f *fakeSender) SendPhoto(_ context.Context, p *tgbot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.photos = append(f.photos, p)
	return &models.Message{ID: len(f.photos)}, nil
}

func (f *fakeSender) EditMessageText(_ context.Context, p *tgbot.EditMessageTextParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edits = append(f.edits, p)
	return &models.Message{}, nil
}

func (f *fakeSender) EditMessageMedia(_ context.Context, p *tgbot.EditMessageMediaParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.media = append(f.media, p)
	return &models.Message{}, nil
}

func (f *fakeSender) EditMessageReplyMarkup(_ context.Context, p *tgbot.EditMessageReplyMarkupParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markups = append(f.markups, p)
	return &models.Message{}, nil
}

func (f *fakeSender) AnswerCallbackQuery(_ context.Context, p *tgbot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, p)
	return true, nil
}

func (f *fakeSender) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1].Text
}

// memSessions is an in-memory conversation.Store
type memSessions struct {
	mu   sync.Mutex
	data map[int64]conversation.Session
}

func newMemSessions() *memSessions {
	return &memSessions{data: map[int64]conversation.Session{}}
}

func (m *memSessions) Load(_ context.Context, accountID int64) (*conversation.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[accountID]
	if !ok {
		return conversation.New(conversation.StateIdle), nil
	}
	copied := conversation.New(s.State)
	for k, v := range s.Data {
		copied.Set(k, v)
	}
	return copied, nil
}

func (m *memSessions) Save(_ context.Context, accountID int64, session *conversation.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[accountID] = *session
	return nil
}

func (m *memSessions) Clear(_ context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, accountID)
	return nil
}

func (m *memSessions) state(accountID int64) conversation.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[accountID].State
}

// accountsOnly backs the account service for router tests that never reach a
// master operation
type accountsOnly struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*domain.Account
}

func newAccountsOnly() *accountsOnly {
	return &accountsOnly{accounts: map[int64]*domain.Account{}}
}

var errNotImplemented = errors.New("not implemented in test store")

func (a *accountsOnly) UpsertAccount(_ context.Context, externalID int64, username, fullName string) (*domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[externalID]
	if !ok {
		a.nextID++
		acc = &domain.Account{ID: a.nextID, ExternalID: externalID, Role: domain.RoleClient, CreatedAt: time.Now()}
		a.accounts[externalID] = acc
	}
	acc.Username = username
	acc.FullName = fullName
	copied := *acc
	return &copied, nil
}

func (a *accountsOnly) GetAccountByExternalID(_ context.Context, externalID int64) (*domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[externalID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *acc
	return &copied, nil
}

func (a *accountsOnly) GetAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.accounts {
		if acc.ID == id {
			copied := *acc
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (a *accountsOnly) CreateMasterProfile(context.Context, *domain.MasterProfile) error {
	return errNotImplemented
}

func (a *accountsOnly) GetMasterCardByAccount(context.Context, int64) (*domain.MasterCard, error) {
	return nil, domain.ErrMasterNotFound
}

func (a *accountsOnly) UpdateMasterCity(context.Context, int64, string) error {
	return errNotImplemented
}

func (a *accountsOnly) UpdateMasterBio(context.Context, int64, string) error {
	return errNotImplemented
}

func (a *accountsOnly) UpdateMasterSocials(context.Context, int64, domain.SocialLinks) error {
	return errNotImplemented
}

func (a *accountsOnly) SetMasterActive(context.Context, int64, bool) error {
	return errNotImplemented
}

func (a *accountsOnly) RevokeMaster(context.Context, int64) error {
	return errNotImplemented
}

// mastersOnly backs the catalog service for master listing tests
type mastersOnly struct {
	masters []domain.MasterCard
}

func (m *mastersOnly) MasterPage(_ context.Context, page int, city string) (*domain.MasterCard, int, error) {
	var matched []domain.MasterCard
	for _, card := range m.masters {
		if city == "" || strings.EqualFold(card.City, city) {
			matched = append(matched, card)
		}
	}
	if page < 1 || page > len(matched) {
		return nil, len(matched), nil
	}
	card := matched[page-1]
	return &card, len(matched), nil
}

func (m *mastersOnly) StepPublishedWork(context.Context, pagination.Direction, int64, int64) (*domain.WorkCard, error) {
	return nil, errNotImplemented
}

func (m *mastersOnly) StepMasterWork(context.Context, int64, pagination.Direction, int64) (*domain.WorkCard, error) {
	return nil, errNotImplemented
}

func (m *mastersOnly) StepInvoicedWork(context.Context, pagination.Direction, int64) (*domain.WorkCard, error) {
	return nil, errNotImplemented
}

func (m *mastersOnly) StepReview(context.Context, pagination.Direction, int64) (*domain.ReviewCard, error) {
	return nil, errNotImplemented
}

func (m *mastersOnly) StepMasterReview(context.Context, int64, pagination.Direction, int64) (*domain.ReviewCard, error) {
	return nil, errNotImplemented
}

func (m *mastersOnly) GetMasterCard(context.Context, int64) (*domain.MasterCard, error) {
	return nil, domain.ErrMasterNotFound
}

func (m *mastersOnly) GetMasterCardByAccount(context.Context, int64) (*domain.MasterCard, error) {
	return nil, domain.ErrMasterNotFound
}

func (m *mastersOnly) GetWorkCard(context.Context, int64) (*domain.WorkCard, error) {
	return nil, errNotImplemented
}

func (m *mastersOnly) IsLiked(context.Context, int64, int64) (bool, error) {
	return false, nil
}

func (m *mastersOnly) ListCategories(context.Context) ([]domain.Category, error) {
	return nil, nil
}
