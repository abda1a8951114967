package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
	"tattoo-market/internal/payment"
)

// memStore is an in-memory entity store satisfying every service store interface
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	accounts   map[int64]*models.Account
	masters    map[int64]*models.MasterProfile
	categories map[int64]*models.Category
	works      map[int64]*models.Work
	reviews    map[int64]*models.Review
	likes      map[[2]int64]bool
	comments   []models.Comment
	settings   map[string]string
	transits   int
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   map[int64]*models.Account{},
		masters:    map[int64]*models.MasterProfile{},
		categories: map[int64]*models.Category{},
		works:      map[int64]*models.Work{},
		reviews:    map[int64]*models.Review{},
		likes:      map[[2]int64]bool{},
		settings:   map[string]string{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addAccount(externalID int64, username string) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &models.Account{ID: m.id(), ExternalID: externalID, Username: username, Role: models.RoleClient}
	m.accounts[a.ID] = a
	return a
}

func (m *memStore) addMaster(account *models.Account) *models.MasterProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.MasterProfile{ID: m.id(), AccountID: account.ID, City: "Berlin", IsActive: true}
	m.masters[p.ID] = p
	account.Role = models.RoleMaster
	m.accounts[account.ID].Role = models.RoleMaster
	return p
}

func (m *memStore) addWork(masterID int64, status models.WorkStatus) *models.Work {
	m.mu.Lock()
	defer m.mu.Unlock()
	invoice := m.id()
	w := &models.Work{ID: m.id(), MasterID: masterID, Status: status, InvoiceID: &invoice}
	m.works[w.ID] = w
	return w
}

func (m *memStore) UpsertAccount(_ context.Context, externalID int64, username, fullName string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ExternalID == externalID {
			a.Username, a.FullName = username, fullName
			cp := *a
			return &cp, nil
		}
	}
	a := &models.Account{ID: m.id(), ExternalID: externalID, Username: username, FullName: fullName, Role: models.RoleClient}
	m.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *memStore) GetAccountByExternalID(_ context.Context, externalID int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ExternalID == externalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (m *memStore) GetAccountByID(_ context.Context, id int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListAccountExternalIDs(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.accounts))
	for _, a := range m.accounts {
		ids = append(ids, a.ExternalID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memStore) CreateMasterProfile(_ context.Context, profile *models.MasterProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.masters {
		if p.AccountID == profile.AccountID {
			return models.ErrAlreadyMaster
		}
	}
	profile.ID = m.id()
	profile.IsActive = true
	cp := *profile
	m.masters[profile.ID] = &cp
	m.accounts[profile.AccountID].Role = models.RoleMaster
	return nil
}

func (m *memStore) card(p *models.MasterProfile) *models.MasterCard {
	a := m.accounts[p.AccountID]
	return &models.MasterCard{MasterProfile: *p, Username: a.Username, ExternalID: a.ExternalID}
}

func (m *memStore) GetMasterCard(_ context.Context, id int64) (*models.MasterCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.masters[id]
	if !ok {
		return nil, models.ErrMasterNotFound
	}
	return m.card(p), nil
}

func (m *memStore) masterByAccount(accountID int64) *models.MasterProfile {
	for _, p := range m.masters {
		if p.AccountID == accountID {
			return p
		}
	}
	return nil
}

func (m *memStore) GetMasterCardByAccount(_ context.Context, accountID int64) (*models.MasterCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.masterByAccount(accountID)
	if p == nil {
		return nil, models.ErrMasterNotFound
	}
	return m.card(p), nil
}

func (m *memStore) updateMaster(accountID int64, fn func(p *models.MasterProfile)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.masterByAccount(accountID)
	if p == nil {
		return models.ErrMasterNotFound
	}
	fn(p)
	return nil
}

func (m *memStore) UpdateMasterCity(_ context.Context, accountID int64, city string) error {
	return m.updateMaster(accountID, func(p *models.MasterProfile) { p.City = city })
}

func (m *memStore) UpdateMasterBio(_ context.Context, accountID int64, bio string) error {
	return m.updateMaster(accountID, func(p *models.MasterProfile) { p.Bio = bio })
}

func (m *memStore) UpdateMasterSocials(_ context.Context, accountID int64, links models.SocialLinks) error {
	return m.updateMaster(accountID, func(p *models.MasterProfile) { p.SocialLinks = links })
}

func (m *memStore) SetMasterActive(_ context.Context, accountID int64, active bool) error {
	return m.updateMaster(accountID, func(p *models.MasterProfile) { p.IsActive = active })
}

func (m *memStore) RevokeMaster(_ context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.masterByAccount(accountID)
	if p == nil {
		return models.ErrMasterNotFound
	}
	for id, w := range m.works {
		if w.MasterID == p.ID {
			delete(m.works, id)
		}
	}
	delete(m.masters, p.ID)
	m.accounts[accountID].Role = models.RoleClient
	return nil
}

func (m *memStore) ListCategories(context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) CountCategories(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories), nil
}

func (m *memStore) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, models.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) CreateCategory(_ context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			return nil, models.ErrCategoryExists
		}
	}
	c := &models.Category{ID: m.id(), Name: name}
	m.categories[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *memStore) DeleteCategory(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return models.ErrCategoryNotFound
	}
	for _, w := range m.works {
		if w.CategoryID == id {
			return models.ErrCategoryInUse
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) CreateWork(_ context.Context, work *models.Work) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work.ID = m.id()
	work.Status = models.WorkStatusPendingPayment
	work.CreatedAt = time.Now()
	cp := *work
	m.works[work.ID] = &cp
	return nil
}

func (m *memStore) GetWork(_ context.Context, id int64) (*models.Work, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.works[id]
	if !ok {
		return nil, models.ErrWorkNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memStore) workCard(w *models.Work) *models.WorkCard {
	card := &models.WorkCard{Work: *w}
	if p, ok := m.masters[w.MasterID]; ok {
		a := m.accounts[p.AccountID]
		card.MasterUsername, card.MasterExternalID = a.Username, a.ExternalID
	}
	if c, ok := m.categories[w.CategoryID]; ok {
		card.CategoryName = c.Name
	}
	for _, c := range m.comments {
		if c.WorkID == w.ID {
			card.CommentCount++
		}
	}
	return card
}

func (m *memStore) GetWorkCard(_ context.Context, id int64) (*models.WorkCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.works[id]
	if !ok {
		return nil, models.ErrWorkNotFound
	}
	return m.workCard(w), nil
}

func (m *memStore) TransitionWorkStatus(_ context.Context, id int64, from, to models.WorkStatus) (*models.Work, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !from.CanTransitionTo(to) {
		return nil, models.ErrInvalidTransition
	}
	w, ok := m.works[id]
	if !ok {
		return nil, models.ErrWorkNotFound
	}
	if w.Status != from {
		return nil, models.ErrInvalidTransition
	}
	w.Status = to
	m.transits++
	cp := *w
	return &cp, nil
}

func (m *memStore) workIDs(filter func(w *models.Work) bool) []int64 {
	var ids []int64
	for _, w := range m.works {
		if filter(w) {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

func (m *memStore) stepWork(order pagination.Order, dir pagination.Direction, anchor int64, filter func(w *models.Work) bool) *models.WorkCard {
	id, ok := keysetStep(m.workIDs(filter), order, dir, anchor)
	if !ok {
		return nil
	}
	return m.workCard(m.works[id])
}

func (m *memStore) StepPublishedWork(_ context.Context, dir pagination.Direction, anchor, categoryID int64) (*models.WorkCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepWork(pagination.Ascending, dir, anchor, func(w *models.Work) bool {
		return w.Status == models.WorkStatusPublished && (categoryID == 0 || w.CategoryID == categoryID)
	}), nil
}

func (m *memStore) StepMasterWork(_ context.Context, masterID int64, dir pagination.Direction, anchor int64) (*models.WorkCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepWork(pagination.Ascending, dir, anchor, func(w *models.Work) bool { return w.MasterID == masterID }), nil
}

func (m *memStore) StepInvoicedWork(_ context.Context, dir pagination.Direction, anchor int64) (*models.WorkCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepWork(pagination.Descending, dir, anchor, func(w *models.Work) bool { return w.Status.Invoiced() }), nil
}

func (m *memStore) stepReview(dir pagination.Direction, anchor int64, filter func(r *models.Review) bool) *models.ReviewCard {
	var ids []int64
	for _, r := range m.reviews {
		if filter(r) {
			ids = append(ids, r.ID)
		}
	}
	id, ok := keysetStep(ids, pagination.Descending, dir, anchor)
	if !ok {
		return nil
	}
	return m.reviewCard(m.reviews[id])
}

func (m *memStore) StepReview(_ context.Context, dir pagination.Direction, anchor int64) (*models.ReviewCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepReview(dir, anchor, func(*models.Review) bool { return true }), nil
}

func (m *memStore) StepMasterReview(_ context.Context, masterID int64, dir pagination.Direction, anchor int64) (*models.ReviewCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepReview(dir, anchor, func(r *models.Review) bool { return r.MasterID == masterID }), nil
}

func (m *memStore) MasterPage(_ context.Context, page int, city string) (*models.MasterCard, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.MasterProfile
	for _, p := range m.masters {
		if p.IsActive && (city == "" || strings.EqualFold(p.City, city)) {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Rating != list[j].Rating {
			return list[i].Rating > list[j].Rating
		}
		return list[i].ID < list[j].ID
	})
	if page < 1 || page > len(list) {
		return nil, len(list), nil
	}
	return m.card(list[page-1]), len(list), nil
}

func (m *memStore) recompute(masterID int64) {
	var sum, n int
	for _, r := range m.reviews {
		if r.MasterID == masterID {
			sum += r.Rating
			n++
		}
	}
	if p, ok := m.masters[masterID]; ok {
		p.Rating = 0
		if n > 0 {
			p.Rating = float64(sum) / float64(n)
		}
	}
}

func (m *memStore) CreateReview(_ context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.masters[review.MasterID]; !ok {
		return models.ErrMasterNotFound
	}
	review.ID = m.id()
	cp := *review
	m.reviews[review.ID] = &cp
	m.recompute(review.MasterID)
	return nil
}

func (m *memStore) DeleteReview(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return 0, models.ErrReviewNotFound
	}
	delete(m.reviews, id)
	m.recompute(r.MasterID)
	return r.MasterID, nil
}

func (m *memStore) reviewCard(r *models.Review) *models.ReviewCard {
	card := &models.ReviewCard{Review: *r}
	if a, ok := m.accounts[r.ClientID]; ok {
		card.ClientUsername, card.ClientExternalID = a.Username, a.ExternalID
	}
	if p, ok := m.masters[r.MasterID]; ok {
		a := m.accounts[p.AccountID]
		card.MasterUsername, card.MasterExternalID = a.Username, a.ExternalID
	}
	return card
}

func (m *memStore) GetReviewCard(_ context.Context, id int64) (*models.ReviewCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, models.ErrReviewNotFound
	}
	return m.reviewCard(r), nil
}

func (m *memStore) SetReviewReply(_ context.Context, id int64, reply string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return models.ErrReviewNotFound
	}
	r.Reply = &reply
	return nil
}

func (m *memStore) ToggleLike(_ context.Context, accountID, workID int64) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.works[workID]
	if !ok {
		return false, 0, models.ErrWorkNotFound
	}
	key := [2]int64{accountID, workID}
	if m.likes[key] {
		delete(m.likes, key)
		w.LikesCount--
		return false, w.LikesCount, nil
	}
	m.likes[key] = true
	w.LikesCount++
	return true, w.LikesCount, nil
}

func (m *memStore) IsLiked(_ context.Context, accountID, workID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.likes[[2]int64{accountID, workID}], nil
}

func (m *memStore) likeRows(workID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key := range m.likes {
		if key[1] == workID {
			n++
		}
	}
	return n
}

func (m *memStore) CreateComment(_ context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.works[comment.WorkID]; !ok {
		return models.ErrWorkNotFound
	}
	comment.ID = m.id()
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *memStore) ListComments(_ context.Context, workID int64, limit, offset int) ([]models.CommentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CommentView
	for i := len(m.comments) - 1; i >= 0; i-- {
		if m.comments[i].WorkID == workID {
			out = append(out, models.CommentView{Comment: m.comments[i]})
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CountComments(_ context.Context, workID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.comments {
		if c.WorkID == workID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetSetting(_ context.Context, key, def string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.settings[key]; ok {
		return v, nil
	}
	return def, nil
}

func (m *memStore) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

type sentMessage struct {
	ChatID int64
	Text   string
	WorkID int64
}

type fakeNotifier struct {
	mu      sync.Mutex
	texts   []sentMessage
	photos  []sentMessage
	prompts []sentMessage
	failFor map[int64]bool
}

func (n *fakeNotifier) fail(chatID int64) error {
	if n.failFor[chatID] {
		return errors.New("chat unreachable")
	}
	return nil
}

func (n *fakeNotifier) SendText(_ context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail(chatID); err != nil {
		return err
	}
	n.texts = append(n.texts, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (n *fakeNotifier) SendPhoto(_ context.Context, chatID int64, _, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail(chatID); err != nil {
		return err
	}
	n.photos = append(n.photos, sentMessage{ChatID: chatID, Text: caption})
	return nil
}

func (n *fakeNotifier) SendModerationPrompt(_ context.Context, chatID int64, card *models.WorkCard) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail(chatID); err != nil {
		return err
	}
	n.prompts = append(n.prompts, sentMessage{ChatID: chatID, WorkID: card.ID})
	return nil
}

func (n *fakeNotifier) textsTo(chatID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.texts {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeGateway struct {
	mu        sync.Mutex
	nextID    int64
	status    map[int64]payment.InvoiceStatus
	createErr error
	statusErr error
	created   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{nextID: 1000, status: map[int64]payment.InvoiceStatus{}}
}

func (g *fakeGateway) CreateInvoice(_ context.Context, _, _ string) (*payment.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	g.created++
	g.status[g.nextID] = payment.StatusUnpaid
	return &payment.Invoice{ID: g.nextID, PayURL: "https://pay.example/invoice"}, nil
}

func (g *fakeGateway) GetInvoiceStatus(_ context.Context, invoiceID int64) (payment.InvoiceStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return "", g.statusErr
	}
	if s, ok := g.status[invoiceID]; ok {
		return s, nil
	}
	return payment.StatusOther, nil
}

func (g *fakeGateway) markPaid(invoiceID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status[invoiceID] = payment.StatusPaid
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	submitted []*models.WorkSubmittedEvent
	moderated []*models.WorkModeratedEvent
	mailings  []*models.MailingRequestedEvent
	err       error
}

func (p *fakePublisher) PublishWorkSubmitted(_ context.Context, event *models.WorkSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, event)
	return p.err
}

func (p *fakePublisher) PublishWorkModerated(_ context.Context, event *models.WorkModeratedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moderated = append(p.moderated, event)
	return p.err
}

func (p *fakePublisher) PublishMailingRequested(_ context.Context, event *models.MailingRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.mailings = append(p.mailings, event)
	return nil
}

// keysetStep applies a keyset bound to an in-memory id set
func keysetStep(ids []int64, order pagination.Order, dir pagination.Direction, anchor int64) (id int64, ok bool) {
	b := pagination.BoundFor(order, dir)
	for _, candidate := range ids {
		switch {
		case b.Comparator == ">" && candidate <= anchor:
			continue
		case b.Comparator == "<" && candidate >= anchor:
			continue
		}
		if !ok || (b.Sort == "ASC" && candidate < id) || (b.Sort == "DESC" && candidate > id) {
			id, ok = candidate, true
		}
	}
	return id, ok
}
