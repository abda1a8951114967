package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tattoo-market/internal/conversation"
	"tattoo-market/internal/models"
	"tattoo-market/internal/payment"
	"tattoo-market/internal/util"
)

type accountStore interface {
	UpsertAccount(ctx context.Context, externalID int64, username, fullName string) (*models.Account, error)
	GetAccountByExternalID(ctx context.Context, externalID int64) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	CreateMasterProfile(ctx context.Context, profile *models.MasterProfile) error
	GetMasterCardByAccount(ctx context.Context, accountID int64) (*models.MasterCard, error)
	UpdateMasterCity(ctx context.Context, accountID int64, city string) error
	UpdateMasterBio(ctx context.Context, accountID int64, bio string) error
	UpdateMasterSocials(ctx context.Context, accountID int64, links models.SocialLinks) error
	SetMasterActive(ctx context.Context, accountID int64, active bool) error
	RevokeMaster(ctx context.Context, accountID int64) error
}

type priceSource interface {
	MasterPrice(ctx context.Context) (float64, string, error)
}

// RegistrationStart tells the caller whether a fee must be paid first
type RegistrationStart struct {
	Invoice *payment.Invoice
	Amount  string
}

// UserInfo is an admin view of an account
type UserInfo struct {
	Account *models.Account
	Master  *models.MasterCard
}

// AccountService handles accounts, master registration, profile edits and
// admin actions on masters.
type AccountService struct {
	store    accountStore
	prices   priceSource
	gateway  PaymentGateway
	notifier Notifier
	admins   Admins
	asset    string
	logger   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store accountStore, prices priceSource, gateway PaymentGateway, notifier Notifier, admins Admins, asset string) *AccountService {
	return &AccountService{
		store:    store,
		prices:   prices,
		gateway:  gateway,
		notifier: notifier,
		admins:   admins,
		asset:    asset,
		logger:   util.GetLogger(),
	}
}

// Touch creates the account on first contact and refreshes its names
func (s *AccountService) Touch(ctx context.Context, externalID int64, username, fullName string) (*models.Account, error) {
	return s.store.UpsertAccount(ctx, externalID, username, fullName)
}

// IsAdmin reports whether the account is an admin
func (s *AccountService) IsAdmin(account *models.Account) bool {
	return account != nil && s.admins.Contains(account.ExternalID)
}

// BeginRegistration starts master registration. With a non-zero fee an
// invoice is issued and its id kept in the session until paid.
func (s *AccountService) BeginRegistration(ctx context.Context, account *models.Account, session *conversation.Session) (*RegistrationStart, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.BeginRegistration")
	defer span.End()

	if account.IsMaster() {
		return nil, models.ErrAlreadyMaster
	}

	price, raw, err := s.prices.MasterPrice(ctx)
	if err != nil {
		return nil, err
	}

	if price <= 0 {
		*session = *conversation.New(conversation.StateRegistrationCity)
		return &RegistrationStart{}, nil
	}

	invoice, err := s.gateway.CreateInvoice(ctx, s.asset, raw)
	if err != nil {
		*session = *conversation.New(conversation.StateIdle)
		if errors.Is(err, models.ErrPaymentGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentGatewayUnavailable, err)
	}

	*session = *conversation.New(conversation.StateRegistrationPayment)
	session.SetInt64(conversation.KeyInvoiceID, invoice.ID)
	return &RegistrationStart{Invoice: invoice, Amount: raw}, nil
}

// ConfirmRegistrationPayment polls the registration invoice held in the session.
// Checking an invoice that already moved the dialog past payment, or an account
// that already finished registration, reports PaymentAlreadyProcessed.
func (s *AccountService) ConfirmRegistrationPayment(ctx context.Context, account *models.Account, session *conversation.Session, invoiceID int64) (PaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.ConfirmRegistrationPayment")
	defer span.End()

	if account.IsMaster() {
		return PaymentAlreadyProcessed, nil
	}
	expected, ok := session.Int64(conversation.KeyInvoiceID)
	if !ok || expected != invoiceID {
		return PaymentPending, models.ErrInvoiceMismatch
	}
	if !session.Is(conversation.StateRegistrationPayment) {
		if registrationPaid(session) {
			return PaymentAlreadyProcessed, nil
		}
		return PaymentPending, models.ErrInvoiceMismatch
	}

	status, err := s.gateway.GetInvoiceStatus(ctx, invoiceID)
	if err != nil {
		return PaymentPending, err
	}
	if status != payment.StatusPaid {
		return PaymentPending, nil
	}

	util.PaymentsConfirmedTotal.WithLabelValues("registration").Inc()
	session.State = conversation.StateRegistrationCity
	return PaymentConfirmed, nil
}

func registrationPaid(session *conversation.Session) bool {
	switch session.State {
	case conversation.StateRegistrationCity, conversation.StateRegistrationBio, conversation.StateRegistrationSocials:
		return true
	}
	return false
}

// SupplyCity records the registration city
func (s *AccountService) SupplyCity(session *conversation.Session, text string) error {
	if !session.Is(conversation.StateRegistrationCity) {
		return models.ErrUnexpectedInput
	}
	city, err := cleanCity(text)
	if err != nil {
		return err
	}
	session.Set(conversation.KeyCity, city)
	session.State = conversation.StateRegistrationBio
	return nil
}

// SupplyBio records the registration bio
func (s *AccountService) SupplyBio(session *conversation.Session, text string) error {
	if !session.Is(conversation.StateRegistrationBio) {
		return models.ErrUnexpectedInput
	}
	bio, err := cleanBio(text)
	if err != nil {
		return err
	}
	session.Set(conversation.KeyBio, bio)
	session.State = conversation.StateRegistrationSocials
	return nil
}

// SupplySocials completes registration: the profile is created and the account promoted
func (s *AccountService) SupplySocials(ctx context.Context, account *models.Account, session *conversation.Session, text string) (*models.MasterCard, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.SupplySocials")
	defer span.End()

	if !session.Is(conversation.StateRegistrationSocials) {
		return nil, models.ErrUnexpectedInput
	}
	links, err := parseSocialLinks(text)
	if err != nil {
		return nil, err
	}

	profile := &models.MasterProfile{
		AccountID:   account.ID,
		City:        session.Get(conversation.KeyCity),
		Bio:         session.Get(conversation.KeyBio),
		SocialLinks: links,
	}
	if err := s.store.CreateMasterProfile(ctx, profile); err != nil {
		if errors.Is(err, models.ErrAlreadyMaster) {
			*session = *conversation.New(conversation.StateIdle)
		}
		return nil, err
	}

	*session = *conversation.New(conversation.StateIdle)
	account.Role = models.RoleMaster

	s.logger.Info("master registered", zap.Int64("account_id", account.ID), zap.Int64("master_id", profile.ID))
	return &models.MasterCard{MasterProfile: *profile, Username: account.Username, ExternalID: account.ExternalID}, nil
}

// BeginEdit opens one of the profile edit steps
func (s *AccountService) BeginEdit(ctx context.Context, account *models.Account, session *conversation.Session, state conversation.State) error {
	switch state {
	case conversation.StateEditCity, conversation.StateEditBio, conversation.StateEditSocials:
	default:
		return models.ErrUnexpectedInput
	}
	if !account.IsMaster() {
		return models.ErrNotAMaster
	}
	if _, err := s.store.GetMasterCardByAccount(ctx, account.ID); err != nil {
		if errors.Is(err, models.ErrMasterNotFound) {
			return models.ErrNotAMaster
		}
		return err
	}

	*session = *conversation.New(state)
	return nil
}

// ApplyEdit writes the edited field
func (s *AccountService) ApplyEdit(ctx context.Context, account *models.Account, session *conversation.Session, text string) error {
	var err error
	switch session.State {
	case conversation.StateEditCity:
		var city string
		if city, err = cleanCity(text); err == nil {
			err = s.store.UpdateMasterCity(ctx, account.ID, city)
		}
	case conversation.StateEditBio:
		var bio string
		if bio, err = cleanBio(text); err == nil {
			err = s.store.UpdateMasterBio(ctx, account.ID, bio)
		}
	case conversation.StateEditSocials:
		var links models.SocialLinks
		if links, err = parseSocialLinks(text); err == nil {
			err = s.store.UpdateMasterSocials(ctx, account.ID, links)
		}
	default:
		return models.ErrUnexpectedInput
	}
	if err != nil {
		return err
	}

	*session = *conversation.New(conversation.StateIdle)
	return nil
}

// BeginUserSearch asks the admin for a chat id
func (s *AccountService) BeginUserSearch(account *models.Account, session *conversation.Session) error {
	if !s.IsAdmin(account) {
		return models.ErrForbidden
	}
	*session = *conversation.New(conversation.StateAdminUserSearch)
	return nil
}

// LookupUser finds an account by chat id for an admin
func (s *AccountService) LookupUser(ctx context.Context, admin *models.Account, session *conversation.Session, raw string) (*UserInfo, error) {
	if !s.IsAdmin(admin) {
		return nil, models.ErrForbidden
	}
	externalID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: enter a numeric user id", models.ErrInvalidInput)
	}

	*session = *conversation.New(conversation.StateIdle)

	account, err := s.store.GetAccountByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.userInfo(ctx, account)
}

// User returns the admin view of an account by internal id
func (s *AccountService) User(ctx context.Context, admin *models.Account, accountID int64) (*UserInfo, error) {
	if !s.IsAdmin(admin) {
		return nil, models.ErrForbidden
	}
	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.userInfo(ctx, account)
}

func (s *AccountService) userInfo(ctx context.Context, account *models.Account) (*UserInfo, error) {
	info := &UserInfo{Account: account}
	master, err := s.store.GetMasterCardByAccount(ctx, account.ID)
	switch {
	case err == nil:
		info.Master = master
	case !errors.Is(err, models.ErrMasterNotFound):
		return nil, err
	}
	return info, nil
}

// BlockMaster hides a master from listings and stops new submissions
func (s *AccountService) BlockMaster(ctx context.Context, admin *models.Account, accountID int64) (*UserInfo, error) {
	return s.adminAction(ctx, admin, accountID, "🚫 Your master profile has been blocked by the administrator.", func() error {
		return s.store.SetMasterActive(ctx, accountID, false)
	})
}

// UnblockMaster restores a blocked master
func (s *AccountService) UnblockMaster(ctx context.Context, admin *models.Account, accountID int64) (*UserInfo, error) {
	return s.adminAction(ctx, admin, accountID, "✅ Your master profile has been unblocked.", func() error {
		return s.store.SetMasterActive(ctx, accountID, true)
	})
}

// RevokeMaster deletes the master profile with all works and demotes the account
func (s *AccountService) RevokeMaster(ctx context.Context, admin *models.Account, accountID int64) (*UserInfo, error) {
	return s.adminAction(ctx, admin, accountID, "⚠️ Your master status has been revoked by the administrator.", func() error {
		return s.store.RevokeMaster(ctx, accountID)
	})
}

func (s *AccountService) adminAction(ctx context.Context, admin *models.Account, accountID int64, notice string, apply func() error) (*UserInfo, error) {
	if !s.IsAdmin(admin) {
		return nil, models.ErrForbidden
	}

	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := apply(); err != nil {
		return nil, err
	}

	s.logger.Info("admin action on master", zap.Int64("account_id", accountID), zap.Int64("admin_id", admin.ExternalID))

	if err := s.notifier.SendText(ctx, account.ExternalID, notice); err != nil {
		util.NotificationsFailedTotal.WithLabelValues("admin_action").Inc()
		s.logger.Error("failed to notify user of admin action", zap.Int64("account_id", accountID), zap.Error(err))
	}

	account, err = s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.userInfo(ctx, account)
}

func cleanCity(text string) (string, error) {
	city := strings.TrimSpace(text)
	if err := validate.Var(city, "required,max=100"); err != nil {
		return "", fmt.Errorf("%w: city must be 1-100 characters", models.ErrInvalidInput)
	}
	return city, nil
}

func cleanBio(text string) (string, error) {
	bio := strings.TrimSpace(text)
	if err := validate.Var(bio, "required,max=1000"); err != nil {
		return "", fmt.Errorf("%w: description must be 1-1000 characters", models.ErrInvalidInput)
	}
	return bio, nil
}

// parseSocialLinks accepts one or more whitespace-separated links
func parseSocialLinks(text string) (models.SocialLinks, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: send at least one link", models.ErrInvalidInput)
	}

	links := make(models.SocialLinks, 0, len(fields))
	for _, f := range fields {
		if err := validate.Var(f, "max=256"); err != nil {
			return nil, fmt.Errorf("%w: link is too long", models.ErrInvalidInput)
		}
		links = append(links, models.SocialLink{Name: "link", URL: f})
	}
	return links, nil
}
