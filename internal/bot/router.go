package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"tattoo-market/internal/callback"
	"tattoo-market/internal/conversation"
	domain "tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
	"tattoo-market/internal/service"
	"tattoo-market/internal/util"
)

// Services groups the use cases the router drives
type Services struct {
	Accounts   *service.AccountService
	Submission *service.SubmissionService
	Moderation *service.ModerationService
	Catalog    *service.CatalogService
	Reviews    *service.ReviewService
	Social     *service.SocialService
	Categories *service.CategoryService
	Settings   *service.SettingsService
	Mailing    *service.MailingService
}

// Router turns updates into service calls. It loads the sender's session
// before handling and saves it afterwards; services only mutate it.
type Router struct {
	svc      Services
	sessions conversation.Store
	gw       *Gateway
	admins   service.Admins
	logger   *zap.Logger
}

// NewRouter creates a new update router
func NewRouter(svc Services, sessions conversation.Store, gw *Gateway, admins service.Admins) *Router {
	return &Router{
		svc:      svc,
		sessions: sessions,
		gw:       gw,
		admins:   admins,
		logger:   util.GetLogger(),
	}
}

type request struct {
	account    *domain.Account
	session    *conversation.Session
	chatID     int64
	messageID  int
	callbackID string
	answered   bool
}

// Handle processes one update
func (r *Router) Handle(ctx context.Context, update *models.Update) {
	switch {
	case update.Message != nil:
		r.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	}
}

func (r *Router) begin(ctx context.Context, user models.User, chatID int64) (*request, error) {
	ctx, span := util.StartSpan(ctx, "Router.begin")
	defer span.End()

	fullName := strings.TrimSpace(user.FirstName + " " + user.LastName)
	account, err := r.svc.Accounts.Touch(ctx, user.ID, user.Username, fullName)
	if err != nil {
		return nil, fmt.Errorf("failed to touch account: %w", err)
	}

	session, err := r.sessions.Load(ctx, user.ID)
	if err != nil {
		r.logger.Warn("failed to load session, starting idle", zap.Int64("chat_id", user.ID), zap.Error(err))
		session = conversation.New(conversation.StateIdle)
	}

	return &request{account: account, session: session, chatID: chatID}, nil
}

func (r *Router) finish(ctx context.Context, req *request) {
	if req.callbackID != "" && !req.answered {
		r.gw.answer(ctx, req.callbackID, "", false)
	}
	if err := r.sessions.Save(ctx, req.account.ExternalID, req.session); err != nil {
		r.logger.Error("failed to save session", zap.Int64("chat_id", req.account.ExternalID), zap.Error(err))
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *models.Message) {
	if msg.From == nil {
		return
	}

	req, err := r.begin(ctx, *msg.From, msg.Chat.ID)
	if err != nil {
		r.logger.Error("failed to start request", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		_ = r.gw.send(ctx, msg.Chat.ID, textFailure, "", nil)
		return
	}
	defer r.finish(ctx, req)

	text := strings.TrimSpace(msg.Text)
	var photo string
	if n := len(msg.Photo); n > 0 {
		photo = msg.Photo[n-1].FileID
		if text == "" {
			text = strings.TrimSpace(msg.Caption)
		}
	}

	if strings.HasPrefix(text, "/") {
		r.command(ctx, req, text)
		return
	}
	if action, ok := replyActions[text]; ok {
		*req.session = *conversation.New(conversation.StateIdle)
		r.menu(ctx, req, action)
		return
	}
	r.input(ctx, req, text, photo)
}

func (r *Router) command(ctx context.Context, req *request, text string) {
	name, arg, _ := strings.Cut(text, " ")
	name = strings.ToLower(name)
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}

	*req.session = *conversation.New(conversation.StateIdle)

	switch name {
	case "/start":
		r.reply(ctx, req, textWelcome, mainKeyboard(req.account, r.isAdmin(req)))
	case "/cancel":
		r.reply(ctx, req, textCancelled, mainKeyboard(req.account, r.isAdmin(req)))
	case "/faq":
		r.reply(ctx, req, textFAQ, nil)
	case "/contacts":
		r.reply(ctx, req, textContacts, nil)
	case "/admin":
		r.menu(ctx, req, callback.MenuAdminMain)
	case "/setprice":
		r.setPrice(ctx, req, strings.TrimSpace(arg))
	default:
		r.reply(ctx, req, textUnknown, mainKeyboard(req.account, r.isAdmin(req)))
	}
}

func (r *Router) setPrice(ctx context.Context, req *request, arg string) {
	if !r.isAdmin(req) {
		r.fail(ctx, req, domain.ErrForbidden)
		return
	}
	asset, _ := r.svc.Submission.PlacementFee()

	if arg == "" {
		_, raw, err := r.svc.Settings.MasterPrice(ctx)
		if err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, fmt.Sprintf("Master registration price: <b>%s %s</b>\nUsage: <code>/setprice 5</code>", raw, asset), nil)
		return
	}

	value, err := r.svc.Settings.SetMasterPrice(ctx, req.account, arg)
	if err != nil {
		r.fail(ctx, req, err)
		return
	}
	r.reply(ctx, req, fmt.Sprintf("✅ Master registration price set to <b>%s %s</b>.", value, asset), nil)
}

func (r *Router) menu(ctx context.Context, req *request, action string) {
	switch action {
	case callback.MenuWorks:
		r.reply(ctx, req, "🖼 <b>Works</b>", worksMenuKeyboard())
	case callback.MenuWorksAll:
		r.showWork(ctx, req, callback.ListingWorks, pagination.First, 0, 0)
	case callback.MenuWorksByStyle:
		categories, err := r.svc.Catalog.Categories(ctx)
		if err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, "🎨 Choose a style", filterKeyboard(categories))
	case callback.MenuMasters:
		r.reply(ctx, req, "👤 <b>Masters</b>", mastersMenuKeyboard())
	case callback.MenuMastersAll:
		r.showMasters(ctx, req, 1, "", false)
	case callback.MenuMastersByCity:
		*req.session = *conversation.New(conversation.StateMasterCity)
		r.reply(ctx, req, "📍 Send the city name", nil)
	case callback.MenuBecomeMaster:
		r.beginRegistration(ctx, req)
	case callback.MenuAddWork:
		if err := r.svc.Submission.BeginSubmission(ctx, req.account, req.session); err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, "📸 Send a photo of your work", nil)
	case callback.MenuOwnWorks:
		r.showWork(ctx, req, callback.ListingOwnWorks, pagination.First, 0, 0)
	case callback.MenuProfile:
		card, err := r.svc.Catalog.OwnProfile(ctx, req.account)
		if err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, renderMaster(card), profileKeyboard())
	case callback.MenuProfileEdit:
		r.reply(ctx, req, "✏️ What do you want to change?", profileEditKeyboard())
	case callback.MenuEditCity:
		r.beginEdit(ctx, req, conversation.StateEditCity, "📍 Send your new city")
	case callback.MenuEditBio:
		r.beginEdit(ctx, req, conversation.StateEditBio, "📝 Send a new description about yourself")
	case callback.MenuEditSocials:
		r.beginEdit(ctx, req, conversation.StateEditSocials, "🔗 Send your links separated by spaces")
	case callback.MenuMasterReviews:
		r.showReview(ctx, req, callback.ListingMasterReviews, pagination.First, 0)
	case callback.MenuFAQ:
		r.reply(ctx, req, textFAQ, nil)
	case callback.MenuContacts:
		r.reply(ctx, req, textContacts, nil)
	default:
		r.adminMenu(ctx, req, action)
	}
}

func (r *Router) adminMenu(ctx context.Context, req *request, action string) {
	var err error
	switch action {
	case callback.MenuAdminMain:
		if !r.isAdmin(req) {
			err = domain.ErrForbidden
			break
		}
		r.reply(ctx, req, "🛠 <b>Admin panel</b>", adminKeyboard())
	case callback.MenuAdminUsers:
		if err = r.svc.Accounts.BeginUserSearch(req.account, req.session); err == nil {
			r.reply(ctx, req, "🔎 Send the user's Telegram id", nil)
		}
	case callback.MenuAdminCategories:
		r.showAdminCategories(ctx, req, false)
	case callback.MenuAdminReviews:
		r.showReview(ctx, req, callback.ListingAdminReviews, pagination.First, 0)
	case callback.MenuAdminPayments:
		r.showWork(ctx, req, callback.ListingAdminPayments, pagination.First, 0, 0)
	case callback.MenuAdminMailing:
		if err = r.svc.Mailing.BeginMailing(req.account, req.session); err == nil {
			r.reply(ctx, req, "📨 Send the broadcast text. A photo with a caption works too.", nil)
		}
	case callback.MenuMailingSend:
		if err = r.svc.Mailing.Confirm(ctx, req.account, req.session); err == nil {
			r.dropMarkup(ctx, req)
			r.reply(ctx, req, "📨 Mailing queued. You will get a report when it is done.", nil)
		}
	case callback.MenuMailingCancel:
		r.svc.Mailing.Cancel(req.session)
		r.dropMarkup(ctx, req)
		r.reply(ctx, req, textCancelled, nil)
	default:
		r.notice(ctx, req, textExpired)
	}
	if err != nil {
		r.fail(ctx, req, err)
	}
}

func (r *Router) beginRegistration(ctx context.Context, req *request) {
	start, err := r.svc.Accounts.BeginRegistration(ctx, req.account, req.session)
	if err != nil {
		r.fail(ctx, req, err)
		return
	}
	if start.Invoice == nil {
		r.reply(ctx, req, "🎨 <b>Master registration</b>\n\n📍 Send your city", nil)
		return
	}

	asset, _ := r.svc.Submission.PlacementFee()
	text := fmt.Sprintf("🎨 <b>Master registration</b>\n\nRegistration costs <b>%s %s</b>. Pay the invoice, then tap «Check payment».",
		esc(start.Amount), asset)
	r.reply(ctx, req, text, paymentKeyboard(start.Invoice.PayURL, callback.Payment{InvoiceID: start.Invoice.ID}))
}

func (r *Router) beginEdit(ctx context.Context, req *request, state conversation.State, prompt string) {
	if err := r.svc.Accounts.BeginEdit(ctx, req.account, req.session, state); err != nil {
		r.fail(ctx, req, err)
		return
	}
	r.reply(ctx, req, prompt, nil)
}

// input handles free text and photos according to the dialog step
func (r *Router) input(ctx context.Context, req *request, text, photo string) {
	s := req.session
	var err error

	switch s.State {
	case conversation.StateSubmissionPhoto:
		if photo == "" {
			r.reply(ctx, req, "📸 Please send a photo", nil)
			return
		}
		if err = r.svc.Submission.SupplyPhoto(s, photo); err == nil {
			r.reply(ctx, req, "📝 Now send a description of the work", nil)
		}

	case conversation.StateSubmissionDescription:
		var categories []domain.Category
		if categories, err = r.svc.Submission.SupplyDescription(ctx, s, text); err == nil {
			r.reply(ctx, req, "🎨 Choose a style", styleKeyboard(categories))
		}

	case conversation.StateSubmissionPrice:
		var sub *service.Submission
		if sub, err = r.svc.Submission.SupplyPrice(ctx, req.account, s, text); err == nil {
			r.replySubmission(ctx, req, sub)
		}

	case conversation.StateRegistrationCity:
		if err = r.svc.Accounts.SupplyCity(s, text); err == nil {
			r.reply(ctx, req, "📝 Tell clients about yourself", nil)
		}

	case conversation.StateRegistrationBio:
		if err = r.svc.Accounts.SupplyBio(s, text); err == nil {
			r.reply(ctx, req, "🔗 Send links to your socials or portfolio, separated by spaces", nil)
		}

	case conversation.StateRegistrationSocials:
		var card *domain.MasterCard
		if card, err = r.svc.Accounts.SupplySocials(ctx, req.account, s, text); err == nil {
			r.reply(ctx, req, "🎉 <b>You are now a master!</b>\n\n"+renderMaster(card), mainKeyboard(req.account, r.isAdmin(req)))
		}

	case conversation.StateEditCity, conversation.StateEditBio, conversation.StateEditSocials:
		if err = r.svc.Accounts.ApplyEdit(ctx, req.account, s, text); err == nil {
			r.menu(ctx, req, callback.MenuProfile)
		}

	case conversation.StateReviewRating:
		rating, convErr := strconv.Atoi(text)
		if convErr != nil {
			r.reply(ctx, req, textUseButtons, nil)
			return
		}
		if err = r.svc.Reviews.SupplyRating(s, rating); err == nil {
			r.reply(ctx, req, "✍️ Now write the review text", nil)
		}

	case conversation.StateReviewText:
		if _, err = r.svc.Reviews.SupplyText(ctx, req.account, s, text); err == nil {
			r.reply(ctx, req, "✅ Thank you for your review!", nil)
		}

	case conversation.StateReviewReply:
		if _, err = r.svc.Reviews.SupplyReply(ctx, req.account, s, text); err == nil {
			r.reply(ctx, req, "✅ Reply saved", nil)
		}

	case conversation.StateComment:
		var comment *domain.Comment
		if comment, err = r.svc.Social.SupplyComment(ctx, req.account, s, text); err == nil {
			r.showComments(ctx, req, comment.WorkID, 1)
		}

	case conversation.StateMasterCity:
		city := strings.TrimSpace(text)
		*s = *conversation.New(conversation.StateIdle)
		s.Set(conversation.KeyCityFilter, city)
		r.showMasters(ctx, req, 1, city, false)

	case conversation.StateAdminUserSearch:
		var info *service.UserInfo
		if info, err = r.svc.Accounts.LookupUser(ctx, req.account, s, text); err == nil {
			r.reply(ctx, req, renderUser(info), userKeyboard(info))
		}

	case conversation.StateAdminCategoryName:
		var category *domain.Category
		if category, err = r.svc.Categories.SupplyName(ctx, req.account, s, text); err == nil {
			r.reply(ctx, req, fmt.Sprintf("✅ Style «%s» added", esc(category.Name)), nil)
			r.showAdminCategories(ctx, req, false)
		}

	case conversation.StateAdminMailingText:
		var body string
		if body, err = r.svc.Mailing.SupplyText(s, text, photo); err == nil {
			r.previewMailing(ctx, req, body, photo)
		}

	case conversation.StateSubmissionStyle, conversation.StateRegistrationPayment, conversation.StateAdminMailingReady:
		r.reply(ctx, req, textUseButtons, nil)

	default:
		r.reply(ctx, req, textUnknown, mainKeyboard(req.account, r.isAdmin(req)))
	}

	if err != nil {
		r.fail(ctx, req, err)
	}
}

func (r *Router) replySubmission(ctx context.Context, req *request, sub *service.Submission) {
	asset, fee := r.svc.Submission.PlacementFee()
	text := fmt.Sprintf("🧾 Work #%d saved.\n\nPay the placement fee of <b>%s %s</b>, then tap «Check payment». "+
		"The work goes to moderation once the payment arrives.", sub.Work.ID, fee, asset)

	var invoiceID int64
	if sub.Work.InvoiceID != nil {
		invoiceID = *sub.Work.InvoiceID
	}
	r.reply(ctx, req, text, paymentKeyboard(sub.PayURL, callback.Payment{WorkID: sub.Work.ID, InvoiceID: invoiceID}))
}

func (r *Router) previewMailing(ctx context.Context, req *request, body, photo string) {
	if photo != "" {
		if err := r.gw.sendPhoto(ctx, req.chatID, photo, esc(body), models.ParseModeHTML, mailingKeyboard()); err != nil {
			r.logger.Warn("failed to send mailing preview", zap.Error(err))
		}
		return
	}
	r.reply(ctx, req, "📨 <b>Preview</b>\n\n"+esc(body), mailingKeyboard())
}

func (r *Router) isAdmin(req *request) bool {
	return r.admins.Contains(req.account.ExternalID)
}

func (r *Router) reply(ctx context.Context, req *request, text string, markup models.ReplyMarkup) {
	if err := r.gw.send(ctx, req.chatID, text, models.ParseModeHTML, markup); err != nil {
		r.logger.Warn("failed to reply", zap.Int64("chat_id", req.chatID), zap.Error(err))
	}
}

func (r *Router) replyPhoto(ctx context.Context, req *request, fileID, caption string, markup models.ReplyMarkup) {
	if err := r.gw.sendPhoto(ctx, req.chatID, fileID, caption, models.ParseModeHTML, markup); err != nil {
		r.logger.Warn("failed to reply with photo", zap.Int64("chat_id", req.chatID), zap.Error(err))
	}
}

// editText replaces the callback's message in place; false means the caller
// should send a new message instead
func (r *Router) editText(ctx context.Context, req *request, text string, markup models.ReplyMarkup) bool {
	if req.messageID == 0 {
		return false
	}
	if err := r.gw.editText(ctx, req.chatID, req.messageID, text, markup); err != nil {
		r.logger.Debug("edit text failed, sending new message", zap.Error(err))
		return false
	}
	return true
}

func (r *Router) editPhoto(ctx context.Context, req *request, fileID, caption string, markup models.ReplyMarkup) bool {
	if req.messageID == 0 {
		return false
	}
	if err := r.gw.editPhoto(ctx, req.chatID, req.messageID, fileID, caption, markup); err != nil {
		r.logger.Debug("edit photo failed, sending new message", zap.Error(err))
		return false
	}
	return true
}

func (r *Router) dropMarkup(ctx context.Context, req *request) {
	if req.messageID == 0 {
		return
	}
	if err := r.gw.editMarkup(ctx, req.chatID, req.messageID, inline()); err != nil {
		r.logger.Debug("failed to drop keyboard", zap.Error(err))
	}
}

// toast answers the callback with a transient notice
func (r *Router) toast(ctx context.Context, req *request, text string) {
	if req.callbackID == "" || req.answered {
		return
	}
	r.gw.answer(ctx, req.callbackID, text, false)
	req.answered = true
}

// notice shows text as a modal alert for callbacks and as a message otherwise
func (r *Router) notice(ctx context.Context, req *request, text string) {
	if req.callbackID != "" && !req.answered {
		r.gw.answer(ctx, req.callbackID, text, true)
		req.answered = true
		return
	}
	r.reply(ctx, req, text, nil)
}

func (r *Router) fail(ctx context.Context, req *request, err error) {
	text, known := errorText(err)
	if !known {
		r.logger.Error("request failed",
			zap.Int64("chat_id", req.chatID),
			zap.String("state", string(req.session.State)),
			zap.Error(err))
	}
	r.notice(ctx, req, text)
}
