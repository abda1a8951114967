package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"tattoo-market/internal/callback"
	"tattoo-market/internal/conversation"
	domain "tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
	"tattoo-market/internal/service"
)

func (r *Router) handleCallback(ctx context.Context, cb *models.CallbackQuery) {
	chatID, messageID := callbackMessage(cb)

	req, err := r.begin(ctx, cb.From, chatID)
	if err != nil {
		r.logger.Error("failed to start request", zap.Int64("chat_id", chatID), zap.Error(err))
		r.gw.answer(ctx, cb.ID, textFailure, true)
		return
	}
	req.messageID = messageID
	req.callbackID = cb.ID
	defer r.finish(ctx, req)

	payload, err := callback.Decode(cb.Data)
	if err != nil {
		r.logger.Debug("dropping malformed callback", zap.String("data", cb.Data), zap.Error(err))
		r.notice(ctx, req, textExpired)
		return
	}

	switch p := payload.(type) {
	case callback.Page:
		r.onPage(ctx, req, p)
	case callback.Masters:
		r.onMasters(ctx, req, p)
	case callback.Moderation:
		r.onModeration(ctx, req, p)
	case callback.Like:
		r.onLike(ctx, req, p)
	case callback.Review:
		r.onReview(ctx, req, p)
	case callback.Category:
		r.onCategory(ctx, req, p)
	case callback.Payment:
		r.onPayment(ctx, req, p)
	case callback.Comment:
		r.onComment(ctx, req, p)
	case callback.Master:
		r.onMaster(ctx, req, p)
	case callback.Menu:
		r.menu(ctx, req, p.Action)
	default:
		r.notice(ctx, req, textExpired)
	}
}

// callbackMessage returns the chat and message a callback button belongs to.
// Messages too old to be edited still carry their chat.
func callbackMessage(cb *models.CallbackQuery) (int64, int) {
	switch {
	case cb.Message.Message != nil:
		return cb.Message.Message.Chat.ID, cb.Message.Message.ID
	case cb.Message.InaccessibleMessage != nil:
		return cb.Message.InaccessibleMessage.Chat.ID, 0
	default:
		return cb.From.ID, 0
	}
}

func (r *Router) onPage(ctx context.Context, req *request, p callback.Page) {
	switch p.Listing {
	case callback.ListingAdminReviews, callback.ListingMasterReviews:
		r.showReview(ctx, req, p.Listing, p.Direction, p.Anchor)
	default:
		r.showWork(ctx, req, p.Listing, p.Direction, p.Anchor, p.CategoryID)
	}
}

func (r *Router) onMasters(ctx context.Context, req *request, p callback.Masters) {
	var city string
	if p.ByCity {
		if city = req.session.Get(conversation.KeyCityFilter); city == "" {
			r.notice(ctx, req, textExpired)
			return
		}
	}
	r.showMasters(ctx, req, p.Page, city, true)
}

func (r *Router) onModeration(ctx context.Context, req *request, p callback.Moderation) {
	var (
		decide func(ctx context.Context, moderatorID, workID int64) (*domain.Work, error)
		done   string
	)
	switch p.Action {
	case callback.ModerationApprove:
		decide, done = r.svc.Moderation.Approve, "✅ Work published"
	case callback.ModerationReject:
		decide, done = r.svc.Moderation.Reject, "❌ Work rejected"
	default:
		r.notice(ctx, req, textExpired)
		return
	}

	if _, err := decide(ctx, req.account.ExternalID, p.WorkID); err != nil {
		r.fail(ctx, req, err)
		return
	}
	r.dropMarkup(ctx, req)
	r.toast(ctx, req, done)
}

func (r *Router) onLike(ctx context.Context, req *request, p callback.Like) {
	liked, _, err := r.svc.Social.ToggleLike(ctx, req.account, p.WorkID)
	if err != nil {
		r.fail(ctx, req, err)
		return
	}

	if card, err := r.svc.Catalog.Work(ctx, req.account, p.WorkID); err == nil {
		if req.messageID != 0 {
			if err := r.gw.editMarkup(ctx, req.chatID, req.messageID, workKeyboard(callback.ListingWorks, card, p.CategoryID)); err != nil {
				r.logger.Debug("failed to refresh like counter", zap.Error(err))
			}
		}
	} else {
		r.logger.Warn("failed to reload work after like", zap.Int64("work_id", p.WorkID), zap.Error(err))
	}

	if liked {
		r.toast(ctx, req, "❤️ Liked")
	} else {
		r.toast(ctx, req, "💔 Like removed")
	}
}

func (r *Router) onReview(ctx context.Context, req *request, p callback.Review) {
	switch p.Action {
	case callback.ReviewCreate, callback.ReviewCreateForWork:
		begin := func() (*domain.MasterCard, error) {
			if p.Action == callback.ReviewCreateForWork {
				return r.svc.Reviews.BeginWorkReview(ctx, req.account, req.session, p.ID)
			}
			return r.svc.Reviews.BeginReview(ctx, req.account, req.session, p.ID, 0)
		}
		master, err := begin()
		if err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, fmt.Sprintf("⭐ Rate master %s", handle(master.Username)), ratingKeyboard())

	case callback.ReviewRate:
		if err := r.svc.Reviews.SupplyRating(req.session, p.Rating); err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.dropMarkup(ctx, req)
		r.reply(ctx, req, fmt.Sprintf("%s\n\n✍️ Now write the review text", stars(p.Rating)), nil)

	case callback.ReviewReply:
		card, err := r.svc.Reviews.BeginReply(ctx, req.account, req.session, p.ID)
		if err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, fmt.Sprintf("💬 Write your reply to %s", handle(card.ClientUsername)), nil)

	case callback.ReviewDelete:
		if err := r.svc.Reviews.Delete(ctx, req.account, p.ID); err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.dropMarkup(ctx, req)
		r.toast(ctx, req, "🗑 Review deleted")

	default:
		r.notice(ctx, req, textExpired)
	}
}

func (r *Router) onCategory(ctx context.Context, req *request, p callback.Category) {
	switch p.Action {
	case callback.CategoryAdd:
		if err := r.svc.Categories.BeginAdd(req.account, req.session); err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, "✍️ Send the name of the new style", nil)

	case callback.CategoryDelete:
		if err := r.svc.Categories.Delete(ctx, req.account, p.ID); err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.toast(ctx, req, "🗑 Style deleted")
		r.showAdminCategories(ctx, req, true)

	case callback.CategoryPick:
		category, err := r.svc.Submission.SupplyStyle(ctx, req.session, p.ID)
		if err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.dropMarkup(ctx, req)
		r.reply(ctx, req, fmt.Sprintf("🎨 Style: <b>%s</b>\n\n💰 Now send the price of the work as a whole number", esc(category.Name)), nil)

	case callback.CategoryFilter:
		r.showWork(ctx, req, callback.ListingWorks, pagination.First, 0, p.ID)

	default:
		r.notice(ctx, req, textExpired)
	}
}

func (r *Router) onPayment(ctx context.Context, req *request, p callback.Payment) {
	if p.WorkID == 0 {
		result, err := r.svc.Accounts.ConfirmRegistrationPayment(ctx, req.account, req.session, p.InvoiceID)
		if err != nil {
			r.fail(ctx, req, err)
			return
		}
		if result == service.PaymentConfirmed {
			r.dropMarkup(ctx, req)
			r.reply(ctx, req, "✅ Payment received!\n\n📍 Send your city", nil)
			return
		}
		r.paymentNotice(ctx, req, result)
		return
	}

	result, err := r.svc.Submission.CheckPayment(ctx, p.WorkID)
	if err != nil {
		r.fail(ctx, req, err)
		return
	}
	if result == service.PaymentConfirmed {
		r.dropMarkup(ctx, req)
		r.reply(ctx, req, "✅ Payment received! Your work was sent to moderation.", nil)
		return
	}
	r.paymentNotice(ctx, req, result)
}

func (r *Router) paymentNotice(ctx context.Context, req *request, result service.PaymentResult) {
	switch result {
	case service.PaymentAlreadyProcessed:
		r.notice(ctx, req, "This payment has already been processed.")
	case service.PaymentCheckInProgress:
		r.toast(ctx, req, "⏳ The payment is being checked, please wait.")
	default:
		r.notice(ctx, req, "⏳ Payment not received yet. Pay the invoice and try again.")
	}
}

func (r *Router) onComment(ctx context.Context, req *request, p callback.Comment) {
	switch p.Action {
	case callback.CommentView:
		r.showComments(ctx, req, p.WorkID, p.Page)
	case callback.CommentCreate:
		if err := r.svc.Social.BeginComment(ctx, req.session, p.WorkID); err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, "✍️ Write your comment", nil)
	case callback.CommentBack:
		r.showWorkByID(ctx, req, p.WorkID)
	default:
		r.notice(ctx, req, textExpired)
	}
}

func (r *Router) onMaster(ctx context.Context, req *request, p callback.Master) {
	var (
		info *service.UserInfo
		err  error
	)
	switch p.Action {
	case callback.MasterView:
		card, err := r.svc.Catalog.MasterCard(ctx, p.ID)
		if err != nil {
			r.fail(ctx, req, err)
			return
		}
		r.reply(ctx, req, renderMaster(card), masterKeyboard(card))
		return
	case callback.MasterBlock:
		info, err = r.svc.Accounts.BlockMaster(ctx, req.account, p.ID)
	case callback.MasterUnblock:
		info, err = r.svc.Accounts.UnblockMaster(ctx, req.account, p.ID)
	case callback.MasterRevoke:
		info, err = r.svc.Accounts.RevokeMaster(ctx, req.account, p.ID)
	default:
		r.notice(ctx, req, textExpired)
		return
	}
	if err != nil {
		r.fail(ctx, req, err)
		return
	}

	text, markup := renderUser(info), userKeyboard(info)
	if !r.editText(ctx, req, text, markup) {
		r.reply(ctx, req, text, markup)
	}
	r.toast(ctx, req, "✅ Done")
}
