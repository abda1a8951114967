package bot

import (
	"errors"
	"strings"

	domain "tattoo-market/internal/models"
)

const (
	textWelcome = "👋 Welcome to the tattoo marketplace!\n\n" +
		"Browse works and masters, like and comment, leave reviews. " +
		"Masters can publish their works after a small placement fee."

	textFAQ = "❓ <b>FAQ</b>\n\n" +
		"<b>How do I publish a work?</b>\nBecome a master, tap «➕ Add work», send a photo, a description, " +
		"choose a style and a price, then pay the placement fee. The work goes live after moderation.\n\n" +
		"<b>Which currency is accepted?</b>\nPayments go through Crypto Bot in USDT.\n\n" +
		"<b>How is the master rating calculated?</b>\nIt is the average of all review ratings."

	textContacts = "📞 <b>Contacts</b>\n\nQuestions and support: write to the administrator of this bot."

	textEmpty      = "Nothing here yet."
	textLastItem   = "This is the last one."
	textFirstItem  = "This is the first one."
	textExpired    = "This button is no longer valid."
	textUseButtons = "Please use the buttons above."
	textCancelled  = "Cancelled."
	textUnknown    = "I did not get that. Use the menu below."
	textFailure    = "😔 Something went wrong, please try again later."
)

// errorText maps a service error to a user-facing message. known is false for
// errors the router should log.
func errorText(err error) (text string, known bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
		return "⚠️ " + msg, true
	case errors.Is(err, domain.ErrUnexpectedInput):
		return "This step is over. Start again from the menu.", true
	case errors.Is(err, domain.ErrNotAMaster):
		return "This is available to masters only. Tap «" + btnBecomeMaster + "» first.", true
	case errors.Is(err, domain.ErrAlreadyMaster):
		return "You are already a master.", true
	case errors.Is(err, domain.ErrNoCategories):
		return "No styles exist yet, so works cannot be submitted. Please try later.", true
	case errors.Is(err, domain.ErrWorkNotFound), errors.Is(err, domain.ErrInvalidTransition):
		return "Work not found.", true
	case errors.Is(err, domain.ErrReviewNotFound):
		return "Review not found.", true
	case errors.Is(err, domain.ErrAccountNotFound):
		return "User not found.", true
	case errors.Is(err, domain.ErrMasterNotFound):
		return "Master not found.", true
	case errors.Is(err, domain.ErrCategoryNotFound):
		return "Style not found.", true
	case errors.Is(err, domain.ErrCategoryExists):
		return "A style with this name already exists.", true
	case errors.Is(err, domain.ErrCategoryInUse):
		return "This style is used by works and cannot be deleted.", true
	case errors.Is(err, domain.ErrForbidden):
		return "⛔ You are not allowed to do this.", true
	case errors.Is(err, domain.ErrInvoiceMismatch):
		return "This invoice does not belong to your registration.", true
	case errors.Is(err, domain.ErrPaymentGatewayUnavailable):
		return "💳 The payment service is temporarily unavailable. Please try again later.", true
	default:
		return textFailure, false
	}
}
