package bot

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"tattoo-market/internal/callback"
	domain "tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
	"tattoo-market/internal/service"
)

// Reply keyboard labels
const (
	btnWorks        = "🖼 Works"
	btnMasters      = "👤 Masters"
	btnBecomeMaster = "🎨 Become a master"
	btnAddWork      = "➕ Add work"
	btnOwnWorks     = "📁 My works"
	btnProfile      = "🪪 My profile"
	btnFAQ          = "❓ FAQ"
	btnContacts     = "📞 Contacts"
	btnAdmin        = "🛠 Admin panel"
)

// replyActions maps reply keyboard labels to menu actions
var replyActions = map[string]string{
	btnWorks:        callback.MenuWorks,
	btnMasters:      callback.MenuMasters,
	btnBecomeMaster: callback.MenuBecomeMaster,
	btnAddWork:      callback.MenuAddWork,
	btnOwnWorks:     callback.MenuOwnWorks,
	btnProfile:      callback.MenuProfile,
	btnFAQ:          callback.MenuFAQ,
	btnContacts:     callback.MenuContacts,
	btnAdmin:        callback.MenuAdminMain,
}

func mainKeyboard(account *domain.Account, admin bool) *models.ReplyKeyboardMarkup {
	rows := [][]models.KeyboardButton{{{Text: btnWorks}, {Text: btnMasters}}}
	if account.IsMaster() {
		rows = append(rows,
			[]models.KeyboardButton{{Text: btnAddWork}, {Text: btnOwnWorks}},
			[]models.KeyboardButton{{Text: btnProfile}},
		)
	} else {
		rows = append(rows, []models.KeyboardButton{{Text: btnBecomeMaster}})
	}
	rows = append(rows, []models.KeyboardButton{{Text: btnFAQ}, {Text: btnContacts}})
	if admin {
		rows = append(rows, []models.KeyboardButton{{Text: btnAdmin}})
	}
	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

func button(text string, p callback.Payload) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callback.Encode(p)}
}

func inline(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	kept := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			kept = append(kept, row)
		}
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: kept}
}

func navRow(listing callback.Listing, anchor, categoryID int64) []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{
		button("◀️", callback.Page{Listing: listing, Direction: pagination.Prev, Anchor: anchor, CategoryID: categoryID}),
		button("▶️", callback.Page{Listing: listing, Direction: pagination.Next, Anchor: anchor, CategoryID: categoryID}),
	}
}

func workKeyboard(listing callback.Listing, card *domain.WorkCard, categoryID int64) *models.InlineKeyboardMarkup {
	nav := navRow(listing, card.ID, categoryID)

	switch listing {
	case callback.ListingWorks:
		heart := "🤍"
		if card.Liked {
			heart = "❤️"
		}
		return inline(
			nav,
			[]models.InlineKeyboardButton{
				button(fmt.Sprintf("%s %d", heart, card.LikesCount), callback.Like{WorkID: card.ID, CategoryID: categoryID}),
				button(fmt.Sprintf("💬 %d", card.CommentCount), callback.Comment{Action: callback.CommentView, WorkID: card.ID, Page: 1}),
			},
			[]models.InlineKeyboardButton{
				button("👤 Master", callback.Master{Action: callback.MasterView, ID: card.MasterID}),
				button("⭐ Review", callback.Review{Action: callback.ReviewCreateForWork, ID: card.ID}),
			},
		)
	case callback.ListingAdminPayments:
		var decide []models.InlineKeyboardButton
		if card.Status == domain.WorkStatusPendingApproval {
			decide = moderationRow(card.ID)
		}
		return inline(nav, decide)
	default:
		return inline(nav)
	}
}

func moderationRow(workID int64) []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{
		button("✅ Approve", callback.Moderation{Action: callback.ModerationApprove, WorkID: workID}),
		button("❌ Reject", callback.Moderation{Action: callback.ModerationReject, WorkID: workID}),
	}
}

func moderationKeyboard(workID int64) *models.InlineKeyboardMarkup {
	return inline(moderationRow(workID))
}

func reviewKeyboard(listing callback.Listing, card *domain.ReviewCard, admin bool) *models.InlineKeyboardMarkup {
	actions := []models.InlineKeyboardButton{
		button("💬 Reply", callback.Review{Action: callback.ReviewReply, ID: card.ID}),
	}
	if admin {
		actions = append(actions, button("🗑 Delete", callback.Review{Action: callback.ReviewDelete, ID: card.ID}))
	}
	return inline(navRow(listing, card.ID, 0), actions)
}

func ratingKeyboard() *models.InlineKeyboardMarkup {
	row := make([]models.InlineKeyboardButton, 0, 5)
	for i := 1; i <= 5; i++ {
		row = append(row, button(fmt.Sprintf("%d ⭐", i), callback.Review{Action: callback.ReviewRate, Rating: i}))
	}
	return inline(row)
}

func masterPageKeyboard(page *service.MasterPage) *models.InlineKeyboardMarkup {
	var nav []models.InlineKeyboardButton
	byCity := page.City != ""
	if page.Page.HasPrev() {
		nav = append(nav, button("◀️", callback.Masters{Page: page.Page.Number - 1, ByCity: byCity}))
	}
	if page.Page.HasNext() {
		nav = append(nav, button("▶️", callback.Masters{Page: page.Page.Number + 1, ByCity: byCity}))
	}
	return inline(nav, masterActions(page.Master))
}

func masterKeyboard(card *domain.MasterCard) *models.InlineKeyboardMarkup {
	return inline(masterActions(card))
}

func masterActions(card *domain.MasterCard) []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{
		button("⭐ Leave a review", callback.Review{Action: callback.ReviewCreate, ID: card.ID}),
	}
}

func commentsKeyboard(page *service.CommentPage) *models.InlineKeyboardMarkup {
	var nav []models.InlineKeyboardButton
	if page.Page.HasPrev() {
		nav = append(nav, button("◀️", callback.Comment{Action: callback.CommentView, WorkID: page.WorkID, Page: page.Page.Number - 1}))
	}
	if page.Page.HasNext() {
		nav = append(nav, button("▶️", callback.Comment{Action: callback.CommentView, WorkID: page.WorkID, Page: page.Page.Number + 1}))
	}
	return inline(
		nav,
		[]models.InlineKeyboardButton{
			button("✍️ Write a comment", callback.Comment{Action: callback.CommentCreate, WorkID: page.WorkID}),
			button("⬅️ Back to work", callback.Comment{Action: callback.CommentBack, WorkID: page.WorkID}),
		},
	)
}

func styleKeyboard(categories []domain.Category) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []models.InlineKeyboardButton{button(c.Name, callback.Category{Action: callback.CategoryPick, ID: c.ID})})
	}
	return inline(rows...)
}

func filterKeyboard(categories []domain.Category) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{{button("All styles", callback.Category{Action: callback.CategoryFilter})}}
	for _, c := range categories {
		rows = append(rows, []models.InlineKeyboardButton{button(c.Name, callback.Category{Action: callback.CategoryFilter, ID: c.ID})})
	}
	return inline(rows...)
}

func adminCategoriesKeyboard(categories []domain.Category) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, []models.InlineKeyboardButton{button("🗑 "+c.Name, callback.Category{Action: callback.CategoryDelete, ID: c.ID})})
	}
	rows = append(rows, []models.InlineKeyboardButton{button("➕ Add style", callback.Category{Action: callback.CategoryAdd})})
	return inline(rows...)
}

func menuKeyboard(items ...[2]string) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(items))
	for _, it := range items {
		rows = append(rows, []models.InlineKeyboardButton{button(it[0], callback.Menu{Action: it[1]})})
	}
	return inline(rows...)
}

func adminKeyboard() *models.InlineKeyboardMarkup {
	return menuKeyboard(
		[2]string{"👥 Users", callback.MenuAdminUsers},
		[2]string{"🎨 Styles", callback.MenuAdminCategories},
		[2]string{"⭐ Reviews", callback.MenuAdminReviews},
		[2]string{"💳 Payments", callback.MenuAdminPayments},
		[2]string{"📨 Mailing", callback.MenuAdminMailing},
	)
}

func worksMenuKeyboard() *models.InlineKeyboardMarkup {
	return menuKeyboard(
		[2]string{"🖼 All works", callback.MenuWorksAll},
		[2]string{"🎨 By style", callback.MenuWorksByStyle},
	)
}

func mastersMenuKeyboard() *models.InlineKeyboardMarkup {
	return menuKeyboard(
		[2]string{"🏆 All masters", callback.MenuMastersAll},
		[2]string{"📍 By city", callback.MenuMastersByCity},
	)
}

func profileKeyboard() *models.InlineKeyboardMarkup {
	return menuKeyboard(
		[2]string{"✏️ Edit profile", callback.MenuProfileEdit},
		[2]string{"⭐ My reviews", callback.MenuMasterReviews},
	)
}

func profileEditKeyboard() *models.InlineKeyboardMarkup {
	return menuKeyboard(
		[2]string{"📍 City", callback.MenuEditCity},
		[2]string{"📝 About", callback.MenuEditBio},
		[2]string{"🔗 Links", callback.MenuEditSocials},
	)
}

func mailingKeyboard() *models.InlineKeyboardMarkup {
	return inline([]models.InlineKeyboardButton{
		button("📨 Send", callback.Menu{Action: callback.MenuMailingSend}),
		button("✖️ Cancel", callback.Menu{Action: callback.MenuMailingCancel}),
	})
}

func userKeyboard(info *service.UserInfo) *models.InlineKeyboardMarkup {
	if info.Master == nil {
		return inline()
	}
	accountID := info.Account.ID
	toggle := button("🚫 Block", callback.Master{Action: callback.MasterBlock, ID: accountID})
	if !info.Master.IsActive {
		toggle = button("✅ Unblock", callback.Master{Action: callback.MasterUnblock, ID: accountID})
	}
	return inline(
		[]models.InlineKeyboardButton{toggle},
		[]models.InlineKeyboardButton{button("⚠️ Revoke master status", callback.Master{Action: callback.MasterRevoke, ID: accountID})},
	)
}

func paymentKeyboard(payURL string, p callback.Payment) *models.InlineKeyboardMarkup {
	return inline(
		[]models.InlineKeyboardButton{{Text: "💳 Pay", URL: payURL}},
		[]models.InlineKeyboardButton{button("✅ Check payment", p)},
	)
}
