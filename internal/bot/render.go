package bot

import (
	"fmt"
	"html"
	"strings"

	domain "tattoo-market/internal/models"
	"tattoo-market/internal/service"
)

type workView int

const (
	workViewPublic workView = iota
	workViewOwner
	workViewAdmin
)

func esc(s string) string {
	return html.EscapeString(s)
}

func handle(username string) string {
	if username == "" {
		return "hidden"
	}
	return "@" + esc(username)
}

func renderWork(card *domain.WorkCard, view workView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎨 <b>Style:</b> %s\n", esc(card.CategoryName))
	fmt.Fprintf(&b, "📝 %s\n", esc(card.Description))
	fmt.Fprintf(&b, "💰 <b>Price:</b> %d\n", card.Price)
	fmt.Fprintf(&b, "👤 <b>Master:</b> %s", handle(card.MasterUsername))

	switch view {
	case workViewOwner:
		fmt.Fprintf(&b, "\n📌 <b>Status:</b> %s", card.Status.Label())
		fmt.Fprintf(&b, "\n❤️ %d · 💬 %d", card.LikesCount, card.CommentCount)
	case workViewAdmin:
		fmt.Fprintf(&b, "\n📌 <b>Status:</b> %s", card.Status.Label())
		if card.InvoiceID != nil {
			fmt.Fprintf(&b, "\n🧾 <b>Invoice:</b> #%d", *card.InvoiceID)
		}
		fmt.Fprintf(&b, "\n🆔 Work #%d", card.ID)
	}
	return b.String()
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("⭐", rating) + strings.Repeat("☆", 5-rating)
}

func renderReview(card *domain.ReviewCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d/5)\n", stars(card.Rating), card.Rating)
	fmt.Fprintf(&b, "From %s to master %s\n", handle(card.ClientUsername), handle(card.MasterUsername))
	fmt.Fprintf(&b, "🗓 %s\n\n", card.CreatedAt.Format("02.01.2006"))
	b.WriteString(esc(card.Text))
	if card.Reply != nil {
		fmt.Fprintf(&b, "\n\n💬 <b>Reply:</b> %s", esc(*card.Reply))
	}
	return b.String()
}

func renderMaster(card *domain.MasterCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 <b>%s</b>\n", handle(card.Username))
	fmt.Fprintf(&b, "📍 %s\n", esc(card.City))
	fmt.Fprintf(&b, "⭐ Rating: %.2f\n", card.Rating)
	if !card.IsActive {
		b.WriteString("🚫 Blocked\n")
	}
	if card.Bio != "" {
		fmt.Fprintf(&b, "\n%s\n", esc(card.Bio))
	}
	if urls := card.SocialLinks.URLs(); len(urls) > 0 {
		b.WriteString("\n🔗 ")
		for i, u := range urls {
			if i > 0 {
				b.WriteString("\n🔗 ")
			}
			b.WriteString(esc(u))
		}
	}
	return b.String()
}

func renderMasterPage(page *service.MasterPage) string {
	text := renderMaster(page.Master)
	if pages := page.Page.Pages(); pages > 0 {
		text += fmt.Sprintf("\n\n%d / %d", page.Page.Number, pages)
	}
	return text
}

func renderComments(page *service.CommentPage) string {
	if len(page.Comments) == 0 {
		return "💬 No comments yet. Be the first!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💬 <b>Comments</b> (page %d of %d)\n", page.Page.Number, page.Page.Pages())
	for _, c := range page.Comments {
		fmt.Fprintf(&b, "\n%s, %s:\n%s\n", handle(c.Username), c.CreatedAt.Format("02.01.2006 15:04"), esc(c.Text))
	}
	return b.String()
}

func renderUser(info *service.UserInfo) string {
	var b strings.Builder
	a := info.Account
	fmt.Fprintf(&b, "🆔 <code>%d</code>\n", a.ExternalID)
	fmt.Fprintf(&b, "👤 %s %s\n", handle(a.Username), esc(a.FullName))
	fmt.Fprintf(&b, "🎭 Role: %s\n", a.Role)
	fmt.Fprintf(&b, "🗓 Joined: %s", a.CreatedAt.Format("02.01.2006"))
	if info.Master != nil {
		b.WriteString("\n\n")
		b.WriteString(renderMaster(info.Master))
	}
	return b.String()
}
