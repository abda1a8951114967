package bot

import (
	"context"
	"fmt"

	"tattoo-market/internal/callback"
	domain "tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
)

// showWork fetches the next work of a listing and shows it. Stepping from a
// callback replaces the current card in place.
func (r *Router) showWork(ctx context.Context, req *request, listing callback.Listing, dir pagination.Direction, anchor, categoryID int64) {
	var (
		card *domain.WorkCard
		view workView
		err  error
	)
	switch listing {
	case callback.ListingWorks:
		card, err = r.svc.Catalog.PublishedWork(ctx, req.account, dir, anchor, categoryID)
		view = workViewPublic
	case callback.ListingOwnWorks:
		card, err = r.svc.Catalog.OwnWork(ctx, req.account, dir, anchor)
		view = workViewOwner
	case callback.ListingAdminPayments:
		card, err = r.svc.Catalog.InvoicedWork(ctx, req.account, dir, anchor)
		view = workViewAdmin
	default:
		r.notice(ctx, req, textExpired)
		return
	}
	if err != nil {
		r.fail(ctx, req, err)
		return
	}
	if card == nil {
		r.boundary(ctx, req, dir)
		return
	}

	caption := renderWork(card, view)
	markup := workKeyboard(listing, card, categoryID)
	if dir != pagination.First && r.editPhoto(ctx, req, card.ImageFileID, caption, markup) {
		return
	}
	r.replyPhoto(ctx, req, card.ImageFileID, caption, markup)
}

func (r *Router) showWorkByID(ctx context.Context, req *request, workID int64) {
	card, err := r.svc.Catalog.Work(ctx, req.account, workID)
	if err != nil {
		r.fail(ctx, req, err)
		return
	}
	if card.Status != domain.WorkStatusPublished {
		r.fail(ctx, req, domain.ErrWorkNotFound)
		return
	}
	r.replyPhoto(ctx, req, card.ImageFileID, renderWork(card, workViewPublic), workKeyboard(callback.ListingWorks, card, 0))
}

func (r *Router) showReview(ctx context.Context, req *request, listing callback.Listing, dir pagination.Direction, anchor int64) {
	var (
		card *domain.ReviewCard
		err  error
	)
	switch listing {
	case callback.ListingAdminReviews:
		card, err = r.svc.Catalog.Review(ctx, req.account, dir, anchor)
	case callback.ListingMasterReviews:
		card, err = r.svc.Catalog.OwnReview(ctx, req.account, dir, anchor)
	default:
		r.notice(ctx, req, textExpired)
		return
	}
	if err != nil {
		r.fail(ctx, req, err)
		return
	}
	if card == nil {
		r.boundary(ctx, req, dir)
		return
	}

	text := renderReview(card)
	markup := reviewKeyboard(listing, card, r.isAdmin(req) && listing == callback.ListingAdminReviews)
	if dir != pagination.First && r.editText(ctx, req, text, markup) {
		return
	}
	r.reply(ctx, req, text, markup)
}

func (r *Router) showMasters(ctx context.Context, req *request, page int, city string, edit bool) {
	mp, err := r.svc.Catalog.Master(ctx, page, city)
	if err != nil {
		r.fail(ctx, req, err)
		return
	}
	if mp.Master == nil {
		if city != "" {
			r.notice(ctx, req, fmt.Sprintf("No masters found in %s.", esc(city)))
			return
		}
		r.notice(ctx, req, textEmpty)
		return
	}

	text := renderMasterPage(mp)
	markup := masterPageKeyboard(mp)
	if edit && r.editText(ctx, req, text, markup) {
		return
	}
	r.reply(ctx, req, text, markup)
}

func (r *Router) showComments(ctx context.Context, req *request, workID int64, page int) {
	cp, err := r.svc.Social.Comments(ctx, workID, page)
	if err != nil {
		r.fail(ctx, req, err)
		return
	}

	text := renderComments(cp)
	markup := commentsKeyboard(cp)
	if r.editText(ctx, req, text, markup) {
		return
	}
	r.reply(ctx, req, text, markup)
}

func (r *Router) showAdminCategories(ctx context.Context, req *request, edit bool) {
	if !r.isAdmin(req) {
		r.fail(ctx, req, domain.ErrForbidden)
		return
	}
	categories, err := r.svc.Categories.List(ctx)
	if err != nil {
		r.fail(ctx, req, err)
		return
	}

	text := "🎨 <b>Styles</b>\n\nTap a style to delete it."
	if len(categories) == 0 {
		text = "🎨 <b>Styles</b>\n\nNo styles yet."
	}
	markup := adminCategoriesKeyboard(categories)
	if edit && r.editText(ctx, req, text, markup) {
		return
	}
	r.reply(ctx, req, text, markup)
}

// boundary reports an exhausted listing: empty on first fetch, an edge otherwise
func (r *Router) boundary(ctx context.Context, req *request, dir pagination.Direction) {
	switch dir {
	case pagination.Next:
		r.toast(ctx, req, textLastItem)
	case pagination.Prev:
		r.toast(ctx, req, textFirstItem)
	default:
		r.notice(ctx, req, textEmpty)
	}
}
