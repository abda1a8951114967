package bot

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tattoo-market/internal/callback"
	domain "tattoo-market/internal/models"
	"tattoo-market/internal/pagination"
	"tattoo-market/internal/service"
)

func TestRenderWorkEscapesUserText(t *testing.T) {
	card := &domain.WorkCard{
		Work:           domain.Work{ID: 3, Description: "<script>&", Price: 120, Status: domain.WorkStatusPublished},
		CategoryName:   "Old <school>",
		MasterUsername: "",
	}

	text := renderWork(card, workViewPublic)
	assert.Contains(t, text, "&lt;script&gt;&amp;")
	assert.Contains(t, text, "Old &lt;school&gt;")
	assert.Contains(t, text, "hidden")
	assert.NotContains(t, text, "Status")

	owner := renderWork(card, workViewOwner)
	assert.Contains(t, owner, domain.WorkStatusPublished.Label())
}

func TestStarsClampsRating(t *testing.T) {
	assert.Equal(t, "⭐⭐⭐☆☆", stars(3))
	assert.Equal(t, "☆☆☆☆☆", stars(-1))
	assert.Equal(t, "⭐⭐⭐⭐⭐", stars(9))
}

func TestRenderReviewShowsReply(t *testing.T) {
	reply := "Thanks!"
	card := &domain.ReviewCard{
		Review:         domain.Review{Rating: 4, Text: "Great work", Reply: &reply},
		ClientUsername: "client",
		MasterUsername: "master",
	}

	text := renderReview(card)
	assert.Contains(t, text, "(4/5)")
	assert.Contains(t, text, "@client")
	assert.Contains(t, text, "Thanks!")
}

func TestRenderMasterPageShowsPosition(t *testing.T) {
	page := &service.MasterPage{
		Master: &domain.MasterCard{
			MasterProfile: domain.MasterProfile{ID: 5, City: "Berlin", Rating: 4.5, IsActive: true,
				SocialLinks: domain.SocialLinks{{Name: "link", URL: "https://ink.example"}}},
			Username: "ink",
		},
		Page: pagination.Page{Number: 2, Size: 1, Total: 3},
	}

	text := renderMasterPage(page)
	assert.Contains(t, text, "4.50")
	assert.Contains(t, text, "https://ink.example")
	assert.Contains(t, text, "2 / 3")

	kb := masterPageKeyboard(page)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, callback.Encode(callback.Masters{Page: 3}), kb.InlineKeyboard[0][1].CallbackData)
}

func TestWorkKeyboardPerListing(t *testing.T) {
	card := &domain.WorkCard{
		Work:         domain.Work{ID: 10, MasterID: 4, LikesCount: 2, Status: domain.WorkStatusPendingApproval},
		CommentCount: 1,
		Liked:        true,
	}

	public := workKeyboard(callback.ListingWorks, card, 6)
	require.Len(t, public.InlineKeyboard, 3)
	assert.Equal(t, "❤️ 2", public.InlineKeyboard[1][0].Text)
	assert.Equal(t, callback.Encode(callback.Like{WorkID: 10, CategoryID: 6}), public.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, callback.Encode(callback.Master{Action: callback.MasterView, ID: 4}), public.InlineKeyboard[2][0].CallbackData)

	admin := workKeyboard(callback.ListingAdminPayments, card, 0)
	require.Len(t, admin.InlineKeyboard, 2)

	card.Status = domain.WorkStatusPublished
	admin = workKeyboard(callback.ListingAdminPayments, card, 0)
	assert.Len(t, admin.InlineKeyboard, 1)

	own := workKeyboard(callback.ListingOwnWorks, card, 0)
	assert.Len(t, own.InlineKeyboard, 1)
}

func TestKeyboardPayloadsFitProviderLimit(t *testing.T) {
	city := strings.Repeat("Ж", 40) + " Llanfairpwllgwyngyllgogerychwyrndrobwllllantysiliogogogoch"
	page := &service.MasterPage{
		Master: &domain.MasterCard{MasterProfile: domain.MasterProfile{ID: 1 << 40}},
		Page:   pagination.Page{Number: 5, Size: 1, Total: 10},
		City:   city,
	}

	kb := masterPageKeyboard(page)
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			assert.LessOrEqual(t, len(b.CallbackData), callback.MaxLen)
			assert.True(t, utf8.ValidString(b.CallbackData))
		}
	}

	prev, err := callback.Decode(kb.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, callback.Masters{Page: 4, ByCity: true}, prev)
}

func TestUserKeyboardTogglesBlock(t *testing.T) {
	info := &service.UserInfo{Account: &domain.Account{ID: 8}}
	assert.Empty(t, userKeyboard(info).InlineKeyboard)

	info.Master = &domain.MasterCard{MasterProfile: domain.MasterProfile{IsActive: true}}
	kb := userKeyboard(info)
	assert.Equal(t, callback.Encode(callback.Master{Action: callback.MasterBlock, ID: 8}), kb.InlineKeyboard[0][0].CallbackData)

	info.Master.IsActive = false
	kb = userKeyboard(info)
	assert.Equal(t, callback.Encode(callback.Master{Action: callback.MasterUnblock, ID: 8}), kb.InlineKeyboard[0][0].CallbackData)
}

func TestErrorTextCoversDomainErrors(t *testing.T) {
	for _, err := range []error{
		domain.ErrNotAMaster, domain.ErrAlreadyMaster, domain.ErrNoCategories,
		domain.ErrWorkNotFound, domain.ErrInvalidTransition, domain.ErrReviewNotFound,
		domain.ErrAccountNotFound, domain.ErrMasterNotFound, domain.ErrCategoryNotFound,
		domain.ErrCategoryExists, domain.ErrCategoryInUse, domain.ErrForbidden,
		domain.ErrInvoiceMismatch, domain.ErrPaymentGatewayUnavailable, domain.ErrUnexpectedInput,
	} {
		text, known := errorText(fmt.Errorf("wrapped: %w", err))
		assert.True(t, known, err.Error())
		assert.NotEqual(t, textFailure, text, err.Error())
	}

	text, known := errorText(fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput))
	assert.True(t, known)
	assert.Equal(t, "⚠️ price must be positive", text)

	text, known = errorText(fmt.Errorf("connection reset"))
	assert.False(t, known)
	assert.Equal(t, textFailure, text)
}
