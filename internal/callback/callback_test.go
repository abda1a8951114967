package callback

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tattoo-market/internal/pagination"
)

func TestDecodeDispatchesByFamily(t *testing.T) {
	cases := []struct {
		name string
		in   Payload
	}{
		{"page", Page{Listing: ListingWorks, Direction: pagination.Next, Anchor: 42, CategoryID: 3}},
		{"first page", Page{Listing: ListingAdminReviews, Direction: pagination.First}},
		{"masters", Masters{Page: 2}},
		{"masters by city", Masters{Page: 2, ByCity: true}},
		{"moderation", Moderation{Action: ModerationApprove, WorkID: 9}},
		{"like", Like{WorkID: 11}},
		{"review", Review{Action: ReviewRate, ID: 5, Rating: 4}},
		{"category", Category{Action: CategoryPick, ID: 2}},
		{"registration payment", Payment{InvoiceID: 777}},
		{"work payment", Payment{WorkID: 3, InvoiceID: 778}},
		{"comment", Comment{Action: CommentView, WorkID: 8, Page: 2}},
		{"master", Master{Action: MasterBlock, ID: 100500}},
		{"menu", Menu{Action: MenuAdminMain}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := Encode(tc.in)
			assert.True(t, strings.HasPrefix(data, tc.in.Tag()+":"))

			out, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tc.in, out)
		})
	}
}

func TestDecodeTypeSwitch(t *testing.T) {
	p, err := Decode("mod:no:15")
	require.NoError(t, err)

	switch v := p.(type) {
	case Moderation:
		assert.Equal(t, ModerationReject, v.Action)
		assert.Equal(t, int64(15), v.WorkID)
	default:
		t.Fatalf("unexpected payload %T", p)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "nothing", "zz:1", "lk:abc", "pg:w:sideways:1", "ms:2:Berlin"} {
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrMalformed, data)
	}
}

func TestEncodeFitsProviderLimit(t *testing.T) {
	const maxID = int64(math.MaxInt64)
	widest := []Payload{
		Page{Listing: ListingAdminPayments, Direction: pagination.Prev, Anchor: maxID, CategoryID: maxID},
		Masters{Page: math.MaxInt32, ByCity: true},
		Moderation{Action: ModerationApprove, WorkID: maxID},
		Like{WorkID: maxID, CategoryID: maxID},
		Review{Action: ReviewCreateForWork, ID: maxID, Rating: 5},
		Category{Action: CategoryFilter, ID: maxID},
		Payment{WorkID: maxID, InvoiceID: maxID},
		Comment{Action: CommentCreate, WorkID: maxID, Page: math.MaxInt32},
		Master{Action: MasterUnblock, ID: maxID},
		Menu{Action: MenuMasterReviews},
	}

	for _, p := range widest {
		data := Encode(p)
		assert.LessOrEqual(t, len(data), MaxLen, data)
		assert.True(t, utf8.ValidString(data), data)

		out, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, p, out)
	}
}
