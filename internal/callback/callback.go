// Package callback encodes inline-button payloads as a tagged union.
//
// Wire form is "<tag>:<field>:<field>...", kept under the 64-byte limit of the
// chat provider. Decode returns one concrete Payload type per interaction family;
// callers dispatch on it with a type switch.
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tattoo-market/internal/pagination"
)

// MaxLen is the provider limit for callback data
const MaxLen = 64

// ErrMalformed is returned for payloads that do not decode
var ErrMalformed = errors.New("malformed callback payload")

// Tags
const (
	TagPage       = "pg"
	TagMasters    = "ms"
	TagModeration = "mod"
	TagLike       = "lk"
	TagReview     = "rv"
	TagCategory   = "cat"
	TagPayment    = "pay"
	TagComment    = "cm"
	TagMaster     = "mp"
	TagMenu       = "mn"
)

// Payload is implemented by every payload family
type Payload interface {
	Tag() string
	fields() []string
}

// Listing identifies an id-keyed listing
type Listing string

// Listings
const (
	ListingWorks         Listing = "w"
	ListingOwnWorks      Listing = "ow"
	ListingAdminReviews  Listing = "ar"
	ListingMasterReviews Listing = "mr"
	ListingAdminPayments Listing = "ap"
)

// Page steps through an id-keyed listing
type Page struct {
	Listing    Listing
	Direction  pagination.Direction
	Anchor     int64
	CategoryID int64
}

func (Page) Tag() string { return TagPage }
func (p Page) fields() []string {
	return []string{string(p.Listing), string(p.Direction), itoa(p.Anchor), itoa(p.CategoryID)}
}

// Masters steps through the ranked master list. ByCity pages the city search
// whose filter lives in the conversation session.
type Masters struct {
	Page   int
	ByCity bool
}

// masters field marking a city-filtered page
const mastersByCity = "c"

func (Masters) Tag() string { return TagMasters }
func (m Masters) fields() []string {
	fields := []string{strconv.Itoa(m.Page)}
	if m.ByCity {
		fields = append(fields, mastersByCity)
	}
	return fields
}

// Moderation actions
const (
	ModerationApprove = "ok"
	ModerationReject  = "no"
)

// Moderation is an admin decision on a work
type Moderation struct {
	Action string
	WorkID int64
}

func (Moderation) Tag() string { return TagModeration }
func (m Moderation) fields() []string {
	return []string{m.Action, itoa(m.WorkID)}
}

// Like toggles a like on a work
type Like struct {
	WorkID     int64
	CategoryID int64
}

func (Like) Tag() string { return TagLike }
func (l Like) fields() []string {
	return []string{itoa(l.WorkID), itoa(l.CategoryID)}
}

// Review actions
const (
	ReviewCreate        = "new"
	ReviewCreateForWork = "neww"
	ReviewRate          = "rate"
	ReviewReply         = "reply"
	ReviewDelete        = "del"
)

// Review covers creating, rating, replying to and deleting reviews
type Review struct {
	Action string
	ID     int64
	Rating int
}

func (Review) Tag() string { return TagReview }
func (r Review) fields() []string {
	return []string{r.Action, itoa(r.ID), strconv.Itoa(r.Rating)}
}

// Category actions
const (
	CategoryAdd    = "add"
	CategoryDelete = "del"
	CategoryPick   = "pick"
	CategoryFilter = "filter"
)

// Category covers admin management, draft style choice and browse filters
type Category struct {
	Action string
	ID     int64
}

func (Category) Tag() string { return TagCategory }
func (c Category) fields() []string {
	return []string{c.Action, itoa(c.ID)}
}

// Payment checks an invoice; WorkID zero means master registration
type Payment struct {
	WorkID    int64
	InvoiceID int64
}

func (Payment) Tag() string { return TagPayment }
func (p Payment) fields() []string {
	return []string{itoa(p.WorkID), itoa(p.InvoiceID)}
}

// Comment actions
const (
	CommentView   = "view"
	CommentCreate = "new"
	CommentBack   = "back"
)

// Comment covers viewing pages of comments and starting a new one
type Comment struct {
	Action string
	WorkID int64
	Page   int
}

func (Comment) Tag() string { return TagComment }
func (c Comment) fields() []string {
	return []string{c.Action, itoa(c.WorkID), strconv.Itoa(c.Page)}
}

// Master opens a master card (ID is the profile id) or acts on a master as
// admin (ID is the account id)
type Master struct {
	Action string
	ID     int64
}

// Master actions
const (
	MasterView    = "view"
	MasterBlock   = "block"
	MasterUnblock = "unblock"
	MasterRevoke  = "revoke"
)

func (Master) Tag() string { return TagMaster }
func (m Master) fields() []string {
	return []string{m.Action, itoa(m.ID)}
}

// Menu is a parameterless navigation button
type Menu struct {
	Action string
}

// Menu actions
const (
	MenuWorks           = "works"
	MenuMasters         = "masters"
	MenuBecomeMaster    = "register"
	MenuAddWork         = "add_work"
	MenuOwnWorks        = "own_works"
	MenuFAQ             = "faq"
	MenuContacts        = "contacts"
	MenuAdminMain       = "admin"
	MenuAdminUsers      = "users"
	MenuAdminCategories = "cats"
	MenuAdminReviews    = "reviews"
	MenuAdminPayments   = "payments"
	MenuAdminMailing    = "mailing"
	MenuMailingSend     = "mail_send"
	MenuMailingCancel   = "mail_cancel"
	MenuWorksAll        = "works_all"
	MenuWorksByStyle    = "works_style"
	MenuMastersAll      = "masters_all"
	MenuMastersByCity   = "masters_city"
	MenuProfile         = "profile"
	MenuProfileEdit     = "profile_edit"
	MenuEditCity        = "edit_city"
	MenuEditBio         = "edit_bio"
	MenuEditSocials     = "edit_socials"
	MenuMasterReviews   = "my_reviews"
)

func (Menu) Tag() string { return TagMenu }
func (m Menu) fields() []string {
	return []string{m.Action}
}

// Encode renders a payload to wire form. Payloads carry only ids, numbers and
// action constants, so the result stays within MaxLen.
func Encode(p Payload) string {
	parts := append([]string{p.Tag()}, p.fields()...)
	return strings.Join(parts, ":")
}

// Decode parses wire form into its payload family
func Decode(data string) (Payload, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, data)
	}

	f := fieldReader{parts: parts[1:]}
	var p Payload
	switch parts[0] {
	case TagPage:
		dir, err := pagination.ParseDirection(f.str(1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		p = Page{Listing: Listing(f.str(0)), Direction: dir, Anchor: f.int64(2), CategoryID: f.int64(3)}
	case TagMasters:
		flag := f.str(1)
		if flag != "" && flag != mastersByCity {
			return nil, fmt.Errorf("%w: masters flag %q", ErrMalformed, flag)
		}
		p = Masters{Page: int(f.int64(0)), ByCity: flag == mastersByCity}
	case TagModeration:
		p = Moderation{Action: f.str(0), WorkID: f.int64(1)}
	case TagLike:
		p = Like{WorkID: f.int64(0), CategoryID: f.int64(1)}
	case TagReview:
		p = Review{Action: f.str(0), ID: f.int64(1), Rating: int(f.int64(2))}
	case TagCategory:
		p = Category{Action: f.str(0), ID: f.int64(1)}
	case TagPayment:
		p = Payment{WorkID: f.int64(0), InvoiceID: f.int64(1)}
	case TagComment:
		p = Comment{Action: f.str(0), WorkID: f.int64(1), Page: int(f.int64(2))}
	case TagMaster:
		p = Master{Action: f.str(0), ID: f.int64(1)}
	case TagMenu:
		p = Menu{Action: f.str(0)}
	default:
		return nil, fmt.Errorf("%w: unknown tag %q", ErrMalformed, parts[0])
	}

	if f.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, f.err)
	}
	return p, nil
}

type fieldReader struct {
	parts []string
	err   error
}

func (f *fieldReader) str(i int) string {
	if i >= len(f.parts) {
		return ""
	}
	return f.parts[i]
}

func (f *fieldReader) int64(i int) int64 {
	raw := f.str(i)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil && f.err == nil {
		f.err = err
	}
	return v
}

func itoa(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
