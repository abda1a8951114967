// Package conversation models the ephemeral per-account dialog state.
//
// Sessions may be lost at any time (process restart, key expiry); callers treat a
// missing session as idle and restart the dialog.
package conversation

import (
	"context"
	"strconv"
)

// State is the current step of a multi-step dialog
type State string

// Dialog states
const (
	StateIdle State = ""

	StateSubmissionPhoto       State = "submission_photo"
	StateSubmissionDescription State = "submission_description"
	StateSubmissionStyle       State = "submission_style"
	StateSubmissionPrice       State = "submission_price"

	StateRegistrationPayment State = "registration_payment"
	StateRegistrationCity    State = "registration_city"
	StateRegistrationBio     State = "registration_bio"
	StateRegistrationSocials State = "registration_socials"

	StateEditCity    State = "edit_city"
	StateEditBio     State = "edit_bio"
	StateEditSocials State = "edit_socials"

	StateReviewRating State = "review_rating"
	StateReviewText   State = "review_text"
	StateReviewReply  State = "review_reply"
	StateComment      State = "comment"
	StateMasterCity   State = "master_search_city"

	StateAdminUserSearch   State = "admin_user_search"
	StateAdminCategoryName State = "admin_category_name"
	StateAdminMailingText  State = "admin_mailing_text"
	StateAdminMailingReady State = "admin_mailing_ready"
)

// Data keys
const (
	KeyPhotoFileID = "photo_file_id"
	KeyDescription = "description"
	KeyCategoryID  = "category_id"
	KeyInvoiceID   = "invoice_id"
	KeyCity        = "city"
	KeyCityFilter  = "city_filter"
	KeyBio         = "bio"
	KeyWorkID      = "work_id"
	KeyMasterID    = "master_id"
	KeyRating      = "rating"
	KeyReviewID    = "review_id"
	KeyMailingText = "mailing_text"
)

// Session is one account's dialog state
type Session struct {
	State State             `json:"state"`
	Data  map[string]string `json:"data,omitempty"`
}

// New starts a session in the given state with empty data
func New(state State) *Session {
	return &Session{State: state, Data: map[string]string{}}
}

// Set stores a string value
func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = map[string]string{}
	}
	s.Data[key] = value
}

// SetInt64 stores an integer value
func (s *Session) SetInt64(key string, value int64) {
	s.Set(key, strconv.FormatInt(value, 10))
}

// Get returns a string value
func (s *Session) Get(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// Int64 returns an integer value; ok is false when missing or malformed
func (s *Session) Int64(key string) (int64, bool) {
	raw := s.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Is reports whether the session is in state st
func (s *Session) Is(st State) bool {
	if s == nil {
		return st == StateIdle
	}
	return s.State == st
}

// Store persists sessions keyed by the account's external id
type Store interface {
	Load(ctx context.Context, accountID int64) (*Session, error)
	Save(ctx context.Context, accountID int64, session *Session) error
	Clear(ctx context.Context, accountID int64) error
}
