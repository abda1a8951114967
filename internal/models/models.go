package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Account roles
const (
	RoleClient = "client"
	RoleMaster = "master"
)

// Account is a chat user known to the marketplace
type Account struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID int64     `db:"external_id" json:"external_id"`
	Username   string    `db:"username" json:"username"`
	FullName   string    `db:"full_name" json:"full_name"`
	Role       string    `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// IsMaster reports whether the account holds the master role
func (a *Account) IsMaster() bool {
	return a != nil && a.Role == RoleMaster
}

// Handle returns the @-less username or a placeholder
func (a *Account) Handle() string {
	if a == nil || a.Username == "" {
		return "hidden"
	}
	return a.Username
}

// SocialLink is a single contact link on a master profile
type SocialLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SocialLinks is stored as a JSONB array. Values are sent as text so lib/pq
// does not encode them as bytea.
type SocialLinks []SocialLink

// Value implements driver.Valuer
func (l SocialLinks) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner
func (l *SocialLinks) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported social links type %T", src)
	}
}

// URLs returns the link targets in order
func (l SocialLinks) URLs() []string {
	urls := make([]string, 0, len(l))
	for _, link := range l {
		urls = append(urls, link.URL)
	}
	return urls
}

// MasterProfile is the public profile of an account in role master
type MasterProfile struct {
	ID          int64       `db:"id" json:"id"`
	AccountID   int64       `db:"account_id" json:"account_id"`
	City        string      `db:"city" json:"city"`
	Bio         string      `db:"bio" json:"bio"`
	SocialLinks SocialLinks `db:"social_links" json:"social_links"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	Rating      float64     `db:"rating" json:"rating"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// MasterCard is a master profile joined with its account for display
type MasterCard struct {
	MasterProfile
	Username   string `db:"username" json:"username"`
	ExternalID int64  `db:"external_id" json:"external_id"`
}

// Category is a work style tag
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Work is a master's submission
type Work struct {
	ID          int64      `db:"id" json:"id"`
	MasterID    int64      `db:"master_id" json:"master_id"`
	CategoryID  int64      `db:"category_id" json:"category_id"`
	ImageFileID string     `db:"image_file_id" json:"image_file_id"`
	Description string     `db:"description" json:"description"`
	Price       int64      `db:"price" json:"price"`
	Status      WorkStatus `db:"status" json:"status"`
	LikesCount  int        `db:"likes_count" json:"likes_count"`
	InvoiceID   *int64     `db:"invoice_id" json:"invoice_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// WorkCard is a work with the display fields recomputed at fetch time
type WorkCard struct {
	Work
	CategoryName     string `db:"category_name" json:"category_name"`
	MasterUsername   string `db:"master_username" json:"master_username"`
	MasterExternalID int64  `db:"master_external_id" json:"master_external_id"`
	CommentCount     int    `db:"comment_count" json:"comment_count"`
	Liked            bool   `db:"-" json:"liked"`
}

// Review is a client's rating of a master
type Review struct {
	ID        int64     `db:"id" json:"id"`
	WorkID    *int64    `db:"work_id" json:"work_id,omitempty"`
	MasterID  int64     `db:"master_id" json:"master_id"`
	ClientID  int64     `db:"client_id" json:"client_id"`
	Rating    int       `db:"rating" json:"rating"`
	Text      string    `db:"text" json:"text"`
	Reply     *string   `db:"reply" json:"reply,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReviewCard is a review joined with the handles of both parties
type ReviewCard struct {
	Review
	ClientUsername   string `db:"client_username" json:"client_username"`
	ClientExternalID int64  `db:"client_external_id" json:"client_external_id"`
	MasterUsername   string `db:"master_username" json:"master_username"`
	MasterExternalID int64  `db:"master_external_id" json:"master_external_id"`
}

// Like is the (account, work) join row
type Like struct {
	AccountID int64 `db:"account_id" json:"account_id"`
	WorkID    int64 `db:"work_id" json:"work_id"`
}

// Comment is an append-only remark on a work
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	WorkID    int64     `db:"work_id" json:"work_id"`
	AccountID int64     `db:"account_id" json:"account_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CommentView is a comment with its author's handle
type CommentView struct {
	Comment
	Username   string `db:"username" json:"username"`
	ExternalID int64  `db:"external_id" json:"external_id"`
}

// Setting keys
const (
	SettingMasterPrice = "master_price"
)

// Setting is an operator-tunable parameter
type Setting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}
