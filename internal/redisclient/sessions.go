package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"tattoo-market/internal/conversation"
)

// SessionStore keeps conversation sessions as JSON values with a sliding TTL.
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore creates a session store; ttl <= 0 keeps sessions until cleared
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(accountID int64) string {
	return fmt.Sprintf("conversation:%d", accountID)
}

// Load returns the account's session, or an idle one when none is stored
func (s *SessionStore) Load(ctx context.Context, accountID int64) (*conversation.Session, error) {
	raw, err := s.client.rdb.Get(ctx, sessionKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return conversation.New(conversation.StateIdle), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session conversation.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// a corrupt session restarts the dialog
		return conversation.New(conversation.StateIdle), nil
	}
	if session.Data == nil {
		session.Data = map[string]string{}
	}
	return &session, nil
}

// Save stores the session; an idle session without data is cleared instead
func (s *SessionStore) Save(ctx context.Context, accountID int64, session *conversation.Session) error {
	if session == nil || (session.State == conversation.StateIdle && len(session.Data) == 0) {
		return s.Clear(ctx, accountID)
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.client.rdb.Set(ctx, sessionKey(accountID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear drops the session
func (s *SessionStore) Clear(ctx context.Context, accountID int64) error {
	return s.client.rdb.Del(ctx, sessionKey(accountID)).Err()
}
