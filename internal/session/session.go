// Package session provides Valkey-backed HTTP session management.
// Sessions are identified by a random cookie value and stored as JSON in
// Valkey with automatic TTL expiry. Each user also has an index of their
// session ids so all of them can be revoked at once.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "iw_session"

	// DefaultTTL is how long a signed-in session lives.
	DefaultTTL = 7 * 24 * time.Hour

	// PendingTTL bounds a session that still waits for the authenticator
	// code.
	PendingTTL = 10 * time.Minute

	keyPrefix     = "session:"
	userKeyPrefix = "session-user:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrNoCookie is returned by Update when the request carries no session.
var ErrNoCookie = errors.New("session: no cookie")

// Data holds the session payload stored in Valkey.
type Data struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	// AwaitingTOTP is set after the emailed code was accepted for an
	// account that also signs in with an authenticator app. The session
	// does not identify the user until the second step completes.
	AwaitingTOTP bool      `json:"awaiting_totp"`
	CreatedAt    time.Time `json:"created_at"`
}

// Authenticated reports whether the session fully identifies its user.
func (d *Data) Authenticated() bool {
	return d != nil && d.UserID != "" && !d.AwaitingTOTP
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure sets the Secure flag on the cookie and should be true behind TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// ttlFor returns the lifetime of a session holding data.
func (s *Store) ttlFor(data *Data) time.Duration {
	if data.AwaitingTOTP {
		return min(PendingTTL, s.ttl)
	}
	return s.ttl
}

// save writes the session and indexes it under its user in one round trip.
func (s *Store) save(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+id, payload, s.ttlFor(data))
		if data.UserID != "" {
			pipe.SAdd(ctx, userKeyPrefix+data.UserID, id)
			pipe.Expire(ctx, userKeyPrefix+data.UserID, s.ttl)
		}
		return nil
	})
	return err
}

// Create generates a new session, stores it in Valkey, and sets the
// session cookie on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now().UTC()
	if err := s.save(ctx, id, data); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// Get retrieves session data from Valkey using the session ID from the
// request cookie. Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Update replaces the session data without changing the session ID or
// cookie. The TTL restarts for the new state, so completing the
// authenticator step extends a pending session to the full lifetime.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ErrNoCookie
	}
	if err := s.save(ctx, cookie.Value, data); err != nil {
		return fmt.Errorf("session update: %w", err)
	}
	return nil
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	if err := s.client.Del(ctx, keyPrefix+cookie.Value).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	return nil
}

// RevokeOthers deletes every session of userID except the one the
// request carries. It returns how many sessions were removed.
func (s *Store) RevokeOthers(ctx context.Context, r *http.Request, userID string) (int, error) {
	var keep string
	if cookie, err := r.Cookie(CookieName); err == nil {
		keep = cookie.Value
	}

	indexKey := userKeyPrefix + userID
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("session list: %w", err)
	}

	var keys, stale []string
	for _, id := range ids {
		if id == keep {
			continue
		}
		keys = append(keys, keyPrefix+id)
		stale = append(stale, id)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, keys...)
		pipe.SRem(ctx, indexKey, stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("session revoke: %w", err)
	}
	return int(removed.Val()), nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
