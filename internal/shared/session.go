package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// Session holds per-request session data.
type Session struct {
	ID        string
	values    map[string]string
	userID    int64
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	Values map[string]string `json:"values"`
	UserID int64             `json:"user_id"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Load reads the session referenced by the request cookie, or starts a new one.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return newSession(), nil
		}
		return nil, err
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Unknown or expired id: never adopt a client supplied identifier.
			return newSession(), nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	return &Session{
		ID:     cookie.Value,
		values: stored.Values,
		userID: stored.UserID,
	}, nil
}

// Commit persists the session and writes cookie headers as needed. Anonymous
// sessions that were never written to are not stored.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if !sess.dirty {
		return nil
	}

	data, err := json.Marshal(sessionPayload{Values: sess.values, UserID: sess.userID})
	if err != nil {
		return err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl).Err(); err != nil {
		return err
	}
	sess.dirty = false
	sess.isNew = false

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// Destroy marks the session for deletion.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// Renew rotates the session identifier, typically right after login.
func (sm *SessionManager) Renew(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	if !sess.isNew {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
	}
	sess.ID = generateSessionID()
	sess.dirty = true
	return nil
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// SetUser associates the session with a user ID.
func (s *Session) SetUser(id int64) {
	s.userID = id
	s.dirty = true
}

// UserID returns the authenticated user ID, or zero for anonymous sessions.
func (s *Session) UserID() int64 {
	if s == nil {
		return 0
	}
	return s.userID
}

// User returns the user ID as a string, empty when anonymous.
func (s *Session) User() string {
	if s == nil || s.userID == 0 {
		return ""
	}
	return strconv.FormatInt(s.userID, 10)
}

// Destroyed reports whether Destroy was called on the session.
func (s *Session) Destroyed() bool {
	return s != nil && s.destroyed
}

func newSession() *Session {
	return &Session{
		ID:     generateSessionID(),
		values: make(map[string]string),
		isNew:  true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

func generateSessionID() string {
	return uuid.NewString()
}
