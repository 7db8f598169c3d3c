// Package session provides cookie sessions stored in a cache.Store.
//
//	mgr := session.NewManager(store, session.DefaultOptions())
//	r.Use(mgr.Middleware)
//
//	sess := session.FromCtx(r.Context())
//	sess.Set("user_id", user.ID)
//	sess.Flash("success", "You have been logged in!")
//	_ = sess.Save(r.Context(), w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/farmlink/pkg/cache"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

const flashKey = "_flashes"

// Options configures session behaviour.
type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions returns development defaults.
func DefaultOptions() Options {
	return Options{
		CookieName: "farmlink_session",
		TTL:        2 * time.Hour,
		HTTPOnly:   true,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// FlashMessage is a one-shot message shown on the next response.
type FlashMessage struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Manager loads and persists sessions.
type Manager struct {
	store cache.Store
	opts  Options
}

// NewManager returns a Manager over store.
func NewManager(store cache.Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultOptions().CookieName
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &Manager{store: store, opts: opts}
}

// Options returns the manager's options.
func (m *Manager) Options() Options { return m.opts }

// Session is an in-request session handle. It is not safe for concurrent use.
type Session struct {
	mgr     *Manager
	id      string
	staleID string
	data    map[string]json.RawMessage
	changed bool
}

func newID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: read random: %v", err))
	}
	return hex.EncodeToString(b)
}

func storeKey(id string) string { return "session:" + id }

// Load returns the session named by the request cookie, or a fresh one.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	s := &Session{mgr: m, data: map[string]json.RawMessage{}}

	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		s.id = newID()
		return s, nil
	}

	s.id = cookie.Value
	ok, err := m.store.Get(r.Context(), storeKey(s.id), &s.data)
	if err != nil {
		s.id = newID()
		s.data = map[string]json.RawMessage{}
		return s, fmt.Errorf("session: load: %w", err)
	}
	if !ok || s.data == nil {
		// Unknown or expired id: never adopt a client-chosen id.
		s.id = newID()
		s.data = map[string]json.RawMessage{}
	}
	return s, nil
}

// New returns an empty, unsaved session bound to m.
func (m *Manager) New() *Session {
	return &Session{mgr: m, id: newID(), data: map[string]json.RawMessage{}}
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("session: encode %q: %v", key, err))
	}
	s.data[key] = raw
	s.changed = true
}

// Get decodes the value under key into dest and reports whether it existed.
func (s *Session) Get(key string, dest any) bool {
	raw, ok := s.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// GetString returns the string under key, or "".
func (s *Session) GetString(key string) string {
	var v string
	s.Get(key, &v)
	return v
}

// GetUint returns the unsigned integer under key, or 0.
func (s *Session) GetUint(key string) uint {
	var v uint
	s.Get(key, &v)
	return v
}

// Has reports whether key is set.
func (s *Session) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

// Delete removes key.
func (s *Session) Delete(key string) {
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.changed = true
	}
}

// Flash queues a message for the next response.
func (s *Session) Flash(category, message string) {
	var list []FlashMessage
	s.Get(flashKey, &list)
	s.Set(flashKey, append(list, FlashMessage{Category: category, Message: message}))
}

// Flashes returns and clears the queued messages.
func (s *Session) Flashes() []FlashMessage {
	var list []FlashMessage
	if !s.Get(flashKey, &list) {
		return nil
	}
	s.Delete(flashKey)
	return list
}

// Regenerate moves the session to a new id, keeping its data. Call it when
// the privilege level changes (login).
func (s *Session) Regenerate() {
	if s.staleID == "" {
		s.staleID = s.id
	}
	s.id = newID()
	s.changed = true
}

// Invalidate drops all data and moves the session to a new id (logout).
func (s *Session) Invalidate() {
	s.data = map[string]json.RawMessage{}
	s.Regenerate()
}

// Save persists the session and writes the cookie. It is a no-op when
// nothing changed.
func (s *Session) Save(ctx context.Context, w http.ResponseWriter) error {
	if !s.changed {
		return nil
	}
	opts := s.mgr.opts

	if s.staleID != "" {
		if err := s.mgr.store.Del(ctx, storeKey(s.staleID)); err != nil {
			return fmt.Errorf("session: drop old id: %w", err)
		}
		s.staleID = ""
	}

	if err := s.mgr.store.Set(ctx, storeKey(s.id), s.data, opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     opts.CookieName,
		Value:    s.id,
		Path:     opts.Path,
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})

	s.changed = false
	return nil
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromCtx returns the session stored by Middleware, or nil.
func FromCtx(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// Middleware loads the session for every request and injects it into the
// request context. A store failure degrades to a fresh session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Load(r)
		if err != nil {
			logger.WithCtx(r.Context()).Warn("session: store unavailable, starting fresh session", "error", err)
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
