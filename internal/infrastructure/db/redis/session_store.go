package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 30 * time.Minute
)

var errSessionID = errors.New("session: could not generate id")

// SessionStore is a gorilla sessions.Store that keeps session values in
// Redis and only a signed session id in the cookie.
// Key format: session:<id>
type SessionStore struct {
	client     *redis.Client
	codecs     []securecookie.Codec
	serializer securecookie.GobEncoder
	ttl        time.Duration

	// Options is copied into every new session.
	Options *sessions.Options
}

// NewSessionStore returns a store signing cookies with keyPairs. A
// non-positive ttl falls back to sessionTTL.
func NewSessionStore(client *redis.Client, ttl time.Duration, keyPairs ...[]byte) *SessionStore {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &SessionStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		ttl:    ttl,
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the session cached in the request registry, loading it on
// first use.
func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie, or returns a fresh
// one when the cookie is absent, forged or expired server-side.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &sess.ID, s.codecs...); err != nil {
		sess.ID = ""
		return sess, nil
	}

	found, err := s.load(r.Context(), sess)
	if err != nil {
		return sess, err
	}
	if !found {
		sess.ID = ""
		return sess, nil
	}
	sess.IsNew = false
	return sess, nil
}

// Save persists the session and writes the cookie. A negative MaxAge
// deletes both. An empty ID is replaced by a fresh one, and the entry of
// the id the request arrived with is removed.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if err := s.client.Del(r.Context(), s.key(sess.ID)).Err(); err != nil {
				return fmt.Errorf("session delete: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	if sess.ID == "" {
		id, err := newSessionID()
		if err != nil {
			return err
		}
		sess.ID = id
		if prev := s.requestID(r, sess.Name()); prev != "" && prev != id {
			if err := s.client.Del(r.Context(), s.key(prev)).Err(); err != nil {
				return fmt.Errorf("session rotate: %w", err)
			}
		}
	}

	data, err := s.serializer.Serialize(sess.Values)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(r.Context(), s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(sess.Name(), encoded, sess.Options))
	return nil
}

func (s *SessionStore) load(ctx context.Context, sess *sessions.Session) (bool, error) {
	data, err := s.client.Get(ctx, s.key(sess.ID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session load: %w", err)
	}
	if err := s.serializer.Deserialize(data, &sess.Values); err != nil {
		return false, fmt.Errorf("session decode: %w", err)
	}
	return true, nil
}

// requestID returns the session id signed into the request cookie, or ""
// when there is none.
func (s *SessionStore) requestID(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return ""
	}
	return id
}

func (s *SessionStore) key(id string) string {
	return sessionKeyPrefix + id
}

func newSessionID() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", errSessionID
	}
	return hex.EncodeToString(b), nil
}
