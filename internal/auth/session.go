package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xeze-org/bl/internal/models"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "bl.session"

	// StagingNew is the staging key of the add-article form.
	StagingNew = "new"
)

// StagingEdit is the staging key of the edit form for slug.
func StagingEdit(slug string) string { return "edit:" + slug }

// Session is the per-browser state kept in Redis.
type Session struct {
	ID      string                        `json:"-"`
	Auth    bool                          `json:"auth"`
	UserID  int64                         `json:"user_id,omitempty"`
	Flash   *models.Flash                 `json:"flash,omitempty"`
	Staging map[string]models.ArticleForm `json:"staging,omitempty"`

	isNew bool
	shown *models.Flash
}

func newSession() *Session {
	return &Session{ID: uuid.New().String(), isNew: true}
}

// SignIn marks the session as an authenticated operator.
func (s *Session) SignIn(userID int64) {
	s.Auth = true
	s.UserID = userID
}

// SetFlash replaces the pending flash message.
func (s *Session) SetFlash(typ, message string) {
	s.Flash = &models.Flash{Type: typ, Message: message}
}

// TakeFlash moves the pending flash into this request's view and clears
// it from the session. It reports whether the session changed.
func (s *Session) TakeFlash() bool {
	if s.Flash == nil {
		return false
	}
	s.shown = s.Flash
	s.Flash = nil
	return true
}

// Shown returns the flash consumed for the current request, if any.
func (s *Session) Shown() *models.Flash { return s.shown }

// Stage keeps a rejected form under key.
func (s *Session) Stage(key string, form models.ArticleForm) {
	if s.Staging == nil {
		s.Staging = make(map[string]models.ArticleForm)
	}
	s.Staging[key] = form
}

// Staged returns the form staged under key.
func (s *Session) Staged(key string) (models.ArticleForm, bool) {
	f, ok := s.Staging[key]
	return f, ok
}

// Unstage drops the form staged under key and leaves other keys alone.
func (s *Session) Unstage(key string) {
	delete(s.Staging, key)
}

type ctxKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the request's session. Requests that did not pass
// through the session middleware get an empty, unsaved session.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return sess
	}
	return newSession()
}

// SessionStore wraps Redis for session management. The cookie only holds
// the session id, signed with the session secret.
type SessionStore struct {
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionStore(rdb *redis.Client, secret string, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &SessionStore{rdb: rdb, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Load resolves the request's session. A missing, forged or expired cookie
// yields a fresh session; only Redis failures are errors.
func (s *SessionStore) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return newSession(), nil
	}
	sid, ok := s.verify(cookie.Value)
	if !ok {
		return newSession(), nil
	}

	raw, err := s.rdb.Get(r.Context(), "session:"+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return newSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return newSession(), nil
	}
	sess.ID = sid
	return &sess, nil
}

// Save persists sess and refreshes the cookie.
func (s *SessionStore) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, "session:"+sess.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	token, err := s.sign(sess.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl / time.Second),
	})
	sess.isNew = false
	return nil
}

// Rotate gives sess a new id and drops the old Redis entry. Used on login.
func (s *SessionStore) Rotate(ctx context.Context, sess *Session) error {
	if !sess.isNew {
		if err := s.rdb.Del(ctx, "session:"+sess.ID).Err(); err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
	}
	sess.ID = uuid.New().String()
	sess.isNew = true
	return nil
}

// Destroy removes the session and expires the cookie.
func (s *SessionStore) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	err := s.rdb.Del(ctx, "session:"+sess.ID).Err()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	*sess = *newSession()
	if err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *SessionStore) sign(sid string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

func (s *SessionStore) verify(value string) (string, bool) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}
