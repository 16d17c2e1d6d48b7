package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeze-org/bl/internal/models"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSessionStore(rdb, "session-secret", time.Hour), mr
}

// requestWithCookies replays the cookies set on rec.
func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/board", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionStore_SaveLoad(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()

	sess, err := store.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.False(t, sess.Auth)

	sess.SignIn(42)
	sess.Stage(StagingNew, models.ArticleForm{Slug: "hello"})
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(ctx, rec, sess))
	assert.True(t, mr.Exists("session:"+sess.ID))

	loaded, err := store.Load(requestWithCookies(rec))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.True(t, loaded.Auth)
	assert.Equal(t, int64(42), loaded.UserID)
	form, ok := loaded.Staged(StagingNew)
	assert.True(t, ok)
	assert.Equal(t, "hello", form.Slug)
}

func TestSessionStore_ForgedCookie(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	sess, err := store.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SignIn(1)
	require.NoError(t, store.Save(ctx, httptest.NewRecorder(), sess))

	// Bare session id, not signed.
	req := httptest.NewRequest(http.MethodGet, "/board", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.ID})
	loaded, err := store.Load(req)
	require.NoError(t, err)
	assert.False(t, loaded.Auth)
	assert.NotEqual(t, sess.ID, loaded.ID)

	// Signed with another secret.
	other := NewSessionStore(store.rdb, "other-secret", time.Hour)
	token, err := other.sign(sess.ID)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/board", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	loaded, err = store.Load(req)
	require.NoError(t, err)
	assert.False(t, loaded.Auth)
}

func TestSessionStore_ExpiredInRedis(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()

	sess := newSession()
	sess.SignIn(1)
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(ctx, rec, sess))

	mr.FastForward(2 * time.Hour)

	loaded, err := store.Load(requestWithCookies(rec))
	require.NoError(t, err)
	assert.False(t, loaded.Auth)
}

func TestSessionStore_RedisDown(t *testing.T) {
	store, mr := newTestSessionStore(t)

	sess := newSession()
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(context.Background(), rec, sess))
	mr.Close()

	_, err := store.Load(requestWithCookies(rec))
	assert.Error(t, err)
}

func TestSessionStore_RotateAndDestroy(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()

	sess := newSession()
	require.NoError(t, store.Save(ctx, httptest.NewRecorder(), sess))
	oldID := sess.ID

	require.NoError(t, store.Rotate(ctx, sess))
	assert.NotEqual(t, oldID, sess.ID)
	assert.False(t, mr.Exists("session:"+oldID))

	sess.SignIn(3)
	require.NoError(t, store.Save(ctx, httptest.NewRecorder(), sess))
	id := sess.ID

	rec := httptest.NewRecorder()
	require.NoError(t, store.Destroy(ctx, rec, sess))
	assert.False(t, mr.Exists("session:"+id))
	assert.False(t, sess.Auth)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSession_FlashIsOneShot(t *testing.T) {
	sess := newSession()
	assert.False(t, sess.TakeFlash())

	sess.SetFlash(models.FlashError, "wrong credentials")
	assert.True(t, sess.TakeFlash())
	assert.Equal(t, &models.Flash{Type: models.FlashError, Message: "wrong credentials"}, sess.Shown())
	assert.Nil(t, sess.Flash)

	assert.False(t, sess.TakeFlash())
}

func TestSession_StagingIsPerKey(t *testing.T) {
	sess := newSession()
	sess.Stage(StagingEdit("s"), models.ArticleForm{Title: "S"})
	sess.Stage(StagingEdit("t"), models.ArticleForm{Title: "T"})

	sess.Unstage(StagingEdit("s"))

	_, ok := sess.Staged(StagingEdit("s"))
	assert.False(t, ok)
	form, ok := sess.Staged(StagingEdit("t"))
	require.True(t, ok)
	assert.Equal(t, "T", form.Title)
}

func TestFromContext(t *testing.T) {
	sess := newSession()
	ctx := WithSession(context.Background(), sess)
	assert.Same(t, sess, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
