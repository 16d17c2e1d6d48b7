package auth

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/xeze-org/bl/internal/models"
	"github.com/xeze-org/bl/internal/views"
)

// Handler holds the board login and logout handlers. The secret and guest
// gates run before it, so any secret on the request is already valid.
type Handler struct {
	accounts *Accounts
	sessions *SessionStore
	views    *views.Renderer
	log      logrus.FieldLogger
}

func NewHandler(accounts *Accounts, sessions *SessionStore, v *views.Renderer, log logrus.FieldLogger) *Handler {
	return &Handler{accounts: accounts, sessions: sessions, views: v, log: log}
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess := FromContext(r.Context())
	h.views.Render(w, http.StatusOK, views.PageBoardLogin, views.LoginPage{
		Base: views.Base{Flash: sess.Shown(), Secret: r.FormValue("secret")},
	})
}

// Login checks the submitted credentials. Any failure leaves the session
// signed out, sets an error flash and sends the caller back to the form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	sess := FromContext(r.Context())
	req := models.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		h.log.WithField("username", req.Username).Info("login rejected")
		sess.SetFlash(models.FlashError, "wrong credentials")
		if err := h.sessions.Save(r.Context(), w, sess); err != nil {
			h.views.Fail(w, r, err)
			return
		}
		http.Redirect(w, r, "/board/login?secret="+url.QueryEscape(r.FormValue("secret")), http.StatusFound)
		return
	}
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}

	if err := h.sessions.Rotate(r.Context(), sess); err != nil {
		h.views.Fail(w, r, err)
		return
	}
	sess.SignIn(user.ID)
	sess.SetFlash(models.FlashSuccess, "welcome back, "+user.Fullname)
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.views.Fail(w, r, err)
		return
	}
	h.log.WithField("user_id", user.ID).Info("operator signed in")
	http.Redirect(w, r, "/board", http.StatusFound)
}

// Logout clears the whole session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := FromContext(r.Context())
	if err := h.sessions.Destroy(r.Context(), w, sess); err != nil {
		h.log.WithError(err).Warn("destroy session failed")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
