package middleware

import (
	"crypto/subtle"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/xeze-org/bl/internal/auth"
)

// Sessions loads the caller's session and injects it into the request
// context. A pending flash is consumed here, so it lives for exactly one
// request whether or not the page shows it.
func Sessions(store *auth.SessionStore, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Load(r)
			if err != nil {
				log.WithError(err).WithField("request_id", chimw.GetReqID(r.Context())).Error("session unavailable")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if sess.TakeFlash() {
				if err := store.Save(r.Context(), w, sess); err != nil {
					log.WithError(err).WithField("request_id", chimw.GetReqID(r.Context())).Error("session save failed")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

// RequireUser redirects callers without an authenticated session home.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.FromContext(r.Context()).Auth {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireGuest sends an already signed-in operator back to the board.
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()).Auth {
			http.Redirect(w, r, "/board", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSecret redirects home unless the request carries secret in its
// "secret" parameter. The response says nothing about why.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ValidSecret(r, secret) {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidSecret reports whether r carries secret. An empty secret never
// matches.
func ValidSecret(r *http.Request, secret string) bool {
	got := r.FormValue("secret")
	if secret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
}
