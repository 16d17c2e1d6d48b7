// Package app assembles the HTTP router from the service's handlers.
package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/xeze-org/bl/internal/articles"
	"github.com/xeze-org/bl/internal/auth"
	"github.com/xeze-org/bl/internal/blog"
	"github.com/xeze-org/bl/internal/board"
	"github.com/xeze-org/bl/internal/middleware"
	"github.com/xeze-org/bl/internal/views"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Articles     *articles.Manager
	Accounts     *auth.Accounts
	Sessions     *auth.SessionStore
	Views        *views.Renderer
	AccessSecret string
	CORSOrigins  []string
	Log          logrus.FieldLogger
}

func NewRouter(d Deps) http.Handler {
	blogHandler := blog.NewHandler(d.Articles, d.Views)
	boardHandler := board.NewHandler(d.Articles, d.Sessions, d.Views, d.AccessSecret, d.Log)
	authHandler := auth.NewHandler(d.Accounts, d.Sessions, d.Views, d.Log)
	secret := middleware.RequireSecret(d.AccessSecret)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestLogger(&chimw.DefaultLogFormatter{Logger: d.Log, NoColor: true}))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	sessions := middleware.Sessions(d.Sessions, d.Log)
	notFound := func(w http.ResponseWriter, r *http.Request) {
		sess := auth.FromContext(r.Context())
		d.Views.NotFound(w, views.Base{Flash: sess.Shown(), Board: sess.Auth})
	}
	r.NotFound(sessions(http.HandlerFunc(notFound)).ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(sessions)

		// Public routes
		r.Get("/", blogHandler.Index)
		r.Get("/article/{slug}", blogHandler.Article)

		r.Route("/board", func(r chi.Router) {
			// Sessions already ran for everything mounted here.
			r.NotFound(notFound)
			r.With(secret, middleware.RequireGuest).Get("/login", authHandler.LoginPage)
			r.With(secret, middleware.RequireGuest).Post("/login", authHandler.Login)

			// Operator routes (session gate)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Get("/", boardHandler.Dashboard)
				r.Get("/logout", authHandler.Logout)

				r.Get("/articles", boardHandler.Articles)
				r.With(secret).Post("/articles", boardHandler.Create)
				r.Get("/articles/add", boardHandler.AddForm)
				r.Get("/articles/add/clear_previous", boardHandler.ClearPrevious)

				r.Route("/article/{slug}", func(r chi.Router) {
					r.Get("/", boardHandler.Article)
					r.Get("/edit", boardHandler.EditForm)
					r.Get("/clear_edits", boardHandler.ClearEdits)
					r.Get("/make_publish", boardHandler.MakePublish)
					r.Get("/make_draft", boardHandler.MakeDraft)
					r.Get("/history", boardHandler.History)
					r.With(secret).Get("/delete", boardHandler.Delete)
					r.With(secret).Post("/update", boardHandler.Update)
				})
			})
		})
	})

	return r
}
