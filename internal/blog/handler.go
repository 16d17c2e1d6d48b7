// Package blog serves the public, reader-facing pages.
package blog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xeze-org/bl/internal/articles"
	"github.com/xeze-org/bl/internal/auth"
	"github.com/xeze-org/bl/internal/models"
	"github.com/xeze-org/bl/internal/paging"
	"github.com/xeze-org/bl/internal/views"
)

type Handler struct {
	articles *articles.Manager
	views    *views.Renderer
}

func NewHandler(m *articles.Manager, v *views.Renderer) *Handler {
	return &Handler{articles: m, views: v}
}

// Index lists published articles, newest first.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page, perPage := paging.Parse(r.URL.Query())
	list, win, err := h.articles.List(r.Context(), models.PublishedOnly, page, perPage)
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	h.views.Render(w, http.StatusOK, views.PageIndex, views.IndexPage{
		Base:     views.Base{Flash: auth.FromContext(r.Context()).Shown()},
		Articles: list,
		Window:   win,
	})
}

// Article shows one published article. Drafts are indistinguishable from
// missing slugs.
func (h *Handler) Article(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	a, err := h.articles.FindPublic(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, models.ErrNotFound) {
		h.views.NotFound(w, views.Base{Flash: sess.Shown(), Board: sess.Auth})
		return
	}
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	h.views.Render(w, http.StatusOK, views.PageArticle, views.ArticlePage{
		Base:    views.Base{Flash: sess.Shown()},
		Article: a,
	})
}
