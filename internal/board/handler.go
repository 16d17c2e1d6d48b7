// Package board serves the operator area under /board. Every route here
// runs behind the session gate; create, update and delete also pass the
// secret gate.
package board

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/xeze-org/bl/internal/articles"
	"github.com/xeze-org/bl/internal/auth"
	"github.com/xeze-org/bl/internal/middleware"
	"github.com/xeze-org/bl/internal/models"
	"github.com/xeze-org/bl/internal/paging"
	"github.com/xeze-org/bl/internal/views"
)

// RecentCount is the number of articles on the dashboard.
const RecentCount = 5

type Handler struct {
	articles *articles.Manager
	sessions *auth.SessionStore
	views    *views.Renderer
	secret   string
	log      logrus.FieldLogger
}

func NewHandler(m *articles.Manager, sessions *auth.SessionStore, v *views.Renderer, secret string, log logrus.FieldLogger) *Handler {
	return &Handler{articles: m, sessions: sessions, views: v, secret: secret, log: log}
}

// base builds the shared page data. The secret is only echoed back when
// the request carried the valid one.
func (h *Handler) base(r *http.Request) views.Base {
	b := views.Base{Flash: auth.FromContext(r.Context()).Shown(), Board: true}
	if middleware.ValidSecret(r, h.secret) {
		b.Secret = r.FormValue("secret")
	}
	return b
}

// withSecret appends the request's secret to target when it is valid.
func (h *Handler) withSecret(r *http.Request, target string) string {
	if !middleware.ValidSecret(r, h.secret) {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "secret=" + url.QueryEscape(r.FormValue("secret"))
}

// finish saves the session and redirects. The session carries the flash
// and staging that the next page needs.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, sess *auth.Session, target string) {
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.views.Fail(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Dashboard shows article counts and the latest articles.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.articles.Count(ctx, models.AnyState)
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	published, err := h.articles.Count(ctx, models.PublishedOnly)
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	recent, _, err := h.articles.List(ctx, models.AnyState, 0, RecentCount)
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	h.views.Render(w, http.StatusOK, views.PageBoardIndex, views.DashboardPage{
		Base:      h.base(r),
		Published: published,
		Drafts:    total - published,
		Recent:    recent,
	})
}

// Articles lists articles in both states.
func (h *Handler) Articles(w http.ResponseWriter, r *http.Request) {
	page, perPage := paging.Parse(r.URL.Query())
	list, win, err := h.articles.List(r.Context(), models.AnyState, page, perPage)
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	h.views.Render(w, http.StatusOK, views.PageBoardArticles, views.ArticlesPage{
		Base:     h.base(r),
		Articles: list,
		Window:   win,
	})
}

// AddForm renders the new-article form, prefilled from a previously
// rejected submission when one is staged.
func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	form, staged := auth.FromContext(r.Context()).Staged(auth.StagingNew)
	if !staged {
		form = models.ArticleForm{Draft: true}
	}
	h.views.Render(w, http.StatusOK, views.PageBoardForm, views.FormPage{
		Base:     h.base(r),
		Form:     form,
		Staged:   staged,
		Action:   h.withSecret(r, "/board/articles"),
		ClearURL: h.withSecret(r, "/board/articles/add/clear_previous"),
	})
}

// ClearPrevious drops the staged new-article form.
func (h *Handler) ClearPrevious(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	sess.Unstage(auth.StagingNew)
	h.finish(w, r, sess, h.withSecret(r, "/board/articles/add"))
}

// Create validates the submitted form and inserts the article. A rejected
// form is staged and the reasons are flashed.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	form := readForm(r)
	back := h.withSecret(r, "/board/articles/add")

	if problems := form.Problems(); len(problems) > 0 {
		sess.Stage(auth.StagingNew, form)
		sess.SetFlash(models.FlashError, strings.Join(problems, "; "))
		h.finish(w, r, sess, back)
		return
	}

	a, err := h.articles.Create(r.Context(), sess.UserID, form.Fields())
	if errors.Is(err, models.ErrSlugTaken) {
		sess.Stage(auth.StagingNew, form)
		sess.SetFlash(models.FlashError, "slug already in use")
		h.finish(w, r, sess, back)
		return
	}
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}

	h.log.WithFields(logrus.Fields{"slug": a.Slug, "user_id": sess.UserID}).Info("article created")
	sess.Unstage(auth.StagingNew)
	sess.SetFlash(models.FlashSuccess, "article created")
	h.finish(w, r, sess, h.withSecret(r, "/board/article/"+url.PathEscape(a.Slug)))
}

// Article shows one article in either state.
func (h *Handler) Article(w http.ResponseWriter, r *http.Request) {
	a, ok := h.find(w, r)
	if !ok {
		return
	}
	h.views.Render(w, http.StatusOK, views.PageBoardArticle, views.ArticlePage{
		Base:    h.base(r),
		Article: a,
	})
}

// EditForm renders the edit form for slug, preferring input staged by a
// rejected update over the stored article.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	a, ok := h.find(w, r)
	if !ok {
		return
	}
	form, staged := auth.FromContext(r.Context()).Staged(auth.StagingEdit(a.Slug))
	if !staged {
		form = models.FormFromArticle(a)
	}
	prefix := "/board/article/" + url.PathEscape(a.Slug)
	h.views.Render(w, http.StatusOK, views.PageBoardForm, views.FormPage{
		Base:     h.base(r),
		Form:     form,
		Editing:  a.Slug,
		Staged:   staged,
		Action:   h.withSecret(r, prefix+"/update"),
		ClearURL: h.withSecret(r, prefix+"/clear_edits"),
	})
}

// ClearEdits drops the staged edit for slug only.
func (h *Handler) ClearEdits(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	slug := chi.URLParam(r, "slug")
	sess.Unstage(auth.StagingEdit(slug))
	h.finish(w, r, sess, h.withSecret(r, "/board/article/"+url.PathEscape(slug)+"/edit"))
}

// Update validates the submitted form and rewrites the article. A changed
// slug moves the article; the redirect follows it.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	slug := chi.URLParam(r, "slug")
	form := readForm(r)
	back := h.withSecret(r, "/board/article/"+url.PathEscape(slug)+"/edit")

	if problems := form.Problems(); len(problems) > 0 {
		sess.Stage(auth.StagingEdit(slug), form)
		sess.SetFlash(models.FlashError, strings.Join(problems, "; "))
		h.finish(w, r, sess, back)
		return
	}

	f := form.Fields()
	err := h.articles.Update(r.Context(), sess.UserID, slug, f)
	switch {
	case errors.Is(err, models.ErrSlugTaken):
		sess.Stage(auth.StagingEdit(slug), form)
		sess.SetFlash(models.FlashError, "slug already in use")
		h.finish(w, r, sess, back)
		return
	case errors.Is(err, models.ErrNotFound):
		h.notFound(w, r, sess)
		return
	case err != nil:
		h.views.Fail(w, r, err)
		return
	}

	h.log.WithFields(logrus.Fields{"slug": f.Slug, "previous_slug": slug, "user_id": sess.UserID}).Info("article updated")
	sess.Unstage(auth.StagingEdit(slug))
	sess.SetFlash(models.FlashSuccess, "article updated")
	h.finish(w, r, sess, h.withSecret(r, "/board/article/"+url.PathEscape(f.Slug)))
}

// MakePublish moves slug to published.
func (h *Handler) MakePublish(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	slug := chi.URLParam(r, "slug")
	h.transition(w, r, sess, slug, h.articles.Publish(r.Context(), sess.UserID, slug), "article published")
}

// MakeDraft moves slug back to draft.
func (h *Handler) MakeDraft(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	slug := chi.URLParam(r, "slug")
	h.transition(w, r, sess, slug, h.articles.Unpublish(r.Context(), sess.UserID, slug), "article moved to drafts")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, sess *auth.Session, slug string, err error, done string) {
	if errors.Is(err, models.ErrNotFound) {
		h.notFound(w, r, sess)
		return
	}
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	sess.SetFlash(models.FlashSuccess, done)
	h.finish(w, r, sess, h.withSecret(r, "/board/article/"+url.PathEscape(slug)))
}

// Delete removes slug and any edit staged for it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	slug := chi.URLParam(r, "slug")
	err := h.articles.Delete(r.Context(), sess.UserID, slug)
	if errors.Is(err, models.ErrNotFound) {
		h.notFound(w, r, sess)
		return
	}
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	h.log.WithFields(logrus.Fields{"slug": slug, "user_id": sess.UserID}).Info("article deleted")
	sess.Unstage(auth.StagingEdit(slug))
	sess.SetFlash(models.FlashSuccess, "article deleted")
	h.finish(w, r, sess, h.withSecret(r, "/board/articles"))
}

// History lists the latest lifecycle events recorded for slug, including
// those recorded under a previous slug.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	events, enabled, err := h.articles.History(r.Context(), slug)
	if err != nil {
		h.views.Fail(w, r, err)
		return
	}
	h.views.Render(w, http.StatusOK, views.PageBoardHistory, views.HistoryPage{
		Base:    h.base(r),
		Slug:    slug,
		Enabled: enabled,
		Events:  events,
	})
}

// find loads the article named by the slug URL parameter. It writes the
// response itself when the article cannot be shown.
func (h *Handler) find(w http.ResponseWriter, r *http.Request) (*models.Article, bool) {
	a, err := h.articles.FindAny(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, models.ErrNotFound) {
		h.views.NotFound(w, h.base(r))
		return nil, false
	}
	if err != nil {
		h.views.Fail(w, r, err)
		return nil, false
	}
	return a, true
}

// notFound answers a mutation on a missing slug with a redirect to the
// article list and an error flash.
func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	sess.SetFlash(models.FlashError, "article not found")
	h.finish(w, r, sess, h.withSecret(r, "/board/articles"))
}

func readForm(r *http.Request) models.ArticleForm {
	return models.ArticleForm{
		Slug:     r.PostFormValue("slug"),
		Title:    r.PostFormValue("title"),
		Abstract: r.PostFormValue("abstract"),
		Content:  r.PostFormValue("content"),
		Draft:    r.PostFormValue("draft") == "on",
	}
}
