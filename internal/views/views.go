// Package views renders pages from plain data. Nothing here touches
// storage or sessions.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

//go:embed templates
var templateFS embed.FS

// Page names accepted by Render.
const (
	PageIndex         = "index"
	PageArticle       = "article"
	PageNotFound      = "notfound"
	PageError         = "error"
	PageBoardIndex    = "board/index"
	PageBoardLogin    = "board/login"
	PageBoardArticles = "board/articles"
	PageBoardForm     = "board/form"
	PageBoardArticle  = "board/article"
	PageBoardHistory  = "board/history"
)

// Renderer executes the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
	log   logrus.FieldLogger
}

func New(log logrus.FieldLogger) (*Renderer, error) {
	md := NewMarkdown()
	funcs := template.FuncMap{
		"markdown": md.Render,
		"date":     formatDate,
		"inc":      func(i int) int { return i + 1 },
		"dec":      func(i int) int { return i - 1 },
	}

	base, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := make(map[string]*template.Template)
	err = fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Base(p) == "layout.html" {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".html")
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(templateFS, p); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{pages: pages, log: log}, nil
}

// Render writes page with data. Templates execute into a buffer first so a
// failing template never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	t, ok := r.pages[page]
	if !ok {
		r.log.WithField("page", page).Error("unknown page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.WithError(err).WithField("page", page).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Fail logs err and renders the generic error page. The error text never
// reaches the client.
func (r *Renderer) Fail(w http.ResponseWriter, req *http.Request, err error) {
	r.log.WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(req.Context()),
		"method":     req.Method,
		"path":       req.URL.Path,
	}).Error("request failed")
	r.Render(w, http.StatusInternalServerError, PageError, ErrorPage{})
}

// NotFound renders the 404 page, with board navigation when board is set.
func (r *Renderer) NotFound(w http.ResponseWriter, base Base) {
	r.Render(w, http.StatusNotFound, PageNotFound, ErrorPage{Base: base})
}

func formatDate(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("2006-01-02")
}
