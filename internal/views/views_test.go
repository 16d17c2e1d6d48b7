package views

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeze-org/bl/internal/models"
	"github.com/xeze-org/bl/internal/paging"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	r, err := New(log)
	require.NoError(t, err)
	return r
}

func TestNew_ParsesEveryPage(t *testing.T) {
	r := newRenderer(t)
	for _, p := range []string{
		PageIndex, PageArticle, PageNotFound, PageError,
		PageBoardIndex, PageBoardLogin, PageBoardArticles,
		PageBoardForm, PageBoardArticle, PageBoardHistory,
	} {
		assert.Contains(t, r.pages, p)
	}
}

func TestRender_IndexWithFlash(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()

	r.Render(rec, http.StatusOK, PageIndex, IndexPage{
		Base:     Base{Flash: &models.Flash{Type: models.FlashSuccess, Message: "saved"}},
		Articles: []models.Article{{Slug: "hello", Title: "Hello <World>", AuthorName: "Ada"}},
		Window:   paging.New(0, 10, 1),
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/article/hello"`)
	assert.Contains(t, body, "Hello &lt;World&gt;")
	assert.Contains(t, body, "flash-success")
}

func TestRender_ArticleMarkdown(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()

	r.Render(rec, http.StatusOK, PageArticle, ArticlePage{
		Article: &models.Article{Title: "T", Content: "# Heading\n\n<script>alert(1)</script>"},
	})

	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Heading</h1>")
	assert.NotContains(t, body, "<script>alert(1)</script>")
}

func TestRender_UnknownPage(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusOK, "nope", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFail_HidesError(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	r.Fail(rec, req, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestNotFound_BoardAware(t *testing.T) {
	r := newRenderer(t)

	rec := httptest.NewRecorder()
	r.NotFound(rec, Base{Board: true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Back to the board")

	rec = httptest.NewRecorder()
	r.NotFound(rec, Base{})
	assert.Contains(t, rec.Body.String(), "Back home")
}
