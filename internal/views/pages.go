package views

import (
	"github.com/xeze-org/bl/internal/models"
	"github.com/xeze-org/bl/internal/paging"
)

// Base is embedded by every page.
type Base struct {
	Flash *models.Flash
	Board bool
	// Secret is echoed into secret-gated links and form actions. Handlers
	// only set it when the request carried the valid secret.
	Secret string
}

type IndexPage struct {
	Base
	Articles []models.Article
	Window   paging.Window
}

type ArticlePage struct {
	Base
	Article *models.Article
}

type DashboardPage struct {
	Base
	Published int
	Drafts    int
	Recent    []models.Article
}

type LoginPage struct {
	Base
}

type ArticlesPage struct {
	Base
	Articles []models.Article
	Window   paging.Window
}

// FormPage is the add/edit article form. Editing holds the slug being
// edited and is empty for a new article.
type FormPage struct {
	Base
	Form     models.ArticleForm
	Editing  string
	Staged   bool
	Action   string
	ClearURL string
}

type HistoryPage struct {
	Base
	Slug    string
	Enabled bool
	Events  []models.Event
}

type ErrorPage struct {
	Base
}
