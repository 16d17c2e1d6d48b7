package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Column widths of the articles table.
const (
	MaxSlugLen  = 60
	MaxTitleLen = 60
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ArticleState is the publication state of an article.
type ArticleState int

const (
	Draft ArticleState = iota
	Published
)

func (s ArticleState) String() string {
	if s == Published {
		return "published"
	}
	return "draft"
}

// MarshalText encodes the state by name.
func (s ArticleState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// IsDraft reports whether the state maps to is_draft = true.
func (s ArticleState) IsDraft() bool { return s != Published }

// StateFromDraft converts the stored is_draft flag.
func StateFromDraft(isDraft bool) ArticleState {
	if isDraft {
		return Draft
	}
	return Published
}

// Scope selects which articles a read may see.
type Scope int

const (
	PublishedOnly Scope = iota
	AnyState
)

// Article is a row of the articles table joined with its author's full name.
type Article struct {
	ID          int64        `json:"article_id"`
	Author      int64        `json:"author"`
	AuthorName  string       `json:"author_name"`
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Abstract    string       `json:"abstract"`
	Content     string       `json:"content"`
	CreatedDate int64        `json:"created_date"`
	LastChange  int64        `json:"last_change"`
	State       ArticleState `json:"state"`
}

// Created returns created_date as a time.
func (a *Article) Created() time.Time { return time.Unix(a.CreatedDate, 0).UTC() }

// Changed returns last_change as a time.
func (a *Article) Changed() time.Time { return time.Unix(a.LastChange, 0).UTC() }

// ArticleFields are the operator-editable parts of an article.
type ArticleFields struct {
	Slug     string
	Title    string
	Abstract string
	Content  string
	State    ArticleState
}

// ArticleForm is the raw add/edit form payload. It is what gets staged in
// the session when a submission is rejected.
type ArticleForm struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Content  string `json:"content"`
	Draft    bool   `json:"draft"`
}

// Missing returns the names of required fields that are empty after trimming.
func (f ArticleForm) Missing() []string {
	var missing []string
	for _, kv := range [...]struct{ name, value string }{
		{"slug", f.Slug},
		{"title", f.Title},
		{"abstract", f.Abstract},
		{"content", f.Content},
	} {
		if strings.TrimSpace(kv.value) == "" {
			missing = append(missing, kv.name)
		}
	}
	return missing
}

// Problems returns every reason the form cannot be saved, one message per
// reason, or nil when it is valid.
func (f ArticleForm) Problems() []string {
	var problems []string
	if missing := f.Missing(); len(missing) > 0 {
		problems = append(problems, "missing "+strings.Join(missing, ", "))
	}
	slug := strings.TrimSpace(f.Slug)
	if slug != "" && !slugPattern.MatchString(slug) {
		problems = append(problems, "slug may only contain a-z, 0-9 and -")
	}
	if n := utf8.RuneCountInString(slug); n > MaxSlugLen {
		problems = append(problems, fmt.Sprintf("slug is %d characters, at most %d allowed", n, MaxSlugLen))
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(f.Title)); n > MaxTitleLen {
		problems = append(problems, fmt.Sprintf("title is %d characters, at most %d allowed", n, MaxTitleLen))
	}
	return problems
}

// Fields converts a validated form into article fields.
func (f ArticleForm) Fields() ArticleFields {
	state := Published
	if f.Draft {
		state = Draft
	}
	return ArticleFields{
		Slug:     strings.TrimSpace(f.Slug),
		Title:    strings.TrimSpace(f.Title),
		Abstract: strings.TrimSpace(f.Abstract),
		Content:  f.Content,
		State:    state,
	}
}

// FormFromArticle pre-fills the edit form from the stored article.
func FormFromArticle(a *Article) ArticleForm {
	return ArticleForm{
		Slug:     a.Slug,
		Title:    a.Title,
		Abstract: a.Abstract,
		Content:  a.Content,
		Draft:    a.State.IsDraft(),
	}
}
