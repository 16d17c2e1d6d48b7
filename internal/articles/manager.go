// Package articles owns the article lifecycle: creation, the draft and
// published states, slug changes and deletion.
package articles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xeze-org/bl/internal/models"
	"github.com/xeze-org/bl/internal/paging"
)

// Store defines the interface for article persistence.
type Store interface {
	CreateArticle(ctx context.Context, a *models.Article) error
	GetArticleBySlug(ctx context.Context, slug string, scope models.Scope) (*models.Article, error)
	ListArticles(ctx context.Context, scope models.Scope, offset, limit int) ([]models.Article, error)
	CountArticles(ctx context.Context, scope models.Scope) (int, error)
	SetArticleState(ctx context.Context, slug string, state models.ArticleState, changedAt int64) (bool, error)
	UpdateArticle(ctx context.Context, oldSlug string, f models.ArticleFields, changedAt int64) (bool, error)
	DeleteArticle(ctx context.Context, slug string) (bool, error)
}

// Journal records lifecycle events.
type Journal interface {
	Record(ctx context.Context, ev models.Event) error
	History(ctx context.Context, slug string, limit int) ([]models.Event, error)
}

// Archive keeps a copy of an article before it is deleted.
type Archive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// HistoryLimit bounds the events returned by History.
const HistoryLimit = 50

// Manager applies lifecycle operations. It assumes form validation already
// happened in the handler.
type Manager struct {
	store   Store
	journal Journal
	archive Archive
	log     logrus.FieldLogger
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithJournal records every mutation to j.
func WithJournal(j Journal) Option { return func(m *Manager) { m.journal = j } }

// WithArchive snapshots articles to a before deletion.
func WithArchive(a Archive) Option { return func(m *Manager) { m.archive = a } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(store Store, log logrus.FieldLogger, opts ...Option) *Manager {
	m := &Manager{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create inserts a new article in the state carried by f.
func (m *Manager) Create(ctx context.Context, author int64, f models.ArticleFields) (*models.Article, error) {
	a := &models.Article{
		Author:      author,
		Slug:        f.Slug,
		Title:       f.Title,
		Abstract:    f.Abstract,
		Content:     f.Content,
		State:       f.State,
		CreatedDate: m.now().Unix(),
	}
	if err := m.store.CreateArticle(ctx, a); err != nil {
		return nil, err
	}
	m.record(ctx, models.Event{Slug: a.Slug, Action: models.ActionCreate, UserID: author, Title: a.Title})
	return a, nil
}

// Publish moves slug to Published. Publishing a published article is a no-op
// apart from last_change.
func (m *Manager) Publish(ctx context.Context, userID int64, slug string) error {
	return m.setState(ctx, userID, slug, models.Published, models.ActionPublish)
}

// Unpublish moves slug back to Draft.
func (m *Manager) Unpublish(ctx context.Context, userID int64, slug string) error {
	return m.setState(ctx, userID, slug, models.Draft, models.ActionUnpublish)
}

func (m *Manager) setState(ctx context.Context, userID int64, slug string, state models.ArticleState, action string) error {
	ok, err := m.store.SetArticleState(ctx, slug, state, m.now().Unix())
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotFound
	}
	m.record(ctx, models.Event{Slug: slug, Action: action, UserID: userID})
	return nil
}

// Update rewrites the article at oldSlug. When f.Slug differs, the old slug
// stops resolving; no alias is kept.
func (m *Manager) Update(ctx context.Context, userID int64, oldSlug string, f models.ArticleFields) error {
	ok, err := m.store.UpdateArticle(ctx, oldSlug, f, m.now().Unix())
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotFound
	}
	ev := models.Event{Slug: f.Slug, Action: models.ActionUpdate, UserID: userID, Title: f.Title}
	if f.Slug != oldSlug {
		ev.PreviousSlug = oldSlug
	}
	m.record(ctx, ev)
	return nil
}

// Delete removes slug permanently.
func (m *Manager) Delete(ctx context.Context, userID int64, slug string) error {
	if m.archive != nil {
		if err := m.snapshot(ctx, slug); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return err
			}
			m.log.WithError(err).WithField("slug", slug).Warn("archive before delete failed")
		}
	}
	ok, err := m.store.DeleteArticle(ctx, slug)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotFound
	}
	m.record(ctx, models.Event{Slug: slug, Action: models.ActionDelete, UserID: userID})
	return nil
}

// FindPublic returns slug only when it is published.
func (m *Manager) FindPublic(ctx context.Context, slug string) (*models.Article, error) {
	return m.store.GetArticleBySlug(ctx, slug, models.PublishedOnly)
}

// FindAny returns slug in either state.
func (m *Manager) FindAny(ctx context.Context, slug string) (*models.Article, error) {
	return m.store.GetArticleBySlug(ctx, slug, models.AnyState)
}

// List returns one page of articles in scope, newest first, with the
// pagination window computed from the current count.
func (m *Manager) List(ctx context.Context, scope models.Scope, page, perPage int) ([]models.Article, paging.Window, error) {
	total, err := m.store.CountArticles(ctx, scope)
	if err != nil {
		return nil, paging.Window{}, err
	}
	w := paging.New(page, perPage, total)
	list, err := m.store.ListArticles(ctx, scope, w.Offset, w.Limit)
	if err != nil {
		return nil, paging.Window{}, err
	}
	return list, w, nil
}

// Count returns the number of articles in scope.
func (m *Manager) Count(ctx context.Context, scope models.Scope) (int, error) {
	return m.store.CountArticles(ctx, scope)
}

// History returns recent lifecycle events for slug. ok is false when no
// journal is configured.
func (m *Manager) History(ctx context.Context, slug string) (events []models.Event, ok bool, err error) {
	if m.journal == nil {
		return nil, false, nil
	}
	events, err = m.journal.History(ctx, slug, HistoryLimit)
	if err != nil {
		return nil, true, err
	}
	return events, true, nil
}

// record appends ev to the journal. Journal failures never fail the
// mutation that already happened.
func (m *Manager) record(ctx context.Context, ev models.Event) {
	if m.journal == nil {
		return
	}
	ev.At = m.now().UTC()
	if err := m.journal.Record(ctx, ev); err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{
			"slug":   ev.Slug,
			"action": ev.Action,
		}).Warn("journal record failed")
	}
}

func (m *Manager) snapshot(ctx context.Context, slug string) error {
	a, err := m.store.GetArticleBySlug(ctx, slug, models.AnyState)
	if err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	key := fmt.Sprintf("articles/%s/%d.json", slug, m.now().Unix())
	return m.archive.Upload(ctx, key, data, "application/json")
}
