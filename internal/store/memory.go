package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xeze-org/bl/internal/models"
)

// MemoryStore is an in-process stand-in for PostgresStore. It keeps the
// same uniqueness and ordering rules and is used for STORAGE=memory.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	articles      map[string]*models.Article
	nextUserID    int64
	nextArticleID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		articles: make(map[string]*models.Article),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return models.ErrUsernameTaken
	}
	s.nextUserID++
	u.ID = s.nextUserID
	cp := *u
	s.users[u.Username] = &cp
	return nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpdateUserField(_ context.Context, username string, field models.UserField, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return false, nil
	}
	switch field {
	case models.FieldFullname:
		u.Fullname = value
	case models.FieldUsername:
		if _, taken := s.users[value]; taken && value != username {
			return false, models.ErrUsernameTaken
		}
		delete(s.users, username)
		u.Username = value
		s.users[value] = u
	case models.FieldPassword:
		u.Password = value
	case models.FieldGitHub:
		u.GitHub = value
	case models.FieldEmail:
		u.Email = value
	case models.FieldBio:
		u.Bio = value
	default:
		return false, fmt.Errorf("%w: %q", models.ErrUnknownField, field)
	}
	return true, nil
}

// DeleteUser removes the user and, like the foreign key, their articles.
func (s *MemoryStore) DeleteUser(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return false, nil
	}
	delete(s.users, username)
	for slug, a := range s.articles {
		if a.Author == u.ID {
			delete(s.articles, slug)
		}
	}
	return true, nil
}

func (s *MemoryStore) CreateArticle(_ context.Context, a *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[a.Slug]; ok {
		return models.ErrSlugTaken
	}
	s.nextArticleID++
	a.ID = s.nextArticleID
	a.LastChange = a.CreatedDate
	cp := *a
	s.articles[a.Slug] = &cp
	return nil
}

func (s *MemoryStore) GetArticleBySlug(_ context.Context, slug string, scope models.Scope) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[slug]
	if !ok || !s.visible(a, scope) {
		return nil, models.ErrNotFound
	}
	return s.withAuthor(a), nil
}

func (s *MemoryStore) ListArticles(_ context.Context, scope models.Scope, offset, limit int) ([]models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matching(scope)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedDate != matched[j].CreatedDate {
			return matched[i].CreatedDate > matched[j].CreatedDate
		}
		return matched[i].ID > matched[j].ID
	})

	out := []models.Article{}
	if offset < 0 || offset >= len(matched) || limit <= 0 {
		return out, nil
	}
	end := len(matched)
	if limit < end-offset {
		end = offset + limit
	}
	for _, a := range matched[offset:end] {
		out = append(out, *s.withAuthor(a))
	}
	return out, nil
}

func (s *MemoryStore) CountArticles(_ context.Context, scope models.Scope) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(scope)), nil
}

func (s *MemoryStore) SetArticleState(_ context.Context, slug string, state models.ArticleState, changedAt int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[slug]
	if !ok {
		return false, nil
	}
	a.State = state
	a.LastChange = changedAt
	return true, nil
}

func (s *MemoryStore) UpdateArticle(_ context.Context, oldSlug string, f models.ArticleFields, changedAt int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[oldSlug]
	if !ok {
		return false, nil
	}
	if f.Slug != oldSlug {
		if _, taken := s.articles[f.Slug]; taken {
			return false, models.ErrSlugTaken
		}
		delete(s.articles, oldSlug)
		s.articles[f.Slug] = a
	}
	a.Slug = f.Slug
	a.Title = f.Title
	a.Abstract = f.Abstract
	a.Content = f.Content
	a.State = f.State
	a.LastChange = changedAt
	return true, nil
}

func (s *MemoryStore) DeleteArticle(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[slug]; !ok {
		return false, nil
	}
	delete(s.articles, slug)
	return true, nil
}

func (s *MemoryStore) visible(a *models.Article, scope models.Scope) bool {
	return scope == models.AnyState || a.State == models.Published
}

func (s *MemoryStore) matching(scope models.Scope) []*models.Article {
	var out []*models.Article
	for _, a := range s.articles {
		if s.visible(a, scope) {
			out = append(out, a)
		}
	}
	return out
}

// withAuthor copies a and fills in the author's name, mirroring the join.
func (s *MemoryStore) withAuthor(a *models.Article) *models.Article {
	cp := *a
	for _, u := range s.users {
		if u.ID == a.Author {
			cp.AuthorName = u.Fullname
			break
		}
	}
	return &cp
}
