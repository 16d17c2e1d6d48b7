package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xeze-org/bl/internal/models"
)

// statement identifies one of the fixed queries prepared at startup.
type statement int

const (
	stmtNewUser statement = iota
	stmtGetUser
	stmtDeleteUser
	stmtUpdateFullname
	stmtUpdateUsername
	stmtUpdatePassword
	stmtUpdateGitHub
	stmtUpdateEmail
	stmtUpdateBio
	stmtNewArticle
	stmtArticleAnyBySlug
	stmtArticlePublishedBySlug
	stmtArticlesAny
	stmtArticlesPublished
	stmtCountAny
	stmtCountPublished
	stmtSetDraft
	stmtUpdateArticle
	stmtDeleteArticle
	numStatements
)

const articleColumns = `a.article_id, a.author, a.slug, a.title, a.abstract, a.content,
		a.created_date, a.last_change, a.is_draft, u.fullname`

// queries is indexed by statement. Column names in the user updates are
// fixed here and selected through models.UserField, never from input.
var queries = [numStatements]string{
	stmtNewUser: `INSERT INTO users (fullname, username, password, github, email, bio)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id`,
	stmtGetUser: `SELECT user_id, fullname, username, password, github, email, bio
		FROM users WHERE username = $1`,
	stmtDeleteUser:     `DELETE FROM users WHERE username = $1`,
	stmtUpdateFullname: `UPDATE users SET fullname = $2 WHERE username = $1`,
	stmtUpdateUsername: `UPDATE users SET username = $2 WHERE username = $1`,
	stmtUpdatePassword: `UPDATE users SET password = $2 WHERE username = $1`,
	stmtUpdateGitHub:   `UPDATE users SET github = $2 WHERE username = $1`,
	stmtUpdateEmail:    `UPDATE users SET email = $2 WHERE username = $1`,
	stmtUpdateBio:      `UPDATE users SET bio = $2 WHERE username = $1`,
	stmtNewArticle: `INSERT INTO articles (author, slug, title, abstract, content, is_draft, created_date, last_change)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING article_id`,
	stmtArticleAnyBySlug: `SELECT ` + articleColumns + `
		FROM articles a JOIN users u ON u.user_id = a.author
		WHERE a.slug = $1`,
	stmtArticlePublishedBySlug: `SELECT ` + articleColumns + `
		FROM articles a JOIN users u ON u.user_id = a.author
		WHERE a.slug = $1 AND a.is_draft = false`,
	stmtArticlesAny: `SELECT ` + articleColumns + `
		FROM articles a JOIN users u ON u.user_id = a.author
		ORDER BY a.created_date DESC, a.article_id DESC
		OFFSET $1 LIMIT $2`,
	stmtArticlesPublished: `SELECT ` + articleColumns + `
		FROM articles a JOIN users u ON u.user_id = a.author
		WHERE a.is_draft = false
		ORDER BY a.created_date DESC, a.article_id DESC
		OFFSET $1 LIMIT $2`,
	stmtCountAny:       `SELECT COUNT(article_id) FROM articles`,
	stmtCountPublished: `SELECT COUNT(article_id) FROM articles WHERE is_draft = false`,
	stmtSetDraft:       `UPDATE articles SET is_draft = $2, last_change = $3 WHERE slug = $1`,
	stmtUpdateArticle: `UPDATE articles
		SET slug = $2, title = $3, abstract = $4, content = $5, is_draft = $6, last_change = $7
		WHERE slug = $1`,
	stmtDeleteArticle: `DELETE FROM articles WHERE slug = $1`,
}

var userFieldStatements = map[models.UserField]statement{
	models.FieldFullname: stmtUpdateFullname,
	models.FieldUsername: stmtUpdateUsername,
	models.FieldPassword: stmtUpdatePassword,
	models.FieldGitHub:   stmtUpdateGitHub,
	models.FieldEmail:    stmtUpdateEmail,
	models.FieldBio:      stmtUpdateBio,
}

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStore handles user and article persistence against PostgreSQL.
type PostgresStore struct {
	db    *sql.DB
	stmts [numStatements]*sql.Stmt
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Prepare prepares every statement once. It must run after Migrate.
func (s *PostgresStore) Prepare(ctx context.Context) error {
	for i, q := range queries {
		stmt, err := s.db.PrepareContext(ctx, q)
		if err != nil {
			s.Close()
			return fmt.Errorf("prepare statement %d: %w", i, err)
		}
		s.stmts[i] = stmt
	}
	return nil
}

// Close releases the prepared statements. The *sql.DB is owned by the caller.
func (s *PostgresStore) Close() error {
	var firstErr error
	for i, stmt := range s.stmts {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.stmts[i] = nil
	}
	return firstErr
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	err := s.stmts[stmtNewUser].QueryRowContext(ctx,
		u.Fullname, u.Username, u.Password, u.GitHub, u.Email, u.Bio,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.stmts[stmtGetUser].QueryRowContext(ctx, username).
		Scan(&u.ID, &u.Fullname, &u.Username, &u.Password, &u.GitHub, &u.Email, &u.Bio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateUserField sets one column of the user's row. It reports whether a
// row matched.
func (s *PostgresStore) UpdateUserField(ctx context.Context, username string, field models.UserField, value string) (bool, error) {
	st, ok := userFieldStatements[field]
	if !ok {
		return false, fmt.Errorf("%w: %q", models.ErrUnknownField, field)
	}
	res, err := s.stmts[st].ExecContext(ctx, username, value)
	if err != nil {
		if field == models.FieldUsername && isUniqueViolation(err) {
			return false, models.ErrUsernameTaken
		}
		return false, fmt.Errorf("update user %s: %w", field, err)
	}
	return affected(res)
}

func (s *PostgresStore) DeleteUser(ctx context.Context, username string) (bool, error) {
	res, err := s.stmts[stmtDeleteUser].ExecContext(ctx, username)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return affected(res)
}

// CreateArticle inserts a and fills in its id.
func (s *PostgresStore) CreateArticle(ctx context.Context, a *models.Article) error {
	err := s.stmts[stmtNewArticle].QueryRowContext(ctx,
		a.Author, a.Slug, a.Title, a.Abstract, a.Content, a.State.IsDraft(), a.CreatedDate,
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrSlugTaken
		}
		return fmt.Errorf("create article: %w", err)
	}
	a.LastChange = a.CreatedDate
	return nil
}

func (s *PostgresStore) GetArticleBySlug(ctx context.Context, slug string, scope models.Scope) (*models.Article, error) {
	st := stmtArticlePublishedBySlug
	if scope == models.AnyState {
		st = stmtArticleAnyBySlug
	}
	a, err := scanArticle(s.stmts[st].QueryRowContext(ctx, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

// ListArticles returns a newest-first page of articles. An empty page is
// not an error.
func (s *PostgresStore) ListArticles(ctx context.Context, scope models.Scope, offset, limit int) ([]models.Article, error) {
	st := stmtArticlesPublished
	if scope == models.AnyState {
		st = stmtArticlesAny
	}
	rows, err := s.stmts[st].QueryContext(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

func (s *PostgresStore) CountArticles(ctx context.Context, scope models.Scope) (int, error) {
	st := stmtCountPublished
	if scope == models.AnyState {
		st = stmtCountAny
	}
	var n int
	if err := s.stmts[st].QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) SetArticleState(ctx context.Context, slug string, state models.ArticleState, changedAt int64) (bool, error) {
	res, err := s.stmts[stmtSetDraft].ExecContext(ctx, slug, state.IsDraft(), changedAt)
	if err != nil {
		return false, fmt.Errorf("set article state: %w", err)
	}
	return affected(res)
}

func (s *PostgresStore) UpdateArticle(ctx context.Context, oldSlug string, f models.ArticleFields, changedAt int64) (bool, error) {
	res, err := s.stmts[stmtUpdateArticle].ExecContext(ctx,
		oldSlug, f.Slug, f.Title, f.Abstract, f.Content, f.State.IsDraft(), changedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, models.ErrSlugTaken
		}
		return false, fmt.Errorf("update article: %w", err)
	}
	return affected(res)
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, slug string) (bool, error) {
	res, err := s.stmts[stmtDeleteArticle].ExecContext(ctx, slug)
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	return affected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		a       models.Article
		isDraft bool
	)
	err := row.Scan(&a.ID, &a.Author, &a.Slug, &a.Title, &a.Abstract, &a.Content,
		&a.CreatedDate, &a.LastChange, &isDraft, &a.AuthorName)
	if err != nil {
		return nil, err
	}
	a.State = models.StateFromDraft(isDraft)
	return &a, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
