package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeze-org/bl/internal/models"
)

var articleRowColumns = []string{
	"article_id", "author", "slug", "title", "abstract", "content",
	"created_date", "last_change", "is_draft", "fullname",
}

func newStoreWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, []*sqlmock.ExpectedPrepare) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	prepared := make([]*sqlmock.ExpectedPrepare, numStatements)
	for i, q := range queries {
		prepared[i] = mock.ExpectPrepare(q)
	}

	s := NewPostgresStore(db)
	require.NoError(t, s.Prepare(context.Background()))
	return s, mock, prepared
}

func TestPrepare_Error(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare(queries[stmtNewUser])
	mock.ExpectPrepare(queries[stmtGetUser]).WillReturnError(errors.New("db down"))

	err = NewPostgresStore(db).Prepare(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCreateUser(t *testing.T) {
	s, mock, prepared := newStoreWithMock(t)

	prepared[stmtNewUser].ExpectQuery().
		WithArgs("Ada Lovelace", "ada", "hash", "ada", "ada@example.com", "bio").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	u := &models.User{Fullname: "Ada Lovelace", Username: "ada", Password: "hash", GitHub: "ada", Email: "ada@example.com", Bio: "bio"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Duplicate(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtNewUser].ExpectQuery().
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := s.CreateUser(context.Background(), &models.User{Username: "ada"})
	assert.ErrorIs(t, err, models.ErrUsernameTaken)
}

func TestGetUserByUsername(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtGetUser].ExpectQuery().WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "fullname", "username", "password", "github", "email", "bio"}).
			AddRow(1, "Ada", "ada", "hash", "gh", "e@x", "b"))

	u, err := s.GetUserByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: 1, Fullname: "Ada", Username: "ada", Password: "hash", GitHub: "gh", Email: "e@x", Bio: "b"}, u)
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtGetUser].ExpectQuery().WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := s.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetUserByUsername_DBError(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtGetUser].ExpectQuery().WithArgs("ada").WillReturnError(errors.New("conn reset"))

	_, err := s.GetUserByUsername(context.Background(), "ada")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "get user: conn reset")
}

func TestUpdateUserField_UsesFixedStatement(t *testing.T) {
	s, mock, prepared := newStoreWithMock(t)

	prepared[stmtUpdateBio].ExpectExec().WithArgs("ada", "new bio").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.UpdateUserField(context.Background(), "ada", models.FieldBio, "new bio")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserField_UnknownField(t *testing.T) {
	s, _, _ := newStoreWithMock(t)

	_, err := s.UpdateUserField(context.Background(), "ada", models.UserField("is_admin"), "true")
	assert.ErrorIs(t, err, models.ErrUnknownField)
}

func TestDeleteUser_NoRow(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtDeleteUser].ExpectExec().WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.DeleteUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateArticle(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtNewArticle].ExpectQuery().
		WithArgs(1, "hello", "Hi", "a", "c", true, 1700000000).
		WillReturnRows(sqlmock.NewRows([]string{"article_id"}).AddRow(3))

	a := &models.Article{Author: 1, Slug: "hello", Title: "Hi", Abstract: "a", Content: "c", State: models.Draft, CreatedDate: 1700000000}
	require.NoError(t, s.CreateArticle(context.Background(), a))
	assert.Equal(t, int64(3), a.ID)
	assert.Equal(t, int64(1700000000), a.LastChange)
}

func TestCreateArticle_SlugTaken(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtNewArticle].ExpectQuery().
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := s.CreateArticle(context.Background(), &models.Article{Slug: "hello"})
	assert.ErrorIs(t, err, models.ErrSlugTaken)
}

func TestGetArticleBySlug_Scopes(t *testing.T) {
	s, mock, prepared := newStoreWithMock(t)

	prepared[stmtArticlePublishedBySlug].ExpectQuery().WithArgs("hello").WillReturnError(sql.ErrNoRows)
	prepared[stmtArticleAnyBySlug].ExpectQuery().WithArgs("hello").
		WillReturnRows(sqlmock.NewRows(articleRowColumns).
			AddRow(3, 1, "hello", "Hi", "a", "c", 100, 200, true, "Ada"))

	_, err := s.GetArticleBySlug(context.Background(), "hello", models.PublishedOnly)
	assert.ErrorIs(t, err, models.ErrNotFound)

	a, err := s.GetArticleBySlug(context.Background(), "hello", models.AnyState)
	require.NoError(t, err)
	assert.Equal(t, models.Draft, a.State)
	assert.Equal(t, "Ada", a.AuthorName)
	assert.Equal(t, int64(200), a.LastChange)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListArticles(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtArticlesPublished].ExpectQuery().WithArgs(10, 10).
		WillReturnRows(sqlmock.NewRows(articleRowColumns).
			AddRow(5, 1, "b", "B", "a", "c", 300, 300, false, "Ada").
			AddRow(4, 1, "a", "A", "a", "c", 200, 250, false, "Ada"))

	got, err := s.ListArticles(context.Background(), models.PublishedOnly, 10, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Slug)
	assert.Equal(t, models.Published, got[1].State)
}

func TestListArticles_Empty(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtArticlesAny].ExpectQuery().WithArgs(50, 10).
		WillReturnRows(sqlmock.NewRows(articleRowColumns))

	got, err := s.ListArticles(context.Background(), models.AnyState, 50, 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCountArticles(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtCountAny].ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := s.CountArticles(context.Background(), models.AnyState)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestSetArticleState(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtSetDraft].ExpectExec().WithArgs("hello", false, 500).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prepared[stmtSetDraft].ExpectExec().WithArgs("gone", true, 600).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.SetArticleState(context.Background(), "hello", models.Published, 500)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetArticleState(context.Background(), "gone", models.Draft, 600)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateArticle(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtUpdateArticle].ExpectExec().
		WithArgs("hello", "hi", "Hi!", "abs", "body", false, 900).
		WillReturnResult(sqlmock.NewResult(0, 1))

	f := models.ArticleFields{Slug: "hi", Title: "Hi!", Abstract: "abs", Content: "body", State: models.Published}
	ok, err := s.UpdateArticle(context.Background(), "hello", f, 900)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateArticle_SlugTaken(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtUpdateArticle].ExpectExec().
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := s.UpdateArticle(context.Background(), "hello", models.ArticleFields{Slug: "taken"}, 1)
	assert.ErrorIs(t, err, models.ErrSlugTaken)
}

func TestDeleteArticle_DBError(t *testing.T) {
	s, _, prepared := newStoreWithMock(t)

	prepared[stmtDeleteArticle].ExpectExec().WithArgs("hello").
		WillReturnError(errors.New("db down"))

	_, err := s.DeleteArticle(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete article: db down")
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, "migrations", gotDir)

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error { return errors.New("boom") }
	err := Migrate(context.Background(), nil)
	assert.ErrorContains(t, err, "migrate: boom")
}
