package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/xeze-org/bl/internal/models"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserField(ctx context.Context, username string, field models.UserField, value string) (bool, error)
	DeleteUser(ctx context.Context, username string) (bool, error)
}

// Accounts manages operator accounts. Passwords only ever reach the store
// hashed.
type Accounts struct {
	users  UserStore
	hasher Hasher
}

func NewAccounts(users UserStore, hasher Hasher) *Accounts {
	return &Accounts{users: users, hasher: hasher}
}

// Create hashes password and inserts u. Values wider than their column
// are rejected with ErrFieldTooLong before anything is written.
func (a *Accounts) Create(ctx context.Context, u models.User, password string) (*models.User, error) {
	if err := u.CheckLen(); err != nil {
		return nil, err
	}
	hashed, err := a.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u.Password = hashed
	if err := a.users.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	u.Password = ""
	return &u, nil
}

func (a *Accounts) Get(ctx context.Context, username string) (*models.User, error) {
	u, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	u.Password = ""
	return u, nil
}

// UpdateField sets a single field. The password field is rehashed first.
func (a *Accounts) UpdateField(ctx context.Context, username string, field models.UserField, value string) error {
	if err := field.CheckLen(value); err != nil {
		return err
	}
	if field == models.FieldPassword {
		hashed, err := a.hasher.Hash(value)
		if err != nil {
			return err
		}
		value = hashed
	}
	ok, err := a.users.UpdateUserField(ctx, username, field, value)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotFound
	}
	return nil
}

func (a *Accounts) Delete(ctx context.Context, username string) error {
	ok, err := a.users.DeleteUser(ctx, username)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotFound
	}
	return nil
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords both yield ErrInvalidCredentials; storage failures are
// returned as is.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}
	u, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !a.hasher.Verify(password, u.Password) {
		return nil, models.ErrInvalidCredentials
	}
	u.Password = ""
	return u, nil
}
