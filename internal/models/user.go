package models

import (
	"fmt"
	"unicode/utf8"
)

// User represents a row in the PostgreSQL users table.
type User struct {
	ID       int64  `json:"user_id"`
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Password string `json:"-"` // bcrypt hash, never serialize
	GitHub   string `json:"github"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
}

// UserField names a users column that may be updated on its own.
type UserField string

const (
	FieldFullname UserField = "fullname"
	FieldUsername UserField = "username"
	FieldPassword UserField = "password"
	FieldGitHub   UserField = "github"
	FieldEmail    UserField = "email"
	FieldBio      UserField = "bio"
)

// UserFields lists every updatable field in column order.
var UserFields = []UserField{FieldFullname, FieldUsername, FieldPassword, FieldGitHub, FieldEmail, FieldBio}

// maxUserLen holds the column widths of the users table. The password
// column stores a bcrypt hash and is not checked against operator input.
var maxUserLen = map[UserField]int{
	FieldFullname: 100,
	FieldUsername: 10,
	FieldGitHub:   30,
	FieldEmail:    100,
	FieldBio:      140,
}

// MaxLen returns the width of the field's column, or 0 when unbounded.
func (f UserField) MaxLen() int { return maxUserLen[f] }

// CheckLen reports ErrFieldTooLong when value does not fit the column.
func (f UserField) CheckLen(value string) error {
	limit := f.MaxLen()
	if n := utf8.RuneCountInString(value); limit > 0 && n > limit {
		return fmt.Errorf("%w: %s is %d characters, at most %d allowed", ErrFieldTooLong, f, n, limit)
	}
	return nil
}

// CheckLen validates every column-backed field of u.
func (u User) CheckLen() error {
	for _, kv := range [...]struct {
		field UserField
		value string
	}{
		{FieldFullname, u.Fullname},
		{FieldUsername, u.Username},
		{FieldGitHub, u.GitHub},
		{FieldEmail, u.Email},
		{FieldBio, u.Bio},
	} {
		if err := kv.field.CheckLen(kv.value); err != nil {
			return err
		}
	}
	return nil
}

// ParseUserField resolves operator input to one of the fixed fields.
func ParseUserField(s string) (UserField, error) {
	for _, f := range UserFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// LoginRequest is the form body for POST /board/login.
type LoginRequest struct {
	Username string
	Password string
}
