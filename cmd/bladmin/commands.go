package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/xeze-org/bl/internal/auth"
	"github.com/xeze-org/bl/internal/models"
)

var errUsage = errors.New("usage")

const usage = `usage: bladmin <command> [flags]

commands:
  create  --username U --fullname F [--github G] [--email E] [--bio B]
  update  --username U --field FIELD [--value V]
  show    --username U
  delete  --username U

fields: fullname, username, password, github, email, bio
`

type commands struct {
	accounts *auth.Accounts
	password func() (string, error)
	out      io.Writer
}

func (c *commands) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "create":
		return c.create(ctx, args[1:])
	case "update":
		return c.update(ctx, args[1:])
	case "show":
		return c.show(ctx, args[1:])
	case "delete":
		return c.delete(ctx, args[1:])
	default:
		return errUsage
	}
}

func (c *commands) create(ctx context.Context, args []string) error {
	var u models.User
	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
	fs.StringVar(&u.Username, "username", "", "login name (at most 10 characters)")
	fs.StringVar(&u.Fullname, "fullname", "", "display name")
	fs.StringVar(&u.GitHub, "github", "", "GitHub handle")
	fs.StringVar(&u.Email, "email", "", "contact email")
	fs.StringVar(&u.Bio, "bio", "", "short biography")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if u.Username == "" || u.Fullname == "" {
		return fmt.Errorf("--username and --fullname are required")
	}

	password, err := c.password()
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is empty")
	}
	created, err := c.accounts.Create(ctx, u, password)
	if err != nil {
		return fmt.Errorf("create %s: %w", u.Username, err)
	}
	fmt.Fprintf(c.out, "created %s (id %d)\n", created.Username, created.ID)
	return nil
}

func (c *commands) update(ctx context.Context, args []string) error {
	var username, fieldName, value string
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
	fs.StringVar(&username, "username", "", "account to change")
	fs.StringVar(&fieldName, "field", "", "field to change")
	fs.StringVar(&value, "value", "", "new value (prompted for password)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("--username is required")
	}
	field, err := models.ParseUserField(fieldName)
	if err != nil {
		return err
	}
	if field == models.FieldPassword {
		if value, err = c.password(); err != nil {
			return err
		}
	}
	if value == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if err := c.accounts.UpdateField(ctx, username, field, value); err != nil {
		return fmt.Errorf("update %s: %w", username, err)
	}
	fmt.Fprintf(c.out, "updated %s of %s\n", field, username)
	return nil
}

func (c *commands) show(ctx context.Context, args []string) error {
	username, err := parseUsername("show", args)
	if err != nil {
		return err
	}
	u, err := c.accounts.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("show %s: %w", username, err)
	}
	fmt.Fprintf(c.out, "id:       %d\nusername: %s\nfullname: %s\ngithub:   %s\nemail:    %s\nbio:      %s\n",
		u.ID, u.Username, u.Fullname, u.GitHub, u.Email, u.Bio)
	return nil
}

func (c *commands) delete(ctx context.Context, args []string) error {
	username, err := parseUsername("delete", args)
	if err != nil {
		return err
	}
	if err := c.accounts.Delete(ctx, username); err != nil {
		return fmt.Errorf("delete %s: %w", username, err)
	}
	fmt.Fprintf(c.out, "deleted %s and their articles\n", username)
	return nil
}

func parseUsername(name string, args []string) (string, error) {
	var username string
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&username, "username", "", "account name")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if username == "" {
		return "", fmt.Errorf("--username is required")
	}
	return username, nil
}

// promptPassword reads the password with echo disabled, or one line from
// stdin when stdin is piped.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
