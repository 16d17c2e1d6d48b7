// Command bladmin manages operator accounts directly in the database.
//
//	bladmin create --username ada --fullname "Ada Lovelace"
//	bladmin update --username ada --field bio --value "..."
//	bladmin update --username ada --field password
//	bladmin show --username ada
//	bladmin delete --username ada
//
// Passwords are prompted on the terminal with echo disabled, or read as one
// line from stdin when it is not a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/xeze-org/bl/internal/auth"
	"github.com/xeze-org/bl/internal/config"
	"github.com/xeze-org/bl/internal/store"
)

func main() {
	cfg, err := config.Read()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	if cfg.PostgresDSN == "" {
		logrus.Fatal("POSTGRES_DSN is required")
	}

	ctx := context.Background()
	pg, err := store.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logrus.WithError(err).Fatal("postgres")
	}

	cmd := &commands{
		accounts: auth.NewAccounts(pg, auth.DefaultHasher),
		password: promptPassword,
		out:      os.Stdout,
	}
	code := 0
	if err := cmd.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			code = 2
		} else {
			fmt.Fprintln(os.Stderr, "bladmin:", err)
			code = 1
		}
	}
	pg.Close()
	os.Exit(code)
}
