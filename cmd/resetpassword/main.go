// Command resetpassword sets a new password for a registered user.
//
//	resetpassword <email> [newPassword]
//
// The password is prompted for when omitted. Exit codes: 1 usage, 2 unknown
// email, 3 any other failure.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"tripmind/config"
	"tripmind/database"
	"tripmind/repository"
	"tripmind/services"

	"golang.org/x/term"
)

var errUsage = errors.New("usage: resetpassword <email> [newPassword]")

// openUsers connects to the configured store. Tests replace it.
var openUsers = func(ctx context.Context, log *slog.Logger) (repository.UserRepository, func(), error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store != config.StoreMongo {
		return nil, nil, fmt.Errorf("STORE_BACKEND %q has no persistent users", cfg.Store)
	}
	m, err := database.NewManager(cfg.Mongo, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Disconnect(ctx)
	}
	if err := m.Run(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	return repository.NewUserRepository(m.Database()), closeFn, nil
}

func main() {
	os.Exit(exitCode(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr), os.Stderr))
}

// exitCode reports err on stderr and maps it to the process exit status.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return 1
	case services.IsKind(err, services.KindNotFound):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 3
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 || fs.Arg(0) == "" {
		return errUsage
	}
	email := fs.Arg(0)

	password := fs.Arg(1)
	if password == "" {
		fmt.Fprint(stdout, "New password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password cannot be empty", errUsage)
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	users, closeFn, err := openUsers(ctx, log)
	if err != nil {
		return err
	}
	defer closeFn()

	svc := services.NewAuthService(users, nil)
	if err := svc.ResetPassword(ctx, email, password); err != nil {
		return fmt.Errorf("%s: %w", email, err)
	}
	fmt.Fprintf(stdout, "Password updated for %s\n", email)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
