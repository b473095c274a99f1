// Package app wires configuration, session, transport and views into the
// command trees of the portal and backoffice binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
	"github.com/sudharshan41/apartmentrentalportal/internal/cli"
	"github.com/sudharshan41/apartmentrentalportal/internal/config"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/session"
	"github.com/sudharshan41/apartmentrentalportal/internal/storage"
	"github.com/sudharshan41/apartmentrentalportal/internal/transport"
	"github.com/sudharshan41/apartmentrentalportal/internal/view"
)

const (
	Portal     = "portal"
	Backoffice = "backoffice"
)

type Options struct {
	Program string
	Config  config.Config
	Storage storage.Storage
	Logger  *slog.Logger
	Out     io.Writer
	In      io.Reader
	// Base is the innermost HTTP transport; nil means the default one.
	Base http.RoundTripper
}

type App struct {
	Program string
	Config  config.Config
	Client  *api.Client
	Session *session.Store
	Logger  *slog.Logger
	Out     io.Writer
	Prompt  *cli.Prompter
	Nav     *Navigator

	unsubscribe func()
}

// New restores the persisted session and builds the navigator for
// opts.Program. The storage is owned by the caller.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// The bearer layer reads the token on every request, so it can be
	// wired before the session store it reads from exists.
	var store *session.Store
	httpClient := transport.NewClient(transport.Options{
		Tokens: transport.TokenFunc(func() string {
			if store == nil {
				return ""
			}
			return store.Token()
		}),
		Logger:  opts.Logger,
		Timeout: opts.Config.HTTPTimeout,
		Base:    opts.Base,
	})
	client, err := api.New(opts.Config.APIURL, httpClient)
	if err != nil {
		return nil, err
	}
	store, err = session.Open(ctx, opts.Storage, client.Auth)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	a := &App{
		Program: opts.Program,
		Config:  opts.Config,
		Client:  client,
		Session: store,
		Logger:  opts.Logger,
		Out:     opts.Out,
		Prompt:  &cli.Prompter{In: opts.In, Out: opts.Out},
	}
	a.unsubscribe = store.Subscribe(func(current session.Session, ok bool) {
		if ok {
			a.Logger.Debug("session started", "user", current.User.Email, "role", current.User.Role)
			return
		}
		a.Logger.Debug("session ended")
	})

	switch opts.Program {
	case Portal:
		a.Nav = &Navigator{Routes: a.portalRoutes(), Fallback: "/"}
	case Backoffice:
		a.Nav = &Navigator{Routes: a.backofficeRoutes(), Fallback: "/dashboard"}
	default:
		store.Close()
		return nil, fmt.Errorf("unknown program %q", opts.Program)
	}
	a.Nav.Session, a.Nav.Out, a.Nav.Logger, a.Nav.Program = store, opts.Out, opts.Logger, opts.Program
	return a, nil
}

// Command returns the root command for the configured program.
func (a *App) Command() *cli.Command {
	if a.Program == Backoffice {
		return a.backofficeCommand()
	}
	return a.portalCommand()
}

func (a *App) Close() {
	a.Nav.Close()
	a.unsubscribe()
	a.Session.Close()
}

// act opens path and, when it loaded, runs fn against the view before
// rendering it.
func (a *App) act(ctx context.Context, path string, fn func(context.Context, view.View) error) error {
	v, err := a.Nav.Open(ctx, path)
	if err == nil {
		err = fn(a.Nav.Context(), v)
	}
	return a.Nav.Finish(ctx, v, err)
}

func (a *App) credentials(email, password string) (string, string, error) {
	var err error
	if email == "" {
		if email, err = a.Prompt.Line("Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = a.Prompt.Password("Password: "); err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}

func (a *App) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "Sign out and forget the stored session",
		Run: func(ctx context.Context, _ []string) error {
			if err := a.Session.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.Out, "Signed out.")
			return nil
		},
	}
}

type whoami struct {
	User      model.User `json:"user"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (a *App) whoamiCommand() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the signed-in account",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("whoami", pflag.ContinueOnError)
			fs.BoolVar(&asJSON, "json", false, "print as JSON")
			return fs
		},
		Run: func(_ context.Context, _ []string) error {
			current, _ := a.Session.Current()
			claims, err := a.Session.Claims()
			if errors.Is(err, session.ErrNoSession) {
				fmt.Fprintf(a.Out, "Not signed in. Run '%s login'.\n", a.Program)
				return cli.Denied()
			}
			out := whoami{User: current.User}
			if err != nil {
				a.Logger.Debug("decode token claims", "error", err)
			} else if claims.ExpiresAt != nil {
				exp := claims.ExpiresAt.Time
				out.ExpiresAt = &exp
			}

			if asJSON {
				return cli.WriteJSON(a.Out, out)
			}
			fmt.Fprintf(a.Out, "%s <%s>\nrole: %s\n", out.User.DisplayName(), out.User.Email, out.User.Role)
			if out.ExpiresAt != nil {
				fmt.Fprintf(a.Out, "token expires: %s\n", out.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func (a *App) healthCommand() *cli.Command {
	return &cli.Command{
		Name:    "health",
		Summary: "Check that the backend answers",
		Run: func(ctx context.Context, _ []string) error {
			if err := a.Client.Health(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "%s is up.\n", a.Client.BaseURL())
			return nil
		},
	}
}

func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one %s id", what)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, args[0])
	}
	return id, nil
}

func paramInt(p Params, key string) (int, error) {
	raw := p[key]
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &model.FieldError{Field: key, Reason: "must be a whole number"}
	}
	return n, nil
}

func paramID(p Params, key string) (int64, error) {
	raw := p[key]
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &model.FieldError{Field: key, Reason: "must be a positive id"}
	}
	return id, nil
}
