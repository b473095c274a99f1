package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
	"github.com/sudharshan41/apartmentrentalportal/internal/cli"
	"github.com/sudharshan41/apartmentrentalportal/internal/guard"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/session"
	"github.com/sudharshan41/apartmentrentalportal/internal/view"
)

// maxHops bounds redirect chains such as login -> return-to -> guard.
const maxHops = 8

// Params holds path parameters ("{id}") and query values of a route.
type Params map[string]string

type Route struct {
	// Pattern is a slash-separated path where "{name}" segments capture.
	Pattern string
	Guards  []guard.Guard
	View    func(Params) (view.View, error)
}

// Refused is returned when a guard turns a navigation away.
type Refused struct {
	Path     string
	Decision guard.Decision
}

func (r *Refused) Error() string {
	return fmt.Sprintf("%s: %s", r.Path, r.Decision.Reason)
}

type Navigator struct {
	Routes   []Route
	Session  *session.Store
	Out      io.Writer
	Logger   *slog.Logger
	Program  string
	Fallback string

	active view.View
	ctx    context.Context
	cancel context.CancelFunc
	hops   int
}

// Navigate opens path, renders it and follows whatever it asks for next.
func (n *Navigator) Navigate(ctx context.Context, path string) error {
	v, err := n.Open(ctx, path)
	return n.Finish(ctx, v, err)
}

// Open resolves path, evaluates its guards, tears down the active view and
// loads the new one under a fresh context. The view is returned even when
// Load fails so that callers can render its failed state.
func (n *Navigator) Open(ctx context.Context, path string) (view.View, error) {
	route, params, ok := n.match(path)
	if !ok {
		if n.Fallback == "" || n.Fallback == path {
			return nil, fmt.Errorf("no route for %q", path)
		}
		n.Logger.Debug("unknown route", "path", path, "fallback", n.Fallback)
		return n.Open(ctx, n.Fallback)
	}

	state := guard.State{Authenticated: n.Session.IsAuthenticated(), Role: n.Session.Role()}
	if d := guard.Evaluate(state, cleanPath(path), route.Guards...); !d.Allow {
		return nil, &Refused{Path: cleanPath(path), Decision: d}
	}

	v, err := route.View(params)
	if err != nil {
		return nil, err
	}

	n.teardown()
	viewCtx, cancel := context.WithCancel(ctx)
	n.active, n.ctx, n.cancel = v, viewCtx, cancel
	n.Logger.Debug("view activated", "path", path)
	return v, v.Load(viewCtx)
}

// Finish renders v (when there is one) and acts on err: redirects are
// followed, guard refusals and expired sessions become exit code 2, and
// other failures exit 1 after the view has shown its message.
func (n *Navigator) Finish(ctx context.Context, v view.View, err error) error {
	if v != nil {
		v.Render(n.Out)
	}
	if err == nil {
		return nil
	}

	// A 401 on a signed-in request means the token is no longer accepted.
	// A 401 from the sign-in call is only a rejected login.
	if api.IsTokenRejected(err) && n.Session.IsAuthenticated() {
		n.Logger.Debug("backend rejected token", "error", err)
		if logoutErr := n.Session.Logout(ctx); logoutErr != nil {
			n.Logger.Warn("clear session", "error", logoutErr)
		}
		fmt.Fprintf(n.Out, "\nYour session has expired. Run '%s login' to sign in again.\n", n.Program)
		return cli.Denied()
	}

	var refused *Refused
	if errors.As(err, &refused) {
		n.reportRefusal(refused)
		return cli.Denied()
	}

	var redirect *view.Redirect
	if errors.As(err, &redirect) {
		return n.follow(ctx, redirect)
	}

	if errors.Is(err, view.ErrAccessDenied) {
		return cli.Denied()
	}

	var fieldErr *model.FieldError
	var apiErr *api.Error
	if v != nil && (errors.As(err, &fieldErr) || errors.As(err, &apiErr)) {
		n.Logger.Debug("view failed", "error", err)
		return &cli.ExitError{Code: cli.ExitFailure}
	}
	return err
}

// Close tears down the active view.
func (n *Navigator) Close() {
	n.teardown()
}

func (n *Navigator) teardown() {
	if n.cancel != nil {
		n.cancel()
	}
	n.active, n.ctx, n.cancel = nil, nil, nil
}

// Context is the context of the active view. It ends when the view is torn
// down, so work started on behalf of the view stops with it.
func (n *Navigator) Context() context.Context {
	if n.ctx == nil {
		return context.Background()
	}
	return n.ctx
}

func (n *Navigator) follow(ctx context.Context, redirect *view.Redirect) error {
	n.hops++
	defer func() { n.hops-- }()
	if n.hops > maxHops {
		return fmt.Errorf("too many redirects ending at %s", redirect.Path)
	}

	if redirect.Delay > 0 {
		timer := time.NewTimer(redirect.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	fmt.Fprintln(n.Out)
	return n.Navigate(ctx, redirect.Path)
}

func (n *Navigator) reportRefusal(refused *Refused) {
	d := refused.Decision
	if d.ReturnTo != "" {
		fmt.Fprintf(n.Out, "Sign in to continue to %s.\nRun '%s login --return-to %s'.\n", d.ReturnTo, n.Program, d.ReturnTo)
		return
	}
	fmt.Fprintf(n.Out, "Access to %s denied (%s). Continue at %s.\n", refused.Path, d.Reason, d.Location())
}

func (n *Navigator) match(path string) (Route, Params, bool) {
	u, err := url.Parse(path)
	if err != nil {
		return Route{}, nil, false
	}
	segments := split(u.Path)
	for _, route := range n.Routes {
		params, ok := matchPattern(split(route.Pattern), segments)
		if !ok {
			continue
		}
		for key, values := range u.Query() {
			if _, taken := params[key]; !taken && len(values) > 0 {
				params[key] = values[0]
			}
		}
		return route, params, true
	}
	return Route{}, nil, false
}

func matchPattern(pattern, segments []string) (Params, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := Params{}
	for i, part := range pattern {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			params[part[1:len(part)-1]] = segments[i]
			continue
		}
		if part != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func cleanPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
