// Package view holds one view model per screen of the tenant portal and the
// backoffice. A view loads through the api clients, records a Pending,
// Failed or Ready status and renders itself as text.
package view

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
)

type State int

const (
	Pending State = iota
	Failed
	Ready
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	default:
		return "ready"
	}
}

// Status is a view's load or submit state. Message is the error text when
// Failed and an optional confirmation when Ready.
type Status struct {
	State   State
	Message string
}

func (s *Status) begin() {
	*s = Status{State: Pending}
}

// fail records the backend's message for err, or fallback when it has none,
// and returns err so callers can propagate it.
func (s *Status) fail(err error, fallback string) error {
	*s = Status{State: Failed, Message: api.Message(err, fallback)}
	return err
}

func (s *Status) ready(message string) {
	*s = Status{State: Ready, Message: message}
}

// View is what the navigator activates. Load runs once per activation under
// a context that is cancelled when the view is torn down.
type View interface {
	Load(ctx context.Context) error
	Render(w io.Writer)
}

// Redirect is returned by Load or an action to ask the navigator for another
// route, optionally after Delay. Cause is the failure that triggered it, or
// nil when the redirect follows a success.
type Redirect struct {
	Path  string
	Delay time.Duration
	Cause error
}

func (r *Redirect) Error() string {
	if r.Cause != nil {
		return "redirect to " + r.Path + ": " + r.Cause.Error()
	}
	return "redirect to " + r.Path
}

func (r *Redirect) Unwrap() error {
	return r.Cause
}

// ErrAccessDenied is returned by the backoffice login for non-admin accounts.
var ErrAccessDenied = errors.New("access denied")
