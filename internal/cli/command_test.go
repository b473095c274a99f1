package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesNested(t *testing.T) {
	var called string
	var received []string
	root := &Command{
		Name: "backoffice",
		Subcommands: []*Command{
			{
				Name: "bookings",
				Subcommands: []*Command{
					{Name: "approve", Run: func(_ context.Context, args []string) error {
						called, received = "bookings approve", args
						return nil
					}},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"bookings", "approve", "7"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if called != "bookings approve" || len(received) != 1 || received[0] != "7" {
		t.Fatalf("unexpected dispatch %q %v", called, received)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var returnTo string
	var got []string
	cmd := &Command{
		Name: "login",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&returnTo, "return-to", "/", "resume this route after login")
			return fs
		},
		Run: func(_ context.Context, args []string) error {
			got = args
			return nil
		},
	}

	if err := cmd.Execute(context.Background(), []string{"--return-to", "/bookings", "extra"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if returnTo != "/bookings" || len(got) != 1 || got[0] != "extra" {
		t.Fatalf("unexpected parse %q %v", returnTo, got)
	}

	err := cmd.Execute(context.Background(), []string{"--retrun-to", "/x"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --return-to") {
		t.Fatalf("expected flag suggestion, got %v", err)
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:   "portal",
		Output: &help,
		Subcommands: []*Command{
			{Name: "bookings", Run: func(context.Context, []string) error { return nil }},
			{Name: "flats", Run: func(context.Context, []string) error { return nil }},
		},
	}

	err := root.Execute(context.Background(), []string{"bokings"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "bookings"`) {
		t.Fatalf("expected suggestion, got %v", err)
	}

	if err := root.Execute(context.Background(), nil); err == nil {
		t.Fatalf("expected subcommand required")
	}
	if !strings.Contains(help.String(), "flats") {
		t.Fatalf("expected help listing, got %q", help.String())
	}
}

func TestCode(t *testing.T) {
	if code, report := Code(nil); code != ExitOK || report {
		t.Fatalf("expected 0/false, got %d/%v", code, report)
	}
	if code, report := Code(Denied()); code != ExitDenied || report {
		t.Fatalf("expected 2/false, got %d/%v", code, report)
	}
	wrapped := fmt.Errorf("navigate: %w", Denied())
	if code, _ := Code(wrapped); code != ExitDenied {
		t.Fatalf("expected wrapped exit code 2, got %d", code)
	}
	if code, report := Code(errors.New("boom")); code != ExitFailure || !report {
		t.Fatalf("expected 1/true, got %d/%v", code, report)
	}
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: strings.NewReader("admin@rental.com\nadmin123"), Out: &out}

	email, err := p.Line("Email: ")
	if err != nil || email != "admin@rental.com" {
		t.Fatalf("unexpected email %q, %v", email, err)
	}
	password, err := p.Password("Password: ")
	if err != nil || password != "admin123" {
		t.Fatalf("unexpected password %q, %v", password, err)
	}
	if _, err := p.Line("Again: "); err == nil {
		t.Fatalf("expected EOF error")
	}
	if !strings.Contains(out.String(), "Email: Password: ") {
		t.Fatalf("expected prompts written, got %q", out.String())
	}
}

func TestWriteJSONNilSlice(t *testing.T) {
	var buf bytes.Buffer
	var items []string
	if err := WriteJSON(&buf, items); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected [], got %q", buf.String())
	}
}
