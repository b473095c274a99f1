package guard

import "testing"

func TestAuthenticatedRedirectsWithReturnTo(t *testing.T) {
	g := Authenticated("/login")

	d := g(State{}, "/bookings")
	if d.Allow {
		t.Fatalf("expected signed-out caller refused")
	}
	if d.Redirect != "/login" || d.ReturnTo != "/bookings" {
		t.Fatalf("unexpected decision %+v", d)
	}
	if got := d.Location(); got != "/login?returnUrl=%2Fbookings" {
		t.Fatalf("expected encoded location, got %q", got)
	}

	if d := g(State{Authenticated: true, Role: "resident"}, "/bookings"); !d.Allow {
		t.Fatalf("expected signed-in caller allowed, got %+v", d)
	}
}

func TestRequireRole(t *testing.T) {
	g := RequireRole("admin", "/login")

	if d := g(State{Authenticated: true, Role: "admin"}, "/units"); !d.Allow {
		t.Fatalf("expected admin allowed")
	}
	d := g(State{Authenticated: true, Role: "resident"}, "/units")
	if d.Allow {
		t.Fatalf("expected resident refused")
	}
	if d.Redirect != "/login" || d.ReturnTo != "" {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.Location() != "/login" {
		t.Fatalf("expected bare redirect, got %q", d.Location())
	}
}

func TestEvaluateFirstRefusalWins(t *testing.T) {
	guards := []Guard{Authenticated("/login"), RequireRole("admin", "/denied")}

	d := Evaluate(State{}, "/dashboard", guards...)
	if d.Allow || d.Redirect != "/login" || d.ReturnTo != "/dashboard" {
		t.Fatalf("expected auth guard to fire first, got %+v", d)
	}

	d = Evaluate(State{Authenticated: true, Role: "resident"}, "/dashboard", guards...)
	if d.Allow || d.Redirect != "/denied" {
		t.Fatalf("expected role guard refusal, got %+v", d)
	}

	if d := Evaluate(State{Authenticated: true, Role: "admin"}, "/dashboard", guards...); !d.Allow {
		t.Fatalf("expected admin allowed, got %+v", d)
	}
	if d := Evaluate(State{}, "/"); !d.Allow {
		t.Fatalf("expected no guards to allow")
	}
	if (Decision{Allow: true}).Location() != "" {
		t.Fatalf("expected empty location for allowed decision")
	}
}
