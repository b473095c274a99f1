package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
	"github.com/sudharshan41/apartmentrentalportal/internal/apitest"
	"github.com/sudharshan41/apartmentrentalportal/internal/cli"
	"github.com/sudharshan41/apartmentrentalportal/internal/config"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/session"
	"github.com/sudharshan41/apartmentrentalportal/internal/storage"
	"github.com/sudharshan41/apartmentrentalportal/internal/view"
)

type harness struct {
	app     *App
	backend *apitest.Server
	storage *storage.Memory
	out     *bytes.Buffer
}

func newHarness(t *testing.T, program string) *harness {
	t.Helper()
	h := &harness{backend: apitest.New(), storage: storage.NewMemory(), out: &bytes.Buffer{}}
	cfg := config.Config{APIURL: h.backend.Start(t), HTTPTimeout: 5 * time.Second}
	a, err := New(context.Background(), Options{
		Program: program,
		Config:  cfg,
		Storage: h.storage,
		Out:     h.out,
		In:      strings.NewReader(""),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	h.app = a
	return h
}

// run executes one command line and returns its exit code and output.
func (h *harness) run(args ...string) (int, string) {
	h.out.Reset()
	code, _ := cli.Code(h.app.Command().Execute(context.Background(), args))
	return code, h.out.String()
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, out := h.run(args...)
	if code != cli.ExitOK {
		t.Fatalf("%s: expected exit 0, got %d\n%s", strings.Join(args, " "), code, out)
	}
	return out
}

func (h *harness) pending(t *testing.T) model.Booking {
	t.Helper()
	for _, b := range h.backend.Bookings() {
		if b.Status == model.BookingPending {
			return b
		}
	}
	t.Fatalf("no pending booking")
	return model.Booking{}
}

func TestBackofficeLoginOpensDashboard(t *testing.T) {
	h := newHarness(t, Backoffice)

	out := h.mustRun(t, "login", "--email", apitest.AdminEmail, "--password", apitest.AdminPassword)
	if !strings.Contains(out, "Dashboard") || !strings.Contains(out, "Recent Bookings") {
		t.Fatalf("expected dashboard rendered, got %q", out)
	}
	if h.app.Session.Role() != model.RoleAdmin {
		t.Fatalf("expected admin session, got role %q", h.app.Session.Role())
	}
}

func TestBackofficeLoginDeniesResident(t *testing.T) {
	h := newHarness(t, Backoffice)

	code, out := h.run("login", "--email", apitest.ResidentEmail, "--password", apitest.ResidentPassword)
	if code != cli.ExitDenied {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(out, "Access denied. Admin privileges required.") {
		t.Fatalf("expected denial message, got %q", out)
	}
	if h.app.Session.IsAuthenticated() || h.storage.Len() != 0 {
		t.Fatalf("expected session cleared")
	}
}

func TestBackofficeLoginWrongPassword(t *testing.T) {
	h := newHarness(t, Backoffice)

	code, out := h.run("login", "--email", apitest.AdminEmail, "--password", "wrong")
	if code != cli.ExitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out, "Invalid email or password") || strings.Contains(out, "expired") {
		t.Fatalf("expected login failure only, got %q", out)
	}
}

func TestFailedReloginKeepsSession(t *testing.T) {
	h := newHarness(t, Portal)
	h.mustRun(t, "login", "--email", apitest.ResidentEmail, "--password", apitest.ResidentPassword)
	stored := h.storage.Len()

	code, out := h.run("login", "--email", apitest.ResidentEmail, "--password", "wrong")
	if code != cli.ExitFailure {
		t.Fatalf("expected exit 1, got %d\n%s", code, out)
	}
	if !strings.Contains(out, "Invalid email or password") || strings.Contains(out, "expired") {
		t.Fatalf("expected login failure only, got %q", out)
	}
	if !h.app.Session.IsAuthenticated() || h.storage.Len() != stored {
		t.Fatalf("expected existing session kept")
	}
	h.mustRun(t, "bookings")
}

func TestBackofficeRoutesRequireAdmin(t *testing.T) {
	h := newHarness(t, Backoffice)

	code, out := h.run("towers")
	if code != cli.ExitDenied || !strings.Contains(out, "backoffice login --return-to /towers") {
		t.Fatalf("expected sign-in prompt, got %d %q", code, out)
	}

	if _, err := h.app.Session.Login(context.Background(), apitest.ResidentEmail, apitest.ResidentPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	code, out = h.run("towers")
	if code != cli.ExitDenied || !strings.Contains(out, "admin role required") {
		t.Fatalf("expected role refusal, got %d %q", code, out)
	}
	if h.backend.Count(http.MethodGet, "/towers") != 0 {
		t.Fatalf("expected no request for a refused route")
	}
}

func TestPortalGuardResumesAfterLogin(t *testing.T) {
	h := newHarness(t, Portal)

	code, out := h.run("bookings")
	if code != cli.ExitDenied || !strings.Contains(out, "portal login --return-to /bookings") {
		t.Fatalf("expected return-to hint, got %d %q", code, out)
	}

	out = h.mustRun(t, "login", "--email", apitest.ResidentEmail, "--password", apitest.ResidentPassword, "--return-to", "/bookings")
	if !strings.Contains(out, "My Bookings") || !strings.Contains(out, "Swimming Pool") {
		t.Fatalf("expected bookings rendered, got %q", out)
	}
}

func TestPortalBookingFlow(t *testing.T) {
	h := newHarness(t, Portal)

	code, out := h.run("book", "--amenity", "13", "--date", "2030-01-15", "--start", "09:00", "--end", "10:00")
	if code != cli.ExitDenied || !strings.Contains(out, "--return-to /amenities") {
		t.Fatalf("expected sign-in prompt for /amenities, got %d %q", code, out)
	}

	h.mustRun(t, "login", "--email", apitest.ResidentEmail, "--password", apitest.ResidentPassword)
	out = h.mustRun(t, "book", "--amenity", "13", "--date", "2030-01-15", "--start", "09:00", "--end", "10:00", "--notes", "Car wash")
	if !strings.Contains(out, "Booking request submitted successfully! Awaiting approval.") {
		t.Fatalf("expected success message, got %q", out)
	}
	if !strings.Contains(out, "My Bookings") || !strings.Contains(out, "Parking") {
		t.Fatalf("expected bookings list after the redirect, got %q", out)
	}

	req, ok := h.backend.Last(http.MethodPost, "/bookings")
	if !ok {
		t.Fatalf("expected POST /bookings")
	}
	var keys []string
	for key := range req.JSON() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if got := strings.Join(keys, ","); got != "amenity_id,booking_date,end_time,notes,start_time" {
		t.Fatalf("unexpected body fields %s", got)
	}
}

func TestPortalBookingValidation(t *testing.T) {
	h := newHarness(t, Portal)
	h.mustRun(t, "login", "--email", apitest.ResidentEmail, "--password", apitest.ResidentPassword)

	code, out := h.run("book", "--amenity", "13", "--date", "15/01/2030", "--start", "09:00", "--end", "10:00")
	if code != cli.ExitFailure || !strings.Contains(out, "booking_date") {
		t.Fatalf("expected date validation failure, got %d %q", code, out)
	}
	if h.backend.Count(http.MethodPost, "/bookings") != 0 {
		t.Fatalf("expected nothing sent")
	}
}

func TestPortalCancel(t *testing.T) {
	h := newHarness(t, Portal)
	h.mustRun(t, "login", "--email", apitest.OtherEmail, "--password", apitest.OtherPassword)
	pending := h.pending(t)

	out := h.mustRun(t, "cancel", strconv.FormatInt(pending.ID, 10))
	if !strings.Contains(out, "cancelled") || !strings.Contains(out, "You have no bookings yet.") {
		t.Fatalf("expected cancellation and refreshed list, got %q", out)
	}
	if code, _ := h.run("cancel", "abc"); code != cli.ExitFailure {
		t.Fatalf("expected bad id to fail, got %d", code)
	}
}

func TestExpiredSessionIsCleared(t *testing.T) {
	h := newHarness(t, Portal)
	h.mustRun(t, "login", "--email", apitest.ResidentEmail, "--password", apitest.ResidentPassword)
	h.backend.RevokeTokens()

	code, out := h.run("bookings")
	if code != cli.ExitDenied {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(out, "session has expired") {
		t.Fatalf("expected expiry notice, got %q", out)
	}
	if h.app.Session.IsAuthenticated() || h.storage.Len() != 0 {
		t.Fatalf("expected session destroyed")
	}
}

func TestApproveFromCommandLine(t *testing.T) {
	h := newHarness(t, Backoffice)
	h.mustRun(t, "login", "--email", apitest.AdminEmail, "--password", apitest.AdminPassword)
	pending := h.pending(t)
	before := h.backend.Count(http.MethodGet, "/bookings")

	out := h.mustRun(t, "bookings", "approve", strconv.FormatInt(pending.ID, 10), "--notes", "See you there")
	if !strings.Contains(out, "approved") {
		t.Fatalf("expected approval notice, got %q", out)
	}
	req, ok := h.backend.Last(http.MethodPut, "/bookings/"+strconv.FormatInt(pending.ID, 10))
	if !ok {
		t.Fatalf("expected PUT")
	}
	if body := req.JSON(); body["status"] != "approved" || body["admin_notes"] != "See you there" {
		t.Fatalf("unexpected body %v", body)
	}
	if got := h.backend.Count(http.MethodGet, "/bookings") - before; got != 2 {
		t.Fatalf("expected load plus re-fetch, got %d list requests", got)
	}
}

func TestBookingsStatusFilter(t *testing.T) {
	h := newHarness(t, Backoffice)
	h.mustRun(t, "login", "--email", apitest.AdminEmail, "--password", apitest.AdminPassword)

	out := h.mustRun(t, "bookings", "--status", "pending")
	if !strings.Contains(out, "Gym") || strings.Contains(out, "Swimming Pool") {
		t.Fatalf("expected only the pending booking, got %q", out)
	}
	if code, _ := h.run("bookings", "--status", "lost"); code != cli.ExitFailure {
		t.Fatalf("expected unknown status to fail, got %d", code)
	}
}

func TestTowersCreateAndDelete(t *testing.T) {
	h := newHarness(t, Backoffice)
	h.mustRun(t, "login", "--email", apitest.AdminEmail, "--password", apitest.AdminPassword)

	out := h.mustRun(t, "towers", "create", "--name", "Harbour Tower", "--address", "9 Quay Road", "--floors", "12")
	if !strings.Contains(out, `Tower "Harbour Tower" created`) || !strings.Contains(out, "9 Quay Road") {
		t.Fatalf("expected created tower listed, got %q", out)
	}

	towers, err := h.app.Client.Towers.List(context.Background())
	if err != nil {
		t.Fatalf("list towers: %v", err)
	}
	var id int64
	for _, tower := range towers {
		if tower.Name == "Harbour Tower" {
			id = tower.ID
		}
	}
	if id == 0 {
		t.Fatalf("expected tower on the server")
	}

	out = h.mustRun(t, "towers", "delete", strconv.FormatInt(id, 10))
	if strings.Contains(out, "9 Quay Road") {
		t.Fatalf("expected tower removed from the list, got %q", out)
	}
}

func TestUnitsUpdateChangesGivenFields(t *testing.T) {
	h := newHarness(t, Backoffice)
	h.mustRun(t, "login", "--email", apitest.AdminEmail, "--password", apitest.AdminPassword)

	units, err := h.app.Client.Units.List(context.Background(), api.UnitFilter{})
	if err != nil {
		t.Fatalf("list units: %v", err)
	}
	target := units[0]

	h.mustRun(t, "units", "update", strconv.FormatInt(target.ID, 10), "--rent", "1750")
	req, ok := h.backend.Last(http.MethodPut, "/units/"+strconv.FormatInt(target.ID, 10))
	if !ok {
		t.Fatalf("expected PUT")
	}
	body := req.JSON()
	if body["rent_amount"] != 1750.0 || body["unit_number"] != target.UnitNumber {
		t.Fatalf("expected only rent changed, got %v", body)
	}

	if code, _ := h.run("units", "update", "999", "--rent", "10"); code != cli.ExitFailure {
		t.Fatalf("expected unknown unit to fail, got %d", code)
	}
}

func TestPortalFlatsFilter(t *testing.T) {
	h := newHarness(t, Portal)

	out := h.mustRun(t, "flats", "--bedrooms", "3")
	if !strings.Contains(out, "A-102") || !strings.Contains(out, "B-301") || strings.Contains(out, "A-101") {
		t.Fatalf("expected three-bedroom flats only, got %q", out)
	}
}

func TestPortalFlatDetailFallsBackToList(t *testing.T) {
	h := newHarness(t, Portal)

	out := h.mustRun(t, "flat", "999")
	if !strings.Contains(out, "Unit not found") || !strings.Contains(out, "Available Flats") {
		t.Fatalf("expected error then flats list, got %q", out)
	}
}

func TestWhoamiAndLogout(t *testing.T) {
	h := newHarness(t, Portal)

	if code, _ := h.run("whoami"); code != cli.ExitDenied {
		t.Fatalf("expected exit 2 when signed out, got %d", code)
	}

	h.mustRun(t, "login", "--email", apitest.ResidentEmail, "--password", apitest.ResidentPassword)
	out := h.mustRun(t, "whoami", "--json")
	var got whoami
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode whoami: %v\n%s", err, out)
	}
	if got.User.Email != apitest.ResidentEmail || got.ExpiresAt == nil {
		t.Fatalf("unexpected whoami %+v", got)
	}

	h.mustRun(t, "logout")
	if h.storage.Len() != 0 {
		t.Fatalf("expected storage cleared")
	}
	h.mustRun(t, "logout")
}

func TestBackofficeLoginResumesReturnTo(t *testing.T) {
	h := newHarness(t, Backoffice)

	out := h.mustRun(t, "login", "--email", apitest.AdminEmail, "--password", apitest.AdminPassword, "--return-to", "/tenants")
	if !strings.Contains(out, "Tenants") || !strings.Contains(out, apitest.OtherEmail) {
		t.Fatalf("expected tenants rendered, got %q", out)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	h := newHarness(t, Portal)
	err := h.app.Command().Execute(context.Background(), []string{"bookngs"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "bookings"`) {
		t.Fatalf("expected suggestion, got %v", err)
	}
}

type stubView struct {
	ctx      context.Context
	err      error
	rendered int
}

func (p *stubView) Load(ctx context.Context) error {
	p.ctx = ctx
	return p.err
}

func (p *stubView) Render(io.Writer) { p.rendered++ }

func newStubNavigator(t *testing.T, routes ...Route) *Navigator {
	t.Helper()
	store, err := session.Open(context.Background(), storage.NewMemory(), nil)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return &Navigator{
		Routes:   routes,
		Session:  store,
		Out:      io.Discard,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Program:  "portal",
		Fallback: "/a",
	}
}

func stubRoute(pattern string, p *stubView) Route {
	return Route{Pattern: pattern, View: func(Params) (view.View, error) { return p, nil }}
}

func TestNavigatorTearsDownPreviousView(t *testing.T) {
	first, second := &stubView{}, &stubView{}
	n := newStubNavigator(t, stubRoute("/a", first), stubRoute("/b", second))

	if err := n.Navigate(context.Background(), "/a"); err != nil {
		t.Fatalf("navigate a: %v", err)
	}
	if first.ctx.Err() != nil {
		t.Fatalf("expected active view context live")
	}
	if err := n.Navigate(context.Background(), "/b"); err != nil {
		t.Fatalf("navigate b: %v", err)
	}
	if !errors.Is(first.ctx.Err(), context.Canceled) {
		t.Fatalf("expected previous view cancelled, got %v", first.ctx.Err())
	}
	if second.ctx.Err() != nil || second.rendered != 1 {
		t.Fatalf("expected second view active and rendered once")
	}

	n.Close()
	if second.ctx.Err() == nil {
		t.Fatalf("expected close to tear down the active view")
	}
}

func TestActionRunsUnderViewContext(t *testing.T) {
	first, second := &stubView{}, &stubView{}
	n := newStubNavigator(t, stubRoute("/a", first), stubRoute("/b", second))
	a := &App{Nav: n}

	var actionCtx context.Context
	err := a.act(context.Background(), "/a", func(ctx context.Context, _ view.View) error {
		actionCtx = ctx
		return nil
	})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if actionCtx != first.ctx {
		t.Fatalf("expected action to get the view context")
	}
	if err := n.Navigate(context.Background(), "/b"); err != nil {
		t.Fatalf("navigate b: %v", err)
	}
	if !errors.Is(actionCtx.Err(), context.Canceled) {
		t.Fatalf("expected action context cancelled with its view, got %v", actionCtx.Err())
	}
}

func TestNavigatorUnknownPathFallsBack(t *testing.T) {
	home := &stubView{}
	n := newStubNavigator(t, stubRoute("/a", home))
	if err := n.Navigate(context.Background(), "/nowhere"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if home.rendered != 1 {
		t.Fatalf("expected fallback rendered")
	}
}

func TestNavigatorMatchesParams(t *testing.T) {
	var got Params
	n := newStubNavigator(t, Route{Pattern: "/flats/{id}", View: func(p Params) (view.View, error) {
		got = p
		return &stubView{}, nil
	}})
	if err := n.Navigate(context.Background(), "/flats/42?returnUrl=%2Fbookings"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if got["id"] != "42" || got["returnUrl"] != "/bookings" {
		t.Fatalf("unexpected params %v", got)
	}
}

func TestNavigatorDelayedRedirectIsCancellable(t *testing.T) {
	p := &stubView{err: &view.Redirect{Path: "/a", Delay: time.Hour}}
	n := newStubNavigator(t, stubRoute("/slow", p), stubRoute("/a", &stubView{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.Navigate(ctx, "/slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNavigatorStopsRedirectLoops(t *testing.T) {
	loop := &stubView{err: &view.Redirect{Path: "/loop"}}
	n := newStubNavigator(t, stubRoute("/loop", loop))
	if err := n.Navigate(context.Background(), "/loop"); err == nil || !strings.Contains(err.Error(), "too many redirects") {
		t.Fatalf("expected loop error, got %v", err)
	}
}
