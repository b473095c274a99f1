package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/session"
)

const (
	recentBookings = 5

	msgAccessDenied = "Access denied. Admin privileges required."
)

// AdminLogin accepts admin accounts only. Any other account is signed out
// again straight away. Admins continue to ReturnTo, or the dashboard.
type AdminLogin struct {
	Session  *session.Store
	ReturnTo string

	Status Status
}

func (v *AdminLogin) Load(context.Context) error {
	v.Status = Status{State: Ready}
	return nil
}

func (v *AdminLogin) Submit(ctx context.Context, email, password string) error {
	v.Status.begin()
	current, err := v.Session.Login(ctx, email, password)
	if err != nil {
		return v.Status.fail(err, msgLoginFailed)
	}
	if !current.User.IsAdmin() {
		v.Status = Status{State: Failed, Message: msgAccessDenied}
		if err := v.Session.Logout(ctx); err != nil {
			return errors.Join(ErrAccessDenied, err)
		}
		return ErrAccessDenied
	}
	v.Status.ready("Signed in as " + current.User.DisplayName() + ".")
	next := v.ReturnTo
	if next == "" {
		next = "/dashboard"
	}
	return &Redirect{Path: next}
}

func (v *AdminLogin) Render(w io.Writer) {
	title(w, "Backoffice sign in")
	notice(w, v.Status)
}

// Dashboard shows the headline stats and the most recent bookings.
type Dashboard struct {
	Client *api.Client

	Status        Status
	BookingStatus Status
	Stats         model.DashboardStats
	Recent        []model.Booking
}

func (v *Dashboard) Load(ctx context.Context) error {
	v.Status.begin()
	v.BookingStatus.begin()

	stats, err := v.Client.Dashboard.Stats(ctx)
	if err != nil {
		return v.Status.fail(err, "Failed to load dashboard")
	}
	v.Stats = stats
	v.Status.ready("")

	bookings, err := v.Client.Bookings.List(ctx)
	if err != nil {
		return v.BookingStatus.fail(err, msgBookingsFailed)
	}
	if len(bookings) > recentBookings {
		bookings = bookings[:recentBookings]
	}
	v.Recent = bookings
	v.BookingStatus.ready("")
	return nil
}

func (v *Dashboard) Render(w io.Writer) {
	title(w, "Dashboard")
	if renderStatus(w, v.Status, "Loading stats...") {
		s := v.Stats
		table(w, []string{"UNITS", "OCCUPIED", "AVAILABLE", "OCCUPANCY", "TENANTS", "PENDING", "REVENUE"}, [][]string{{
			strconv.Itoa(s.TotalUnits),
			strconv.Itoa(s.OccupiedUnits),
			strconv.Itoa(s.AvailableUnits),
			fmt.Sprintf("%.2f%%", s.OccupancyRate),
			strconv.Itoa(s.TotalTenants),
			strconv.Itoa(s.PendingBookings),
			money(s.TotalRevenue),
		}})
	}
	fmt.Fprintln(w)
	title(w, "Recent Bookings")
	if renderStatus(w, v.BookingStatus, "Loading bookings...") {
		renderAdminBookings(w, v.Recent)
	}
}

type Towers struct {
	Client *api.Client

	Status Status
	Action Status
	Towers []model.Tower
}

func (v *Towers) Load(ctx context.Context) error {
	v.Status.begin()
	towers, err := v.Client.Towers.List(ctx)
	if err != nil {
		return v.Status.fail(err, "Failed to load towers")
	}
	v.Towers = towers
	v.Status.ready("")
	return nil
}

// Create sends the tower and appends the server's copy only once it is
// accepted.
func (v *Towers) Create(ctx context.Context, tower model.Tower) (model.Tower, error) {
	v.Action.begin()
	created, err := v.Client.Towers.Create(ctx, tower)
	if err != nil {
		return model.Tower{}, v.Action.fail(err, "Failed to create tower")
	}
	v.Towers = append(v.Towers, created)
	v.Action.ready(fmt.Sprintf("Tower %q created (#%d).", created.Name, created.ID))
	return created, nil
}

func (v *Towers) Update(ctx context.Context, id int64, tower model.Tower) error {
	v.Action.begin()
	updated, err := v.Client.Towers.Update(ctx, id, tower)
	if err != nil {
		return v.Action.fail(err, "Failed to update tower")
	}
	v.Towers = replaceByID(v.Towers, updated, func(t model.Tower) int64 { return t.ID })
	v.Action.ready(fmt.Sprintf("Tower #%d updated.", id))
	return nil
}

func (v *Towers) Delete(ctx context.Context, id int64) error {
	v.Action.begin()
	if err := v.Client.Towers.Delete(ctx, id); err != nil {
		return v.Action.fail(err, "Failed to delete tower")
	}
	v.Towers = removeByID(v.Towers, id, func(t model.Tower) int64 { return t.ID })
	v.Action.ready(fmt.Sprintf("Tower #%d deleted.", id))
	return nil
}

func (v *Towers) Render(w io.Writer) {
	title(w, "Towers")
	notice(w, v.Action)
	if !renderStatus(w, v.Status, "Loading towers...") {
		return
	}
	rows := make([][]string, 0, len(v.Towers))
	for _, t := range v.Towers {
		rows = append(rows, []string{
			"#" + strconv.FormatInt(t.ID, 10), t.Name, t.Address,
			strconv.Itoa(t.TotalFloors), strconv.Itoa(t.TotalUnits),
		})
	}
	table(w, []string{"ID", "NAME", "ADDRESS", "FLOORS", "UNITS"}, rows)
}

type Units struct {
	Client *api.Client
	Filter api.UnitFilter

	Status Status
	Action Status
	Units  []model.Unit
}

func (v *Units) Load(ctx context.Context) error {
	v.Status.begin()
	units, err := v.Client.Units.List(ctx, v.Filter)
	if err != nil {
		return v.Status.fail(err, "Failed to load units")
	}
	v.Units = units
	v.Status.ready("")
	return nil
}

func (v *Units) Create(ctx context.Context, unit model.Unit) (model.Unit, error) {
	v.Action.begin()
	created, err := v.Client.Units.Create(ctx, unit)
	if err != nil {
		return model.Unit{}, v.Action.fail(err, "Failed to create unit")
	}
	v.Units = append(v.Units, created)
	v.Action.ready(fmt.Sprintf("Unit %s created (#%d).", created.UnitNumber, created.ID))
	return created, nil
}

func (v *Units) Update(ctx context.Context, id int64, unit model.Unit) error {
	v.Action.begin()
	updated, err := v.Client.Units.Update(ctx, id, unit)
	if err != nil {
		return v.Action.fail(err, "Failed to update unit")
	}
	v.Units = replaceByID(v.Units, updated, func(u model.Unit) int64 { return u.ID })
	v.Action.ready(fmt.Sprintf("Unit #%d updated.", id))
	return nil
}

func (v *Units) Delete(ctx context.Context, id int64) error {
	v.Action.begin()
	if err := v.Client.Units.Delete(ctx, id); err != nil {
		return v.Action.fail(err, "Failed to delete unit")
	}
	v.Units = removeByID(v.Units, id, func(u model.Unit) int64 { return u.ID })
	v.Action.ready(fmt.Sprintf("Unit #%d deleted.", id))
	return nil
}

func (v *Units) Render(w io.Writer) {
	title(w, "Units")
	notice(w, v.Action)
	if renderStatus(w, v.Status, "Loading units...") {
		renderUnits(w, v.Units)
	}
}

type AdminAmenities struct {
	Client *api.Client

	Status    Status
	Action    Status
	Amenities []model.Amenity
}

func (v *AdminAmenities) Load(ctx context.Context) error {
	v.Status.begin()
	amenities, err := v.Client.Amenities.List(ctx)
	if err != nil {
		return v.Status.fail(err, "Failed to load amenities")
	}
	v.Amenities = amenities
	v.Status.ready("")
	return nil
}

func (v *AdminAmenities) Create(ctx context.Context, amenity model.Amenity) (model.Amenity, error) {
	v.Action.begin()
	created, err := v.Client.Amenities.Create(ctx, amenity)
	if err != nil {
		return model.Amenity{}, v.Action.fail(err, "Failed to create amenity")
	}
	v.Amenities = append(v.Amenities, created)
	v.Action.ready(fmt.Sprintf("Amenity %q created (#%d).", created.Name, created.ID))
	return created, nil
}

func (v *AdminAmenities) Update(ctx context.Context, id int64, amenity model.Amenity) error {
	v.Action.begin()
	updated, err := v.Client.Amenities.Update(ctx, id, amenity)
	if err != nil {
		return v.Action.fail(err, "Failed to update amenity")
	}
	v.Amenities = replaceByID(v.Amenities, updated, func(a model.Amenity) int64 { return a.ID })
	v.Action.ready(fmt.Sprintf("Amenity #%d updated.", id))
	return nil
}

func (v *AdminAmenities) Delete(ctx context.Context, id int64) error {
	v.Action.begin()
	if err := v.Client.Amenities.Delete(ctx, id); err != nil {
		return v.Action.fail(err, "Failed to delete amenity")
	}
	v.Amenities = removeByID(v.Amenities, id, func(a model.Amenity) int64 { return a.ID })
	v.Action.ready(fmt.Sprintf("Amenity #%d deleted.", id))
	return nil
}

func (v *AdminAmenities) Render(w io.Writer) {
	title(w, "Amenities")
	notice(w, v.Action)
	if renderStatus(w, v.Status, "Loading amenities...") {
		renderAmenities(w, v.Amenities)
	}
}

// AdminBookings lists every booking and moves pending ones to approved or
// declined. The list is fetched again after each change.
type AdminBookings struct {
	Client *api.Client
	// Only, when set, limits the rendered list to one status.
	Only model.BookingStatus

	Status   Status
	Action   Status
	Bookings []model.Booking
}

func (v *AdminBookings) Load(ctx context.Context) error {
	v.Status.begin()
	bookings, err := v.Client.Bookings.List(ctx)
	if err != nil {
		return v.Status.fail(err, msgBookingsFailed)
	}
	v.Bookings = bookings
	v.Status.ready("")
	return nil
}

func (v *AdminBookings) Approve(ctx context.Context, id int64, notes string) error {
	return v.setStatus(ctx, id, model.BookingApproved, notes)
}

func (v *AdminBookings) Decline(ctx context.Context, id int64, notes string) error {
	return v.setStatus(ctx, id, model.BookingDeclined, notes)
}

func (v *AdminBookings) setStatus(ctx context.Context, id int64, status model.BookingStatus, notes string) error {
	v.Action.begin()
	for _, b := range v.Bookings {
		if b.ID == id && !model.CanTransition(b.Status, status) {
			v.Action = Status{State: Failed, Message: fmt.Sprintf("Booking #%d is %s and cannot be %s.", id, b.Status, status)}
			return &model.FieldError{Field: "status", Reason: fmt.Sprintf("cannot move from %s to %s", b.Status, status)}
		}
	}
	if _, err := v.Client.Bookings.UpdateStatus(ctx, id, status, notes); err != nil {
		return v.Action.fail(err, "Failed to update booking")
	}
	v.Action.ready(fmt.Sprintf("Booking #%d %s.", id, status))
	return v.Load(ctx)
}

func (v *AdminBookings) Render(w io.Writer) {
	title(w, "Bookings")
	notice(w, v.Action)
	if !renderStatus(w, v.Status, "Loading bookings...") {
		return
	}
	shown := v.Bookings
	if v.Only != "" {
		shown = nil
		for _, b := range v.Bookings {
			if b.Status == v.Only {
				shown = append(shown, b)
			}
		}
	}
	renderAdminBookings(w, shown)
}

type Tenants struct {
	Client *api.Client

	Status Status
	Users  []model.User
}

func (v *Tenants) Load(ctx context.Context) error {
	v.Status.begin()
	users, err := v.Client.Users.List(ctx)
	if err != nil {
		return v.Status.fail(err, "Failed to load tenants")
	}
	v.Users = users
	v.Status.ready("")
	return nil
}

func (v *Tenants) Render(w io.Writer) {
	title(w, "Tenants")
	if !renderStatus(w, v.Status, "Loading tenants...") {
		return
	}
	if len(v.Users) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tenants registered."))
		return
	}
	rows := make([][]string, 0, len(v.Users))
	for _, u := range v.Users {
		rows = append(rows, []string{"#" + strconv.FormatInt(u.ID, 10), u.DisplayName(), u.Email, u.Phone})
	}
	table(w, []string{"ID", "NAME", "EMAIL", "PHONE"}, rows)
}

func renderAdminBookings(w io.Writer, bookings []model.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No bookings."))
		return
	}
	rows := make([][]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, []string{
			"#" + strconv.FormatInt(b.ID, 10),
			b.UserName,
			b.AmenityName,
			b.BookingDate,
			model.FormatClock(b.StartTime) + " - " + model.FormatClock(b.EndTime),
			badge(string(b.Status)),
		})
	}
	table(w, []string{"ID", "RESIDENT", "AMENITY", "DATE", "TIME", "STATUS"}, rows)
}

func replaceByID[T any](items []T, item T, id func(T) int64) []T {
	out := make([]T, len(items))
	for i, existing := range items {
		if id(existing) == id(item) {
			existing = item
		}
		out[i] = existing
	}
	return out
}

func removeByID[T any](items []T, target int64, id func(T) int64) []T {
	out := make([]T, 0, len(items))
	for _, existing := range items {
		if id(existing) != target {
			out = append(out, existing)
		}
	}
	return out
}
