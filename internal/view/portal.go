package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/session"
)

const (
	featuredUnits = 6

	msgBookingSubmitted = "Booking request submitted successfully! Awaiting approval."
	msgBookingFailed    = "Failed to submit booking. Please try again."
	msgBookingsFailed   = "Failed to load bookings"
	msgCancelFailed     = "Failed to cancel booking. Please try again."
	msgLoginFailed      = "Login failed. Please try again."
	msgRegistered       = "Account created successfully! Redirecting to login..."
	msgRegisterFailed   = "Registration failed. Please try again."
	msgPasswordMismatch = "Passwords do not match"
)

// Home shows the first available units and every amenity. The amenity list
// failing does not fail the page.
type Home struct {
	Client *api.Client

	Status        Status
	AmenityStatus Status
	Featured      []model.Unit
	Amenities     []model.Amenity
}

func (v *Home) Load(ctx context.Context) error {
	v.Status.begin()
	v.AmenityStatus.begin()

	units, err := v.Client.Units.List(ctx, api.UnitFilter{Status: model.UnitAvailable})
	if err != nil {
		return v.Status.fail(err, "Failed to load flats")
	}
	if len(units) > featuredUnits {
		units = units[:featuredUnits]
	}
	v.Featured = units
	v.Status.ready("")

	amenities, err := v.Client.Amenities.List(ctx)
	if err != nil {
		v.AmenityStatus.fail(err, "Failed to load amenities")
		if api.IsUnauthorized(err) {
			return err
		}
		return nil
	}
	v.Amenities = amenities
	v.AmenityStatus.ready("")
	return nil
}

func (v *Home) Render(w io.Writer) {
	title(w, "Featured Flats")
	if renderStatus(w, v.Status, "Loading flats...") {
		renderUnits(w, v.Featured)
	}
	fmt.Fprintln(w)
	title(w, "Amenities")
	if renderStatus(w, v.AmenityStatus, "Loading amenities...") {
		renderAmenities(w, v.Amenities)
	}
}

// FlatFilter narrows the flats list locally. Zero values match everything.
type FlatFilter struct {
	Status   string
	Bedrooms int
	MaxRent  float64
}

func (f FlatFilter) Match(unit model.Unit) bool {
	if f.Status != "" && unit.Status != f.Status {
		return false
	}
	if f.Bedrooms != 0 && unit.Bedrooms != f.Bedrooms {
		return false
	}
	if f.MaxRent != 0 && unit.RentAmount > f.MaxRent {
		return false
	}
	return true
}

type Flats struct {
	Client *api.Client
	Filter FlatFilter

	Status Status
	Units  []model.Unit
}

func (v *Flats) Load(ctx context.Context) error {
	v.Status.begin()
	units, err := v.Client.Units.List(ctx, api.UnitFilter{})
	if err != nil {
		return v.Status.fail(err, "Failed to load flats")
	}
	v.Units = units
	v.Status.ready("")
	return nil
}

// Visible applies Filter to the loaded units.
func (v *Flats) Visible() []model.Unit {
	out := []model.Unit{}
	for _, unit := range v.Units {
		if v.Filter.Match(unit) {
			out = append(out, unit)
		}
	}
	return out
}

func (v *Flats) Reset() {
	v.Filter = FlatFilter{}
}

func (v *Flats) Render(w io.Writer) {
	title(w, "Available Flats")
	if !renderStatus(w, v.Status, "Loading flats...") {
		return
	}
	visible := v.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No flats match the current filters."))
		return
	}
	renderUnits(w, visible)
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d of %d flats", len(visible), len(v.Units))))
}

// FlatDetail returns to the flats list when the unit cannot be loaded.
type FlatDetail struct {
	Client *api.Client
	ID     int64

	Status Status
	Unit   model.Unit
}

func (v *FlatDetail) Load(ctx context.Context) error {
	v.Status.begin()
	unit, err := v.Client.Units.Get(ctx, v.ID)
	if err != nil {
		v.Status.fail(err, "Failed to load flat")
		return &Redirect{Path: "/flats", Cause: err}
	}
	v.Unit = unit
	v.Status.ready("")
	return nil
}

func (v *FlatDetail) Render(w io.Writer) {
	if !renderStatus(w, v.Status, "Loading flat...") {
		return
	}
	u := v.Unit
	title(w, fmt.Sprintf("Unit %s, %s", u.UnitNumber, u.TowerName))
	fmt.Fprintln(w, badge(u.Status))
	table(w, []string{"FLOOR", "BEDROOMS", "BATHROOMS", "AREA", "RENT"}, [][]string{{
		strconv.Itoa(u.Floor),
		strconv.Itoa(u.Bedrooms),
		strconv.Itoa(u.Bathrooms),
		fmt.Sprintf("%.0f sqft", u.AreaSqft),
		money(u.RentAmount) + "/month",
	}})
	if u.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, u.Description)
	}
}

// Amenities lists amenities and submits booking requests. A successful
// request redirects to the bookings list after RedirectDelay.
type Amenities struct {
	Client        *api.Client
	RedirectDelay time.Duration

	Status    Status
	Booking   Status
	Amenities []model.Amenity
}

func (v *Amenities) Load(ctx context.Context) error {
	v.Status.begin()
	amenities, err := v.Client.Amenities.List(ctx)
	if err != nil {
		return v.Status.fail(err, "Failed to load amenities")
	}
	v.Amenities = amenities
	v.Status.ready("")
	return nil
}

func (v *Amenities) Book(ctx context.Context, req model.BookingRequest) error {
	v.Booking.begin()
	if _, err := v.Client.Bookings.Create(ctx, req); err != nil {
		var fieldErr *model.FieldError
		if errors.As(err, &fieldErr) {
			v.Booking = Status{State: Failed, Message: fieldErr.Error()}
			return err
		}
		return v.Booking.fail(err, msgBookingFailed)
	}
	v.Booking.ready(msgBookingSubmitted)
	return &Redirect{Path: "/bookings", Delay: v.RedirectDelay}
}

func (v *Amenities) Render(w io.Writer) {
	title(w, "Amenities")
	if renderStatus(w, v.Status, "Loading amenities...") {
		renderAmenities(w, v.Amenities)
	}
	notice(w, v.Booking)
}

// Bookings is the signed-in tenant's own booking list.
type Bookings struct {
	Client *api.Client

	Status   Status
	Action   Status
	Bookings []model.Booking
}

func (v *Bookings) Load(ctx context.Context) error {
	v.Status.begin()
	bookings, err := v.Client.Bookings.List(ctx)
	if err != nil {
		return v.Status.fail(err, msgBookingsFailed)
	}
	v.Bookings = bookings
	v.Status.ready("")
	return nil
}

// Cancel deletes the booking and reloads the list.
func (v *Bookings) Cancel(ctx context.Context, id int64) error {
	v.Action.begin()
	if err := v.Client.Bookings.Delete(ctx, id); err != nil {
		return v.Action.fail(err, msgCancelFailed)
	}
	v.Action.ready(fmt.Sprintf("Booking #%d cancelled.", id))
	return v.Load(ctx)
}

func (v *Bookings) Render(w io.Writer) {
	title(w, "My Bookings")
	notice(w, v.Action)
	if !renderStatus(w, v.Status, "Loading bookings...") {
		return
	}
	if len(v.Bookings) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("You have no bookings yet."))
		return
	}
	rows := make([][]string, 0, len(v.Bookings))
	for _, b := range v.Bookings {
		action := ""
		if model.CanTransition(b.Status, model.BookingCancelled) {
			action = "cancel " + strconv.FormatInt(b.ID, 10)
		}
		rows = append(rows, []string{
			"#" + strconv.FormatInt(b.ID, 10),
			b.AmenityName,
			model.FormatDate(b.BookingDate),
			model.FormatClock(b.StartTime) + " - " + model.FormatClock(b.EndTime),
			badge(string(b.Status)),
			action,
		})
	}
	table(w, []string{"ID", "AMENITY", "DATE", "TIME", "STATUS", ""}, rows)
}

// Login signs in through the session store and then resumes ReturnTo.
type Login struct {
	Session  *session.Store
	ReturnTo string

	Status Status
}

func (v *Login) Load(context.Context) error {
	v.Status = Status{State: Ready}
	return nil
}

func (v *Login) Submit(ctx context.Context, email, password string) error {
	v.Status.begin()
	current, err := v.Session.Login(ctx, email, password)
	if err != nil {
		return v.Status.fail(err, msgLoginFailed)
	}
	v.Status.ready("Welcome back, " + current.User.DisplayName() + ".")
	next := v.ReturnTo
	if next == "" {
		next = "/"
	}
	return &Redirect{Path: next}
}

func (v *Login) Render(w io.Writer) {
	title(w, "Sign in")
	notice(w, v.Status)
	if v.Status.State == Ready && v.Status.Message == "" {
		fmt.Fprintln(w, mutedStyle.Render("Run with --email to sign in."))
	}
}

type RegisterForm struct {
	FullName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// Register creates a resident account and redirects to login after
// RedirectDelay.
type Register struct {
	Client        *api.Client
	RedirectDelay time.Duration

	Status Status
}

func (v *Register) Load(context.Context) error {
	v.Status = Status{State: Ready}
	return nil
}

func (v *Register) Submit(ctx context.Context, form RegisterForm) error {
	v.Status.begin()
	reg := model.Registration{
		FullName: form.FullName,
		Email:    form.Email,
		Phone:    form.Phone,
		Password: form.Password,
	}
	if err := reg.Validate(); err != nil {
		v.Status = Status{State: Failed, Message: fieldMessage(err)}
		return err
	}
	if form.Password != form.ConfirmPassword {
		v.Status = Status{State: Failed, Message: msgPasswordMismatch}
		return &model.FieldError{Field: "confirm_password", Reason: "does not match"}
	}

	if _, err := v.Client.Auth.Register(ctx, reg); err != nil {
		return v.Status.fail(err, msgRegisterFailed)
	}
	v.Status.ready(msgRegistered)
	return &Redirect{Path: "/login", Delay: v.RedirectDelay}
}

func (v *Register) Render(w io.Writer) {
	title(w, "Create Account")
	notice(w, v.Status)
}

func fieldMessage(err error) string {
	var fieldErr *model.FieldError
	if !errors.As(err, &fieldErr) {
		return msgRegisterFailed
	}
	switch fieldErr.Field {
	case "full_name":
		return "Full name is required"
	case "email":
		return "Valid email is required"
	case "password":
		return fmt.Sprintf("Password must be at least %d characters", model.MinPasswordLength)
	default:
		return fieldErr.Error()
	}
}

func renderUnits(w io.Writer, units []model.Unit) {
	if len(units) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No flats available."))
		return
	}
	rows := make([][]string, 0, len(units))
	for _, u := range units {
		rows = append(rows, []string{
			"#" + strconv.FormatInt(u.ID, 10),
			u.UnitNumber,
			u.TowerName,
			fmt.Sprintf("%d bd / %d ba", u.Bedrooms, u.Bathrooms),
			money(u.RentAmount),
			badge(u.Status),
		})
	}
	table(w, []string{"ID", "UNIT", "TOWER", "ROOMS", "RENT", "STATUS"}, rows)
}

func renderAmenities(w io.Writer, amenities []model.Amenity) {
	if len(amenities) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No amenities listed."))
		return
	}
	rows := make([][]string, 0, len(amenities))
	for _, a := range amenities {
		availability := "available"
		if !a.Available {
			availability = "unavailable"
		}
		rows = append(rows, []string{
			"#" + strconv.FormatInt(a.ID, 10),
			a.Name,
			strconv.Itoa(a.Capacity),
			availability,
			a.Description,
		})
	}
	table(w, []string{"ID", "NAME", "CAPACITY", "", "DESCRIPTION"}, rows)
}
