package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
	"github.com/sudharshan41/apartmentrentalportal/internal/cli"
	"github.com/sudharshan41/apartmentrentalportal/internal/guard"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/view"
)

func (a *App) backofficeRoutes() []Route {
	admin := []guard.Guard{
		guard.Authenticated(loginPath),
		guard.RequireRole(model.RoleAdmin, loginPath),
	}
	route := func(pattern string, build func(Params) (view.View, error)) Route {
		return Route{Pattern: pattern, Guards: admin, View: build}
	}
	return []Route{
		{Pattern: loginPath, View: func(p Params) (view.View, error) {
			return &view.AdminLogin{Session: a.Session, ReturnTo: p["returnUrl"]}, nil
		}},
		route("/dashboard", func(Params) (view.View, error) {
			return &view.Dashboard{Client: a.Client}, nil
		}),
		route("/towers", func(Params) (view.View, error) {
			return &view.Towers{Client: a.Client}, nil
		}),
		route("/units", func(p Params) (view.View, error) {
			towerID, err := paramID(p, "tower_id")
			if err != nil {
				return nil, err
			}
			return &view.Units{Client: a.Client, Filter: api.UnitFilter{Status: p["status"], TowerID: towerID}}, nil
		}),
		route("/amenities", func(Params) (view.View, error) {
			return &view.AdminAmenities{Client: a.Client}, nil
		}),
		route("/bookings", func(p Params) (view.View, error) {
			v := &view.AdminBookings{Client: a.Client}
			if raw := p["status"]; raw != "" {
				status, err := model.ParseBookingStatus(raw)
				if err != nil {
					return nil, err
				}
				v.Only = status
			}
			return v, nil
		}),
		route("/tenants", func(Params) (view.View, error) {
			return &view.Tenants{Client: a.Client}, nil
		}),
	}
}

func (a *App) backofficeCommand() *cli.Command {
	return &cli.Command{
		Name:    a.Program,
		Summary: "Administer towers, units, amenities, bookings and tenants",
		Output:  a.Out,
		Subcommands: []*cli.Command{
			a.backofficeLoginCommand(),
			a.navigateCommand("dashboard", "Headline stats and recent bookings", "/dashboard"),
			a.towersCommand(),
			a.unitsCommand(),
			a.adminAmenitiesCommand(),
			a.adminBookingsCommand(),
			a.navigateCommand("tenants", "List resident accounts", "/tenants"),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.healthCommand(),
		},
	}
}

func (a *App) backofficeLoginCommand() *cli.Command {
	var email, password, returnTo string
	return &cli.Command{
		Name:    "login",
		Summary: "Sign in with an admin account",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&email, "email", "", "admin email")
			fs.StringVar(&password, "password", "", "admin password (prompted when empty)")
			fs.StringVar(&returnTo, "return-to", "", "route to open after signing in")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			email, password, err := a.credentials(email, password)
			if err != nil {
				return err
			}
			return a.act(ctx, loginLocation(returnTo), func(ctx context.Context, v view.View) error {
				return v.(*view.AdminLogin).Submit(ctx, email, password)
			})
		},
	}
}

// crud builds the list/create/update/delete group shared by towers, units and
// amenities. Bare "<group>" lists.
type crud struct {
	name     string
	path     string
	flags    func(fs *pflag.FlagSet)
	create   func(ctx context.Context, v view.View) error
	update   func(ctx context.Context, v view.View, id int64, fs *pflag.FlagSet) error
	delete   func(ctx context.Context, v view.View, id int64) error
	listPath func() string
}

func (a *App) crudCommand(c crud, listFlags func() *pflag.FlagSet) *cli.Command {
	var fs *pflag.FlagSet
	withFlags := func() *pflag.FlagSet {
		fs = pflag.NewFlagSet(c.name, pflag.ContinueOnError)
		c.flags(fs)
		return fs
	}
	list := func(ctx context.Context, _ []string) error {
		path := c.path
		if c.listPath != nil {
			path = c.listPath()
		}
		return a.Nav.Navigate(ctx, path)
	}
	withID := func(fn func(ctx context.Context, v view.View, id int64) error) func(context.Context, []string) error {
		return func(ctx context.Context, args []string) error {
			id, err := parseID(args, c.name)
			if err != nil {
				return err
			}
			return a.act(ctx, c.path, func(ctx context.Context, v view.View) error { return fn(ctx, v, id) })
		}
	}
	return &cli.Command{
		Name:    c.name + "s",
		Summary: fmt.Sprintf("List and manage %ss", c.name),
		Flags:   listFlags,
		Run:     list,
		Subcommands: []*cli.Command{
			{Name: "list", Summary: "List " + c.name + "s", Flags: listFlags, Run: list},
			{
				Name:    "create",
				Summary: "Create a " + c.name,
				Flags:   withFlags,
				Run: func(ctx context.Context, _ []string) error {
					return a.act(ctx, c.path, func(ctx context.Context, v view.View) error { return c.create(ctx, v) })
				},
			},
			{
				Name:    "update",
				Summary: "Change the given fields of a " + c.name,
				Usage:   fmt.Sprintf("%s %ss update <id> [flags]", a.Program, c.name),
				Flags:   withFlags,
				Run: withID(func(ctx context.Context, v view.View, id int64) error {
					return c.update(ctx, v, id, fs)
				}),
			},
			{
				Name:    "delete",
				Summary: "Delete a " + c.name,
				Usage:   fmt.Sprintf("%s %ss delete <id>", a.Program, c.name),
				Run:     withID(c.delete),
			},
		},
	}
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s #%d not found", what, id)
}

func (a *App) towersCommand() *cli.Command {
	var t model.Tower
	return a.crudCommand(crud{
		name: "tower",
		path: "/towers",
		flags: func(fs *pflag.FlagSet) {
			t = model.Tower{}
			fs.StringVar(&t.Name, "name", "", "tower name")
			fs.StringVar(&t.Address, "address", "", "street address")
			fs.IntVar(&t.TotalFloors, "floors", 0, "number of floors")
		},
		create: func(ctx context.Context, v view.View) error {
			_, err := v.(*view.Towers).Create(ctx, t)
			return err
		},
		update: func(ctx context.Context, v view.View, id int64, fs *pflag.FlagSet) error {
			towers := v.(*view.Towers)
			current, ok := find(towers.Towers, id, func(t model.Tower) int64 { return t.ID })
			if !ok {
				return notFound("tower", id)
			}
			setIf(fs, "name", &current.Name, t.Name)
			setIf(fs, "address", &current.Address, t.Address)
			setIf(fs, "floors", &current.TotalFloors, t.TotalFloors)
			return towers.Update(ctx, id, current)
		},
		delete: func(ctx context.Context, v view.View, id int64) error {
			return v.(*view.Towers).Delete(ctx, id)
		},
	}, nil)
}

func (a *App) unitsCommand() *cli.Command {
	var (
		u       model.Unit
		status  string
		towerID int64
	)
	listFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("units", pflag.ContinueOnError)
		fs.StringVar(&status, "status", "", "only units with this status")
		fs.Int64Var(&towerID, "tower", 0, "only units in this tower")
		return fs
	}
	return a.crudCommand(crud{
		name: "unit",
		path: "/units",
		listPath: func() string {
			query := url.Values{}
			if status != "" {
				query.Set("status", status)
			}
			if towerID != 0 {
				query.Set("tower_id", strconv.FormatInt(towerID, 10))
			}
			if len(query) == 0 {
				return "/units"
			}
			return "/units?" + query.Encode()
		},
		flags: func(fs *pflag.FlagSet) {
			u = model.Unit{}
			fs.Int64Var(&u.TowerID, "tower", 0, "tower id")
			fs.StringVar(&u.UnitNumber, "number", "", "unit number, e.g. A-101")
			fs.IntVar(&u.Floor, "floor", 0, "floor")
			fs.IntVar(&u.Bedrooms, "bedrooms", 0, "bedrooms")
			fs.IntVar(&u.Bathrooms, "bathrooms", 0, "bathrooms")
			fs.Float64Var(&u.AreaSqft, "area", 0, "area in square feet")
			fs.Float64Var(&u.RentAmount, "rent", 0, "monthly rent")
			fs.StringVar(&u.Status, "status", "", "available, occupied or maintenance")
			fs.StringVar(&u.Description, "description", "", "description")
		},
		create: func(ctx context.Context, v view.View) error {
			_, err := v.(*view.Units).Create(ctx, u)
			return err
		},
		update: func(ctx context.Context, v view.View, id int64, fs *pflag.FlagSet) error {
			units := v.(*view.Units)
			current, ok := find(units.Units, id, func(u model.Unit) int64 { return u.ID })
			if !ok {
				return notFound("unit", id)
			}
			setIf(fs, "tower", &current.TowerID, u.TowerID)
			setIf(fs, "number", &current.UnitNumber, u.UnitNumber)
			setIf(fs, "floor", &current.Floor, u.Floor)
			setIf(fs, "bedrooms", &current.Bedrooms, u.Bedrooms)
			setIf(fs, "bathrooms", &current.Bathrooms, u.Bathrooms)
			setIf(fs, "area", &current.AreaSqft, u.AreaSqft)
			setIf(fs, "rent", &current.RentAmount, u.RentAmount)
			setIf(fs, "status", &current.Status, u.Status)
			setIf(fs, "description", &current.Description, u.Description)
			return units.Update(ctx, id, current)
		},
		delete: func(ctx context.Context, v view.View, id int64) error {
			return v.(*view.Units).Delete(ctx, id)
		},
	}, listFlags)
}

func (a *App) adminAmenitiesCommand() *cli.Command {
	var (
		am          model.Amenity
		unavailable bool
	)
	return a.crudCommand(crud{
		name: "amenity",
		path: "/amenities",
		flags: func(fs *pflag.FlagSet) {
			am = model.Amenity{}
			fs.StringVar(&am.Name, "name", "", "amenity name")
			fs.StringVar(&am.Description, "description", "", "description")
			fs.IntVar(&am.Capacity, "capacity", 0, "maximum number of people")
			fs.StringVar(&am.Icon, "icon", "", "icon name")
			fs.BoolVar(&unavailable, "unavailable", false, "mark as not bookable")
		},
		create: func(ctx context.Context, v view.View) error {
			am.Available = !unavailable
			_, err := v.(*view.AdminAmenities).Create(ctx, am)
			return err
		},
		update: func(ctx context.Context, v view.View, id int64, fs *pflag.FlagSet) error {
			amenities := v.(*view.AdminAmenities)
			current, ok := find(amenities.Amenities, id, func(a model.Amenity) int64 { return a.ID })
			if !ok {
				return notFound("amenity", id)
			}
			setIf(fs, "name", &current.Name, am.Name)
			setIf(fs, "description", &current.Description, am.Description)
			setIf(fs, "capacity", &current.Capacity, am.Capacity)
			setIf(fs, "icon", &current.Icon, am.Icon)
			setIf(fs, "unavailable", &current.Available, !unavailable)
			return amenities.Update(ctx, id, current)
		},
		delete: func(ctx context.Context, v view.View, id int64) error {
			return v.(*view.AdminAmenities).Delete(ctx, id)
		},
	}, nil)
}

func (a *App) adminBookingsCommand() *cli.Command {
	var status, notes string
	listFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("bookings", pflag.ContinueOnError)
		fs.StringVar(&status, "status", "", "only bookings with this status")
		return fs
	}
	notesFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("bookings", pflag.ContinueOnError)
		fs.StringVar(&notes, "notes", "", "note for the resident")
		return fs
	}
	list := func(ctx context.Context, _ []string) error {
		path := "/bookings"
		if status != "" {
			path += "?" + url.Values{"status": {status}}.Encode()
		}
		return a.Nav.Navigate(ctx, path)
	}
	decide := func(approve bool) func(context.Context, []string) error {
		return func(ctx context.Context, args []string) error {
			id, err := parseID(args, "booking")
			if err != nil {
				return err
			}
			return a.act(ctx, "/bookings", func(ctx context.Context, v view.View) error {
				bookings := v.(*view.AdminBookings)
				if approve {
					return bookings.Approve(ctx, id, notes)
				}
				return bookings.Decline(ctx, id, notes)
			})
		}
	}
	return &cli.Command{
		Name:    "bookings",
		Summary: "Review amenity bookings",
		Flags:   listFlags,
		Run:     list,
		Subcommands: []*cli.Command{
			{Name: "list", Summary: "List bookings", Flags: listFlags, Run: list},
			{Name: "approve", Summary: "Approve a pending booking", Usage: a.Program + " bookings approve <id> [--notes text]", Flags: notesFlags, Run: decide(true)},
			{Name: "decline", Summary: "Decline a pending booking", Usage: a.Program + " bookings decline <id> [--notes text]", Flags: notesFlags, Run: decide(false)},
		},
	}
}

func find[T any](items []T, id int64, key func(T) int64) (T, bool) {
	for _, item := range items {
		if key(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// setIf copies value into dst when the named flag was given.
func setIf[T any](fs *pflag.FlagSet, name string, dst *T, value T) {
	if fs != nil && fs.Changed(name) {
		*dst = value
	}
}
