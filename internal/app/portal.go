package app

import (
	"context"
	"net/url"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/sudharshan41/apartmentrentalportal/internal/cli"
	"github.com/sudharshan41/apartmentrentalportal/internal/guard"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/view"
)

const loginPath = "/login"

// resumeAt reports path as the return-to destination instead of the
// refused one. Used for action routes that cannot be resumed on their own.
func resumeAt(path string, g guard.Guard) guard.Guard {
	return func(state guard.State, _ string) guard.Decision {
		return g(state, path)
	}
}

// loginLocation is the login route carrying returnTo the way guards
// hand it over.
func loginLocation(returnTo string) string {
	return guard.Decision{Redirect: loginPath, ReturnTo: returnTo}.Location()
}

func (a *App) portalRoutes() []Route {
	signedIn := guard.Authenticated(loginPath)
	return []Route{
		{Pattern: "/", View: func(Params) (view.View, error) {
			return &view.Home{Client: a.Client}, nil
		}},
		{Pattern: "/flats", View: func(p Params) (view.View, error) {
			bedrooms, err := paramInt(p, "bedrooms")
			if err != nil {
				return nil, err
			}
			var maxRent float64
			if raw := p["max_rent"]; raw != "" {
				if maxRent, err = strconv.ParseFloat(raw, 64); err != nil {
					return nil, &model.FieldError{Field: "max_rent", Reason: "must be a number"}
				}
			}
			return &view.Flats{Client: a.Client, Filter: view.FlatFilter{
				Status:   p["status"],
				Bedrooms: bedrooms,
				MaxRent:  maxRent,
			}}, nil
		}},
		{Pattern: "/flats/{id}", View: func(p Params) (view.View, error) {
			id, err := paramID(p, "id")
			if err != nil {
				return nil, err
			}
			return &view.FlatDetail{Client: a.Client, ID: id}, nil
		}},
		{Pattern: "/amenities", View: a.amenitiesView},
		{
			Pattern: "/amenities/book",
			Guards:  []guard.Guard{resumeAt("/amenities", signedIn)},
			View:    a.amenitiesView,
		},
		{
			Pattern: "/bookings",
			Guards:  []guard.Guard{signedIn},
			View: func(Params) (view.View, error) {
				return &view.Bookings{Client: a.Client}, nil
			},
		},
		{Pattern: loginPath, View: func(p Params) (view.View, error) {
			return &view.Login{Session: a.Session, ReturnTo: p["returnUrl"]}, nil
		}},
		{Pattern: "/register", View: func(Params) (view.View, error) {
			return &view.Register{Client: a.Client, RedirectDelay: a.Config.BookingRedirectDelay}, nil
		}},
	}
}

func (a *App) amenitiesView(Params) (view.View, error) {
	return &view.Amenities{Client: a.Client, RedirectDelay: a.Config.BookingRedirectDelay}, nil
}

func (a *App) portalCommand() *cli.Command {
	return &cli.Command{
		Name:    a.Program,
		Summary: "Browse flats, book amenities and manage your bookings",
		Output:  a.Out,
		Subcommands: []*cli.Command{
			a.navigateCommand("home", "Featured flats and amenities", "/"),
			a.flatsCommand(),
			{
				Name:    "flat",
				Summary: "Show one flat",
				Usage:   a.Program + " flat <id>",
				Run: func(ctx context.Context, args []string) error {
					id, err := parseID(args, "flat")
					if err != nil {
						return err
					}
					return a.Nav.Navigate(ctx, "/flats/"+strconv.FormatInt(id, 10))
				},
			},
			a.navigateCommand("amenities", "List amenities", "/amenities"),
			a.bookCommand(),
			a.navigateCommand("bookings", "List your bookings", "/bookings"),
			{
				Name:    "cancel",
				Summary: "Cancel one of your pending bookings",
				Usage:   a.Program + " cancel <booking-id>",
				Run: func(ctx context.Context, args []string) error {
					id, err := parseID(args, "booking")
					if err != nil {
						return err
					}
					return a.act(ctx, "/bookings", func(ctx context.Context, v view.View) error {
						return v.(*view.Bookings).Cancel(ctx, id)
					})
				},
			},
			a.portalLoginCommand(),
			a.registerCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.healthCommand(),
		},
	}
}

func (a *App) navigateCommand(name, summary, path string) *cli.Command {
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Run: func(ctx context.Context, _ []string) error {
			return a.Nav.Navigate(ctx, path)
		},
	}
}

func (a *App) flatsCommand() *cli.Command {
	var (
		status   string
		bedrooms int
		maxRent  float64
	)
	return &cli.Command{
		Name:    "flats",
		Summary: "List flats, optionally filtered",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("flats", pflag.ContinueOnError)
			fs.StringVar(&status, "status", "", "available, occupied or maintenance")
			fs.IntVar(&bedrooms, "bedrooms", 0, "exact number of bedrooms")
			fs.Float64Var(&maxRent, "max-rent", 0, "maximum monthly rent")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			query := url.Values{}
			if status != "" {
				query.Set("status", status)
			}
			if bedrooms != 0 {
				query.Set("bedrooms", strconv.Itoa(bedrooms))
			}
			if maxRent != 0 {
				query.Set("max_rent", strconv.FormatFloat(maxRent, 'f', -1, 64))
			}
			path := "/flats"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}
			return a.Nav.Navigate(ctx, path)
		},
	}
}

func (a *App) bookCommand() *cli.Command {
	var req model.BookingRequest
	return &cli.Command{
		Name:    "book",
		Summary: "Request an amenity booking",
		Flags: func() *pflag.FlagSet {
			req = model.BookingRequest{}
			fs := pflag.NewFlagSet("book", pflag.ContinueOnError)
			fs.Int64Var(&req.AmenityID, "amenity", 0, "amenity id")
			fs.StringVar(&req.BookingDate, "date", "", "booking date, YYYY-MM-DD")
			fs.StringVar(&req.StartTime, "start", "", "start time, HH:MM")
			fs.StringVar(&req.EndTime, "end", "", "end time, HH:MM")
			fs.StringVar(&req.Notes, "notes", "", "note for the administrator")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			return a.act(ctx, "/amenities/book", func(ctx context.Context, v view.View) error {
				return v.(*view.Amenities).Book(ctx, req)
			})
		},
	}
}

func (a *App) portalLoginCommand() *cli.Command {
	var email, password, returnTo string
	return &cli.Command{
		Name:    "login",
		Summary: "Sign in",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&email, "email", "", "account email")
			fs.StringVar(&password, "password", "", "account password (prompted when empty)")
			fs.StringVar(&returnTo, "return-to", "", "route to open after signing in")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			email, password, err := a.credentials(email, password)
			if err != nil {
				return err
			}
			return a.act(ctx, loginLocation(returnTo), func(ctx context.Context, v view.View) error {
				return v.(*view.Login).Submit(ctx, email, password)
			})
		},
	}
}

func (a *App) registerCommand() *cli.Command {
	var form view.RegisterForm
	return &cli.Command{
		Name:    "register",
		Summary: "Create a resident account",
		Flags: func() *pflag.FlagSet {
			form = view.RegisterForm{}
			fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
			fs.StringVar(&form.FullName, "name", "", "full name")
			fs.StringVar(&form.Email, "email", "", "email address")
			fs.StringVar(&form.Phone, "phone", "", "phone number")
			fs.StringVar(&form.Password, "password", "", "password (prompted when empty)")
			fs.StringVar(&form.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			var err error
			switch {
			case form.Password == "":
				if form.Password, err = a.Prompt.Password("Password: "); err != nil {
					return err
				}
				if form.ConfirmPassword, err = a.Prompt.Password("Confirm password: "); err != nil {
					return err
				}
			case form.ConfirmPassword == "":
				form.ConfirmPassword = form.Password
			}
			return a.act(ctx, "/register", func(ctx context.Context, v view.View) error {
				return v.(*view.Register).Submit(ctx, form)
			})
		},
	}
}
