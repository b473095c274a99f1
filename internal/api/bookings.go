package api

import (
	"context"
	"net/http"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

type BookingClient struct {
	core *core
}

// List returns every booking for an admin token and the caller's own
// bookings otherwise; the backend decides from the token.
func (c *BookingClient) List(ctx context.Context) ([]model.Booking, error) {
	var out []model.Booking
	if err := c.core.do(ctx, "list bookings", http.MethodGet, "/bookings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) Get(ctx context.Context, id int64) (model.Booking, error) {
	var out model.Booking
	if err := c.core.do(ctx, "get booking", http.MethodGet, idPath("bookings", id), nil, nil, &out); err != nil {
		return model.Booking{}, err
	}
	return out, nil
}

func (c *BookingClient) Create(ctx context.Context, req model.BookingRequest) (model.Booking, error) {
	if err := req.Validate(); err != nil {
		return model.Booking{}, err
	}
	var out model.Booking
	if err := c.core.do(ctx, "create booking", http.MethodPost, "/bookings", nil, req, &out); err != nil {
		return model.Booking{}, err
	}
	return out, nil
}

// Update edits the caller's own booking.
func (c *BookingClient) Update(ctx context.Context, id int64, update model.BookingUpdate) (model.Booking, error) {
	var out model.Booking
	if err := c.core.do(ctx, "update booking", http.MethodPut, idPath("bookings", id), nil, update, &out); err != nil {
		return model.Booking{}, err
	}
	return out, nil
}

// UpdateStatus is the admin approve/decline call.
func (c *BookingClient) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus, adminNotes string) (model.Booking, error) {
	var out model.Booking
	body := model.StatusUpdate{Status: status, AdminNotes: adminNotes}
	if err := c.core.do(ctx, "update booking status", http.MethodPut, idPath("bookings", id), nil, body, &out); err != nil {
		return model.Booking{}, err
	}
	return out, nil
}

// Delete removes the booking; the tenant portal uses it to cancel.
func (c *BookingClient) Delete(ctx context.Context, id int64) error {
	return c.core.do(ctx, "delete booking", http.MethodDelete, idPath("bookings", id), nil, nil, nil)
}
