package model

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingDeclined  BookingStatus = "declined"
	BookingCancelled BookingStatus = "cancelled"
)

func ParseBookingStatus(value string) (BookingStatus, error) {
	switch status := BookingStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case BookingPending, BookingApproved, BookingDeclined, BookingCancelled:
		return status, nil
	default:
		return "", &FieldError{Field: "status", Reason: fmt.Sprintf("unknown booking status %q", value)}
	}
}

// CanTransition reports whether the status change is one the backend accepts.
// Admins approve or decline, owners cancel, and only pending bookings move.
// It decides which actions a view offers; statuses returned by the server are
// shown as-is.
func CanTransition(from, to BookingStatus) bool {
	if from != BookingPending {
		return false
	}
	switch to {
	case BookingApproved, BookingDeclined, BookingCancelled:
		return true
	default:
		return false
	}
}

type Booking struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	UserName    string        `json:"user_name,omitempty"`
	UserEmail   string        `json:"user_email,omitempty"`
	AmenityID   int64         `json:"amenity_id"`
	AmenityName string        `json:"amenity_name,omitempty"`
	BookingDate string        `json:"booking_date"`
	StartTime   string        `json:"start_time"`
	EndTime     string        `json:"end_time"`
	Status      BookingStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	AdminNotes  string        `json:"admin_notes,omitempty"`
	CreatedAt   string        `json:"created_at,omitempty"`
	UpdatedAt   string        `json:"updated_at,omitempty"`
}

const (
	DateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// BookingRequest is the body of POST /bookings. The backend reads exactly
// these five fields and assigns the owner and status itself.
type BookingRequest struct {
	AmenityID   int64  `json:"amenity_id"`
	BookingDate string `json:"booking_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Notes       string `json:"notes"`
}

// Validate checks field shape only. Overlap with other bookings is decided by
// the backend.
func (r BookingRequest) Validate() error {
	if r.AmenityID == 0 {
		return &FieldError{Field: "amenity_id", Reason: "is required"}
	}
	if _, err := time.Parse(DateLayout, r.BookingDate); err != nil {
		return &FieldError{Field: "booking_date", Reason: "must be YYYY-MM-DD"}
	}
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return &FieldError{Field: "start_time", Reason: "must be HH:MM"}
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return &FieldError{Field: "end_time", Reason: "must be HH:MM"}
	}
	if !end.After(start) {
		return &FieldError{Field: "end_time", Reason: "must be after start_time"}
	}
	return nil
}

// BookingUpdate is the body an owner sends to edit a booking. Empty fields are
// left unchanged by the backend.
type BookingUpdate struct {
	BookingDate string `json:"booking_date,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// StatusUpdate is the admin body for PUT /bookings/{id}.
type StatusUpdate struct {
	Status     BookingStatus `json:"status"`
	AdminNotes string        `json:"admin_notes,omitempty"`
}

// ParseClock accepts both HH:MM (request shape) and HH:MM:SS (response shape).
func ParseClock(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(clockLayout, value); err == nil {
		return t, nil
	}
	return time.Parse("15:04:05", value)
}

// FormatClock renders a backend time as a 12-hour clock, e.g. "9:30 AM".
func FormatClock(value string) string {
	t, err := ParseClock(value)
	if err != nil {
		return value
	}
	return t.Format("3:04 PM")
}

// FormatDate renders a backend date as e.g. "Monday, January 5, 2026".
func FormatDate(value string) string {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return value
	}
	return t.Format("Monday, January 2, 2006")
}
