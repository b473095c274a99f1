package model

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	RoleAdmin    = "admin"
	RoleResident = "resident"
)

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName falls back to the email when the backend has no full name on record.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Email
}

func (u User) Validate() error {
	if u.ID == 0 {
		return &FieldError{Field: "id", Reason: "is required"}
	}
	if strings.TrimSpace(u.Email) == "" {
		return &FieldError{Field: "email", Reason: "is required"}
	}
	if strings.TrimSpace(u.Role) == "" {
		return &FieldError{Field: "role", Reason: "is required"}
	}
	return nil
}

type Tower struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	TotalFloors int    `json:"total_floors"`
	TotalUnits  int    `json:"total_units,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func (t Tower) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &FieldError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(t.Address) == "" {
		return &FieldError{Field: "address", Reason: "is required"}
	}
	if t.TotalFloors <= 0 {
		return &FieldError{Field: "total_floors", Reason: "must be positive"}
	}
	return nil
}

const (
	UnitAvailable   = "available"
	UnitOccupied    = "occupied"
	UnitMaintenance = "maintenance"
)

type Unit struct {
	ID          int64   `json:"id,omitempty"`
	TowerID     int64   `json:"tower_id"`
	TowerName   string  `json:"tower_name,omitempty"`
	UnitNumber  string  `json:"unit_number"`
	Floor       int     `json:"floor"`
	Bedrooms    int     `json:"bedrooms"`
	Bathrooms   int     `json:"bathrooms"`
	AreaSqft    float64 `json:"area_sqft"`
	RentAmount  float64 `json:"rent_amount"`
	Status      string  `json:"status,omitempty"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

func (u Unit) Validate() error {
	if u.TowerID == 0 {
		return &FieldError{Field: "tower_id", Reason: "is required"}
	}
	if strings.TrimSpace(u.UnitNumber) == "" {
		return &FieldError{Field: "unit_number", Reason: "is required"}
	}
	if u.RentAmount <= 0 {
		return &FieldError{Field: "rent_amount", Reason: "must be positive"}
	}
	switch u.Status {
	case "", UnitAvailable, UnitOccupied, UnitMaintenance:
	default:
		return &FieldError{Field: "status", Reason: fmt.Sprintf("unknown status %q", u.Status)}
	}
	return nil
}

type Amenity struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Capacity    int    `json:"capacity"`
	Available   bool   `json:"available"`
	Icon        string `json:"icon,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func (a Amenity) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &FieldError{Field: "name", Reason: "is required"}
	}
	if a.Capacity < 0 {
		return &FieldError{Field: "capacity", Reason: "must not be negative"}
	}
	return nil
}

type DashboardStats struct {
	TotalUnits      int     `json:"total_units"`
	OccupiedUnits   int     `json:"occupied_units"`
	AvailableUnits  int     `json:"available_units"`
	OccupancyRate   float64 `json:"occupancy_rate"`
	TotalTenants    int     `json:"total_tenants"`
	PendingBookings int     `json:"pending_bookings"`
	TotalRevenue    float64 `json:"total_revenue"`
}

type Registration struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

const MinPasswordLength = 6

func (r Registration) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return &FieldError{Field: "full_name", Reason: "is required"}
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < MinPasswordLength {
		return &FieldError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &FieldError{Field: "email", Reason: "is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &FieldError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}

// FieldError reports a missing or malformed field on a record before it is sent.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}
