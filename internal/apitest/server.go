// Package apitest is an in-memory rental API used by client and view tests.
// It speaks the same JSON shapes and error payloads as the production
// backend and issues HS256 access tokens.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

const (
	AdminEmail       = "admin@rental.com"
	AdminPassword    = "admin123"
	ResidentEmail    = "john@example.com"
	ResidentPassword = "user123"
	OtherEmail       = "jane@example.com"
	OtherPassword    = "user123"
)

// Request is one call as the server received it.
type Request struct {
	Method        string
	Path          string
	Query         string
	Body          []byte
	Authorization string
}

// JSON decodes the recorded body into a generic map.
func (r Request) JSON() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(r.Body, &out)
	return out
}

type account struct {
	user         model.User
	passwordHash []byte
}

type failure struct {
	status  int
	message string
}

type Server struct {
	mu        sync.Mutex
	secret    []byte
	accounts  []*account
	towers    []model.Tower
	units     []model.Unit
	amenities []model.Amenity
	bookings  []model.Booking
	lastID    int64
	requests  []Request
	failures  map[string]failure

	activeLeases int
	revenue      float64
}

// New returns a server seeded with one admin, two residents, two towers, five
// units, six amenities and two bookings.
func New() *Server {
	s := &Server{
		secret:   []byte(uuid.NewString()),
		failures: map[string]failure{},
	}
	s.seed()
	return s
}

// Start serves the router on a test listener and returns the API root
// (".../api") to hand to api.New.
func (s *Server) Start(t testing.TB) string {
	t.Helper()
	app := httptest.NewServer(s.Router())
	t.Cleanup(app.Close)
	return app.URL + "/api"
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "message": "Rental Portal API is running"})
		})

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.With(s.authMiddleware).Get("/auth/me", s.handleMe)

		r.Route("/towers", func(r chi.Router) {
			r.Get("/", s.handleListTowers)
			r.Get("/{id}", s.handleGetTower)
			r.With(s.authMiddleware, s.requireAdmin).Post("/", s.handleCreateTower)
			r.With(s.authMiddleware, s.requireAdmin).Put("/{id}", s.handleUpdateTower)
			r.With(s.authMiddleware, s.requireAdmin).Delete("/{id}", s.handleDeleteTower)
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/", s.handleListUnits)
			r.Get("/{id}", s.handleGetUnit)
			r.With(s.authMiddleware, s.requireAdmin).Post("/", s.handleCreateUnit)
			r.With(s.authMiddleware, s.requireAdmin).Put("/{id}", s.handleUpdateUnit)
			r.With(s.authMiddleware, s.requireAdmin).Delete("/{id}", s.handleDeleteUnit)
		})

		r.Route("/amenities", func(r chi.Router) {
			r.Get("/", s.handleListAmenities)
			r.Get("/{id}", s.handleGetAmenity)
			r.With(s.authMiddleware, s.requireAdmin).Post("/", s.handleCreateAmenity)
			r.With(s.authMiddleware, s.requireAdmin).Put("/{id}", s.handleUpdateAmenity)
			r.With(s.authMiddleware, s.requireAdmin).Delete("/{id}", s.handleDeleteAmenity)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.handleListBookings)
			r.Get("/{id}", s.handleGetBooking)
			r.Post("/", s.handleCreateBooking)
			r.Put("/{id}", s.handleUpdateBooking)
			r.Delete("/{id}", s.handleDeleteBooking)
		})

		r.With(s.authMiddleware, s.requireAdmin).Get("/stats/dashboard", s.handleDashboard)
		r.With(s.authMiddleware, s.requireAdmin).Get("/users", s.handleListUsers)
	})

	return r
}

// Requests returns every request received so far, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recent request matching method and path (relative to
// the API root, e.g. "/bookings").
func (s *Server) Last(method, path string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if req := s.requests[i]; req.Method == method && req.Path == path {
			return req, true
		}
	}
	return Request{}, false
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

// Fail makes every later method+path request answer status with
// {"error": message}. An empty message sends an empty JSON object.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Recover undoes Fail for method+path.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// RevokeTokens rotates the signing secret so every issued token is rejected
// with 401.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = []byte(uuid.NewString())
}

// TokenFor issues a token for a seeded account without going through login.
func (s *Server) TokenFor(t testing.TB, email string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accountByEmail(email)
	if acct == nil {
		t.Fatalf("apitest: no account %q", email)
	}
	token, err := s.issueToken(acct.user.ID)
	if err != nil {
		t.Fatalf("apitest: issue token: %v", err)
	}
	return token
}

// Bookings returns the server's bookings, newest first.
func (s *Server) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedBookings(0)
}

// User returns the seeded or registered account for email.
func (s *Server) User(email string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accountByEmail(email)
	if acct == nil {
		return model.User{}, false
	}
	return acct.user, true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		path := strings.TrimPrefix(r.URL.Path, "/api")
		if len(path) > 1 {
			path = strings.TrimRight(path, "/")
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          path,
			Query:         r.URL.RawQuery,
			Body:          body,
			Authorization: r.Header.Get("Authorization"),
		})
		fail, failing := s.failures[r.Method+" "+path]
		s.mu.Unlock()

		if failing {
			if fail.message == "" {
				writeJSON(w, fail.status, map[string]string{})
				return
			}
			writeError(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessClaims mirror what flask-jwt-extended puts in an access token.
type accessClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) parseToken(tokenString string) (int64, error) {
	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return 0, jwt.ErrTokenInvalidClaims
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}

type userKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization token")
			return
		}
		userID, err := s.parseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.mu.Lock()
		acct := s.accountByID(userID)
		s.mu.Unlock()
		if acct == nil {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, acct.user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !userFromContext(r.Context()).IsAdmin() {
			writeError(w, http.StatusForbidden, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) model.User {
	user, _ := ctx.Value(userKey{}).(model.User)
	return user
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func decodeJSON(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hash
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}

func (s *Server) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *Server) accountByEmail(email string) *account {
	for _, acct := range s.accounts {
		if acct.user.Email == email {
			return acct
		}
	}
	return nil
}

func (s *Server) accountByID(id int64) *account {
	for _, acct := range s.accounts {
		if acct.user.ID == id {
			return acct
		}
	}
	return nil
}

func (s *Server) addAccount(email, fullName, phone, role, password string) model.User {
	user := model.User{
		ID:        s.nextID(),
		Email:     email,
		FullName:  fullName,
		Phone:     phone,
		Role:      role,
		CreatedAt: timestamp(),
	}
	s.accounts = append(s.accounts, &account{user: user, passwordHash: hashPassword(password)})
	return user
}

func (s *Server) seed() {
	s.addAccount(AdminEmail, "Admin User", "1234567890", model.RoleAdmin, AdminPassword)
	john := s.addAccount(ResidentEmail, "John Doe", "9876543210", model.RoleResident, ResidentPassword)
	jane := s.addAccount(OtherEmail, "Jane Smith", "9876543211", model.RoleResident, OtherPassword)

	sunrise := s.addTower(model.Tower{Name: "Sunrise Tower", Address: "123 Main Street, Downtown", TotalFloors: 15})
	sunset := s.addTower(model.Tower{Name: "Sunset Tower", Address: "456 Oak Avenue, Uptown", TotalFloors: 20})

	for _, unit := range []model.Unit{
		{TowerID: sunrise.ID, UnitNumber: "A-101", Floor: 1, Bedrooms: 2, Bathrooms: 2, AreaSqft: 1200, RentAmount: 1500, Status: model.UnitAvailable, Description: "Spacious 2BHK with modern amenities and city view"},
		{TowerID: sunrise.ID, UnitNumber: "A-102", Floor: 1, Bedrooms: 3, Bathrooms: 2, AreaSqft: 1500, RentAmount: 2000, Status: model.UnitAvailable, Description: "Luxurious 3BHK apartment with balcony"},
		{TowerID: sunrise.ID, UnitNumber: "A-201", Floor: 2, Bedrooms: 1, Bathrooms: 1, AreaSqft: 800, RentAmount: 1000, Status: model.UnitOccupied, Description: "Cozy 1BHK perfect for singles or couples"},
		{TowerID: sunset.ID, UnitNumber: "B-101", Floor: 1, Bedrooms: 2, Bathrooms: 2, AreaSqft: 1300, RentAmount: 1600, Status: model.UnitAvailable, Description: "Modern 2BHK with premium fittings"},
		{TowerID: sunset.ID, UnitNumber: "B-301", Floor: 3, Bedrooms: 3, Bathrooms: 3, AreaSqft: 1800, RentAmount: 2500, Status: model.UnitAvailable, Description: "Premium 3BHK penthouse with terrace"},
	} {
		s.addUnit(unit)
	}

	var amenities []model.Amenity
	for _, amenity := range []model.Amenity{
		{Name: "Swimming Pool", Description: "Olympic size swimming pool with separate kids area", Capacity: 50, Available: true, Icon: "pool"},
		{Name: "Gym", Description: "Fully equipped gym with modern fitness equipment", Capacity: 30, Available: true, Icon: "fitness_center"},
		{Name: "Parking", Description: "Covered parking with 24/7 security", Capacity: 100, Available: true, Icon: "local_parking"},
		{Name: "Club House", Description: "Multi-purpose club house for events and gatherings", Capacity: 80, Available: true, Icon: "home"},
		{Name: "Tennis Court", Description: "Professional tennis court with lighting", Capacity: 4, Available: true, Icon: "sports_tennis"},
		{Name: "Kids Play Area", Description: "Safe and fun play area for children", Capacity: 20, Available: true, Icon: "child_care"},
	} {
		amenities = append(amenities, s.addAmenity(amenity))
	}

	// One active lease with three completed payments backs the dashboard's
	// tenant and revenue figures.
	s.activeLeases = 1
	s.revenue = 3000

	today := time.Now().Format(model.DateLayout)
	s.addBooking(model.Booking{UserID: john.ID, AmenityID: amenities[0].ID, BookingDate: today, StartTime: "10:00:00", EndTime: "11:00:00", Status: model.BookingApproved, Notes: "Morning swim session"})
	s.addBooking(model.Booking{UserID: jane.ID, AmenityID: amenities[1].ID, BookingDate: today, StartTime: "18:00:00", EndTime: "19:00:00", Status: model.BookingPending, Notes: "Evening workout"})
}
