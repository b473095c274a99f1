package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountByEmail(req.Email) != nil {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	user := s.addAccount(req.Email, req.FullName, req.Phone, model.RoleResident, req.Password)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accountByEmail(req.Email)
	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token, err := s.issueToken(acct.user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "user": acct.user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

func (s *Server) addTower(tower model.Tower) model.Tower {
	tower.ID = s.nextID()
	tower.CreatedAt = timestamp()
	s.towers = append(s.towers, tower)
	return tower
}

func (s *Server) towerView(tower model.Tower) model.Tower {
	tower.TotalUnits = 0
	for _, unit := range s.units {
		if unit.TowerID == tower.ID {
			tower.TotalUnits++
		}
	}
	return tower
}

func (s *Server) towerIndex(id int64) int {
	for i, tower := range s.towers {
		if tower.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleListTowers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Tower, 0, len(s.towers))
	for _, tower := range s.towers {
		out = append(out, s.towerView(tower))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTower(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.towerIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Tower not found")
		return
	}
	writeJSON(w, http.StatusOK, s.towerView(s.towers[i]))
}

func (s *Server) handleCreateTower(w http.ResponseWriter, r *http.Request) {
	var req model.Tower
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.towerView(s.addTower(req)))
}

func (s *Server) handleUpdateTower(w http.ResponseWriter, r *http.Request) {
	var req model.Tower
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.towerIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Tower not found")
		return
	}
	req.ID, req.CreatedAt = s.towers[i].ID, s.towers[i].CreatedAt
	s.towers[i] = req
	writeJSON(w, http.StatusOK, s.towerView(req))
}

func (s *Server) handleDeleteTower(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.towerIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Tower not found")
		return
	}
	s.towers = append(s.towers[:i], s.towers[i+1:]...)
	units := s.units[:0]
	for _, unit := range s.units {
		if unit.TowerID != id {
			units = append(units, unit)
		}
	}
	s.units = units
	writeMessage(w, "Tower deleted successfully")
}

func (s *Server) addUnit(unit model.Unit) model.Unit {
	unit.ID = s.nextID()
	unit.CreatedAt = timestamp()
	if unit.Status == "" {
		unit.Status = model.UnitAvailable
	}
	s.units = append(s.units, unit)
	return unit
}

func (s *Server) unitView(unit model.Unit) model.Unit {
	if i := s.towerIndex(unit.TowerID); i >= 0 {
		unit.TowerName = s.towers[i].Name
	}
	return unit
}

func (s *Server) unitIndex(id int64) int {
	for i, unit := range s.units {
		if unit.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	towerID, _ := strconv.ParseInt(r.URL.Query().Get("tower_id"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Unit{}
	for _, unit := range s.units {
		if status != "" && unit.Status != status {
			continue
		}
		if towerID != 0 && unit.TowerID != towerID {
			continue
		}
		out = append(out, s.unitView(unit))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.unitIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Unit not found")
		return
	}
	writeJSON(w, http.StatusOK, s.unitView(s.units[i]))
}

func (s *Server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var req model.Unit
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.towerIndex(req.TowerID) < 0 {
		writeError(w, http.StatusBadRequest, "Tower not found")
		return
	}
	writeJSON(w, http.StatusCreated, s.unitView(s.addUnit(req)))
}

func (s *Server) handleUpdateUnit(w http.ResponseWriter, r *http.Request) {
	var req model.Unit
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.unitIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Unit not found")
		return
	}
	req.ID, req.CreatedAt = s.units[i].ID, s.units[i].CreatedAt
	if req.Status == "" {
		req.Status = s.units[i].Status
	}
	s.units[i] = req
	writeJSON(w, http.StatusOK, s.unitView(req))
}

func (s *Server) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.unitIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Unit not found")
		return
	}
	s.units = append(s.units[:i], s.units[i+1:]...)
	writeMessage(w, "Unit deleted successfully")
}

func (s *Server) addAmenity(amenity model.Amenity) model.Amenity {
	amenity.ID = s.nextID()
	amenity.CreatedAt = timestamp()
	s.amenities = append(s.amenities, amenity)
	return amenity
}

func (s *Server) amenityIndex(id int64) int {
	for i, amenity := range s.amenities {
		if amenity.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleListAmenities(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Amenity, len(s.amenities))
	copy(out, s.amenities)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAmenity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.amenityIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Amenity not found")
		return
	}
	writeJSON(w, http.StatusOK, s.amenities[i])
}

func (s *Server) handleCreateAmenity(w http.ResponseWriter, r *http.Request) {
	var req model.Amenity
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.addAmenity(req))
}

func (s *Server) handleUpdateAmenity(w http.ResponseWriter, r *http.Request) {
	var req model.Amenity
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.amenityIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Amenity not found")
		return
	}
	req.ID, req.CreatedAt = s.amenities[i].ID, s.amenities[i].CreatedAt
	s.amenities[i] = req
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDeleteAmenity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.amenityIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Amenity not found")
		return
	}
	s.amenities = append(s.amenities[:i], s.amenities[i+1:]...)
	writeMessage(w, "Amenity deleted successfully")
}

func (s *Server) addBooking(booking model.Booking) model.Booking {
	booking.ID = s.nextID()
	booking.CreatedAt = timestamp()
	booking.UpdatedAt = booking.CreatedAt
	s.bookings = append(s.bookings, booking)
	return booking
}

func (s *Server) bookingView(booking model.Booking) model.Booking {
	if acct := s.accountByID(booking.UserID); acct != nil {
		booking.UserName = acct.user.FullName
		booking.UserEmail = acct.user.Email
	}
	if i := s.amenityIndex(booking.AmenityID); i >= 0 {
		booking.AmenityName = s.amenities[i].Name
	}
	return booking
}

func (s *Server) bookingIndex(id int64) int {
	for i, booking := range s.bookings {
		if booking.ID == id {
			return i
		}
	}
	return -1
}

// sortedBookings returns bookings newest first; userID 0 means everyone's.
func (s *Server) sortedBookings(userID int64) []model.Booking {
	out := []model.Booking{}
	for _, booking := range s.bookings {
		if userID != 0 && booking.UserID != userID {
			continue
		}
		out = append(out, s.bookingView(booking))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.IsAdmin() {
		writeJSON(w, http.StatusOK, s.sortedBookings(0))
		return
	}
	writeJSON(w, http.StatusOK, s.sortedBookings(user.ID))
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.bookingIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if !user.IsAdmin() && s.bookings[i].UserID != user.ID {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, s.bookingView(s.bookings[i]))
}

func backendClock(value string) (string, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return "", false
	}
	return t.Format("15:04:05"), true
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := time.Parse(model.DateLayout, req.BookingDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid booking_date")
		return
	}
	start, okStart := backendClock(req.StartTime)
	end, okEnd := backendClock(req.EndTime)
	if !okStart || !okEnd {
		writeError(w, http.StatusBadRequest, "Invalid booking time")
		return
	}

	user := userFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.amenityIndex(req.AmenityID) < 0 {
		writeError(w, http.StatusBadRequest, "Amenity not found")
		return
	}
	booking := s.addBooking(model.Booking{
		UserID:      user.ID,
		AmenityID:   req.AmenityID,
		BookingDate: req.BookingDate,
		StartTime:   start,
		EndTime:     end,
		Status:      model.BookingPending,
		Notes:       req.Notes,
	})
	writeJSON(w, http.StatusCreated, s.bookingView(booking))
}

type bookingUpdateRequest struct {
	Status      *string `json:"status"`
	AdminNotes  *string `json:"admin_notes"`
	Notes       *string `json:"notes"`
	BookingDate string  `json:"booking_date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
}

func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := userFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.bookingIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}
	booking := &s.bookings[i]

	switch {
	case user.IsAdmin():
		if req.Status != nil {
			booking.Status = model.BookingStatus(*req.Status)
		}
		if req.AdminNotes != nil {
			booking.AdminNotes = *req.AdminNotes
		}
	case booking.UserID == user.ID:
		if req.Notes != nil {
			booking.Notes = *req.Notes
		}
		if booking.Status == model.BookingPending {
			if req.BookingDate != "" {
				booking.BookingDate = req.BookingDate
			}
			if clock, ok := backendClock(req.StartTime); ok {
				booking.StartTime = clock
			}
			if clock, ok := backendClock(req.EndTime); ok {
				booking.EndTime = clock
			}
		}
	default:
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}
	booking.UpdatedAt = timestamp()
	writeJSON(w, http.StatusOK, s.bookingView(*booking))
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := pathID(r)
	i := s.bookingIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if !user.IsAdmin() && s.bookings[i].UserID != user.ID {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}
	s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
	writeMessage(w, "Booking deleted successfully")
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := model.DashboardStats{
		TotalUnits:   len(s.units),
		TotalTenants: s.activeLeases,
		TotalRevenue: s.revenue,
	}
	for _, unit := range s.units {
		switch unit.Status {
		case model.UnitOccupied:
			stats.OccupiedUnits++
		case model.UnitAvailable:
			stats.AvailableUnits++
		}
	}
	for _, booking := range s.bookings {
		if booking.Status == model.BookingPending {
			stats.PendingBookings++
		}
	}
	if stats.TotalUnits > 0 {
		rate := float64(stats.OccupiedUnits) / float64(stats.TotalUnits) * 100
		stats.OccupancyRate = float64(int(rate*100+0.5)) / 100
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.User{}
	for _, acct := range s.accounts {
		if acct.user.Role == model.RoleResident {
			out = append(out, acct.user)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
