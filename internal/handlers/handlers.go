package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/flightpro/booking-server/internal/auth"
	"github.com/flightpro/booking-server/internal/database"
	"github.com/flightpro/booking-server/internal/inventory"
	"github.com/flightpro/booking-server/internal/service"
)

// Handler contains HTTP handlers for the API.
type Handler struct {
	bookingService service.BookingService
	tokens         *auth.TokenIssuer
	log            *logrus.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(bookingService service.BookingService, tokens *auth.TokenIssuer, log *logrus.Logger) *Handler {
	return &Handler{
		bookingService: bookingService,
		tokens:         tokens,
		log:            log,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service-layer errors to HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrFlightNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "Booking quantity must be at least 1")
	case errors.Is(err, inventory.ErrCapacityExceeded):
		respondError(w, http.StatusConflict, "Not enough seats remaining on this flight")
	case errors.Is(err, service.ErrFlightUnavailable):
		respondError(w, http.StatusConflict, "Flight is fully booked")
	case errors.Is(err, database.ErrDuplicateUsername):
		respondError(w, http.StatusConflict, "Username already taken")
	case errors.Is(err, database.ErrDuplicateFlightNumber):
		respondError(w, http.StatusConflict, "Flight number already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
	default:
		h.log.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

// --- Auth Operations ---

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  *database.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" {
		respondError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	u, err := h.bookingService.Register(r.Context(), req.Username, req.Password, false)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.bookingService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	token, err := h.tokens.Sign(u.ID, u.Username, u.IsAdmin)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token, User: u})
}

// --- Flight Operations ---

type flightRequest struct {
	FlightNumber string `json:"flightNumber"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
}

func (req *flightRequest) validate() string {
	if req.FlightNumber == "" {
		return "Flight number is required"
	}
	if req.Origin == "" {
		return "Origin is required"
	}
	if req.Destination == "" {
		return "Destination is required"
	}
	return ""
}

// GetFlights handles GET /api/flights
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.bookingService.Flights(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// GetAvailableFlights handles GET /api/flights/available
func (h *Handler) GetAvailableFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.bookingService.AvailableFlights(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// GetFlight handles GET /api/flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid flight ID")
		return
	}
	flight, err := h.bookingService.GetFlight(r.Context(), flightID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// GetFlightByNumber handles GET /api/flights/number/{number}
func (h *Handler) GetFlightByNumber(w http.ResponseWriter, r *http.Request) {
	flight, err := h.bookingService.FlightByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// GetFlightsByCity handles GET /api/flights/city/{city}
func (h *Handler) GetFlightsByCity(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	if city == "" {
		respondError(w, http.StatusBadRequest, "City is required")
		return
	}
	flights, err := h.bookingService.FlightsTouchingCity(r.Context(), city)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// CreateFlight handles POST /api/flights
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req flightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	flight, err := h.bookingService.CreateFlight(r.Context(), req.FlightNumber, req.Origin, req.Destination)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, flight)
}

// UpdateFlight handles PUT /api/flights/{id}
func (h *Handler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid flight ID")
		return
	}
	var req flightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	flight, err := h.bookingService.UpdateFlight(r.Context(), flightID, req.FlightNumber, req.Origin, req.Destination)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// DeleteFlight handles DELETE /api/flights/{id}. Deleting a flight
// removes its bookings with it.
func (h *Handler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid flight ID")
		return
	}
	if err := h.bookingService.DeleteFlight(r.Context(), flightID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Flight deleted"})
}

// GetFlightBookings handles GET /api/flights/{id}/bookings
func (h *Handler) GetFlightBookings(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid flight ID")
		return
	}
	bookings, err := h.bookingService.BookingsForFlight(r.Context(), flightID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, bookings)
}

// --- Booking Operations ---

type bookRequest struct {
	FlightID     string `json:"flightId,omitempty"`
	FlightNumber string `json:"flightNumber,omitempty"`
	Quantity     int    `json:"quantity"`
}

// CreateBooking handles POST /api/bookings. The flight is addressed by
// ID or by flight number.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var booking *database.Booking
	var err error
	switch {
	case req.FlightID != "":
		var flightID uuid.UUID
		flightID, err = uuid.Parse(req.FlightID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid flight ID")
			return
		}
		booking, err = h.bookingService.Book(r.Context(), claims.UserID, flightID, req.Quantity)
	case req.FlightNumber != "":
		booking, err = h.bookingService.BookByNumber(r.Context(), claims.UserID, req.FlightNumber, req.Quantity)
	default:
		respondError(w, http.StatusBadRequest, "Flight ID or flight number is required")
		return
	}
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

// CancelBooking handles DELETE /api/bookings/{id}. Users may cancel
// only their own bookings; admins may cancel any.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	bookingID, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	if !claims.IsAdmin {
		owned, err := h.bookingService.BookingsForUser(r.Context(), claims.UserID)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		mine := false
		for _, b := range owned {
			if b.ID == bookingID {
				mine = true
				break
			}
		}
		if !mine {
			respondError(w, http.StatusForbidden, "Not your booking")
			return
		}
	}

	if err := h.bookingService.Cancel(r.Context(), bookingID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking cancelled"})
}

// GetMyBookings handles GET /api/bookings
func (h *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	bookings, err := h.bookingService.BookingsForUser(r.Context(), claims.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, bookings)
}

// --- User Operations ---

// GetUsers handles GET /api/users
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.bookingService.Users(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetMe handles GET /api/users/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	u, err := h.bookingService.GetUser(r.Context(), claims.Username)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /api/users/{id}. Users may delete their own
// account; admins may delete any. The user's seats are released before
// the account goes away.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if !claims.IsAdmin && claims.UserID != userID {
		respondError(w, http.StatusForbidden, "Cannot delete another user")
		return
	}

	if err := h.bookingService.DeleteUser(r.Context(), userID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
