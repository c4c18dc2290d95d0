package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/flightpro/booking-server/internal/auth"
	"github.com/flightpro/booking-server/internal/handlers"
	"github.com/flightpro/booking-server/internal/logger"
	"github.com/flightpro/booking-server/internal/websocket"
)

// New creates and configures the HTTP router.
func New(h *handlers.Handler, tokens *auth.TokenIssuer, hub *websocket.Hub, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()

	r.Use(corsMiddleware)
	r.Use(logger.RequestLogger(log))

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost, http.MethodOptions)

	// Public catalog
	api.HandleFunc("/flights/available", h.GetAvailableFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/number/{number}", h.GetFlightByNumber).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/city/{city}", h.GetFlightsByCity).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights", h.GetFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(http.MethodGet, http.MethodOptions)

	// WebSocket for real-time availability
	api.HandleFunc("/flights/{id}/ws", func(w http.ResponseWriter, r *http.Request) {
		flightID, err := uuid.Parse(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, "invalid flight ID", http.StatusBadRequest)
			return
		}
		hub.ServeWS(w, r, flightID)
	}).Methods(http.MethodGet)

	// Authenticated routes
	authed := api.NewRoute().Subrouter()
	authed.Use(mux.MiddlewareFunc(tokens.Middleware))
	authed.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/bookings", h.GetMyBookings).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/bookings/{id}", h.CancelBooking).Methods(http.MethodDelete, http.MethodOptions)
	authed.HandleFunc("/users/me", h.GetMe).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/users/{id}", h.DeleteUser).Methods(http.MethodDelete, http.MethodOptions)

	// Admin routes
	admin := api.NewRoute().Subrouter()
	admin.Use(mux.MiddlewareFunc(tokens.Middleware), mux.MiddlewareFunc(auth.RequireAdmin))
	admin.HandleFunc("/flights", h.CreateFlight).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/flights/{id}", h.UpdateFlight).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/flights/{id}", h.DeleteFlight).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/flights/{id}/bookings", h.GetFlightBookings).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/users", h.GetUsers).Methods(http.MethodGet, http.MethodOptions)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
