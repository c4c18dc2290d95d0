package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/flightpro/booking-server/internal/database"
	"github.com/flightpro/booking-server/internal/inventory"
)

var (
	ErrFlightNotFound     = errors.New("flight not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrFlightUnavailable  = errors.New("flight is full")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// CityFlights partitions the non-full flights touching a city.
type CityFlights struct {
	Departing []database.Flight `json:"departing"`
	Arriving  []database.Flight `json:"arriving"`
}

// Notifier receives flight availability changes. Implemented by the
// websocket hub; a nil Notifier disables broadcasting.
type Notifier interface {
	FlightUpdated(f *database.Flight)
	FlightDeleted(flightID uuid.UUID)
}

// BookingService defines the booking service interface.
type BookingService interface {
	// Accounts
	Register(ctx context.Context, username, password string, isAdmin bool) (*database.User, error)
	Authenticate(ctx context.Context, username, password string) (*database.User, error)
	GetUser(ctx context.Context, username string) (*database.User, error)
	Users(ctx context.Context) ([]database.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Flight management
	CreateFlight(ctx context.Context, number, origin, destination string) (*database.Flight, error)
	UpdateFlight(ctx context.Context, flightID uuid.UUID, number, origin, destination string) (*database.Flight, error)
	DeleteFlight(ctx context.Context, flightID uuid.UUID) error

	// Catalog
	GetFlight(ctx context.Context, flightID uuid.UUID) (*database.Flight, error)
	Flights(ctx context.Context) ([]database.Flight, error)
	AvailableFlights(ctx context.Context) ([]database.Flight, error)
	FlightsTouchingCity(ctx context.Context, city string) (*CityFlights, error)
	FlightByNumber(ctx context.Context, number string) (*database.Flight, error)

	// Reservations
	Book(ctx context.Context, userID, flightID uuid.UUID, quantity int) (*database.Booking, error)
	BookByNumber(ctx context.Context, userID uuid.UUID, number string, quantity int) (*database.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) error
	BookingsForUser(ctx context.Context, userID uuid.UUID) ([]database.Booking, error)
	BookingsForFlight(ctx context.Context, flightID uuid.UUID) ([]database.Booking, error)
}

// bookingServiceImpl implements BookingService.
type bookingServiceImpl struct {
	store    database.Store
	ledger   *inventory.Ledger
	notifier Notifier
}

// NewBookingService creates a new BookingService over the given store.
// All capacity mutations go through ledger; notifier may be nil.
func NewBookingService(store database.Store, ledger *inventory.Ledger, notifier Notifier) BookingService {
	return &bookingServiceImpl{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
	}
}

func (s *bookingServiceImpl) notifyUpdated(f *database.Flight) {
	if s.notifier != nil && f != nil {
		s.notifier.FlightUpdated(f)
	}
}

func (s *bookingServiceImpl) notifyDeleted(flightID uuid.UUID) {
	if s.notifier != nil {
		s.notifier.FlightDeleted(flightID)
	}
}
