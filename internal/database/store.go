package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when the users.username unique
	// constraint rejects an insert.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrDuplicateFlightNumber is returned when the flights.flight_number
	// unique constraint rejects an insert or update.
	ErrDuplicateFlightNumber = errors.New("flight number already exists")
)

// Store is the record store consumed by the inventory engine. Save
// methods insert or update by identity and assign a fresh UUID when the
// record's ID is zero.
//
// Implementations back the same contract with Postgres, SQLite, or an
// in-memory map; the engine never sees which.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, u *User) error

	// Flights
	GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error)
	GetFlightByNumber(ctx context.Context, number string) (*Flight, error)
	ListFlights(ctx context.Context) ([]Flight, error)
	SaveFlight(ctx context.Context, f *Flight) error
	DeleteFlight(ctx context.Context, f *Flight) error

	// Bookings
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingsByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	GetBookingsByFlight(ctx context.Context, flightID uuid.UUID) ([]Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	SaveBooking(ctx context.Context, b *Booking) error
	DeleteBooking(ctx context.Context, b *Booking) error

	// WithTx executes fn against a transaction-scoped store. If fn
	// returns an error the transaction is rolled back, otherwise it is
	// committed. Inside a transaction GetFlight takes a write lock on
	// the row where the backend supports it.
	WithTx(ctx context.Context, fn func(Store) error) error
}
