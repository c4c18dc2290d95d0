package database

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Flight represents a flight in the database.
//
// Capacity is the number of seats already booked, not the total; the
// total is fixed at inventory.MaxSeats. IsFull is a cached derivation
// of Capacity, recomputed by the inventory ledger on every write. The
// two fields are always persisted together.
type Flight struct {
	ID           uuid.UUID `json:"id"`
	FlightNumber string    `json:"flightNumber"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Capacity     int       `json:"capacity"`
	IsFull       bool      `json:"isFull"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Booking joins a user to a flight with a seat quantity. It has no
// lifecycle of its own beyond creation and deletion; cancellation and
// cascades remove the row outright rather than nulling references.
type Booking struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	FlightID  uuid.UUID `json:"flightId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}
