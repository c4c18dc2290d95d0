// Package inventory owns the capacity/availability invariant for
// flights. The Ledger is the only component allowed to write a flight's
// Capacity and IsFull fields; every booking, cancellation, and cascade
// routes its capacity arithmetic through here.
package inventory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/flightpro/booking-server/internal/database"
)

// MaxSeats is the fixed seat capacity of every flight.
const MaxSeats = 150

var (
	// ErrInvalidQuantity is returned for a non-positive seat quantity.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrCapacityExceeded is returned when a reservation would push a
	// flight past MaxSeats.
	ErrCapacityExceeded = errors.New("not enough seats remaining")

	// ErrSeatUnderflow is returned when a release exceeds the seats
	// currently booked. Correct callers never trigger it; seeing it
	// means a cascade or ledger bug.
	ErrSeatUnderflow = errors.New("release exceeds booked seats")
)

// Remaining returns how many seats can still be booked on f.
func Remaining(f *database.Flight) int {
	return MaxSeats - f.Capacity
}

// Ledger serializes all capacity mutations per flight. Operations hold
// a per-flight lock across the whole read-validate-write cycle and run
// inside one store transaction, so Capacity and IsFull are never
// observable in an inconsistent state and two concurrent reservations
// cannot both pass the capacity check.
type Ledger struct {
	store database.Store

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewLedger creates a Ledger over the given store.
func NewLedger(store database.Store) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (l *Ledger) lockFlight(flightID uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[flightID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[flightID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Reserve adds quantity booked seats to the flight and recomputes
// IsFull. The optional then callback runs inside the same transaction
// after the flight row has been updated; the reservation manager uses
// it to persist the booking atomically with the capacity change.
func (l *Ledger) Reserve(ctx context.Context, flightID uuid.UUID, quantity int, then func(tx database.Store, f *database.Flight) error) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	unlock := l.lockFlight(flightID)
	defer unlock()

	return l.store.WithTx(ctx, func(tx database.Store) error {
		f, err := tx.GetFlight(ctx, flightID)
		if err != nil {
			return err
		}
		if quantity > Remaining(f) {
			return ErrCapacityExceeded
		}
		f.Capacity += quantity
		f.IsFull = f.Capacity >= MaxSeats
		if err := tx.SaveFlight(ctx, f); err != nil {
			return err
		}
		if then != nil {
			return then(tx, f)
		}
		return nil
	})
}

// Release returns quantity booked seats to the flight. It clears IsFull
// once capacity drops below MaxSeats and never sets it; releasing seats
// cannot make a flight full. The optional then callback runs inside the
// same transaction, used by callers to delete the booking atomically
// with the capacity change.
func (l *Ledger) Release(ctx context.Context, flightID uuid.UUID, quantity int, then func(tx database.Store, f *database.Flight) error) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	unlock := l.lockFlight(flightID)
	defer unlock()

	return l.store.WithTx(ctx, func(tx database.Store) error {
		f, err := tx.GetFlight(ctx, flightID)
		if err != nil {
			return err
		}
		if quantity > f.Capacity {
			return ErrSeatUnderflow
		}
		f.Capacity -= quantity
		if f.Capacity < MaxSeats {
			f.IsFull = false
		}
		if err := tx.SaveFlight(ctx, f); err != nil {
			return err
		}
		if then != nil {
			return then(tx, f)
		}
		return nil
	})
}

// RecomputeFullness rederives IsFull strictly from the stored capacity.
// Idempotent; used after bulk adjustments and admin edits to heal any
// drift of the cached flag.
func (l *Ledger) RecomputeFullness(ctx context.Context, flightID uuid.UUID) (*database.Flight, error) {
	unlock := l.lockFlight(flightID)
	defer unlock()

	var updated *database.Flight
	err := l.store.WithTx(ctx, func(tx database.Store) error {
		f, err := tx.GetFlight(ctx, flightID)
		if err != nil {
			return err
		}
		full := f.Capacity >= MaxSeats
		if f.IsFull != full {
			f.IsFull = full
			if err := tx.SaveFlight(ctx, f); err != nil {
				return err
			}
		}
		updated = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
