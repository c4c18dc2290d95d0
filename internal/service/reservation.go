package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flightpro/booking-server/internal/database"
	"github.com/flightpro/booking-server/internal/inventory"
)

// Book reserves quantity seats on a flight for a user. The ledger
// update and the booking insert happen in one transaction: both succeed
// or neither is observable.
func (s *bookingServiceImpl) Book(ctx context.Context, userID, flightID uuid.UUID, quantity int) (*database.Booking, error) {
	if quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}

	f, err := s.store.GetFlight(ctx, flightID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	if f.IsFull {
		return nil, ErrFlightUnavailable
	}

	return s.reserve(ctx, userID, flightID, quantity)
}

// BookByNumber reserves seats on the flight with the given number. It
// rejects flights whose capacity already reached the maximum even when
// the cached IsFull flag is stale.
func (s *bookingServiceImpl) BookByNumber(ctx context.Context, userID uuid.UUID, number string, quantity int) (*database.Booking, error) {
	if quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}

	f, err := s.store.GetFlightByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	if f.IsFull || f.Capacity >= inventory.MaxSeats {
		return nil, ErrFlightUnavailable
	}

	return s.reserve(ctx, userID, f.ID, quantity)
}

func (s *bookingServiceImpl) reserve(ctx context.Context, userID, flightID uuid.UUID, quantity int) (*database.Booking, error) {
	var booking *database.Booking
	var updated database.Flight

	err := s.ledger.Reserve(ctx, flightID, quantity, func(tx database.Store, f *database.Flight) error {
		b := &database.Booking{UserID: userID, FlightID: flightID, Quantity: quantity}
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		updated = *f
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}

	s.notifyUpdated(&updated)
	return booking, nil
}

// Cancel retracts a booking, returning its seats to the flight. The
// ledger release and the booking delete happen in one transaction.
func (s *bookingServiceImpl) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	var updated database.Flight
	err = s.ledger.Release(ctx, b.FlightID, b.Quantity, func(tx database.Store, f *database.Flight) error {
		if err := tx.DeleteBooking(ctx, b); err != nil {
			return err
		}
		updated = *f
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cancel booking %s: %w", b.ID, err)
	}

	s.notifyUpdated(&updated)
	return nil
}

// BookingsForUser returns all bookings owned by a user.
func (s *bookingServiceImpl) BookingsForUser(ctx context.Context, userID uuid.UUID) ([]database.Booking, error) {
	return s.store.GetBookingsByUser(ctx, userID)
}

// BookingsForFlight returns all bookings against a flight.
func (s *bookingServiceImpl) BookingsForFlight(ctx context.Context, flightID uuid.UUID) ([]database.Booking, error) {
	return s.store.GetBookingsByFlight(ctx, flightID)
}
