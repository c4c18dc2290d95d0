package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flightpro/booking-server/internal/database"
)

// DeleteFlight removes a flight and every booking referencing it in one
// transaction. No capacity adjustment is made: the capacity resource is
// removed along with the flight, so there is nothing to release.
func (s *bookingServiceImpl) DeleteFlight(ctx context.Context, flightID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx database.Store) error {
		f, err := tx.GetFlight(ctx, flightID)
		if err != nil {
			return err
		}
		bookings, err := tx.GetBookingsByFlight(ctx, flightID)
		if err != nil {
			return err
		}
		for i := range bookings {
			if err := tx.DeleteBooking(ctx, &bookings[i]); err != nil {
				return err
			}
		}
		return tx.DeleteFlight(ctx, f)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrFlightNotFound
		}
		return fmt.Errorf("failed to delete flight %s: %w", flightID, err)
	}

	s.notifyDeleted(flightID)
	return nil
}

// DeleteUser removes a user after retracting every booking they own.
// Unlike DeleteFlight, the affected flights survive, so each booking's
// seats are released back to its flight through the ledger.
func (s *bookingServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	bookings, err := s.store.GetBookingsByUser(ctx, userID)
	if err != nil {
		return err
	}
	for i := range bookings {
		b := bookings[i]
		var updated database.Flight
		err := s.ledger.Release(ctx, b.FlightID, b.Quantity, func(tx database.Store, f *database.Flight) error {
			if err := tx.DeleteBooking(ctx, &b); err != nil {
				return err
			}
			updated = *f
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to retract booking %s: %w", b.ID, err)
		}
		s.notifyUpdated(&updated)
	}

	return s.store.DeleteUser(ctx, u)
}
