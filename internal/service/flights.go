package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/flightpro/booking-server/internal/database"
)

// CreateFlight registers a new flight with no seats booked.
func (s *bookingServiceImpl) CreateFlight(ctx context.Context, number, origin, destination string) (*database.Flight, error) {
	f := &database.Flight{
		FlightNumber: number,
		Origin:       origin,
		Destination:  destination,
		Capacity:     0,
		IsFull:       false,
	}
	if err := s.store.SaveFlight(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// UpdateFlight changes a flight's number and route. Capacity and the
// fullness flag are not writable here; the ledger rederives the flag
// afterwards in case the stored flag had drifted.
func (s *bookingServiceImpl) UpdateFlight(ctx context.Context, flightID uuid.UUID, number, origin, destination string) (*database.Flight, error) {
	err := s.store.WithTx(ctx, func(tx database.Store) error {
		f, err := tx.GetFlight(ctx, flightID)
		if err != nil {
			return err
		}
		f.FlightNumber = number
		f.Origin = origin
		f.Destination = destination
		return tx.SaveFlight(ctx, f)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}

	f, err := s.ledger.RecomputeFullness(ctx, flightID)
	if err != nil {
		return nil, err
	}
	s.notifyUpdated(f)
	return f, nil
}
