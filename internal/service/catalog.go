package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/flightpro/booking-server/internal/database"
)

// GetFlight returns a single flight by ID.
func (s *bookingServiceImpl) GetFlight(ctx context.Context, flightID uuid.UUID) (*database.Flight, error) {
	f, err := s.store.GetFlight(ctx, flightID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

// Flights returns every flight, full or not. Admin view.
func (s *bookingServiceImpl) Flights(ctx context.Context) ([]database.Flight, error) {
	return s.store.ListFlights(ctx)
}

// AvailableFlights returns the flights whose IsFull flag is clear. The
// flag is a snapshot from the flight's last ledger write, not a live
// predicate.
func (s *bookingServiceImpl) AvailableFlights(ctx context.Context) ([]database.Flight, error) {
	flights, err := s.store.ListFlights(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]database.Flight, 0, len(flights))
	for _, f := range flights {
		if !f.IsFull {
			available = append(available, f)
		}
	}
	return available, nil
}

// FlightsTouchingCity partitions the non-full flights into those
// departing from and those arriving at the given city.
func (s *bookingServiceImpl) FlightsTouchingCity(ctx context.Context, city string) (*CityFlights, error) {
	flights, err := s.store.ListFlights(ctx)
	if err != nil {
		return nil, err
	}
	result := &CityFlights{
		Departing: []database.Flight{},
		Arriving:  []database.Flight{},
	}
	for _, f := range flights {
		if f.IsFull {
			continue
		}
		if f.Origin == city {
			result.Departing = append(result.Departing, f)
		}
		if f.Destination == city {
			result.Arriving = append(result.Arriving, f)
		}
	}
	return result, nil
}

// FlightByNumber returns the flight with the exact flight number.
func (s *bookingServiceImpl) FlightByNumber(ctx context.Context, number string) (*database.Flight, error) {
	f, err := s.store.GetFlightByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}
