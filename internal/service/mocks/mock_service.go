package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/flightpro/booking-server/internal/database"
	"github.com/flightpro/booking-server/internal/service"
)

// MockBookingService is a mock implementation of service.BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Register(ctx context.Context, username, password string, isAdmin bool) (*database.User, error) {
	args := m.Called(ctx, username, password, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.User), args.Error(1)
}

func (m *MockBookingService) Authenticate(ctx context.Context, username, password string) (*database.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.User), args.Error(1)
}

func (m *MockBookingService) GetUser(ctx context.Context, username string) (*database.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.User), args.Error(1)
}

func (m *MockBookingService) Users(ctx context.Context) ([]database.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.User), args.Error(1)
}

func (m *MockBookingService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockBookingService) CreateFlight(ctx context.Context, number, origin, destination string) (*database.Flight, error) {
	args := m.Called(ctx, number, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Flight), args.Error(1)
}

func (m *MockBookingService) UpdateFlight(ctx context.Context, flightID uuid.UUID, number, origin, destination string) (*database.Flight, error) {
	args := m.Called(ctx, flightID, number, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Flight), args.Error(1)
}

func (m *MockBookingService) DeleteFlight(ctx context.Context, flightID uuid.UUID) error {
	args := m.Called(ctx, flightID)
	return args.Error(0)
}

func (m *MockBookingService) GetFlight(ctx context.Context, flightID uuid.UUID) (*database.Flight, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Flight), args.Error(1)
}

func (m *MockBookingService) Flights(ctx context.Context) ([]database.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Flight), args.Error(1)
}

func (m *MockBookingService) AvailableFlights(ctx context.Context) ([]database.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Flight), args.Error(1)
}

func (m *MockBookingService) FlightsTouchingCity(ctx context.Context, city string) (*service.CityFlights, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CityFlights), args.Error(1)
}

func (m *MockBookingService) FlightByNumber(ctx context.Context, number string) (*database.Flight, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Flight), args.Error(1)
}

func (m *MockBookingService) Book(ctx context.Context, userID, flightID uuid.UUID, quantity int) (*database.Booking, error) {
	args := m.Called(ctx, userID, flightID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Booking), args.Error(1)
}

func (m *MockBookingService) BookByNumber(ctx context.Context, userID uuid.UUID, number string, quantity int) (*database.Booking, error) {
	args := m.Called(ctx, userID, number, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Booking), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) BookingsForUser(ctx context.Context, userID uuid.UUID) ([]database.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Booking), args.Error(1)
}

func (m *MockBookingService) BookingsForFlight(ctx context.Context, flightID uuid.UUID) ([]database.Booking, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Booking), args.Error(1)
}
