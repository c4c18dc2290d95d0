package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightpro/booking-server/internal/database"
	"github.com/flightpro/booking-server/internal/inventory"
)

func TestBookPersistsBookingAndCapacityTogether(t *testing.T) {
	svc, store, notifier := newTestService(t)
	user := seedUser(t, svc, "alice")
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 0, false)

	b, err := svc.Book(context.Background(), user.ID, f.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, user.ID, b.UserID)
	assert.Equal(t, f.ID, b.FlightID)
	assert.Equal(t, 3, b.Quantity)

	got, err := store.GetFlight(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Capacity)
	assert.False(t, got.IsFull)

	bookings, err := svc.BookingsForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, b.ID, bookings[0].ID)

	last := notifier.lastUpdated(t)
	assert.Equal(t, f.ID, last.ID)
	assert.Equal(t, 3, last.Capacity)
}

func TestBookRejectsNonPositiveQuantity(t *testing.T) {
	svc, store, _ := newTestService(t)
	user := seedUser(t, svc, "alice")
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 0, false)

	_, err := svc.Book(context.Background(), user.ID, f.ID, 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	_, err = svc.Book(context.Background(), user.ID, f.ID, -2)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

func TestBookUnknownFlight(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := seedUser(t, svc, "alice")

	_, err := svc.Book(context.Background(), user.ID, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestBookFullFlight(t *testing.T) {
	svc, store, _ := newTestService(t)
	user := seedUser(t, svc, "alice")
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", inventory.MaxSeats, true)

	_, err := svc.Book(context.Background(), user.ID, f.ID, 1)
	assert.ErrorIs(t, err, ErrFlightUnavailable)
}

func TestBookRejectsExcessQuantity(t *testing.T) {
	svc, store, _ := newTestService(t)
	user := seedUser(t, svc, "alice")
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 145, false)

	_, err := svc.Book(context.Background(), user.ID, f.ID, 10)
	assert.ErrorIs(t, err, inventory.ErrCapacityExceeded)

	// Nothing was written.
	got, err := store.GetFlight(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, 145, got.Capacity)
	bookings, err := svc.BookingsForFlight(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

// A flight at 140 seats accepts a 10-seat booking and flips full; the
// next booking bounces; cancelling the 10 seats reopens the flight.
func TestBookFillCancelReopenCycle(t *testing.T) {
	svc, store, _ := newTestService(t)
	alice := seedUser(t, svc, "alice")
	bob := seedUser(t, svc, "bob")
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 140, false)

	filling, err := svc.Book(context.Background(), alice.ID, f.ID, 10)
	require.NoError(t, err)

	got, err := store.GetFlight(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.MaxSeats, got.Capacity)
	assert.True(t, got.IsFull)

	_, err = svc.Book(context.Background(), bob.ID, f.ID, 1)
	assert.ErrorIs(t, err, ErrFlightUnavailable)

	require.NoError(t, svc.Cancel(context.Background(), filling.ID))

	got, err = store.GetFlight(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, 140, got.Capacity)
	assert.False(t, got.IsFull)

	_, err = svc.Book(context.Background(), bob.ID, f.ID, 1)
	require.NoError(t, err)
}

func TestBookByNumber(t *testing.T) {
	svc, store, _ := newTestService(t)
	user := seedUser(t, svc, "alice")
	seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 0, false)

	b, err := svc.BookByNumber(context.Background(), user.ID, "FP100", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Quantity)

	_, err = svc.BookByNumber(context.Background(), user.ID, "FP999", 1)
	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestBookByNumberRejectsMaxCapacityDespiteStaleFlag(t *testing.T) {
	svc, store, _ := newTestService(t)
	user := seedUser(t, svc, "alice")
	// Capacity at max but the cached flag never got set.
	seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", inventory.MaxSeats, false)

	_, err := svc.BookByNumber(context.Background(), user.ID, "FP100", 1)
	assert.ErrorIs(t, err, ErrFlightUnavailable)
}

func TestCancelUnknownBooking(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelRemovesBookingAndReleasesSeats(t *testing.T) {
	svc, store, notifier := newTestService(t)
	user := seedUser(t, svc, "alice")
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 20, false)

	b, err := svc.Book(context.Background(), user.ID, f.ID, 5)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), b.ID))

	got, err := store.GetFlight(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Capacity)

	_, err = store.GetBooking(context.Background(), b.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	last := notifier.lastUpdated(t)
	assert.Equal(t, 20, last.Capacity)
}

func TestBookingsForFlight(t *testing.T) {
	svc, store, _ := newTestService(t)
	alice := seedUser(t, svc, "alice")
	bob := seedUser(t, svc, "bob")
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 0, false)
	other := seedFlight(t, store, "FP200", "Paris", "Rome", 0, false)

	_, err := svc.Book(context.Background(), alice.ID, f.ID, 2)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), bob.ID, f.ID, 3)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), bob.ID, other.ID, 1)
	require.NoError(t, err)

	bookings, err := svc.BookingsForFlight(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}
