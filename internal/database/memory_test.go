package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWithTxRollsBackOnError(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	f := &Flight{FlightNumber: "FP100", Origin: "Tel Aviv", Destination: "Berlin"}
	require.NoError(t, m.SaveFlight(ctx, f))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx Store) error {
		stored, err := tx.GetFlight(ctx, f.ID)
		require.NoError(t, err)
		stored.Capacity = 99
		require.NoError(t, tx.SaveFlight(ctx, stored))
		require.NoError(t, tx.SaveBooking(ctx, &Booking{FlightID: f.ID, Quantity: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := m.GetFlight(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Capacity, "flight write must roll back")

	bookings, err := m.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings, "booking write must roll back")
}

func TestMemoryWithTxCommits(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	err := m.WithTx(ctx, func(tx Store) error {
		return tx.SaveFlight(ctx, &Flight{FlightNumber: "FP100"})
	})
	require.NoError(t, err)

	flights, err := m.ListFlights(ctx)
	require.NoError(t, err)
	assert.Len(t, flights, 1)
}

func TestMemoryDuplicateUsername(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateUser(ctx, &User{Username: "alice"}))
	err := m.CreateUser(ctx, &User{Username: "Alice"})
	assert.ErrorIs(t, err, ErrDuplicateUsername, "usernames are case-insensitive")
}

func TestMemoryDuplicateFlightNumber(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	f := &Flight{FlightNumber: "FP100"}
	require.NoError(t, m.SaveFlight(ctx, f))

	err := m.SaveFlight(ctx, &Flight{FlightNumber: "FP100"})
	assert.ErrorIs(t, err, ErrDuplicateFlightNumber)

	// Re-saving the same flight is not a conflict.
	f.Origin = "Tel Aviv"
	require.NoError(t, m.SaveFlight(ctx, f))
}

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetFlightByNumber(ctx, "FP999")
	assert.ErrorIs(t, err, ErrNotFound)
}
