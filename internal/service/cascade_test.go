package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightpro/booking-server/internal/inventory"
)

func TestDeleteFlightRemovesItsBookingsOnly(t *testing.T) {
	svc, store, notifier := newTestService(t)
	alice := seedUser(t, svc, "alice")
	bob := seedUser(t, svc, "bob")
	doomed := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 0, false)
	kept := seedFlight(t, store, "FP200", "Paris", "Rome", 0, false)

	_, err := svc.Book(context.Background(), alice.ID, doomed.ID, 2)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), bob.ID, doomed.ID, 3)
	require.NoError(t, err)
	keptBooking, err := svc.Book(context.Background(), bob.ID, kept.ID, 4)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFlight(context.Background(), doomed.ID))

	_, err = svc.GetFlight(context.Background(), doomed.ID)
	assert.ErrorIs(t, err, ErrFlightNotFound)

	orphans, err := svc.BookingsForFlight(context.Background(), doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	// The other flight and its booking are untouched.
	survivor, err := svc.GetFlight(context.Background(), kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, survivor.Capacity)
	bobBookings, err := svc.BookingsForUser(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, bobBookings, 1)
	assert.Equal(t, keptBooking.ID, bobBookings[0].ID)

	assert.Contains(t, notifier.deleted, doomed.ID)
}

func TestDeleteFlightNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.DeleteFlight(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestDeleteUserReleasesEveryBooking(t *testing.T) {
	svc, store, _ := newTestService(t)
	alice := seedUser(t, svc, "alice")
	bob := seedUser(t, svc, "bob")
	first := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 140, false)
	second := seedFlight(t, store, "FP200", "Paris", "Rome", 30, false)

	// Alice fills the first flight and holds seats on the second.
	_, err := svc.Book(context.Background(), alice.ID, first.ID, 10)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), alice.ID, second.ID, 5)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), bob.ID, second.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(context.Background(), alice.ID))

	// Seats return to both flights and the full flag clears.
	f1, err := svc.GetFlight(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 140, f1.Capacity)
	assert.False(t, f1.IsFull)

	f2, err := svc.GetFlight(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, 32, f2.Capacity)

	// Alice's bookings and account are gone; Bob's booking survives.
	gone, err := svc.BookingsForUser(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)
	_, err = svc.GetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	bobBookings, err := svc.BookingsForUser(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobBookings, 1)
}

func TestDeleteUserWithoutBookings(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := seedUser(t, svc, "alice")

	require.NoError(t, svc.DeleteUser(context.Background(), alice.ID))
	err := svc.DeleteUser(context.Background(), alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserReopensFullFlightForOthers(t *testing.T) {
	svc, store, _ := newTestService(t)
	alice := seedUser(t, svc, "alice")
	bob := seedUser(t, svc, "bob")
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", inventory.MaxSeats-1, false)

	_, err := svc.Book(context.Background(), alice.ID, f.ID, 1)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), bob.ID, f.ID, 1)
	assert.ErrorIs(t, err, ErrFlightUnavailable)

	require.NoError(t, svc.DeleteUser(context.Background(), alice.ID))

	_, err = svc.Book(context.Background(), bob.ID, f.ID, 1)
	require.NoError(t, err)
}
