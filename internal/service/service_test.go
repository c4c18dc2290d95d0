package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightpro/booking-server/internal/database"
	"github.com/flightpro/booking-server/internal/inventory"
)

// recordingNotifier captures availability broadcasts for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	updated []database.Flight
	deleted []uuid.UUID
}

func (n *recordingNotifier) FlightUpdated(f *database.Flight) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, *f)
}

func (n *recordingNotifier) FlightDeleted(flightID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, flightID)
}

func (n *recordingNotifier) lastUpdated(t *testing.T) database.Flight {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.updated)
	return n.updated[len(n.updated)-1]
}

func newTestService(t *testing.T) (BookingService, *database.Memory, *recordingNotifier) {
	t.Helper()
	store := database.NewMemory()
	notifier := &recordingNotifier{}
	svc := NewBookingService(store, inventory.NewLedger(store), notifier)
	return svc, store, notifier
}

func seedFlight(t *testing.T, store database.Store, number, origin, destination string, capacity int, isFull bool) *database.Flight {
	t.Helper()
	f := &database.Flight{
		FlightNumber: number,
		Origin:       origin,
		Destination:  destination,
		Capacity:     capacity,
		IsFull:       isFull,
	}
	require.NoError(t, store.SaveFlight(context.Background(), f))
	return f
}

func seedUser(t *testing.T, svc BookingService, username string) *database.User {
	t.Helper()
	u, err := svc.Register(context.Background(), username, "secret123", false)
	require.NoError(t, err)
	return u
}

// --- Accounts ---

func TestRegisterHashesPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	u, err := svc.Register(context.Background(), "alice", "secret123", false)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotContains(t, u.PasswordHash, "secret123")
	assert.False(t, u.IsAdmin)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedUser(t, svc, "alice")

	_, err := svc.Register(context.Background(), "alice", "otherpass", false)
	assert.ErrorIs(t, err, database.ErrDuplicateUsername)
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedUser(t, svc, "alice")

	u, err := svc.Authenticate(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.Authenticate(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown user yields the same error as a wrong password.
	_, err = svc.Authenticate(context.Background(), "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedUser(t, svc, "alice")

	u, err := svc.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.GetUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUsersListing(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedUser(t, svc, "alice")
	seedUser(t, svc, "bob")

	users, err := svc.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

// --- Flight management ---

func TestCreateFlightStartsEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	f, err := svc.CreateFlight(context.Background(), "FP100", "Tel Aviv", "Berlin")
	require.NoError(t, err)
	assert.Equal(t, 0, f.Capacity)
	assert.False(t, f.IsFull)
	assert.NotEqual(t, uuid.Nil, f.ID)
}

func TestCreateFlightRejectsDuplicateNumber(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateFlight(context.Background(), "FP100", "Tel Aviv", "Berlin")
	require.NoError(t, err)
	_, err = svc.CreateFlight(context.Background(), "FP100", "Paris", "Rome")
	assert.ErrorIs(t, err, database.ErrDuplicateFlightNumber)
}

func TestUpdateFlightHealsStaleFullFlag(t *testing.T) {
	svc, store, _ := newTestService(t)
	// Flag stuck true even though seats remain.
	f := seedFlight(t, store, "FP100", "Tel Aviv", "Berlin", 10, true)

	updated, err := svc.UpdateFlight(context.Background(), f.ID, "FP200", "Tel Aviv", "Paris")
	require.NoError(t, err)
	assert.Equal(t, "FP200", updated.FlightNumber)
	assert.Equal(t, "Paris", updated.Destination)
	assert.Equal(t, 10, updated.Capacity)
	assert.False(t, updated.IsFull, "route edits rederive the cached flag")
}

func TestUpdateFlightNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdateFlight(context.Background(), uuid.New(), "FP1", "A", "B")
	assert.ErrorIs(t, err, ErrFlightNotFound)
}
