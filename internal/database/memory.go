package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory implements Store with in-process maps. It backs tests and the
// "memory" database driver. WithTx snapshots the maps and restores them
// if fn fails, so partial writes are never observable.
type Memory struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]User
	flights  map[uuid.UUID]Flight
	bookings map[uuid.UUID]Booking
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]User),
		flights:  make(map[uuid.UUID]Flight),
		bookings: make(map[uuid.UUID]Booking),
	}
}

func (m *Memory) WithTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapUsers := copyMap(m.users)
	snapFlights := copyMap(m.flights)
	snapBookings := copyMap(m.bookings)

	if err := fn(&memoryTx{m: m}); err != nil {
		m.users = snapUsers
		m.flights = snapFlights
		m.bookings = snapBookings
		return err
	}
	return nil
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// --- User Operations ---

func (m *Memory) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createUserLocked(u)
}

func (m *Memory) createUserLocked(u *User) error {
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return ErrDuplicateUsername
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getUserLocked(username)
}

func (m *Memory) getUserLocked(username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getUserByIDLocked(id)
}

func (m *Memory) getUserByIDLocked(id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listUsersLocked()
}

func (m *Memory) listUsersLocked() ([]User, error) {
	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *Memory) DeleteUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, u.ID)
	return nil
}

// --- Flight Operations ---

func (m *Memory) GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getFlightLocked(id)
}

func (m *Memory) getFlightLocked(id uuid.UUID) (*Flight, error) {
	f, ok := m.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (m *Memory) GetFlightByNumber(ctx context.Context, number string) (*Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getFlightByNumberLocked(number)
}

func (m *Memory) getFlightByNumberLocked(number string) (*Flight, error) {
	for _, f := range m.flights {
		if f.FlightNumber == number {
			f := f
			return &f, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListFlights(ctx context.Context) ([]Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listFlightsLocked()
}

func (m *Memory) listFlightsLocked() ([]Flight, error) {
	flights := make([]Flight, 0, len(m.flights))
	for _, f := range m.flights {
		flights = append(flights, f)
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].FlightNumber < flights[j].FlightNumber })
	return flights, nil
}

func (m *Memory) SaveFlight(ctx context.Context, f *Flight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveFlightLocked(f)
}

func (m *Memory) saveFlightLocked(f *Flight) error {
	for id, existing := range m.flights {
		if id != f.ID && existing.FlightNumber == f.FlightNumber {
			return ErrDuplicateFlightNumber
		}
	}
	now := time.Now().UTC()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	m.flights[f.ID] = *f
	return nil
}

func (m *Memory) DeleteFlight(ctx context.Context, f *Flight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flights, f.ID)
	return nil
}

// --- Booking Operations ---

func (m *Memory) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBookingLocked(id)
}

func (m *Memory) getBookingLocked(id uuid.UUID) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *Memory) GetBookingsByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterBookingsLocked(func(b Booking) bool { return b.UserID == userID }), nil
}

func (m *Memory) GetBookingsByFlight(ctx context.Context, flightID uuid.UUID) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterBookingsLocked(func(b Booking) bool { return b.FlightID == flightID }), nil
}

func (m *Memory) ListBookings(ctx context.Context) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterBookingsLocked(func(Booking) bool { return true }), nil
}

func (m *Memory) filterBookingsLocked(keep func(Booking) bool) []Booking {
	var bookings []Booking
	for _, b := range m.bookings {
		if keep(b) {
			bookings = append(bookings, b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
	return bookings
}

func (m *Memory) SaveBooking(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveBookingLocked(b)
}

func (m *Memory) saveBookingLocked(b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		b.CreatedAt = time.Now().UTC()
	}
	m.bookings[b.ID] = *b
	return nil
}

func (m *Memory) DeleteBooking(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookings, b.ID)
	return nil
}

// memoryTx is the transaction-scoped view handed to WithTx callbacks.
// The parent already holds the write lock, so it dispatches to the
// unlocked variants.
type memoryTx struct {
	m *Memory
}

func (t *memoryTx) WithTx(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

func (t *memoryTx) CreateUser(ctx context.Context, u *User) error { return t.m.createUserLocked(u) }
func (t *memoryTx) GetUser(ctx context.Context, username string) (*User, error) {
	return t.m.getUserLocked(username)
}
func (t *memoryTx) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return t.m.getUserByIDLocked(id)
}
func (t *memoryTx) ListUsers(ctx context.Context) ([]User, error) { return t.m.listUsersLocked() }
func (t *memoryTx) DeleteUser(ctx context.Context, u *User) error {
	delete(t.m.users, u.ID)
	return nil
}

func (t *memoryTx) GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error) {
	return t.m.getFlightLocked(id)
}
func (t *memoryTx) GetFlightByNumber(ctx context.Context, number string) (*Flight, error) {
	return t.m.getFlightByNumberLocked(number)
}
func (t *memoryTx) ListFlights(ctx context.Context) ([]Flight, error) {
	return t.m.listFlightsLocked()
}
func (t *memoryTx) SaveFlight(ctx context.Context, f *Flight) error { return t.m.saveFlightLocked(f) }
func (t *memoryTx) DeleteFlight(ctx context.Context, f *Flight) error {
	delete(t.m.flights, f.ID)
	return nil
}

func (t *memoryTx) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return t.m.getBookingLocked(id)
}
func (t *memoryTx) GetBookingsByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return t.m.filterBookingsLocked(func(b Booking) bool { return b.UserID == userID }), nil
}
func (t *memoryTx) GetBookingsByFlight(ctx context.Context, flightID uuid.UUID) ([]Booking, error) {
	return t.m.filterBookingsLocked(func(b Booking) bool { return b.FlightID == flightID }), nil
}
func (t *memoryTx) ListBookings(ctx context.Context) ([]Booking, error) {
	return t.m.filterBookingsLocked(func(Booking) bool { return true }), nil
}
func (t *memoryTx) SaveBooking(ctx context.Context, b *Booking) error {
	return t.m.saveBookingLocked(b)
}
func (t *memoryTx) DeleteBooking(ctx context.Context, b *Booking) error {
	delete(t.m.bookings, b.ID)
	return nil
}
