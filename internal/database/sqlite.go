package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_admin      INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS flights (
	id            TEXT PRIMARY KEY,
	flight_number TEXT NOT NULL UNIQUE,
	origin        TEXT NOT NULL,
	destination   TEXT NOT NULL,
	capacity      INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
	is_full       INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	flight_id  TEXT NOT NULL REFERENCES flights(id),
	quantity   INTEGER NOT NULL CHECK (quantity > 0),
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_flight_id ON bookings(flight_id);
`

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite implements Store on an embedded SQLite database. SQLite allows
// a single writer at a time, so a process-wide mutex guards write
// transactions instead of row locks.
type SQLite struct {
	db *sql.DB
	q  sqlQuerier
	mu *sync.Mutex
}

// NewSQLite opens (or creates) the database at path. Use ":memory:" for
// an in-memory database.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &SQLite{db: db, q: db, mu: &sync.Mutex{}}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) WithTx(ctx context.Context, fn func(Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLite{db: s.db, q: tx, mu: s.mu}); err != nil {
		return err
	}
	return tx.Commit()
}

func sqliteConflict(err error) error {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		switch {
		case strings.Contains(sqlErr.Error(), "username"):
			return ErrDuplicateUsername
		case strings.Contains(sqlErr.Error(), "flight_number"):
			return ErrDuplicateFlightNumber
		}
	}
	return nil
}

// --- User Operations ---

func (s *SQLite) CreateUser(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID.String(), u.Username, u.PasswordHash, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if conflict := sqliteConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLite) GetUser(ctx context.Context, username string) (*User, error) {
	return s.scanUser(s.q.QueryRowContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at, updated_at
		FROM users WHERE username = ?
	`, username))
}

func (s *SQLite) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.scanUser(s.q.QueryRowContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at, updated_at
		FROM users WHERE id = ?
	`, id.String()))
}

func (s *SQLite) scanUser(row *sql.Row) (*User, error) {
	var u User
	var id string
	err := row.Scan(&id, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}
	return &u, nil
}

func (s *SQLite) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at, updated_at
		FROM users ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var id string
		if err := rows.Scan(&id, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if u.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse user id: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLite) DeleteUser(ctx context.Context, u *User) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID.String()); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// --- Flight Operations ---

func (s *SQLite) GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error) {
	return s.scanFlight(s.q.QueryRowContext(ctx, `
		SELECT id, flight_number, origin, destination, capacity, is_full, created_at, updated_at
		FROM flights WHERE id = ?
	`, id.String()))
}

func (s *SQLite) GetFlightByNumber(ctx context.Context, number string) (*Flight, error) {
	return s.scanFlight(s.q.QueryRowContext(ctx, `
		SELECT id, flight_number, origin, destination, capacity, is_full, created_at, updated_at
		FROM flights WHERE flight_number = ?
	`, number))
}

func (s *SQLite) scanFlight(row *sql.Row) (*Flight, error) {
	var f Flight
	var id string
	err := row.Scan(&id, &f.FlightNumber, &f.Origin, &f.Destination, &f.Capacity, &f.IsFull, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	if f.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse flight id: %w", err)
	}
	return &f, nil
}

func (s *SQLite) ListFlights(ctx context.Context) ([]Flight, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, flight_number, origin, destination, capacity, is_full, created_at, updated_at
		FROM flights ORDER BY flight_number
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var flights []Flight
	for rows.Next() {
		var f Flight
		var id string
		if err := rows.Scan(&id, &f.FlightNumber, &f.Origin, &f.Destination, &f.Capacity, &f.IsFull, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		if f.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse flight id: %w", err)
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (s *SQLite) SaveFlight(ctx context.Context, f *Flight) error {
	now := time.Now().UTC()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO flights (id, flight_number, origin, destination, capacity, is_full, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			flight_number = excluded.flight_number,
			origin        = excluded.origin,
			destination   = excluded.destination,
			capacity      = excluded.capacity,
			is_full       = excluded.is_full,
			updated_at    = excluded.updated_at
	`, f.ID.String(), f.FlightNumber, f.Origin, f.Destination, f.Capacity, f.IsFull, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if conflict := sqliteConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to save flight: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteFlight(ctx context.Context, f *Flight) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM flights WHERE id = ?`, f.ID.String()); err != nil {
		return fmt.Errorf("failed to delete flight: %w", err)
	}
	return nil
}

// --- Booking Operations ---

func (s *SQLite) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	var bid, uid, fid string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, user_id, flight_id, quantity, created_at
		FROM bookings WHERE id = ?
	`, id.String()).Scan(&bid, &uid, &fid, &b.Quantity, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return parseBookingIDs(&b, bid, uid, fid)
}

func (s *SQLite) GetBookingsByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return s.queryBookings(ctx, `
		SELECT id, user_id, flight_id, quantity, created_at
		FROM bookings WHERE user_id = ? ORDER BY created_at
	`, userID.String())
}

func (s *SQLite) GetBookingsByFlight(ctx context.Context, flightID uuid.UUID) ([]Booking, error) {
	return s.queryBookings(ctx, `
		SELECT id, user_id, flight_id, quantity, created_at
		FROM bookings WHERE flight_id = ? ORDER BY created_at
	`, flightID.String())
}

func (s *SQLite) ListBookings(ctx context.Context) ([]Booking, error) {
	return s.queryBookings(ctx, `
		SELECT id, user_id, flight_id, quantity, created_at
		FROM bookings ORDER BY created_at
	`)
}

func (s *SQLite) queryBookings(ctx context.Context, query string, args ...any) ([]Booking, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		var bid, uid, fid string
		if err := rows.Scan(&bid, &uid, &fid, &b.Quantity, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if _, err := parseBookingIDs(&b, bid, uid, fid); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func parseBookingIDs(b *Booking, bid, uid, fid string) (*Booking, error) {
	var err error
	if b.ID, err = uuid.Parse(bid); err != nil {
		return nil, fmt.Errorf("failed to parse booking id: %w", err)
	}
	if b.UserID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("failed to parse booking user id: %w", err)
	}
	if b.FlightID, err = uuid.Parse(fid); err != nil {
		return nil, fmt.Errorf("failed to parse booking flight id: %w", err)
	}
	return b, nil
}

func (s *SQLite) SaveBooking(ctx context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		b.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO bookings (id, user_id, flight_id, quantity, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET quantity = excluded.quantity
	`, b.ID.String(), b.UserID.String(), b.FlightID.String(), b.Quantity, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteBooking(ctx context.Context, b *Booking) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, b.ID.String()); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}
