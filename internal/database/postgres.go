package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	username      TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT users_username_key UNIQUE (username)
);

CREATE TABLE IF NOT EXISTS flights (
	id            UUID PRIMARY KEY,
	flight_number TEXT NOT NULL,
	origin        TEXT NOT NULL,
	destination   TEXT NOT NULL,
	capacity      INT NOT NULL DEFAULT 0 CHECK (capacity >= 0),
	is_full       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT flights_flight_number_key UNIQUE (flight_number)
);

CREATE TABLE IF NOT EXISTS bookings (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id),
	flight_id  UUID NOT NULL REFERENCES flights(id),
	quantity   INT NOT NULL CHECK (quantity > 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_flight_id ON bookings(flight_id);
`

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Store on top of a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	q    pgQuerier
	inTx bool
}

// NewPostgres connects to the given DSN and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Postgres{pool: pool, q: pool}, nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// WithTx runs fn against a transaction-scoped store. Inside the
// transaction, GetFlight uses SELECT ... FOR UPDATE so that operations
// on the same flight serialize at the row level even across processes.
func (p *Postgres) WithTx(ctx context.Context, fn func(Store) error) error {
	if p.inTx {
		return fn(p)
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Postgres{pool: p.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func pgConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return ErrDuplicateUsername
		case strings.Contains(pgErr.ConstraintName, "flight_number"):
			return ErrDuplicateFlightNumber
		}
	}
	return nil
}

// --- User Operations ---

func (p *Postgres) CreateUser(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := p.q.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, u.ID, u.Username, u.PasswordHash, u.IsAdmin).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if conflict := pgConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, username string) (*User, error) {
	return p.scanUser(p.q.QueryRow(ctx, `
		SELECT id, username, password_hash, is_admin, created_at, updated_at
		FROM users WHERE username = $1
	`, username))
}

func (p *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return p.scanUser(p.q.QueryRow(ctx, `
		SELECT id, username, password_hash, is_admin, created_at, updated_at
		FROM users WHERE id = $1
	`, id))
}

func (p *Postgres) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := p.q.Query(ctx, `
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
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (p *Postgres) DeleteUser(ctx context.Context, u *User) error {
	if _, err := p.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, u.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// --- Flight Operations ---

func (p *Postgres) GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error) {
	query := `
		SELECT id, flight_number, origin, destination, capacity, is_full, created_at, updated_at
		FROM flights WHERE id = $1
	`
	if p.inTx {
		query += " FOR UPDATE"
	}
	return p.scanFlight(p.q.QueryRow(ctx, query, id))
}

func (p *Postgres) GetFlightByNumber(ctx context.Context, number string) (*Flight, error) {
	return p.scanFlight(p.q.QueryRow(ctx, `
		SELECT id, flight_number, origin, destination, capacity, is_full, created_at, updated_at
		FROM flights WHERE flight_number = $1
	`, number))
}

func (p *Postgres) scanFlight(row pgx.Row) (*Flight, error) {
	var f Flight
	err := row.Scan(&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.Capacity, &f.IsFull, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	return &f, nil
}

func (p *Postgres) ListFlights(ctx context.Context) ([]Flight, error) {
	rows, err := p.q.Query(ctx, `
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
		if err := rows.Scan(&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.Capacity, &f.IsFull, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (p *Postgres) SaveFlight(ctx context.Context, f *Flight) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	err := p.q.QueryRow(ctx, `
		INSERT INTO flights (id, flight_number, origin, destination, capacity, is_full)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			flight_number = EXCLUDED.flight_number,
			origin        = EXCLUDED.origin,
			destination   = EXCLUDED.destination,
			capacity      = EXCLUDED.capacity,
			is_full       = EXCLUDED.is_full,
			updated_at    = NOW()
		RETURNING created_at, updated_at
	`, f.ID, f.FlightNumber, f.Origin, f.Destination, f.Capacity, f.IsFull).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if conflict := pgConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to save flight: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteFlight(ctx context.Context, f *Flight) error {
	if _, err := p.q.Exec(ctx, `DELETE FROM flights WHERE id = $1`, f.ID); err != nil {
		return fmt.Errorf("failed to delete flight: %w", err)
	}
	return nil
}

// --- Booking Operations ---

func (p *Postgres) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := p.q.QueryRow(ctx, `
		SELECT id, user_id, flight_id, quantity, created_at
		FROM bookings WHERE id = $1
	`, id).Scan(&b.ID, &b.UserID, &b.FlightID, &b.Quantity, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (p *Postgres) GetBookingsByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return p.queryBookings(ctx, `
		SELECT id, user_id, flight_id, quantity, created_at
		FROM bookings WHERE user_id = $1 ORDER BY created_at
	`, userID)
}

func (p *Postgres) GetBookingsByFlight(ctx context.Context, flightID uuid.UUID) ([]Booking, error) {
	return p.queryBookings(ctx, `
		SELECT id, user_id, flight_id, quantity, created_at
		FROM bookings WHERE flight_id = $1 ORDER BY created_at
	`, flightID)
}

func (p *Postgres) ListBookings(ctx context.Context) ([]Booking, error) {
	return p.queryBookings(ctx, `
		SELECT id, user_id, flight_id, quantity, created_at
		FROM bookings ORDER BY created_at
	`)
}

func (p *Postgres) queryBookings(ctx context.Context, query string, args ...any) ([]Booking, error) {
	rows, err := p.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.FlightID, &b.Quantity, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (p *Postgres) SaveBooking(ctx context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	err := p.q.QueryRow(ctx, `
		INSERT INTO bookings (id, user_id, flight_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING created_at
	`, b.ID, b.UserID, b.FlightID, b.Quantity).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteBooking(ctx context.Context, b *Booking) error {
	if _, err := p.q.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, b.ID); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}
