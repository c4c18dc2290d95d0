package service

import (
	"context"
	"errors"

	"github.com/flightpro/booking-server/internal/auth"
	"github.com/flightpro/booking-server/internal/database"
)

// Register creates a new account. The password is stored as a bcrypt
// hash; duplicate usernames are rejected by the store's unique
// constraint rather than by scanning existing records.
func (s *bookingServiceImpl) Register(ctx context.Context, username, password string, isAdmin bool) (*database.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &database.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies a username/password pair. A missing user and a
// wrong password both map to ErrInvalidCredentials so the response does
// not leak which usernames exist.
func (s *bookingServiceImpl) Authenticate(ctx context.Context, username, password string) (*database.User, error) {
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Users returns every account. Admin view.
func (s *bookingServiceImpl) Users(ctx context.Context) ([]database.User, error) {
	return s.store.ListUsers(ctx)
}

// GetUser returns the account with the given username.
func (s *bookingServiceImpl) GetUser(ctx context.Context, username string) (*database.User, error) {
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
