package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flightpro/booking-server/internal/auth"
	"github.com/flightpro/booking-server/internal/config"
	"github.com/flightpro/booking-server/internal/database"
	"github.com/flightpro/booking-server/internal/handlers"
	"github.com/flightpro/booking-server/internal/inventory"
	"github.com/flightpro/booking-server/internal/logger"
	"github.com/flightpro/booking-server/internal/router"
	"github.com/flightpro/booking-server/internal/service"
	"github.com/flightpro/booking-server/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer closeStore()

	ledger := inventory.NewLedger(store)
	hub := websocket.NewHub(log)
	go hub.Run()

	bookingService := service.NewBookingService(store, ledger, hub)
	tokens := auth.NewTokenIssuer(cfg.Security.JWTSecret, time.Duration(cfg.Security.JWTExpirationHours)*time.Hour)

	if err := seedAdmin(ctx, log, bookingService); err != nil {
		log.WithError(err).Fatal("failed to seed admin account")
	}

	h := handlers.NewHandler(bookingService, tokens, log)
	r := router.New(h, tokens, hub, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithFields(logger.Fields{
			"addr":   srv.Addr,
			"driver": cfg.Database.Driver,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.GracefulStop)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (database.Store, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := database.NewPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "sqlite":
		sq, err := database.NewSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return sq, func() { sq.Close() }, nil
	default:
		return database.NewMemory(), func() {}, nil
	}
}

// seedAdmin creates the bootstrap admin account when ADMIN_USERNAME and
// ADMIN_PASSWORD are set and the account does not already exist.
func seedAdmin(ctx context.Context, log *logrus.Logger, svc service.BookingService) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	_, err := svc.Register(ctx, username, password, true)
	if errors.Is(err, database.ErrDuplicateUsername) {
		return nil
	}
	if err != nil {
		return err
	}
	log.WithField("username", username).Info("admin account created")
	return nil
}
