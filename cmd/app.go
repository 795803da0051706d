package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-attendance/internal/auth"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/geofence"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// app holds the storage-backed components shared by the commands
type app struct {
	backend  database.Backend
	hasher   *auth.BcryptHasher
	roster   *roster.Roster
	ledger   *ledger.Ledger
	geofence *geofence.Store
}

// openApp opens the configured backend and loads the roster, the ledger and
// the geofence policy concurrently.
func openApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	backend, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{
		backend: backend,
		hasher:  auth.NewHasher(bcrypt.DefaultCost),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := roster.New(gctx, backend, a.hasher, extractor.Distance)
		a.roster = r
		return err
	})
	g.Go(func() error {
		l, err := ledger.New(gctx, backend, backend,
			ledger.WithLocation(cfg.Ledger.Location()),
			ledger.WithLogger(logger),
		)
		a.ledger = l
		return err
	})
	g.Go(func() error {
		s, err := geofence.NewStore(gctx, backend, geofence.DefaultPolicy(cfg.Geofence))
		a.geofence = s
		return err
	})
	if err := g.Wait(); err != nil {
		backend.Close()
		return nil, fmt.Errorf("loading %s storage: %w", backend.Name(), err)
	}

	return a, nil
}

// Close releases the backend
func (a *app) Close() error {
	return a.backend.Close()
}
