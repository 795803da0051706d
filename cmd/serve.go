package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/auth"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Attendance web server.
The server exposes the kiosk API (registration, login, attendance) and the
admin API, and moves past months into the archive in the background.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
}

// applyServeFlags lets explicit flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Web.Host = mustGetString(cmd, "host")
	}
	if cmd.Flags().Changed("port") {
		if port, err := cmd.Flags().GetInt("port"); err == nil {
			cfg.Web.Port = port
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyServeFlags(cmd, cfg)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	m := metrics.New()
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	admin := auth.NewAdmin(cfg.Auth, a.hasher)
	if !admin.Enabled() {
		fmt.Println("Warning: no admin password configured, admin login is disabled")
	}

	// Close any month that ended while the server was down.
	moved, err := a.ledger.Rollover(ctx)
	if err != nil {
		return fmt.Errorf("startup rollover: %w", err)
	}
	m.AddRolloverMoved(moved)
	if moved > 0 {
		fmt.Printf("Moved %d records from past months into the archive\n", moved)
	}

	embedding := extractor.NewClient(cfg.Embedding)
	service := attendance.NewService(attendance.Deps{
		Roster:    a.roster,
		Ledger:    a.ledger,
		Geofence:  a.geofence,
		Extractor: embedding,
		Tokens:    tokens,
		Metrics:   m,
		Logger:    logger,
	}, cfg.Matching, cfg.Embedding.Timeout)

	server := web.NewServer(cfg, web.Deps{
		Service:  service,
		Roster:   a.roster,
		Ledger:   a.ledger,
		Geofence: a.geofence,
		Tokens:   tokens,
		Admin:    admin,
		Metrics:  m,
		Logger:   logger,

		Embedding: embedding,
	})

	fmt.Printf("Using %s storage with %d registered users\n", a.backend.Name(), a.roster.Count())
	fmt.Printf("Starting Face Attendance on http://%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		a.ledger.RunRollover(gctx, cfg.Ledger.RolloverInterval, m.AddRolloverMoved)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
