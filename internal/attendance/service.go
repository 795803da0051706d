// Package attendance runs face images through quality checks, template
// extraction, matching and the geofence, and records the result.
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/auth"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/geofence"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

const defaultExtractTimeout = 30 * time.Second

// Extractor turns an image into one template per detected face
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([][]float32, error)
}

// Deps are the collaborators of a Service
type Deps struct {
	Roster    *roster.Roster
	Ledger    *ledger.Ledger
	Geofence  *geofence.Store
	Extractor Extractor
	Tokens    *auth.TokenService
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Service is the ingestion pipeline for registrations, attendance submissions and logins.
type Service struct {
	roster    *roster.Roster
	ledger    *ledger.Ledger
	geofence  *geofence.Store
	extractor Extractor
	tokens    *auth.TokenService
	metrics   *metrics.Metrics
	logger    *zap.Logger
	validate  *validator.Validate

	matchThreshold     float64
	duplicateThreshold float64
	extractTimeout     time.Duration
}

// NewService wires a pipeline from its dependencies and the matching configuration.
func NewService(deps Deps, matching config.MatchingConfig, extractTimeout time.Duration) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractTimeout <= 0 {
		extractTimeout = defaultExtractTimeout
	}
	return &Service{
		roster:             deps.Roster,
		ledger:             deps.Ledger,
		geofence:           deps.Geofence,
		extractor:          deps.Extractor,
		tokens:             deps.Tokens,
		metrics:            deps.Metrics,
		logger:             logger,
		validate:           validator.New(validator.WithRequiredStructEnabled()),
		matchThreshold:     matching.MatchThreshold,
		duplicateThreshold: matching.DuplicateThreshold,
		extractTimeout:     extractTimeout,
	}
}

// extract runs the extractor under the configured timeout.
func (s *Service) extract(ctx context.Context, image []byte) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.extractTimeout)
	defer cancel()

	start := time.Now()
	templates, err := s.extractor.Extract(ctx, image)
	s.metrics.ObserveExtractLatency(time.Since(start))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.KindTimeout, "face extraction timed out", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "face extraction failed", err)
	}
	return templates, nil
}

// logFailure logs a rejected request at a level matching its error kind.
func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", string(apperr.KindOf(err))), zap.Error(err))
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindBiometric, apperr.KindNotFound, apperr.KindAuth, apperr.KindConflict:
		s.logger.Debug(msg, fields...)
	case apperr.KindLocationRejected, apperr.KindTimeout:
		s.logger.Warn(msg, fields...)
	default:
		s.logger.Error(msg, fields...)
	}
}
