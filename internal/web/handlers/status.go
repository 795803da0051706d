package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/geofence"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// embeddingProbeTimeout bounds the embedding server check of the status endpoint
const embeddingProbeTimeout = 2 * time.Second

// Embedding server states reported by the status endpoint
const (
	EmbeddingHealthy     = "healthy"
	EmbeddingUnreachable = "unreachable"
	EmbeddingUnknown     = "unknown"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StatusResponse describes the running system
type StatusResponse struct {
	Success             bool   `json:"success"`
	Status              string `json:"status"`
	UsersRegistered     int    `json:"users_registered"`
	CurrentMonthRecords int    `json:"current_month_records"`
	HistoricalMonths    int    `json:"historical_months"`
	CacheSize           int    `json:"cache_size"`
	LocationEnabled     bool   `json:"location_enabled"`
	CurrentMonth        string `json:"current_month"`
	EmbeddingServer     string `json:"embedding_server"`
}

// Status returns a handler reporting roster, ledger, geofence and embedding
// server state. A nil embedding checker is reported as unknown.
func Status(r *roster.Roster, l *ledger.Ledger, g *geofence.Store, embedding HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		stats := l.Stats(l.Now())
		respondJSON(w, http.StatusOK, StatusResponse{
			Success:             true,
			Status:              "operational",
			UsersRegistered:     r.Count(),
			CurrentMonthRecords: stats.CurrentMonthCount,
			HistoricalMonths:    stats.HistoricalMonths,
			CacheSize:           r.CacheSize(),
			LocationEnabled:     g.Get().Enabled,
			CurrentMonth:        l.Now().In(l.Location()).Format("January 2006"),
			EmbeddingServer:     embeddingState(req.Context(), embedding),
		})
	}
}

func embeddingState(ctx context.Context, embedding HealthChecker) string {
	if embedding == nil {
		return EmbeddingUnknown
	}
	ctx, cancel := context.WithTimeout(ctx, embeddingProbeTimeout)
	defer cancel()
	if err := embedding.Health(ctx); err != nil {
		return EmbeddingUnreachable
	}
	return EmbeddingHealthy
}
