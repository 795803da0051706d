package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/export"
	"github.com/kozaktomas/face-attendance/internal/geofence"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// AdminHandler handles the admin dashboard, period browsing, export and cleanup
type AdminHandler struct {
	roster   *roster.Roster
	ledger   *ledger.Ledger
	geofence *geofence.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(r *roster.Roster, l *ledger.Ledger, g *geofence.Store, m *metrics.Metrics, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		roster:   r,
		ledger:   l,
		geofence: g,
		metrics:  m,
		logger:   logger,
	}
}

// DashboardStats is the payload of the dashboard endpoint
type DashboardStats struct {
	ledger.Stats
	TotalUsers      int  `json:"totalUsers"`
	LocationEnabled bool `json:"location_enabled"`
}

// Dashboard returns summary statistics
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats := DashboardStats{
		Stats:           h.ledger.Stats(h.ledger.Now()),
		TotalUsers:      h.roster.Count(),
		LocationEnabled: h.geofence.Get().Enabled,
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"statistics": stats,
	})
}

// monthParam returns ?month= or the current period when absent
func (h *AdminHandler) monthParam(r *http.Request) string {
	if month := r.URL.Query().Get("month"); month != "" {
		return month
	}
	return h.ledger.CurrentPeriod()
}

// MonthlyRecords lists every event of a period, newest first
func (h *AdminHandler) MonthlyRecords(w http.ResponseWriter, r *http.Request) {
	month := h.monthParam(r)

	records, err := h.ledger.ListPeriod(month)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"month":         month,
		"total_records": len(records),
		"records":       records,
	})
}

// AvailableMonths lists periods that hold events, newest first
func (h *AdminHandler) AvailableMonths(w http.ResponseWriter, r *http.Request) {
	months := h.ledger.Periods()
	if months == nil {
		months = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"months":        months,
		"current_month": h.ledger.CurrentPeriod(),
	})
}

// Export streams a period as an xlsx workbook
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	month := h.monthParam(r)

	events, err := h.ledger.PeriodEvents(month)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.Write(&buf, month, events); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(month)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write export", zap.String("month", month), zap.Error(err))
	}
}

// Cleanup moves past-period events into the archive
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	moved, err := h.ledger.Rollover(r.Context())
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	h.metrics.AddRolloverMoved(moved)

	h.logger.Info("manual rollover completed", zap.Int("moved", moved))
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Data cleanup completed. %d records moved to history", moved),
		"moved":   moved,
	})
}
