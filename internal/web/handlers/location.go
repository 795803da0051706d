package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/geofence"
)

// LocationHandler handles geofence settings
type LocationHandler struct {
	store  *geofence.Store
	logger *zap.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(store *geofence.Store, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		store:  store,
		logger: logger,
	}
}

// Get returns the current geofence policy
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"settings": h.store.Get(),
	})
}

type locationSettingsRequest struct {
	Enabled      *bool    `json:"enabled"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Radius       *float64 `json:"radius"`
	LocationName *string  `json:"location_name"`
}

// missingField names the first absent field, or "" when all are present
func (req locationSettingsRequest) missingField() string {
	switch {
	case req.Enabled == nil:
		return "enabled"
	case req.Latitude == nil:
		return "latitude"
	case req.Longitude == nil:
		return "longitude"
	case req.Radius == nil:
		return "radius"
	case req.LocationName == nil:
		return "location_name"
	}
	return ""
}

// Update replaces the geofence policy
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req locationSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if field := req.missingField(); field != "" {
		respondAppError(w, h.logger, apperr.Validation("Field "+field+" is required"))
		return
	}

	policy, err := h.store.Update(r.Context(), geofence.Policy{
		Enabled:      *req.Enabled,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		RadiusMeters: *req.Radius,
		LocationName: *req.LocationName,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.logger.Info("location settings updated",
		zap.Bool("enabled", policy.Enabled),
		zap.Float64("radius", policy.RadiusMeters),
		zap.String("location_name", policy.LocationName),
	)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Location settings updated successfully",
		"settings": policy,
	})
}

type testLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Test measures a point against the configured center, whether or not validation is enabled
func (h *LocationHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req testLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respondAppError(w, h.logger, apperr.Validation("latitude and longitude are required"))
		return
	}
	if !geofence.ValidCoordinate(*req.Latitude, *req.Longitude) {
		respondAppError(w, h.logger, apperr.Validation("latitude and longitude are out of range"))
		return
	}

	result := geofence.Test(h.store.Get(), *req.Latitude, *req.Longitude)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"valid":      result.Valid,
		"distance":   result.Distance,
		"max_radius": result.MaxRadius,
		"message":    result.Message,
	})
}
