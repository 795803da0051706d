package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// AttendanceHandler handles registration, attendance submission and the current ledger
type AttendanceHandler struct {
	service *attendance.Service
	ledger  *ledger.Ledger
	logger  *zap.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(service *attendance.Service, l *ledger.Ledger, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		ledger:  l,
		logger:  logger,
	}
}

type registeredUser struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Register enrolls a new user from a multipart form with file, name, user_id and password
func (h *AttendanceHandler) Register(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	identity, err := h.service.Register(r.Context(), attendance.RegisterInput{
		UserID:   r.FormValue("user_id"),
		Name:     r.FormValue("name"),
		Password: r.FormValue("password"),
		Image:    image,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("User %s registered successfully", identity.Name),
		"data": registeredUser{
			UserID:       identity.ID,
			Name:         identity.Name,
			RegisteredAt: identity.RegisteredAt,
		},
	})
}

type locationResult struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// Submit records attendance from a multipart form with file and optional latitude/longitude
func (h *AttendanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	res, err := h.service.Submit(r.Context(), attendance.Submission{
		Image:     image,
		Latitude:  formFloat(r, "latitude"),
		Longitude: formFloat(r, "longitude"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	switch res.Outcome {
	case attendance.OutcomeRecorded:
		respondJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"recognized_user": res.Recognized,
			"location": locationResult{
				Verified: res.LocationVerified,
				Message:  res.LocationMessage,
			},
		})
	case attendance.OutcomeNoFace, attendance.OutcomeUnrecognized:
		respondJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"recognized_user": nil,
			"message":         res.Message,
		})
	default:
		respondAppError(w, h.logger, apperr.New(apperr.KindInternal, "unexpected outcome "+string(res.Outcome)))
	}
}

// Records lists the newest events of the current period
func (h *AttendanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"total_records": h.ledger.Len(),
		"records":       h.ledger.ListCurrent(0),
	})
}
