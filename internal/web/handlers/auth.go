package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/auth"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

const adminRoleLabel = "administrator"

// AuthHandler handles user and admin login endpoints
type AuthHandler struct {
	service *attendance.Service
	admin   *auth.Admin
	tokens  *auth.TokenService
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *attendance.Service, admin *auth.Admin, tokens *auth.TokenService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		admin:   admin,
		tokens:  tokens,
		logger:  logger,
	}
}

type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type loginUser struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
}

// LoginResponse represents a user login response
type LoginResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
}

// Login handles user login with user ID and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	res, err := h.service.Login(req.UserID, req.Password)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   res.Token,
		User: loginUser{
			UserID:       res.Identity.ID,
			Name:         res.Identity.Name,
			RegisteredAt: res.Identity.RegisteredAt,
		},
	})
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AdminLogin handles administrator login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	if err := h.admin.Check(req.Username, req.Password); err != nil {
		h.logger.Warn("admin login failed", zap.String("username", sanitizeForLog(req.Username)))
		respondAppError(w, h.logger, err)
		return
	}

	token, _, err := h.tokens.Issue(h.admin.Username(), "", auth.RoleAdmin)
	if err != nil {
		respondAppError(w, h.logger, apperr.Wrap(apperr.KindInternal, "failed to issue token", err))
		return
	}

	h.logger.Info("admin logged in", zap.String("username", h.admin.Username()))
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    adminUser{Username: h.admin.Username(), Role: adminRoleLabel},
	})
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyToken reports whether a token is a valid admin token. Invalid tokens
// are reported in the body rather than with an error status.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondAppError(w, h.logger, err)
			return
		}
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = middleware.BearerToken(r)
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "token is missing")
		return
	}

	claims, err := h.tokens.Validate(token)
	if err == nil && claims.Role != auth.RoleAdmin {
		err = apperr.Auth("insufficient permissions")
	}
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"authenticated": false,
			"error":         apperr.MessageOf(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"authenticated": true,
		"user":          adminUser{Username: claims.Subject, Role: adminRoleLabel},
	})
}
