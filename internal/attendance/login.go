package attendance

import (
	"strings"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/auth"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// LoginResult is a successful user login
type LoginResult struct {
	Token    string
	Identity roster.Identity
}

// Login checks a user's password and issues a user token.
func (s *Service) Login(userID, password string) (*LoginResult, error) {
	userID = strings.TrimSpace(userID)
	password = strings.TrimSpace(password)
	if userID == "" || password == "" {
		return nil, apperr.Validation("user_id and password are required")
	}

	identity, err := s.roster.Authenticate(userID, password)
	if err != nil {
		s.logFailure("login failed", err, zap.String("user_id", userID))
		return nil, err
	}

	token, _, err := s.tokens.Issue(identity.ID, identity.Name, auth.RoleUser)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to issue token", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", identity.ID))
	return &LoginResult{Token: token, Identity: identity}, nil
}
