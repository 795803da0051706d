package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// RegisterInput is an enrollment request
type RegisterInput struct {
	UserID   string `validate:"required,max=64"`
	Name     string `validate:"required,max=128"`
	Password string `validate:"required,min=4"`
	Image    []byte `validate:"required"`
}

// Register enrolls a new identity from a single-face image.
func (s *Service) Register(ctx context.Context, in RegisterInput) (roster.Identity, error) {
	identity, err := s.register(ctx, in)
	if err != nil {
		s.logFailure("registration rejected", err, zap.String("user_id", in.UserID))
		s.metrics.IncrementRegistration(string(apperr.KindOf(err)))
		return roster.Identity{}, err
	}

	s.logger.Info("user registered", zap.String("user_id", identity.ID), zap.String("name", identity.Name))
	s.metrics.IncrementRegistration(metrics.OutcomeRegistered)
	return identity, nil
}

func (s *Service) register(ctx context.Context, in RegisterInput) (roster.Identity, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Name = strings.TrimSpace(in.Name)
	in.Password = strings.TrimSpace(in.Password)
	if err := s.validate.Struct(in); err != nil {
		return roster.Identity{}, apperr.Wrap(apperr.KindValidation, registerValidationMessage(err), err)
	}

	if _, err := facematch.CheckQuality(in.Image); err != nil {
		return roster.Identity{}, err
	}

	templates, err := s.extract(ctx, in.Image)
	if err != nil {
		return roster.Identity{}, err
	}
	switch {
	case len(templates) == 0:
		return roster.Identity{}, apperr.Biometric("no face detected")
	case len(templates) > 1:
		return roster.Identity{}, apperr.Biometric(fmt.Sprintf("multiple faces detected (%d)", len(templates)))
	}

	return s.roster.Register(ctx, roster.Registration{
		ID:       in.UserID,
		Name:     in.Name,
		Password: in.Password,
		Template: templates[0],
	}, s.duplicateThreshold)
}

func registerValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid registration"
	}

	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Image":
		return "no file provided"
	case fe.Field() == "Password" && fe.Tag() == "min":
		return "password must be at least 4 characters"
	case fe.Tag() == "max":
		return fmt.Sprintf("%s is too long", fieldLabel(fe.Field()))
	default:
		return "user_id, name and password are required"
	}
}

func fieldLabel(field string) string {
	switch field {
	case "UserID":
		return "user_id"
	case "Name":
		return "name"
	default:
		return strings.ToLower(field)
	}
}
