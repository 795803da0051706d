package attendance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

// Outcome is the terminal state of an attendance submission
type Outcome string

const (
	OutcomeRecorded         Outcome = metrics.OutcomeRecorded
	OutcomeUnrecognized     Outcome = metrics.OutcomeUnrecognized
	OutcomeNoFace           Outcome = metrics.OutcomeNoFace
	OutcomeLocationRejected Outcome = metrics.OutcomeLocationRejected
)

// Submission is an attendance attempt. Coordinates are optional.
type Submission struct {
	Image     []byte
	Latitude  *float64
	Longitude *float64
}

// Result describes a processed submission
type Result struct {
	Outcome          Outcome
	Recognized       *facematch.MatchResult
	BestSimilarity   float64
	Event            *database.AttendanceEvent
	LocationVerified bool
	LocationMessage  string
	Message          string
}

// Submit processes one attendance submission.
//
// No face and no match are successful outcomes without a ledger write. A match
// outside the geofence returns a location-rejected error whose "recognized_user"
// detail carries the match.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	res, err := s.submit(ctx, sub)
	if err != nil {
		s.logFailure("attendance rejected", err)
		if apperr.IsKind(err, apperr.KindLocationRejected) {
			s.metrics.IncrementSubmission(metrics.OutcomeLocationRejected)
		} else {
			s.metrics.IncrementSubmission(string(apperr.KindOf(err)))
		}
		return res, err
	}
	s.metrics.IncrementSubmission(string(res.Outcome))
	return res, nil
}

func (s *Service) submit(ctx context.Context, sub Submission) (*Result, error) {
	if len(sub.Image) == 0 {
		return nil, apperr.Validation("no file provided")
	}
	if _, err := facematch.CheckQuality(sub.Image); err != nil {
		return nil, err
	}

	templates, err := s.extract(ctx, sub.Image)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return &Result{Outcome: OutcomeNoFace, Message: "no face detected"}, nil
	}

	if s.roster.Count() == 0 {
		return nil, apperr.NotFound("no users registered")
	}

	// Only the first detected face is considered.
	match, best := s.roster.Match(templates[0], s.matchThreshold)
	if match == nil {
		s.logger.Info("face not recognized", zap.Float64("best_similarity", best))
		return &Result{
			Outcome:        OutcomeUnrecognized,
			BestSimilarity: best,
			Message:        fmt.Sprintf("face not recognized (highest similarity: %.2f%%)", best*100),
		}, nil
	}

	valid, locationMessage := s.geofence.Validate(sub.Latitude, sub.Longitude)
	if !valid {
		res := &Result{
			Outcome:         OutcomeLocationRejected,
			Recognized:      match,
			BestSimilarity:  best,
			LocationMessage: locationMessage,
		}
		return res, apperr.New(apperr.KindLocationRejected, locationMessage).
			WithDetail("recognized_user", match)
	}

	event, err := s.ledger.Append(ctx, database.AttendanceEvent{
		IdentityID:       match.IdentityID,
		Name:             match.Name,
		Similarity:       match.Similarity,
		Confidence:       string(match.Confidence),
		Status:           database.StatusPresent,
		LocationVerified: valid,
		LocationMessage:  locationMessage,
		Latitude:         sub.Latitude,
		Longitude:        sub.Longitude,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attendance recorded",
		zap.String("user_id", match.IdentityID),
		zap.String("name", match.Name),
		zap.Float64("similarity", match.Similarity),
		zap.String("location", locationMessage),
	)

	return &Result{
		Outcome:          OutcomeRecorded,
		Recognized:       match,
		BestSimilarity:   best,
		Event:            &event,
		LocationVerified: valid,
		LocationMessage:  locationMessage,
	}, nil
}
