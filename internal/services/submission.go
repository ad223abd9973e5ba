package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/civicfix/civicfix-backend/internal/models"
	"github.com/civicfix/civicfix-backend/internal/moderation"
	"github.com/civicfix/civicfix-backend/internal/storage"
)

// Submission outcomes. Every failure leaving Submit is one of these (or
// moderation.ErrMissingAPIKey for a fatal configuration problem); no
// lower-level error crosses the service boundary.
var (
	ErrModerationUnavailable = errors.New("moderation could not be performed")
	ErrPersistenceFailed     = errors.New("report could not be saved")
)

// ContentRejectedError means moderation classified the description as
// unsafe. This is a deterministic verdict, never retried.
type ContentRejectedError struct {
	Category string
}

func (e *ContentRejectedError) Error() string {
	if e.Category == "" {
		return "description was rejected by content moderation"
	}
	return fmt.Sprintf("description was rejected by content moderation (%s)", e.Category)
}

// ArtifactInvalidError means the uploaded image failed validation.
type ArtifactInvalidError struct {
	Reason  string
	Message string
}

func (e *ArtifactInvalidError) Error() string { return e.Message }

// InputInvalidError means the submission fields themselves are malformed.
type InputInvalidError struct {
	Field   string
	Message string
}

func (e *InputInvalidError) Error() string { return e.Message }

const maxDescriptionLen = 300

// Moderator gates free-form text before anything is persisted.
type Moderator interface {
	Check(ctx context.Context, text string) (moderation.Verdict, error)
}

// ArtifactSaver persists a validated upload and returns its reference.
type ArtifactSaver interface {
	Save(upload *storage.Upload) (string, error)
}

// SubmissionInput is one report submission attempt.
type SubmissionInput struct {
	Description string
	Latitude    *float64
	Longitude   *float64
	Upload      *storage.Upload
	SubmitterID string
}

// SubmissionService runs the submission pipeline: moderation gate, then
// artifact staging, then an all-or-nothing commit of the report row and
// the submitter's points increment.
type SubmissionService struct {
	moderator    Moderator
	artifacts    ArtifactSaver
	store        SubmissionStore
	rewardPoints int
	now          func() time.Time
}

func NewSubmissionService(moderator Moderator, artifacts ArtifactSaver, store SubmissionStore, rewardPoints int) *SubmissionService {
	return &SubmissionService{
		moderator:    moderator,
		artifacts:    artifacts,
		store:        store,
		rewardPoints: rewardPoints,
		now:          time.Now,
	}
}

// Submit returns the new report's ID on success. Later steps never run
// when an earlier step fails: nothing is persisted on a moderation
// failure or rejection, and no database write happens on an invalid
// upload.
func (s *SubmissionService) Submit(ctx context.Context, input SubmissionInput) (uint, error) {
	if err := validateInput(input); err != nil {
		return 0, err
	}

	// Gate. Fail closed: content whose safety cannot be determined is
	// never published.
	verdict, err := s.moderator.Check(ctx, input.Description)
	if err != nil {
		if errors.Is(err, moderation.ErrMissingAPIKey) {
			return 0, err
		}
		slog.Error("moderation unavailable", "component", "submission", "submitter_id", input.SubmitterID, "error", err)
		return 0, ErrModerationUnavailable
	}
	if !verdict.Allowed {
		return 0, &ContentRejectedError{Category: verdict.Category}
	}

	// Stage the artifact. Written before the transaction opens so a slow
	// file copy never holds a database transaction; a later commit
	// failure can therefore orphan the file (logged below).
	var imageURL *string
	if input.Upload != nil {
		ref, err := s.artifacts.Save(input.Upload)
		if err != nil {
			var ve *storage.ValidationError
			if errors.As(err, &ve) {
				return 0, &ArtifactInvalidError{Reason: ve.Reason, Message: ve.Message}
			}
			slog.Error("artifact save failed", "component", "submission", "submitter_id", input.SubmitterID, "error", err)
			return 0, ErrPersistenceFailed
		}
		imageURL = &ref
	}

	// A client disconnect caught here aborts before any write; once the
	// transaction opens it commits or rolls back as a unit.
	if ctx.Err() != nil {
		return 0, ErrPersistenceFailed
	}

	now := s.now().UTC()
	var reportID uint
	err = s.store.InTransaction(ctx, func(tx SubmissionStore) error {
		report := &models.Report{
			Description: input.Description,
			Status:      models.ReportStatusApproved,
			CreatedAt:   now,
			SubmitterID: input.SubmitterID,
			Latitude:    input.Latitude,
			Longitude:   input.Longitude,
			ImageURL:    imageURL,
		}
		if err := tx.CreateReport(ctx, report); err != nil {
			return err
		}

		acct, err := tx.GetOrCreatePointsAccount(ctx, input.SubmitterID)
		if err != nil {
			return err
		}
		if err := tx.IncrementPoints(ctx, acct, s.rewardPoints, now); err != nil {
			return err
		}

		reportID = report.ID
		return nil
	})
	if err != nil {
		slog.Error("report commit failed", "component", "submission", "submitter_id", input.SubmitterID, "error", err)
		if imageURL != nil {
			slog.Warn("upload orphaned by failed commit", "component", "submission", "path", *imageURL)
		}
		return 0, ErrPersistenceFailed
	}

	slog.Info("report submitted", "component", "submission", "report_id", reportID, "submitter_id", input.SubmitterID)
	return reportID, nil
}

func validateInput(input SubmissionInput) error {
	if strings.TrimSpace(input.Description) == "" {
		return &InputInvalidError{Field: "description", Message: "Description is required."}
	}
	if len(input.Description) > maxDescriptionLen {
		return &InputInvalidError{Field: "description", Message: "Description must be 300 characters or fewer."}
	}
	if input.Latitude != nil && (*input.Latitude < -90 || *input.Latitude > 90) {
		return &InputInvalidError{Field: "latitude", Message: "Latitude must be between -90 and 90."}
	}
	if input.Longitude != nil && (*input.Longitude < -180 || *input.Longitude > 180) {
		return &InputInvalidError{Field: "longitude", Message: "Longitude must be between -180 and 180."}
	}
	if input.SubmitterID == "" {
		return &InputInvalidError{Field: "submitter", Message: "Submitter identity is required."}
	}
	return nil
}
