package services

import (
	"context"
	"time"

	"github.com/civicfix/civicfix-backend/internal/models"
)

// SubmissionStore is the persistence surface the submission pipeline
// needs. InTransaction hands the callback a store bound to the open
// transaction; every write inside it commits or rolls back as one unit.
type SubmissionStore interface {
	InTransaction(ctx context.Context, fn func(tx SubmissionStore) error) error
	CreateReport(ctx context.Context, report *models.Report) error

	// GetOrCreatePointsAccount returns the submitter's single points row,
	// creating it with zero balances when absent. Implementations must
	// tolerate two first-time submissions racing to create the row.
	GetOrCreatePointsAccount(ctx context.Context, submitterID string) (*models.PointsAccount, error)
	IncrementPoints(ctx context.Context, acct *models.PointsAccount, amount int, now time.Time) error
}

// LeaderboardStore reads every points row for ranking.
type LeaderboardStore interface {
	AllPointsAccounts(ctx context.Context) ([]models.PointsAccount, error)
}

// ReportStore serves the read-side report queries.
type ReportStore interface {
	ReportByID(ctx context.Context, id uint) (*models.Report, error)
	SearchLatestReports(ctx context.Context, includeAll bool, keyword, sortOrder string) ([]models.Report, error)
}
