package services

import (
	"context"
	"errors"

	"github.com/civicfix/civicfix-backend/internal/models"
	"gorm.io/gorm"
)

var ErrReportNotFound = errors.New("report not found")

// Report list sort orders accepted from the query string.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ReportQueryService serves the read side: latest reports with optional
// keyword filtering, and single-report lookup. Non-admin callers only
// ever see approved reports.
type ReportQueryService struct {
	store ReportStore
}

func NewReportQueryService(store ReportStore) *ReportQueryService {
	return &ReportQueryService{store: store}
}

func (s *ReportQueryService) Latest(ctx context.Context, isAdmin bool, keyword, sortOrder string) ([]models.Report, error) {
	if sortOrder != SortOldest {
		sortOrder = SortNewest
	}
	return s.store.SearchLatestReports(ctx, isAdmin, keyword, sortOrder)
}

func (s *ReportQueryService) ByID(ctx context.Context, id uint) (*models.Report, error) {
	report, err := s.store.ReportByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}
