package services

import (
	"context"
	"errors"
	"time"

	"github.com/civicfix/civicfix-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore backs the service stores with PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTransaction(ctx context.Context, fn func(tx SubmissionStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) CreateReport(ctx context.Context, report *models.Report) error {
	return s.db.WithContext(ctx).Create(report).Error
}

func (s *GormStore) GetOrCreatePointsAccount(ctx context.Context, submitterID string) (*models.PointsAccount, error) {
	var acct models.PointsAccount
	err := s.db.WithContext(ctx).Where("submitter_id = ?", submitterID).First(&acct).Error
	if err == nil {
		return &acct, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Two concurrent first submissions can both reach this point; the
	// conflict clause lets the loser fall through to the re-read.
	fresh := models.PointsAccount{SubmitterID: submitterID, LastUpdated: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submitter_id"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Where("submitter_id = ?", submitterID).First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *GormStore) IncrementPoints(ctx context.Context, acct *models.PointsAccount, amount int, now time.Time) error {
	acct.CurrentPoints += amount
	acct.LifetimePoints += amount
	acct.LastUpdated = now
	return s.db.WithContext(ctx).Save(acct).Error
}

func (s *GormStore) AllPointsAccounts(ctx context.Context) ([]models.PointsAccount, error) {
	var accounts []models.PointsAccount
	if err := s.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *GormStore) ReportByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *GormStore) SearchLatestReports(ctx context.Context, includeAll bool, keyword, sortOrder string) ([]models.Report, error) {
	query := s.db.WithContext(ctx).Model(&models.Report{})
	if !includeAll {
		query = query.Where("status = ?", models.ReportStatusApproved)
	}
	if keyword != "" {
		query = query.Where("description ILIKE ?", "%"+keyword+"%")
	}
	if sortOrder == "oldest" {
		query = query.Order("created_at ASC")
	} else {
		query = query.Order("created_at DESC")
	}

	var reports []models.Report
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
