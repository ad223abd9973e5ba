package models

import "time"

// PointsAccount holds one submitter's contribution point balance.
// CurrentPoints is spendable elsewhere; LifetimePoints only ever grows.
type PointsAccount struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubmitterID    string    `gorm:"size:450;not null;uniqueIndex" json:"submitter_id"`
	CurrentPoints  int       `gorm:"not null;default:0" json:"current_points"`
	LifetimePoints int       `gorm:"not null;default:0" json:"lifetime_points"`
	LastUpdated    time.Time `gorm:"not null" json:"last_updated"`
}
