package models

import "time"

// Report statuses. Submissions that clear moderation are stored as
// Approved and are immediately publicly visible; Pending and Rejected
// exist for the separate human review workflow.
const (
	ReportStatusPending  = "Pending"
	ReportStatusApproved = "Approved"
	ReportStatusRejected = "Rejected"
)

// Report is one citizen-submitted infrastructure issue.
type Report struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      string    `gorm:"size:50;not null;default:'Pending';index" json:"status"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	SubmitterID string    `gorm:"size:450;not null;index" json:"submitter_id"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	ImageURL    *string   `gorm:"size:450" json:"image_url,omitempty"`
}
