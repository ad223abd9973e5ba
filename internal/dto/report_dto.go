package dto

import "time"

type SubmitReportResponse struct {
	ID uint `json:"id"`
}

// ReportListItem is the trimmed projection returned by the latest
// reports endpoint; the full model stays server-side.
type ReportListItem struct {
	ID          uint      `json:"id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error    bool   `json:"error"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
