package dto

import (
	"time"

	"github.com/google/uuid"
)

type PreceptorReviewRequest struct {
	ReportId uuid.UUID `json:"report_id" validate:"required"`
}

type PerspectiveResult struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

type PreceptorReviewResponse struct {
	ReportId     uuid.UUID           `json:"report_id"`
	Perspectives []PerspectiveResult `json:"perspectives"`
	BundlePath   string              `json:"bundle_path,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
}
