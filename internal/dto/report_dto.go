package dto

import (
	"time"

	"github.com/google/uuid"
)

type ReportResponse struct {
	Id           uuid.UUID              `json:"id"`
	PatientId    uuid.UUID              `json:"patient_id"`
	PatientName  string                 `json:"patient_name,omitempty"`
	DocumentType string                 `json:"document_type"`
	Content      string                 `json:"content"`
	Urgent       bool                   `json:"urgent"`
	SessionDate  *string                `json:"session_date,omitempty"`
	ArchivePath  *string                `json:"archive_path,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type ListReportsRequest struct {
	PatientId    *uuid.UUID `query:"patient_id"`
	DocumentType string     `query:"document_type"`
	UrgentOnly   bool       `query:"urgent_only"`
	Limit        int        `query:"limit"`
	Offset       int        `query:"offset"`
}

type UpdateReportRequest struct {
	Id      uuid.UUID
	Content string `json:"content" validate:"required"`
}
