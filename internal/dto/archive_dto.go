package dto

import "github.com/google/uuid"

// ArchiveReportMessage is the bus payload asking the archive worker to
// render a persisted report to PDF.
type ArchiveReportMessage struct {
	ReportId uuid.UUID `json:"report_id"`
}
