package batch

import (
	"clinical-scribe-be/pkg/generation"

	"github.com/google/uuid"
)

// Progress holds display aggregates recomputed from current group/session
// state. There are no cached counters to invalidate.
type Progress struct {
	TotalReportUnits int     `json:"total_report_units"`
	QueuedUnits      int     `json:"queued_units"`
	CompletedGroups  int     `json:"completed_groups"`
	ErroredGroups    int     `json:"errored_groups"`
	PercentComplete  float64 `json:"percent_complete"`
	Running          bool    `json:"running"`
}

// Progress recomputes the aggregates. A unit counts only when it has files;
// a group counts toward the percentage only when it has eligible work
// anywhere. Zero eligible groups yields 0 percent, not a division by zero.
func (b *Batch) Progress() Progress {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var p Progress
	p.Running = b.running
	eligibleGroups := 0

	for _, g := range b.groups {
		if g.DocumentType == generation.DocumentTypeSessionNote {
			hasWork := false
			for _, s := range g.Sessions {
				if len(s.Files) == 0 {
					continue
				}
				hasWork = true
				p.TotalReportUnits++
				if s.Status == StatusQueued {
					p.QueuedUnits++
				}
			}
			if hasWork {
				eligibleGroups++
			}
		} else {
			if len(g.Files) == 0 {
				continue
			}
			eligibleGroups++
			p.TotalReportUnits++
			if g.Status == StatusQueued {
				p.QueuedUnits++
			}
		}

		switch g.Status {
		case StatusCompleted:
			p.CompletedGroups++
		case StatusError:
			p.ErroredGroups++
		}
	}

	if eligibleGroups > 0 {
		p.PercentComplete = float64(p.CompletedGroups) / float64(eligibleGroups) * 100
	}
	return p
}

// FileView is a file entry in a snapshot, without the payload bytes.
type FileView struct {
	Id       uuid.UUID `json:"id"`
	FileName string    `json:"file_name"`
	MimeType string    `json:"mime_type"`
	Size     int       `json:"size"`
}

// SessionView is a read-only session projection.
type SessionView struct {
	Id                uuid.UUID  `json:"id"`
	DateOfService     string     `json:"date_of_service"`
	Files             []FileView `json:"files"`
	Status            UnitStatus `json:"status"`
	ResultPatientName string     `json:"result_patient_name,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
}

// GroupView is a read-only group projection.
type GroupView struct {
	Id                uuid.UUID               `json:"id"`
	DocumentType      generation.DocumentType `json:"document_type"`
	Files             []FileView              `json:"files"`
	ClientIDHint      string                  `json:"client_id_hint,omitempty"`
	DateOfServiceHint string                  `json:"date_of_service_hint,omitempty"`
	Sessions          []SessionView           `json:"sessions,omitempty"`
	Status            UnitStatus              `json:"status"`
	ResultPatientName string                  `json:"result_patient_name,omitempty"`
	LastError         string                  `json:"last_error,omitempty"`
}

// Snapshot returns a consistent copy of all groups for display.
func (b *Batch) Snapshot() []GroupView {
	b.mu.RLock()
	defer b.mu.RUnlock()

	views := make([]GroupView, 0, len(b.groups))
	for _, g := range b.groups {
		gv := GroupView{
			Id:                g.Id,
			DocumentType:      g.DocumentType,
			Files:             fileViews(g.Files),
			ClientIDHint:      g.ClientIDHint,
			DateOfServiceHint: g.DateOfServiceHint,
			Status:            g.Status,
			ResultPatientName: g.ResultPatientName,
			LastError:         g.LastError,
		}
		for _, s := range g.Sessions {
			gv.Sessions = append(gv.Sessions, SessionView{
				Id:                s.Id,
				DateOfService:     s.DateOfService,
				Files:             fileViews(s.Files),
				Status:            s.Status,
				ResultPatientName: s.ResultPatientName,
				LastError:         s.LastError,
			})
		}
		views = append(views, gv)
	}
	return views
}

func fileViews(files []UploadedFile) []FileView {
	out := make([]FileView, len(files))
	for i, f := range files {
		out[i] = FileView{
			Id:       f.Id,
			FileName: f.FileName,
			MimeType: f.MimeType,
			Size:     len(f.Data),
		}
	}
	return out
}
