package mapper

import (
	"encoding/json"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReportMapper struct{}

func NewReportMapper() *ReportMapper {
	return &ReportMapper{}
}

func (m *ReportMapper) ToEntity(r *model.Report) *entity.Report {
	if r == nil {
		return nil
	}

	var deletedAt *time.Time
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(r.Metadata) > 0 {
		// A metadata blob that fails to parse is dropped, not fatal.
		_ = json.Unmarshal(r.Metadata, &metadata)
	}

	return &entity.Report{
		Id:           r.Id,
		UserId:       r.UserId,
		PatientId:    r.PatientId,
		DocumentType: r.DocumentType,
		Content:      r.Content,
		Urgent:       r.Urgent,
		SessionDate:  r.SessionDate,
		ArchivePath:  r.ArchivePath,
		Metadata:     metadata,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    r.DeletedAt.Valid,
	}
}

func (m *ReportMapper) ToModel(r *entity.Report) *model.Report {
	if r == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if r.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *r.DeletedAt, Valid: true}
	} else if r.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	var metadata datatypes.JSON
	if r.Metadata != nil {
		if raw, err := json.Marshal(r.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.Report{
		Id:           r.Id,
		UserId:       r.UserId,
		PatientId:    r.PatientId,
		DocumentType: r.DocumentType,
		Content:      r.Content,
		Urgent:       r.Urgent,
		SessionDate:  r.SessionDate,
		ArchivePath:  r.ArchivePath,
		Metadata:     metadata,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *ReportMapper) ToEntities(reports []*model.Report) []*entity.Report {
	entities := make([]*entity.Report, len(reports))
	for i, r := range reports {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
