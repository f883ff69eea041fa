package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByPatient struct {
	PatientID uuid.UUID
}

func (s ByPatient) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("patient_id = ?", s.PatientID)
}

type ByDocumentType struct {
	DocumentType string
}

func (s ByDocumentType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_type = ?", s.DocumentType)
}

type UrgentOnly struct{}

func (s UrgentOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("urgent = ?", true)
}

type UnreadOnly struct{}

func (s UnreadOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = ?", false)
}
