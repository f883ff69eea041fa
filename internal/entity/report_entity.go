package entity

import (
	"time"

	"github.com/google/uuid"
)

type Report struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	PatientId    uuid.UUID
	DocumentType string
	Content      string
	Urgent       bool
	SessionDate  *string
	ArchivePath  *string
	Metadata     map[string]interface{}
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
