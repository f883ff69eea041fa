package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Report struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	PatientId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	DocumentType string         `gorm:"type:varchar(50);not null;index"`
	Content      string         `gorm:"type:text;not null"`
	Urgent       bool           `gorm:"default:false;index"`
	SessionDate  *string        `gorm:"type:varchar(50)"`
	ArchivePath  *string        `gorm:"type:text"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Report) TableName() string {
	return "reports"
}
