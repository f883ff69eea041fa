package entity

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a clinician-scoped patient record. Name is the resolution key;
// ClientID and DateOfBirth are optional identifiers extracted from generated
// documents and backfilled when first seen.
type Patient struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Name        string
	ClientID    *string
	DateOfBirth *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
