package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePatientRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	ClientID    *string `json:"client_id"`
	DateOfBirth *string `json:"date_of_birth"`
}

type UpdatePatientRequest struct {
	Id          uuid.UUID
	Name        string  `json:"name" validate:"required,min=2"`
	ClientID    *string `json:"client_id"`
	DateOfBirth *string `json:"date_of_birth"`
}

type PatientResponse struct {
	Id          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	ClientID    *string    `json:"client_id,omitempty"`
	DateOfBirth *string    `json:"date_of_birth,omitempty"`
	ReportCount int64      `json:"report_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type ListPatientsRequest struct {
	Search string `query:"search"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}
