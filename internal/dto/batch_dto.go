package dto

import (
	"github.com/google/uuid"

	"clinical-scribe-be/pkg/batch"
)

type AddGroupRequest struct {
	DocumentType string `json:"document_type" validate:"required,oneof=intake-summary treatment-plan session-note"`
}

type AddGroupResponse struct {
	GroupId uuid.UUID `json:"group_id"`
}

type SetDocumentTypeRequest struct {
	GroupId      uuid.UUID
	DocumentType string `json:"document_type" validate:"required,oneof=intake-summary treatment-plan session-note"`
}

type SetHintsRequest struct {
	GroupId      uuid.UUID
	ClientIDHint string `json:"client_id_hint"`
	DateHint     string `json:"date_hint"`
}

type AddSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
}

type SetSessionDateRequest struct {
	GroupId   uuid.UUID
	SessionId uuid.UUID
	Date      string `json:"date" validate:"required"`
}

// BatchStateResponse is the full projection the web client renders: the
// group tree plus recomputed progress counters.
type BatchStateResponse struct {
	Groups   []batch.GroupView `json:"groups"`
	Progress batch.Progress    `json:"progress"`
}

type RunBatchResponse struct {
	Started bool `json:"started"`
}
