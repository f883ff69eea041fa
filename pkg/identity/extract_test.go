package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantName string
		wantID   *string
		wantDOB  *string
	}{
		{
			name:     "all labels present",
			text:     "PATIENT_NAME: Jane Doe\nCLIENT_ID: C-1042\nDATE_OF_BIRTH: 1988-04-12\n\n# Intake Summary",
			wantName: "Jane Doe",
			wantID:   strPtr("C-1042"),
			wantDOB:  strPtr("1988-04-12"),
		},
		{
			name:     "name only",
			text:     "PATIENT_NAME: John Smith\n\nDATA: ...",
			wantName: "John Smith",
		},
		{
			name:     "no labels at all",
			text:     "# Intake Summary\nThe client presented with...",
			wantName: UnknownPatientName,
		},
		{
			name:     "markdown emphasis around value",
			text:     "PATIENT_NAME: **Jane Doe**\nCLIENT_ID: _C-7_",
			wantName: "Jane Doe",
			wantID:   strPtr("C-7"),
		},
		{
			name:     "bolded label line",
			text:     "**PATIENT_NAME**: Jane Doe",
			wantName: "Jane Doe",
		},
		{
			name:     "label mid-document",
			text:     "Some preamble the model added.\nPATIENT_NAME: Jane Doe\nmore text",
			wantName: "Jane Doe",
		},
		{
			name:     "empty value falls back",
			text:     "PATIENT_NAME: **\nCLIENT_ID:   ",
			wantName: UnknownPatientName,
		},
		{
			name:     "indented label",
			text:     "  PATIENT_NAME: Jane Doe",
			wantName: "Jane Doe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantID, got.ClientID)
			assert.Equal(t, tt.wantDOB, got.DateOfBirth)
		})
	}
}

func TestIsUrgent(t *testing.T) {
	assert.True(t, IsUrgent("PATIENT_NAME: Jane Doe\n⚠️\ncontent"))
	assert.False(t, IsUrgent("PATIENT_NAME: Jane Doe\ncontent"))
}

func strPtr(s string) *string { return &s }
