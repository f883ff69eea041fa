package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePathSegment(t *testing.T) {
	assert.Equal(t, "Jane Roe", sanitizePathSegment("Jane Roe"))
	assert.Equal(t, "J. Smith-Jones", sanitizePathSegment("J. Smith-Jones"))

	// Separators and traversal sequences must not survive into a path.
	cleaned := sanitizePathSegment("../../etc/passwd")
	assert.False(t, strings.Contains(cleaned, "/"))
	assert.False(t, strings.Contains(cleaned, ".."))

	assert.NotEmpty(t, sanitizePathSegment(""))
	assert.NotEmpty(t, sanitizePathSegment("///"))
}

func TestDocumentTypeTitle(t *testing.T) {
	assert.Equal(t, "Intake Summary", documentTypeTitle("intake-summary"))
	assert.Equal(t, "Treatment Plan", documentTypeTitle("treatment-plan"))
	assert.Equal(t, "Session Note", documentTypeTitle("session-note"))
	assert.Equal(t, "Clinical Document", documentTypeTitle("something-else"))
}
