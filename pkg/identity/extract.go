// Package identity extracts patient identity fields from generated document
// text. The generator is asked to emit label-prefixed lines but its output
// format is not contractually guaranteed, so this is a best-effort heuristic
// with a defined fallback.
package identity

import (
	"regexp"
	"strings"
)

// UnknownPatientName is the sentinel used when no PATIENT_NAME label is found.
const UnknownPatientName = "Unknown Patient"

// UrgencyMarker flags documents that need immediate clinical attention.
const UrgencyMarker = "⚠️"

// Patient holds extracted identity fields. Name is always set (sentinel when
// missing); the optional fields are nil when their labels are absent.
type Patient struct {
	Name        string
	ClientID    *string
	DateOfBirth *string
}

var (
	nameRe = regexp.MustCompile(`(?m)^\s*\**PATIENT_NAME\**\s*:\s*(.+)$`)
	idRe   = regexp.MustCompile(`(?m)^\s*\**CLIENT_ID\**\s*:\s*(.+)$`)
	dobRe  = regexp.MustCompile(`(?m)^\s*\**DATE_OF_BIRTH\**\s*:\s*(.+)$`)

	emphasisRe = regexp.MustCompile(`[*_~` + "`" + `]`)
)

// Extract pulls patient identity from generated text.
func Extract(text string) Patient {
	p := Patient{Name: UnknownPatientName}

	if m := nameRe.FindStringSubmatch(text); m != nil {
		if name := cleanValue(m[1]); name != "" {
			p.Name = name
		}
	}
	if m := idRe.FindStringSubmatch(text); m != nil {
		if id := cleanValue(m[1]); id != "" {
			p.ClientID = &id
		}
	}
	if m := dobRe.FindStringSubmatch(text); m != nil {
		if dob := cleanValue(m[1]); dob != "" {
			p.DateOfBirth = &dob
		}
	}

	return p
}

// IsUrgent reports whether the generated text carries the urgency marker.
func IsUrgent(text string) bool {
	return strings.Contains(text, UrgencyMarker)
}

// cleanValue strips markdown emphasis markup and surrounding whitespace from
// a captured label value.
func cleanValue(s string) string {
	return strings.TrimSpace(emphasisRe.ReplaceAllString(s, ""))
}
