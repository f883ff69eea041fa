package service

import (
	"testing"

	"clinical-scribe-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationTemplatesCoverInboxEvents(t *testing.T) {
	for _, code := range []string{
		events.TypeBatchCompleted,
		events.TypeUrgentReportFlagged,
		events.TypePreceptorReviewReady,
	} {
		tmpl, ok := notificationTemplates[code]
		require.True(t, ok, "missing template for %s", code)
		assert.NotEmpty(t, tmpl.Title)
		assert.NotNil(t, tmpl.Message)
	}

	// Events without a template produce no inbox entry.
	_, ok := notificationTemplates[events.TypeReportCreated]
	assert.False(t, ok)
}

func TestBatchCompletedMessageDistinguishesStop(t *testing.T) {
	tmpl := notificationTemplates[events.TypeBatchCompleted]

	finished := tmpl.Message(map[string]interface{}{
		"completed": 3, "total": 3, "errored": 0, "stopped": false,
	})
	assert.Contains(t, finished, "finished")

	stopped := tmpl.Message(map[string]interface{}{
		"completed": 1, "total": 3, "errored": 0, "stopped": true,
	})
	assert.Contains(t, stopped, "stopped")
}

func TestUrgentMessageNamesPatient(t *testing.T) {
	tmpl := notificationTemplates[events.TypeUrgentReportFlagged]
	msg := tmpl.Message(map[string]interface{}{"patient_name": "Jane Roe"})
	assert.Contains(t, msg, "Jane Roe")
}
