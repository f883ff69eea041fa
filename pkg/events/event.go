package events

import "time"

// Event is the contract every domain event satisfies before it is put on
// the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "BATCH_COMPLETED").
	EventType() string

	// Payload returns the data carried by the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a generic implementation used both for ad-hoc events and for
// rehydrating events received from the wire.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes emitted by the application.
const (
	TypeBatchCompleted       = "BATCH_COMPLETED"
	TypeReportCreated        = "REPORT_CREATED"
	TypeUrgentReportFlagged  = "URGENT_REPORT_FLAGGED"
	TypePreceptorReviewReady = "PRECEPTOR_REVIEW_READY"
)

// NewBatchCompleted is emitted after a batch run finishes, whether it ran to
// the end or was stopped.
func NewBatchCompleted(userId string, completed, errored, total int, stopped bool) BaseEvent {
	return BaseEvent{
		Type: TypeBatchCompleted,
		Data: map[string]interface{}{
			"user_id":   userId,
			"completed": completed,
			"errored":   errored,
			"total":     total,
			"stopped":   stopped,
		},
		OccurredAt: time.Now(),
	}
}

// NewReportCreated is emitted when a generated document has been persisted.
func NewReportCreated(userId, reportId, patientId, patientName, documentType string) BaseEvent {
	return BaseEvent{
		Type: TypeReportCreated,
		Data: map[string]interface{}{
			"user_id":       userId,
			"report_id":     reportId,
			"patient_id":    patientId,
			"patient_name":  patientName,
			"document_type": documentType,
		},
		OccurredAt: time.Now(),
	}
}

// NewUrgentReportFlagged is emitted when a generated document carries the
// urgency marker.
func NewUrgentReportFlagged(userId, reportId, patientName string) BaseEvent {
	return BaseEvent{
		Type: TypeUrgentReportFlagged,
		Data: map[string]interface{}{
			"user_id":      userId,
			"report_id":    reportId,
			"patient_name": patientName,
		},
		OccurredAt: time.Now(),
	}
}

// NewPreceptorReviewReady is emitted when a four-perspective review bundle
// has been generated for a report.
func NewPreceptorReviewReady(userId, reportId, bundlePath string) BaseEvent {
	return BaseEvent{
		Type: TypePreceptorReviewReady,
		Data: map[string]interface{}{
			"user_id":     userId,
			"report_id":   reportId,
			"bundle_path": bundlePath,
		},
		OccurredAt: time.Now(),
	}
}
