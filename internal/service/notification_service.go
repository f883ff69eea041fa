package service

import (
	"context"
	"fmt"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/logger"
	"clinical-scribe-be/internal/repository/contract"
	"clinical-scribe-be/internal/repository/specification"
	"clinical-scribe-be/internal/repository/unitofwork"
	"clinical-scribe-be/pkg/events"
	pktNats "clinical-scribe-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, msgType string, payload interface{})
}

type INotificationService interface {
	Start()
	List(ctx context.Context, userId uuid.UUID, limit, offset int, unreadOnly bool) ([]*entity.Notification, int64, error)
	UnreadCount(ctx context.Context, userId uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userId uuid.UUID) error
}

// notificationTemplate maps an event type to the inbox entry it produces.
// Events not listed here are delivered nowhere and acked silently.
type notificationTemplate struct {
	Title   string
	Message func(payload map[string]interface{}) string
}

var notificationTemplates = map[string]notificationTemplate{
	events.TypeBatchCompleted: {
		Title: "Batch run finished",
		Message: func(p map[string]interface{}) string {
			if stopped, _ := p["stopped"].(bool); stopped {
				return fmt.Sprintf("Batch run stopped: %v of %v documents completed, %v failed.", p["completed"], p["total"], p["errored"])
			}
			return fmt.Sprintf("Batch run finished: %v of %v documents completed, %v failed.", p["completed"], p["total"], p["errored"])
		},
	},
	events.TypeUrgentReportFlagged: {
		Title: "Urgent report",
		Message: func(p map[string]interface{}) string {
			return fmt.Sprintf("A report for %v was flagged as urgent and needs your attention.", p["patient_name"])
		},
	},
	events.TypePreceptorReviewReady: {
		Title: "Preceptor review ready",
		Message: func(p map[string]interface{}) string {
			return "A preceptor review bundle has been generated and is ready to download."
		},
	},
}

type NotificationService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(uowFactory unitofwork.RepositoryFactory, sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) INotificationService {
	return &NotificationService{
		uowFactory: uowFactory,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus with a durable consumer, so
// notifications survive restarts of this instance.
func (s *NotificationService) Start() {
	if s.subscriber == nil {
		s.logger.Warn("NotificationService", "No event subscriber configured, inbox notifications disabled", nil)
		return
	}
	if err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	tmpl, ok := notificationTemplates[event.EventType()]
	if !ok {
		// Not every event produces an inbox entry (e.g. USER_LOGIN, REPORT_CREATED).
		return nil
	}

	payload := event.Payload()
	uidStr, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s has no usable user_id, dropping", event.EventType()), map[string]interface{}{"user_id": uidStr})
		return nil
	}

	notif := &entity.Notification{
		Id:        uuid.New(),
		UserId:    userId,
		TypeCode:  event.EventType(),
		Title:     tmpl.Title,
		Message:   tmpl.Message(payload),
		Metadata:  payload,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().Create(ctx, notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userId), map[string]interface{}{"error": err})
		return err // returning an error makes the bus redeliver
	}

	if s.delivery != nil {
		s.delivery.Send(userId, "notification", notif)
	}
	return nil
}

func (s *NotificationService) repo(ctx context.Context) contract.NotificationRepository {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository()
}

func (s *NotificationService) List(ctx context.Context, userId uuid.UUID, limit, offset int, unreadOnly bool) ([]*entity.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	specs := []specification.Specification{
		specification.OwnedBy{UserID: userId},
	}
	if unreadOnly {
		specs = append(specs, specification.UnreadOnly{})
	}

	repo := s.repo(ctx)
	total, err := repo.Count(ctx, specs...)
	if err != nil {
		return nil, 0, err
	}

	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	items, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userId uuid.UUID) (int64, error) {
	return s.repo(ctx).Count(ctx, specification.OwnedBy{UserID: userId}, specification.UnreadOnly{})
}

func (s *NotificationService) MarkRead(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	return s.repo(ctx).MarkRead(ctx, userId, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userId uuid.UUID) error {
	return s.repo(ctx).MarkAllRead(ctx, userId)
}
