package service

import (
	"context"
	"errors"
	"log"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/pkg/logger"
	"clinical-scribe-be/internal/repository/memory"
	"clinical-scribe-be/internal/websocket"
	"clinical-scribe-be/pkg/batch"
	"clinical-scribe-be/pkg/events"
	"clinical-scribe-be/pkg/generation"
	pktNats "clinical-scribe-be/pkg/nats"

	"github.com/google/uuid"
)

type IBatchService interface {
	State(ctx context.Context, userId uuid.UUID) (*dto.BatchStateResponse, error)

	AddGroup(ctx context.Context, userId uuid.UUID, req *dto.AddGroupRequest) (*dto.AddGroupResponse, error)
	RemoveGroup(ctx context.Context, userId, groupId uuid.UUID) error
	SetDocumentType(ctx context.Context, userId uuid.UUID, req *dto.SetDocumentTypeRequest) error
	SetHints(ctx context.Context, userId uuid.UUID, req *dto.SetHintsRequest) error

	AttachFiles(ctx context.Context, userId, groupId uuid.UUID, files []batch.UploadedFile) error
	AttachSessionFiles(ctx context.Context, userId, groupId, sessionId uuid.UUID, files []batch.UploadedFile) error
	DetachFile(ctx context.Context, userId, groupId, fileId uuid.UUID) error

	AddSession(ctx context.Context, userId, groupId uuid.UUID, date string) (*dto.AddSessionResponse, error)
	SetSessionDate(ctx context.Context, userId uuid.UUID, req *dto.SetSessionDateRequest) error
	RemoveSession(ctx context.Context, userId, groupId, sessionId uuid.UUID) error

	Run(ctx context.Context, userId uuid.UUID) (*dto.RunBatchResponse, error)
	Stop(ctx context.Context, userId uuid.UUID) error
	Clear(ctx context.Context, userId uuid.UUID) error
}

var ErrBatchRunning = errors.New("batch is currently running")

type batchService struct {
	batches        *memory.BatchRepository
	generator      *generation.Adapter
	ingestService  IIngestService
	wsHub          *websocket.Hub
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewBatchService(
	batches *memory.BatchRepository,
	generator *generation.Adapter,
	ingestService IIngestService,
	wsHub *websocket.Hub,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IBatchService {
	return &batchService{
		batches:        batches,
		generator:      generator,
		ingestService:  ingestService,
		wsHub:          wsHub,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *batchService) State(ctx context.Context, userId uuid.UUID) (*dto.BatchStateResponse, error) {
	b := s.batches.GetOrCreate(userId)
	return &dto.BatchStateResponse{
		Groups:   b.Snapshot(),
		Progress: b.Progress(),
	}, nil
}

func (s *batchService) AddGroup(ctx context.Context, userId uuid.UUID, req *dto.AddGroupRequest) (*dto.AddGroupResponse, error) {
	docType := generation.DocumentType(req.DocumentType)
	if !docType.Valid() {
		return nil, errors.New("unknown document type")
	}

	b := s.batches.GetOrCreate(userId)
	if b.Running() {
		return nil, ErrBatchRunning
	}

	groupId := b.AddGroup(docType)
	return &dto.AddGroupResponse{GroupId: groupId}, nil
}

func (s *batchService) RemoveGroup(ctx context.Context, userId, groupId uuid.UUID) error {
	b := s.batches.GetOrCreate(userId)
	if b.Running() {
		return ErrBatchRunning
	}
	b.RemoveGroup(groupId)
	return nil
}

func (s *batchService) SetDocumentType(ctx context.Context, userId uuid.UUID, req *dto.SetDocumentTypeRequest) error {
	docType := generation.DocumentType(req.DocumentType)
	if !docType.Valid() {
		return errors.New("unknown document type")
	}

	b := s.batches.GetOrCreate(userId)
	if !b.SetGroupDocumentType(req.GroupId, docType) {
		if b.Running() {
			return ErrBatchRunning
		}
		return errors.New("group not found")
	}
	return nil
}

func (s *batchService) SetHints(ctx context.Context, userId uuid.UUID, req *dto.SetHintsRequest) error {
	b := s.batches.GetOrCreate(userId)
	if !b.SetGroupHints(req.GroupId, req.ClientIDHint, req.DateHint) {
		if b.Running() {
			return ErrBatchRunning
		}
		return errors.New("group not found")
	}
	return nil
}

func (s *batchService) AttachFiles(ctx context.Context, userId, groupId uuid.UUID, files []batch.UploadedFile) error {
	b := s.batches.GetOrCreate(userId)
	if !b.AttachFiles(groupId, files...) {
		if b.Running() {
			return ErrBatchRunning
		}
		return errors.New("group not found or holds files on sessions")
	}
	return nil
}

func (s *batchService) AttachSessionFiles(ctx context.Context, userId, groupId, sessionId uuid.UUID, files []batch.UploadedFile) error {
	b := s.batches.GetOrCreate(userId)
	if !b.AttachSessionFiles(groupId, sessionId, files...) {
		if b.Running() {
			return ErrBatchRunning
		}
		return errors.New("session not found")
	}
	return nil
}

func (s *batchService) DetachFile(ctx context.Context, userId, groupId, fileId uuid.UUID) error {
	b := s.batches.GetOrCreate(userId)
	if b.Running() {
		return ErrBatchRunning
	}
	b.DetachFile(groupId, fileId)
	return nil
}

func (s *batchService) AddSession(ctx context.Context, userId, groupId uuid.UUID, date string) (*dto.AddSessionResponse, error) {
	b := s.batches.GetOrCreate(userId)
	sessionId, ok := b.AddSession(groupId, date)
	if !ok {
		if b.Running() {
			return nil, ErrBatchRunning
		}
		return nil, errors.New("group not found or does not hold sessions")
	}
	return &dto.AddSessionResponse{SessionId: sessionId}, nil
}

func (s *batchService) SetSessionDate(ctx context.Context, userId uuid.UUID, req *dto.SetSessionDateRequest) error {
	b := s.batches.GetOrCreate(userId)
	if !b.SetSessionDate(req.GroupId, req.SessionId, req.Date) {
		if b.Running() {
			return ErrBatchRunning
		}
		return errors.New("session not found")
	}
	return nil
}

func (s *batchService) RemoveSession(ctx context.Context, userId, groupId, sessionId uuid.UUID) error {
	b := s.batches.GetOrCreate(userId)
	if b.Running() {
		return ErrBatchRunning
	}
	b.RemoveSession(groupId, sessionId)
	return nil
}

// Run starts the sequential batch in the background and streams progress
// frames over the websocket hub. A second Run while one is active fails.
func (s *batchService) Run(ctx context.Context, userId uuid.UUID) (*dto.RunBatchResponse, error) {
	b := s.batches.GetOrCreate(userId)
	if b.Running() {
		return nil, ErrBatchRunning
	}

	orch := batch.NewOrchestrator(
		s.generator,
		s.ingestService.PersisterFor(userId),
		log.Default(),
	)

	orch.OnProgress(func(p batch.Progress) {
		if s.wsHub != nil {
			s.wsHub.Send(userId, "batch_progress", dto.BatchStateResponse{
				Groups:   b.Snapshot(),
				Progress: p,
			})
		}
	})

	// The run outlives the HTTP request; it is cancelled only by Stop.
	runCtx := context.Background()

	go func() {
		err := orch.Run(runCtx, b, func() {
			s.onRunComplete(userId, b)
		})
		if err != nil {
			s.logger.Warn("Batch", "Run refused", map[string]interface{}{
				"user_id": userId, "error": err.Error(),
			})
		}
	}()

	return &dto.RunBatchResponse{Started: true}, nil
}

func (s *batchService) onRunComplete(userId uuid.UUID, b *batch.Batch) {
	p := b.Progress()

	s.logger.Info("Batch", "Run finished", map[string]interface{}{
		"user_id":   userId,
		"completed": p.CompletedGroups,
		"errored":   p.ErroredGroups,
		"total":     p.TotalReportUnits,
	})

	if s.wsHub != nil {
		s.wsHub.Send(userId, "batch_completed", dto.BatchStateResponse{
			Groups:   b.Snapshot(),
			Progress: p,
		})
	}

	if s.eventPublisher != nil {
		stopped := p.QueuedUnits > 0
		event := events.NewBatchCompleted(userId.String(), p.CompletedGroups, p.ErroredGroups, p.TotalReportUnits, stopped)
		if err := s.eventPublisher.Publish(context.Background(), event); err != nil {
			s.logger.Warn("Batch", "Failed to publish BATCH_COMPLETED", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *batchService) Stop(ctx context.Context, userId uuid.UUID) error {
	b, found := s.batches.Get(userId)
	if !found || !b.Running() {
		return errors.New("no batch is running")
	}
	b.RequestStop()
	return nil
}

func (s *batchService) Clear(ctx context.Context, userId uuid.UUID) error {
	if b, found := s.batches.Get(userId); found && b.Running() {
		return ErrBatchRunning
	}
	s.batches.Delete(userId)
	return nil
}
