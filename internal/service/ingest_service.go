package service

import (
	"context"
	"fmt"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/logger"
	"clinical-scribe-be/internal/repository/specification"
	"clinical-scribe-be/internal/repository/unitofwork"
	"clinical-scribe-be/pkg/batch"
	"clinical-scribe-be/pkg/events"
	"clinical-scribe-be/pkg/generation"
	"clinical-scribe-be/pkg/identity"
	pktNats "clinical-scribe-be/pkg/nats"

	"github.com/google/uuid"
)

// IIngestService turns generated document text into persisted clinical
// records: it extracts the identity header, resolves or creates the patient,
// writes the report, and queues the archival copy.
type IIngestService interface {
	Ingest(ctx context.Context, userId uuid.UUID, docType generation.DocumentType, text string) (*entity.Report, error)
	PersisterFor(userId uuid.UUID) batch.Persister
}

type ingestService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

func (s *ingestService) Ingest(ctx context.Context, userId uuid.UUID, docType generation.DocumentType, text string) (*entity.Report, error) {
	extracted := identity.Extract(text)
	urgent := identity.IsUrgent(text)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	patient, err := s.resolvePatient(ctx, uow, userId, extracted)
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}

	report := &entity.Report{
		Id:           uuid.New(),
		UserId:       userId,
		PatientId:    patient.Id,
		DocumentType: string(docType),
		Content:      text,
		Urgent:       urgent,
		Metadata: map[string]interface{}{
			"patient_name": patient.Name,
		},
		CreatedAt: time.Now(),
	}

	if err := uow.ReportRepository().Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.logger.Info("Ingest", "Report persisted", map[string]interface{}{
		"report_id":     report.Id,
		"patient_name":  patient.Name,
		"document_type": report.DocumentType,
		"urgent":        urgent,
	})

	// Archival rendering happens out of band.
	if s.publisherService != nil {
		if err := s.publisherService.PublishArchiveReport(report.Id); err != nil {
			s.logger.Warn("Ingest", "Failed to queue report for archival", map[string]interface{}{
				"report_id": report.Id, "error": err.Error(),
			})
		}
	}

	if s.eventPublisher != nil {
		event := events.NewReportCreated(userId.String(), report.Id.String(), patient.Id.String(), patient.Name, report.DocumentType)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Ingest", "Failed to publish REPORT_CREATED", map[string]interface{}{"error": err.Error()})
		}
		if urgent {
			urgentEvent := events.NewUrgentReportFlagged(userId.String(), report.Id.String(), patient.Name)
			if err := s.eventPublisher.Publish(ctx, urgentEvent); err != nil {
				s.logger.Warn("Ingest", "Failed to publish URGENT_REPORT_FLAGGED", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	return report, nil
}

// resolvePatient matches the extracted name case-insensitively within the
// clinician's patients, creating the record on first sight. Identifier
// fields are backfilled only when currently empty; an existing ClientID or
// DateOfBirth is never overwritten by a later extraction.
func (s *ingestService) resolvePatient(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, extracted identity.Patient) (*entity.Patient, error) {
	patient, err := uow.PatientRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userId},
		specification.ByNameInsensitive{Name: extracted.Name},
	)
	if err != nil {
		return nil, err
	}

	if patient == nil {
		patient = &entity.Patient{
			Id:          uuid.New(),
			UserId:      userId,
			Name:        extracted.Name,
			ClientID:    extracted.ClientID,
			DateOfBirth: extracted.DateOfBirth,
			CreatedAt:   time.Now(),
		}
		if err := uow.PatientRepository().Create(ctx, patient); err != nil {
			return nil, err
		}
		return patient, nil
	}

	changed := false
	if patient.ClientID == nil && extracted.ClientID != nil {
		patient.ClientID = extracted.ClientID
		changed = true
	}
	if patient.DateOfBirth == nil && extracted.DateOfBirth != nil {
		patient.DateOfBirth = extracted.DateOfBirth
		changed = true
	}
	if changed {
		if err := uow.PatientRepository().Update(ctx, patient); err != nil {
			return nil, err
		}
	}

	return patient, nil
}

// PersisterFor binds the ingest pipeline to one clinician so the batch
// orchestrator can call it without knowing about users.
func (s *ingestService) PersisterFor(userId uuid.UUID) batch.Persister {
	return &boundPersister{svc: s, userId: userId}
}

type boundPersister struct {
	svc    *ingestService
	userId uuid.UUID
}

func (p *boundPersister) Persist(ctx context.Context, docType generation.DocumentType, text string) (batch.PersistResult, error) {
	// The extracted name is reported even when the write fails, so the batch
	// view can still label the unit.
	name := identity.Extract(text).Name

	report, err := p.svc.Ingest(ctx, p.userId, docType, text)
	if err != nil {
		return batch.PersistResult{PatientName: name}, err
	}

	if pn, ok := report.Metadata["patient_name"].(string); ok && pn != "" {
		name = pn
	}
	return batch.PersistResult{PatientName: name}, nil
}

// reportToResponse is shared by the report and preceptor surfaces.
func reportToResponse(r *entity.Report, patientName string) *dto.ReportResponse {
	return &dto.ReportResponse{
		Id:           r.Id,
		PatientId:    r.PatientId,
		PatientName:  patientName,
		DocumentType: r.DocumentType,
		Content:      r.Content,
		Urgent:       r.Urgent,
		SessionDate:  r.SessionDate,
		ArchivePath:  r.ArchivePath,
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
	}
}
