package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/repository/specification"
	"clinical-scribe-be/internal/repository/unitofwork"
	"clinical-scribe-be/pkg/pdfrender"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IArchiveConsumerService interface {
	Consume(ctx context.Context) error
}

type archiveConsumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	archiveDir string
}

func NewArchiveConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	archiveDir string,
) IArchiveConsumerService {
	return &archiveConsumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		archiveDir: archiveDir,
	}
}

func (cs *archiveConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *archiveConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ArchiveReportMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal archive message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Archiving report %s", payload.ReportId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: payload.ReportId})
	if err != nil {
		log.Printf("[ERROR] Failed to load report %s: %v", payload.ReportId, err)
		msg.Nack()
		return
	}
	if report == nil {
		log.Printf("[WARN] Report %s gone before archival", payload.ReportId)
		msg.Ack()
		return
	}

	patient, err := uow.PatientRepository().FindOne(ctx, specification.ByID{ID: report.PatientId})
	if err != nil {
		log.Printf("[ERROR] Failed to load patient %s: %v", report.PatientId, err)
		msg.Nack()
		return
	}

	patientName := "Unknown Patient"
	if patient != nil {
		patientName = patient.Name
	}

	outPath := filepath.Join(
		cs.archiveDir,
		sanitizePathSegment(patientName),
		sanitizePathSegment(report.DocumentType),
		fmt.Sprintf("%s.pdf", report.Id),
	)

	title := fmt.Sprintf("%s: %s", documentTypeTitle(report.DocumentType), patientName)
	if err := pdfrender.Render(title, report.Content, outPath); err != nil {
		log.Printf("[ERROR] Failed to render archive PDF for report %s: %v", report.Id, err)
		msg.Nack()
		return
	}

	if err := uow.ReportRepository().UpdateArchivePath(ctx, report.Id, outPath); err != nil {
		log.Printf("[ERROR] Failed to record archive path for report %s: %v", report.Id, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Report %s archived at %s", report.Id, outPath)
	msg.Ack()
}

var pathSegmentRe = regexp.MustCompile(`[^a-zA-Z0-9._ -]+`)

// sanitizePathSegment keeps patient names from escaping the archive root.
func sanitizePathSegment(s string) string {
	s = pathSegmentRe.ReplaceAllString(s, "_")
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "_")
	}
	s = strings.Trim(s, ". ")
	if s == "" {
		return "_"
	}
	return s
}

func documentTypeTitle(docType string) string {
	switch docType {
	case "intake-summary":
		return "Intake Summary"
	case "treatment-plan":
		return "Treatment Plan"
	case "session-note":
		return "Session Note"
	default:
		return "Clinical Document"
	}
}
