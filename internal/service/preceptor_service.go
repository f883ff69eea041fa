package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/pkg/logger"
	"clinical-scribe-be/internal/repository/specification"
	"clinical-scribe-be/internal/repository/unitofwork"
	"clinical-scribe-be/pkg/events"
	"clinical-scribe-be/pkg/generation"
	"clinical-scribe-be/pkg/llm"
	pktNats "clinical-scribe-be/pkg/nats"
	"clinical-scribe-be/pkg/pdfrender"

	"github.com/google/uuid"
)

// IPreceptorService runs a supervisory review of a persisted report: four
// reviewer perspectives generated sequentially, each rendered to PDF, then
// merged into a single bundle for the preceptor to read offline.
type IPreceptorService interface {
	Review(ctx context.Context, userId uuid.UUID, req *dto.PreceptorReviewRequest) (*dto.PreceptorReviewResponse, error)
}

type preceptorService struct {
	uowFactory     unitofwork.RepositoryFactory
	provider       llm.Provider
	archiveDir     string
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewPreceptorService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.Provider,
	archiveDir string,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IPreceptorService {
	return &preceptorService{
		uowFactory:     uowFactory,
		provider:       provider,
		archiveDir:     archiveDir,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *preceptorService) Review(ctx context.Context, userId uuid.UUID, req *dto.PreceptorReviewRequest) (*dto.PreceptorReviewResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx,
		specification.ByID{ID: req.ReportId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.New("report not found")
	}

	patientName := "Unknown Patient"
	if patient, err := uow.PatientRepository().FindOne(ctx, specification.ByID{ID: report.PatientId}); err == nil && patient != nil {
		patientName = patient.Name
	}

	reviewDir := filepath.Join(
		s.archiveDir,
		sanitizePathSegment(patientName),
		"preceptor-review",
		report.Id.String(),
	)

	var results []dto.PerspectiveResult
	var pdfPaths []string

	// Perspectives run one at a time; a failed perspective is reported in
	// place but does not abort the rest of the review.
	for _, p := range generation.Perspectives() {
		content, genErr := s.generatePerspective(ctx, p, report.Content)

		result := dto.PerspectiveResult{Key: p.Key, Title: p.Title}
		if genErr != nil {
			result.Error = genErr.Error()
			s.logger.Warn("Preceptor", "Perspective failed", map[string]interface{}{
				"report_id": report.Id, "perspective": p.Key, "error": genErr.Error(),
			})
			results = append(results, result)
			continue
		}

		result.Content = content
		results = append(results, result)

		pdfPath := filepath.Join(reviewDir, fmt.Sprintf("%s.pdf", p.Key))
		title := fmt.Sprintf("%s: %s", p.Title, patientName)
		if err := pdfrender.Render(title, content, pdfPath); err != nil {
			s.logger.Warn("Preceptor", "Perspective PDF render failed", map[string]interface{}{
				"report_id": report.Id, "perspective": p.Key, "error": err.Error(),
			})
			continue
		}
		pdfPaths = append(pdfPaths, pdfPath)
	}

	bundlePath := ""
	if len(pdfPaths) > 0 {
		bundlePath = filepath.Join(reviewDir, "review-bundle.pdf")
		if err := pdfrender.MergeBundle(pdfPaths, bundlePath); err != nil {
			s.logger.Warn("Preceptor", "Bundle merge failed", map[string]interface{}{
				"report_id": report.Id, "error": err.Error(),
			})
			bundlePath = ""
		}
	}

	if bundlePath != "" && s.eventPublisher != nil {
		event := events.NewPreceptorReviewReady(userId.String(), report.Id.String(), bundlePath)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Preceptor", "Failed to publish PRECEPTOR_REVIEW_READY", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.PreceptorReviewResponse{
		ReportId:     report.Id,
		Perspectives: results,
		BundlePath:   bundlePath,
		GeneratedAt:  time.Now(),
	}, nil
}

func (s *preceptorService) generatePerspective(ctx context.Context, p generation.Perspective, reportText string) (string, error) {
	parts := []llm.Part{
		{Text: p.Prompt},
		{Text: "Document under review:\n\n" + reportText},
	}

	// One immediate retry on rate limiting; preceptor review is interactive
	// and should not hold the request for long backoffs.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		out, err := s.provider.GenerateParts(ctx, generation.PreceptorSystemPrompt(), parts)
		if err == nil {
			return generation.StripFences(out), nil
		}
		lastErr = err
		if !errors.Is(err, llm.ErrRateLimited) {
			return "", err
		}
		select {
		case <-time.After(1500 * time.Millisecond):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
