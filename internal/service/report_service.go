package service

import (
	"context"
	"errors"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/repository/specification"
	"clinical-scribe-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IReportService interface {
	Show(ctx context.Context, userId, id uuid.UUID) (*dto.ReportResponse, error)
	List(ctx context.Context, userId uuid.UUID, req *dto.ListReportsRequest) ([]*dto.ReportResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateReportRequest) (*dto.ReportResponse, error)
	Delete(ctx context.Context, userId, id uuid.UUID) error
}

type reportService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewReportService(uowFactory unitofwork.RepositoryFactory) IReportService {
	return &reportService{
		uowFactory: uowFactory,
	}
}

func (s *reportService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.ReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.New("report not found")
	}

	patientName := ""
	if patient, err := uow.PatientRepository().FindOne(ctx, specification.ByID{ID: report.PatientId}); err == nil && patient != nil {
		patientName = patient.Name
	}

	return reportToResponse(report, patientName), nil
}

func (s *reportService) List(ctx context.Context, userId uuid.UUID, req *dto.ListReportsRequest) ([]*dto.ReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	}
	if req.PatientId != nil {
		specs = append(specs, specification.ByPatient{PatientID: *req.PatientId})
	}
	if req.DocumentType != "" {
		specs = append(specs, specification.ByDocumentType{DocumentType: req.DocumentType})
	}
	if req.UrgentOnly {
		specs = append(specs, specification.UrgentOnly{})
	}

	reports, err := uow.ReportRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	// Resolve patient names once per distinct patient in the page.
	names := map[uuid.UUID]string{}
	responses := make([]*dto.ReportResponse, len(reports))
	for i, r := range reports {
		name, seen := names[r.PatientId]
		if !seen {
			if patient, err := uow.PatientRepository().FindOne(ctx, specification.ByID{ID: r.PatientId}); err == nil && patient != nil {
				name = patient.Name
			}
			names[r.PatientId] = name
		}
		responses[i] = reportToResponse(r, name)
	}

	return responses, nil
}

func (s *reportService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateReportRequest) (*dto.ReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.New("report not found")
	}

	report.Content = req.Content

	if err := uow.ReportRepository().Update(ctx, report); err != nil {
		return nil, err
	}

	return reportToResponse(report, ""), nil
}

func (s *reportService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if report == nil {
		return errors.New("report not found")
	}

	return uow.ReportRepository().Delete(ctx, id)
}
