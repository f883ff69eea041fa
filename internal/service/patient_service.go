package service

import (
	"context"
	"errors"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/specification"
	"clinical-scribe-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IPatientService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	Show(ctx context.Context, userId, id uuid.UUID) (*dto.PatientResponse, error)
	List(ctx context.Context, userId uuid.UUID, req *dto.ListPatientsRequest) ([]*dto.PatientResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	Delete(ctx context.Context, userId, id uuid.UUID) error
}

type patientService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPatientService(uowFactory unitofwork.RepositoryFactory) IPatientService {
	return &patientService{
		uowFactory: uowFactory,
	}
}

func (s *patientService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.PatientRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userId},
		specification.ByNameInsensitive{Name: req.Name},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("a patient with this name already exists")
	}

	patient := &entity.Patient{
		Id:          uuid.New(),
		UserId:      userId,
		Name:        req.Name,
		ClientID:    req.ClientID,
		DateOfBirth: req.DateOfBirth,
		CreatedAt:   time.Now(),
	}

	if err := uow.PatientRepository().Create(ctx, patient); err != nil {
		return nil, err
	}

	return patientToResponse(patient, 0), nil
}

func (s *patientService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.PatientResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	patient, err := uow.PatientRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, errors.New("patient not found")
	}

	count, err := uow.ReportRepository().Count(ctx,
		specification.OwnedBy{UserID: userId},
		specification.ByPatient{PatientID: patient.Id},
	)
	if err != nil {
		return nil, err
	}

	return patientToResponse(patient, count), nil
}

func (s *patientService) List(ctx context.Context, userId uuid.UUID, req *dto.ListPatientsRequest) ([]*dto.PatientResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "name"},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	}
	if req.Search != "" {
		specs = append(specs, specification.NameSearch{Query: req.Search})
	}

	patients, err := uow.PatientRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.PatientResponse, len(patients))
	for i, p := range patients {
		count, _ := uow.ReportRepository().Count(ctx,
			specification.OwnedBy{UserID: userId},
			specification.ByPatient{PatientID: p.Id},
		)
		responses[i] = patientToResponse(p, count)
	}

	return responses, nil
}

func (s *patientService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	patient, err := uow.PatientRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, errors.New("patient not found")
	}

	patient.Name = req.Name
	patient.ClientID = req.ClientID
	patient.DateOfBirth = req.DateOfBirth

	if err := uow.PatientRepository().Update(ctx, patient); err != nil {
		return nil, err
	}

	return patientToResponse(patient, 0), nil
}

func (s *patientService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	patient, err := uow.PatientRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if patient == nil {
		return errors.New("patient not found")
	}

	return uow.PatientRepository().Delete(ctx, id)
}

func patientToResponse(p *entity.Patient, reportCount int64) *dto.PatientResponse {
	return &dto.PatientResponse{
		Id:          p.Id,
		Name:        p.Name,
		ClientID:    p.ClientID,
		DateOfBirth: p.DateOfBirth,
		ReportCount: reportCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
