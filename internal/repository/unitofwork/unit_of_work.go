package unitofwork

import (
	"context"

	"clinical-scribe-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	PatientRepository() contract.PatientRepository
	ReportRepository() contract.ReportRepository
	NotificationRepository() contract.NotificationRepository
}
