package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrPhoneTaken      = errors.New("phone number already registered")
)

// Repository contains all DB interactions needed by the patient service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	GetByPhone(ctx context.Context, phone string) (*Patient, error)

	Create(ctx context.Context, p *Patient) error
	Deactivate(ctx context.Context, id uuid.UUID) (*Patient, error)
	UpdateMedicalHistory(ctx context.Context, id uuid.UUID, history []string) (*Patient, error)
}
