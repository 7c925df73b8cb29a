package provider

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrPhoneTaken       = errors.New("phone number already registered")
	ErrLicenseTaken     = errors.New("license number already registered")
)

// Repository contains all DB interactions needed by the provider service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	GetByEmail(ctx context.Context, email string) (*Provider, error)
	GetByPhone(ctx context.Context, phone string) (*Provider, error)
	GetByLicense(ctx context.Context, license string) (*Provider, error)

	Create(ctx context.Context, p *Provider) error
	UpdateVerification(ctx context.Context, id uuid.UUID, status VerificationStatus) (*Provider, error)
	ListPendingVerification(ctx context.Context) ([]Provider, error)
}
