package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caresched/caresched/internal/identity"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidStatus      = errors.New("unknown verification status")
)

type Service struct {
	repo   Repository
	hasher *identity.Hasher
	tokens *identity.TokenManager
	log    zerolog.Logger
}

func NewService(repo Repository, hasher *identity.Hasher, tokens *identity.TokenManager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
}

type RegisterParams struct {
	FirstName         string
	LastName          string
	Email             string
	PhoneNumber       string
	Password          string
	Specialization    string
	LicenseNumber     string
	YearsOfExperience *int
	ClinicAddress     ClinicAddress
}

// Register creates a provider account after checking email, phone and
// license uniqueness. The insert itself re-checks via DB constraints, so a
// racing duplicate still surfaces the right conflict.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Provider, error) {
	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrProviderNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.repo.GetByPhone(ctx, params.PhoneNumber); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrProviderNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if _, err := s.repo.GetByLicense(ctx, params.LicenseNumber); err == nil {
		return nil, ErrLicenseTaken
	} else if !errors.Is(err, ErrProviderNotFound) {
		return nil, fmt.Errorf("check license: %w", err)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		ID:                uuid.New(),
		FirstName:         params.FirstName,
		LastName:          params.LastName,
		Email:             params.Email,
		PhoneNumber:       params.PhoneNumber,
		PasswordHash:      hash,
		Specialization:    params.Specialization,
		LicenseNumber:     params.LicenseNumber,
		YearsOfExperience: params.YearsOfExperience,
		ClinicAddress:     params.ClinicAddress,
		Verification:      VerificationPending,
		IsActive:          true,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("provider_id", p.ID.String()).Msg("provider registered")
	return p, nil
}

// Login checks credentials and issues a provider-role token.
func (s *Service) Login(ctx context.Context, email, password string) (*Provider, string, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load provider: %w", err)
	}

	if !s.hasher.Verify(password, p.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if !p.IsActive {
		return nil, "", ErrAccountInactive
	}

	token, err := s.tokens.IssueToken(p.ID, p.Email, identity.RoleProvider)
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateVerification transitions a provider's verification status. Meant
// for an administrative actor.
func (s *Service) UpdateVerification(ctx context.Context, id uuid.UUID, status VerificationStatus) (*Provider, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	p, err := s.repo.UpdateVerification(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("provider_id", id.String()).
		Str("status", string(status)).
		Msg("provider verification updated")
	return p, nil
}

func (s *Service) ListPendingVerification(ctx context.Context) ([]Provider, error) {
	return s.repo.ListPendingVerification(ctx)
}
