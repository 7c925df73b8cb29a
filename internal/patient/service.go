package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caresched/caresched/internal/identity"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountInactive    = errors.New("account is inactive")
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
	FirstName        string
	LastName         string
	Email            string
	PhoneNumber      string
	Password         string
	DateOfBirth      time.Time
	Gender           Gender
	Address          Address
	EmergencyContact *EmergencyContact
	MedicalHistory   []string
	InsuranceInfo    *InsuranceInfo
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*Patient, error) {
	if !params.Gender.Valid() {
		return nil, fmt.Errorf("unknown gender %q", params.Gender)
	}

	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.repo.GetByPhone(ctx, params.PhoneNumber); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		ID:               uuid.New(),
		FirstName:        params.FirstName,
		LastName:         params.LastName,
		Email:            params.Email,
		PhoneNumber:      params.PhoneNumber,
		PasswordHash:     hash,
		DateOfBirth:      params.DateOfBirth,
		Gender:           params.Gender,
		Address:          params.Address,
		EmergencyContact: params.EmergencyContact,
		MedicalHistory:   params.MedicalHistory,
		InsuranceInfo:    params.InsuranceInfo,
		IsActive:         true,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("patient_id", p.ID.String()).Msg("patient registered")
	return p, nil
}

// Login checks credentials and issues a patient-role token.
func (s *Service) Login(ctx context.Context, email, password string) (*Patient, string, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load patient: %w", err)
	}

	if !s.hasher.Verify(password, p.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if !p.IsActive {
		return nil, "", ErrAccountInactive
	}

	token, err := s.tokens.IssueToken(p.ID, p.Email, identity.RolePatient)
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Deactivate soft-deletes a patient account.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("patient_id", id.String()).Msg("patient account deactivated")
	return p, nil
}

func (s *Service) UpdateMedicalHistory(ctx context.Context, id uuid.UUID, history []string) (*Patient, error) {
	return s.repo.UpdateMedicalHistory(ctx, id, history)
}
