package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresched/caresched/internal/identity"
)

type fakeRepo struct {
	patients map[uuid.UUID]*Patient
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*Patient, error) {
	for _, p := range r.patients {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *fakeRepo) GetByPhone(_ context.Context, phone string) (*Patient, error) {
	for _, p := range r.patients {
		if p.PhoneNumber == phone {
			return p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *fakeRepo) Create(_ context.Context, p *Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakeRepo) Deactivate(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	p.IsActive = false
	return p, nil
}

func (r *fakeRepo) UpdateMedicalHistory(_ context.Context, id uuid.UUID, history []string) (*Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	p.MedicalHistory = history
	return p, nil
}

func newTestService(repo *fakeRepo) *Service {
	hasher := identity.NewHasher(4)
	tokens := identity.NewTokenManager("test-secret", time.Hour)
	return NewService(repo, hasher, tokens, zerolog.Nop())
}

func registerParams() RegisterParams {
	return RegisterParams{
		FirstName:   "Maya",
		LastName:    "Okafor",
		Email:       "maya@home.test",
		PhoneNumber: "+15550001111",
		Password:    "hunter2hunter2",
		DateOfBirth: time.Date(1991, 6, 12, 0, 0, 0, 0, time.UTC),
		Gender:      GenderFemale,
		Address:     Address{Street: "12 Elm St", City: "Springfield", State: "IL", Zip: "62701"},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), registerParams())
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.NotEqual(t, "hunter2hunter2", p.PasswordHash)

	logged, token, err := svc.Login(context.Background(), "maya@home.test", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, p.ID, logged.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(context.Background(), "maya@home.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDeactivateBlocksLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), registerParams())
	require.NoError(t, err)

	got, err := svc.Deactivate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, _, err = svc.Login(context.Background(), "maya@home.test", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrAccountInactive)

	_, err = svc.Deactivate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestUpdateMedicalHistory(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), registerParams())
	require.NoError(t, err)

	history := []string{"asthma", "penicillin allergy"}
	got, err := svc.UpdateMedicalHistory(context.Background(), p.ID, history)
	require.NoError(t, err)
	assert.Equal(t, history, got.MedicalHistory)

	_, err = svc.UpdateMedicalHistory(context.Background(), uuid.New(), history)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
