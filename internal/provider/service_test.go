package provider

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
	providers map[uuid.UUID]*Provider
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{providers: make(map[uuid.UUID]*Provider)}
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*Provider, error) {
	for _, p := range r.providers {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, ErrProviderNotFound
}

func (r *fakeRepo) GetByPhone(_ context.Context, phone string) (*Provider, error) {
	for _, p := range r.providers {
		if p.PhoneNumber == phone {
			return p, nil
		}
	}
	return nil, ErrProviderNotFound
}

func (r *fakeRepo) GetByLicense(_ context.Context, license string) (*Provider, error) {
	for _, p := range r.providers {
		if p.LicenseNumber == license {
			return p, nil
		}
	}
	return nil, ErrProviderNotFound
}

func (r *fakeRepo) Create(_ context.Context, p *Provider) error {
	r.providers[p.ID] = p
	return nil
}

func (r *fakeRepo) UpdateVerification(_ context.Context, id uuid.UUID, status VerificationStatus) (*Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	p.Verification = status
	return p, nil
}

func (r *fakeRepo) ListPendingVerification(_ context.Context) ([]Provider, error) {
	var out []Provider
	for _, p := range r.providers {
		if p.Verification == VerificationPending {
			out = append(out, *p)
		}
	}
	return out, nil
}

func newTestService(repo *fakeRepo) *Service {
	hasher := identity.NewHasher(4)
	tokens := identity.NewTokenManager("test-secret", time.Hour)
	return NewService(repo, hasher, tokens, zerolog.Nop())
}

func registerParams() RegisterParams {
	return RegisterParams{
		FirstName:      "Ana",
		LastName:       "Rivera",
		Email:          "ana@clinic.test",
		PhoneNumber:    "+15550100",
		Password:       "a-strong-password",
		Specialization: "Cardiology",
		LicenseNumber:  "MD-123456",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), registerParams())
	require.NoError(t, err)

	assert.Equal(t, VerificationPending, p.Verification)
	assert.True(t, p.IsActive)
	assert.NotEqual(t, "a-strong-password", p.PasswordHash)
	assert.Equal(t, "Dr. Ana Rivera", p.DisplayName())

	loggedIn, token, err := svc.Login(context.Background(), "ana@clinic.test", "a-strong-password")
	require.NoError(t, err)
	assert.Equal(t, p.ID, loggedIn.ID)
	assert.NotEmpty(t, token)

	tokens := identity.NewTokenManager("test-secret", time.Hour)
	claims, err := tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleProvider, claims.Role)
	assert.Equal(t, p.ID, claims.Principal)
}

func TestRegisterDuplicates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), registerParams())
	require.NoError(t, err)

	dupEmail := registerParams()
	dupEmail.PhoneNumber = "+15550199"
	dupEmail.LicenseNumber = "MD-999999"
	_, err = svc.Register(context.Background(), dupEmail)
	assert.ErrorIs(t, err, ErrEmailTaken)

	dupPhone := registerParams()
	dupPhone.Email = "other@clinic.test"
	dupPhone.LicenseNumber = "MD-999999"
	_, err = svc.Register(context.Background(), dupPhone)
	assert.ErrorIs(t, err, ErrPhoneTaken)

	dupLicense := registerParams()
	dupLicense.Email = "other@clinic.test"
	dupLicense.PhoneNumber = "+15550199"
	_, err = svc.Register(context.Background(), dupLicense)
	assert.ErrorIs(t, err, ErrLicenseTaken)
}

func TestLoginFailures(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), registerParams())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ana@clinic.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@clinic.test", "a-strong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	repo.providers[p.ID].IsActive = false
	_, _, err = svc.Login(context.Background(), "ana@clinic.test", "a-strong-password")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestUpdateVerification(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), registerParams())
	require.NoError(t, err)

	pending, err := svc.ListPendingVerification(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	updated, err := svc.UpdateVerification(context.Background(), p.ID, VerificationVerified)
	require.NoError(t, err)
	assert.Equal(t, VerificationVerified, updated.Verification)

	_, err = svc.UpdateVerification(context.Background(), p.ID, VerificationStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	pending, err = svc.ListPendingVerification(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
