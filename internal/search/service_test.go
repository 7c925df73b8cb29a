package search

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresched/caresched/internal/availability"
)

type fakeRepo struct {
	rows []Row
	got  Criteria
}

func (r *fakeRepo) Search(_ context.Context, c Criteria) ([]Row, error) {
	r.got = c
	return r.rows, nil
}

func row(providerID uuid.UUID, firstName string, start time.Time, fee int64) Row {
	return Row{
		SlotID:          uuid.New(),
		WindowID:        uuid.New(),
		ProviderID:      providerID,
		FirstName:       firstName,
		LastName:        "Rivera",
		Specialization:  "Cardiology",
		StartTime:       start,
		EndTime:         start.Add(30 * time.Minute),
		AppointmentType: availability.TypeConsultation,
		Location:        availability.Location{Type: availability.LocationClinic},
		Pricing: availability.Pricing{
			BaseFee:  decimal.NewFromInt(fee),
			Currency: "USD",
		},
	}
}

func TestSearchGroupsByProvider(t *testing.T) {
	providerA := uuid.New()
	providerB := uuid.New()
	base := time.Date(2024, 2, 15, 14, 0, 0, 0, time.UTC)

	repo := &fakeRepo{rows: []Row{
		row(providerA, "Ana", base, 100),
		row(providerA, "Ana", base.Add(time.Hour), 100),
		row(providerB, "Ben", base.Add(30*time.Minute), 250),
	}}
	svc := NewService(repo, zerolog.Nop())

	result, err := svc.Search(context.Background(), Criteria{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalSlots)
	require.Len(t, result.Providers, 2)

	first := result.Providers[0]
	assert.Equal(t, providerA, first.ProviderID)
	assert.Equal(t, "Dr. Ana Rivera", first.ProviderName)
	require.Len(t, first.AvailableSlots, 2)

	second := result.Providers[1]
	assert.Equal(t, providerB, second.ProviderID)
	require.Len(t, second.AvailableSlots, 1)
}

func TestSearchRendersDisplayTimezone(t *testing.T) {
	providerID := uuid.New()
	start := time.Date(2024, 2, 15, 14, 0, 0, 0, time.UTC) // 09:00 Eastern

	repo := &fakeRepo{rows: []Row{row(providerID, "Ana", start, 100)}}
	svc := NewService(repo, zerolog.Nop())

	result, err := svc.Search(context.Background(), Criteria{Timezone: "America/New_York"})
	require.NoError(t, err)

	slot := result.Providers[0].AvailableSlots[0]
	assert.Equal(t, "2024-02-15", slot.Date)
	assert.Equal(t, "09:00", slot.StartTime)
	assert.Equal(t, "09:30", slot.EndTime)
	assert.Equal(t, "America/New_York", result.Timezone)
}

func TestSearchUnknownTimezoneFallsBackToUTC(t *testing.T) {
	providerID := uuid.New()
	start := time.Date(2024, 2, 15, 14, 0, 0, 0, time.UTC)

	repo := &fakeRepo{rows: []Row{row(providerID, "Ana", start, 100)}}
	svc := NewService(repo, zerolog.Nop())

	result, err := svc.Search(context.Background(), Criteria{Timezone: "Not/AZone"})
	require.NoError(t, err)

	assert.Equal(t, "UTC", result.Timezone)
	assert.Equal(t, "14:00", result.Providers[0].AvailableSlots[0].StartTime)
}

func TestSearchInvalidDateRange(t *testing.T) {
	svc := NewService(&fakeRepo{}, zerolog.Nop())

	from := time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.Search(context.Background(), Criteria{FromDate: &from, ToDate: &to})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestSearchAppliesDefaultLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zerolog.Nop())

	result, err := svc.Search(context.Background(), Criteria{})
	require.NoError(t, err)

	assert.Equal(t, defaultLimit, repo.got.Limit)
	assert.Equal(t, 0, result.TotalSlots)
	assert.Empty(t, result.Providers)
}
