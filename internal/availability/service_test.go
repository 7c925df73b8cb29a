package availability

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/caresched/caresched/internal/redis"
)

// fakeLocker runs the critical section inline; busy simulates a held lock.
type fakeLocker struct {
	busy bool
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if l.busy {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

type fakeRepo struct {
	windows map[uuid.UUID]*Window
	slots   map[uuid.UUID]*Slot

	persistCalls int
	deletedSlots []uuid.UUID
	cascaded     []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		windows: make(map[uuid.UUID]*Window),
		slots:   make(map[uuid.UUID]*Slot),
	}
}

func (r *fakeRepo) ListWindowsOnDate(_ context.Context, providerID uuid.UUID, date time.Time, statuses []AvailabilityStatus) ([]Window, error) {
	var out []Window
	for _, w := range r.windows {
		if w.ProviderID != providerID || !w.Date.Equal(DateOnly(date)) {
			continue
		}
		for _, st := range statuses {
			if w.Status == st {
				out = append(out, *w)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateWindowsWithSlots(_ context.Context, windows []Window, slots []Slot) error {
	r.persistCalls++
	for i := range windows {
		w := windows[i]
		r.windows[w.ID] = &w
	}
	for i := range slots {
		s := slots[i]
		r.slots[s.ID] = &s
	}
	return nil
}

func (r *fakeRepo) GetWindowByID(_ context.Context, id uuid.UUID) (*Window, error) {
	w, ok := r.windows[id]
	if !ok {
		return nil, ErrWindowNotFound
	}
	return w, nil
}

func (r *fakeRepo) GetSlotByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return s, nil
}

func (r *fakeRepo) ListSlots(_ context.Context, f SlotFilter) ([]SlotWithWindow, error) {
	var out []SlotWithWindow
	for _, s := range r.slots {
		if s.ProviderID != f.ProviderID {
			continue
		}
		if s.StartTime.Before(f.FromUTC) || !s.StartTime.Before(f.ToUTC) {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		if f.AppointmentType != nil && s.AppointmentType != *f.AppointmentType {
			continue
		}
		w := r.windows[s.WindowID]
		if w == nil {
			w = &Window{}
		}
		out = append(out, SlotWithWindow{Slot: *s, Window: *w})
	}
	// Repository contract: ordered by slot start time.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Slot.StartTime.Before(out[j].Slot.StartTime)
	})
	return out, nil
}

func (r *fakeRepo) UpdateSlot(_ context.Context, id uuid.UUID, upd SlotUpdate) (*Slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if upd.Status != nil {
		s.Status = *upd.Status
	}
	if upd.AppointmentType != nil {
		s.AppointmentType = *upd.AppointmentType
	}
	return s, nil
}

func (r *fakeRepo) DeleteSlot(_ context.Context, id uuid.UUID) error {
	r.deletedSlots = append(r.deletedSlots, id)
	delete(r.slots, id)
	return nil
}

func (r *fakeRepo) DeleteWindowCascade(_ context.Context, windowID uuid.UUID) error {
	r.cascaded = append(r.cascaded, windowID)
	for id, s := range r.slots {
		if s.WindowID == windowID {
			delete(r.slots, id)
		}
	}
	delete(r.windows, windowID)
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, &fakeLocker{}, zerolog.Nop())
}

func baseDeclaration() Declaration {
	return Declaration{
		Date:            time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		StartTime:       WallClock{Hour: 9},
		EndTime:         WallClock{Hour: 17},
		Timezone:        "America/New_York",
		SlotDuration:    30,
		BreakDuration:   15,
		MaxAppointments: 1,
		AppointmentType: TypeConsultation,
		Location:        Location{Type: LocationClinic, City: "Boston"},
		Pricing: Pricing{
			BaseFee:  decimal.NewFromInt(150),
			Currency: "USD",
		},
	}
}

func TestCreateSingleDay(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	result, err := svc.Create(context.Background(), uuid.New(), baseDeclaration())
	require.NoError(t, err)

	assert.Equal(t, 1, result.WindowsCreated)
	assert.Equal(t, 10, result.SlotsCreated)
	assert.Equal(t, "2024-02-15", result.DateRangeStart)
	assert.Equal(t, "2024-02-15", result.DateRangeEnd)
	assert.Equal(t, 1, repo.persistCalls)
	assert.Len(t, repo.slots, 10)
}

func TestCreateRecurringMaterializesAllDates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	decl := baseDeclaration()
	pattern := RecurrenceWeekly
	end := decl.Date.AddDate(0, 0, 21)
	decl.IsRecurring = true
	decl.RecurrencePattern = &pattern
	decl.RecurrenceEndDate = &end

	result, err := svc.Create(context.Background(), uuid.New(), decl)
	require.NoError(t, err)

	assert.Equal(t, 4, result.WindowsCreated)
	assert.Equal(t, 40, result.SlotsCreated)
	assert.Equal(t, "2024-02-15", result.DateRangeStart)
	assert.Equal(t, "2024-03-07", result.DateRangeEnd)
	// One transaction for the whole series.
	assert.Equal(t, 1, repo.persistCalls)
}

func TestCreateRejectsConflictWithoutPersisting(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	providerID := uuid.New()

	_, err := svc.Create(context.Background(), providerID, baseDeclaration())
	require.NoError(t, err)

	overlapping := baseDeclaration()
	overlapping.StartTime = WallClock{Hour: 16}
	overlapping.EndTime = WallClock{Hour: 18}

	_, err = svc.Create(context.Background(), providerID, overlapping)
	assert.ErrorIs(t, err, ErrAvailabilityConflict)
	assert.Equal(t, 1, repo.persistCalls)
}

func TestCreateAdjacentWindowsAllowed(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	providerID := uuid.New()

	_, err := svc.Create(context.Background(), providerID, baseDeclaration())
	require.NoError(t, err)

	adjacent := baseDeclaration()
	adjacent.StartTime = WallClock{Hour: 17}
	adjacent.EndTime = WallClock{Hour: 19}

	_, err = svc.Create(context.Background(), providerID, adjacent)
	assert.NoError(t, err)
}

func TestCreateOtherProviderDoesNotConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), baseDeclaration())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), uuid.New(), baseDeclaration())
	assert.NoError(t, err)
}

func TestCreateLockBusy(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeLocker{busy: true}, zerolog.Nop())

	_, err := svc.Create(context.Background(), uuid.New(), baseDeclaration())
	assert.ErrorIs(t, err, ErrBeingModified)
	assert.Equal(t, 0, repo.persistCalls)
}

func TestCreateInvalidDeclaration(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	decl := baseDeclaration()
	decl.EndTime = WallClock{Hour: 8}

	_, err := svc.Create(context.Background(), uuid.New(), decl)
	assert.ErrorIs(t, err, ErrEndNotAfterStart)
}

func TestGetGroupsByLocalDate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	providerID := uuid.New()

	_, err := svc.Create(context.Background(), providerID, baseDeclaration())
	require.NoError(t, err)

	schedule, err := svc.Get(context.Background(), GetQuery{
		ProviderID: providerID,
		StartDate:  time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC),
		Timezone:   "America/New_York",
	})
	require.NoError(t, err)

	require.Len(t, schedule.Days, 1)
	assert.Equal(t, "2024-02-15", schedule.Days[0].Date)
	assert.Len(t, schedule.Days[0].Slots, 10)
	assert.Equal(t, 10, schedule.Summary.TotalSlots)
	assert.Equal(t, 10, schedule.Summary.AvailableSlots)

	// Rendered in the declared zone, the first slot reads 09:00 again.
	assert.Equal(t, "09:00", schedule.Days[0].Slots[0].StartTime)
}

func TestGetRejectsInvertedRange(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Get(context.Background(), GetQuery{
		ProviderID: uuid.New(),
		StartDate:  time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestUpdateSlotOwnership(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	providerID := uuid.New()

	_, err := svc.Create(context.Background(), providerID, baseDeclaration())
	require.NoError(t, err)

	var slotID uuid.UUID
	for id := range repo.slots {
		slotID = id
		break
	}

	blocked := StatusBlocked
	_, err = svc.UpdateSlot(context.Background(), uuid.New(), slotID, SlotUpdate{Status: &blocked})
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := svc.UpdateSlot(context.Background(), providerID, slotID, SlotUpdate{Status: &blocked})
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, updated.Status)
}

func TestDeleteSlotRules(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	providerID := uuid.New()

	decl := baseDeclaration()
	pattern := RecurrenceDaily
	end := decl.Date.AddDate(0, 0, 1)
	decl.IsRecurring = true
	decl.RecurrencePattern = &pattern
	decl.RecurrenceEndDate = &end

	_, err := svc.Create(context.Background(), providerID, decl)
	require.NoError(t, err)

	var slotID, windowID uuid.UUID
	for id, s := range repo.slots {
		slotID = id
		windowID = s.WindowID
		break
	}

	// A booked slot is not deletable.
	repo.slots[slotID].Status = StatusBooked
	err = svc.DeleteSlot(context.Background(), providerID, slotID, false, "")
	assert.ErrorIs(t, err, ErrSlotBooked)

	repo.slots[slotID].Status = StatusAvailable

	// Wrong provider.
	err = svc.DeleteSlot(context.Background(), uuid.New(), slotID, false, "")
	assert.ErrorIs(t, err, ErrNotOwner)

	// Single delete leaves siblings.
	err = svc.DeleteSlot(context.Background(), providerID, slotID, false, "schedule change")
	require.NoError(t, err)
	assert.Len(t, repo.deletedSlots, 1)
	assert.Empty(t, repo.cascaded)

	// Recurring cascade removes the whole window.
	var siblingID uuid.UUID
	for id, s := range repo.slots {
		if s.WindowID == windowID {
			siblingID = id
			break
		}
	}
	require.NotEqual(t, uuid.Nil, siblingID)

	err = svc.DeleteSlot(context.Background(), providerID, siblingID, true, "vacation")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{windowID}, repo.cascaded)
}
