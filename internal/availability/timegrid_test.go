package availability

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow(tz string, date time.Time, start, end WallClock, slotMin, breakMin int) *Window {
	return &Window{
		ID:              uuid.New(),
		ProviderID:      uuid.New(),
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		Timezone:        tz,
		SlotDuration:    slotMin,
		BreakDuration:   breakMin,
		Status:          StatusAvailable,
		AppointmentType: TypeConsultation,
	}
}

func TestGenerateSlotsNewYorkWinter(t *testing.T) {
	// 09:00-17:00 Eastern on a February date is UTC-5, and an 8 hour
	// window at 30+15 minute spacing yields floor(480/45) = 10 slots.
	w := testWindow(
		"America/New_York",
		time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		WallClock{Hour: 9}, WallClock{Hour: 17},
		30, 15,
	)

	slots := GenerateSlots(w)
	require.Len(t, slots, 10)

	assert.Equal(t, time.Date(2024, 2, 15, 14, 0, 0, 0, time.UTC), slots[0].StartTime)
	assert.Equal(t, time.Date(2024, 2, 15, 14, 30, 0, 0, time.UTC), slots[0].EndTime)

	// Consecutive starts are spaced by slot + break.
	for i := 1; i < len(slots); i++ {
		assert.Equal(t, 45*time.Minute, slots[i].StartTime.Sub(slots[i-1].StartTime))
	}

	last := slots[len(slots)-1]
	assert.Equal(t, time.Date(2024, 2, 15, 20, 45, 0, 0, time.UTC), last.StartTime)

	for _, s := range slots {
		assert.Equal(t, StatusAvailable, s.Status)
		assert.Equal(t, w.ID, s.WindowID)
		assert.Equal(t, TypeConsultation, s.AppointmentType)
	}
}

func TestGenerateSlotsSummerOffset(t *testing.T) {
	// Same wall-clock window in July is UTC-4.
	w := testWindow(
		"America/New_York",
		time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		WallClock{Hour: 9}, WallClock{Hour: 17},
		30, 15,
	)

	slots := GenerateSlots(w)
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2024, 7, 15, 13, 0, 0, 0, time.UTC), slots[0].StartTime)
}

func TestGenerateSlotsUnknownTimezoneFallsBackToUTC(t *testing.T) {
	w := testWindow(
		"Mars/Olympus_Mons",
		time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		WallClock{Hour: 9}, WallClock{Hour: 10},
		30, 0,
	)

	slots := GenerateSlots(w)
	require.Len(t, slots, 2)
	assert.Equal(t, time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC), slots[0].StartTime)
}

func TestSlotCountDropsPartialTrailingSlot(t *testing.T) {
	// 09:00-10:00 with 45 minute slots fits one slot, not two.
	assert.Equal(t, 1, SlotCount(WallClock{Hour: 9}, WallClock{Hour: 10}, 45, 0))
	// Exactly divisible.
	assert.Equal(t, 2, SlotCount(WallClock{Hour: 9}, WallClock{Hour: 10}, 30, 0))
	// Break time counts against the window.
	assert.Equal(t, 1, SlotCount(WallClock{Hour: 9}, WallClock{Hour: 10}, 30, 15))
	// Degenerate inputs.
	assert.Equal(t, 0, SlotCount(WallClock{Hour: 10}, WallClock{Hour: 9}, 30, 0))
	assert.Equal(t, 0, SlotCount(WallClock{Hour: 9}, WallClock{Hour: 10}, 0, 0))
}

func TestDeclarationValidate(t *testing.T) {
	base := Declaration{
		Date:         time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		StartTime:    WallClock{Hour: 9},
		EndTime:      WallClock{Hour: 17},
		Timezone:     "UTC",
		SlotDuration: 30,
	}

	assert.NoError(t, base.Validate())

	reversed := base
	reversed.StartTime, reversed.EndTime = reversed.EndTime, reversed.StartTime
	assert.ErrorIs(t, reversed.Validate(), ErrEndNotAfterStart)

	zeroDuration := base
	zeroDuration.SlotDuration = 0
	assert.ErrorIs(t, zeroDuration.Validate(), ErrInvalidSlotDuration)

	recurringNoPattern := base
	recurringNoPattern.IsRecurring = true
	assert.ErrorIs(t, recurringNoPattern.Validate(), ErrInvalidRecurrence)

	pattern := RecurrenceWeekly
	recurringNoEnd := base
	recurringNoEnd.IsRecurring = true
	recurringNoEnd.RecurrencePattern = &pattern
	assert.ErrorIs(t, recurringNoEnd.Validate(), ErrInvalidRecurrenceEnd)

	endBeforeStart := recurringNoEnd
	bad := base.Date.AddDate(0, 0, -1)
	endBeforeStart.RecurrenceEndDate = &bad
	assert.ErrorIs(t, endBeforeStart.Validate(), ErrInvalidRecurrenceEnd)
}

func TestOccurrenceDates(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	single := Declaration{Date: start}
	assert.Equal(t, []time.Time{start}, single.OccurrenceDates())

	weekly := RecurrenceWeekly
	end := start.AddDate(0, 0, 21)
	d := Declaration{
		Date:              start,
		IsRecurring:       true,
		RecurrencePattern: &weekly,
		RecurrenceEndDate: &end,
	}

	dates := d.OccurrenceDates()
	// End date is inclusive: Feb 1, 8, 15, 22.
	require.Len(t, dates, 4)
	assert.Equal(t, start, dates[0])
	assert.Equal(t, end, dates[3])

	daily := RecurrenceDaily
	d.RecurrencePattern = &daily
	shortEnd := start.AddDate(0, 0, 2)
	d.RecurrenceEndDate = &shortEnd
	assert.Len(t, d.OccurrenceDates(), 3)

	monthly := RecurrenceMonthly
	d.RecurrencePattern = &monthly
	monthEnd := start.AddDate(0, 2, 0)
	d.RecurrenceEndDate = &monthEnd
	assert.Len(t, d.OccurrenceDates(), 3)
}

func TestOccurrenceDatesMonthlySkipsShortMonths(t *testing.T) {
	monthly := RecurrenceMonthly
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	d := Declaration{
		Date:              start,
		IsRecurring:       true,
		RecurrencePattern: &monthly,
		RecurrenceEndDate: &end,
	}

	// February and April have no 31st, so the series stays anchored to the
	// 31st and those months are absent. No date may drift to the 1st or 2nd.
	want := []time.Time{
		start,
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		end,
	}
	assert.Equal(t, want, d.OccurrenceDates())

	day29 := time.Date(2023, 1, 29, 0, 0, 0, 0, time.UTC)
	end29 := time.Date(2023, 4, 29, 0, 0, 0, 0, time.UTC)
	d.Date = day29
	d.RecurrenceEndDate = &end29
	dates := d.OccurrenceDates()
	// 2023 is not a leap year, so February is skipped.
	require.Len(t, dates, 3)
	for _, dt := range dates {
		assert.Equal(t, 29, dt.Day())
	}
}

func TestParseWallClock(t *testing.T) {
	wc, err := ParseWallClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, WallClock{Hour: 9, Minute: 30}, wc)
	assert.Equal(t, 570, wc.Minutes())
	assert.Equal(t, "09:30", wc.String())

	_, err = ParseWallClock("not a time")
	assert.Error(t, err)
}
