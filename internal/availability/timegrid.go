package availability

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEndNotAfterStart     = errors.New("end time must be after start time")
	ErrInvalidSlotDuration  = errors.New("slot duration plus break duration must be positive")
	ErrInvalidRecurrence    = errors.New("invalid recurrence pattern")
	ErrInvalidRecurrenceEnd = errors.New("recurrence end date must be after start date")
)

// Declaration is a provider's validated availability request. It is built
// once at the API boundary; the generator and conflict detector only ever
// see this typed form.
type Declaration struct {
	Date                time.Time
	StartTime           WallClock
	EndTime             WallClock
	Timezone            string
	IsRecurring         bool
	RecurrencePattern   *RecurrencePattern
	RecurrenceEndDate   *time.Time
	SlotDuration        int
	BreakDuration       int
	MaxAppointments     int
	AppointmentType     AppointmentType
	Location            Location
	Pricing             Pricing
	Notes               *string
	SpecialRequirements []string
}

// Validate rejects configurations for which slot generation is undefined.
func (d Declaration) Validate() error {
	if !d.StartTime.Before(d.EndTime) {
		return ErrEndNotAfterStart
	}
	if d.SlotDuration+d.BreakDuration <= 0 {
		return ErrInvalidSlotDuration
	}
	if d.IsRecurring {
		if d.RecurrencePattern == nil || !d.RecurrencePattern.Valid() {
			return ErrInvalidRecurrence
		}
		if d.RecurrenceEndDate == nil || !d.RecurrenceEndDate.After(d.Date) {
			return ErrInvalidRecurrenceEnd
		}
	}
	return nil
}

// OccurrenceDates materializes the calendar dates this declaration covers.
// Single-day declarations produce exactly one date; recurring ones step
// from the start date to the recurrence end date inclusive.
func (d Declaration) OccurrenceDates() []time.Time {
	if !d.IsRecurring || d.RecurrencePattern == nil || d.RecurrenceEndDate == nil {
		return []time.Time{d.Date}
	}

	var step func(time.Time) time.Time
	switch *d.RecurrencePattern {
	case RecurrenceDaily:
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	case RecurrenceWeekly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case RecurrenceMonthly:
		return d.monthlyDates()
	default:
		return []time.Time{d.Date}
	}

	var dates []time.Time
	for cur := d.Date; !cur.After(*d.RecurrenceEndDate); cur = step(cur) {
		dates = append(dates, cur)
	}
	return dates
}

// monthlyDates steps by calendar month, anchored to the start date's day of
// month. Months without that day (a Jan 31 series in February, for example)
// are skipped rather than rolled into the next month: time.AddDate would
// normalize Feb 31 to Mar 2 and the day would drift.
func (d Declaration) monthlyDates() []time.Time {
	year, month, day := d.Date.Date()

	var dates []time.Time
	for n := 0; ; n++ {
		cur := time.Date(year, month+time.Month(n), day, 0, 0, 0, 0, d.Date.Location())
		if cur.Day() != day {
			continue
		}
		if cur.After(*d.RecurrenceEndDate) {
			return dates
		}
		dates = append(dates, cur)
	}
}

// SlotCount is floor(window minutes / effective duration). A trailing
// period shorter than a full slot is dropped.
func SlotCount(start, end WallClock, slotDuration, breakDuration int) int {
	effective := slotDuration + breakDuration
	if effective <= 0 {
		return 0
	}
	total := end.Minutes() - start.Minutes()
	if total <= 0 {
		return 0
	}
	return total / effective
}

// GenerateSlots expands one persisted window into its ordered slot
// sequence. Each wall-clock slot time is interpreted in the window's
// declared timezone and stored as a UTC instant, which keeps range queries
// correct across DST transitions in the source zone. An unrecognized
// timezone falls back to UTC.
func GenerateSlots(w *Window) []Slot {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		loc = time.UTC
	}

	count := SlotCount(w.StartTime, w.EndTime, w.SlotDuration, w.BreakDuration)
	effective := w.SlotDuration + w.BreakDuration

	slots := make([]Slot, 0, count)
	for i := 0; i < count; i++ {
		startMinutes := w.StartTime.Minutes() + i*effective
		endMinutes := startMinutes + w.SlotDuration

		startLocal := time.Date(
			w.Date.Year(), w.Date.Month(), w.Date.Day(),
			startMinutes/60, startMinutes%60, 0, 0, loc,
		)
		endLocal := time.Date(
			w.Date.Year(), w.Date.Month(), w.Date.Day(),
			endMinutes/60, endMinutes%60, 0, 0, loc,
		)

		slots = append(slots, Slot{
			ID:              uuid.New(),
			WindowID:        w.ID,
			ProviderID:      w.ProviderID,
			StartTime:       startLocal.UTC(),
			EndTime:         endLocal.UTC(),
			Status:          StatusAvailable,
			AppointmentType: w.AppointmentType,
		})
	}
	return slots
}

// windowFromDeclaration builds the Window row for a single occurrence date.
func windowFromDeclaration(providerID uuid.UUID, d Declaration, date time.Time) Window {
	return Window{
		ID:                  uuid.New(),
		ProviderID:          providerID,
		Date:                date,
		StartTime:           d.StartTime,
		EndTime:             d.EndTime,
		Timezone:            d.Timezone,
		IsRecurring:         d.IsRecurring,
		RecurrencePattern:   d.RecurrencePattern,
		RecurrenceEndDate:   d.RecurrenceEndDate,
		SlotDuration:        d.SlotDuration,
		BreakDuration:       d.BreakDuration,
		Status:              StatusAvailable,
		MaxAppointments:     d.MaxAppointments,
		CurrentAppointments: 0,
		AppointmentType:     d.AppointmentType,
		Location:            d.Location,
		Pricing:             d.Pricing,
		Notes:               d.Notes,
		SpecialRequirements: d.SpecialRequirements,
	}
}

// DateOnly normalizes a timestamp to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
