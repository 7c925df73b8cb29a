package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/caresched/caresched/internal/redis"
)

var (
	ErrNotOwner      = errors.New("slot does not belong to the acting provider")
	ErrSlotBooked    = errors.New("cannot delete a slot with an existing booking")
	ErrInvalidRange  = errors.New("end date must be after start date")
	ErrBeingModified = errors.New("availability is currently being modified, please retry")
)

// conflictStatuses are the window statuses the overlap check inspects.
// Cancelled and blocked windows free up their old time range.
var conflictStatuses = []AvailabilityStatus{StatusAvailable, StatusBooked}

// Service owns the relationship between availability windows and the slots
// generated from them.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		log:    log,
	}
}

// CreateResult summarizes an accepted availability declaration.
type CreateResult struct {
	AvailabilityID uuid.UUID
	WindowsCreated int
	SlotsCreated   int
	DateRangeStart string
	DateRangeEnd   string
}

// Create runs the declaration through the Conflict Detector, materializes
// one window per occurrence date, generates the slot grid for each, and
// persists the lot atomically. The whole request is rejected on the first
// conflicting date; no partial window set is ever committed.
//
// Creation for one provider is serialized behind a distributed lock so two
// concurrent declarations cannot both pass the conflict check.
func (s *Service) Create(ctx context.Context, providerID uuid.UUID, decl Declaration) (*CreateResult, error) {
	if err := decl.Validate(); err != nil {
		return nil, err
	}

	var result *CreateResult

	err := s.locker.WithLock(ctx, redisclient.AvailabilityKey(providerID), func(lockCtx context.Context) error {
		dates := decl.OccurrenceDates()

		windows := make([]Window, 0, len(dates))
		var slots []Slot

		for _, date := range dates {
			existing, err := s.repo.ListWindowsOnDate(lockCtx, providerID, date, conflictStatuses)
			if err != nil {
				return fmt.Errorf("list windows for %s: %w", formatDate(date), err)
			}
			if err := DetectConflict(decl.StartTime, decl.EndTime, existing); err != nil {
				return err
			}

			w := windowFromDeclaration(providerID, decl, DateOnly(date))
			windows = append(windows, w)
			slots = append(slots, GenerateSlots(&w)...)
		}

		if err := s.repo.CreateWindowsWithSlots(lockCtx, windows, slots); err != nil {
			return fmt.Errorf("persist windows: %w", err)
		}

		result = &CreateResult{
			AvailabilityID: windows[0].ID,
			WindowsCreated: len(windows),
			SlotsCreated:   len(slots),
			DateRangeStart: formatDate(dates[0]),
			DateRangeEnd:   formatDate(dates[len(dates)-1]),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBeingModified
		}
		return nil, err
	}

	s.log.Info().
		Str("provider_id", providerID.String()).
		Int("windows", result.WindowsCreated).
		Int("slots", result.SlotsCreated).
		Msg("availability created")

	return result, nil
}

// SlotView is one slot rendered in the caller's display timezone.
type SlotView struct {
	SlotID              uuid.UUID          `json:"slot_id"`
	Date                string             `json:"date"`
	StartTime           string             `json:"start_time"`
	EndTime             string             `json:"end_time"`
	Status              AvailabilityStatus `json:"status"`
	AppointmentType     AppointmentType    `json:"appointment_type"`
	Location            Location           `json:"location"`
	Pricing             Pricing            `json:"pricing"`
	SpecialRequirements []string           `json:"special_requirements,omitempty"`
}

type DayGroup struct {
	Date  string     `json:"date"`
	Slots []SlotView `json:"slots"`
}

type ScheduleSummary struct {
	TotalSlots     int `json:"total_slots"`
	AvailableSlots int `json:"available_slots"`
	BookedSlots    int `json:"booked_slots"`
	CancelledSlots int `json:"cancelled_slots"`
}

type Schedule struct {
	ProviderID uuid.UUID       `json:"provider_id"`
	Summary    ScheduleSummary `json:"availability_summary"`
	Days       []DayGroup      `json:"availability"`
}

// GetQuery selects a provider's slots for display.
type GetQuery struct {
	ProviderID      uuid.UUID
	StartDate       time.Time
	EndDate         time.Time
	Status          *AvailabilityStatus
	AppointmentType *AppointmentType
	Timezone        string // display timezone, defaults to UTC
}

// Get returns all slots whose UTC start falls within the date range,
// converted to the display timezone and grouped by local calendar date.
// Storage is always UTC; conversion happens here at read time.
func (s *Service) Get(ctx context.Context, q GetQuery) (*Schedule, error) {
	if !q.EndDate.After(q.StartDate) {
		return nil, ErrInvalidRange
	}

	loc, err := time.LoadLocation(q.Timezone)
	if err != nil || q.Timezone == "" {
		loc = time.UTC
	}

	items, err := s.repo.ListSlots(ctx, SlotFilter{
		ProviderID:      q.ProviderID,
		FromUTC:         DateOnly(q.StartDate),
		ToUTC:           DateOnly(q.EndDate).AddDate(0, 0, 1),
		Status:          q.Status,
		AppointmentType: q.AppointmentType,
	})
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	schedule := &Schedule{ProviderID: q.ProviderID}
	groups := make(map[string]*DayGroup)
	var order []string

	for _, item := range items {
		startLocal := item.Slot.StartTime.In(loc)
		endLocal := item.Slot.EndTime.In(loc)
		dateKey := startLocal.Format("2006-01-02")

		group, ok := groups[dateKey]
		if !ok {
			group = &DayGroup{Date: dateKey}
			groups[dateKey] = group
			order = append(order, dateKey)
		}

		schedule.Summary.TotalSlots++
		switch item.Slot.Status {
		case StatusAvailable:
			schedule.Summary.AvailableSlots++
		case StatusBooked:
			schedule.Summary.BookedSlots++
		case StatusCancelled:
			schedule.Summary.CancelledSlots++
		}

		group.Slots = append(group.Slots, SlotView{
			SlotID:              item.Slot.ID,
			Date:                dateKey,
			StartTime:           startLocal.Format("15:04"),
			EndTime:             endLocal.Format("15:04"),
			Status:              item.Slot.Status,
			AppointmentType:     item.Slot.AppointmentType,
			Location:            item.Window.Location,
			Pricing:             item.Window.Pricing,
			SpecialRequirements: item.Window.SpecialRequirements,
		})
	}

	for _, key := range order {
		schedule.Days = append(schedule.Days, *groups[key])
	}
	return schedule, nil
}

// UpdateSlot applies a partial update to a slot owned by the acting
// provider. Nil fields in the update are ignored.
func (s *Service) UpdateSlot(ctx context.Context, providerID, slotID uuid.UUID, upd SlotUpdate) (*Slot, error) {
	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.ProviderID != providerID {
		return nil, ErrNotOwner
	}

	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("unknown slot status %q", *upd.Status)
	}
	if upd.AppointmentType != nil && !upd.AppointmentType.Valid() {
		return nil, fmt.Errorf("unknown appointment type %q", *upd.AppointmentType)
	}

	return s.repo.UpdateSlot(ctx, slotID, upd)
}

// DeleteSlot removes a slot, or, when deleteRecurring is set and the parent
// window is part of a recurring series, every sibling slot of the same
// window plus the window itself. Booked slots must be cancelled through the
// booking engine first; they are never silently deleted.
func (s *Service) DeleteSlot(ctx context.Context, providerID, slotID uuid.UUID, deleteRecurring bool, reason string) error {
	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.ProviderID != providerID {
		return ErrNotOwner
	}
	if slot.Status == StatusBooked {
		return ErrSlotBooked
	}

	if deleteRecurring {
		window, err := s.repo.GetWindowByID(ctx, slot.WindowID)
		if err != nil {
			return err
		}
		if window.IsRecurring {
			if err := s.repo.DeleteWindowCascade(ctx, slot.WindowID); err != nil {
				return err
			}
			s.log.Info().
				Str("window_id", slot.WindowID.String()).
				Str("reason", reason).
				Msg("recurring availability deleted")
			return nil
		}
	}

	if err := s.repo.DeleteSlot(ctx, slotID); err != nil {
		return err
	}
	s.log.Info().
		Str("slot_id", slotID.String()).
		Str("reason", reason).
		Msg("availability slot deleted")
	return nil
}
