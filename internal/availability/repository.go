package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWindowNotFound = errors.New("availability window not found")
	ErrSlotNotFound   = errors.New("slot not found")
)

// SlotFilter selects slots for retrieval. The UTC range is half-open:
// [FromUTC, ToUTC).
type SlotFilter struct {
	ProviderID      uuid.UUID
	FromUTC         time.Time
	ToUTC           time.Time
	Status          *AvailabilityStatus
	AppointmentType *AppointmentType
}

// SlotUpdate is a partial slot mutation; nil fields are left untouched.
type SlotUpdate struct {
	Status          *AvailabilityStatus
	AppointmentType *AppointmentType
}

// SlotWithWindow pairs a slot with its parent window so retrieval can
// surface location and pricing without a second round trip.
type SlotWithWindow struct {
	Slot   Slot
	Window Window
}

// Repository contains all DB interactions needed by the availability
// service.
type Repository interface {
	// ListWindowsOnDate returns a provider's windows for one calendar date,
	// restricted to the given statuses. Used by the conflict detector.
	ListWindowsOnDate(ctx context.Context, providerID uuid.UUID, date time.Time, statuses []AvailabilityStatus) ([]Window, error)

	// CreateWindowsWithSlots persists the full window set plus the full slot
	// set as one transaction; either everything commits or nothing does.
	CreateWindowsWithSlots(ctx context.Context, windows []Window, slots []Slot) error

	GetWindowByID(ctx context.Context, id uuid.UUID) (*Window, error)
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)

	ListSlots(ctx context.Context, f SlotFilter) ([]SlotWithWindow, error)

	UpdateSlot(ctx context.Context, id uuid.UUID, upd SlotUpdate) (*Slot, error)

	// DeleteSlot removes a single slot row.
	DeleteSlot(ctx context.Context, id uuid.UUID) error

	// DeleteWindowCascade removes every slot under a window and the window
	// itself in one transaction.
	DeleteWindowCascade(ctx context.Context, windowID uuid.UUID) error
}
