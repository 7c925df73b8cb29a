package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/patient"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotNotAvailable    = errors.New("slot is not available for booking")
	ErrReferenceCollision  = errors.New("booking reference already in use")
)

// ListFilter narrows appointment listings.
type ListFilter struct {
	Status *AppointmentStatus
	Limit  int
	Offset int
}

// UpdateParams carries the partial-update fields for an appointment. Nil
// pointers leave the column untouched. The service layer decides which
// fields each caller role may set.
type UpdateParams struct {
	Status           *AppointmentStatus
	PaymentStatus    *PaymentStatus
	Symptoms         *string
	ContactPhone     *string
	ContactEmail     *string
	MedicalNotes     *string
	Prescription     *string
	FollowUpRequired *bool
	FollowUpDate     *time.Time
	ActualStart      *time.Time
	ActualEnd        *time.Time
}

type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetSlotByID(ctx context.Context, id uuid.UUID) (*availability.Slot, error)
	GetWindowByID(ctx context.Context, id uuid.UUID) (*availability.Window, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentByReference(ctx context.Context, ref string) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, f ListFilter) ([]Appointment, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, f ListFilter) ([]Appointment, error)

	// ExecuteBooking atomically claims the slot (AVAILABLE -> BOOKED with a
	// compare-and-set), bumps the window's occupancy counter, and inserts
	// the appointment row. Returns ErrSlotNotAvailable when the claim loses
	// the race and ErrReferenceCollision when the generated booking
	// reference is already taken; the whole unit rolls back either way.
	ExecuteBooking(ctx context.Context, appt *Appointment, slotRef string) error

	// ExecuteCancel persists the already-mutated appointment's cancel
	// fields, releases its slot back to AVAILABLE, and decrements the
	// window's occupancy counter, floored at zero.
	ExecuteCancel(ctx context.Context, appt *Appointment) error

	// ExecuteReschedule claims newSlot for the appointment's patient,
	// carrying over the old slot's booking reference, releases the old
	// slot, adjusts both windows' occupancy, and repoints the appointment.
	ExecuteReschedule(ctx context.Context, appt *Appointment, newSlot *availability.Slot) error

	UpdateAppointment(ctx context.Context, id uuid.UUID, p UpdateParams) (*Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
