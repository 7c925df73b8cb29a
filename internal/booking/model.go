package booking

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caresched/caresched/internal/availability"
)

type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusInProgress  AppointmentStatus = "in_progress"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusNoShow      AppointmentStatus = "no_show"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransition encodes the appointment state machine. CANCELLED and
// COMPLETED are absorbing. RESCHEDULED re-enters the active lifecycle; it
// only marks that the appointment's slot changed at least once.
func CanTransition(from, to AppointmentStatus) bool {
	if from.IsTerminal() || from == to {
		return false
	}
	switch from {
	case StatusScheduled:
		switch to {
		case StatusConfirmed, StatusInProgress, StatusCancelled, StatusRescheduled, StatusNoShow:
			return true
		}
		return false
	case StatusConfirmed, StatusInProgress, StatusNoShow, StatusRescheduled:
		switch to {
		case StatusConfirmed, StatusInProgress, StatusCancelled, StatusRescheduled, StatusNoShow, StatusCompleted:
			return true
		}
		return false
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentPartial   PaymentStatus = "partial"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentPartial, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

// CancelActor records who initiated a cancellation.
type CancelActor string

const (
	CancelledByPatient  CancelActor = "patient"
	CancelledByProvider CancelActor = "provider"
)

// Appointment binds a patient to a booked slot. The slot's occupancy state
// is the source of truth for "is this time taken"; the appointment is the
// source of truth for who, why, and how paid.
type Appointment struct {
	ID                 uuid.UUID
	SlotID             uuid.UUID
	ProviderID         uuid.UUID
	PatientID          uuid.UUID
	AppointmentType    availability.AppointmentType
	Status             AppointmentStatus
	PaymentStatus      PaymentStatus
	ScheduledStart     time.Time
	ScheduledEnd       time.Time
	ActualStart        *time.Time
	ActualEnd          *time.Time
	Location           availability.Location
	ContactPhone       *string
	ContactEmail       *string
	Symptoms           *string
	MedicalNotes       *string
	Prescription       *string
	FollowUpRequired   bool
	FollowUpDate       *time.Time
	BaseFee            decimal.Decimal
	InsuranceCoverage  decimal.Decimal
	PatientPayment     decimal.Decimal
	Currency           string
	BookingReference   string
	CancellationReason *string
	CancelledBy        *CancelActor
	CancelledAt        *time.Time
	ReminderSent       bool
	ReminderSentAt     *time.Time
	ConfirmationSent   bool
	ConfirmationSentAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
)

// EventLog is one row of the appointment audit trail. Payload is
// event-specific JSON.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// NewAppointmentReference mints a human-shareable booking reference. It is
// preserved across reschedules.
func NewAppointmentReference() string {
	return newReference("APT")
}

// NewSlotReference mints a slot-side reference, distinct in pattern from
// appointment references.
func NewSlotReference() string {
	return newReference("SLT")
}

func newReference(prefix string) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(hex.EncodeToString(id[:4])))
}
