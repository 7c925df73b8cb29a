package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/identity"
	redisclient "github.com/caresched/caresched/internal/redis"
)

var (
	ErrSlotBeingBooked   = errors.New("slot is currently being booked by another patient")
	ErrNotOwner          = errors.New("appointment does not belong to this account")
	ErrAlreadyFinalized  = errors.New("appointment is already in a terminal state")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	ErrInvalidStatus     = errors.New("invalid appointment status")
	ErrSameSlot          = errors.New("appointment already occupies that slot")
	ErrPatientInactive   = errors.New("patient account is deactivated")
	ErrFieldNotPermitted = errors.New("field may not be updated by this role")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{repo: repo, locker: locker, log: log}
}

// BookParams carries a patient's booking request for a single slot.
type BookParams struct {
	SlotID            uuid.UUID
	AppointmentType   *availability.AppointmentType
	Symptoms          *string
	ContactPhone      *string
	ContactEmail      *string
	InsuranceCoverage decimal.Decimal
	PatientPayment    decimal.Decimal
}

// Book claims the slot for the patient. The slot-keyed lock serializes
// concurrent attempts; the compare-and-set inside ExecuteBooking is the
// final arbiter, so exactly one of N racing patients wins.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, params BookParams) (*Appointment, error) {
	p, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrPatientInactive
	}

	slot, err := s.repo.GetSlotByID(ctx, params.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != availability.StatusAvailable {
		return nil, ErrSlotNotAvailable
	}

	window, err := s.repo.GetWindowByID(ctx, slot.WindowID)
	if err != nil {
		return nil, err
	}

	apptType := slot.AppointmentType
	if params.AppointmentType != nil {
		if !params.AppointmentType.Valid() {
			return nil, fmt.Errorf("unknown appointment type %q", *params.AppointmentType)
		}
		apptType = *params.AppointmentType
	}

	appt := &Appointment{
		ID:                uuid.New(),
		SlotID:            slot.ID,
		ProviderID:        slot.ProviderID,
		PatientID:         patientID,
		AppointmentType:   apptType,
		Status:            StatusScheduled,
		PaymentStatus:     PaymentPending,
		ScheduledStart:    slot.StartTime,
		ScheduledEnd:      slot.EndTime,
		Location:          window.Location,
		ContactPhone:      params.ContactPhone,
		ContactEmail:      params.ContactEmail,
		Symptoms:          params.Symptoms,
		BaseFee:           window.Pricing.BaseFee,
		InsuranceCoverage: params.InsuranceCoverage,
		PatientPayment:    params.PatientPayment,
		Currency:          window.Pricing.Currency,
		BookingReference:  NewAppointmentReference(),
	}

	err = s.locker.WithLock(ctx, redisclient.SlotKey(slot.ID), func(ctx context.Context) error {
		// References are short enough to collide eventually; a collision
		// rolls the transaction back, so retry with fresh ones.
		for attempt := 0; ; attempt++ {
			err := s.repo.ExecuteBooking(ctx, appt, NewSlotReference())
			if errors.Is(err, ErrReferenceCollision) && attempt < 2 {
				appt.BookingReference = NewAppointmentReference()
				continue
			}
			return err
		}
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentBooked, map[string]any{
		"slot_id":           slot.ID,
		"patient_id":        patientID,
		"booking_reference": appt.BookingReference,
	})

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("booking_reference", appt.BookingReference).
		Str("slot_id", slot.ID.String()).
		Str("patient_id", patientID.String()).
		Msg("appointment booked")

	return s.repo.GetAppointmentByID(ctx, appt.ID)
}

// Cancel releases the appointment's slot and records who cancelled and why.
// Pending payments are voided; settled ones are marked for refund.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor CancelActor, actorID uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(appt, actor, actorID); err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, ErrAlreadyFinalized
	}

	now := time.Now().UTC()
	appt.Status = StatusCancelled
	appt.CancellationReason = &reason
	appt.CancelledBy = &actor
	appt.CancelledAt = &now
	switch appt.PaymentStatus {
	case PaymentPaid, PaymentPartial:
		appt.PaymentStatus = PaymentRefunded
	default:
		appt.PaymentStatus = PaymentCancelled
	}

	if err := s.repo.ExecuteCancel(ctx, appt); err != nil {
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentCancelled, map[string]any{
		"cancelled_by": actor,
		"reason":       reason,
	})

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("cancelled_by", string(actor)).
		Msg("appointment cancelled")

	return s.repo.GetAppointmentByID(ctx, id)
}

// Reschedule moves the appointment onto newSlotID. The booking reference is
// preserved; the released slot becomes available again.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, actor CancelActor, actorID uuid.UUID, newSlotID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(appt, actor, actorID); err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, ErrAlreadyFinalized
	}
	if appt.SlotID == newSlotID {
		return nil, ErrSameSlot
	}

	newSlot, err := s.repo.GetSlotByID(ctx, newSlotID)
	if err != nil {
		return nil, err
	}
	if newSlot.Status != availability.StatusAvailable {
		return nil, ErrSlotNotAvailable
	}

	err = s.locker.WithLock(ctx, redisclient.SlotKey(newSlot.ID), func(ctx context.Context) error {
		return s.repo.ExecuteReschedule(ctx, appt, newSlot)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentRescheduled, map[string]any{
		"old_slot_id": appt.SlotID,
		"new_slot_id": newSlot.ID,
	})

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("old_slot_id", appt.SlotID.String()).
		Str("new_slot_id", newSlot.ID.String()).
		Msg("appointment rescheduled")

	return s.repo.GetAppointmentByID(ctx, id)
}

// Update applies a partial update. Patients may only touch their own
// contact and symptom fields; providers additionally manage clinical
// fields, payment status, and status transitions.
func (s *Service) Update(ctx context.Context, id uuid.UUID, role identity.Role, actorID uuid.UUID, p UpdateParams) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch role {
	case identity.RolePatient:
		if appt.PatientID != actorID {
			return nil, ErrNotOwner
		}
		if p.Status != nil || p.PaymentStatus != nil || p.MedicalNotes != nil ||
			p.Prescription != nil || p.FollowUpRequired != nil || p.FollowUpDate != nil ||
			p.ActualStart != nil || p.ActualEnd != nil {
			return nil, ErrFieldNotPermitted
		}
	case identity.RoleProvider:
		if appt.ProviderID != actorID {
			return nil, ErrNotOwner
		}
	default:
		return nil, ErrNotOwner
	}

	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if !CanTransition(appt.Status, *p.Status) {
			if appt.Status.IsTerminal() {
				return nil, ErrAlreadyFinalized
			}
			return nil, ErrInvalidTransition
		}
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	return s.repo.UpdateAppointment(ctx, id, p)
}

// GetByID returns the appointment when the caller is a party to it.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, role identity.Role, actorID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(appt, role, actorID); err != nil {
		return nil, err
	}
	return appt, nil
}

// GetByReference resolves a booking reference for the caller.
func (s *Service) GetByReference(ctx context.Context, ref string, role identity.Role, actorID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(appt, role, actorID); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, f ListFilter) ([]Appointment, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByPatient(ctx, patientID, f)
}

func (s *Service) ListForProvider(ctx context.Context, providerID uuid.UUID, f ListFilter) ([]Appointment, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByProvider(ctx, providerID, f)
}

func checkOwnership(appt *Appointment, actor CancelActor, actorID uuid.UUID) error {
	switch actor {
	case CancelledByPatient:
		if appt.PatientID != actorID {
			return ErrNotOwner
		}
	case CancelledByProvider:
		if appt.ProviderID != actorID {
			return ErrNotOwner
		}
	default:
		return ErrNotOwner
	}
	return nil
}

func checkAccess(appt *Appointment, role identity.Role, actorID uuid.UUID) error {
	switch role {
	case identity.RolePatient:
		if appt.PatientID != actorID {
			return ErrNotOwner
		}
	case identity.RoleProvider:
		if appt.ProviderID != actorID {
			return ErrNotOwner
		}
	default:
		return ErrNotOwner
	}
	return nil
}

// logEvent appends an audit trail row. A failed write never fails the
// operation that produced it.
func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert appointment event")
	}
}
