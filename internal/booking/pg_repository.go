package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/patient"
)

// PgRepository persists appointments and delegates patient and slot reads
// to the owning packages' repositories.
type PgRepository struct {
	pool     *pgxpool.Pool
	patients patient.Repository
	avail    availability.Repository
}

func NewPgRepository(pool *pgxpool.Pool, patients patient.Repository, avail availability.Repository) *PgRepository {
	return &PgRepository{pool: pool, patients: patients, avail: avail}
}

const appointmentColumns = `
	id, slot_id, provider_id, patient_id, appointment_type,
	status, payment_status, scheduled_start, scheduled_end,
	actual_start, actual_end, location,
	contact_phone, contact_email, symptoms, medical_notes, prescription,
	follow_up_required, follow_up_date,
	base_fee, insurance_coverage, patient_payment, currency,
	booking_reference, cancellation_reason, cancelled_by, cancelled_at,
	reminder_sent, reminder_sent_at, confirmation_sent, confirmation_sent_at,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var cancelledBy *string

	err := row.Scan(
		&a.ID,
		&a.SlotID,
		&a.ProviderID,
		&a.PatientID,
		&a.AppointmentType,
		&a.Status,
		&a.PaymentStatus,
		&a.ScheduledStart,
		&a.ScheduledEnd,
		&a.ActualStart,
		&a.ActualEnd,
		&a.Location,
		&a.ContactPhone,
		&a.ContactEmail,
		&a.Symptoms,
		&a.MedicalNotes,
		&a.Prescription,
		&a.FollowUpRequired,
		&a.FollowUpDate,
		&a.BaseFee,
		&a.InsuranceCoverage,
		&a.PatientPayment,
		&a.Currency,
		&a.BookingReference,
		&a.CancellationReason,
		&cancelledBy,
		&a.CancelledAt,
		&a.ReminderSent,
		&a.ReminderSentAt,
		&a.ConfirmationSent,
		&a.ConfirmationSentAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if cancelledBy != nil {
		actor := CancelActor(*cancelledBy)
		a.CancelledBy = &actor
	}

	return &a, nil
}

// Delegated reads

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return r.patients.GetByID(ctx, id)
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*availability.Slot, error) {
	return r.avail.GetSlotByID(ctx, id)
}

func (r *PgRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*availability.Window, error) {
	return r.avail.GetWindowByID(ctx, id)
}

// Appointment reads

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByReference(ctx context.Context, ref string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE booking_reference = $1`, ref)
	return scanAppointment(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, f ListFilter) ([]Appointment, error) {
	return r.list(ctx, "patient_id", patientID, f)
}

func (r *PgRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, f ListFilter) ([]Appointment, error) {
	return r.list(ctx, "provider_id", providerID, f)
}

func (r *PgRepository) list(ctx context.Context, ownerColumn string, ownerID uuid.UUID, f ListFilter) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ` + ownerColumn + ` = $1`
	args := []any{ownerID}

	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY scheduled_start DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

// Transactional writes

func (r *PgRepository) ExecuteBooking(ctx context.Context, appt *Appointment, slotRef string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Compare-and-set claim. Zero rows means another booking won the race
	// or the slot was removed between check and claim.
	tag, err := tx.Exec(ctx, `
		UPDATE appointment_slots
		SET status = 'booked',
		    patient_id = $2,
		    booking_reference = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'available'`,
		appt.SlotID, appt.PatientID, slotRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotAvailable
	}

	if _, err := tx.Exec(ctx, `
		UPDATE provider_availability
		SET current_appointments = current_appointments + 1,
		    updated_at = NOW()
		WHERE id = (SELECT window_id FROM appointment_slots WHERE id = $1)`,
		appt.SlotID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO appointments (
			id, slot_id, provider_id, patient_id, appointment_type,
			status, payment_status, scheduled_start, scheduled_end,
			location, contact_phone, contact_email, symptoms,
			follow_up_required,
			base_fee, insurance_coverage, patient_payment, currency,
			booking_reference, reminder_sent, confirmation_sent,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, NOW(), NOW()
		)`,
		appt.ID, appt.SlotID, appt.ProviderID, appt.PatientID, appt.AppointmentType,
		appt.Status, appt.PaymentStatus, appt.ScheduledStart, appt.ScheduledEnd,
		appt.Location, appt.ContactPhone, appt.ContactEmail, appt.Symptoms,
		appt.FollowUpRequired,
		appt.BaseFee, appt.InsuranceCoverage, appt.PatientPayment, appt.Currency,
		appt.BookingReference, appt.ReminderSent, appt.ConfirmationSent,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			strings.Contains(pgErr.ConstraintName, "reference") {
			return ErrReferenceCollision
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ExecuteCancel(ctx context.Context, appt *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Guard against a concurrent cancel: only a live appointment may be
	// finalized, so the slot release and occupancy decrement below run at
	// most once per appointment.
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
		    payment_status = $3,
		    cancellation_reason = $4,
		    cancelled_by = $5,
		    cancelled_at = $6,
		    updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('cancelled', 'completed')`,
		appt.ID, appt.Status, appt.PaymentStatus,
		appt.CancellationReason, appt.CancelledBy, appt.CancelledAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyFinalized
	}

	if _, err := tx.Exec(ctx, `
		UPDATE appointment_slots
		SET status = 'available',
		    patient_id = NULL,
		    booking_reference = NULL,
		    updated_at = NOW()
		WHERE id = $1`, appt.SlotID); err != nil {
		return err
	}

	// Occupancy never goes negative even if counters drifted.
	if _, err := tx.Exec(ctx, `
		UPDATE provider_availability
		SET current_appointments = GREATEST(current_appointments - 1, 0),
		    updated_at = NOW()
		WHERE id = (SELECT window_id FROM appointment_slots WHERE id = $1)`,
		appt.SlotID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ExecuteReschedule(ctx context.Context, appt *Appointment, newSlot *availability.Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The new slot inherits the old slot's booking reference so the
	// slot-side paper trail follows the appointment.
	tag, err := tx.Exec(ctx, `
		UPDATE appointment_slots
		SET status = 'booked',
		    patient_id = $3,
		    booking_reference = (SELECT booking_reference FROM appointment_slots WHERE id = $2),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'available'`,
		newSlot.ID, appt.SlotID, appt.PatientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotAvailable
	}

	if _, err := tx.Exec(ctx, `
		UPDATE provider_availability
		SET current_appointments = current_appointments + 1,
		    updated_at = NOW()
		WHERE id = $1`, newSlot.WindowID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE appointment_slots
		SET status = 'available',
		    patient_id = NULL,
		    booking_reference = NULL,
		    updated_at = NOW()
		WHERE id = $1`, appt.SlotID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE provider_availability
		SET current_appointments = GREATEST(current_appointments - 1, 0),
		    updated_at = NOW()
		WHERE id = (SELECT window_id FROM appointment_slots WHERE id = $1)`,
		appt.SlotID); err != nil {
		return err
	}

	apptTag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET slot_id = $2,
		    provider_id = $3,
		    scheduled_start = $4,
		    scheduled_end = $5,
		    status = $6,
		    updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('cancelled', 'completed')`,
		appt.ID, newSlot.ID, newSlot.ProviderID,
		newSlot.StartTime, newSlot.EndTime, StatusRescheduled,
	)
	if err != nil {
		return err
	}
	if apptTag.RowsAffected() == 0 {
		return ErrAlreadyFinalized
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id uuid.UUID, p UpdateParams) (*Appointment, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.PaymentStatus != nil {
		add("payment_status", *p.PaymentStatus)
	}
	if p.Symptoms != nil {
		add("symptoms", *p.Symptoms)
	}
	if p.ContactPhone != nil {
		add("contact_phone", *p.ContactPhone)
	}
	if p.ContactEmail != nil {
		add("contact_email", *p.ContactEmail)
	}
	if p.MedicalNotes != nil {
		add("medical_notes", *p.MedicalNotes)
	}
	if p.Prescription != nil {
		add("prescription", *p.Prescription)
	}
	if p.FollowUpRequired != nil {
		add("follow_up_required", *p.FollowUpRequired)
	}
	if p.FollowUpDate != nil {
		add("follow_up_date", *p.FollowUpDate)
	}
	if p.ActualStart != nil {
		add("actual_start", *p.ActualStart)
	}
	if p.ActualEnd != nil {
		add("actual_end", *p.ActualEnd)
	}

	query := `
		UPDATE appointments
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1
		RETURNING ` + appointmentColumns

	row := r.pool.QueryRow(ctx, query, args...)
	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_events (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, $4)`,
		ev.EventType, ev.AppointmentID, ev.Payload, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment event: %w", err)
	}
	return nil
}
