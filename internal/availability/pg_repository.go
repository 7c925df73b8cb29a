package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const windowColumns = `
	id, provider_id, date, start_time, end_time, timezone,
	is_recurring, recurrence_pattern, recurrence_end_date,
	slot_duration, break_duration, status,
	max_appointments_per_slot, current_appointments,
	appointment_type, location, pricing, notes, special_requirements,
	created_at, updated_at`

const slotColumns = `
	id, window_id, provider_id, slot_start_time, slot_end_time,
	status, patient_id, appointment_type, booking_reference,
	created_at, updated_at`

// Helpers

func scanWindow(row pgx.Row) (*Window, error) {
	var w Window
	var startTime, endTime string
	var pattern *string

	err := row.Scan(
		&w.ID,
		&w.ProviderID,
		&w.Date,
		&startTime,
		&endTime,
		&w.Timezone,
		&w.IsRecurring,
		&pattern,
		&w.RecurrenceEndDate,
		&w.SlotDuration,
		&w.BreakDuration,
		&w.Status,
		&w.MaxAppointments,
		&w.CurrentAppointments,
		&w.AppointmentType,
		&w.Location,
		&w.Pricing,
		&w.Notes,
		&w.SpecialRequirements,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	if w.StartTime, err = ParseWallClock(startTime); err != nil {
		return nil, err
	}
	if w.EndTime, err = ParseWallClock(endTime); err != nil {
		return nil, err
	}
	if pattern != nil {
		p := RecurrencePattern(*pattern)
		w.RecurrencePattern = &p
	}

	return &w, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.WindowID,
		&s.ProviderID,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.PatientID,
		&s.AppointmentType,
		&s.BookingReference,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

// Interface methods

func (r *PgRepository) ListWindowsOnDate(ctx context.Context, providerID uuid.UUID, date time.Time, statuses []AvailabilityStatus) ([]Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM provider_availability
		WHERE provider_id = $1
		  AND date = $2
		  AND status = ANY($3)
	`, providerID, DateOnly(date), statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateWindowsWithSlots(ctx context.Context, windows []Window, slots []Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range windows {
		w := &windows[i]
		var pattern *string
		if w.RecurrencePattern != nil {
			p := string(*w.RecurrencePattern)
			pattern = &p
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO provider_availability (
				id, provider_id, date, start_time, end_time, timezone,
				is_recurring, recurrence_pattern, recurrence_end_date,
				slot_duration, break_duration, status,
				max_appointments_per_slot, current_appointments,
				appointment_type, location, pricing, notes, special_requirements,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
		`,
			w.ID, w.ProviderID, DateOnly(w.Date), w.StartTime.String(), w.EndTime.String(), w.Timezone,
			w.IsRecurring, pattern, w.RecurrenceEndDate,
			w.SlotDuration, w.BreakDuration, w.Status,
			w.MaxAppointments, w.CurrentAppointments,
			w.AppointmentType, w.Location, w.Pricing, w.Notes, w.SpecialRequirements,
		)
		if err != nil {
			return fmt.Errorf("insert window: %w", err)
		}
	}

	for i := range slots {
		s := &slots[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_slots (
				id, window_id, provider_id, slot_start_time, slot_end_time,
				status, patient_id, appointment_type, booking_reference,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
		`,
			s.ID, s.WindowID, s.ProviderID, s.StartTime, s.EndTime,
			s.Status, s.PatientID, s.AppointmentType, s.BookingReference,
		)
		if err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*Window, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+windowColumns+`
		FROM provider_availability
		WHERE id = $1
	`, id)
	return scanWindow(row)
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM appointment_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, f SlotFilter) ([]SlotWithWindow, error) {
	query := `
		SELECT
			s.id, s.window_id, s.provider_id, s.slot_start_time, s.slot_end_time,
			s.status, s.patient_id, s.appointment_type, s.booking_reference,
			s.created_at, s.updated_at,
			w.id, w.provider_id, w.date, w.start_time, w.end_time, w.timezone,
			w.is_recurring, w.recurrence_pattern, w.recurrence_end_date,
			w.slot_duration, w.break_duration, w.status,
			w.max_appointments_per_slot, w.current_appointments,
			w.appointment_type, w.location, w.pricing, w.notes, w.special_requirements,
			w.created_at, w.updated_at
		FROM appointment_slots s
		JOIN provider_availability w ON w.id = s.window_id
		WHERE s.provider_id = $1
		  AND s.slot_start_time >= $2
		  AND s.slot_start_time < $3
	`
	args := []any{f.ProviderID, f.FromUTC, f.ToUTC}

	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	if f.AppointmentType != nil {
		args = append(args, *f.AppointmentType)
		query += fmt.Sprintf(" AND s.appointment_type = $%d", len(args))
	}
	query += " ORDER BY s.slot_start_time"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SlotWithWindow
	for rows.Next() {
		var item SlotWithWindow
		var startTime, endTime string
		var pattern *string

		err := rows.Scan(
			&item.Slot.ID,
			&item.Slot.WindowID,
			&item.Slot.ProviderID,
			&item.Slot.StartTime,
			&item.Slot.EndTime,
			&item.Slot.Status,
			&item.Slot.PatientID,
			&item.Slot.AppointmentType,
			&item.Slot.BookingReference,
			&item.Slot.CreatedAt,
			&item.Slot.UpdatedAt,
			&item.Window.ID,
			&item.Window.ProviderID,
			&item.Window.Date,
			&startTime,
			&endTime,
			&item.Window.Timezone,
			&item.Window.IsRecurring,
			&pattern,
			&item.Window.RecurrenceEndDate,
			&item.Window.SlotDuration,
			&item.Window.BreakDuration,
			&item.Window.Status,
			&item.Window.MaxAppointments,
			&item.Window.CurrentAppointments,
			&item.Window.AppointmentType,
			&item.Window.Location,
			&item.Window.Pricing,
			&item.Window.Notes,
			&item.Window.SpecialRequirements,
			&item.Window.CreatedAt,
			&item.Window.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if item.Window.StartTime, err = ParseWallClock(startTime); err != nil {
			return nil, err
		}
		if item.Window.EndTime, err = ParseWallClock(endTime); err != nil {
			return nil, err
		}
		if pattern != nil {
			p := RecurrencePattern(*pattern)
			item.Window.RecurrencePattern = &p
		}

		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateSlot(ctx context.Context, id uuid.UUID, upd SlotUpdate) (*Slot, error) {
	query := "UPDATE appointment_slots SET updated_at = now()"
	args := []any{id}

	if upd.Status != nil {
		args = append(args, *upd.Status)
		query += fmt.Sprintf(", status = $%d", len(args))
	}
	if upd.AppointmentType != nil {
		args = append(args, *upd.AppointmentType)
		query += fmt.Sprintf(", appointment_type = $%d", len(args))
	}
	query += " WHERE id = $1 RETURNING " + slotColumns

	row := r.pool.QueryRow(ctx, query, args...)
	return scanSlot(row)
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointment_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) DeleteWindowCascade(ctx context.Context, windowID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM appointment_slots WHERE window_id = $1`, windowID); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM provider_availability WHERE id = $1`, windowID)
	if err != nil {
		return fmt.Errorf("delete window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}

	return tx.Commit(ctx)
}
