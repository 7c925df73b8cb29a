package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const patientColumns = `
	id, first_name, last_name, email, phone_number, password_hash,
	date_of_birth, gender, address, emergency_contact, medical_history,
	insurance_info, email_verified, phone_verified, is_active,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.PhoneNumber,
		&p.PasswordHash,
		&p.DateOfBirth,
		&p.Gender,
		&p.Address,
		&p.EmergencyContact,
		&p.MedicalHistory,
		&p.InsuranceInfo,
		&p.EmailVerified,
		&p.PhoneVerified,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE email = $1
	`, email)
	return scanPatient(row)
}

func (r *PgRepository) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE phone_number = $1
	`, phone)
	return scanPatient(row)
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (
			id, first_name, last_name, email, phone_number, password_hash,
			date_of_birth, gender, address, emergency_contact, medical_history,
			insurance_info, email_verified, phone_verified, is_active,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
	`,
		p.ID, p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.PasswordHash,
		p.DateOfBirth, p.Gender, p.Address, p.EmergencyContact, p.MedicalHistory,
		p.InsuranceInfo, p.EmailVerified, p.PhoneVerified, p.IsActive,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *PgRepository) Deactivate(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET is_active = false,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns+`
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) UpdateMedicalHistory(ctx context.Context, id uuid.UUID, history []string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET medical_history = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns+`
	`, id, history)
	return scanPatient(row)
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrEmailTaken
		case strings.Contains(pgErr.ConstraintName, "phone"):
			return ErrPhoneTaken
		}
	}
	return fmt.Errorf("insert patient: %w", err)
}
