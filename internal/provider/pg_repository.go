package provider

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

const providerColumns = `
	id, first_name, last_name, email, phone_number, password_hash,
	specialization, license_number, years_of_experience, clinic_address,
	verification_status, is_active, created_at, updated_at`

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.PhoneNumber,
		&p.PasswordHash,
		&p.Specialization,
		&p.LicenseNumber,
		&p.YearsOfExperience,
		&p.ClinicAddress,
		&p.Verification,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE id = $1
	`, id)
	return scanProvider(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE email = $1
	`, email)
	return scanProvider(row)
}

func (r *PgRepository) GetByPhone(ctx context.Context, phone string) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE phone_number = $1
	`, phone)
	return scanProvider(row)
}

func (r *PgRepository) GetByLicense(ctx context.Context, license string) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE license_number = $1
	`, license)
	return scanProvider(row)
}

func (r *PgRepository) Create(ctx context.Context, p *Provider) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO providers (
			id, first_name, last_name, email, phone_number, password_hash,
			specialization, license_number, years_of_experience, clinic_address,
			verification_status, is_active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
	`,
		p.ID, p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.PasswordHash,
		p.Specialization, p.LicenseNumber, p.YearsOfExperience, p.ClinicAddress,
		p.Verification, p.IsActive,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *PgRepository) UpdateVerification(ctx context.Context, id uuid.UUID, status VerificationStatus) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE providers
		SET verification_status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+providerColumns+`
	`, id, status)
	return scanProvider(row)
}

func (r *PgRepository) ListPendingVerification(ctx context.Context) ([]Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE verification_status = $1
		ORDER BY created_at
	`, VerificationPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// mapUniqueViolation translates a Postgres unique violation into the
// matching duplicate sentinel so racing registrations surface the same
// error kind as the pre-insert checks.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrEmailTaken
		case strings.Contains(pgErr.ConstraintName, "phone"):
			return ErrPhoneTaken
		case strings.Contains(pgErr.ConstraintName, "license"):
			return ErrLicenseTaken
		}
	}
	return fmt.Errorf("insert provider: %w", err)
}
