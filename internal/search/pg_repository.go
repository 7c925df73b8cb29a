package search

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

var dialect = goqu.Dialect("postgres")

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Search(ctx context.Context, c Criteria) ([]Row, error) {
	ds := dialect.
		From(goqu.T("appointment_slots").As("s")).
		Join(goqu.T("provider_availability").As("w"),
			goqu.On(goqu.I("s.window_id").Eq(goqu.I("w.id")))).
		Join(goqu.T("providers").As("p"),
			goqu.On(goqu.I("s.provider_id").Eq(goqu.I("p.id")))).
		Select(
			goqu.I("s.id"),
			goqu.I("s.window_id"),
			goqu.I("s.provider_id"),
			goqu.I("p.first_name"),
			goqu.I("p.last_name"),
			goqu.I("p.specialization"),
			goqu.I("p.years_of_experience"),
			goqu.I("p.clinic_address"),
			goqu.I("s.slot_start_time"),
			goqu.I("s.slot_end_time"),
			goqu.I("s.appointment_type"),
			goqu.I("w.location"),
			goqu.I("w.pricing"),
		).
		Where(
			goqu.I("s.status").Eq("available"),
			goqu.I("p.is_active").IsTrue(),
		)

	if c.ProviderID != nil {
		ds = ds.Where(goqu.I("s.provider_id").Eq(*c.ProviderID))
	}
	if c.Date != nil {
		ds = ds.Where(goqu.I("w.date").Eq(*c.Date))
	} else {
		if c.FromDate != nil {
			ds = ds.Where(goqu.I("w.date").Gte(*c.FromDate))
		}
		if c.ToDate != nil {
			ds = ds.Where(goqu.I("w.date").Lte(*c.ToDate))
		}
	}
	// Slots that already started are never bookable.
	ds = ds.Where(goqu.I("s.slot_start_time").Gte(time.Now().UTC()))

	if c.Specialization != nil {
		ds = ds.Where(goqu.I("p.specialization").ILike("%" + *c.Specialization + "%"))
	}
	if c.AppointmentType != nil {
		ds = ds.Where(goqu.I("s.appointment_type").Eq(string(*c.AppointmentType)))
	}
	if c.LocationType != nil {
		ds = ds.Where(goqu.L("w.location ->> 'type'").Eq(string(*c.LocationType)))
	}
	if c.InsuranceAccepted != nil {
		ds = ds.Where(goqu.L("(w.pricing ->> 'insurance_accepted')::boolean").Eq(*c.InsuranceAccepted))
	}
	if c.MaxPrice != nil {
		ds = ds.Where(goqu.L("(w.pricing ->> 'base_fee')::numeric").Lte(*c.MaxPrice))
	}

	ds = ds.Order(goqu.I("s.provider_id").Asc(), goqu.I("s.slot_start_time").Asc())
	if c.Limit > 0 {
		ds = ds.Limit(uint(c.Limit))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.SlotID,
			&row.WindowID,
			&row.ProviderID,
			&row.FirstName,
			&row.LastName,
			&row.Specialization,
			&row.YearsOfExperience,
			&row.ClinicAddress,
			&row.StartTime,
			&row.EndTime,
			&row.AppointmentType,
			&row.Location,
			&row.Pricing,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
