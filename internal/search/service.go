package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrInvalidDateRange = errors.New("to_date must not be before from_date")

const defaultLimit = 200

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Search finds open slots across providers and groups them per provider,
// each provider's slots ordered by start time. Times are rendered in the
// requested display timezone; an unknown timezone falls back to UTC.
func (s *Service) Search(ctx context.Context, c Criteria) (*Result, error) {
	if c.FromDate != nil && c.ToDate != nil && c.ToDate.Before(*c.FromDate) {
		return nil, ErrInvalidDateRange
	}
	if c.Limit <= 0 {
		c.Limit = defaultLimit
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		loc = time.UTC
		c.Timezone = "UTC"
	}

	rows, err := s.repo.Search(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("search slots: %w", err)
	}

	result := &Result{Timezone: c.Timezone}
	groups := make(map[uuid.UUID]*ProviderResult)
	var order []uuid.UUID

	for _, row := range rows {
		group, ok := groups[row.ProviderID]
		if !ok {
			group = &ProviderResult{
				ProviderID:        row.ProviderID,
				ProviderName:      "Dr. " + row.FirstName + " " + row.LastName,
				Specialization:    row.Specialization,
				YearsOfExperience: row.YearsOfExperience,
				ClinicAddress:     row.ClinicAddress,
			}
			groups[row.ProviderID] = group
			order = append(order, row.ProviderID)
		}

		startLocal := row.StartTime.In(loc)
		endLocal := row.EndTime.In(loc)
		group.AvailableSlots = append(group.AvailableSlots, SlotResult{
			SlotID:          row.SlotID,
			Date:            startLocal.Format("2006-01-02"),
			StartTime:       startLocal.Format("15:04"),
			EndTime:         endLocal.Format("15:04"),
			AppointmentType: row.AppointmentType,
			Location:        row.Location,
			Pricing:         row.Pricing,
		})
		result.TotalSlots++
	}

	for _, id := range order {
		result.Providers = append(result.Providers, *groups[id])
	}

	s.log.Debug().
		Int("providers", len(result.Providers)).
		Int("slots", result.TotalSlots).
		Msg("slot search completed")

	return result, nil
}
