package search

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/provider"
)

// Criteria narrows a cross-provider slot search. All filters are optional;
// an empty Criteria returns every open slot from today onward.
type Criteria struct {
	ProviderID        *uuid.UUID
	Date              *time.Time // single calendar date
	FromDate          *time.Time // inclusive range start
	ToDate            *time.Time // inclusive range end
	Specialization    *string    // case-insensitive substring match
	AppointmentType   *availability.AppointmentType
	LocationType      *availability.LocationType
	InsuranceAccepted *bool
	MaxPrice          *decimal.Decimal
	Timezone          string // display timezone, defaults to UTC
	Limit             int
}

// Row is one open slot joined with its window and provider, as it comes
// back from storage.
type Row struct {
	SlotID            uuid.UUID
	WindowID          uuid.UUID
	ProviderID        uuid.UUID
	FirstName         string
	LastName          string
	Specialization    string
	YearsOfExperience *int
	ClinicAddress     provider.ClinicAddress
	StartTime         time.Time
	EndTime           time.Time
	AppointmentType   availability.AppointmentType
	Location          availability.Location
	Pricing           availability.Pricing
}

// SlotResult is one bookable slot rendered in the caller's timezone.
type SlotResult struct {
	SlotID          uuid.UUID                    `json:"slot_id"`
	Date            string                       `json:"date"`
	StartTime       string                       `json:"start_time"`
	EndTime         string                       `json:"end_time"`
	AppointmentType availability.AppointmentType `json:"appointment_type"`
	Location        availability.Location        `json:"location"`
	Pricing         availability.Pricing         `json:"pricing"`
}

// ProviderResult groups a provider's matching slots.
type ProviderResult struct {
	ProviderID        uuid.UUID              `json:"provider_id"`
	ProviderName      string                 `json:"provider_name"`
	Specialization    string                 `json:"specialization"`
	YearsOfExperience *int                   `json:"years_of_experience,omitempty"`
	ClinicAddress     provider.ClinicAddress `json:"clinic_address"`
	AvailableSlots    []SlotResult           `json:"available_slots"`
}

type Result struct {
	Providers  []ProviderResult `json:"providers"`
	TotalSlots int              `json:"total_slots"`
	Timezone   string           `json:"timezone"`
}
