package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AvailabilityStatus is shared by windows and the slots generated from them.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusBooked      AvailabilityStatus = "booked"
	StatusCancelled   AvailabilityStatus = "cancelled"
	StatusBlocked     AvailabilityStatus = "blocked"
	StatusMaintenance AvailabilityStatus = "maintenance"
)

func (s AvailabilityStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusCancelled, StatusBlocked, StatusMaintenance:
		return true
	}
	return false
}

type RecurrencePattern string

const (
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
)

func (p RecurrencePattern) Valid() bool {
	switch p {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow_up"
	TypeEmergency    AppointmentType = "emergency"
	TypeTelemedicine AppointmentType = "telemedicine"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeEmergency, TypeTelemedicine:
		return true
	}
	return false
}

type LocationType string

const (
	LocationClinic       LocationType = "clinic"
	LocationHospital     LocationType = "hospital"
	LocationTelemedicine LocationType = "telemedicine"
	LocationHomeVisit    LocationType = "home_visit"
)

func (t LocationType) Valid() bool {
	switch t {
	case LocationClinic, LocationHospital, LocationTelemedicine, LocationHomeVisit:
		return true
	}
	return false
}

// WallClock is an HH:MM wall-clock time with no date or zone attached.
type WallClock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseWallClock parses "HH:MM" (24 hour).
func ParseWallClock(s string) (WallClock, error) {
	var wc WallClock
	if _, err := fmt.Sscanf(s, "%d:%d", &wc.Hour, &wc.Minute); err != nil {
		return WallClock{}, fmt.Errorf("invalid wall-clock time %q: %w", s, err)
	}
	if wc.Hour < 0 || wc.Hour > 23 || wc.Minute < 0 || wc.Minute > 59 {
		return WallClock{}, fmt.Errorf("invalid wall-clock time %q", s)
	}
	return wc, nil
}

// Minutes is the offset from midnight.
func (w WallClock) Minutes() int {
	return w.Hour*60 + w.Minute
}

func (w WallClock) Before(other WallClock) bool {
	return w.Minutes() < other.Minutes()
}

func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute)
}

// Location is where a window's appointments take place; stored as JSONB.
type Location struct {
	Type    LocationType `json:"type"`
	Address string       `json:"address,omitempty"`
	City    string       `json:"city,omitempty"`
	State   string       `json:"state,omitempty"`
	Zip     string       `json:"zip,omitempty"`
	Room    string       `json:"room,omitempty"`
}

// Pricing is a window's fee declaration; stored as JSONB.
type Pricing struct {
	BaseFee           decimal.Decimal `json:"base_fee"`
	Currency          string          `json:"currency"`
	InsuranceAccepted bool            `json:"insurance_accepted"`
}

// Window is a provider's declared open period on one calendar date. A
// recurring declaration materializes into one Window row per occurrence
// date.
type Window struct {
	ID                  uuid.UUID
	ProviderID          uuid.UUID
	Date                time.Time // calendar date, midnight UTC
	StartTime           WallClock
	EndTime             WallClock
	Timezone            string
	IsRecurring         bool
	RecurrencePattern   *RecurrencePattern
	RecurrenceEndDate   *time.Time
	SlotDuration        int // minutes
	BreakDuration       int // minutes
	Status              AvailabilityStatus
	MaxAppointments     int
	CurrentAppointments int
	AppointmentType     AppointmentType
	Location            Location
	Pricing             Pricing
	Notes               *string
	SpecialRequirements []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Slot is a concrete bookable unit derived from exactly one Window. Times
// are absolute UTC instants; the appointment type is a snapshot copied from
// the parent window at generation time.
type Slot struct {
	ID               uuid.UUID
	WindowID         uuid.UUID
	ProviderID       uuid.UUID
	StartTime        time.Time // UTC
	EndTime          time.Time // UTC
	Status           AvailabilityStatus
	PatientID        *uuid.UUID
	AppointmentType  AppointmentType
	BookingReference *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
