package patient

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// Address is stored as JSONB.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number"`
	Relationship string `json:"relationship,omitempty"`
}

type InsuranceInfo struct {
	Carrier      string `json:"carrier"`
	PolicyNumber string `json:"policy_number"`
	GroupNumber  string `json:"group_number,omitempty"`
}

// Patient is a registered patient. Accounts are deactivated, never hard
// deleted.
type Patient struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Email            string
	PhoneNumber      string
	PasswordHash     string
	DateOfBirth      time.Time
	Gender           Gender
	Address          Address
	EmergencyContact *EmergencyContact
	MedicalHistory   []string
	InsuranceInfo    *InsuranceInfo
	EmailVerified    bool
	PhoneVerified    bool
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
