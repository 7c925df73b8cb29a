package provider

import (
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// ClinicAddress is stored as JSONB.
type ClinicAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country,omitempty"`
}

// Provider is a registered healthcare provider. Providers are never hard
// deleted; is_active gates whether their slots surface in search.
type Provider struct {
	ID                uuid.UUID
	FirstName         string
	LastName          string
	Email             string
	PhoneNumber       string
	PasswordHash      string
	Specialization    string
	LicenseNumber     string
	YearsOfExperience *int
	ClinicAddress     ClinicAddress
	Verification      VerificationStatus
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DisplayName is how a provider is presented in search results.
func (p *Provider) DisplayName() string {
	return "Dr. " + p.FirstName + " " + p.LastName
}
