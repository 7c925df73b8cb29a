package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/booking"
	"github.com/caresched/caresched/internal/patient"
	"github.com/caresched/caresched/internal/provider"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Auth

type RegisterProviderRequest struct {
	FirstName         string                 `json:"first_name"`
	LastName          string                 `json:"last_name"`
	Email             string                 `json:"email"`
	PhoneNumber       string                 `json:"phone_number"`
	Password          string                 `json:"password"`
	Specialization    string                 `json:"specialization"`
	LicenseNumber     string                 `json:"license_number"`
	YearsOfExperience *int                   `json:"years_of_experience,omitempty"`
	ClinicAddress     provider.ClinicAddress `json:"clinic_address"`
}

type RegisterPatientRequest struct {
	FirstName        string                    `json:"first_name"`
	LastName         string                    `json:"last_name"`
	Email            string                    `json:"email"`
	PhoneNumber      string                    `json:"phone_number"`
	Password         string                    `json:"password"`
	DateOfBirth      string                    `json:"date_of_birth"` // YYYY-MM-DD
	Gender           string                    `json:"gender"`
	Address          *patient.Address          `json:"address,omitempty"`
	EmergencyContact *patient.EmergencyContact `json:"emergency_contact,omitempty"`
	MedicalHistory   []string                  `json:"medical_history,omitempty"`
	InsuranceInfo    *patient.InsuranceInfo    `json:"insurance_info,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"` // seconds
	PrincipalID uuid.UUID `json:"principal_id"`
	Role        string    `json:"role"`
}

type ProviderResponse struct {
	ID                uuid.UUID              `json:"id"`
	FirstName         string                 `json:"first_name"`
	LastName          string                 `json:"last_name"`
	Email             string                 `json:"email"`
	PhoneNumber       string                 `json:"phone_number"`
	Specialization    string                 `json:"specialization"`
	LicenseNumber     string                 `json:"license_number"`
	YearsOfExperience *int                   `json:"years_of_experience,omitempty"`
	ClinicAddress     provider.ClinicAddress `json:"clinic_address"`
	Verification      string                 `json:"verification_status"`
	IsActive          bool                   `json:"is_active"`
	CreatedAt         time.Time              `json:"created_at"`
}

type PatientResponse struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number"`
	DateOfBirth    string    `json:"date_of_birth"`
	Gender         string    `json:"gender"`
	MedicalHistory []string  `json:"medical_history,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type UpdateVerificationRequest struct {
	Status string `json:"status"`
}

type UpdateMedicalHistoryRequest struct {
	MedicalHistory []string `json:"medical_history"`
}

// Availability

type CreateAvailabilityRequest struct {
	Date              string                `json:"date"` // YYYY-MM-DD
	StartTime         string                `json:"start_time"`
	EndTime           string                `json:"end_time"`
	Timezone          string                `json:"timezone"`
	SlotDuration      int                   `json:"slot_duration_minutes"`
	BreakDuration     int                   `json:"break_duration_minutes"`
	IsRecurring       bool                  `json:"is_recurring"`
	RecurrencePattern *string               `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *string               `json:"recurrence_end_date,omitempty"`
	AppointmentType   string                `json:"appointment_type"`
	Location          availability.Location `json:"location"`
	Pricing           availability.Pricing  `json:"pricing"`
	MaxAppointments   int                   `json:"max_appointments_per_slot"`
	Notes             *string               `json:"notes,omitempty"`
	SpecialReqs       []string              `json:"special_requirements,omitempty"`
}

type CreateAvailabilityResponse struct {
	AvailabilityID uuid.UUID `json:"availability_id"`
	WindowsCreated int       `json:"windows_created"`
	SlotsCreated   int       `json:"slots_created"`
	DateRangeStart string    `json:"date_range_start"`
	DateRangeEnd   string    `json:"date_range_end"`
}

type UpdateSlotRequest struct {
	Status          *string `json:"status,omitempty"`
	AppointmentType *string `json:"appointment_type,omitempty"`
}

// Appointments

type BookAppointmentRequest struct {
	SlotID            string           `json:"slot_id"`
	AppointmentType   *string          `json:"appointment_type,omitempty"`
	Symptoms          *string          `json:"symptoms,omitempty"`
	ContactPhone      *string          `json:"contact_phone,omitempty"`
	ContactEmail      *string          `json:"contact_email,omitempty"`
	InsuranceCoverage *decimal.Decimal `json:"insurance_coverage,omitempty"`
	PatientPayment    *decimal.Decimal `json:"patient_payment,omitempty"`
}

type UpdateAppointmentRequest struct {
	Status           *string          `json:"status,omitempty"`
	PaymentStatus    *string          `json:"payment_status,omitempty"`
	Symptoms         *string          `json:"symptoms,omitempty"`
	ContactPhone     *string          `json:"contact_phone,omitempty"`
	ContactEmail     *string          `json:"contact_email,omitempty"`
	MedicalNotes     *string          `json:"medical_notes,omitempty"`
	Prescription     *string          `json:"prescription,omitempty"`
	FollowUpRequired *bool            `json:"follow_up_required,omitempty"`
	FollowUpDate     *time.Time       `json:"follow_up_date,omitempty"`
	ActualStart      *time.Time       `json:"actual_start,omitempty"`
	ActualEnd        *time.Time       `json:"actual_end,omitempty"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type RescheduleAppointmentRequest struct {
	NewSlotID string `json:"new_slot_id"`
}

type AppointmentResponse struct {
	ID                uuid.UUID             `json:"id"`
	BookingReference  string                `json:"booking_reference"`
	SlotID            uuid.UUID             `json:"slot_id"`
	ProviderID        uuid.UUID             `json:"provider_id"`
	PatientID         uuid.UUID             `json:"patient_id"`
	AppointmentType   string                `json:"appointment_type"`
	Status            string                `json:"status"`
	PaymentStatus     string                `json:"payment_status"`
	ScheduledStart    time.Time             `json:"scheduled_start"`
	ScheduledEnd      time.Time             `json:"scheduled_end"`
	ActualStart       *time.Time            `json:"actual_start,omitempty"`
	ActualEnd         *time.Time            `json:"actual_end,omitempty"`
	Location          availability.Location `json:"location"`
	Symptoms          *string               `json:"symptoms,omitempty"`
	MedicalNotes      *string               `json:"medical_notes,omitempty"`
	Prescription      *string               `json:"prescription,omitempty"`
	FollowUpRequired  bool                  `json:"follow_up_required"`
	FollowUpDate      *time.Time            `json:"follow_up_date,omitempty"`
	BaseFee           decimal.Decimal       `json:"base_fee"`
	InsuranceCoverage decimal.Decimal       `json:"insurance_coverage"`
	PatientPayment    decimal.Decimal       `json:"patient_payment"`
	Currency          string                `json:"currency"`
	CancellationInfo  *CancellationInfo     `json:"cancellation,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

type CancellationInfo struct {
	Reason      *string    `json:"reason,omitempty"`
	CancelledBy string     `json:"cancelled_by"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:                a.ID,
		BookingReference:  a.BookingReference,
		SlotID:            a.SlotID,
		ProviderID:        a.ProviderID,
		PatientID:         a.PatientID,
		AppointmentType:   string(a.AppointmentType),
		Status:            string(a.Status),
		PaymentStatus:     string(a.PaymentStatus),
		ScheduledStart:    a.ScheduledStart,
		ScheduledEnd:      a.ScheduledEnd,
		ActualStart:       a.ActualStart,
		ActualEnd:         a.ActualEnd,
		Location:          a.Location,
		Symptoms:          a.Symptoms,
		MedicalNotes:      a.MedicalNotes,
		Prescription:      a.Prescription,
		FollowUpRequired:  a.FollowUpRequired,
		FollowUpDate:      a.FollowUpDate,
		BaseFee:           a.BaseFee,
		InsuranceCoverage: a.InsuranceCoverage,
		PatientPayment:    a.PatientPayment,
		Currency:          a.Currency,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if a.CancelledBy != nil {
		resp.CancellationInfo = &CancellationInfo{
			Reason:      a.CancellationReason,
			CancelledBy: string(*a.CancelledBy),
			CancelledAt: a.CancelledAt,
		}
	}
	return resp
}

func toProviderResponse(p *provider.Provider) ProviderResponse {
	return ProviderResponse{
		ID:                p.ID,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		Email:             p.Email,
		PhoneNumber:       p.PhoneNumber,
		Specialization:    p.Specialization,
		LicenseNumber:     p.LicenseNumber,
		YearsOfExperience: p.YearsOfExperience,
		ClinicAddress:     p.ClinicAddress,
		Verification:      string(p.Verification),
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt,
	}
}

func toPatientResponse(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:             p.ID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		PhoneNumber:    p.PhoneNumber,
		DateOfBirth:    p.DateOfBirth.Format("2006-01-02"),
		Gender:         string(p.Gender),
		MedicalHistory: p.MedicalHistory,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
	}
}
