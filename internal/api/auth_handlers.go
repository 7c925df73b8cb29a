package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caresched/caresched/internal/identity"
	"github.com/caresched/caresched/internal/patient"
	"github.com/caresched/caresched/internal/provider"
)

func registerProviderHandler(svc *provider.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterProviderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.Register(r.Context(), provider.RegisterParams{
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			Email:             req.Email,
			PhoneNumber:       req.PhoneNumber,
			Password:          req.Password,
			Specialization:    req.Specialization,
			LicenseNumber:     req.LicenseNumber,
			YearsOfExperience: req.YearsOfExperience,
			ClinicAddress:     req.ClinicAddress,
		})
		if err != nil {
			handleRegisterProviderError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toProviderResponse(p))
	}
}

func handleRegisterProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, provider.ErrPhoneTaken):
		writeError(w, http.StatusConflict, "phone_taken", err.Error())
	case errors.Is(err, provider.ErrLicenseTaken):
		writeError(w, http.StatusConflict, "license_taken", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func loginProviderHandler(svc *provider.Service, tm *identity.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			handleLoginError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int(tm.TokenTTL() / time.Second),
			PrincipalID: p.ID,
			Role:        string(identity.RoleProvider),
		})
	}
}

func registerPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date_of_birth", "date_of_birth must be YYYY-MM-DD")
			return
		}

		params := patient.RegisterParams{
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			Email:            req.Email,
			PhoneNumber:      req.PhoneNumber,
			Password:         req.Password,
			DateOfBirth:      dob,
			Gender:           patient.Gender(req.Gender),
			EmergencyContact: req.EmergencyContact,
			MedicalHistory:   req.MedicalHistory,
			InsuranceInfo:    req.InsuranceInfo,
		}
		if req.Address != nil {
			params.Address = *req.Address
		}

		p, err := svc.Register(r.Context(), params)
		if err != nil {
			handleRegisterPatientError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func handleRegisterPatientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patient.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, patient.ErrPhoneTaken):
		writeError(w, http.StatusConflict, "phone_taken", err.Error())
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	}
}

func loginPatientHandler(svc *patient.Service, tm *identity.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			handleLoginError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int(tm.TokenTTL() / time.Second),
			PrincipalID: p.ID,
			Role:        string(identity.RolePatient),
		})
	}
}

func handleLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrInvalidCredentials), errors.Is(err, patient.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
	case errors.Is(err, provider.ErrAccountInactive), errors.Is(err, patient.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "account_inactive", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func getProviderMeHandler(svc *provider.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		p, err := svc.GetByID(r.Context(), claims.Principal)
		if err != nil {
			writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toProviderResponse(p))
	}
}

func getPatientMeHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		p, err := svc.GetByID(r.Context(), claims.Principal)
		if err != nil {
			writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func deactivatePatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		p, err := svc.Deactivate(r.Context(), claims.Principal)
		if err != nil {
			if errors.Is(err, patient.ErrPatientNotFound) {
				writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to deactivate account")
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func updateMedicalHistoryHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		var req UpdateMedicalHistoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}

		p, err := svc.UpdateMedicalHistory(r.Context(), claims.Principal, req.MedicalHistory)
		if err != nil {
			if errors.Is(err, patient.ErrPatientNotFound) {
				writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update medical history")
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func listPendingVerificationHandler(svc *provider.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers, err := svc.ListPendingVerification(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]ProviderResponse, 0, len(providers))
		for i := range providers {
			out = append(out, toProviderResponse(&providers[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateVerificationHandler(svc *provider.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "id must be a valid UUID")
			return
		}

		var req UpdateVerificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.UpdateVerification(r.Context(), id, provider.VerificationStatus(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, provider.ErrProviderNotFound):
				writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
			case errors.Is(err, provider.ErrInvalidStatus):
				writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, toProviderResponse(p))
	}
}
