package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/booking"
	"github.com/caresched/caresched/internal/identity"
	"github.com/caresched/caresched/internal/patient"
	redisclient "github.com/caresched/caresched/internal/redis"
)

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a valid UUID")
			return
		}

		params := booking.BookParams{
			SlotID:       slotID,
			Symptoms:     req.Symptoms,
			ContactPhone: req.ContactPhone,
			ContactEmail: req.ContactEmail,
		}
		if req.AppointmentType != nil {
			apptType := availability.AppointmentType(*req.AppointmentType)
			if !apptType.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_appointment_type", "unknown appointment type")
				return
			}
			params.AppointmentType = &apptType
		}
		if req.InsuranceCoverage != nil {
			params.InsuranceCoverage = *req.InsuranceCoverage
		}
		if req.PatientPayment != nil {
			params.PatientPayment = *req.PatientPayment
		}

		appt, err := svc.Book(r.Context(), claims.Principal, params)
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, booking.ErrPatientInactive):
		writeError(w, http.StatusForbidden, "account_inactive", err.Error())
	case errors.Is(err, availability.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotNotAvailable):
		writeError(w, http.StatusConflict, "slot_not_available", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrReferenceCollision):
		writeError(w, http.StatusConflict, "reference_collision", "could not allocate a booking reference, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func listAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		var f booking.ListFilter
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := booking.AppointmentStatus(raw)
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown appointment status")
				return
			}
			f.Status = &status
		}
		f.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
		f.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

		var appointments []booking.Appointment
		var err error
		switch claims.Role {
		case identity.RolePatient:
			appointments, err = svc.ListForPatient(r.Context(), claims.Principal, f)
		case identity.RoleProvider:
			appointments, err = svc.ListForProvider(r.Context(), claims.Principal, f)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := AppointmentListResponse{Appointments: make([]AppointmentResponse, 0, len(appointments))}
		for i := range appointments {
			out.Appointments = append(out.Appointments, toAppointmentResponse(&appointments[i]))
		}
		out.Total = len(out.Appointments)

		writeJSON(w, http.StatusOK, out)
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetByID(r.Context(), id, claims.Role, claims.Principal)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentByReferenceHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		appt, err := svc.GetByReference(r.Context(), chi.URLParam(r, "reference"), claims.Role, claims.Principal)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		params := booking.UpdateParams{
			Symptoms:         req.Symptoms,
			ContactPhone:     req.ContactPhone,
			ContactEmail:     req.ContactEmail,
			MedicalNotes:     req.MedicalNotes,
			Prescription:     req.Prescription,
			FollowUpRequired: req.FollowUpRequired,
			FollowUpDate:     req.FollowUpDate,
			ActualStart:      req.ActualStart,
			ActualEnd:        req.ActualEnd,
		}
		if req.Status != nil {
			status := booking.AppointmentStatus(*req.Status)
			params.Status = &status
		}
		if req.PaymentStatus != nil {
			paymentStatus := booking.PaymentStatus(*req.PaymentStatus)
			params.PaymentStatus = &paymentStatus
		}

		appt, err := svc.Update(r.Context(), id, claims.Role, claims.Principal, params)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CancelAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Cancel(r.Context(), id, cancelActorForRole(claims.Role), claims.Principal, req.Reason)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		newSlotID, err := uuid.Parse(req.NewSlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "new_slot_id must be a valid UUID")
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, cancelActorForRole(claims.Role), claims.Principal, newSlotID)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelActorForRole(role identity.Role) booking.CancelActor {
	if role == identity.RoleProvider {
		return booking.CancelledByProvider
	}
	return booking.CancelledByPatient
}

func handleAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, availability.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, booking.ErrAlreadyFinalized):
		writeError(w, http.StatusConflict, "appointment_finalized", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, booking.ErrSameSlot):
		writeError(w, http.StatusConflict, "same_slot", err.Error())
	case errors.Is(err, booking.ErrSlotNotAvailable):
		writeError(w, http.StatusConflict, "slot_not_available", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrFieldNotPermitted):
		writeError(w, http.StatusForbidden, "field_not_permitted", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
