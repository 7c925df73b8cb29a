package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caresched/caresched/internal/availability"
	redisclient "github.com/caresched/caresched/internal/redis"
)

func createAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		var req CreateAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		decl, err := declarationFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_availability", err.Error())
			return
		}

		result, err := svc.Create(r.Context(), claims.Principal, decl)
		if err != nil {
			handleCreateAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateAvailabilityResponse{
			AvailabilityID: result.AvailabilityID,
			WindowsCreated: result.WindowsCreated,
			SlotsCreated:   result.SlotsCreated,
			DateRangeStart: result.DateRangeStart,
			DateRangeEnd:   result.DateRangeEnd,
		})
	}
}

func declarationFromRequest(req CreateAvailabilityRequest) (availability.Declaration, error) {
	var decl availability.Declaration

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return decl, errors.New("date must be YYYY-MM-DD")
	}
	start, err := availability.ParseWallClock(req.StartTime)
	if err != nil {
		return decl, err
	}
	end, err := availability.ParseWallClock(req.EndTime)
	if err != nil {
		return decl, err
	}

	decl = availability.Declaration{
		Date:                date,
		StartTime:           start,
		EndTime:             end,
		Timezone:            req.Timezone,
		IsRecurring:         req.IsRecurring,
		SlotDuration:        req.SlotDuration,
		BreakDuration:       req.BreakDuration,
		MaxAppointments:     req.MaxAppointments,
		AppointmentType:     availability.AppointmentType(req.AppointmentType),
		Location:            req.Location,
		Pricing:             req.Pricing,
		Notes:               req.Notes,
		SpecialRequirements: req.SpecialReqs,
	}
	if req.RecurrencePattern != nil {
		pattern := availability.RecurrencePattern(*req.RecurrencePattern)
		decl.RecurrencePattern = &pattern
	}
	if req.RecurrenceEndDate != nil {
		endDate, err := time.Parse("2006-01-02", *req.RecurrenceEndDate)
		if err != nil {
			return decl, errors.New("recurrence_end_date must be YYYY-MM-DD")
		}
		decl.RecurrenceEndDate = &endDate
	}
	return decl, nil
}

func handleCreateAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrAvailabilityConflict):
		writeError(w, http.StatusConflict, "availability_conflict", err.Error())
	case errors.Is(err, availability.ErrBeingModified),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "availability_being_modified", "availability is being modified, please retry shortly")
	case errors.Is(err, availability.ErrEndNotAfterStart),
		errors.Is(err, availability.ErrInvalidSlotDuration),
		errors.Is(err, availability.ErrInvalidRecurrence),
		errors.Is(err, availability.ErrInvalidRecurrenceEnd):
		writeError(w, http.StatusBadRequest, "invalid_availability", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func getAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider id must be a valid UUID")
			return
		}

		q := availability.GetQuery{
			ProviderID: providerID,
			Timezone:   r.URL.Query().Get("timezone"),
		}

		now := time.Now().UTC()
		q.StartDate = now
		q.EndDate = now.AddDate(0, 0, 7)
		if raw := r.URL.Query().Get("start_date"); raw != "" {
			if q.StartDate, err = time.Parse("2006-01-02", raw); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_date", "start_date must be YYYY-MM-DD")
				return
			}
			q.EndDate = q.StartDate.AddDate(0, 0, 7)
		}
		if raw := r.URL.Query().Get("end_date"); raw != "" {
			if q.EndDate, err = time.Parse("2006-01-02", raw); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_date", "end_date must be YYYY-MM-DD")
				return
			}
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := availability.AvailabilityStatus(raw)
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown slot status")
				return
			}
			q.Status = &status
		}
		if raw := r.URL.Query().Get("appointment_type"); raw != "" {
			apptType := availability.AppointmentType(raw)
			if !apptType.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_appointment_type", "unknown appointment type")
				return
			}
			q.AppointmentType = &apptType
		}

		schedule, err := svc.Get(r.Context(), q)
		if err != nil {
			if errors.Is(err, availability.ErrInvalidRange) {
				writeError(w, http.StatusBadRequest, "invalid_date_range", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, schedule)
	}
}

func updateSlotHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot id must be a valid UUID")
			return
		}

		var req UpdateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var upd availability.SlotUpdate
		if req.Status != nil {
			status := availability.AvailabilityStatus(*req.Status)
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown slot status")
				return
			}
			upd.Status = &status
		}
		if req.AppointmentType != nil {
			apptType := availability.AppointmentType(*req.AppointmentType)
			if !apptType.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_appointment_type", "unknown appointment type")
				return
			}
			upd.AppointmentType = &apptType
		}

		slot, err := svc.UpdateSlot(r.Context(), claims.Principal, slotID, upd)
		if err != nil {
			handleSlotError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slot)
	}
}

func deleteSlotHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}

		slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot id must be a valid UUID")
			return
		}

		deleteRecurring := r.URL.Query().Get("delete_recurring") == "true"
		reason := r.URL.Query().Get("reason")

		if err := svc.DeleteSlot(r.Context(), claims.Principal, slotID, deleteRecurring, reason); err != nil {
			handleSlotError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSlotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrSlotNotFound),
		errors.Is(err, availability.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, availability.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, availability.ErrSlotBooked):
		writeError(w, http.StatusConflict, "slot_booked", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
