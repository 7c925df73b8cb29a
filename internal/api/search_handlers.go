package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/search"
)

func searchAvailabilityHandler(svc *search.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		c := search.Criteria{Timezone: q.Get("timezone")}

		if raw := q.Get("provider_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
				return
			}
			c.ProviderID = &id
		}
		if raw := q.Get("date"); raw != "" {
			date, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			c.Date = &date
		}
		if raw := q.Get("from_date"); raw != "" {
			date, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_from_date", "from_date must be YYYY-MM-DD")
				return
			}
			c.FromDate = &date
		}
		if raw := q.Get("to_date"); raw != "" {
			date, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_to_date", "to_date must be YYYY-MM-DD")
				return
			}
			c.ToDate = &date
		}
		if raw := q.Get("specialization"); raw != "" {
			c.Specialization = &raw
		}
		if raw := q.Get("appointment_type"); raw != "" {
			apptType := availability.AppointmentType(raw)
			if !apptType.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_appointment_type", "unknown appointment type")
				return
			}
			c.AppointmentType = &apptType
		}
		if raw := q.Get("location_type"); raw != "" {
			locType := availability.LocationType(raw)
			if !locType.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_location_type", "unknown location type")
				return
			}
			c.LocationType = &locType
		}
		if raw := q.Get("insurance_accepted"); raw != "" {
			accepted, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_insurance_accepted", "insurance_accepted must be a boolean")
				return
			}
			c.InsuranceAccepted = &accepted
		}
		if raw := q.Get("max_price"); raw != "" {
			price, err := decimal.NewFromString(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_max_price", "max_price must be a number")
				return
			}
			c.MaxPrice = &price
		}
		c.Limit, _ = strconv.Atoi(q.Get("limit"))

		result, err := svc.Search(r.Context(), c)
		if err != nil {
			if errors.Is(err, search.ErrInvalidDateRange) {
				writeError(w, http.StatusBadRequest, "invalid_date_range", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
