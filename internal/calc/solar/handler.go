package solar

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const maxBody = 64 << 10

type Handler struct {
	Log *zap.Logger
}

type errorsResponse struct {
	Errors ValidationErrors `json:"errors"`
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input PartialInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, errs := Calculate(input)
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorsResponse{Errors: errs})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Assumptions(w http.ResponseWriter, r *http.Request) {
	pt := Residential
	if q := r.URL.Query().Get("property_type"); q != "" {
		var ok bool
		if pt, ok = ParsePropertyType(q); !ok {
			writeJSON(w, http.StatusUnprocessableEntity, errorsResponse{Errors: ValidationErrors{{
				Field:   "propertyType",
				Message: "Please select a property type",
			}}})
			return
		}
	}
	writeJSON(w, http.StatusOK, AssumptionsFor(pt))
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, errs := Calculate(req.Calculator)
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorsResponse{Errors: errs})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"solar-estimate.pdf\"")
	if err := WriteReport(w, req, res); err != nil {
		if h.Log != nil {
			h.Log.Error("solar report", zap.Error(err))
		}
		http.Error(w, "Report generation error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
