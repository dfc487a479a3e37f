package api

import (
	"net/http"

	"ensure/internal/engine"
	"ensure/internal/model"

	"github.com/go-chi/chi/v5"
)

// listClaims returns claims filtered by the optional status, patient, and
// product query parameters.
func (d Dependencies) listClaims(w http.ResponseWriter, r *http.Request) {
	var filter engine.ClaimFilter
	if status := r.URL.Query().Get("status"); status != "" {
		s := model.ClaimStatus(status)
		filter.Status = &s
	}
	if patient := r.URL.Query().Get("patient"); patient != "" {
		filter.PatientID = &patient
	}
	if product := r.URL.Query().Get("product"); product != "" {
		filter.ProductID = &product
	}

	claims, err := d.Engine.Store().ListClaims(r.Context(), filter)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"claims": claims})
}

func (d Dependencies) getClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := d.Engine.Store().GetClaim(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

func (d Dependencies) getPrescription(w http.ResponseWriter, r *http.Request) {
	prescription, err := d.Engine.Store().GetPrescription(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, prescription)
}

func (d Dependencies) getBill(w http.ResponseWriter, r *http.Request) {
	bill, err := d.Engine.Store().GetBill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, bill)
}

func (d Dependencies) getMedReq(w http.ResponseWriter, r *http.Request) {
	medReq, err := d.Engine.Store().GetMedReq(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, medReq)
}

func (d Dependencies) getDiagnosis(w http.ResponseWriter, r *http.Request) {
	diagnosis, err := d.Engine.Store().GetDiagnosis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, diagnosis)
}
