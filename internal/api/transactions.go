package api

import (
	"encoding/json"
	"io"
	"net/http"

	"ensure/internal/engine"

	"github.com/go-chi/chi/v5"
)

// decodeTx reads the body, checks it against the registered schema for the
// transaction kind, and decodes it into dst.
func (d Dependencies) decodeTx(w http.ResponseWriter, r *http.Request, kind string, dst interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body", d.Log)
		return false
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return false
	}
	if d.Schemas != nil {
		if err := d.Schemas.Validate(kind, raw); err != nil {
			WriteError(w, http.StatusBadRequest, "schema_violation", err.Error(), d.Log)
			return false
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return false
	}
	return true
}

func (d Dependencies) buyProduct(w http.ResponseWriter, r *http.Request) {
	var in engine.BuyProductInput
	if !d.decodeTx(w, r, "BuyProduct", &in) {
		return
	}

	if err := d.Engine.BuyProduct(r.Context(), in); err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d Dependencies) createDiagnosis(w http.ResponseWriter, r *http.Request) {
	var in engine.CreateDiagnosisInput
	if !d.decodeTx(w, r, "CreateDiagnosis", &in) {
		return
	}

	diagnosis, err := d.Engine.CreateDiagnosis(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, diagnosis)
}

func (d Dependencies) createPrescription(w http.ResponseWriter, r *http.Request) {
	var in engine.CreatePrescriptionInput
	if !d.decodeTx(w, r, "CreatePrescription", &in) {
		return
	}

	prescription, err := d.Engine.CreatePrescription(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, prescription)
}

func (d Dependencies) generateBill(w http.ResponseWriter, r *http.Request) {
	var in engine.GenerateBillInput
	if !d.decodeTx(w, r, "GenerateBill", &in) {
		return
	}

	bill, err := d.Engine.GenerateBill(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, bill)
}

func (d Dependencies) fileClaim(w http.ResponseWriter, r *http.Request) {
	var in engine.FileClaimInput
	if !d.decodeTx(w, r, "FileClaim", &in) {
		return
	}

	claim, err := d.Engine.FileClaim(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"claimId": claim.ID,
		"status":  claim.Status,
	})
}

func (d Dependencies) approveClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := d.Engine.ApproveClaim(r.Context(), id); err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"claimId": id, "status": "APPROVED"})
}

func (d Dependencies) rejectClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := d.Engine.RejectClaim(r.Context(), id); err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"claimId": id, "status": "REJECTED"})
}

func (d Dependencies) rejectClaimFromProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := d.Engine.RejectClaimFromProvider(r.Context(), id); err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"claimId": id, "status": "REJECTED"})
}

func (d Dependencies) settleClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := d.Engine.SettleClaim(r.Context(), id); err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"claimId": id, "status": "SETTLED"})
}

func (d Dependencies) getMeds(w http.ResponseWriter, r *http.Request) {
	var in engine.GetMedsInput
	if !d.decodeTx(w, r, "GetMeds", &in) {
		return
	}

	medReq, err := d.Engine.GetMeds(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, medReq)
}

func (d Dependencies) completeMedReq(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := d.Engine.CompleteMedReq(r.Context(), id); err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reqId": id, "status": "COMPLETED"})
}
