package api

import (
	"net/http"

	"ensure/internal/engine"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) createPatient(w http.ResponseWriter, r *http.Request) {
	var in engine.CreatePatientInput
	if !d.decodeTx(w, r, "CreatePatient", &in) {
		return
	}

	patient, err := d.Engine.CreatePatient(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, patient)
}

func (d Dependencies) getPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := d.Engine.Store().GetPatient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, patient)
}

func (d Dependencies) createDoctor(w http.ResponseWriter, r *http.Request) {
	var in engine.CreateDoctorInput
	if !d.decodeTx(w, r, "CreateDoctor", &in) {
		return
	}

	doctor, err := d.Engine.CreateDoctor(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, doctor)
}

func (d Dependencies) getDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, err := d.Engine.Store().GetDoctor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, doctor)
}

func (d Dependencies) createProvider(w http.ResponseWriter, r *http.Request) {
	var in engine.CreateProviderInput
	if !d.decodeTx(w, r, "CreateInsuranceProvider", &in) {
		return
	}

	provider, err := d.Engine.CreateProvider(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, provider)
}

func (d Dependencies) getProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := d.Engine.Store().GetProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, provider)
}
