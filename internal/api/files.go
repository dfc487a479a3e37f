package api

import (
	"net/http"
	"time"
)

// signFile issues upload and download URLs for a claim evidence document
func (d Dependencies) signFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	contentType := r.URL.Query().Get("contentType")

	if name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name parameter required", d.Log)
		return
	}
	if d.Storage == nil {
		WriteError(w, http.StatusInternalServerError, "storage_unavailable", "Evidence storage not configured", d.Log)
		return
	}

	putURL, err := d.Storage.PresignPut(r.Context(), name, contentType, 15*time.Minute)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "url_generation_failed", "Failed to generate upload URL", d.Log)
		return
	}

	getURL, err := d.Storage.PresignGet(r.Context(), name, 24*time.Hour)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "url_generation_failed", "Failed to generate download URL", d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"putUrl": putURL,
		"getUrl": getURL,
	})
}
