package api

import (
	"net/http"

	"ensure/internal/engine"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) createProduct(w http.ResponseWriter, r *http.Request) {
	var in engine.CreateProductInput
	if !d.decodeTx(w, r, "CreateProduct", &in) {
		return
	}

	product, err := d.Engine.CreateProduct(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

func (d Dependencies) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := d.Engine.Store().ListProducts(r.Context())
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (d Dependencies) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := d.Engine.Store().GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (d Dependencies) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in engine.UpdateProductInput
	if !d.decodeTx(w, r, "UpdateProduct", &in) {
		return
	}
	in.ProductID = chi.URLParam(r, "id")

	product, err := d.Engine.UpdateProduct(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (d Dependencies) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := d.Engine.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err, d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
