package api

import (
	"net/http"
	"os"

	"ensure/internal/auth"
	"ensure/internal/engine"
	"ensure/internal/pubsub"
	"ensure/internal/schema"
	"ensure/internal/storage"
	"ensure/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dependencies struct {
	Engine  *engine.Engine
	Bus     *pubsub.Bus
	Hub     *ws.Hub
	Log     *zap.Logger
	Schemas *schema.Registry
	Storage storage.Storage
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(d.Log))

	jwtConfig := auth.NewJWTConfig(os.Getenv("JWT_SECRET"))
	r.Use(jwtConfig.Middleware)

	// Transaction endpoints
	r.Post("/tx/buy-product", d.buyProduct)
	r.Post("/tx/create-diagnosis", d.createDiagnosis)
	r.Post("/tx/create-prescription", d.createPrescription)
	r.Post("/tx/generate-bill", d.generateBill)
	r.Post("/tx/file-claim", d.fileClaim)
	r.Post("/tx/claims/{id}/approve", d.approveClaim)
	r.Post("/tx/claims/{id}/reject", d.rejectClaim)
	r.Post("/tx/claims/{id}/reject-provider", d.rejectClaimFromProvider)
	r.Post("/tx/claims/{id}/settle", d.settleClaim)
	r.Post("/tx/get-meds", d.getMeds)
	r.Post("/tx/medreqs/{id}/complete", d.completeMedReq)

	// Product endpoints
	r.Post("/products", d.createProduct)
	r.Get("/products", d.listProducts)
	r.Get("/products/{id}", d.getProduct)
	r.Put("/products/{id}", d.updateProduct)
	r.Delete("/products/{id}", d.deleteProduct)

	// Participant endpoints
	r.Post("/patients", d.createPatient)
	r.Get("/patients/{id}", d.getPatient)
	r.Post("/doctors", d.createDoctor)
	r.Get("/doctors/{id}", d.getDoctor)
	r.Post("/providers", d.createProvider)
	r.Get("/providers/{id}", d.getProvider)

	// Asset lookup endpoints
	r.Get("/claims", d.listClaims)
	r.Get("/claims/{id}", d.getClaim)
	r.Get("/prescriptions/{id}", d.getPrescription)
	r.Get("/bills/{id}", d.getBill)
	r.Get("/medreqs/{id}", d.getMedReq)
	r.Get("/diagnoses/{id}", d.getDiagnosis)

	// Evidence document endpoints
	r.Post("/files/sign", d.signFile)

	// WebSocket endpoint
	r.Get("/ws", d.wsHandler)

	return r
}
