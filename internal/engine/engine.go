package engine

import (
	"context"
	"time"

	"ensure/internal/model"
)

// Store is the asset store contract. Each asset or participant type gets a
// key-addressed registry with get/add/update; add fails with ErrDuplicateKey,
// get and update fail with ErrNotFound. Atomically runs fn against a store
// view whose writes commit or roll back as a unit, so handlers that touch
// several registries never leave a partial update behind.
type Store interface {
	Atomically(ctx context.Context, fn func(Store) error) error

	GetProduct(ctx context.Context, id string) (*model.Product, error)
	AddProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	AddPatient(ctx context.Context, p *model.Patient) error
	UpdatePatient(ctx context.Context, p *model.Patient) error

	GetDoctor(ctx context.Context, id string) (*model.Doctor, error)
	AddDoctor(ctx context.Context, d *model.Doctor) error

	GetProvider(ctx context.Context, id string) (*model.InsuranceProvider, error)
	AddProvider(ctx context.Context, p *model.InsuranceProvider) error
	UpdateProvider(ctx context.Context, p *model.InsuranceProvider) error

	GetPrescription(ctx context.Context, id string) (*model.Prescription, error)
	AddPrescription(ctx context.Context, p *model.Prescription) error
	UpdatePrescription(ctx context.Context, p *model.Prescription) error

	GetBill(ctx context.Context, id string) (*model.Bill, error)
	AddBill(ctx context.Context, b *model.Bill) error

	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	AddClaim(ctx context.Context, c *model.Claim) error
	UpdateClaim(ctx context.Context, c *model.Claim) error
	ListClaims(ctx context.Context, filter ClaimFilter) ([]model.Claim, error)

	GetMedReq(ctx context.Context, id string) (*model.MedReq, error)
	AddMedReq(ctx context.Context, m *model.MedReq) error
	UpdateMedReq(ctx context.Context, m *model.MedReq) error

	GetDiagnosis(ctx context.Context, id string) (*model.Diagnosis, error)
	AddDiagnosis(ctx context.Context, d *model.Diagnosis) error
}

// ClaimFilter narrows ListClaims
type ClaimFilter struct {
	Status    *model.ClaimStatus
	PatientID *string
	ProductID *string
}

// EventBus publishes domain events after a transaction commits.
// Publishing is fire-and-forget; a failed publish never fails the transaction.
type EventBus interface {
	PublishPatient(patientID string, event map[string]interface{}) error
	PublishClaim(claimID string, event map[string]interface{}) error
	PublishProvider(providerID string, event map[string]interface{}) error
}

// Journal records committed transactions in an append-only chain
type Journal interface {
	Append(kind string, payload interface{}) error
}

// Engine executes the claims workflow transactions against an injected
// store. There is no ambient registry access: every handler reads and
// writes through the Store passed at construction.
type Engine struct {
	store     Store
	bus       EventBus
	journal   Journal
	jobClient JobClient
	now       func() time.Time
}

func New(store Store, bus EventBus) *Engine {
	return &Engine{
		store: store,
		bus:   bus,
		now:   time.Now,
	}
}

// SetJournal sets the transaction journal for audit recording
func (e *Engine) SetJournal(j Journal) {
	e.journal = j
}

// SetJobClient sets the job client for scheduling background jobs
func (e *Engine) SetJobClient(c JobClient) {
	e.jobClient = c
}

// Store exposes the engine's store for read-only collaborators
func (e *Engine) Store() Store {
	return e.store
}

func (e *Engine) record(kind string, payload interface{}) {
	if e.journal != nil {
		_ = e.journal.Append(kind, payload)
	}
}

func (e *Engine) timestamp() string {
	return e.now().Format("2006-01-02T15:04:05Z07:00")
}
