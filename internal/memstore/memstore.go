// Package memstore provides an in-memory asset store. It backs the engine's
// property tests and zero-infrastructure runs; the Postgres store in
// internal/db is the production implementation.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"ensure/internal/engine"
	"ensure/internal/model"
)

type dataset struct {
	Products      map[string]model.Product
	Patients      map[string]model.Patient
	Doctors       map[string]model.Doctor
	Providers     map[string]model.InsuranceProvider
	Prescriptions map[string]model.Prescription
	Bills         map[string]model.Bill
	Claims        map[string]model.Claim
	MedReqs       map[string]model.MedReq
	Diagnoses     map[string]model.Diagnosis
}

func newDataset() *dataset {
	return &dataset{
		Products:      make(map[string]model.Product),
		Patients:      make(map[string]model.Patient),
		Doctors:       make(map[string]model.Doctor),
		Providers:     make(map[string]model.InsuranceProvider),
		Prescriptions: make(map[string]model.Prescription),
		Bills:         make(map[string]model.Bill),
		Claims:        make(map[string]model.Claim),
		MedReqs:       make(map[string]model.MedReq),
		Diagnoses:     make(map[string]model.Diagnosis),
	}
}

func (d *dataset) clone() (*dataset, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot store: %w", err)
	}
	c := newDataset()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}
	return c, nil
}

// Store is a mutex-guarded in-memory implementation of engine.Store.
// Atomically runs the handler against a snapshot that is swapped in only on
// success, so multi-entity writes commit or roll back as a unit.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

func New() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) Atomically(ctx context.Context, fn func(engine.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone, err := s.data.clone()
	if err != nil {
		return err
	}
	if err := fn(&txStore{data: clone}); err != nil {
		return err
	}
	s.data = clone
	return nil
}

func (s *Store) run(ctx context.Context, fn func(engine.Store) error) error {
	return s.Atomically(ctx, fn)
}

// txStore is the view handed to a handler inside Atomically. Nested
// Atomically calls run in the enclosing unit.
type txStore struct {
	data *dataset
}

func (t *txStore) Atomically(ctx context.Context, fn func(engine.Store) error) error {
	return fn(t)
}

func get[T any](m map[string]T, id, kind string) (*T, error) {
	v, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, id, engine.ErrNotFound)
	}
	return &v, nil
}

func add[T any](m map[string]T, id, kind string, v T) error {
	if _, ok := m[id]; ok {
		return fmt.Errorf("%s %q: %w", kind, id, engine.ErrDuplicateKey)
	}
	m[id] = v
	return nil
}

func update[T any](m map[string]T, id, kind string, v T) error {
	if _, ok := m[id]; !ok {
		return fmt.Errorf("%s %q: %w", kind, id, engine.ErrNotFound)
	}
	m[id] = v
	return nil
}

func (t *txStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return get(t.data.Products, id, "product")
}

func (t *txStore) AddProduct(ctx context.Context, p *model.Product) error {
	return add(t.data.Products, p.ID, "product", *p)
}

func (t *txStore) UpdateProduct(ctx context.Context, p *model.Product) error {
	return update(t.data.Products, p.ID, "product", *p)
}

func (t *txStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	products := make([]model.Product, 0, len(t.data.Products))
	for _, p := range t.data.Products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (t *txStore) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := t.data.Products[id]; !ok {
		return fmt.Errorf("product %q: %w", id, engine.ErrNotFound)
	}
	// Claims keep pointing at their product; deletion must not orphan them
	for _, c := range t.data.Claims {
		if c.ProductID == id {
			return fmt.Errorf("product %q: %w", id, engine.ErrReferenced)
		}
	}
	delete(t.data.Products, id)
	return nil
}

func (t *txStore) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	return get(t.data.Patients, id, "patient")
}

func (t *txStore) AddPatient(ctx context.Context, p *model.Patient) error {
	return add(t.data.Patients, p.ID, "patient", *p)
}

func (t *txStore) UpdatePatient(ctx context.Context, p *model.Patient) error {
	return update(t.data.Patients, p.ID, "patient", *p)
}

func (t *txStore) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	return get(t.data.Doctors, id, "doctor")
}

func (t *txStore) AddDoctor(ctx context.Context, d *model.Doctor) error {
	return add(t.data.Doctors, d.ID, "doctor", *d)
}

func (t *txStore) GetProvider(ctx context.Context, id string) (*model.InsuranceProvider, error) {
	return get(t.data.Providers, id, "provider")
}

func (t *txStore) AddProvider(ctx context.Context, p *model.InsuranceProvider) error {
	return add(t.data.Providers, p.ID, "provider", *p)
}

func (t *txStore) UpdateProvider(ctx context.Context, p *model.InsuranceProvider) error {
	return update(t.data.Providers, p.ID, "provider", *p)
}

func (t *txStore) GetPrescription(ctx context.Context, id string) (*model.Prescription, error) {
	return get(t.data.Prescriptions, id, "prescription")
}

func (t *txStore) AddPrescription(ctx context.Context, p *model.Prescription) error {
	return add(t.data.Prescriptions, p.ID, "prescription", *p)
}

func (t *txStore) UpdatePrescription(ctx context.Context, p *model.Prescription) error {
	return update(t.data.Prescriptions, p.ID, "prescription", *p)
}

func (t *txStore) GetBill(ctx context.Context, id string) (*model.Bill, error) {
	return get(t.data.Bills, id, "bill")
}

func (t *txStore) AddBill(ctx context.Context, b *model.Bill) error {
	return add(t.data.Bills, b.ID, "bill", *b)
}

func (t *txStore) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	return get(t.data.Claims, id, "claim")
}

func (t *txStore) AddClaim(ctx context.Context, c *model.Claim) error {
	return add(t.data.Claims, c.ID, "claim", *c)
}

func (t *txStore) UpdateClaim(ctx context.Context, c *model.Claim) error {
	return update(t.data.Claims, c.ID, "claim", *c)
}

func (t *txStore) ListClaims(ctx context.Context, filter engine.ClaimFilter) ([]model.Claim, error) {
	claims := make([]model.Claim, 0)
	for _, c := range t.data.Claims {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.PatientID != nil && c.PatientID != *filter.PatientID {
			continue
		}
		if filter.ProductID != nil && c.ProductID != *filter.ProductID {
			continue
		}
		claims = append(claims, c)
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].ID < claims[j].ID })
	return claims, nil
}

func (t *txStore) GetMedReq(ctx context.Context, id string) (*model.MedReq, error) {
	return get(t.data.MedReqs, id, "medication request")
}

func (t *txStore) AddMedReq(ctx context.Context, m *model.MedReq) error {
	return add(t.data.MedReqs, m.ID, "medication request", *m)
}

func (t *txStore) UpdateMedReq(ctx context.Context, m *model.MedReq) error {
	return update(t.data.MedReqs, m.ID, "medication request", *m)
}

func (t *txStore) GetDiagnosis(ctx context.Context, id string) (*model.Diagnosis, error) {
	return get(t.data.Diagnoses, id, "diagnosis")
}

func (t *txStore) AddDiagnosis(ctx context.Context, d *model.Diagnosis) error {
	return add(t.data.Diagnoses, d.ID, "diagnosis", *d)
}

// Direct (non-transactional) operations wrap themselves in Atomically so a
// single call is still a unit.

func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var out *model.Product
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetProduct(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddProduct(ctx context.Context, p *model.Product) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddProduct(ctx, p) })
}

func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.UpdateProduct(ctx, p) })
}

func (s *Store) ListProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.ListProducts(ctx)
		return err
	})
	return out, err
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.DeleteProduct(ctx, id) })
}

func (s *Store) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	var out *model.Patient
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetPatient(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddPatient(ctx context.Context, p *model.Patient) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddPatient(ctx, p) })
}

func (s *Store) UpdatePatient(ctx context.Context, p *model.Patient) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.UpdatePatient(ctx, p) })
}

func (s *Store) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	var out *model.Doctor
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetDoctor(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddDoctor(ctx context.Context, d *model.Doctor) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddDoctor(ctx, d) })
}

func (s *Store) GetProvider(ctx context.Context, id string) (*model.InsuranceProvider, error) {
	var out *model.InsuranceProvider
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetProvider(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddProvider(ctx context.Context, p *model.InsuranceProvider) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddProvider(ctx, p) })
}

func (s *Store) UpdateProvider(ctx context.Context, p *model.InsuranceProvider) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.UpdateProvider(ctx, p) })
}

func (s *Store) GetPrescription(ctx context.Context, id string) (*model.Prescription, error) {
	var out *model.Prescription
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetPrescription(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddPrescription(ctx context.Context, p *model.Prescription) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddPrescription(ctx, p) })
}

func (s *Store) UpdatePrescription(ctx context.Context, p *model.Prescription) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.UpdatePrescription(ctx, p) })
}

func (s *Store) GetBill(ctx context.Context, id string) (*model.Bill, error) {
	var out *model.Bill
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetBill(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddBill(ctx context.Context, b *model.Bill) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddBill(ctx, b) })
}

func (s *Store) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	var out *model.Claim
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetClaim(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddClaim(ctx context.Context, c *model.Claim) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddClaim(ctx, c) })
}

func (s *Store) UpdateClaim(ctx context.Context, c *model.Claim) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.UpdateClaim(ctx, c) })
}

func (s *Store) ListClaims(ctx context.Context, filter engine.ClaimFilter) ([]model.Claim, error) {
	var out []model.Claim
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.ListClaims(ctx, filter)
		return err
	})
	return out, err
}

func (s *Store) GetMedReq(ctx context.Context, id string) (*model.MedReq, error) {
	var out *model.MedReq
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetMedReq(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddMedReq(ctx context.Context, m *model.MedReq) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddMedReq(ctx, m) })
}

func (s *Store) UpdateMedReq(ctx context.Context, m *model.MedReq) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.UpdateMedReq(ctx, m) })
}

func (s *Store) GetDiagnosis(ctx context.Context, id string) (*model.Diagnosis, error) {
	var out *model.Diagnosis
	err := s.run(ctx, func(tx engine.Store) error {
		var err error
		out, err = tx.GetDiagnosis(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) AddDiagnosis(ctx context.Context, d *model.Diagnosis) error {
	return s.run(ctx, func(tx engine.Store) error { return tx.AddDiagnosis(ctx, d) })
}
