package engine

import (
	"context"
	"fmt"
	"time"

	"ensure/internal/model"
)

type CreateDiagnosisInput struct {
	DiagnosisID string `json:"diagnosisId"`
	DoctorID    string `json:"doctor"`
	PatientID   string `json:"patient"`
	Description string `json:"description"`
}

// CreateDiagnosis records a write-once diagnosis. The description may be an
// opaque reference to an externally stored document.
func (e *Engine) CreateDiagnosis(ctx context.Context, in CreateDiagnosisInput) (*model.Diagnosis, error) {
	diagnosis := &model.Diagnosis{
		ID:          in.DiagnosisID,
		DoctorID:    in.DoctorID,
		PatientID:   in.PatientID,
		Description: in.Description,
	}

	err := e.store.Atomically(ctx, func(tx Store) error {
		if _, err := tx.GetDoctor(ctx, in.DoctorID); err != nil {
			return fmt.Errorf("doctor not found: %w", err)
		}
		if _, err := tx.GetPatient(ctx, in.PatientID); err != nil {
			return fmt.Errorf("patient not found: %w", err)
		}
		if err := tx.AddDiagnosis(ctx, diagnosis); err != nil {
			return fmt.Errorf("failed to add diagnosis: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record("CreateDiagnosis", in)
	return diagnosis, nil
}

type CreatePrescriptionInput struct {
	PrescriptionID string `json:"prescriptionId"`
	DoctorID       string `json:"doctor"`
	PatientID      string `json:"patient"`
	Description    string `json:"description"`
	ValidityDays   int    `json:"validityDays"`
}

// CreatePrescription issues a PENDING prescription valid for validityDays
// from issuance.
func (e *Engine) CreatePrescription(ctx context.Context, in CreatePrescriptionInput) (*model.Prescription, error) {
	prescription := &model.Prescription{
		ID:           in.PrescriptionID,
		DoctorID:     in.DoctorID,
		PatientID:    in.PatientID,
		Description:  in.Description,
		ValidityDays: in.ValidityDays,
		ValidUntil:   e.now().Add(time.Duration(in.ValidityDays) * 24 * time.Hour),
		Status:       model.PrescriptionPending,
	}

	err := e.store.Atomically(ctx, func(tx Store) error {
		if _, err := tx.GetDoctor(ctx, in.DoctorID); err != nil {
			return fmt.Errorf("doctor not found: %w", err)
		}
		if _, err := tx.GetPatient(ctx, in.PatientID); err != nil {
			return fmt.Errorf("patient not found: %w", err)
		}
		if err := tx.AddPrescription(ctx, prescription); err != nil {
			return fmt.Errorf("failed to add prescription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record("CreatePrescription", in)
	if e.jobClient != nil {
		_ = e.jobClient.SchedulePrescriptionExpiry(prescription.ID, prescription.ValidUntil)
	}
	return prescription, nil
}

type GenerateBillInput struct {
	BillID      string  `json:"billId"`
	Description string  `json:"description"`
	PatientID   string  `json:"patient"`
	DoctorID    string  `json:"doctor"`
	Amount      float64 `json:"amount"`
}

// GenerateBill persists a bill verbatim; bills are immutable once created.
func (e *Engine) GenerateBill(ctx context.Context, in GenerateBillInput) (*model.Bill, error) {
	bill := &model.Bill{
		ID:          in.BillID,
		Description: in.Description,
		PatientID:   in.PatientID,
		DoctorID:    in.DoctorID,
		Amount:      in.Amount,
	}

	err := e.store.Atomically(ctx, func(tx Store) error {
		if _, err := tx.GetPatient(ctx, in.PatientID); err != nil {
			return fmt.Errorf("patient not found: %w", err)
		}
		if _, err := tx.GetDoctor(ctx, in.DoctorID); err != nil {
			return fmt.Errorf("doctor not found: %w", err)
		}
		if err := tx.AddBill(ctx, bill); err != nil {
			return fmt.Errorf("failed to add bill: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record("GenerateBill", in)
	return bill, nil
}
