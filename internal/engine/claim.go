package engine

import (
	"context"
	"fmt"

	"ensure/internal/model"
)

type FileClaimInput struct {
	ClaimID        string          `json:"claimId"`
	Type           model.ClaimType `json:"type"`
	PatientID      string          `json:"patient"`
	ProductID      string          `json:"product"`
	DoctorID       string          `json:"doctor"`
	PrescriptionID *string         `json:"prescription,omitempty"`
	BillID         *string         `json:"bill,omitempty"`
}

// FileClaim creates a PENDING claim. Reimbursement claims must reference an
// existing prescription and bill; other claim types carry neither.
func (e *Engine) FileClaim(ctx context.Context, in FileClaimInput) (*model.Claim, error) {
	if in.Type == model.ClaimReimbursement {
		if in.PrescriptionID == nil || *in.PrescriptionID == "" {
			return nil, fmt.Errorf("prescription asset required for reimbursement claims: %w", ErrMissingReference)
		}
		if in.BillID == nil || *in.BillID == "" {
			return nil, fmt.Errorf("bill asset required for reimbursement claims: %w", ErrMissingReference)
		}
	}

	claim := &model.Claim{
		ID:        in.ClaimID,
		Type:      in.Type,
		PatientID: in.PatientID,
		ProductID: in.ProductID,
		DoctorID:  in.DoctorID,
		Status:    model.ClaimPending,
		CreatedAt: e.timestamp(),
		UpdatedAt: e.timestamp(),
	}
	if in.Type == model.ClaimReimbursement {
		claim.PrescriptionID = in.PrescriptionID
		claim.BillID = in.BillID
	}

	var providerID string
	err := e.store.Atomically(ctx, func(tx Store) error {
		if _, err := tx.GetPatient(ctx, in.PatientID); err != nil {
			return fmt.Errorf("patient not found: %w", err)
		}
		product, err := tx.GetProduct(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("product not found: %w", err)
		}
		providerID = product.ProviderID
		if _, err := tx.GetDoctor(ctx, in.DoctorID); err != nil {
			return fmt.Errorf("doctor not found: %w", err)
		}
		if claim.PrescriptionID != nil {
			if _, err := tx.GetPrescription(ctx, *claim.PrescriptionID); err != nil {
				return fmt.Errorf("prescription not found: %w", err)
			}
		}
		if claim.BillID != nil {
			if _, err := tx.GetBill(ctx, *claim.BillID); err != nil {
				return fmt.Errorf("bill not found: %w", err)
			}
		}
		if err := tx.AddClaim(ctx, claim); err != nil {
			return fmt.Errorf("failed to add claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record("FileClaim", in)
	event := map[string]interface{}{
		"type":      "claim.filed",
		"claimId":   claim.ID,
		"patientId": claim.PatientID,
		"doctorId":  claim.DoctorID,
	}
	_ = e.bus.PublishClaim(claim.ID, event)
	_ = e.bus.PublishProvider(providerID, event)

	if e.jobClient != nil {
		_ = e.jobClient.ScheduleStaleClaimReminder(claim.ID)
	}
	return claim, nil
}

// ApproveClaim moves a claim to APPROVED. For reimbursement claims the
// linked prescription becomes APPROVED in the same commit.
func (e *Engine) ApproveClaim(ctx context.Context, claimID string) error {
	claim, err := e.resolveClaim(ctx, claimID, model.ClaimApproved, true)
	if err != nil {
		return err
	}

	e.record("ApproveClaim", map[string]string{"claimId": claimID})
	event := map[string]interface{}{
		"type":      "claim.approved",
		"claimId":   claim.ID,
		"patientId": claim.PatientID,
	}
	_ = e.bus.PublishClaim(claim.ID, event)
	_ = e.bus.PublishPatient(claim.PatientID, event)
	return nil
}

// RejectClaim moves a claim to REJECTED and couples the linked prescription
// for reimbursement claims.
func (e *Engine) RejectClaim(ctx context.Context, claimID string) error {
	return e.reject(ctx, claimID, true, "RejectClaim")
}

// RejectClaimFromProvider is the provider-initiated variant: the claim is
// rejected but the prescription is left untouched.
func (e *Engine) RejectClaimFromProvider(ctx context.Context, claimID string) error {
	return e.reject(ctx, claimID, false, "RejectClaimFromProvider")
}

func (e *Engine) reject(ctx context.Context, claimID string, touchPrescription bool, kind string) error {
	claim, err := e.resolveClaim(ctx, claimID, model.ClaimRejected, touchPrescription)
	if err != nil {
		return err
	}

	e.record(kind, map[string]string{"claimId": claimID})
	event := map[string]interface{}{
		"type":      "claim.rejected",
		"claimId":   claim.ID,
		"patientId": claim.PatientID,
	}
	_ = e.bus.PublishClaim(claim.ID, event)
	_ = e.bus.PublishPatient(claim.PatientID, event)
	return nil
}

// resolveClaim applies an APPROVED or REJECTED transition, coupling the
// prescription status when asked. A claim already REJECTED cannot move.
func (e *Engine) resolveClaim(ctx context.Context, claimID string, to model.ClaimStatus, touchPrescription bool) (*model.Claim, error) {
	var claim *model.Claim
	err := e.store.Atomically(ctx, func(tx Store) error {
		var err error
		claim, err = tx.GetClaim(ctx, claimID)
		if err != nil {
			return fmt.Errorf("claim not found: %w", err)
		}
		if claim.Status == model.ClaimRejected {
			return ErrAlreadyRejected
		}

		claim.Status = to
		claim.UpdatedAt = e.timestamp()
		if err := tx.UpdateClaim(ctx, claim); err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}

		if touchPrescription && claim.Type == model.ClaimReimbursement && claim.PrescriptionID != nil {
			prescription, err := tx.GetPrescription(ctx, *claim.PrescriptionID)
			if err != nil {
				return fmt.Errorf("prescription not found: %w", err)
			}
			prescription.Status = model.PrescriptionStatus(to)
			if err := tx.UpdatePrescription(ctx, prescription); err != nil {
				return fmt.Errorf("failed to update prescription: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// SettleClaim moves a claim to SETTLED and credits the patient's balance by
// the product cover. Rejected claims cannot settle; a claim already SETTLED
// cannot settle again. Prior approval is not required: a PENDING claim may
// settle directly.
func (e *Engine) SettleClaim(ctx context.Context, claimID string) error {
	var claim *model.Claim
	err := e.store.Atomically(ctx, func(tx Store) error {
		var err error
		claim, err = tx.GetClaim(ctx, claimID)
		if err != nil {
			return fmt.Errorf("claim not found: %w", err)
		}
		if claim.Status == model.ClaimRejected {
			return ErrAlreadyRejected
		}
		if claim.Status == model.ClaimSettled {
			return fmt.Errorf("claim already settled: %w", ErrNotEligible)
		}

		patient, err := tx.GetPatient(ctx, claim.PatientID)
		if err != nil {
			return fmt.Errorf("patient not found: %w", err)
		}
		product, err := tx.GetProduct(ctx, claim.ProductID)
		if err != nil {
			return fmt.Errorf("product not found: %w", err)
		}

		claim.Status = model.ClaimSettled
		claim.UpdatedAt = e.timestamp()
		patient.Balance += product.Cover

		if err := tx.UpdateClaim(ctx, claim); err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}
		if err := tx.UpdatePatient(ctx, patient); err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.record("SettleClaim", map[string]string{"claimId": claimID})
	event := map[string]interface{}{
		"type":      "claim.settled",
		"claimId":   claim.ID,
		"patientId": claim.PatientID,
	}
	_ = e.bus.PublishClaim(claim.ID, event)
	_ = e.bus.PublishPatient(claim.PatientID, event)
	return nil
}
