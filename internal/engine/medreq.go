package engine

import (
	"context"
	"fmt"

	"ensure/internal/model"
)

type GetMedsInput struct {
	ReqID          string `json:"reqId"`
	PrescriptionID string `json:"prescription"`
	ClaimID        string `json:"claim"`
	PatientID      string `json:"patient"`
}

// GetMeds files a medicine fulfillment request. No status gating happens
// here: eligibility is checked at fulfillment time by CompleteMedReq.
func (e *Engine) GetMeds(ctx context.Context, in GetMedsInput) (*model.MedReq, error) {
	medReq := &model.MedReq{
		ID:             in.ReqID,
		PrescriptionID: in.PrescriptionID,
		ClaimID:        in.ClaimID,
		PatientID:      in.PatientID,
	}

	err := e.store.Atomically(ctx, func(tx Store) error {
		if _, err := tx.GetPrescription(ctx, in.PrescriptionID); err != nil {
			return fmt.Errorf("prescription not found: %w", err)
		}
		if _, err := tx.GetClaim(ctx, in.ClaimID); err != nil {
			return fmt.Errorf("claim not found: %w", err)
		}
		if _, err := tx.GetPatient(ctx, in.PatientID); err != nil {
			return fmt.Errorf("patient not found: %w", err)
		}
		if err := tx.AddMedReq(ctx, medReq); err != nil {
			return fmt.Errorf("failed to add medication request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record("GetMeds", in)
	return medReq, nil
}

// CompleteMedReq fulfills a medication request. The linked prescription must
// be APPROVED and the linked claim SETTLED, and the prescription's validity
// window must not have passed. On success the prescription becomes CLAIMED,
// which makes fulfillment single-shot.
func (e *Engine) CompleteMedReq(ctx context.Context, requestID string) error {
	err := e.store.Atomically(ctx, func(tx Store) error {
		medReq, err := tx.GetMedReq(ctx, requestID)
		if err != nil {
			return fmt.Errorf("medication request not found: %w", err)
		}
		prescription, err := tx.GetPrescription(ctx, medReq.PrescriptionID)
		if err != nil {
			return fmt.Errorf("prescription not found: %w", err)
		}
		claim, err := tx.GetClaim(ctx, medReq.ClaimID)
		if err != nil {
			return fmt.Errorf("claim not found: %w", err)
		}

		if prescription.Status != model.PrescriptionApproved || claim.Status != model.ClaimSettled {
			return ErrNotEligible
		}
		if e.now().After(prescription.ValidUntil) {
			return ErrExpired
		}

		prescription.Status = model.PrescriptionClaimed
		if err := tx.UpdatePrescription(ctx, prescription); err != nil {
			return fmt.Errorf("failed to update prescription: %w", err)
		}

		completedAt := e.now()
		medReq.CompletedAt = &completedAt
		if err := tx.UpdateMedReq(ctx, medReq); err != nil {
			return fmt.Errorf("failed to update medication request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.record("CompleteMedReq", map[string]string{"reqId": requestID})
	return nil
}
