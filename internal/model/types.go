package model

import "time"

// ClaimStatus represents claim lifecycle status
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
	ClaimSettled  ClaimStatus = "SETTLED"
)

// PrescriptionStatus represents prescription status
type PrescriptionStatus string

const (
	PrescriptionPending  PrescriptionStatus = "PENDING"
	PrescriptionApproved PrescriptionStatus = "APPROVED"
	PrescriptionRejected PrescriptionStatus = "REJECTED"
	PrescriptionClaimed  PrescriptionStatus = "CLAIMED"
)

// ClaimType represents the kind of claim being filed
type ClaimType string

const (
	ClaimReimbursement ClaimType = "REIMBURSEMENT"
	ClaimCashless      ClaimType = "CASHLESS"
)

// Product is an insurance product offered by a provider
type Product struct {
	ID         string   `json:"id"`
	Premium    float64  `json:"premium"`
	Cover      float64  `json:"cover"`
	ProviderID string   `json:"providerId"`
	Buyers     []string `json:"buyers,omitempty"`
	CreatedAt  string   `json:"createdAt,omitempty"`
}

// Patient is an insured participant
type Patient struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Balance  float64  `json:"balance"`
	Products []string `json:"products,omitempty"`
}

// Doctor is a prescribing participant
type Doctor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// InsuranceProvider offers products and reviews claims
type InsuranceProvider struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Products []string `json:"products,omitempty"`
}

// Prescription issued by a doctor; status is driven by the linked claim
type Prescription struct {
	ID           string             `json:"id"`
	DoctorID     string             `json:"doctorId"`
	PatientID    string             `json:"patientId"`
	Description  string             `json:"description"`
	ValidityDays int                `json:"validityDays"`
	ValidUntil   time.Time          `json:"validUntil"`
	Status       PrescriptionStatus `json:"pstatus"`
}

// Bill is an immutable record of charges for a treatment
type Bill struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	PatientID   string  `json:"patientId"`
	DoctorID    string  `json:"doctorId"`
	Amount      float64 `json:"amount"`
}

// Claim is a request for coverage against a purchased product.
// REIMBURSEMENT claims must carry both a prescription and a bill.
type Claim struct {
	ID             string      `json:"id"`
	Type           ClaimType   `json:"type"`
	PrescriptionID *string     `json:"prescriptionId,omitempty"`
	BillID         *string     `json:"billId,omitempty"`
	PatientID      string      `json:"patientId"`
	ProductID      string      `json:"productId"`
	DoctorID       string      `json:"doctorId"`
	Status         ClaimStatus `json:"status"`
	CreatedAt      string      `json:"createdAt,omitempty"`
	UpdatedAt      string      `json:"updatedAt,omitempty"`
}

// MedReq is a medicine fulfillment request tying a prescription to a claim
type MedReq struct {
	ID             string     `json:"id"`
	PrescriptionID string     `json:"prescriptionId"`
	ClaimID        string     `json:"claimId"`
	PatientID      string     `json:"patientId"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Diagnosis is a write-once clinical record
type Diagnosis struct {
	ID          string `json:"id"`
	DoctorID    string `json:"doctorId"`
	PatientID   string `json:"patientId"`
	Description string `json:"description"`
}
