package engine

import (
	"context"
	"fmt"

	"ensure/internal/model"
)

type CreatePatientInput struct {
	PatientID string  `json:"patientId"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Balance   float64 `json:"balance"`
}

func (e *Engine) CreatePatient(ctx context.Context, in CreatePatientInput) (*model.Patient, error) {
	if in.PatientID == "" {
		return nil, fmt.Errorf("patientId is required: %w", ErrValidation)
	}
	patient := &model.Patient{
		ID:      in.PatientID,
		Email:   in.Email,
		Name:    in.Name,
		Balance: in.Balance,
	}
	if err := e.store.AddPatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to add patient: %w", err)
	}
	e.record("CreatePatient", in)
	return patient, nil
}

type CreateDoctorInput struct {
	DoctorID string `json:"doctorId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func (e *Engine) CreateDoctor(ctx context.Context, in CreateDoctorInput) (*model.Doctor, error) {
	if in.DoctorID == "" {
		return nil, fmt.Errorf("doctorId is required: %w", ErrValidation)
	}
	doctor := &model.Doctor{ID: in.DoctorID, Email: in.Email, Name: in.Name}
	if err := e.store.AddDoctor(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to add doctor: %w", err)
	}
	e.record("CreateDoctor", in)
	return doctor, nil
}

type CreateProviderInput struct {
	ProviderID string `json:"providerId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

func (e *Engine) CreateProvider(ctx context.Context, in CreateProviderInput) (*model.InsuranceProvider, error) {
	if in.ProviderID == "" {
		return nil, fmt.Errorf("providerId is required: %w", ErrValidation)
	}
	provider := &model.InsuranceProvider{ID: in.ProviderID, Email: in.Email, Name: in.Name}
	if err := e.store.AddProvider(ctx, provider); err != nil {
		return nil, fmt.Errorf("failed to add provider: %w", err)
	}
	e.record("CreateInsuranceProvider", in)
	return provider, nil
}
