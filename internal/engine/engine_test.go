package engine_test

import (
	"context"
	"testing"
	"time"

	"ensure/internal/engine"
	"ensure/internal/memstore"
	"ensure/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// busRecorder captures published events for assertions
type busRecorder struct {
	events []recordedEvent
}

type recordedEvent struct {
	Channel string
	Event   map[string]interface{}
}

func (b *busRecorder) PublishPatient(id string, event map[string]interface{}) error {
	b.events = append(b.events, recordedEvent{"patient:" + id, event})
	return nil
}

func (b *busRecorder) PublishClaim(id string, event map[string]interface{}) error {
	b.events = append(b.events, recordedEvent{"claim:" + id, event})
	return nil
}

func (b *busRecorder) PublishProvider(id string, event map[string]interface{}) error {
	b.events = append(b.events, recordedEvent{"provider:" + id, event})
	return nil
}

func (b *busRecorder) channels() []string {
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Channel)
	}
	return out
}

// journalRecorder captures recorded transaction kinds
type journalRecorder struct {
	kinds []string
}

func (j *journalRecorder) Append(kind string, payload interface{}) error {
	j.kinds = append(j.kinds, kind)
	return nil
}

func newTestEngine(t *testing.T) (*engine.Engine, *memstore.Store, *busRecorder, *journalRecorder) {
	t.Helper()
	store := memstore.New()
	bus := &busRecorder{}
	journal := &journalRecorder{}
	eng := engine.New(store, bus)
	eng.SetJournal(journal)
	return eng, store, bus, journal
}

// seedWorkflow registers a provider, a product (premium 100, cover 500), a
// patient with balance 150, and a doctor.
func seedWorkflow(t *testing.T, eng *engine.Engine) {
	t.Helper()
	ctx := context.Background()

	_, err := eng.CreateProvider(ctx, engine.CreateProviderInput{ProviderID: "prov1", Name: "Acme Assurance"})
	require.NoError(t, err)
	_, err = eng.CreateProduct(ctx, engine.CreateProductInput{ProductID: "prod1", Premium: 100, Cover: 500, ProviderID: "prov1"})
	require.NoError(t, err)
	_, err = eng.CreatePatient(ctx, engine.CreatePatientInput{PatientID: "pat1", Name: "Alice", Balance: 150})
	require.NoError(t, err)
	_, err = eng.CreateDoctor(ctx, engine.CreateDoctorInput{DoctorID: "doc1", Name: "Dr. Bob"})
	require.NoError(t, err)
}

func strptr(s string) *string { return &s }

// fileReimbursementClaim issues a prescription and bill and files a
// reimbursement claim referencing both.
func fileReimbursementClaim(t *testing.T, eng *engine.Engine, claimID string) {
	t.Helper()
	ctx := context.Background()

	_, err := eng.CreatePrescription(ctx, engine.CreatePrescriptionInput{
		PrescriptionID: "rx-" + claimID, DoctorID: "doc1", PatientID: "pat1",
		Description: "amoxicillin", ValidityDays: 30,
	})
	require.NoError(t, err)
	_, err = eng.GenerateBill(ctx, engine.GenerateBillInput{
		BillID: "bill-" + claimID, PatientID: "pat1", DoctorID: "doc1", Amount: 250,
	})
	require.NoError(t, err)
	_, err = eng.FileClaim(ctx, engine.FileClaimInput{
		ClaimID: claimID, Type: model.ClaimReimbursement,
		PatientID: "pat1", ProductID: "prod1", DoctorID: "doc1",
		PrescriptionID: strptr("rx-" + claimID), BillID: strptr("bill-" + claimID),
	})
	require.NoError(t, err)
}

func TestCreateProductLinksProvider(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.CreateProvider(ctx, engine.CreateProviderInput{ProviderID: "prov1"})
	require.NoError(t, err)
	_, err = eng.CreateProduct(ctx, engine.CreateProductInput{ProductID: "prod1", Premium: 10, Cover: 50, ProviderID: "prov1"})
	require.NoError(t, err)

	provider, err := store.GetProvider(ctx, "prov1")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod1"}, provider.Products)
}

func TestCreateProductUnknownProvider(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.CreateProduct(ctx, engine.CreateProductInput{ProductID: "prod1", Premium: 10, Cover: 50, ProviderID: "ghost"})
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = store.GetProduct(ctx, "prod1")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestBuyProductDebitsAndLinks(t *testing.T) {
	eng, store, bus, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	require.NoError(t, eng.BuyProduct(ctx, engine.BuyProductInput{PatientID: "pat1", ProductID: "prod1"}))

	patient, err := store.GetPatient(ctx, "pat1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, patient.Balance)
	assert.Equal(t, []string{"prod1"}, patient.Products)

	product, err := store.GetProduct(ctx, "prod1")
	require.NoError(t, err)
	assert.Equal(t, []string{"pat1"}, product.Buyers)

	assert.Contains(t, bus.channels(), "patient:pat1")
}

func TestBuyProductInsufficientFunds(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	// First purchase drops the balance to 50, below the 100 premium
	require.NoError(t, eng.BuyProduct(ctx, engine.BuyProductInput{PatientID: "pat1", ProductID: "prod1"}))

	err := eng.BuyProduct(ctx, engine.BuyProductInput{PatientID: "pat1", ProductID: "prod1"})
	assert.ErrorIs(t, err, engine.ErrInsufficientFunds)

	patient, err := store.GetPatient(ctx, "pat1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, patient.Balance)
	assert.Len(t, patient.Products, 1)
}

func TestBuyProductUnknownPatient(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)

	err := eng.BuyProduct(context.Background(), engine.BuyProductInput{PatientID: "ghost", ProductID: "prod1"})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestFileClaimReimbursementRequiresReferences(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	_, err := eng.FileClaim(ctx, engine.FileClaimInput{
		ClaimID: "c1", Type: model.ClaimReimbursement,
		PatientID: "pat1", ProductID: "prod1", DoctorID: "doc1",
	})
	assert.ErrorIs(t, err, engine.ErrMissingReference)

	_, err = eng.FileClaim(ctx, engine.FileClaimInput{
		ClaimID: "c1", Type: model.ClaimReimbursement,
		PatientID: "pat1", ProductID: "prod1", DoctorID: "doc1",
		PrescriptionID: strptr("rx1"),
	})
	assert.ErrorIs(t, err, engine.ErrMissingReference)

	_, err = store.GetClaim(ctx, "c1")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestFileClaimDanglingReferenceRollsBack(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	_, err := eng.FileClaim(ctx, engine.FileClaimInput{
		ClaimID: "c1", Type: model.ClaimReimbursement,
		PatientID: "pat1", ProductID: "prod1", DoctorID: "doc1",
		PrescriptionID: strptr("no-such-rx"), BillID: strptr("no-such-bill"),
	})
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = store.GetClaim(ctx, "c1")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestFileClaimCashlessCarriesNoReferences(t *testing.T) {
	eng, store, bus, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	claim, err := eng.FileClaim(ctx, engine.FileClaimInput{
		ClaimID: "c1", Type: model.ClaimCashless,
		PatientID: "pat1", ProductID: "prod1", DoctorID: "doc1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ClaimPending, claim.Status)
	assert.Nil(t, claim.PrescriptionID)
	assert.Nil(t, claim.BillID)

	stored, err := store.GetClaim(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimPending, stored.Status)

	// Filed events fan out to the claim channel and the product's provider
	assert.Contains(t, bus.channels(), "claim:c1")
	assert.Contains(t, bus.channels(), "provider:prov1")
}

func TestApproveClaimCouplesPrescription(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	require.NoError(t, eng.ApproveClaim(ctx, "c1"))

	claim, err := store.GetClaim(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimApproved, claim.Status)

	prescription, err := store.GetPrescription(ctx, "rx-c1")
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionApproved, prescription.Status)
}

func TestRejectClaimCouplesPrescription(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	require.NoError(t, eng.RejectClaim(ctx, "c1"))

	prescription, err := store.GetPrescription(ctx, "rx-c1")
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionRejected, prescription.Status)
}

func TestRejectClaimFromProviderLeavesPrescription(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	require.NoError(t, eng.RejectClaimFromProvider(ctx, "c1"))

	claim, err := store.GetClaim(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimRejected, claim.Status)

	prescription, err := store.GetPrescription(ctx, "rx-c1")
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionPending, prescription.Status)
}

func TestRejectedClaimIsTerminal(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	require.NoError(t, eng.RejectClaim(ctx, "c1"))

	assert.ErrorIs(t, eng.ApproveClaim(ctx, "c1"), engine.ErrAlreadyRejected)
	assert.ErrorIs(t, eng.RejectClaim(ctx, "c1"), engine.ErrAlreadyRejected)
	assert.ErrorIs(t, eng.RejectClaimFromProvider(ctx, "c1"), engine.ErrAlreadyRejected)
	assert.ErrorIs(t, eng.SettleClaim(ctx, "c1"), engine.ErrAlreadyRejected)
}

func TestSettleClaimCreditsCover(t *testing.T) {
	eng, store, bus, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	// Settlement does not require prior approval
	require.NoError(t, eng.SettleClaim(ctx, "c1"))

	claim, err := store.GetClaim(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimSettled, claim.Status)

	patient, err := store.GetPatient(ctx, "pat1")
	require.NoError(t, err)
	assert.Equal(t, 650.0, patient.Balance)

	assert.Contains(t, bus.channels(), "claim:c1")
	assert.Contains(t, bus.channels(), "patient:pat1")
}

func TestSettleClaimTwiceRefused(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	require.NoError(t, eng.SettleClaim(ctx, "c1"))
	assert.ErrorIs(t, eng.SettleClaim(ctx, "c1"), engine.ErrNotEligible)

	// Balance credited exactly once
	patient, err := store.GetPatient(ctx, "pat1")
	require.NoError(t, err)
	assert.Equal(t, 650.0, patient.Balance)
}

func TestGetMedsIsUngated(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	// Claim and prescription are both still PENDING
	medReq, err := eng.GetMeds(ctx, engine.GetMedsInput{
		ReqID: "mr1", PrescriptionID: "rx-c1", ClaimID: "c1", PatientID: "pat1",
	})
	require.NoError(t, err)
	assert.Nil(t, medReq.CompletedAt)

	stored, err := store.GetMedReq(ctx, "mr1")
	require.NoError(t, err)
	assert.Equal(t, "rx-c1", stored.PrescriptionID)
}

func TestCompleteMedReqFullFlow(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	require.NoError(t, eng.ApproveClaim(ctx, "c1"))
	require.NoError(t, eng.SettleClaim(ctx, "c1"))
	_, err := eng.GetMeds(ctx, engine.GetMedsInput{
		ReqID: "mr1", PrescriptionID: "rx-c1", ClaimID: "c1", PatientID: "pat1",
	})
	require.NoError(t, err)

	require.NoError(t, eng.CompleteMedReq(ctx, "mr1"))

	prescription, err := store.GetPrescription(ctx, "rx-c1")
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionClaimed, prescription.Status)

	medReq, err := store.GetMedReq(ctx, "mr1")
	require.NoError(t, err)
	require.NotNil(t, medReq.CompletedAt)
	assert.WithinDuration(t, time.Now(), *medReq.CompletedAt, time.Minute)

	// CLAIMED prescriptions cannot be fulfilled again
	assert.ErrorIs(t, eng.CompleteMedReq(ctx, "mr1"), engine.ErrNotEligible)
}

func TestCompleteMedReqRequiresSettledClaim(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	ctx := context.Background()

	require.NoError(t, eng.ApproveClaim(ctx, "c1"))
	_, err := eng.GetMeds(ctx, engine.GetMedsInput{
		ReqID: "mr1", PrescriptionID: "rx-c1", ClaimID: "c1", PatientID: "pat1",
	})
	require.NoError(t, err)

	// Approved prescription but unsettled claim
	assert.ErrorIs(t, eng.CompleteMedReq(ctx, "mr1"), engine.ErrNotEligible)
}

func TestCompleteMedReqExpiredPrescription(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	// Zero validity days puts validUntil in the past immediately
	_, err := eng.CreatePrescription(ctx, engine.CreatePrescriptionInput{
		PrescriptionID: "rx1", DoctorID: "doc1", PatientID: "pat1", ValidityDays: 0,
	})
	require.NoError(t, err)
	_, err = eng.GenerateBill(ctx, engine.GenerateBillInput{
		BillID: "b1", PatientID: "pat1", DoctorID: "doc1", Amount: 40,
	})
	require.NoError(t, err)
	_, err = eng.FileClaim(ctx, engine.FileClaimInput{
		ClaimID: "c1", Type: model.ClaimReimbursement,
		PatientID: "pat1", ProductID: "prod1", DoctorID: "doc1",
		PrescriptionID: strptr("rx1"), BillID: strptr("b1"),
	})
	require.NoError(t, err)
	require.NoError(t, eng.ApproveClaim(ctx, "c1"))
	require.NoError(t, eng.SettleClaim(ctx, "c1"))
	_, err = eng.GetMeds(ctx, engine.GetMedsInput{
		ReqID: "mr1", PrescriptionID: "rx1", ClaimID: "c1", PatientID: "pat1",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, eng.CompleteMedReq(ctx, "mr1"), engine.ErrExpired)
}

func TestUpdateProductRevisesTerms(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	require.NoError(t, eng.BuyProduct(ctx, engine.BuyProductInput{PatientID: "pat1", ProductID: "prod1"}))

	updated, err := eng.UpdateProduct(ctx, engine.UpdateProductInput{ProductID: "prod1", Premium: 120, Cover: 600})
	require.NoError(t, err)
	assert.Equal(t, 600.0, updated.Cover)

	// Buyer links survive the revision
	product, err := store.GetProduct(ctx, "prod1")
	require.NoError(t, err)
	assert.Equal(t, 120.0, product.Premium)
	assert.Equal(t, []string{"pat1"}, product.Buyers)

	_, err = eng.UpdateProduct(ctx, engine.UpdateProductInput{ProductID: "ghost"})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestDeleteProductUnlinksProvider(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	require.NoError(t, eng.DeleteProduct(ctx, "prod1"))

	_, err := store.GetProduct(ctx, "prod1")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	provider, err := store.GetProvider(ctx, "prov1")
	require.NoError(t, err)
	assert.Empty(t, provider.Products)
}

func TestDuplicateParticipants(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.CreatePatient(ctx, engine.CreatePatientInput{PatientID: "pat1"})
	require.NoError(t, err)
	_, err = eng.CreatePatient(ctx, engine.CreatePatientInput{PatientID: "pat1"})
	assert.ErrorIs(t, err, engine.ErrDuplicateKey)

	_, err = eng.CreateDoctor(ctx, engine.CreateDoctorInput{DoctorID: ""})
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestJournalRecordsCommittedTransactions(t *testing.T) {
	eng, _, _, journal := newTestEngine(t)
	seedWorkflow(t, eng)
	ctx := context.Background()

	require.NoError(t, eng.BuyProduct(ctx, engine.BuyProductInput{PatientID: "pat1", ProductID: "prod1"}))
	err := eng.BuyProduct(ctx, engine.BuyProductInput{PatientID: "pat1", ProductID: "prod1"})
	require.ErrorIs(t, err, engine.ErrInsufficientFunds)

	// Seeding writes four entries; only the successful purchase adds a fifth
	assert.Equal(t, []string{
		"CreateInsuranceProvider", "CreateProduct", "CreatePatient", "CreateDoctor", "BuyProduct",
	}, journal.kinds)
}

func TestListClaimsFilters(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	seedWorkflow(t, eng)
	fileReimbursementClaim(t, eng, "c1")
	fileReimbursementClaim(t, eng, "c2")
	ctx := context.Background()

	require.NoError(t, eng.RejectClaim(ctx, "c2"))

	rejected := model.ClaimRejected
	claims, err := store.ListClaims(ctx, engine.ClaimFilter{Status: &rejected})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "c2", claims[0].ID)

	patient := "pat1"
	claims, err = store.ListClaims(ctx, engine.ClaimFilter{PatientID: &patient})
	require.NoError(t, err)
	assert.Len(t, claims, 2)
}
