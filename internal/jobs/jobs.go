package jobs

import (
	"context"
	"fmt"
	"time"

	"ensure/internal/engine"
	"ensure/internal/model"
	"ensure/internal/pubsub"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// staleClaimAfter is how long a claim may sit PENDING before the provider
// gets a reminder.
const staleClaimAfter = 72 * time.Hour

// JobServer runs the background workers: prescription expiry notices and
// stale claim reminders. Handlers re-check current status before acting, so
// a job that fires after the state moved on is a no-op.
type JobServer struct {
	server *asynq.Server
	client *asynq.Client
	store  engine.Store
	bus    *pubsub.Bus
	log    *zap.Logger
}

func NewJobServer(redisAddr string, store engine.Store, bus *pubsub.Bus, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server: server,
		client: client,
		store:  store,
		bus:    bus,
		log:    log,
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc("prescription:expire", js.handlePrescriptionExpiry)
	mux.HandleFunc("claim:stale", js.handleStaleClaim)

	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.server.Shutdown()
	js.client.Close()
}

// handlePrescriptionExpiry notifies the patient when a prescription passes
// its validity window without being claimed.
func (js *JobServer) handlePrescriptionExpiry(ctx context.Context, t *asynq.Task) error {
	prescriptionID := string(t.Payload())

	prescription, err := js.store.GetPrescription(ctx, prescriptionID)
	if err != nil {
		return fmt.Errorf("failed to get prescription: %w", err)
	}

	// CLAIMED and REJECTED prescriptions are already terminal
	if prescription.Status != model.PrescriptionPending && prescription.Status != model.PrescriptionApproved {
		return nil
	}

	event := map[string]interface{}{
		"type":           "prescription.expired",
		"prescriptionId": prescriptionID,
		"validUntil":     prescription.ValidUntil.Format(time.RFC3339),
	}
	_ = js.bus.PublishPrescription(prescriptionID, event)
	_ = js.bus.PublishPatient(prescription.PatientID, event)

	js.log.Info("Prescription expiry notice sent", zap.String("prescription_id", prescriptionID))
	return nil
}

// handleStaleClaim reminds the product's provider about a claim still
// awaiting a decision.
func (js *JobServer) handleStaleClaim(ctx context.Context, t *asynq.Task) error {
	claimID := string(t.Payload())

	claim, err := js.store.GetClaim(ctx, claimID)
	if err != nil {
		return fmt.Errorf("failed to get claim: %w", err)
	}

	if claim.Status != model.ClaimPending {
		return nil
	}

	product, err := js.store.GetProduct(ctx, claim.ProductID)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}

	_ = js.bus.PublishProvider(product.ProviderID, map[string]interface{}{
		"type":    "claim.needs_attention",
		"claimId": claimID,
		"filedAt": claim.CreatedAt,
	})

	js.log.Info("Stale claim reminder sent", zap.String("claim_id", claimID))
	return nil
}

// Client schedules jobs from transaction handlers
type Client struct {
	client *asynq.Client
}

func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

// SchedulePrescriptionExpiry fires an expiry notice when validUntil passes
func (c *Client) SchedulePrescriptionExpiry(prescriptionID string, validUntil time.Time) error {
	if validUntil.Before(time.Now()) {
		return nil
	}

	task := asynq.NewTask("prescription:expire", []byte(prescriptionID))
	_, err := c.client.Enqueue(task, asynq.ProcessIn(time.Until(validUntil)), asynq.Queue("low"))
	return err
}

// ScheduleStaleClaimReminder nudges the provider if the claim is still
// pending after the grace period
func (c *Client) ScheduleStaleClaimReminder(claimID string) error {
	task := asynq.NewTask("claim:stale", []byte(claimID))
	_, err := c.client.Enqueue(task, asynq.ProcessIn(staleClaimAfter))
	return err
}
