package pubsub

import (
	"context"
	"encoding/json"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus publishes domain events to Redis pub/sub, mirrors them into Redis
// Streams for replay, and forwards them to the WebSocket hub. Publishing is
// fire-and-forget: transaction handlers never fail on a publish error.
type Bus struct {
	rdb     *redis.Client
	log     *zap.Logger
	ctx     context.Context
	wsHub   WSHub
	streams *Streams
}

type WSHub interface {
	Publish(channel string, message map[string]interface{})
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{
		rdb:     rdb,
		log:     log,
		ctx:     context.Background(),
		streams: NewStreams(rdb, log),
	}
}

// SetWSHub sets the WebSocket hub for event broadcasting
func (b *Bus) SetWSHub(hub WSHub) {
	b.wsHub = hub
}

// GetStreams returns the streams provider
func (b *Bus) GetStreams() *Streams {
	return b.streams
}

// PublishPatient publishes an event to a patient's channel
func (b *Bus) PublishPatient(patientID string, event map[string]interface{}) error {
	return b.Publish("patient:"+patientID, event)
}

// PublishClaim publishes an event to a claim's channel
func (b *Bus) PublishClaim(claimID string, event map[string]interface{}) error {
	return b.Publish("claim:"+claimID, event)
}

// PublishProvider publishes an event to an insurance provider's channel
func (b *Bus) PublishProvider(providerID string, event map[string]interface{}) error {
	return b.Publish("provider:"+providerID, event)
}

// PublishPrescription publishes an event to a prescription's channel
func (b *Bus) PublishPrescription(prescriptionID string, event map[string]interface{}) error {
	return b.Publish("prescription:"+prescriptionID, event)
}

// Publish publishes an event to a channel. Every event gets a ULID so
// consumers can deduplicate across the pub/sub and replay paths.
func (b *Bus) Publish(channel string, event map[string]interface{}) error {
	if _, ok := event["eventId"]; !ok {
		event["eventId"] = ulid.Make().String()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := b.rdb.Publish(b.ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		return err
	}

	// Mirror into Redis Streams so subscribers can replay after reconnect
	seq, err := b.streams.PublishEvent(channel, event)
	if err != nil {
		b.log.Warn("Failed to publish to stream", zap.String("channel", channel), zap.Error(err))
	}

	eventWithSeq := make(map[string]interface{}, len(event)+1)
	for k, v := range event {
		eventWithSeq[k] = v
	}
	eventWithSeq["seq"] = seq

	if b.wsHub != nil {
		b.wsHub.Publish(channel, eventWithSeq)
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.Int64("seq", seq))
	return nil
}
