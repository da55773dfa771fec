package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/antique-appraiser/internal/dto"
)

// Publisher announces finished appraisals.
type Publisher interface {
	Publish(ctx context.Context, event dto.AppraisalEvent) error
}

// Envelope is the wire form of a published event.
type Envelope struct {
	Source string             `json:"source"`
	Event  dto.AppraisalEvent `json:"event"`
	SentAt time.Time          `json:"sent_at"`
}

// BrokerPublisher fans events out to Redis pub/sub and NATS, whichever are
// configured. With neither it is a no-op.
type BrokerPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
}

// NewBrokerPublisher constructs a publisher; nil clients are skipped.
func NewBrokerPublisher(redisClient *redis.Client, redisChannel string, natsConn *nats.Conn, natsSubject string) *BrokerPublisher {
	return &BrokerPublisher{
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		nodeID:       uuid.NewString(),
	}
}

// Enabled reports whether at least one sink is configured.
func (p *BrokerPublisher) Enabled() bool {
	return p.redisEnabled() || p.natsEnabled()
}

func (p *BrokerPublisher) redisEnabled() bool {
	return p.redis != nil && p.redisChannel != ""
}

func (p *BrokerPublisher) natsEnabled() bool {
	return p.nats != nil && p.natsSubject != ""
}

// Publish sends the event to every configured sink. A failing sink does not
// stop the others.
func (p *BrokerPublisher) Publish(ctx context.Context, event dto.AppraisalEvent) error {
	if !p.Enabled() {
		return nil
	}

	payload, err := json.Marshal(Envelope{Source: p.nodeID, Event: event, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode appraisal event: %w", err)
	}

	var errs []error
	if p.redisEnabled() {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis publish: %w", err))
		}
	}
	if p.natsEnabled() {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			errs = append(errs, fmt.Errorf("nats publish: %w", err))
		}
	}
	return errors.Join(errs...)
}
