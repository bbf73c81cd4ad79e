package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// DeliveryEvent is one recipient-targeted push relayed between
// instances. The payload is kept opaque so the bridge never needs to
// understand it; the receiving instance fans it out to whatever local
// sessions the recipient has there.
type DeliveryEvent struct {
	Origin  string          `json:"origin"`
	UserID  string          `json:"user_id"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Deliverer fans a relayed event out to the recipient's local sessions.
type Deliverer interface {
	DeliverToUser(userID, event string, payload interface{})
}

// Bridge relays delivery events over Pub/Sub so a dispatch on one
// instance reaches sessions held by another. Each instance gets its own
// subscription; events published by the instance itself are skipped on
// receipt because the dispatcher already pushed them locally.
type Bridge struct {
	client     *pubsub.Client
	topic      *pubsub.Topic
	topicName  string
	instanceID string
}

// New connects to Pub/Sub for the given project. The topic must exist.
func New(ctx context.Context, projectID, topicName, credentialsFile string) (*Bridge, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Bridge{
		client:     client,
		topic:      client.Topic(topicName),
		topicName:  topicName,
		instanceID: uuid.New().String(),
	}, nil
}

// Publish relays one delivery event. Best effort: the publish result is
// consumed on a background goroutine and only logged on failure.
func (b *Bridge) Publish(ctx context.Context, userID, event string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery event: %w", err)
	}

	data, err := json.Marshal(DeliveryEvent{
		Origin:  b.instanceID,
		UserID:  userID,
		Event:   event,
		Payload: raw,
	})
	if err != nil {
		return err
	}

	result := b.topic.Publish(ctx, &pubsub.Message{Data: data})
	go func() {
		if _, err := result.Get(context.Background()); err != nil {
			log.Printf("[Bridge] Publish failed: %v", err)
		}
	}()
	return nil
}

// Start creates this instance's subscription if needed and re-pushes
// incoming events to local sessions. Blocks until ctx is cancelled;
// run it on its own goroutine.
func (b *Bridge) Start(ctx context.Context, deliverer Deliverer) {
	subName := fmt.Sprintf("%s-%s", b.topicName, b.instanceID)
	sub := b.client.Subscription(subName)

	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[Bridge] Error checking subscription existence: %v", err)
		return
	}
	if !exists {
		sub, err = b.client.CreateSubscription(ctx, subName, pubsub.SubscriptionConfig{
			Topic:            b.topic,
			AckDeadline:      10 * time.Second,
			ExpirationPolicy: 24 * time.Hour,
		})
		if err != nil {
			log.Printf("[Bridge] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[Bridge] Created subscription: %s", subName)
	}

	log.Printf("[Bridge] Relaying delivery events on subscription: %s", subName)
	err = sub.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
		defer msg.Ack()

		var event DeliveryEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("[Bridge] Failed to unmarshal delivery event: %v", err)
			return
		}
		if event.Origin == b.instanceID {
			return
		}

		// Recipients with no sessions on this instance simply get nothing.
		deliverer.DeliverToUser(event.UserID, event.Event, event.Payload)
	})
	if err != nil {
		log.Printf("[Bridge] Error receiving messages: %v", err)
	}
}

// Close releases the Pub/Sub client.
func (b *Bridge) Close() error {
	b.topic.Stop()
	return b.client.Close()
}
