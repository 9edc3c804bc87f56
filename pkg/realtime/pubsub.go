package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubSink publishes {path, payload} envelopes to a Google Pub/Sub topic so
// other services can fan updates out to their own clients.
type PubSubSink struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

type pubsubEnvelope struct {
	Path        string      `json:"path"`
	Payload     interface{} `json:"payload"`
	PublishedAt time.Time   `json:"published_at"`
}

func NewPubSubSink(ctx context.Context, projectID, topicName, credentialsFile string) (*PubSubSink, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &PubSubSink{client: client, topic: client.Topic(topicName)}, nil
}

func (s *PubSubSink) Publish(ctx context.Context, path string, payload interface{}) error {
	data, err := json.Marshal(pubsubEnvelope{Path: path, Payload: payload, PublishedAt: time.Now()})
	if err != nil {
		return err
	}

	result := s.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"path": path},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsub publish %s: %w", path, err)
	}
	return nil
}

func (s *PubSubSink) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
