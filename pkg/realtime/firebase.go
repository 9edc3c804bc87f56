package realtime

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// FirebaseSink writes payloads to Firebase Realtime Database refs.
type FirebaseSink struct {
	client *db.Client
}

func NewFirebaseSink(ctx context.Context, credentialsFile, databaseURL string) (*FirebaseSink, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get database client: %w", err)
	}
	return &FirebaseSink{client: client}, nil
}

func (s *FirebaseSink) Publish(ctx context.Context, path string, payload interface{}) error {
	if err := s.client.NewRef(path).Set(ctx, payload); err != nil {
		return fmt.Errorf("firebase set %s: %w", path, err)
	}
	return nil
}
