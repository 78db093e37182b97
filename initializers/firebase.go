package initializers

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type FirebaseClients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
	Messaging *messaging.Client
}

func (c *FirebaseClients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}

// InitFirebase uses the service account file when one is configured and
// Application Default Credentials otherwise. The Firestore client is only
// opened when withFirestore is set.
func InitFirebase(ctx context.Context, cfg *Config, withFirestore bool, logger *zap.Logger) (*FirebaseClients, error) {
	var appConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	var opts []option.ClientOption
	if cfg.FirebaseServiceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseServiceAccountPath))
		logger.Info("initializing Firebase with service account file")
	} else {
		logger.Info("initializing Firebase with Application Default Credentials")
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	clients := &FirebaseClients{}
	if clients.Auth, err = app.Auth(ctx); err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}

	// Push is optional; the API still works without it.
	if clients.Messaging, err = app.Messaging(ctx); err != nil {
		logger.Warn("firebase messaging unavailable, push notifications disabled", zap.Error(err))
		clients.Messaging = nil
	}

	if withFirestore {
		if clients.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("firestore: %w", err)
		}
	}

	return clients, nil
}
