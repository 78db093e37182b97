package initializers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/PrayerWall/store"
)

// OpenStore returns the configured document store. firebase may be nil
// unless the backend is Firestore.
func OpenStore(ctx context.Context, cfg *Config, firebase *FirebaseClients, logger *zap.Logger) (store.DocumentStore, error) {
	switch cfg.StoreBackend {
	case StoreFirestore:
		if firebase == nil || firebase.Firestore == nil {
			return nil, fmt.Errorf("firestore backend selected but Firestore is not initialized")
		}
		logger.Info("using Firestore document store")
		return store.NewFirestoreStore(firebase.Firestore), nil

	case StorePostgres:
		db, err := ConnectDB(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		logger.Info("using Postgres document store")
		return store.NewPostgresStore(db), nil

	case StoreMemory:
		logger.Warn("using in-memory document store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}
