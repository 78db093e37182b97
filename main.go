package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PrayerWall/controllers"
	"github.com/PrayerWall/geocoding"
	"github.com/PrayerWall/initializers"
	"github.com/PrayerWall/regions"
	"github.com/PrayerWall/services"
	"github.com/PrayerWall/store"
)

const shutdownTimeout = 15 * time.Second

var (
	cfg    *initializers.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "prayerwall",
	Short:         "Prayer Wall API server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initializers.LoadEnv()

		var err error
		if cfg, err = initializers.LoadConfig(); err != nil {
			return err
		}
		if logger, err = initializers.InitLogger(cfg); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres tables",
	Long: `Creates the users, prayers and push token tables when STORE_BACKEND=postgres.
The statements are idempotent and safe to run on every deploy.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fb *initializers.FirebaseClients
	if cfg.UsesFirebase() {
		var err error
		fb, err = initializers.InitFirebase(ctx, cfg, cfg.StoreBackend == initializers.StoreFirestore, logger)
		if err != nil {
			return err
		}
		defer fb.Close()
	}

	docs, err := initializers.OpenStore(ctx, cfg, fb, logger)
	if err != nil {
		return err
	}

	// Nil senders must stay untyped nil so the service skips the channel.
	var push services.PushSender
	var identity services.IdentityVerifier = services.DisabledIdentityVerifier{}
	if fb != nil {
		if fb.Messaging != nil {
			push = fb.Messaging
		}
		identity = services.NewFirebaseIdentityVerifier(fb.Auth, logger)
	} else {
		logger.Warn("Firebase not configured, sign-in is disabled")
	}

	var email services.EmailSender
	if cfg.ResendAPIKey != "" {
		email = resend.NewClient(cfg.ResendAPIKey).Emails
	} else {
		logger.Warn("RESEND_API_KEY not set, milestone emails disabled")
	}

	notifications := services.NewNotificationService(docs, push, email, cfg.EmailFrom, logger)
	geocoder := geocoding.NewNominatim(geocoding.Options{
		BaseURL:           cfg.NominatimURL,
		UserAgent:         cfg.NominatimUserAgent,
		RequestsPerSecond: cfg.NominatimRPS,
	}, logger)

	catalog := regions.Default()
	profiles := services.NewProfileService(docs, logger)
	locations := services.NewLocationResolver(geocoder, catalog, profiles, logger)

	handler := &controllers.Handler{
		Profiles:   profiles,
		Prayers:    services.NewPrayerService(docs, notifications, logger),
		Locations:  locations,
		Identity:   identity,
		Catalog:    catalog,
		Store:      docs,
		Secret:     []byte(cfg.Secret),
		SessionTTL: cfg.SessionTTL,
		Log:        logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           controllers.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreBackend))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}

	// Let detected-location writes and notifications finish.
	locations.Shutdown()
	notifications.Shutdown()
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.StoreBackend != initializers.StorePostgres {
		return fmt.Errorf("migrate requires STORE_BACKEND=%s, got %q", initializers.StorePostgres, cfg.StoreBackend)
	}

	db, err := initializers.ConnectDB(cmd.Context(), cfg.DBURL)
	if err != nil {
		return err
	}
	if err := store.NewPostgresStore(db).Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Info("migrations applied")
	return nil
}
