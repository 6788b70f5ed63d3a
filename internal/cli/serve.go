package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/paresh-singh/Vehicle-parking/internal/api"
	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/metrics"
	"github.com/paresh-singh/Vehicle-parking/internal/notify"
	"github.com/paresh-singh/Vehicle-parking/internal/scheduler"
	"github.com/paresh-singh/Vehicle-parking/internal/service"
	"github.com/paresh-singh/Vehicle-parking/internal/telemetry"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	log := logging.Logger()
	cfg := loadConfig()
	log.Info("configuration loaded")

	tracing, err := telemetry.NewProvider(ctx, cfg.OTelServiceName, cfg.OTelOTLPEndpoint)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	log.WithField("driver", cfg.DBDriver).Info("database connected")

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := notify.NewHub()
	go hub.Run(hubCtx)

	publishers := []service.EventPublisher{hub}
	if cfg.SQSEventQueueURL == "" {
		log.Warn("SQS_EVENT_QUEUE_URL is not set, reservation events will not be sent to SQS")
	} else {
		sqsClient, err := notify.NewSQSClient(ctx, cfg.AWSRegion)
		if err != nil {
			return err
		}
		publishers = append(publishers, notify.NewSQSPublisher(sqsClient, cfg.SQSEventQueueURL))
		log.WithField("queue_url", cfg.SQSEventQueueURL).Info("publishing reservation events to SQS")
	}

	m := metrics.New()
	parkingService := service.NewParkingService(store, service.SystemClock{}, m, cfg.AllocationMaxRetries, publishers...)
	authService := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTExpirationHours, cfg.JWTRefreshExpirationHours, service.SystemClock{})

	if _, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	jobs := scheduler.New(authService)
	if err := jobs.Start(cfg.TokenPurgeSchedule); err != nil {
		return err
	}

	router := api.SetupRouter(api.Dependencies{
		AuthService:    authService,
		ParkingService: parkingService,
		Metrics:        m,
		Hub:            hub,
		ServiceName:    cfg.OTelServiceName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.ServerPort).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		jobs.Stop()
		return err
	}
	log.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced to shut down: %v", err)
	}
	stopHub()
	jobs.Stop()
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Warnf("flushing traces: %v", err)
	}

	log.Info("server stopped")
	return nil
}
