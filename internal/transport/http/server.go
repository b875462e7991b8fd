package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hydromate/internal/cache"
	"hydromate/internal/config"
	"hydromate/internal/database"
	"hydromate/internal/handler"
	"hydromate/internal/queue"
	appredis "hydromate/internal/redis"
	"hydromate/internal/repository"
	"hydromate/internal/scheduler"
	"hydromate/internal/service"
	"hydromate/internal/worker"
)

func Run() error {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	rdb, err := appredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	// 4. Repositories
	intakeRepo := repository.NewIntakeRepository(db)
	configRepo := repository.NewReminderConfigRepository(db)
	stateRepo := repository.NewSchedulerStateRepository(db)
	tokenRepo := repository.NewDeviceTokenRepository(db)

	// 5. Core services
	intakeService := service.NewIntakeService(intakeRepo, cfg.OverflowCapML)
	resolvedCache := cache.NewResolvedTickCache(rdb.Client)
	actionRouter := service.NewActionRouter(intakeService, resolvedCache)

	// 6. Delivery channels
	var push service.PushSender
	if cfg.PushProvider == "fcm" && cfg.FCMProjectID != "" {
		fcm, err := service.NewFCMClient(ctx, cfg.FCMProjectID, cfg.FCMClientEmail, cfg.FCMPrivateKey)
		if err != nil {
			return fmt.Errorf("failed to create FCM client: %w", err)
		}
		push = fcm
	} else {
		push = service.NewExpoPushClient()
	}
	dispatcher := service.NewDeliveryDispatcher(tokenRepo, push, nil)

	sms, err := service.NewSNSClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create SNS client: %w", err)
	}

	// 7. Schedulers
	registry := scheduler.NewRegistry(dispatcher, intakeService, stateRepo)
	if err := registry.ResumeAll(ctx); err != nil {
		return fmt.Errorf("failed to resume schedulers: %w", err)
	}
	defer registry.StopAll()

	remote := scheduler.NewRemote(configRepo, sms, cfg.SMSCountryPrefix, cfg.SMSBody)
	if cfg.PollIntervalSec > 0 {
		remote.Start(ctx, time.Duration(cfg.PollIntervalSec)*time.Second)
		defer remote.Stop()
	}

	// 8. Resolution queue workers
	publisher := queue.NewPublisher(rdb.Client)
	consumer := queue.NewConsumer(rdb.Client)
	manager := worker.NewManager(consumer, worker.NewHandler(actionRouter), worker.DefaultManagerConfig())
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer manager.Stop()

	// 9. HTTP server
	router := NewRouter(RouterConfig{
		IntakeHandler:   handler.NewIntakeHandler(intakeService, actionRouter, publisher),
		ReminderHandler: handler.NewReminderHandler(registry, remote, configRepo),
		DeviceHandler:   handler.NewDeviceHandler(tokenRepo),
		JWTSecret:       cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("Received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
