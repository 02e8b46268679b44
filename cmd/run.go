package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"fairbook/application"
	"fairbook/config"
	"fairbook/domain/services"
	"fairbook/infrastructure"
	"fairbook/infrastructure/observability"
	"fairbook/repository"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting fairbook...")

	cfg := config.Get()

	// Initialize metrics
	metricsProvider := observability.NewMetricsProvider(cfg)
	if err := metricsProvider.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize persistence
	log.Println("Opening store backend...")
	store, err := repository.NewKVStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	instrumentedStore := repository.NewInstrumentedStore(store, cfg.StoreBackend, metricsProvider)
	poolRepo := repository.NewPoolRepository(instrumentedStore)
	rewardRepo := repository.NewRewardPoolRepository(instrumentedStore)
	alertRepo := repository.NewAlertRepository(instrumentedStore)

	// Initialize NATS
	log.Println("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	natsPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := natsPublisher.EnsureDomainEventStream(); err != nil {
		return fmt.Errorf("failed to ensure domain event stream: %w", err)
	}
	publisher := infrastructure.NewInstrumentedEventPublisher(natsPublisher, metricsProvider)
	notifier := infrastructure.NewNATSAlertNotifier(natsClient)

	// Initialize domain services
	log.Println("Initializing domain services...")
	entropy := infrastructure.NewSolanaEntropyClient()
	vrfEngine, err := services.NewVRFEngine(entropy)
	if err != nil {
		return fmt.Errorf("failed to initialize VRF engine: %w", err)
	}

	settlement := infrastructure.NewSettlementClient()
	monitor := services.NewAntiManipulationMonitor(alertRepo, notifier, publisher)
	domainService := services.NewBettingPoolDomainService()
	bettingPools := services.NewBettingPoolService(domainService, monitor, vrfEngine, settlement, poolRepo, publisher)
	rewards := services.NewRewardDistributor(vrfEngine, services.NewEligibilityChecker(), settlement, rewardRepo, publisher)

	// Reload persisted pools so the expiry worker tracks them again
	if poolIDs, err := poolRepo.ListPoolIDs(ctx); err != nil {
		log.Printf("Failed to list persisted pools: %v", err)
	} else {
		for _, poolID := range poolIDs {
			if _, err := bettingPools.GetPool(ctx, poolID); err != nil {
				log.Printf("Failed to reload pool %s: %v", poolID, err)
			}
		}
		log.Printf("Reloaded %d persisted pools", len(poolIDs))
	}

	// Start consuming commands from the bus
	listener := application.NewCommandListener(bettingPools, rewards, monitor)
	consumer := infrastructure.NewCommandConsumer(natsClient, listener)
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start command consumer: %w", err)
	}

	// Start background workers
	expiryWorker := application.NewPoolExpiryWorker(bettingPools, time.Minute)
	stopExpiry := expiryWorker.Start(ctx)

	log.Printf("fairbook is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")
	stopExpiry()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsProvider.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics provider: %v", err)
	}
	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Printf("Error closing store: %v", err)
	}

	log.Println("Shutdown completed")
	return nil
}
