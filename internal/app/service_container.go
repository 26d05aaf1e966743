package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"paybridge/internal/clients"
	"paybridge/internal/config"
	"paybridge/internal/db"
	"paybridge/internal/events"
	"paybridge/internal/handlers"
	"paybridge/internal/models"
	"paybridge/internal/repository"
	"paybridge/internal/services"

	"gorm.io/gorm"
)

// HandlerSet groups every HTTP handler the router mounts.
type HandlerSet struct {
	Auth      *handlers.AuthHandler
	AdminAuth *handlers.AdminAuthHandler
	Admin     *handlers.AdminHandler
	Quote     *handlers.QuoteHandler
	Bill      *handlers.BillHandler
	Intent    *handlers.IntentHandler
	Execution *handlers.ExecutionHandler
	WebSocket *handlers.WebSocketHandler
	Price     *handlers.PriceHandler
}

// ServiceContainer wires repositories, services and handlers once at
// startup.
type ServiceContainer struct {
	DB *gorm.DB

	// Repositories
	IntentRepo repository.PaymentIntentRepository
	BillRepo   repository.BillRepository

	// Clients
	NATSClient  *clients.NATSClient
	Providers   []clients.BridgeProvider
	PriceClient *clients.PriceClient

	// Core Services
	ChainClients    *services.ChainClientService
	BalanceService  *services.BalanceService
	QuoteService    *services.QuoteService
	QuoteSessions   *services.QuoteSessionService
	IntentService   *services.PaymentIntentService
	Settlement      *services.SettlementService
	Executor        *services.BridgeExecutorService
	ExpiryReaper    *services.ExpiryReaperService
	PushService     *services.WebSocketPushService
	EventPublisher  *events.Publisher
	WalletConnector models.WalletConnector

	// HTTP
	Handlers HandlerSet

	natsOnce sync.Once
}

// Container is the global instance.
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container exactly once.
func InitializeContainer(ctx context.Context) (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		log.Println("🚀 Initializing Service Container...")

		container := &ServiceContainer{
			DB: db.DB,
		}

		container.initRepositories()

		if err := container.initCoreServices(ctx); err != nil {
			initErr = fmt.Errorf("failed to initialize core services: %w", err)
			return
		}

		container.initHandlers()

		Container = container
		log.Println("✅ Service Container initialized successfully")
	})

	return Container, initErr
}

func (c *ServiceContainer) initRepositories() {
	log.Println("📦 Initializing Repositories...")
	c.IntentRepo = repository.NewPaymentIntentRepository(c.DB)
	c.BillRepo = repository.NewBillRepository(c.DB)
}

func (c *ServiceContainer) initCoreServices(ctx context.Context) error {
	cfg := config.AppConfig

	// NATS is optional; telemetry degrades to logs without it.
	c.initNATSClient()
	c.EventPublisher = events.NewPublisher(c.NATSClient)

	// Chain RPC pool.
	c.ChainClients = services.NewChainClientService()
	if err := c.ChainClients.InitializeClients(ctx); err != nil {
		log.Printf("⚠️ Chain client initialization incomplete: %v", err)
	}
	c.BalanceService = services.NewBalanceService(c.ChainClients)

	// Bridge providers from config.
	c.Providers = buildProviders(cfg)
	if len(c.Providers) == 0 {
		return fmt.Errorf("no bridge providers enabled in config")
	}
	c.QuoteService = services.NewQuoteServiceFromConfig(c.Providers)
	c.PriceClient = clients.NewPriceClient("")

	// Push hub before anything that notifies through it.
	c.PushService = services.NewWebSocketPushService()

	// Live quote sessions feed the push hub.
	c.QuoteSessions = services.NewQuoteSessionService(
		c.QuoteService,
		time.Duration(cfg.Quotes.DebounceMillis)*time.Millisecond,
		time.Duration(cfg.Quotes.RefreshSeconds)*time.Second,
		c.PushService.NotifyQuoteUpdate,
	)
	c.QuoteSessions.Start()

	// Intent ledger and settlement tracking.
	c.Settlement = services.NewSettlementService(c.IntentRepo, c.BillRepo, c.EventPublisher)
	c.Settlement.SetNotifier(c.PushService)
	c.IntentService = services.NewPaymentIntentService(
		c.IntentRepo,
		c.BillRepo,
		c.Settlement,
		time.Duration(cfg.Intents.TTLHours)*time.Hour,
	)

	// Executor over the server wallet.
	c.WalletConnector = services.NewLocalWalletConnector(c.ChainClients)
	c.Executor = services.NewBridgeExecutorService(
		c.WalletConnector,
		c.QuoteService,
		c.BalanceService,
		c.ChainClients,
		c.IntentService,
		c.EventPublisher,
		c.PushService,
		time.Duration(cfg.Executor.ReceiptPollSeconds)*time.Second,
	)
	c.Executor.SetSessionControl(c.QuoteSessions)

	// Background expiry sweep.
	c.ExpiryReaper = services.NewExpiryReaperService(
		c.IntentRepo,
		time.Duration(cfg.Intents.SweepIntervalSeconds)*time.Second,
	)
	c.ExpiryReaper.Start()

	return nil
}

func (c *ServiceContainer) initNATSClient() {
	c.natsOnce.Do(func() {
		cfg := config.AppConfig
		if cfg.NATS.URL == "" {
			log.Println("📡 NATS not configured; event publishing disabled")
			return
		}

		client, err := clients.NewNATSClient(cfg.NATS.URL, time.Duration(cfg.NATS.Timeout)*time.Second)
		if err != nil {
			log.Printf("⚠️ NATS connection failed, event publishing disabled: %v", err)
			return
		}
		c.NATSClient = client
	})
}

func (c *ServiceContainer) initHandlers() {
	c.Handlers = HandlerSet{
		Auth:      handlers.NewAuthHandler(),
		AdminAuth: handlers.NewAdminAuthHandler(),
		Admin:     handlers.NewAdminHandler(c.ExpiryReaper, c.PushService),
		Quote:     handlers.NewQuoteHandler(c.QuoteService, c.QuoteSessions, c.BalanceService),
		Bill:      handlers.NewBillHandler(c.IntentService),
		Intent:    handlers.NewIntentHandler(c.IntentService),
		Execution: handlers.NewExecutionHandler(c.Executor, c.QuoteSessions),
		WebSocket: handlers.NewWebSocketHandler(c.PushService),
		Price:     handlers.NewPriceHandler(c.PriceClient),
	}
}

// buildProviders instantiates every enabled provider integration.
func buildProviders(cfg *config.Config) []clients.BridgeProvider {
	timeout := time.Duration(cfg.Quotes.ProviderTimeout) * time.Second

	var providers []clients.BridgeProvider
	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}

		switch pc.Name {
		case "lifi":
			providers = append(providers, clients.NewLiFiClient(pc.BaseURL, timeout))
		case "debridge":
			providers = append(providers, clients.NewDeBridgeClient(pc.BaseURL, timeout))
		case "squid":
			providers = append(providers, clients.NewSquidClient(pc.BaseURL, pc.APIKey, timeout))
		case "socket":
			providers = append(providers, clients.NewSocketClient(pc.BaseURL, pc.APIKey, timeout))
		default:
			log.Printf("⚠️ Unknown provider %q in config, skipping", pc.Name)
		}
	}

	log.Printf("🌉 Bridge providers enabled: %d", len(providers))
	return providers
}

// Cleanup releases long-lived resources on shutdown.
func (c *ServiceContainer) Cleanup() {
	log.Println("🧹 Cleaning up Service Container...")

	if c.QuoteSessions != nil {
		c.QuoteSessions.Stop()
	}
	if c.ExpiryReaper != nil {
		c.ExpiryReaper.Stop()
	}
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
	if c.ChainClients != nil {
		c.ChainClients.Close()
	}
	db.CloseDB()

	log.Println("✅ Service Container cleanup complete")
}
