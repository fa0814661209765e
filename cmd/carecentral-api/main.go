package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/common/database"
	"github.com/undesputed/senior-care-central-sub001/common/logger"
	"github.com/undesputed/senior-care-central-sub001/common/mqtt"
	commonredis "github.com/undesputed/senior-care-central-sub001/common/redis"
	"github.com/undesputed/senior-care-central-sub001/internal/auth"
	"github.com/undesputed/senior-care-central-sub001/internal/config"
	httpapi "github.com/undesputed/senior-care-central-sub001/internal/http"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
	"github.com/undesputed/senior-care-central-sub001/internal/service"
	"github.com/undesputed/senior-care-central-sub001/internal/store"
)

// repositories one implementation per table group; Postgres or the shared memory store.
type repositories struct {
	profiles   repository.ProfilesRepository
	families   repository.FamiliesRepository
	agencies   repository.AgenciesRepository
	contracts  repository.ContractsRepository
	invoices   repository.InvoicesRepository
	notes      repository.NotificationsRepository
	matches    repository.MatchesRepository
	channels   repository.ChatChannelsRepository
	onboarding repository.OnboardingSessionsRepository
}

func postgresRepositories(db *sql.DB) repositories {
	return repositories{
		profiles:   repository.NewPostgresProfilesRepository(db),
		families:   repository.NewPostgresFamiliesRepository(db),
		agencies:   repository.NewPostgresAgenciesRepository(db),
		contracts:  repository.NewPostgresContractsRepository(db),
		invoices:   repository.NewPostgresInvoicesRepository(db),
		notes:      repository.NewPostgresNotificationsRepository(db),
		matches:    repository.NewPostgresMatchesRepository(db),
		channels:   repository.NewPostgresChatChannelsRepository(db),
		onboarding: repository.NewPostgresOnboardingSessionsRepository(db),
	}
}

func memoryRepositories() repositories {
	m := repository.NewMemoryStore()
	return repositories{
		profiles:   m,
		families:   m,
		agencies:   m,
		contracts:  m,
		invoices:   m,
		notes:      m,
		matches:    m,
		channels:   m,
		onboarding: m,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "carecentral-api")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for carecentral-api")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	defer database.Close(db)

	repos := memoryRepositories()
	if db != nil {
		repos = postgresRepositories(db)
	}

	// Redis backs the directory cache, session revocation and the notification stream.
	var kv store.KV
	redisClient, err := commonredis.Connect(ctx, &cfg.Redis, 2*time.Second)
	if err != nil {
		log.Warn("Redis unavailable, using in-process KV", zap.Error(err))
		kv = store.NewMemoryKV()
	} else {
		defer commonredis.Close(redisClient)
		kv = store.NewRedisKV(redisClient)
	}

	var publishers []service.NotificationPublisher
	if cfg.Notifications.StreamEnabled && redisClient != nil {
		publishers = append(publishers, service.NewStreamPublisher(redisClient, cfg.Notifications.Stream))
	}
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewClient(&cfg.MQTT.MQTTConfig)
		if err != nil {
			log.Warn("MQTT connect failed, live notifications disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			defer client.Disconnect()
			mqttClient = client
			publishers = append(publishers, service.NewMQTTPublisher(client.Publish, cfg.MQTT.TopicPrefix))
		}
	}
	var publisher service.NotificationPublisher
	if len(publishers) > 0 {
		publisher = service.NewFanoutPublisher(log, publishers...)
	}

	var documents service.DocumentStore
	if cfg.Storage.BaseURL != "" {
		documents = service.NewStorageClient(cfg.Storage.BaseURL, cfg.Storage.ServiceKey, cfg.Storage.Timeout, log)
	} else {
		log.Warn("STORAGE_BASE_URL not set, using in-memory document store")
		documents = service.NewMemoryDocumentStore()
	}

	var chat service.ChatProvider
	if cfg.Chat.Configured() {
		chat = service.NewChatClient(cfg.Chat.BaseURL, cfg.Chat.APIKey, cfg.Chat.APISecret, cfg.Chat.Timeout, cfg.Chat.TokenTTL, log)
	} else {
		log.Warn("Chat credentials missing, chat endpoints will fail")
	}

	if cfg.Auth.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET not set, every request will be rejected")
	}
	revoker := auth.NewSessionRevoker(kv, cfg.Auth.RevokedTTL)
	authn := auth.NewAuthenticator(auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), revoker, repos.profiles, log)

	notifications := service.NewNotificationService(repos.notes, repos.families, repos.agencies, publisher, log)
	directory := service.NewAgencyDirectoryService(repos.agencies, kv, cfg.Directory.CacheTTL, log)

	router := httpapi.NewRouter(authn, httpapi.NewMetrics(), log)
	if mqttClient != nil {
		router.AddHealthCheck("mqtt", mqttClient.IsConnected)
	}
	router.RegisterOnboardingRoutes(httpapi.NewOnboardingHandler(
		service.NewProviderOnboardingService(repos.profiles, repos.agencies, documents, cfg.Storage.DocumentsBucket, revoker, log),
		service.NewPatientOnboardingService(repos.onboarding, repos.families, documents, cfg.Storage.OnboardingBucket, log),
		log,
	))
	router.RegisterContractRoutes(httpapi.NewContractsHandler(
		service.NewContractService(repos.contracts, repos.families, repos.agencies, notifications, log), log))
	router.RegisterMatchingRoutes(httpapi.NewMatchingHandler(
		service.NewMatchingService(repos.matches, repos.families, repos.agencies, log), log))
	router.RegisterChatRoutes(httpapi.NewChatHandler(
		service.NewChatService(chat, repos.channels, repos.families, repos.agencies, repos.matches, log), log))
	router.RegisterProviderRoutes(httpapi.NewProviderHandler(
		service.NewProviderService(repos.agencies, documents, cfg.Storage.DocumentsBucket, directory, log), log))
	router.RegisterAgencyRoutes(httpapi.NewAgenciesHandler(directory, log))
	router.RegisterInvoiceRoutes(httpapi.NewInvoicesHandler(
		service.NewInvoiceService(repos.invoices, repos.contracts, repos.families, repos.agencies, notifications, log), log))
	router.RegisterNotificationRoutes(httpapi.NewNotificationsHandler(notifications, log))
	router.RegisterFamilyRoutes(httpapi.NewFamilyHandler(service.NewFamilyService(repos.families, log), log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)
	if err := srv.Run(ctx); err != nil {
		log.Error("HTTP server exited", zap.Error(err))
		os.Exit(1)
	}
	log.Info("carecentral-api stopped")
}
