package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"lumisync/internal/adapter/api"
	"lumisync/internal/adapter/api/handler"
	apimiddleware "lumisync/internal/adapter/api/middleware"
	"lumisync/internal/adapter/api/router"
	"lumisync/internal/adapter/repository"
	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/service"
	"lumisync/internal/infrastructure/cache"
	"lumisync/internal/infrastructure/firebase"
	"lumisync/internal/infrastructure/livesync"
	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/internal/infrastructure/storage"
	"lumisync/internal/infrastructure/websocket"
	"lumisync/internal/usecase"
	"lumisync/pkg/config"
	"lumisync/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt := credentials(cfg)

	var verifier usecase.TokenVerifier
	var store docstore.DocumentStore

	if opt != nil {
		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}

		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		verifier = firebase.NewFirebaseAuthClient(authClient)
	}
	if cfg.IsDevelopment() {
		// Dev tokens carry the uid in clear text; never outside development.
		if fb, ok := verifier.(*firebase.FirebaseAuthClient); ok {
			verifier = firebase.NewDevTokenVerifier(fb)
		} else {
			verifier = firebase.NewDevTokenVerifier(nil)
		}
		logger.Warn("Development mode: accepting %s<uid> tokens", firebase.DevTokenPrefix)
	}
	if verifier == nil {
		log.Fatalf("No token verifier: set Firebase credentials or run in development")
	}

	switch cfg.DocumentStore {
	case config.DocumentStoreFirestore:
		if opt == nil {
			log.Fatalf("Firestore requires Firebase credentials")
		}
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()
		store = repository.NewFirestoreDocumentStore(firestoreClient)
	case config.DocumentStoreMemory:
		logger.Warn("Using in-memory document store; data is lost on restart")
		store = repository.NewMemoryDocumentStore()
	}

	blobs, err := blobStore(ctx, cfg, opt)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.StorageBackend, err)
	}
	defer blobs.Close()

	userRepo := repository.NewUserRepository(store)
	propertyRepo := repository.NewPropertyRepository(store)
	ticketRepo := repository.NewTicketRepository(store)
	conversationRepo := repository.NewConversationRepository(store)
	contactRepo := repository.NewContactRepository(store)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine(ctx.Done())

	resolver := usecase.NewRoleResolver(userRepo)
	var profiles livesync.ProfileLookup = usecase.NewProfileUseCase(userRepo)
	var checks []handler.HealthCheck
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		profiles = cache.NewProfileCache(redisCache, profiles, cfg.ProfileCacheTTL)
		checks = append(checks, handler.HealthCheck{Name: "redis", Ping: redisCache.Ping})
		logger.Info("Profile cache enabled (ttl %s)", cfg.ProfileCacheTTL)
	}

	fetcher := livesync.NewBatchedFetcher(store, cfg.MaxInValues)

	ticketUseCase := usecase.NewTicketUseCase(ticketRepo, userRepo, propertyRepo, resolver, blobs, rateLimiter)
	chatUseCase := usecase.NewChatUseCase(conversationRepo, userRepo, propertyRepo, resolver, rateLimiter)
	contactUseCase := usecase.NewContactUseCase(contactRepo, resolver, rateLimiter)
	screenUseCase := usecase.NewScreenUseCase(store, fetcher, resolver, profiles)

	wsManager := websocket.NewManager(screenUseCase, rateLimiter)
	wsManager.Start(ctx)

	handler.Setup(ticketUseCase, chatUseCase, contactUseCase, wsManager, cfg.MaxUploadBytes, checks)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.RateLimit(rateLimiter))
	e.Validator = api.NewValidator()

	router.Setup(e, apimiddleware.NewAuthMiddleware(verifier))

	go func() {
		logger.Info("Server listening on :%s (%s)", cfg.ServerPort, cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown: %v", err)
	}
}

// credentials prefers inline service account JSON, then a file path. It
// returns nil when neither is configured.
func credentials(cfg *config.Config) option.ClientOption {
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))
	}
	if cfg.FirebaseServiceAccountPath != "" {
		if _, err := os.Stat(cfg.FirebaseServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.FirebaseServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		return option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)
	}
	return nil
}

func blobStore(ctx context.Context, cfg *config.Config, opt option.ClientOption) (service.BlobStore, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendMinio:
		return storage.NewMinioClient(ctx, storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.StorageBucket,
		})
	case config.StorageBackendMemory:
		return storage.NewMemoryBlobStore("http://localhost:" + cfg.ServerPort + "/blobs"), nil
	}
	if opt == nil {
		return storage.NewCloudStorageClient(ctx, cfg.StorageBucket)
	}
	return storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
}
