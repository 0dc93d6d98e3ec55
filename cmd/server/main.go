package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"factorylink/internal/auth"
	"factorylink/internal/cache"
	"factorylink/internal/config"
	"factorylink/internal/db"
	"factorylink/internal/events"
	"factorylink/internal/handlers"
	"factorylink/internal/logger"
	"factorylink/internal/records"
	"factorylink/internal/services"
	"factorylink/internal/storage"
	"factorylink/internal/websocket"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogEncoding)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	backend, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open record backend", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeBackend()

	var tableCache cache.Cache = cache.NewLocal()
	if cfg.RedisAddress != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddress, log)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		tableCache = cache.NewRedis(client, "factorylink:", log)
	}

	store := records.NewStore(backend, records.Options{
		ReadRetries: cfg.ReadRetries,
		RetryDelay:  cfg.RetryDelay,
		CacheTTL:    cfg.CacheTTL,
		Cache:       tableCache,
		Logger:      log,
	})

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		conn, err := events.Connect(cfg.NATSURL, log)
		if err != nil {
			log.Fatal("failed to connect nats", zap.Error(err))
		}
		natsPublisher := events.NewNATSPublisher(conn)
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	var images storage.ImageStore
	if cfg.MinIO.Endpoint != "" {
		minioStore, err := storage.NewMinIOImageStore(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL, log)
		if err != nil {
			log.Fatal("failed to initialize image storage", zap.Error(err))
		}
		images = minioStore
	} else {
		log.Info("image uploads disabled, MINIO_ENDPOINT not set")
	}

	authCfg := services.AuthConfig{
		AdminID:        cfg.AdminID,
		AdminSecret:    cfg.AdminSecret,
		PasswordScheme: cfg.PasswordScheme,
		TokenSecret:    cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
	}
	hub := websocket.NewHub(log)
	authService := services.NewAuthService(store, auth.NewRevocations(tableCache), authCfg, log)
	listingService := services.NewListingService(store, publisher, images, log)
	requestService := services.NewRequestService(store, publisher, hub, log)
	adminService := services.NewAdminService(store, authCfg, log)

	handler := handlers.New(cfg, authService, listingService, requestService, adminService, hub, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("factorylink API listening", zap.String("addr", server.Addr), zap.String("backend", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (records.Backend, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return records.NewPostgresBackend(database, db.NewTxRunner(database, log)), func() { _ = database.Close() }, nil
	case "memory":
		log.Warn("using in-memory record backend, data is lost on restart")
		return records.NewMemoryBackend(), func() {}, nil
	default:
		log.Info("using workbook record backend", zap.String("path", cfg.WorkbookPath))
		return records.NewWorkbookBackend(cfg.WorkbookPath), func() {}, nil
	}
}
