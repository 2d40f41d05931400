package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"metachat/notification-service/internal/auth"
	"metachat/notification-service/internal/config"
	"metachat/notification-service/internal/events"
	grpcServer "metachat/notification-service/internal/grpc"
	"metachat/notification-service/internal/httpserver"
	"metachat/notification-service/internal/logging"
	"metachat/notification-service/internal/push"
	"metachat/notification-service/internal/repository"
	"metachat/notification-service/internal/service"
	"metachat/notification-service/internal/token"
	"metachat/notification-service/internal/trigger"
)

type stores struct {
	rooms repository.ChatRoomRepository
	users repository.UserRepository
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var app *firebase.App
	if cfg.UsesFirebase() {
		app, err = newFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			logger.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	st, err := openStores(ctx, cfg, app, logger)
	if err != nil {
		logger.Fatalf("Failed to open document store: %v", err)
	}
	defer st.close()

	users := st.users
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		cancel()

		users = repository.NewCachedUserRepository(users, rdb, cfg.Redis.Prefix, cfg.Redis.TokenTTL, logger)
		logger.Info("Device token cache enabled")
	}

	var gateway push.Gateway
	switch cfg.Push.Provider {
	case "fcm":
		client, err := app.Messaging(ctx)
		if err != nil {
			logger.Fatalf("Failed to create FCM client: %v", err)
		}
		gateway = push.NewFCMGateway(client, logger)
	default:
		gateway = push.NewLogGateway(logger)
	}

	var verifier auth.Verifier
	switch cfg.Auth.Provider {
	case "firebase":
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Fatalf("Failed to create Firebase Auth client: %v", err)
		}
		verifier = auth.NewFirebaseVerifier(client)
	default:
		verifier = auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	}

	issuer := service.NewTokenIssuer(token.NewJWTSigner(), service.Credentials{
		AppID:          cfg.RTC.AppID,
		AppCertificate: cfg.RTC.AppCertificate,
	}, logger)

	router := trigger.NewRouter(logger)
	err = events.Register(router, events.Handlers{
		Notifier:      service.NewMessageNotifier(st.rooms, users, gateway, logger),
		UnreadCounter: service.NewUnreadCounter(st.rooms, logger),
		CallNotifier:  service.NewCallNotifier(users, gateway, logger),
	})
	if err != nil {
		logger.Fatalf("Failed to register event handlers: %v", err)
	}

	consumer := events.NewNATSConsumer(events.NATSConfig{
		URL:         cfg.NATS.URL,
		Name:        cfg.NATS.Name,
		Subject:     cfg.NATS.Subject,
		Queue:       cfg.NATS.Queue,
		MaxInFlight: cfg.NATS.MaxInFlight,
	}, router, logger)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatalf("Failed to start event consumer: %v", err)
	}

	grpcAddress := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.GRPCPort))
	lis, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		logger.Fatalf("Failed to listen on %s: %v", grpcAddress, err)
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(grpcServer.AuthInterceptor(verifier)))
	grpcServer.RegisterTokenServiceServer(s, grpcServer.NewTokenServer(issuer, logger))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(s, healthSrv)
	healthSrv.SetServingStatus(grpcServer.TokenServiceName, healthpb.HealthCheckResponse_SERVING)

	if cfg.Server.ReflectionEnabled {
		reflection.Register(s)
		logger.Info("gRPC reflection enabled")
	}

	go func() {
		logger.Infof("Starting gRPC server on %s", grpcAddress)
		if err := s.Serve(lis); err != nil {
			logger.Fatalf("Failed to start gRPC server: %v", err)
		}
	}()

	httpAddress := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.HTTPPort))
	httpSrv := &http.Server{
		Addr:              httpAddress,
		Handler:           httpserver.New(issuer, router, verifier, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting HTTP server on %s", httpAddress)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down...")
	healthSrv.Shutdown()

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown")
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		consumer.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Servers exited gracefully")
	case <-shutdownCtx.Done():
		logger.Info("Shutdown timeout")
	}

	logger.Info("Server exited")
}

func newFirebaseApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	return firebase.NewApp(ctx, fbCfg, opts...)
}

func openStores(ctx context.Context, cfg *config.Config, app *firebase.App, logger *logrus.Logger) (*stores, error) {
	if cfg.Database.Driver == "firestore" {
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Firestore")

		store := repository.NewFirestoreStore(client)
		return &stores{
			rooms: store,
			users: store,
			close: func() { client.Close() },
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL database")

	store := repository.NewPostgresStore(db)
	if err := store.InitializeTables(); err != nil {
		db.Close()
		return nil, err
	}

	return &stores{
		rooms: store,
		users: store,
		close: func() { db.Close() },
	}, nil
}
