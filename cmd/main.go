package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	getPaymentStatusHandler "github.com/m04kA/SMC-TripBookingService/internal/api/handlers/get_payment_status"
	getUserBookingsHandler "github.com/m04kA/SMC-TripBookingService/internal/api/handlers/get_user_bookings"
	getVehicleSeatsHandler "github.com/m04kA/SMC-TripBookingService/internal/api/handlers/get_vehicle_seats"
	healthHandler "github.com/m04kA/SMC-TripBookingService/internal/api/handlers/health"
	paymentCallbackHandler "github.com/m04kA/SMC-TripBookingService/internal/api/handlers/payment_callback"
	requestPaymentHandler "github.com/m04kA/SMC-TripBookingService/internal/api/handlers/request_payment"
	"github.com/m04kA/SMC-TripBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-TripBookingService/internal/config"
	"github.com/m04kA/SMC-TripBookingService/internal/infra/cache/claim"
	tokenCache "github.com/m04kA/SMC-TripBookingService/internal/infra/cache/token"
	bookingRepo "github.com/m04kA/SMC-TripBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TripBookingService/internal/integrations/gateway"
	bookingsService "github.com/m04kA/SMC-TripBookingService/internal/service/bookings"
	allocateSeatsUC "github.com/m04kA/SMC-TripBookingService/internal/usecase/allocate_seats"
	reconcilePaymentUC "github.com/m04kA/SMC-TripBookingService/internal/usecase/reconcile_payment"
	requestPaymentUC "github.com/m04kA/SMC-TripBookingService/internal/usecase/request_payment"
	"github.com/m04kA/SMC-TripBookingService/migrations"
	"github.com/m04kA/SMC-TripBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TripBookingService/pkg/logger"
	"github.com/m04kA/SMC-TripBookingService/pkg/metrics"
	"github.com/m04kA/SMC-TripBookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	configPath := "config.toml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	log = log.With("service", cfg.Metrics.ServiceName)

	log.Info("Starting SMC-TripBookingService...")
	log.Info("Configuration loaded from %s", configPath)

	// Метрики. При выключенных метриках collector остаётся nil, все его методы - no-op
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Проверяем соединение
	if err := db.PingContext(startupCtx); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if cfg.Database.MigrateOnStart {
		if err := migrations.Apply(startupCtx, db, log); err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
	}

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	// Захват AccountReference живёт, пока идут запрос токена, платёж и его повтор после 401
	claimTTL := 3 * time.Duration(cfg.Gateway.Timeout) * time.Second

	// Кэш токена шлюза и захваты транзакций
	var cache gateway.TokenCache = tokenCache.NopCache{}
	var claims requestPaymentUC.TransactionClaimer = claim.NewLocal(claimTTL)
	if cfg.Redis.URL != "" {
		redisClient, err := tokenCache.Connect(startupCtx, cfg.Redis.URL)
		if err != nil {
			log.Warn("Redis unavailable, gateway token and transaction claims stay local to this instance: %v", err)
		} else {
			defer redisClient.Close()
			cache = tokenCache.NewCache(redisClient, cfg.Redis.KeyPrefix)
			claims = claim.NewStore(redisClient, cfg.Redis.KeyPrefix, claimTTL)
			log.Info("Gateway token cache and transaction claims: redis (prefix=%s)", cfg.Redis.KeyPrefix)
		}
	}

	// Клиент платёжного шлюза
	gatewayClient := gateway.NewClient(gateway.Config{
		TokenURL:     cfg.Gateway.TokenURL,
		PaymentURL:   cfg.Gateway.PaymentURL,
		ClientID:     cfg.Gateway.ClientID,
		ClientSecret: cfg.Gateway.ClientSecret,
		Timeout:      time.Duration(cfg.Gateway.Timeout) * time.Second,
		TokenTTL:     time.Duration(cfg.Gateway.TokenTTL) * time.Second,
	}, cache, metricsCollector, log)
	log.Info("Payment gateway client initialized (payment_url=%s, timeout=%ds)",
		cfg.Gateway.PaymentURL, cfg.Gateway.Timeout)

	// Репозитории и менеджер транзакций
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Сервисы
	bookingSvc := bookingsService.NewService(bookingRepository, txMgr, log)

	// Use cases
	allocateSeatsUseCase := allocateSeatsUC.NewUseCase(
		bookingRepository,
		txMgr,
		metricsCollector,
		log,
	)

	requestPaymentUseCase := requestPaymentUC.NewUseCase(
		bookingRepository,
		allocateSeatsUseCase,
		gatewayClient,
		claims,
		log,
	)

	reconcilePaymentUseCase := reconcilePaymentUC.NewUseCase(
		bookingRepository,
		allocateSeatsUseCase,
		txMgr,
		metricsCollector,
		log,
	)

	// Handlers
	requestPayment := requestPaymentHandler.NewHandler(requestPaymentUseCase, log)
	paymentCallback := paymentCallbackHandler.NewHandler(reconcilePaymentUseCase, log)
	getPaymentStatus := getPaymentStatusHandler.NewHandler(bookingSvc, log)
	getVehicleSeats := getVehicleSeatsHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	health := healthHandler.NewHandler(wrappedDB, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(log), middleware.Logging(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	// Маршруты клиента и шлюза
	r.HandleFunc("/request-payment", requestPayment.Handle).Methods(http.MethodPost)
	r.HandleFunc("/c2b-callback-results", paymentCallback.Handle).Methods(http.MethodPost)

	// API чтения
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/payments/{transactionId}", getPaymentStatus.Handle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{vehicleId}/seats", getVehicleSeats.Handle).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
