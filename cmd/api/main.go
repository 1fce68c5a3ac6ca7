package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andresouza-dev/pratoexpress-backend/api/routes"
	"github.com/andresouza-dev/pratoexpress-backend/internal/cashouts"
	"github.com/andresouza-dev/pratoexpress-backend/internal/deliveries"
	"github.com/andresouza-dev/pratoexpress-backend/internal/ledger"
	"github.com/andresouza-dev/pratoexpress-backend/internal/notifications"
	"github.com/andresouza-dev/pratoexpress-backend/internal/orders"
	"github.com/andresouza-dev/pratoexpress-backend/internal/restaurants"
	"github.com/andresouza-dev/pratoexpress-backend/internal/settlement"
	"github.com/andresouza-dev/pratoexpress-backend/internal/users"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/config"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/db"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/metrics"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/migrate"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/payment"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/push"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/redis"
)

const (
	webhookGuardScope = "payment-webhook"
	webhookGuardTTL   = 24 * time.Hour
	maxDeliveryKm     = 10
	shutdownTimeout   = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paymentClient, err := payment.NewClient(cfg.Payment, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment client", err)
		os.Exit(1)
	}

	var notifier settlement.Notifier
	var broadcaster users.Broadcaster
	if cfg.Push.Enabled() {
		pushClient, err := push.NewClient(cfg.Push, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create push client", err)
			os.Exit(1)
		}
		dispatcher, err := notifications.NewDispatcher(pushClient, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create notification dispatcher", err)
			os.Exit(1)
		}
		notifier = dispatcher
		broadcaster = dispatcher
	}

	flow := metrics.NewMoneyFlowMetrics(prometheus.DefaultRegisterer)
	gormDB := dbClient.DB()

	ledgerService, err := ledger.NewService(ledger.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	restaurantRepo := restaurants.NewRepository(gormDB)
	restaurantService, err := restaurants.NewService(restaurantRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create restaurant service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(gormDB), restaurantRepo, paymentClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	calculator, err := settlement.NewCalculator(cfg.Fees)
	if err != nil {
		logg.Error(context.Background(), "invalid fee configuration", err)
		os.Exit(1)
	}
	estimator := settlement.NewRandomEstimator(time.Now().UnixNano(), maxDeliveryKm)
	settlementService, err := settlement.NewService(
		settlement.NewRepository(gormDB),
		dbClient,
		paymentClient,
		ledgerService,
		estimator,
		calculator,
		notifier,
		flow,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	deliveryService, err := deliveries.NewService(deliveries.NewRepository(gormDB), dbClient, ledgerService)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
		os.Exit(1)
	}

	cashoutService, err := cashouts.NewService(
		cashouts.NewRepository(gormDB),
		dbClient,
		ledgerService,
		paymentClient,
		cfg.Cashout,
		flow,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cashout service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.NewRepository(gormDB), broadcaster)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	webhookGuard := redis.NewEventGuard(redisClient, webhookGuardScope, webhookGuardTTL)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			flow,
			webhookGuard,
			restaurantService,
			orderService,
			deliveryService,
			cashoutService,
			userService,
			settlementService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}
