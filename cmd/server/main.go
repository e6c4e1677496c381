package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/venuelink/service-booking/internal/adapter"
	"github.com/venuelink/service-booking/internal/application"
	"github.com/venuelink/service-booking/internal/config"
	"github.com/venuelink/service-booking/internal/events"
	"github.com/venuelink/service-booking/internal/handler"
	"github.com/venuelink/service-booking/internal/repository"
	"github.com/venuelink/service-booking/internal/saga"
	"github.com/venuelink/service-booking/pkg/auth"
	"github.com/venuelink/service-booking/pkg/database"
	"github.com/venuelink/service-booking/pkg/health"
	"github.com/venuelink/service-booking/pkg/kafka"
	"github.com/venuelink/service-booking/pkg/logger"
	"github.com/venuelink/service-booking/pkg/middleware"
)

const serviceName = "service-booking"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.BookingModel{},
			&repository.CouponModel{},
			&repository.PaymentAttemptModel{},
			&repository.BlockModel{},
			&repository.ProductModel{},
		); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)

	producer := kafka.NewProducer(cfg.KafkaBrokers, log)
	defer producer.Close()

	cache := adapter.NewCalendarCache(cfg.RedisAddr, 5*time.Minute, log)
	defer cache.Close()

	gateway := adapter.NewMockGatewayAdapter(cfg.Gateway.Secret, log)
	invoices := adapter.NewPDFInvoiceRenderer()

	bookingRepo := repository.NewBookingRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	productRepo := repository.NewProductRepository(db)

	settlementSaga := saga.NewSettlementSagaService(paymentRepo, gateway, log)

	bookingSvc := application.NewBookingService(
		bookingRepo, couponRepo, productRepo, producer, cache,
		cfg.ApprovalWindow, cfg.Currency, log,
	)
	availabilitySvc := application.NewAvailabilityService(bookingRepo, blockRepo, log)
	couponSvc := application.NewCouponService(couponRepo, log)
	settlementSvc := application.NewSettlementService(
		bookingRepo, paymentRepo, productRepo, settlementSaga, gateway, invoices, producer, log,
	)
	calendarSvc := application.NewCalendarService(bookingRepo, blockRepo, cache, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := events.NewNotificationConsumer(cfg.KafkaBrokers, serviceName, events.NewLogNotifier(log), log)
	consumer.Start(ctx)
	defer consumer.Close()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal("failed to create scheduler", zap.Error(err))
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(func() {
			if _, err := bookingSvc.SweepExpired(context.Background()); err != nil {
				log.Error("expiry sweep failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		log.Fatal("failed to schedule expiry sweep", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.LoggerMiddleware(log),
		middleware.RequestIDMiddleware(),
		middleware.CORSMiddleware(),
		middleware.SecurityHeadersMiddleware(),
	)

	health.NewHandler(db, serviceName).RegisterRoutes(router)

	api := router.Group("/api/v1")
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(api, jwtManager)
	handler.NewPaymentHandler(settlementSvc).RegisterRoutes(api, jwtManager)
	handler.NewCalendarHandler(calendarSvc, availabilitySvc).RegisterRoutes(api, jwtManager)
	handler.NewCouponHandler(couponSvc).RegisterRoutes(api, jwtManager)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}
