//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/venuelink/service-booking/internal/adapter"
	"github.com/venuelink/service-booking/internal/application"
	"github.com/venuelink/service-booking/internal/domain/calendar"
	"github.com/venuelink/service-booking/internal/domain/catalog"
	"github.com/venuelink/service-booking/internal/repository"
	"github.com/venuelink/service-booking/internal/saga"
	"github.com/venuelink/service-booking/pkg/kafka"
)

const testGatewaySecret = "integration-secret"

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// bookingAppStack holds the wired-up booking service components.
type bookingAppStack struct {
	Bookings        *application.BookingService
	Settlement      *application.SettlementService
	Availability    *application.AvailabilityService
	Calendars       *application.CalendarService
	ProductRepo     *repository.ProductRepositoryImpl
	CleanupProducer func()
}

// nopCache satisfies the calendar cache port without a Redis container.
type nopCache struct{}

func (nopCache) Get(ctx context.Context, vendorID uuid.UUID) (*calendar.View, bool) { return nil, false }
func (nopCache) Set(ctx context.Context, vendorID uuid.UUID, view *calendar.View)   {}
func (nopCache) Invalidate(ctx context.Context, vendorIDs ...uuid.UUID)             {}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_booking sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.BookingModel{},
		&repository.CouponModel{},
		&repository.PaymentAttemptModel{},
		&repository.BlockModel{},
		&repository.ProductModel{},
	))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, "booking.events", "payment.events")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBookingStack wires up the full booking service stack.
func setupBookingStack(t *testing.T, db *gorm.DB, brokers []string) *bookingAppStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewBookingRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	productRepo := repository.NewProductRepository(db)

	gateway := adapter.NewMockGatewayAdapter(testGatewaySecret, logger)
	invoices := adapter.NewPDFInvoiceRenderer()
	producer := kafka.NewProducer(brokers, logger)
	settlementSaga := saga.NewSettlementSagaService(paymentRepo, gateway, logger)
	cache := nopCache{}

	bookingSvc := application.NewBookingService(
		bookingRepo, couponRepo, productRepo, producer, cache,
		3*time.Hour, "INR", logger,
	)
	settlementSvc := application.NewSettlementService(
		bookingRepo, paymentRepo, productRepo, settlementSaga, gateway, invoices, producer, logger,
	)
	availabilitySvc := application.NewAvailabilityService(bookingRepo, blockRepo, logger)
	calendarSvc := application.NewCalendarService(bookingRepo, blockRepo, cache, logger)

	return &bookingAppStack{
		Bookings:        bookingSvc,
		Settlement:      settlementSvc,
		Availability:    availabilitySvc,
		Calendars:       calendarSvc,
		ProductRepo:     productRepo,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedProduct inserts a product priced 2000/day multi-day with a 30% advance.
func seedProduct(t *testing.T, repo *repository.ProductRepositoryImpl, vendorID uuid.UUID) uuid.UUID {
	t.Helper()
	productID := uuid.New()
	require.NoError(t, repo.Save(context.Background(), &catalog.Product{
		PublicID:           productID,
		VendorID:           vendorID,
		Name:               "Banquet Hall",
		BasePriceSingleDay: 5000,
		BasePriceMultiDay:  2000,
		AdvanceType:        catalog.AdvancePercentage,
		AdvanceValue:       30,
		Currency:           "INR",
	}))
	return productID
}

// signCallback builds a valid gateway callback for the mock gateway.
func signCallback(orderID, paymentID string) application.VerifyPaymentRequest {
	return application.VerifyPaymentRequest{
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		Signature:        adapter.Sign(orderID, paymentID, testGatewaySecret),
	}
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
