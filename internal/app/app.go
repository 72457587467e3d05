package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Mythsoul/Eshop/config"
	"github.com/Mythsoul/Eshop/internal/controller"
	"github.com/Mythsoul/Eshop/internal/handler"
	circuitbreaker "github.com/Mythsoul/Eshop/internal/infrastructure/circuit-breaker"
	"github.com/Mythsoul/Eshop/internal/infrastructure/message-queue/kafka"
	"github.com/Mythsoul/Eshop/internal/infrastructure/metrics"
	paymentgateway "github.com/Mythsoul/Eshop/internal/infrastructure/payment-gateway"
	"github.com/Mythsoul/Eshop/internal/infrastructure/tracing"
	localmiddleware "github.com/Mythsoul/Eshop/internal/middleware"
	"github.com/Mythsoul/Eshop/internal/repository"
	"github.com/Mythsoul/Eshop/internal/service"
	"github.com/Mythsoul/Eshop/pkg/response"
	"github.com/Mythsoul/Eshop/pkg/utils"
	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

const notificationGroupID = "eshop-order-notifications"

type App struct {
	DB     *mongo.Database
	Config *config.Config
	Server *echo.Echo

	// mu guards every field below and Server; StopServer waits for wiring to finish.
	mu            sync.Mutex
	stopped       bool
	metricsServer *echo.Echo
	traceProvider *sdktrace.TracerProvider
	scheduler     gocron.Scheduler
	grpcServer    *grpc.Server
	grpcHandler   *handler.GrpcHandler
	producer      *kafka.Producer
	emitter       *service.EventEmitter
	stopConsumer  context.CancelFunc
}

// Run starts the app and stops it once ctx is done or Start fails. It returns only after
// StopServer has drained queued events, so callers may close the database afterwards.
func (app *App) Run(ctx context.Context) error {
	return runUntilStopped(ctx, app.Start, app.StopServer)
}

func runUntilStopped(ctx context.Context, start func() error, stop func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		stopped <- stop()
	}()

	err := start()
	cancel()

	return errors.Join(err, <-stopped)
}

// Start wires every component and blocks serving HTTP until StopServer is called. It returns
// at once when StopServer already ran.
func (app *App) Start() error {
	e, err := app.setup()
	if err != nil || e == nil {
		return err
	}

	err = e.Start(fmt.Sprintf(":%s", app.Config.ServicePort))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (app *App) setup() (*echo.Echo, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.stopped {
		return nil, nil
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	traceProvider, err := tracing.InitTracing(tracing.Options{
		CollectorHost: app.Config.TracingConfig.CollectorHost,
		Environment:   app.Config.Environment,
		SampleRatio:   app.Config.TracingConfig.SampleRatio,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize tracing")
	}
	app.traceProvider = traceProvider

	tracer := otel.Tracer(tracing.ServiceName)

	e := echo.New()
	e.HideBanner = true
	app.Server = e

	e.Use(tracing.Middleware(tracer))

	// Used empty string so that metrics are not prefixed with the service name making it easier to aggregate across services
	e.Use(echoprometheus.NewMiddleware(""))

	metricsServer := echo.New()
	metricsServer.HideBanner = true
	metricsServer.GET("/metrics", echoprometheus.NewHandler())
	app.metricsServer = metricsServer

	go func() {
		if err := metricsServer.Start(fmt.Sprintf(":%s", app.Config.MetricsPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
	}()

	e.Use(localmiddleware.Logger)

	g := e.Group("/api/v1")

	repo := repository.CreateNewMongoDBRepository(app.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = repo.EnsureIndexes(ctx)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create indexes")
	}

	m := metrics.CreateMetrics(prometheus.DefaultRegisterer)
	cb := circuitbreaker.CreateCircuitBreaker("eshop-kafka-producer")

	app.producer = kafka.CreateKafkaProducer(app.Config, cb)
	app.emitter = service.CreateEventEmitter(app.producer, repo, m, app.Config.EventConfig)

	gateway := paymentgateway.CreateSimulatedGateway(app.Config)

	orderSvc := service.CreateOrderService(repo, gateway, app.emitter, m, app.Config)
	productSvc := service.CreateProductService(repo)
	controller.CreateController(g, orderSvc, productSvc, localmiddleware.IsLoggedIn(app.Config.JWTSecret))

	g.GET("/ping", func(c echo.Context) error {
		return response.WriteSuccessResponse(c, "Hello, World!", nil)
	})

	app.grpcHandler = handler.CreateGRPCHandler(repo)
	app.grpcHandler.RefreshHealth(context.Background())

	err = app.startScheduler()
	if err != nil {
		return nil, err
	}

	app.startNotificationConsumer(repo)

	err = app.startGRPCServer()
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (app *App) startScheduler() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(
			app.Config.EventConfig.RelayInterval,
		),
		gocron.NewTask(
			func() {
				ctx, cancel := context.WithTimeout(context.Background(), app.Config.EventConfig.RelayInterval)
				defer cancel()

				_, err := app.emitter.RelayFailedEvents(ctx)
				if err != nil {
					log.Error().Err(err).Str("component", "RelayFailedEvents").Msg("")
				}
			},
		),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(
			10*time.Second,
		),
		gocron.NewTask(
			func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				app.grpcHandler.RefreshHealth(ctx)
			},
		),
	)
	if err != nil {
		return err
	}

	s.Start()
	app.scheduler = s

	return nil
}

func (app *App) startNotificationConsumer(repo repository.UserRepository) {
	var mailer service.Mailer
	if smtp := app.Config.SMTPConfig; smtp.Enabled() {
		mailer = utils.CreateSMTPMailer(smtp.Host, smtp.Port, smtp.Sender, smtp.Password)
	}

	reader := kafka.CreateKafkaReader(app.Config, notificationGroupID)
	notificationSvc := service.CreateNotificationService(reader, repo, mailer)

	ctx, cancel := context.WithCancel(context.Background())
	app.stopConsumer = func() {
		cancel()
		if err := reader.Close(); err != nil {
			log.Error().Err(err).Str("component", "StopServer").Msg("failed to close kafka reader")
		}
	}

	go notificationSvc.ConsumeEvent(ctx)
}

func (app *App) startGRPCServer() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", app.Config.GRPCPort))
	if err != nil {
		return err
	}

	srv := app.grpcHandler.NewServer()
	app.grpcServer = srv

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error().Err(err).Msg("Failed to serve gRPC")
		}
	}()

	return nil
}

// StopServer stops intake first, then drains queued events before closing the producer.
// Only the first call does any work.
func (app *App) StopServer() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.stopped {
		return nil
	}
	app.stopped = true

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errList []error

	if app.Server != nil {
		errList = append(errList, app.Server.Shutdown(ctx))
	}

	if app.metricsServer != nil {
		errList = append(errList, app.metricsServer.Shutdown(ctx))
	}

	if app.grpcHandler != nil {
		app.grpcHandler.Shutdown()
	}

	if app.grpcServer != nil {
		app.grpcServer.GracefulStop()
	}

	if app.scheduler != nil {
		errList = append(errList, app.scheduler.Shutdown())
	}

	if app.stopConsumer != nil {
		app.stopConsumer()
	}

	if app.emitter != nil {
		app.emitter.Close()
	}

	if app.producer != nil {
		errList = append(errList, app.producer.Close())
	}

	if app.traceProvider != nil {
		errList = append(errList, app.traceProvider.Shutdown(ctx))
	}

	return errors.Join(errList...)
}
