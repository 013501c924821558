package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gcek-placements/placement-portal/internal/config"
	"github.com/gcek-placements/placement-portal/internal/delivery/httpd"
	appmiddleware "github.com/gcek-placements/placement-portal/internal/middleware"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/gcek-placements/placement-portal/internal/service"
	"github.com/gcek-placements/placement-portal/internal/service/integration"
	"github.com/gcek-placements/placement-portal/internal/service/otp"
	"github.com/gcek-placements/placement-portal/internal/service/session"
	"github.com/gcek-placements/placement-portal/internal/worker"
	"github.com/gcek-placements/placement-portal/internal/worker/queue"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type App struct {
	server         *http.Server
	logger         zerolog.Logger
	config         *config.Config
	db             *sql.DB
	cache          repository.SessionCache
	rabbitmq       repository.RabbitMQRepository
	runner         *session.Runner
	sweeper        *worker.Sweeper
	statsWorker    worker.StatsWorker
	attemptService service.AttemptService
	workerCancel   context.CancelFunc
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	// Integration clients.
	identityClient := integration.NewIdentityClient(
		cfg.Identity.URL,
		cfg.Identity.Timeout,
		cfg.Identity.RetryCount,
		cfg.Identity.RetryDelay,
		log,
	)
	mailSender := integration.NewSMTPMailSender(cfg.SMTP, log)

	// Cache and broker.
	cache := repository.NewRedisSessionCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, log)

	rabbitmq, err := repository.NewRabbitMQRepository(cfg.RabbitMQ.URL, log)
	if err != nil {
		// The portal works without a broker; stats just stop updating.
		log.Error().Err(err).Msg("Failed to connect to RabbitMQ, events will not be published")
	}

	var publisher queue.Publisher = queue.NewNopPublisher(log)
	if rabbitmq != nil {
		if err := rabbitmq.SetupQueue(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.RoutingKey); err != nil {
			log.Error().Err(err).Msg("Failed to set up RabbitMQ topology")
		}
		publisher = queue.NewRabbitMQPublisher(rabbitmq.Channel(), log)
	}
	eventPublisher := integration.NewEventPublisher(publisher, cfg.RabbitMQ.Exchange, log)

	storage, err := repository.NewMinIORepository(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		cfg.Storage.UseSSL,
		cfg.Storage.ConnectTimeout,
		log,
	)
	if err != nil {
		return nil, err
	}

	// Repositories.
	accountRepo := repository.NewAccountRepository(db, log)
	testRepo := repository.NewTestRepository(db, log)
	attemptRepo := repository.NewAttemptRepository(db, log)
	resultRepo := repository.NewResultRepository(db, log)
	eventRepo := repository.NewEventRepository(db, log)
	resourceRepo := repository.NewResourceRepository(db, log)
	statsRepo := repository.NewStatsRepository(db, log)

	// Services.
	signer := otp.NewSigner([]byte(cfg.OTP.SigningKey), cfg.OTP.TTL)
	runner := session.NewRunner(log)

	registrationService := service.NewRegistrationService(
		accountRepo, cache, signer, cfg.OTP.TTL, mailSender, identityClient, eventPublisher, log,
	)
	testService := service.NewTestService(testRepo, attemptRepo, log)
	attemptService := service.NewAttemptService(
		attemptRepo, testRepo, cache, runner, eventPublisher, log,
	)
	resultService := service.NewResultService(resultRepo, log)
	eventService := service.NewEventService(eventRepo, log)
	resourceService := service.NewResourceService(resourceRepo, storage, log)
	reportService := service.NewReportService(
		statsRepo, testRepo, attemptRepo, accountRepo, eventRepo, resourceRepo, log,
	)

	// Workers.
	workerCtx, workerCancel := context.WithCancel(context.Background())

	sweeper := worker.NewSweeper(
		attemptRepo, attemptService,
		cfg.Session.SweepInterval, cfg.Session.SweepBatch,
		log,
	)
	sweeper.Start(workerCtx)

	var statsWorker worker.StatsWorker
	if rabbitmq != nil {
		consumer := queue.NewRabbitMQConsumer(rabbitmq.Channel(), cfg.RabbitMQ.QueueName, cfg.RabbitMQ.ConsumerTag, log)
		pool := worker.NewWorkerPool(cfg.Worker.MaxWorkers, log)
		statsWorker = worker.NewStatsWorker(pool, consumer, statsRepo, log)
		if err := statsWorker.Start(workerCtx); err != nil {
			log.Error().Err(err).Msg("Failed to start stats worker")
			statsWorker = nil
		}
	}

	// HTTP.
	auth := appmiddleware.NewAuth(identityClient, accountRepo, log)
	handler := httpd.NewHandler(
		registrationService,
		testService,
		attemptService,
		resultService,
		eventService,
		resourceService,
		reportService,
		auth,
		log,
	)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(appmiddleware.RequestLogger(log))
	router.Use(appmiddleware.Recovery(log))
	router.Use(chimiddleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:         server,
		logger:         log,
		config:         cfg,
		db:             db,
		cache:          cache,
		rabbitmq:       rabbitmq,
		runner:         runner,
		sweeper:        sweeper,
		statsWorker:    statsWorker,
		attemptService: attemptService,
		workerCancel:   workerCancel,
	}, nil
}

func (a *App) Run() error {
	// Close anything left running from before the last restart.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.attemptService.RecoverRunning(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to recover running attempts")
	}

	a.logger.Info().Msgf("Starting placement portal on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down placement portal...")

	a.workerCancel()

	if a.statsWorker != nil {
		if err := a.statsWorker.Stop(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop stats worker")
		}
	}

	a.sweeper.Stop()
	a.runner.Stop()

	if a.rabbitmq != nil {
		if err := a.rabbitmq.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close cache connection")
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
