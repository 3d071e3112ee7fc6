package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/config"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/api"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/audit"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/cache"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/channels"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/messaging"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/repositories"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/search"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/services"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for event requests, attendance and notifications`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Initialize Elasticsearch client
	var indexer services.EventIndexer
	if cfg.Elastic.Enabled {
		elasticClient, err := search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search indexing")
		} else {
			indexer = elasticClient
		}
	}

	// Initialize repositories
	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	requestRepo := repositories.NewRequestRepository(db, readOnlyDB)
	attendanceRepo := repositories.NewAttendanceRepository(db, readOnlyDB)
	notificationRepo := repositories.NewNotificationRepository(db, readOnlyDB)
	preferenceRepo := repositories.NewPreferenceRepository(db, readOnlyDB)
	userRepo := repositories.NewUserRepository(db, readOnlyDB)
	facilityRepo := repositories.NewFacilityRepository(db, readOnlyDB)
	auditRecorder := audit.NewRecorder(repositories.NewAuditRepository(db))

	// Initialize dispatcher and orchestrator
	notificationService := services.NewNotificationService(
		notificationRepo, preferenceRepo, userRepo,
		channels.LogEmailSender{}, channels.LogSMSSender{}, redisCache)
	orchestrator := services.NewOrchestrator(notificationService, userRepo, facilityRepo, attendanceRepo)

	// Facts flow through the service bus when configured, otherwise an
	// in-process queue drained by the orchestrator
	var publisher messaging.FactPublisher
	if cfg.ServiceBus.Enabled {
		bus, err := messaging.NewServiceBus(cfg.ServiceBus)
		if err != nil {
			return err
		}
		defer bus.Close()
		publisher = bus
	} else {
		queue := messaging.NewInProcQueue(orchestrator.Dispatch, 1024)
		defer queue.Close()
		publisher = queue
	}

	// Initialize ledgers
	requestService := services.NewRequestService(requestRepo, eventRepo, publisher, auditRecorder, indexer)
	attendanceService := services.NewAttendanceService(attendanceRepo, eventRepo, publisher, auditRecorder)

	// Initialize and start the server
	server := api.NewServer(cfg, api.Services{
		Requests:      requestService,
		Attendance:    attendanceService,
		Notifications: notificationService,
		Events:        eventRepo,
	})

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Shutdown the server
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}

// initDatabases opens the write and read-only connections, applies the
// configured pool limits to both, and migrates the write side. Shared
// by the api and worker commands.
func initDatabases(cfg config.Config) (*gorm.DB, *gorm.DB, error) {
	// Initialize write database
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to write database")
	}

	// Initialize read-only database
	readOnlyDB, err := gorm.Open(postgres.Open(cfg.DB.ReadOnlyDSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to read-only database")
	}

	// Auto-migrate only the write database
	if err := models.SetupModels(db); err != nil {
		return nil, nil, errors.Wrap(err, "failed to run migrations")
	}

	// Configure connection pools for both databases
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get underlying write DB connection")
	}
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	readSqlDB, err := readOnlyDB.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get underlying read-only DB connection")
	}
	readSqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	readSqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	readSqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return db, readOnlyDB, nil
}
