package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/config"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/cache"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/channels"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/messaging"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/repositories"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that dispatches queued facts and emits event reminders`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

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

	// Initialize repositories
	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	attendanceRepo := repositories.NewAttendanceRepository(db, readOnlyDB)
	notificationRepo := repositories.NewNotificationRepository(db, readOnlyDB)
	preferenceRepo := repositories.NewPreferenceRepository(db, readOnlyDB)
	userRepo := repositories.NewUserRepository(db, readOnlyDB)
	facilityRepo := repositories.NewFacilityRepository(db, readOnlyDB)

	// Initialize dispatcher and orchestrator
	notificationService := services.NewNotificationService(
		notificationRepo, preferenceRepo, userRepo,
		channels.LogEmailSender{}, channels.LogSMSSender{}, redisCache)
	orchestrator := services.NewOrchestrator(notificationService, userRepo, facilityRepo, attendanceRepo)

	// Reminder facts go through the same boundary as ledger facts
	var publisher messaging.FactPublisher
	if cfg.ServiceBus.Enabled {
		bus, err := messaging.NewServiceBus(cfg.ServiceBus)
		if err != nil {
			return err
		}
		defer bus.Close()
		publisher = bus

		// Drain queued facts into the orchestrator
		g.Go(func() error {
			log.Info().Str("queue", cfg.ServiceBus.QueueName).Msg("Starting fact queue processor")
			return bus.ProcessFacts(ctx, orchestrator.Dispatch)
		})
	} else {
		queue := messaging.NewInProcQueue(orchestrator.Dispatch, 1024)
		defer queue.Close()
		publisher = queue
	}

	reminderService := services.NewReminderService(eventRepo, publisher, cfg.Reminder.Lookahead, cfg.Reminder.Interval)

	// Start the reminder cron job
	g.Go(func() error {
		log.Info().
			Dur("interval", cfg.Reminder.Interval).
			Dur("lookahead", cfg.Reminder.Lookahead).
			Msg("Starting event reminder job")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Reminder.Interval),
			gocron.NewTask(func() {
				if err := reminderService.Run(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to emit event reminders")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
