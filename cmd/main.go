package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"stagedoor/cmd/buildCFG"
	"stagedoor/internal/api/api"
	"stagedoor/internal/mailer"
	"stagedoor/internal/notifyworker"
	"stagedoor/internal/rabbit"
	"stagedoor/internal/recurrence"
	"stagedoor/internal/repo"
	"stagedoor/internal/service"
)

func main() {
	_ = godotenv.Load()

	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	port := serverCfg.Port

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}
	if err := db.Master.Ping(); err != nil {
		log.Fatal().Msgf("DB ping failed: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	repository, err := repo.NewRepository(db, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot get working directory")
	}
	migrationPath := filepath.Join(cwd, "migrations/postgres")
	if err := repository.MigrateUp(migrationPath); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("Migrations applied successfully")

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
	if err != nil {
		log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()

	smtpCfg := buildCFG.BuildSMTPConfig(cfg, &log)
	mail := mailer.New(smtpCfg.Host, smtpCfg.Port, smtpCfg.From, smtpCfg.Password, &log)

	appCfg, err := buildCFG.BuildAppConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load app config")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	notifyReader := notifyworker.NewReader(rmq, repository, mail)
	notifyReader.Start(workerCtx)

	// Nightly sweep: pre-generate signup sheets for the next occurrence of
	// every timeslot-enabled event so hosts don't have to.
	scheduler := cron.New()
	_, err = scheduler.AddFunc("30 3 * * *", func() {
		preGenerateTimeslots(workerCtx, repository, appCfg.Location, appCfg.WindowDays, &log)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule timeslot pre-generation")
	}
	scheduler.Start()

	serviceInstance := service.NewService(repository, &log, rmq, service.Settings{
		Location:     appCfg.Location,
		WindowDays:   appCfg.WindowDays,
		ClaimHoldHrs: appCfg.ClaimHoldHours,
		ReminderHour: appCfg.ReminderHour,
	})
	app := api.NewRouters(&api.Routers{Service: serviceInstance, Repo: repository})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", port)
		if err := app.Run(":" + port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	scheduler.Stop()
	cancelWorkers()
	notifyReader.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if closer, ok := interface{}(app).(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(shutdownCtx); err != nil {
			log.Error().Msgf("Error shutting down server: %v", err)
		}
	}

	log.Info().Msg("Shutdown complete")
}

// preGenerateTimeslots builds the sheet for the soonest upcoming occurrence
// of each timeslot-enabled event. Re-running is safe: claimed slots survive
// and existing slots are not duplicated.
func preGenerateTimeslots(ctx context.Context, repository repo.Repository, loc *time.Location, windowDays int, log *zerolog.Logger) {
	events, err := repository.ListTimeslotEnabledEvents(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list timeslot-enabled events")
		return
	}

	today := time.Now().In(loc)
	win := recurrence.Window{
		Start: today.Format(recurrence.DateKeyLayout),
		End:   today.AddDate(0, 0, windowDays).Format(recurrence.DateKeyLayout),
	}

	for _, ev := range events {
		occs := recurrence.Expand(recurrence.Input{
			AnchorDate: ev.AnchorDate,
			Weekday:    ev.Weekday,
			Rule:       ev.RecurrenceRule,
		}, win)
		if len(occs) == 0 {
			continue
		}

		dateKey := occs[0].DateKey
		created, err := repository.GenerateTimeslotsTx(ctx, &ev, dateKey)
		if err != nil {
			log.Error().Err(err).Int64("event_id", ev.ID).Str("date_key", dateKey).
				Msg("failed to pre-generate timeslots")
			continue
		}
		if created > 0 {
			log.Info().Int64("event_id", ev.ID).Str("date_key", dateKey).
				Int("created", created).Msg("timeslots pre-generated")
		}
	}
}
