package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tonnenheld/internal/api"
	"tonnenheld/internal/commands"
	"tonnenheld/internal/config"
	"tonnenheld/internal/database"
	"tonnenheld/internal/events"
	"tonnenheld/internal/metrics"
	"tonnenheld/internal/models"
	"tonnenheld/internal/notify"
	"tonnenheld/internal/repository"
	"tonnenheld/internal/schedule"
	"tonnenheld/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		commands.HashPassword(os.Args[2:])
		return
	}

	// .env is optional; config values can reference its variables.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("TONNENHELD_CONFIG_PATH"))
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Msg("no config file found, using defaults")
			cfg = config.Default()
		} else {
			logger.Fatal().Err(err).Msg("failed to load config")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqliteStore, err := repository.NewSQLiteStore(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database error")
	}
	defer sqliteStore.Close()

	store := repository.NewFailoverStore(sqliteStore, repository.NewMemoryStore(), &logger)

	var rdb *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	resolver := schedule.Default()
	bus := events.NewEventBus()
	metrics.Register()

	svc := service.NewBookingService(store, resolver, bus, cfg.Booking.DeadlineHour, &logger)
	bookingLoc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Booking.Timezone).Msg("invalid booking timezone")
	}
	svc.SetLocation(bookingLoc)

	notifier := buildNotifier(cfg, &logger)
	if notifier != nil {
		dispatcher := notify.NewDispatcher(notifier, cfg.Notify.Mode, &logger)
		bus.Subscribe(events.TypeBookingCreated, func(e events.Event) error {
			var b models.Booking
			if err := json.Unmarshal(e.Payload, &b); err != nil {
				return err
			}
			dispatcher.BookingCreated(&b)
			return nil
		})
		logger.Info().Str("channel", cfg.Notify.Mode).Msg("notifications enabled")

		if cfg.Notify.Reminder.Enabled {
			remCfg := notify.DefaultReminderConfig()
			if cfg.Notify.Reminder.Hour > 0 {
				remCfg.Hour = cfg.Notify.Reminder.Hour
				remCfg.Minute = cfg.Notify.Reminder.Minute
			}
			reminder, err := notify.NewReminder(remCfg, store, notifier, &logger)
			if err != nil {
				logger.Fatal().Err(err).Msg("reminder init error")
			}
			go reminder.Start(ctx)
		}
	}

	auth, err := api.LoadAuth(cfg.Auth.HtpasswdPath, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load auth credentials error")
	}

	server := api.NewServer(svc, resolver, auth, &logger, api.Options{
		Redis:        rdb,
		CacheTTL:     cfg.CacheTTL(),
		RateLimitRPS: cfg.Server.RateLimitRPS,
		RateBurst:    cfg.Server.RateBurst,
	})

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup.Path, cfg.BackupInterval(), cfg.Backup.RetentionDays, &logger)
		go backup.Start(ctx)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, sqliteStore, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("tonnenheld started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server error")
	}
}

// buildNotifier selects the outbound channel from config. A nil result
// means notifications are off.
func buildNotifier(cfg *config.Config, logger *zerolog.Logger) notify.Notifier {
	switch cfg.Notify.Mode {
	case "email":
		if cfg.Notify.Email.APIKey == "" {
			logger.Warn().Msg("email notifications enabled but api_key is empty")
			return nil
		}
		return notify.NewEmailNotifier(cfg.Notify.Email.APIKey, cfg.Notify.Email.From, cfg.Notify.Email.To)
	case "telegram":
		tg, err := notify.NewTelegramNotifier(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifier init failed, notifications disabled")
			return nil
		}
		return tg
	default:
		logger.Info().Msg("notifications disabled")
		return nil
	}
}

func startHealthServer(ctx context.Context, port int, store *repository.SQLiteStore, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := store.Ping(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
