package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/germanmitharsh/formgate/internal/api"
	"github.com/germanmitharsh/formgate/internal/config"
	"github.com/germanmitharsh/formgate/internal/mailer"
	"github.com/germanmitharsh/formgate/internal/models"
	"github.com/germanmitharsh/formgate/internal/notify"
	"github.com/germanmitharsh/formgate/internal/ratelimit"
	"github.com/germanmitharsh/formgate/internal/storage"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "formgate",
		Short: "FormGate - form submission backend for germanmitharsh.com",
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(submissionsCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the FormGate server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging)

			store, err := setupStorage(cfg.Storage, log)
			if err != nil {
				return fmt.Errorf("failed to setup storage: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(context.Background()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("database migrations completed")

			deps := buildDeps(cfg, store, log)

			server := api.NewServer(cfg.Server, deps, log)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			log.Info().
				Str("version", version).
				Int("port", cfg.Server.Port).
				Str("storage", cfg.Storage.Driver).
				Msg("FormGate is running")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down...")

			if err := server.Shutdown(10 * time.Second); err != nil {
				log.Error().Err(err).Msg("server shutdown error")
			}

			log.Info().Msg("FormGate stopped")
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := storeFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Println("migrations completed successfully")
			return nil
		},
	}
}

func submissionsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Inspect persisted form submissions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			formType, _ := cmd.Flags().GetString("form-type")
			limit, _ := cmd.Flags().GetInt("limit")

			store, cleanup, err := storeFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			subs, err := store.ListSubmissions(context.Background(), models.FormType(formType), limit, 0)
			if err != nil {
				return fmt.Errorf("failed to list submissions: %w", err)
			}

			if len(subs) == 0 {
				fmt.Println("No submissions found.")
				return nil
			}

			for _, sub := range subs {
				fmt.Printf("  %s  %-7s  %-7s  %s\n", sub.ID, sub.FormType, sub.Status, sub.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	listCmd.Flags().String("form-type", "", "filter by form type (contact|enroll)")
	listCmd.Flags().Int("limit", 20, "max rows to print")

	cmd.AddCommand(listCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("FormGate v%s\n", version)
		},
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func setupStorage(cfg config.StorageConfig, log zerolog.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case "sqlite":
		log.Info().Str("path", cfg.SQLite.Path).Msg("using SQLite storage")
		return storage.NewSQLite(cfg.SQLite.Path)
	case "postgres":
		log.Info().Msg("using Postgres storage")
		return storage.NewPostgres(context.Background(), cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func buildDeps(cfg *config.Config, store storage.Storage, log zerolog.Logger) api.Deps {
	limiter := ratelimit.New(store, map[models.FormType]ratelimit.Rule{
		models.FormContact: {
			Limit:        cfg.RateLimit.Contact.Limit,
			Window:       cfg.RateLimit.Contact.Window,
			RetryMessage: "Too many submissions. Please try again in an hour.",
		},
		models.FormEnroll: {
			Limit:        cfg.RateLimit.Enroll.Limit,
			Window:       cfg.RateLimit.Enroll.Window,
			RetryMessage: "Too many enrollment requests. Please try again tomorrow.",
		},
	}, log)

	notifyCfg := notify.Config{
		SiteName:     cfg.Mail.SiteName,
		ContactFrom:  cfg.Mail.ContactFrom,
		EnrollFrom:   cfg.Mail.EnrollFrom,
		StudentFrom:  cfg.Mail.StudentFrom,
		OwnerTo:      cfg.Mail.OwnerTo,
		SupportEmail: cfg.Mail.SupportEmail,
		WhatsApp:     cfg.Mail.WhatsApp,
		RetryDelay:   cfg.Mail.RetryDelay,
	}

	contactMailer := mailer.NewResend(cfg.Mail.ContactAPIKey, cfg.Mail.Timeout)
	enrollMailer := mailer.NewResend(cfg.Mail.EnrollAPIKey, cfg.Mail.Timeout)

	return api.Deps{
		Store:           store,
		Limiter:         limiter,
		ContactNotifier: notify.New(contactMailer, store, notifyCfg, log),
		EnrollNotifier:  notify.New(enrollMailer, store, notifyCfg, log),
		AdminAPIKey:     cfg.Admin.APIKey,
	}
}

func storeFromConfig(configPath string) (storage.Storage, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg.Logging)
	store, err := setupStorage(cfg.Storage, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, func() { store.Close() }, nil
}
