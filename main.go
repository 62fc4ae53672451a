package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/omriShneor/planit/internal/auth"
	"github.com/omriShneor/planit/internal/chat"
	"github.com/omriShneor/planit/internal/config"
	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/gcal"
	"github.com/omriShneor/planit/internal/llm"
	"github.com/omriShneor/planit/internal/logging"
	"github.com/omriShneor/planit/internal/notify"
	"github.com/omriShneor/planit/internal/reminder"
	"github.com/omriShneor/planit/internal/server"
)

func main() {
	app := &cli.App{
		Name:  "planit",
		Usage: "Shared calendars, celebration plans and a chat assistant that turns messages into events.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
			extractCommand(),
			gcalAuthCommand(),
			writeConfigCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("planit failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the process logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, nil)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the reminder worker.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Override the HTTP port."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.HTTPPort = c.Int("port")
			}

			db, err := database.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("creating database: %w", err)
			}
			defer db.Close()

			gcalClient := initGCal(c.Context, cfg, logger)
			var mirror *gcal.Mirror
			if cfg.GCalSync && gcalClient.IsAuthenticated() {
				mirror = gcal.NewMirror(gcalClient, db, cfg.PersistTimeout())
				logger.Info("google calendar mirroring enabled")
			}

			pipeline := initPipeline(cfg, db, mirror, logger)
			notifyService := initNotifyService(db, cfg, logger)
			authService := auth.NewService(db, cfg.SessionTTL())

			worker, err := reminder.NewWorker(db, notifyService, reminder.WorkerConfig{
				Schedule:    cfg.ReminderSchedule,
				Lead:        cfg.ReminderLead(),
				SendTimeout: time.Minute,
			}, logger)
			if err != nil {
				return fmt.Errorf("creating reminder worker: %w", err)
			}
			worker.Start()

			serverCfg := server.ServerConfig{
				DB:            db,
				Pipeline:      pipeline,
				NotifyService: notifyService,
				GCalClient:    gcalClient,
				AuthService:   authService,
				Logger:        logger,
				Port:          cfg.HTTPPort,
				AppURL:        cfg.AppURL,
			}
			if mirror != nil {
				serverCfg.Mirror = mirror
			}
			srv := server.New(serverCfg)

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server error", "error", err)
				}
			}()

			waitForShutdown(srv, worker, logger)
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the database schema and exit.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			db, err := database.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			defer db.Close()
			logger.Info("database is up to date", "path", cfg.DBPath)
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create a demo user with a session token, a default calendar and a sample plan.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Value: "demo@planit.local"},
			&cli.StringFlag{Name: "name", Value: "Demo User"},
			&cli.StringFlag{Name: "timezone", Value: "UTC"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			db, err := database.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("creating database: %w", err)
			}
			defer db.Close()

			user, err := db.GetUserByEmail(c.String("email"))
			if errors.Is(err, database.ErrNotFound) {
				user, err = db.CreateUser(c.String("email"), c.String("name"), c.String("timezone"))
			}
			if err != nil {
				return fmt.Errorf("creating demo user: %w", err)
			}

			calendar, err := db.GetOrCreateDefaultCalendar(user.ID)
			if err != nil {
				return fmt.Errorf("creating default calendar: %w", err)
			}

			plans, err := db.ListPlansForUser(user.ID)
			if err != nil {
				return fmt.Errorf("listing plans: %w", err)
			}
			if len(plans) == 0 {
				if _, err := db.CreatePlan(&database.CelebrationPlan{
					UserID:      user.ID,
					Title:       "Surprise party",
					Celebrant:   "A friend",
					PlanDate:    time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour).Add(18 * time.Hour),
					BudgetCents: 20000,
				}); err != nil {
					return fmt.Errorf("creating sample plan: %w", err)
				}
			}

			token, err := auth.NewService(db, cfg.SessionTTL()).CreateSession(user.ID, "seed")
			if err != nil {
				return fmt.Errorf("creating session: %w", err)
			}

			logger.Info("seeded demo data", "user_id", user.ID, "calendar_id", calendar.ID)
			fmt.Printf("Authorization: Bearer %s\n", token)
			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Run event extraction on a message and print the candidates without saving them.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Required: true},
			&cli.StringFlag{Name: "timezone", Aliases: []string{"tz"}},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			pipeline := chat.NewPipeline(newLLMClient(cfg), nil, logger, chat.Config{
				ExtractTimeout:  cfg.LLMTimeout(),
				DefaultTimezone: cfg.DefaultTimezone,
			})

			candidates, rejected, err := pipeline.Extract(c.Context, c.String("message"), c.String("timezone"))
			if err != nil {
				return err
			}
			for _, r := range rejected {
				logger.Warn("skipped element", "index", r.Index, "title", r.Title, "error", r.Err)
			}

			out, err := json.MarshalIndent(candidates, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func gcalAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "gcal-auth",
		Usage: "Authorize Google Calendar mirroring. Without --code, prints the consent URL.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "code", Usage: "Authorization code returned by Google."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			client, err := gcal.NewClient(c.Context, cfg.GoogleCredentialsFile, cfg.GoogleTokenFile, logger)
			if err != nil {
				return err
			}

			code := c.String("code")
			if code == "" {
				fmt.Printf("Open the following link, approve access, then rerun with --code:\n%s\n", client.GetAuthURL())
				return nil
			}

			if err := client.ExchangeCode(c.Context, code); err != nil {
				return err
			}
			logger.Info("google calendar authorized", "token_file", cfg.GoogleTokenFile)
			return nil
		},
	}
}

func writeConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "write-config",
		Usage: "Write the effective configuration to a YAML file usable as PLANIT_CONFIG_FILE.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "planit.yaml"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if err := cfg.WriteFile(c.String("out")); err != nil {
				return err
			}
			logger.Info("configuration written", "path", c.String("out"))
			return nil
		},
	}
}

func newLLMClient(cfg *config.Config) *llm.Client {
	var opts []llm.Option
	if cfg.LLMAPIURL != "" {
		opts = append(opts, llm.WithAPIURL(cfg.LLMAPIURL))
	}
	return llm.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMTemperature, opts...)
}

func initPipeline(cfg *config.Config, db *database.DB, mirror *gcal.Mirror, logger *slog.Logger) *chat.Pipeline {
	client := newLLMClient(cfg)
	if !client.IsConfigured() {
		logger.Warn("ANTHROPIC_API_KEY not set, the chat assistant is disabled")
	}

	var materializer chat.Materializer
	switch {
	case cfg.EventsAPIURL != "":
		materializer = chat.NewRemoteMaterializer(cfg.EventsAPIURL, cfg.EventsAPIToken, nil)
		logger.Info("chat events are created through the events service", "url", cfg.EventsAPIURL)
	case mirror != nil:
		materializer = chat.NewStoreMaterializer(db, mirror, logger)
	default:
		materializer = chat.NewStoreMaterializer(db, nil, logger)
	}

	return chat.NewPipeline(client, materializer, logger, chat.Config{
		ExtractTimeout:  cfg.LLMTimeout(),
		PersistTimeout:  cfg.PersistTimeout(),
		DefaultTimezone: cfg.DefaultTimezone,
	})
}

func initGCal(ctx context.Context, cfg *config.Config, logger *slog.Logger) *gcal.Client {
	client, err := gcal.NewClient(ctx, cfg.GoogleCredentialsFile, cfg.GoogleTokenFile, logger)
	if err != nil {
		logger.Info("google calendar not configured", "error", err)
		return nil
	}
	if !client.IsAuthenticated() {
		logger.Info("google calendar credentials found but not authorized; run gcal-auth")
	}
	return client
}

func initNotifyService(db *database.DB, cfg *config.Config, logger *slog.Logger) *notify.Service {
	var emailNotifier notify.Notifier
	if cfg.ResendAPIKey != "" {
		emailNotifier = notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom)
		logger.Info("email notification service configured (Resend)")
	}
	return notify.NewService(db, emailNotifier, cfg.AppURL, logger)
}

func waitForShutdown(srv *server.Server, worker *reminder.Worker, logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	worker.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
}
