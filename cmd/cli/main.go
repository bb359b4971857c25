package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/internal/config"
	"github.com/harborview-rehab/scheduler/pkg/api"
	"github.com/harborview-rehab/scheduler/pkg/audit"
	"github.com/harborview-rehab/scheduler/pkg/clients/gmailclient"
	"github.com/harborview-rehab/scheduler/pkg/core/engine"
	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
	"github.com/harborview-rehab/scheduler/pkg/notify"
	"github.com/harborview-rehab/scheduler/pkg/postgres"
	"github.com/harborview-rehab/scheduler/pkg/sqlite"
	"github.com/harborview-rehab/scheduler/pkg/utils"
	"github.com/harborview-rehab/scheduler/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg    *config.Config
	store  db.Store
	engine *engine.Engine
	logger *zap.Logger
	ctx    context.Context

	// pg is set when the postgres backend is configured; the sqlite
	// backend migrates itself on open
	pg *postgres.DB
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Harborview scheduler - manage therapist shift assignments",
		Long:  `A scheduling tool for therapist shift assignments: drag-and-drop style schedule mutations, availability checks, and lead designation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
			if app != nil && app.pg != nil {
				app.pg.Close()
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(applyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, store, side effect services, and the engine
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	// Initialize logger
	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.logger.Info("Loading configuration")
	app.cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	// Connect to the configured store backend
	switch app.cfg.Database.Driver {
	case "postgres":
		app.logger.Info("Connecting to postgres")
		app.pg, err = postgres.NewDB(app.ctx, app.cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		app.store = app.pg
	case "sqlite":
		app.logger.Info("Opening sqlite database", zap.String("path", app.cfg.Database.Path))
		sq, err := sqlite.NewDB(app.cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open sqlite database: %w", err)
		}
		app.store = sq
	default:
		return fmt.Errorf("unknown database driver %q", app.cfg.Database.Driver)
	}
	app.logger.Info("Store initialized successfully", zap.String("driver", app.cfg.Database.Driver))

	// Initialize gmail delivery when email is enabled
	var mailer notify.Mailer
	if app.cfg.Notifier.EmailEnabled {
		app.logger.Info("Initializing gmail client")
		oauthCfg, err := config.LoadOAuthClientFromPath(app.cfg.Notifier.OAuthClientPath)
		if err != nil {
			return fmt.Errorf("failed to load OAuth client config: %w", err)
		}
		token, err := utils.LoadToken(app.cfg.Notifier.TokenPath)
		if err != nil {
			return fmt.Errorf("failed to load OAuth token: %w", err)
		}
		gmailClient, err := gmailclient.NewClient(app.ctx, oauthCfg, token)
		if err != nil {
			return fmt.Errorf("failed to create gmail client: %w", err)
		}
		mailer = gmailClient
		app.logger.Debug("Gmail client initialized successfully")
	}

	auditor := audit.New(app.store, app.logger)
	notifier := notify.New(app.store, mailer, app.logger)

	limits := engine.DefaultLimits()
	if app.cfg.Staffing.MaxSlotCoverage > 0 {
		limits.MaxSlotCoverage = app.cfg.Staffing.MaxSlotCoverage
	}
	if app.cfg.Staffing.MinHealthyCoverage > 0 {
		limits.MinHealthyCoverage = app.cfg.Staffing.MinHealthyCoverage
	}

	app.engine = engine.New(app.store, auditor, notifier, limits, app.logger)
	app.logger.Info("Engine initialized successfully")

	return nil
}

// runMigrations applies pending schema migrations on the postgres backend.
// The sqlite backend creates its schema on open, so there is nothing to do.
func runMigrations() error {
	if app.pg == nil {
		app.logger.Info("Sqlite schema is applied on open, skipping migrations")
		return nil
	}
	if err := app.pg.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Command definitions

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run schema migrations and start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrations(); err != nil {
				return err
			}

			handler := api.NewHandler(app.engine, api.NewTokenAuthenticator(app.cfg.APITokens), app.logger)
			router := api.NewRouter(handler, app.cfg.AllowedOrigins)

			color.Green("✓ Scheduler API listening on %s\n", app.cfg.ListenAddr)
			app.logger.Info("Starting HTTP server", zap.String("addr", app.cfg.ListenAddr))

			if err := http.ListenAndServe(app.cfg.ListenAddr, router); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrations(); err != nil {
				return err
			}
			color.Green("✓ Migrations applied\n")
			return nil
		},
	}
}

func applyCmd() *cobra.Command {
	var actorID string

	cmd := &cobra.Command{
		Use:   "apply <action.json>",
		Short: "Apply a schedule action from a JSON file as the given actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read action file: %w", err)
			}

			var action model.DragAction
			if err := json.Unmarshal(raw, &action); err != nil {
				return fmt.Errorf("failed to parse action file: %w", err)
			}

			result, err := app.engine.Apply(app.ctx, actorID, action)
			if err != nil {
				printEngineError(err)
				return err
			}

			color.Green("✓ %s\n", result.Message)
			if result.Warning != "" {
				color.Yellow("! %s\n", result.Warning)
			}
			if result.Undo != nil {
				undo, err := json.MarshalIndent(result.Undo, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode undo action: %w", err)
				}
				fmt.Printf("\nUndo action:\n%s\n", undo)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&actorID, "actor", "a", "", "User id of the manager performing the action")
	cmd.MarkFlagRequired("actor")

	return cmd
}

// printEngineError renders a rejection with its code and, for availability
// conflicts, the blocked therapist details.
func printEngineError(err error) {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		color.Red("✗ %s\n", err)
		return
	}

	color.Red("✗ [%s] %s\n", engErr.Code, engErr.Message)
	if engErr.Availability != nil {
		a := engErr.Availability
		fmt.Printf("  %s is unavailable on %s (%s): %s\n", a.TherapistName, a.Date, a.ShiftType, a.Reason)
	}
}
