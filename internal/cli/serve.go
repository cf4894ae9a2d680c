package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/tripdesk/internal/checkpoint"
	"github.com/soyeahso/tripdesk/internal/config"
	"github.com/soyeahso/tripdesk/internal/gateway"
	"github.com/soyeahso/tripdesk/internal/intent"
	"github.com/soyeahso/tripdesk/internal/orchestrator"
	"github.com/soyeahso/tripdesk/internal/travel"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tripdesk gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			registry := workflow.Default()
			if err := registry.Validate(); err != nil {
				return fmt.Errorf("validating workflow registry: %w", err)
			}

			dbPath := cfg.Database.Path
			if dbPath == "" {
				dbPath = filepath.Join(paths.Data, "tripdesk.db")
			}
			store, err := travel.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening booking database: %w", err)
			}
			defer store.Close()
			log.Info().Str("path", dbPath).Msg("booking database ready")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cps, err := checkpointStore(ctx, cfg, store)
			if err != nil {
				return err
			}
			log.Info().Str("store", cfg.Checkpoint.Store).Msg("checkpoint store ready")

			producer := intent.NewOpenAIProducer(cfg.OpenAI.APIKey, cfg.OpenAI.Model, registry, log)
			hub := gateway.NewHub(log)
			orch := orchestrator.New(registry, producer, travel.NewExecutor(store, log), cps, log,
				orchestrator.WithEvents(hub))

			srv := gateway.New(cfg.Gateway, orch, hub, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}

// checkpointStore builds the configured conversation checkpoint backend.
// The sqlite backend shares the booking database handle.
func checkpointStore(ctx context.Context, cfg config.Config, store *travel.Store) (checkpoint.Store, error) {
	switch cfg.Checkpoint.Store {
	case "", "sqlite":
		return checkpoint.NewSQLiteStore(store.SQL()), nil
	case "memory":
		return checkpoint.NewMemoryStore(), nil
	case "redis":
		r := cfg.Checkpoint.Redis
		ttl := time.Duration(r.TTLMinutes) * time.Minute
		return checkpoint.NewRedisStore(ctx, r.Addr, r.Password, r.DB, ttl)
	default:
		return nil, fmt.Errorf("unknown checkpoint store %q", cfg.Checkpoint.Store)
	}
}
