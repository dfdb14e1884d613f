package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/api"
	"github.com/eventsphere/eventsphere/internal/cache"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/eventsphere/eventsphere/internal/realtime"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the EventSphere server",
	Long:  `Start the EventSphere HTTP API, the websocket hub and the maintenance jobs.`,
	Example: `eventsphere serve --config config.yml
eventsphere serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	appCache, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}

	var origins []string
	if cfg.CORS != nil {
		origins = cfg.CORS.AllowedOrigins
	}
	hub := realtime.NewHub(cfg.Realtime, origins)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	eng, err := engine.New(cfg, db, hub, appCache)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer eng.Close() //nolint:errcheck

	if err := eng.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	server, err := api.New(ctx, cfg, eng, db, hub, appCache)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx)
	})
	g.Go(func() error {
		return server.Run(ctx)
	})

	log.Info("eventsphere started successfully")
	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("eventsphere stopped")
	return nil
}

func openDatabase(cfg *config.Config) (*database.Client, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
