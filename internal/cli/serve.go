package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swarmdock-dev/swarmdock/internal/config"
	"github.com/swarmdock-dev/swarmdock/internal/eventlog"
	"github.com/swarmdock-dev/swarmdock/internal/runner"
	"github.com/swarmdock-dev/swarmdock/internal/server"
	"github.com/swarmdock-dev/swarmdock/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the swarmdock HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.ReadConfig(dataDir)
		if err != nil {
			// Not initialized; serve with defaults (no credentials configured).
			cfg = config.DefaultConfig()
		}

		logger, err := eventlog.NewLogger(dataDir)
		if err != nil {
			return fmt.Errorf("creating event logger: %w", err)
		}

		dbPath := cfg.Database.Path
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(dataDir, dbPath)
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}

		st, err := store.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer func() { _ = st.Close() }()

		if err := seedTemplates(st); err != nil {
			return fmt.Errorf("seeding templates: %w", err)
		}

		run := runner.New(st, runner.ExecSpawner{}, cfg, cfg.Swarm.Command, cfg.Swarm.CredentialEnv, logger)

		srv, err := server.NewServer(cfg.Server.Listen, st, run, logger)
		if err != nil {
			return fmt.Errorf("starting server: %w", err)
		}

		if logErr := logger.Append(eventlog.Event{
			Event: eventlog.EventServerStarted,
			Data:  map[string]any{"addr": srv.Addr(), "command": cfg.Swarm.Command},
		}); logErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to log server_started: %v\n", logErr)
		}

		fmt.Printf("swarmdock listening on %s (swarm CLI: %s)\n", srv.Addr(), cfg.Swarm.Command)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case <-ctx.Done():
			return srv.Stop()
		case err := <-errCh:
			return err
		}
	},
}

// seedTemplates inserts the built-in system templates on first run.
func seedTemplates(st *store.Store) error {
	existing, err := st.ListTemplates("")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seeds := []struct {
		name       string
		swarmType  string
		agentTypes []string
		task       string
	}{
		{
			name:       "quick-task",
			swarmType:  store.SwarmQuick,
			agentTypes: []string{"coordinator", "coder"},
			task:       "Work on {{projectName}}: {{task}}",
		},
		{
			name:       "full-hive",
			swarmType:  store.SwarmHiveMind,
			agentTypes: []string{"queen", "architect", "coder", "tester", "reviewer"},
			task:       "Coordinate a full build-out of {{projectName}}: {{task}}",
		},
	}
	for _, seed := range seeds {
		if _, err := st.CreateTemplate("", seed.name, seed.swarmType, seed.agentTypes, "", seed.task); err != nil {
			return err
		}
	}
	return nil
}
