package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pdxmph/taskflow-tui/internal/config"
	"github.com/pdxmph/taskflow-tui/internal/logging"
	"github.com/pdxmph/taskflow-tui/internal/storage"
	_ "github.com/pdxmph/taskflow-tui/internal/storage/file"
	_ "github.com/pdxmph/taskflow-tui/internal/storage/sqlite"
	"github.com/pdxmph/taskflow-tui/internal/tasks"
	"github.com/pdxmph/taskflow-tui/internal/tui"
)

var Version = "dev"

// Flags shared by every command
var (
	configPath string
	backend    string
	slotPath   string
	noIntro    bool
	noWatch    bool
	filterName string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "taskflow",
		Short:        "TaskFlow - a keyboard driven task tracker",
		Version:      Version,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "",
		fmt.Sprintf("Storage backend (%s)", strings.Join(storage.ListBackends(), ", ")))
	rootCmd.PersistentFlags().StringVar(&slotPath, "path", "", "Database file or directory for the backend")
	rootCmd.Flags().BoolVar(&noIntro, "no-intro", false, "Skip the splash screen")
	rootCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Ignore changes made by other windows")
	rootCmd.Flags().StringVar(&filterName, "filter", strings.ToLower(tasks.FilterAll.String()), "Initial filter (all, pending, completed)")

	// Add subcommands
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(fixturesCmd())
	rootCmd.AddCommand(slotsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command line overrides
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(configPath)
	}
	if err != nil {
		return nil, err
	}

	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if slotPath != "" {
		cfg.Storage.Path = slotPath
	}
	if noIntro {
		cfg.UI.Intro = false
	}
	if noWatch {
		cfg.Storage.Watch = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore sets up logging and opens the configured slot. The returned
// cleanup closes both.
func openStore(cfg *config.Config) (*tasks.Store, storage.Slot, func(), error) {
	logger, logFile, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(logger)

	slot, err := storage.Open(cfg.Storage)
	if err != nil {
		logFile.Close()
		return nil, nil, nil, err
	}

	store := tasks.NewStore(slot,
		tasks.WithKey(cfg.Storage.Key),
		tasks.WithLogger(logger),
	)

	cleanup := func() {
		if err := slot.Close(); err != nil {
			logger.Error("closing storage", "error", err)
		}
		logFile.Close()
	}
	return store, slot, cleanup, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	filter, err := tasks.ParseFilter(filterName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, slot, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	source := store.Load(ctx)
	slog.Info("taskflow started",
		"backend", slot.Name(),
		"loaded", source.String(),
		"tasks", len(store.Tasks()))

	opts := []tui.Option{tui.WithContext(ctx), tui.WithFilter(filter)}
	if cfg.UI.Intro {
		opts = append(opts, tui.WithIntro(cfg.UI.IntroDuration))
	}
	if cfg.Storage.Watch {
		ch, err := store.Watch(ctx)
		switch {
		case errors.Is(err, storage.ErrWatchUnsupported):
			slog.Info("not watching for external changes", "reason", err)
		case err != nil:
			slog.Warn("watching storage failed", "error", err)
		default:
			opts = append(opts, tui.WithNotifications(ch))
		}
	}

	// Start the program
	p := tea.NewProgram(tui.New(store, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
