package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pdxmph/taskflow-tui/internal/config"
	"github.com/pdxmph/taskflow-tui/internal/storage"
	"github.com/pdxmph/taskflow-tui/internal/storage/sqlite"
	"github.com/pdxmph/taskflow-tui/internal/tasks"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			target := configPath
			if target == "" {
				target = config.Path()
			}
			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", target)
			}

			cfg := config.Default()
			if backend != "" {
				cfg.Storage.Backend = backend
			}
			if slotPath != "" {
				cfg.Storage.Path = slotPath
			}
			err := cfg.Validate()
			if err != nil {
				return err
			}
			if !slices.Contains(storage.ListBackends(), cfg.Storage.Backend) {
				return fmt.Errorf("%w: %q (available: %s)", storage.ErrUnknownBackend,
					cfg.Storage.Backend, strings.Join(storage.ListBackends(), ", "))
			}

			if configPath == "" {
				err = cfg.Save()
			} else if err = os.MkdirAll(filepath.Dir(configPath), 0755); err == nil {
				err = cfg.SaveTo(configPath)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")

	return cmd
}

func fixturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fixtures",
		Short: "Replace the stored tasks with the sample tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, slot, cleanup, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			sample := tasks.DefaultTasks(time.Now())
			if err := store.Save(cmd.Context(), sample); err != nil {
				return err
			}

			fmt.Printf("Stored %d sample tasks under %q (%s backend)\n", len(sample), store.Key(), slot.Name())
			return nil
		},
	}
}

func slotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List the keys held by the sqlite backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != "sqlite" {
				return fmt.Errorf("slots lists sqlite storage only, configured backend is %s", cfg.Storage.Backend)
			}

			b, err := sqlite.NewBackend(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer b.Close()

			slots, err := b.DB().ListSlots(cmd.Context())
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				fmt.Println("No slots stored")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("KEY", "BYTES", "LAST WRITE")
			for _, s := range slots {
				t.Row(s.Key, strconv.Itoa(s.Size), s.LastWrite().Local().Format("2006-01-02 15:04"))
			}
			fmt.Println(t)
			return nil
		},
	}
}
