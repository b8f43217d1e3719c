// console plays a scene catalog in the terminal.
//
// Usage:
//
//	console play             - Play the story locally
//	console serve            - Start SSH server for remote play
//	console saves list       - List save slots
//	console saves delete <n> - Delete a save slot
//
// Global flags:
//
//	--catalog <path> - Catalog file to play (default: the embedded story)
//	--db <path>      - Save database path (default: ~/.blossom/saves.db)
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/blossom-engine/internal/config"
	"github.com/jwebster45206/blossom-engine/internal/logger"
	"github.com/jwebster45206/blossom-engine/internal/storage"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/settings"
)

var (
	flagCatalog string
	flagDBPath  string
	flagLogFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Blossom - a visual novel in your terminal",
	Long: `Blossom plays branching visual novel stories in the terminal.

Available commands:
  play     - Play the story locally
  serve    - Start SSH server for remote play
  saves    - List or delete save slots

Examples:
  console play
  console play --catalog ./stories/my_story.yaml
  console serve --ssh :2222
  console saves list`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Catalog file to play (default: embedded story)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to save database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "~/.blossom/console.log", "Log file; the terminal belongs to the game")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(savesCmd)
}

// loadConfig applies command line flags over the environment configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagCatalog != "" {
		cfg.CatalogPath = flagCatalog
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	return cfg, nil
}

// openLog returns a logger writing to the log file, or a discarding logger
// when the file cannot be opened.
func openLog(cfg *config.Config) (*slog.Logger, io.Closer) {
	path, err := expandHome(flagLogFile)
	if err == nil {
		err = os.MkdirAll(filepath.Dir(path), 0o755)
	}
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil)
	}
	return logger.New(f, cfg), f
}

func expandHome(path string) (string, error) {
	if len(path) < 2 || path[:2] != "~/" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

func loadCatalog(cfg *config.Config) *scenario.Scenario {
	catalog, err := storage.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}
	return catalog
}

// defaultSettings turns the configured text speed into player settings.
func defaultSettings(cfg *config.Config) settings.Settings {
	s := settings.Default()
	if cfg.TextSpeed > 0 {
		s.TextSpeed = int(cfg.TextSpeed / time.Millisecond)
	}
	return s
}
