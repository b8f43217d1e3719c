package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jwebster45206/blossom-engine/internal/storage"
	"github.com/jwebster45206/blossom-engine/internal/tui"
	pkgstorage "github.com/jwebster45206/blossom-engine/pkg/storage"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the story",
	Long: `Start the story in this terminal.

Controls:
  Enter/Space  - Advance, or finish the line being revealed
  1-9          - Pick a choice
  Tab / X      - Select / inspect a hotspot
  Ctrl+K       - Toggle skip mode
  A            - Toggle auto mode
  S / L        - Quicksave / load
  C            - Copy transcript
  O            - Settings
  Esc/Ctrl+C   - Quit

Examples:
  console play
  console play --catalog ./stories/my_story.json
  console play --db ./saves.db`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	catalog := loadCatalog(cfg)

	log, logFile := openLog(cfg)
	defer logFile.Close()

	if _, _, termErr := term.GetSize(int(os.Stdout.Fd())); termErr != nil {
		fmt.Fprintln(os.Stderr, "Error: play needs an interactive terminal")
		os.Exit(1)
	}

	// Continue without storage if the database cannot be opened
	var store pkgstorage.Storage
	db, err := storage.OpenSQLite(cfg.DBPath, cfg.CatalogDir, cfg.SessionTTL, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open save database: %v\n", err)
		log.Warn("Playing without saves", "error", err, "path", cfg.DBPath)
	} else {
		store = db
		defer db.Close()
	}

	model := tui.NewModel(tui.Options{
		Catalog:    catalog,
		Storage:    store,
		Settings:   defaultSettings(cfg),
		SceneDelay: cfg.SceneDelay,
		Logger:     log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
