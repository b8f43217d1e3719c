package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/blossom-engine/internal/storage"
	pkgstorage "github.com/jwebster45206/blossom-engine/pkg/storage"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage save slots",
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List save slots",
	Long: `Display every save slot in the save database, sorted by name.

Examples:
  console saves list
  console saves list --db ./saves.db`,
	Args: cobra.NoArgs,
	Run:  runSavesList,
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete <slot>",
	Short: "Delete a save slot",
	Args:  cobra.ExactArgs(1),
	Run:   runSavesDelete,
}

func init() {
	savesCmd.AddCommand(savesListCmd)
	savesCmd.AddCommand(savesDeleteCmd)
}

func openSaves() *storage.SQLiteStorage {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.OpenSQLite(cfg.DBPath, cfg.CatalogDir, cfg.SessionTTL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening save database: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runSavesList(_ *cobra.Command, _ []string) {
	store := openSaves()
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slots, err := store.ListSlots(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing saves: %v\n", err)
		os.Exit(1)
	}

	if len(slots) == 0 {
		fmt.Println("No saved games yet.")
		fmt.Println()
		fmt.Println("Press S while playing 'console play' to quicksave.")
		return
	}

	fmt.Printf("  %-32s  %-8s  %s\n", "Slot", "Size", "Saved")
	fmt.Printf("  %-32s  %-8s  %s\n", "----", "----", "-----")
	for _, s := range slots {
		fmt.Printf("  %-32s  %-8d  %s\n", s.Name, s.Size, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func runSavesDelete(_ *cobra.Command, args []string) {
	store := openSaves()
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := args[0]
	if err := store.DeleteSlot(ctx, name); err != nil {
		if errors.Is(err, pkgstorage.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: no save slot named %q\n", name)
		} else {
			fmt.Fprintf(os.Stderr, "Error deleting save: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("Deleted %s\n", name)
}
