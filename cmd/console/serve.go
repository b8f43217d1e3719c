package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/blossom-engine/internal/storage"
	"github.com/jwebster45206/blossom-engine/internal/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SSH server",
	Long: `Start an SSH server that lets players connect and read the story.

Each SSH connection gets its own session. Save slots are kept per user name
in the shared save database.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, uses SSH_HOST_KEY or ~/.blossom/ssh_host_ed25519

Examples:
  console serve                           # Listen on SSH_ADDR (default :2222)
  console serve --ssh :23234              # Listen on port 23234
  console serve --host-key ./my_host_key  # Use specific host key

Players can connect with:
  ssh localhost -p 2222`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if missing)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	catalog := loadCatalog(cfg)

	log, logFile := openLog(cfg)
	defer logFile.Close()

	store, err := storage.OpenSQLite(cfg.DBPath, cfg.CatalogDir, cfg.SessionTTL, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening save database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	sshCfg := tui.DefaultSSHServerConfig()
	sshCfg.Address = cfg.SSHAddr
	sshCfg.HostKeyPath = cfg.SSHHostKey
	if flagSSHAddr != "" {
		sshCfg.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		sshCfg.HostKeyPath = flagHostKey
	}
	sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute

	server, err := tui.NewSSHServer(sshCfg, tui.Options{
		Catalog:    catalog,
		Storage:    store,
		Settings:   defaultSettings(cfg),
		SceneDelay: cfg.SceneDelay,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting Blossom SSH server on %s\n", server.Addr())
	fmt.Printf("Serving %q\n", catalog.Name)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
