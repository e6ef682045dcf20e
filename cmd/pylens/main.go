package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dkeller/pylens-mcp/internal/config"
	"github.com/dkeller/pylens-mcp/internal/engine"
	"github.com/dkeller/pylens-mcp/internal/mcp"
	"github.com/dkeller/pylens-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagProjectRoot string
	flagConfigPath  string
	flagTransport   string
	flagHost        string
	flagPort        int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pylens",
		Short: "MCP server for on-demand Python code indexing",
		Long: `pylens indexes a Python project sparsely, small files first, and
serves definition, outline, reference, and symbol-filter queries over the
Model Context Protocol.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagProjectRoot, "project-root", ".", "Python project root to index")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagTransport, "transport", "", "transport: stdio or http (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "HTTP listen host (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "HTTP listen port (overrides config)")

	rootCmd.AddCommand(versionCmd())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pylens MCP Server\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", storage.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		},
	}
}

func runServe(ctx context.Context) error {
	// Log to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("pylens MCP Server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return err
	}

	store, err := storage.NewSQLiteStorage(storage.InMemory)
	if err != nil {
		log.Printf("Failed to initialize storage: %v", err)
		return err
	}
	defer func() { _ = store.Close() }()

	opts := &engine.Options{
		MaxEagerFiles: cfg.Index.MaxEagerFiles,
		MaxEagerBytes: cfg.Index.MaxEagerBytes,
		Workers:       cfg.Index.Workers,
		Excludes:      cfg.CompileExcludes(),
	}

	eng, err := engine.New(ctx, flagProjectRoot, store, opts)
	if err != nil {
		log.Printf("Failed to index project: %v", err)
		return err
	}

	stats := eng.Stats()
	log.Printf("Indexed %d of %d discovered files (%d definitions, %d references)",
		stats.IndexedFiles, stats.DiscoveredFiles, stats.Definitions, stats.References)

	server := mcp.NewServer(eng)

	log.Printf("MCP server ready on %s transport", cfg.Server.Transport)
	if err := server.Serve(ctx, cfg.Server); err != nil {
		log.Printf("Server error: %v", err)
		return err
	}

	log.Println("Server stopped")
	return nil
}

// loadConfig reads the TOML config when given, then applies flag overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfigPath != "" {
		cfg, err = config.Load(flagConfigPath)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if flagTransport != "" {
		cfg.Server.Transport = flagTransport
	}
	if flagHost != "" {
		cfg.Server.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
