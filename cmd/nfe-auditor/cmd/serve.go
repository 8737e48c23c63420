package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fiscalia/nfe-auditor/internal/config"
	"github.com/fiscalia/nfe-auditor/internal/server"
	"github.com/fiscalia/nfe-auditor/internal/store"
	"github.com/fiscalia/nfe-auditor/internal/tipi"
)

var (
	serverAddr  string
	serverDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for processing fiscal documents.

The API provides endpoints for:
  - POST /api/v1/process/xml  - Run the full pipeline on an NF-e XML body
  - POST /api/v1/validate     - Audit an NF-e without storing it
  - POST /api/v1/ncm/resolve  - Resolve a TIPI rate for an NCM code
  - GET  /api/v1/documents    - List stored documents
  - GET  /health              - Health check

Examples:
  nfe-auditor serve
  nfe-auditor serve --address :8081 --api-key <key>`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (env: NFE_AUDITOR_ADDR)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override environment.
	if serverAddr != "" {
		cfg.Addr = serverAddr
	}
	if serverDebug {
		cfg.Debug = true
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if cnae != "" {
		cfg.CNAE = cnae
	}
	if apiKey != "" {
		cfg.LLMAPIKey = apiKey
	}
	if llmBaseURL != "" {
		cfg.LLMBaseURL = llmBaseURL
	}
	if llmModel != "" {
		cfg.LLMModel = llmModel
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	docStore, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer docStore.Close()

	rateTable := tipi.NewTable()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	records, err := tipi.LoadSQL(ctx, docStore.DB())
	cancel()
	if err != nil {
		return err
	}
	rateTable.Reload(records)
	if rateTable.Len() == 0 {
		log.Warn("TIPI table is empty; NCM resolution will always miss")
	}

	srv := server.NewServer(cfg, docStore, rateTable, log)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down server...")
		docStore.Close()
		os.Exit(0)
	}()

	log.Info("starting server",
		"address", cfg.Addr,
		"db", cfg.DBPath,
		"tipi_records", rateTable.Len(),
		"llm_enabled", cfg.LLMAPIKey != "")

	return srv.Run()
}
