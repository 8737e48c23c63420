package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	dbPath       string
	cnae         string
	apiKey       string
	llmBaseURL   string
	llmModel     string
)

var rootCmd = &cobra.Command{
	Use:   "nfe-auditor",
	Short: "Audit, classify and store Brazilian fiscal documents (NF-e)",
	Long: `NF-e Auditor processes Brazilian fiscal documents through a fixed
pipeline: extraction, arithmetic/regulatory audit, accounting classification
and idempotent persistence.

Supports:
  - NF-e XML records (direct parsing)
  - Scanned PDF documents (text layer + LLM extraction, requires API key)
  - TIPI rate table lookups with parent-NCM fallback

Examples:
  # Process a single NF-e
  nfe-auditor process nfe.xml

  # Audit only, without classifying or storing
  nfe-auditor validate nfe.xml

  # Resolve an NCM rate
  nfe-auditor ncm 1234.56.78

  # List stored documents
  nfe-auditor records`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (env: NFE_AUDITOR_DB)")
	rootCmd.PersistentFlags().StringVar(&cnae, "cnae", "", "Company CNAE code for sector rules (env: NFE_AUDITOR_CNAE)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for LLM provider (env: LLM_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&llmBaseURL, "llm-base-url", "", "LLM API base URL (env: LLM_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&llmModel, "llm-model", "", "LLM model for classification and extraction (env: LLM_MODEL)")

	// Load from environment variables if not set via flags
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if dbPath == "" {
		dbPath = os.Getenv("NFE_AUDITOR_DB")
	}
	if dbPath == "" {
		dbPath = "memoria_fiscal.db"
	}
	if cnae == "" {
		cnae = os.Getenv("NFE_AUDITOR_CNAE")
	}
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}
	if llmBaseURL == "" {
		llmBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if llmModel == "" {
		llmModel = os.Getenv("LLM_MODEL")
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
