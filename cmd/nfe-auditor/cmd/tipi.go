package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fiscalia/nfe-auditor/internal/store"
	"github.com/fiscalia/nfe-auditor/internal/tipi"
)

var tipiCmd = &cobra.Command{
	Use:   "tipi",
	Short: "Manage the TIPI rate table",
}

var tipiImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a TIPI export into the rate table",
	Long: `Replace the TIPI rate table with the contents of a JSON or CSV
export file. The replacement runs in a single transaction, so lookups keep
seeing the previous table until the import commits.

Downloading the export from the tax authority is a separate batch job; this
command only loads an already-downloaded file.

Examples:
  nfe-auditor tipi import tipi_data.json
  nfe-auditor tipi import tipi_data.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runTipiImport,
}

func init() {
	rootCmd.AddCommand(tipiCmd)
	tipiCmd.AddCommand(tipiImportCmd)
}

func runTipiImport(cmd *cobra.Command, args []string) error {
	records, err := tipi.LoadFile(args[0])
	if err != nil {
		return err
	}
	printVerbose("Loaded %d TIPI records from %s\n", len(records), args[0])

	docStore, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer docStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := tipi.Import(ctx, docStore.DB(), records); err != nil {
		return err
	}

	fmt.Printf("Imported %d TIPI records into %s\n", len(records), dbPath)
	return nil
}
