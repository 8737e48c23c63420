package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fiscalia/nfe-auditor/internal/store"
	"github.com/fiscalia/nfe-auditor/internal/tipi"
)

var ncmCmd = &cobra.Command{
	Use:   "ncm [code]",
	Short: "Resolve the TIPI rate for an NCM product code",
	Long: `Look an NCM code up in the TIPI rate table.

The code is normalized (8 digits become DDDD.DD.DD) and, when the exact
code is absent, the lookup walks up to the parent code, since the TIPI
often lists rates only at coarser granularities.

Examples:
  nfe-auditor ncm 1234.56.78
  nfe-auditor ncm 12345678`,
	Args: cobra.ExactArgs(1),
	RunE: runNCM,
}

func init() {
	rootCmd.AddCommand(ncmCmd)
}

func runNCM(cmd *cobra.Command, args []string) error {
	docStore, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer docStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := tipi.LoadSQL(ctx, docStore.DB())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("TIPI table is empty; run 'nfe-auditor tipi import' first")
	}

	table := tipi.NewTable()
	table.Reload(records)

	res := table.Resolve(args[0])

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(res); err != nil {
		return err
	}

	if !res.Found {
		return fmt.Errorf("no TIPI classification available for %s", res.Queried)
	}
	return nil
}
