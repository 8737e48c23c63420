package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fiscalia/nfe-auditor/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List the fiscal documents stored in the database",
	Args:  cobra.NoArgs,
	RunE:  runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	docStore, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer docStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := docStore.List(ctx)
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	case "table":
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCESS KEY\tISSUER\tTOTAL\tDATE\tKIND\tCATEGORY\tCOST CENTER")
		fmt.Fprintln(tw, "----------\t------\t-----\t----\t----\t--------\t-----------")
		for _, r := range records {
			date := ""
			if !r.IssueDate.IsZero() {
				date = r.IssueDate.Format("2006-01-02")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.AccessKey, r.IssuerCNPJ, r.Total.StringFixed(2), date,
				r.Kind, r.Category, r.CostCenter)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
