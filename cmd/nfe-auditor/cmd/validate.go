package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fiscalia/nfe-auditor/internal/audit"
	"github.com/fiscalia/nfe-auditor/internal/extract"
	"github.com/fiscalia/nfe-auditor/internal/model"
	"github.com/fiscalia/nfe-auditor/internal/sector"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Audit fiscal documents without classifying or storing them",
	Long: `Audit one or more NF-e XML files.

Checks performed:
  - Issuer CNPJ/CPF check digits
  - Item totals against the declared document total (tolerance R$ 0,01)
  - ICMS recomputation when base and rate are present
  - CFOP direction against the operation type
  - Sector rules when --cnae is set

Alerts are advisory: a document with alerts still audits as OK.

Examples:
  nfe-auditor validate nfe.xml
  nfe-auditor validate *.xml --cnae 0111-3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// AuditOutput holds the audit of a single file
type AuditOutput struct {
	File          string        `json:"arquivo"`
	Status        model.Status  `json:"status,omitempty"`
	Alerts        []model.Alert `json:"alertas,omitempty"`
	ValidationsOK []string      `json:"validacoes_ok,omitempty"`
	Error         string        `json:"erro,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	parser := extract.NewNFEParser()
	auditor := audit.New()
	profile := sector.ProfileFor(cnae)

	outputs := make([]*AuditOutput, 0, len(files))
	hasAlerts := false
	for _, file := range files {
		out := &AuditOutput{File: file}
		outputs = append(outputs, out)

		f, err := os.Open(file)
		if err != nil {
			out.Error = err.Error()
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		doc, err := parser.Parse(ctx, f)
		cancel()
		f.Close()
		if err != nil {
			out.Error = err.Error()
			continue
		}

		result := auditor.Audit(doc)
		out.Status = result.Status
		out.Alerts = result.Alerts
		out.ValidationsOK = result.ValidationsOK

		if result.Status == model.StatusOK && !profile.Empty() {
			alerts, ok := sector.Apply(doc, profile)
			out.Alerts = append(out.Alerts, alerts...)
			out.ValidationsOK = append(out.ValidationsOK, ok...)
		}

		if len(out.Alerts) > 0 {
			hasAlerts = true
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(outputs); err != nil {
		return err
	}

	if hasAlerts {
		printVerbose("One or more documents raised alerts\n")
	}
	return nil
}
