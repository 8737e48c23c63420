package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fiscalia/nfe-auditor/internal/extract"
	"github.com/fiscalia/nfe-auditor/internal/llm"
	"github.com/fiscalia/nfe-auditor/internal/model"
	"github.com/fiscalia/nfe-auditor/internal/pipeline"
	"github.com/fiscalia/nfe-auditor/internal/store"
)

var (
	outputFile string
	timeout    time.Duration
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process fiscal documents through the full pipeline",
	Long: `Process one or more fiscal documents: extract, audit, classify and
store each one.

Supported formats:
  - NF-e XML: .xml (direct parsing, no API key needed for extraction)
  - Scanned PDF: .pdf (text layer + LLM extraction, requires API key)

Classification always requires an LLM API key; a document is never stored
without a classification.

Examples:
  nfe-auditor process nfe.xml --api-key <key>
  nfe-auditor process notas/ -f table
  nfe-auditor process *.xml -o results.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	processCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Processing timeout per file")
}

// FileResult holds the outcome of processing a single file
type FileResult struct {
	File           string                `json:"arquivo"`
	Status         model.Status          `json:"status,omitempty"`
	AccessKey      string                `json:"chave_acesso,omitempty"`
	Persisted      bool                  `json:"persistido"`
	Alerts         []model.Alert         `json:"alertas,omitempty"`
	ValidationsOK  []string              `json:"validacoes_ok,omitempty"`
	Classification *model.Classification `json:"classificacao,omitempty"`
	Error          string                `json:"erro,omitempty"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to process")
	}

	printVerbose("Found %d files to process\n", len(files))

	docStore, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer docStore.Close()

	orch := newOrchestrator(docStore)

	results := make([]*FileResult, 0, len(files))
	for _, file := range files {
		printVerbose("Processing: %s\n", file)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		result := orch.ProcessFile(ctx, file)
		cancel()

		fr := &FileResult{
			File:      file,
			AccessKey: result.AccessKey,
			Persisted: result.Persisted,
		}
		if env := result.Envelope; env != nil {
			fr.Status = env.Status
			fr.Alerts = env.Alerts
			fr.ValidationsOK = env.ValidationsOK
			fr.Classification = env.Classification
		}
		if result.Error != nil {
			fr.Error = result.Error.Error()
			printVerbose("  Error: %s\n", fr.Error)
		} else {
			printVerbose("  %s\n", result.Summary())
		}
		results = append(results, fr)
	}

	return outputResults(results)
}

func newOrchestrator(docStore *store.Store) *pipeline.Orchestrator {
	var classifier pipeline.Classifier
	var textExtractor extract.TextExtractor
	if apiKey != "" {
		var clientOpts []llm.ClientOption
		if llmBaseURL != "" {
			clientOpts = append(clientOpts, llm.WithBaseURL(llmBaseURL))
		}
		client := llm.NewClient(apiKey, clientOpts...)

		var classifierOpts []llm.ClassifierOption
		var extractorOpts []llm.ExtractorOption
		if llmModel != "" {
			classifierOpts = append(classifierOpts, llm.WithClassifierModel(llmModel))
			extractorOpts = append(extractorOpts, llm.WithExtractorModel(llmModel))
		}
		classifier = llm.NewClassifier(client, classifierOpts...)
		textExtractor = llm.NewExtractor(client, extractorOpts...)
		printVerbose("LLM enabled (model: %s)\n", llmModel)
	}

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	return pipeline.New(
		pipeline.WithExtractor(extract.NewService(textExtractor)),
		pipeline.WithClassifier(classifier),
		pipeline.WithStore(docStore),
		pipeline.WithSectorCNAE(cnae),
		pipeline.WithLogger(log),
	)
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}

			if info.IsDir() {
				err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
					if err != nil {
						return err
					}
					if !info.IsDir() && isSupportedFile(path) {
						files = append(files, path)
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
			} else {
				files = append(files, arg)
			}
		} else {
			for _, match := range matches {
				info, err := os.Stat(match)
				if err != nil {
					continue
				}
				if !info.IsDir() && isSupportedFile(match) {
					files = append(files, match)
				}
			}
		}
	}

	return files, nil
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".pdf":
		return true
	default:
		return false
	}
}

func outputResults(results []*FileResult) error {
	var writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case "table":
		return outputTable(writer, results)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputTable(w *os.File, results []*FileResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tACCESS KEY\tALERTS\tCATEGORY\tSTORED")
	fmt.Fprintln(tw, "----\t------\t----------\t------\t--------\t------")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\n", r.File, r.Error)
			continue
		}
		category := ""
		if r.Classification != nil {
			category = string(r.Classification.Category)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%t\n",
			r.File, r.Status, r.AccessKey, len(r.Alerts), category, r.Persisted)
	}

	return tw.Flush()
}
