package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiscalia/nfe-auditor/internal/model"
	"github.com/fiscalia/nfe-auditor/internal/taxid"
)

// Extractor pulls fiscal fields out of free text recovered from scanned
// documents. Extraction is best effort: access key and line items are
// routinely absent from scans.
type Extractor struct {
	client *Client
	model  string
}

// ExtractorOption configures the extractor
type ExtractorOption func(*Extractor)

// WithExtractorModel overrides the model used for extraction
func WithExtractorModel(model string) ExtractorOption {
	return func(e *Extractor) {
		e.model = model
	}
}

// NewExtractor creates an extractor backed by the given client
func NewExtractor(client *Client, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		client: client,
		model:  ModelGPT4Turbo,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type extractedFields struct {
	IssuerCNPJ string          `json:"cnpj_emitente"`
	Total      decimal.Decimal `json:"valor_total"`
	IssueDate  string          `json:"data_emissao"`
	AccessKey  string          `json:"chave_acesso"`
}

// ExtractFromText extracts a scanned-record document from document text
func (e *Extractor) ExtractFromText(ctx context.Context, text string) (*model.FiscalDocument, error) {
	if text == "" {
		return nil, model.NewExtractionError("llm", "no text to extract from", nil)
	}

	prompt := fmt.Sprintf(userPromptExtractor, text)
	response, err := e.client.ChatText(ctx, e.model, systemPromptExtractor, prompt)
	if err != nil {
		return nil, model.NewExtractionError("llm", "extraction request failed", err)
	}

	var fields extractedFields
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &fields); err != nil {
		return nil, model.NewExtractionError("llm", "extractor returned malformed JSON", err)
	}

	doc := &model.FiscalDocument{
		Kind:       model.KindScannedPDF,
		AccessKey:  fields.AccessKey,
		IssuerCNPJ: taxid.Normalize(fields.IssuerCNPJ),
		Total:      fields.Total,
	}
	if fields.IssueDate != "" {
		date, err := time.Parse("2006-01-02", fields.IssueDate)
		if err == nil {
			doc.IssueDate = date
		}
	}
	return doc, nil
}
