package extract

import (
	"context"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/fiscalia/nfe-auditor/internal/model"
)

// TextExtractor recovers fiscal fields from document text; satisfied by
// llm.Extractor.
type TextExtractor interface {
	ExtractFromText(ctx context.Context, text string) (*model.FiscalDocument, error)
}

// ScannedParser handles scanned PDF documents: pull the text layer, then
// hand it to the field extractor. PDFs without a text layer fail with an
// ExtractionError.
type ScannedParser struct {
	extractor TextExtractor
}

// NewScannedParser creates a scanned-document parser
func NewScannedParser(extractor TextExtractor) *ScannedParser {
	return &ScannedParser{extractor: extractor}
}

// ParseFile extracts a best-effort document from a scanned PDF on disk
func (p *ScannedParser) ParseFile(ctx context.Context, path string) (*model.FiscalDocument, error) {
	if p.extractor == nil {
		return nil, model.NewExtractionError("pdf", "no field extractor configured (LLM API key required)", nil)
	}

	text, err := pdfText(path)
	if err != nil {
		return nil, model.NewExtractionError("pdf", "failed to read PDF text layer", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, model.NewExtractionError("pdf", "PDF has no text layer", nil)
	}

	return p.extractor.ExtractFromText(ctx, text)
}

func pdfText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}
