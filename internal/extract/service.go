package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fiscalia/nfe-auditor/internal/model"
)

// Service dispatches a document reference to the right extraction path
type Service struct {
	nfe     *NFEParser
	scanned *ScannedParser
}

// NewService creates an extraction service. extractor may be nil, in which
// case scanned documents are rejected.
func NewService(extractor TextExtractor) *Service {
	return &Service{
		nfe:     NewNFEParser(),
		scanned: NewScannedParser(extractor),
	}
}

// Extract reads a document file and returns the canonical record.
// Dispatch is by extension: .xml is a structured record, .pdf a scanned one.
func (s *Service) Extract(ctx context.Context, path string) (*model.FiscalDocument, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		f, err := os.Open(path)
		if err != nil {
			return nil, model.NewExtractionError("xml", "failed to open file", err)
		}
		defer f.Close()
		return s.nfe.Parse(ctx, f)
	case ".pdf":
		return s.scanned.ParseFile(ctx, path)
	default:
		return nil, model.NewExtractionError("file", "unsupported document format: "+filepath.Ext(path), nil)
	}
}
