// Package model defines the canonical fiscal document types shared by every
// stage of the processing pipeline.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind identifies how a fiscal document was produced
type DocumentKind string

const (
	// KindNFeXML is a structured NF-e XML record
	KindNFeXML DocumentKind = "XML NF-e"
	// KindScannedPDF is a best-effort record extracted from a scanned PDF
	KindScannedPDF DocumentKind = "PDF"
)

// TaxDetail holds one recomputable tax line (base, percent rate, declared amount)
type TaxDetail struct {
	Base   decimal.Decimal `json:"base"`
	Rate   decimal.Decimal `json:"aliquota"`
	Amount decimal.Decimal `json:"valor"`
}

// LineItem is one product or service line of a fiscal document.
// Total is the declared line value and is used verbatim in reconciliation;
// it is not required to equal Quantity*UnitPrice because of upstream rounding.
type LineItem struct {
	Number      int             `json:"numero_item"`
	Description string          `json:"descricao"`
	NCM         string          `json:"ncm,omitempty"`
	Quantity    decimal.Decimal `json:"quantidade"`
	UnitPrice   decimal.Decimal `json:"valor_unitario"`
	Total       decimal.Decimal `json:"valor_total_item"`
}

// FiscalDocument is the canonical record produced by extraction
type FiscalDocument struct {
	Kind       DocumentKind    `json:"tipo_documento"`
	AccessKey  string          `json:"chave_acesso,omitempty"`
	IssuerCNPJ string          `json:"cnpj_emitente"`
	Total      decimal.Decimal `json:"valor_total"`
	IssueDate  time.Time       `json:"data_emissao"`
	CFOP       string          `json:"cfop,omitempty"`
	Inbound    bool            `json:"entrada,omitempty"`
	Items      []LineItem      `json:"itens,omitempty"`

	// Optional tax summaries; nil when the source did not carry them
	ICMS *TaxDetail `json:"icms,omitempty"`
	IPI  *TaxDetail `json:"ipi,omitempty"`

	// Levies are special contributions keyed by name (e.g. FUNRURAL)
	Levies map[string]decimal.Decimal `json:"impostos_especiais,omitempty"`

	// ExtractionErr marks a document whose upstream extraction failed
	// partway; auditing such a document yields StatusFailed.
	ExtractionErr string `json:"erro,omitempty"`
}

// HasItems reports whether the document carries a line-item list
func (d *FiscalDocument) HasItems() bool {
	return len(d.Items) > 0
}

// ItemsTotal sums the declared line totals
func (d *FiscalDocument) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range d.Items {
		sum = sum.Add(item.Total)
	}
	return sum
}

// ItemDescriptions returns the item descriptions in document order
func (d *FiscalDocument) ItemDescriptions() []string {
	descs := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		descs = append(descs, item.Description)
	}
	return descs
}
