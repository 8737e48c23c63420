package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PersistedRecord is the row written to the document store.
// AccessKey is the unique key; every other column is overwritten on upsert.
type PersistedRecord struct {
	AccessKey  string          `json:"chave_acesso"`
	IssuerCNPJ string          `json:"cnpj_emitente"`
	Total      decimal.Decimal `json:"valor_total"`
	IssueDate  time.Time       `json:"data_emissao"`
	Kind       DocumentKind    `json:"tipo_documento"`
	Category   Category        `json:"categoria"`
	CostCenter CostCenter      `json:"centro_de_custo"`
}

// RecordFrom builds the persisted subset from a document and its classification
func RecordFrom(doc *FiscalDocument, cls *Classification) PersistedRecord {
	rec := PersistedRecord{
		AccessKey:  doc.AccessKey,
		IssuerCNPJ: doc.IssuerCNPJ,
		Total:      doc.Total,
		IssueDate:  doc.IssueDate,
		Kind:       doc.Kind,
	}
	if cls != nil {
		rec.Category = cls.Category
		rec.CostCenter = cls.CostCenter
	}
	return rec
}
