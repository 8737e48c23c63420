// Package fiscalib provides a public API for auditing Brazilian fiscal
// documents.
//
// This package exposes the core types for extracting, auditing, classifying
// and storing NF-e records.
//
// Example usage:
//
//	parser := fiscalib.NewNFEParser()
//	doc, err := parser.Parse(ctx, reader)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result := fiscalib.NewAuditor().Audit(doc)
//	fmt.Println(result.Status)
package fiscalib

import (
	"github.com/fiscalia/nfe-auditor/internal/audit"
	"github.com/fiscalia/nfe-auditor/internal/extract"
	"github.com/fiscalia/nfe-auditor/internal/model"
)

// Re-export core types for public API
type (
	FiscalDocument = model.FiscalDocument
	LineItem       = model.LineItem
	TaxDetail      = model.TaxDetail
	Classification = model.Classification
	AuditResult    = model.AuditResult
	Alert          = model.Alert
	Severity       = model.Severity
	Status         = model.Status
	Category       = model.Category
	CostCenter     = model.CostCenter
	DocumentKind   = model.DocumentKind
)

// Re-export document kinds
const (
	KindNFeXML     = model.KindNFeXML
	KindScannedPDF = model.KindScannedPDF
)

// Re-export statuses and severities
const (
	StatusOK       = model.StatusOK
	StatusFailed   = model.StatusFailed
	SeverityLow    = model.SeverityLow
	SeverityMedium = model.SeverityMedium
	SeverityHigh   = model.SeverityHigh
)

// Re-export categories
const (
	CategoryRawMaterial    = model.CategoryRawMaterial
	CategoryOfficeSupplies = model.CategoryOfficeSupplies
	CategoryMaintenance    = model.CategoryMaintenance
	CategoryMarketing      = model.CategoryMarketing
	CategoryFixedAsset     = model.CategoryFixedAsset
	CategorySale           = model.CategorySale
	CategoryOther          = model.CategoryOther
)

// Re-export cost centers
const (
	CostCenterProduction     = model.CostCenterProduction
	CostCenterAdministrative = model.CostCenterAdministrative
	CostCenterMaintenance    = model.CostCenterMaintenance
	CostCenterMarketing      = model.CostCenterMarketing
	CostCenterSales          = model.CostCenterSales
	CostCenterIT             = model.CostCenterIT
)

// Re-export error types
type (
	ExtractionError     = model.ExtractionError
	ContractViolation   = model.ContractViolation
	ClassificationError = model.ClassificationError
)

// NewAuditor creates a validation engine with the default tolerance
func NewAuditor() *audit.Auditor {
	return audit.New()
}

// NewNFEParser creates a structured NF-e XML parser
func NewNFEParser() *extract.NFEParser {
	return extract.NewNFEParser()
}
