package audit_test

import (
	"testing"
	"time"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalia/nfe-auditor/internal/audit"
	"github.com/fiscalia/nfe-auditor/internal/model"
)

func validDocument() *model.FiscalDocument {
	return &model.FiscalDocument{
		Kind:       model.KindNFeXML,
		AccessKey:  "35240112345678000195550010000012341000012349",
		IssuerCNPJ: "11.222.333/0001-81",
		Total:      dec.RequireFromString("150.00"),
		IssueDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CFOP:       "5102",
		Items: []model.LineItem{
			{Number: 1, Description: "Parafuso sextavado", Quantity: dec.NewFromInt(10), UnitPrice: dec.RequireFromString("5.00"), Total: dec.RequireFromString("50.00")},
			{Number: 2, Description: "Porca M8", Quantity: dec.NewFromInt(20), UnitPrice: dec.RequireFromString("5.00"), Total: dec.RequireFromString("100.00")},
		},
	}
}

func TestAudit_AllChecksPass(t *testing.T) {
	auditor := audit.New()
	result := auditor.Audit(validDocument())

	assert.Equal(t, model.StatusOK, result.Status)
	assert.Empty(t, result.Alerts)
	require.Len(t, result.ValidationsOK, 2)
	assert.Contains(t, result.ValidationsOK[0], "11.222.333/0001-81")
	assert.Contains(t, result.ValidationsOK[1], "150.00")
}

func TestAudit_InvalidCNPJ(t *testing.T) {
	doc := validDocument()
	doc.IssuerCNPJ = "11.222.333/0001-82"

	result := audit.New().Audit(doc)

	assert.Equal(t, model.StatusOK, result.Status)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, model.AlertInvalidCNPJ, result.Alerts[0].Kind)
	assert.Equal(t, model.SeverityHigh, result.Alerts[0].Severity)
	assert.Contains(t, result.Alerts[0].Message, "11.222.333/0001-82")
}

func TestAudit_TotalMismatch(t *testing.T) {
	doc := validDocument()
	doc.Total = dec.RequireFromString("200.00")

	result := audit.New().Audit(doc)

	assert.Equal(t, model.StatusOK, result.Status)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, model.AlertTotalMismatch, result.Alerts[0].Kind)
	assert.Equal(t, model.SeverityMedium, result.Alerts[0].Severity)
	// Message names both the item sum and the declared total
	assert.Contains(t, result.Alerts[0].Message, "150.00")
	assert.Contains(t, result.Alerts[0].Message, "200.00")
}

func TestAudit_TotalWithinTolerance(t *testing.T) {
	doc := validDocument()
	doc.Total = dec.RequireFromString("150.01")

	result := audit.New().Audit(doc)

	assert.Empty(t, result.Alerts)
}

func TestAudit_CustomTolerance(t *testing.T) {
	doc := validDocument()
	doc.Total = dec.RequireFromString("150.40")

	auditor := audit.New(audit.WithTolerance(dec.RequireFromString("0.50")))
	result := auditor.Audit(doc)

	assert.Empty(t, result.Alerts)
}

func TestAudit_NoItemsSkipsReconciliation(t *testing.T) {
	doc := validDocument()
	doc.Items = nil

	result := audit.New().Audit(doc)

	assert.Empty(t, result.Alerts)
	// Only the issuer check reports success
	require.Len(t, result.ValidationsOK, 1)
	assert.Contains(t, result.ValidationsOK[0], "dígitos verificadores corretos")
}

func TestAudit_ICMSMatches(t *testing.T) {
	doc := validDocument()
	doc.ICMS = &model.TaxDetail{
		Base:   dec.RequireFromString("150.00"),
		Rate:   dec.RequireFromString("18"),
		Amount: dec.RequireFromString("27.00"),
	}

	result := audit.New().Audit(doc)

	assert.Empty(t, result.Alerts)
	require.Len(t, result.ValidationsOK, 3)
	assert.Contains(t, result.ValidationsOK[2], "27.00")
}

func TestAudit_ICMSMismatch(t *testing.T) {
	doc := validDocument()
	doc.ICMS = &model.TaxDetail{
		Base:   dec.RequireFromString("150.00"),
		Rate:   dec.RequireFromString("18"),
		Amount: dec.RequireFromString("30.00"),
	}

	result := audit.New().Audit(doc)

	require.Len(t, result.Alerts, 1)
	assert.Equal(t, model.AlertICMSMismatch, result.Alerts[0].Kind)
	assert.Equal(t, model.SeverityHigh, result.Alerts[0].Severity)
	assert.Contains(t, result.Alerts[0].Message, "3.00")
}

func TestAudit_ICMSZeroRateSkipped(t *testing.T) {
	doc := validDocument()
	doc.ICMS = &model.TaxDetail{
		Base:   dec.RequireFromString("150.00"),
		Amount: dec.RequireFromString("27.00"),
	}

	result := audit.New().Audit(doc)

	// Without a rate there is nothing to recompute against
	assert.Empty(t, result.Alerts)
	assert.Len(t, result.ValidationsOK, 2)
}

func TestAudit_OutboundCFOPOnInboundOperation(t *testing.T) {
	tests := []struct {
		cfop string
	}{
		{"5102"},
		{"6108"},
		{"7101"},
	}

	for _, tt := range tests {
		t.Run(tt.cfop, func(t *testing.T) {
			doc := validDocument()
			doc.CFOP = tt.cfop
			doc.Inbound = true

			result := audit.New().Audit(doc)

			require.Len(t, result.Alerts, 1)
			assert.Equal(t, model.AlertCFOPInconsistent, result.Alerts[0].Kind)
			assert.Contains(t, result.Alerts[0].Message, tt.cfop)
		})
	}
}

func TestAudit_InboundCFOPOnInboundOperation(t *testing.T) {
	doc := validDocument()
	doc.CFOP = "1102"
	doc.Inbound = true

	result := audit.New().Audit(doc)

	assert.Empty(t, result.Alerts)
}

func TestAudit_AllChecksRunDespiteFindings(t *testing.T) {
	doc := validDocument()
	doc.IssuerCNPJ = "11.222.333/0001-82"
	doc.Total = dec.RequireFromString("999.00")
	doc.ICMS = &model.TaxDetail{
		Base:   dec.RequireFromString("150.00"),
		Rate:   dec.RequireFromString("18"),
		Amount: dec.RequireFromString("50.00"),
	}
	doc.Inbound = true

	result := audit.New().Audit(doc)

	// Findings do not short-circuit the remaining checks; order stable
	require.Len(t, result.Alerts, 4)
	assert.Equal(t, model.AlertInvalidCNPJ, result.Alerts[0].Kind)
	assert.Equal(t, model.AlertTotalMismatch, result.Alerts[1].Kind)
	assert.Equal(t, model.AlertICMSMismatch, result.Alerts[2].Kind)
	assert.Equal(t, model.AlertCFOPInconsistent, result.Alerts[3].Kind)
	assert.Equal(t, model.StatusOK, result.Status)
}

func TestAudit_ExtractionFailure(t *testing.T) {
	doc := &model.FiscalDocument{
		Kind:          model.KindScannedPDF,
		ExtractionErr: "documento ilegível",
	}

	result := audit.New().Audit(doc)

	assert.Equal(t, model.StatusFailed, result.Status)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, model.AlertExtractionFailed, result.Alerts[0].Kind)
	assert.Equal(t, model.SeverityHigh, result.Alerts[0].Severity)
	assert.Contains(t, result.Alerts[0].Message, "documento ilegível")
	assert.Empty(t, result.ValidationsOK)
}

func TestAudit_NilDocument(t *testing.T) {
	result := audit.New().Audit(nil)

	assert.Equal(t, model.StatusFailed, result.Status)
	assert.NotNil(t, result.Alerts)
	assert.NotNil(t, result.ValidationsOK)
}

func TestAudit_MissingIssuerSkipsCheck(t *testing.T) {
	doc := validDocument()
	doc.IssuerCNPJ = ""

	result := audit.New().Audit(doc)

	assert.Empty(t, result.Alerts)
	require.Len(t, result.ValidationsOK, 1)
	assert.Contains(t, result.ValidationsOK[0], "Soma dos itens")
}
