// Package audit implements the arithmetic and regulatory consistency checks
// run over a canonical fiscal document.
//
// Every check is independent and all of them run; findings are advisory
// alerts, never fatal. The only failed outcome is a document that carries an
// upstream extraction error marker. Alert order is deterministic: issuer
// checksum, item-sum reconciliation, ICMS recomputation, CFOP direction.
package audit

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	dec "github.com/fiscalia/nfe-auditor/internal/decimal"
	"github.com/fiscalia/nfe-auditor/internal/model"
	"github.com/fiscalia/nfe-auditor/internal/taxid"
)

// Auditor runs the validation checks over one document at a time
type Auditor struct {
	tolerance decimal.Decimal
}

// Option configures the auditor
type Option func(*Auditor)

// WithTolerance overrides the absolute reconciliation tolerance
func WithTolerance(t decimal.Decimal) Option {
	return func(a *Auditor) {
		a.tolerance = t
	}
}

// New creates an auditor with the default 0.01 tolerance
func New(opts ...Option) *Auditor {
	a := &Auditor{tolerance: dec.Tolerance}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit runs all checks and returns an immutable result.
// A document marked with an extraction failure is not audited further.
func (a *Auditor) Audit(doc *model.FiscalDocument) *model.AuditResult {
	if doc == nil {
		return &model.AuditResult{
			Status:        model.StatusFailed,
			Alerts:        []model.Alert{},
			ValidationsOK: []string{},
		}
	}
	if doc.ExtractionErr != "" {
		return &model.AuditResult{
			Status: model.StatusFailed,
			Alerts: []model.Alert{{
				Kind:     model.AlertExtractionFailed,
				Severity: model.SeverityHigh,
				Message:  fmt.Sprintf("Não foi possível auditar devido a erro na extração: %s", doc.ExtractionErr),
			}},
			ValidationsOK: []string{},
			Document:      doc,
		}
	}

	var alerts []model.Alert
	var ok []string

	checks := []func(*model.FiscalDocument) ([]model.Alert, []string){
		a.checkIssuerID,
		a.checkItemSum,
		a.checkICMS,
		a.checkCFOPDirection,
	}
	for _, check := range checks {
		ca, co := check(doc)
		alerts = append(alerts, ca...)
		ok = append(ok, co...)
	}

	if alerts == nil {
		alerts = []model.Alert{}
	}
	if ok == nil {
		ok = []string{}
	}
	return &model.AuditResult{
		Status:        model.StatusOK,
		Alerts:        alerts,
		ValidationsOK: ok,
		Document:      doc,
	}
}

func (a *Auditor) checkIssuerID(doc *model.FiscalDocument) ([]model.Alert, []string) {
	if doc.IssuerCNPJ == "" {
		return nil, nil
	}
	if !taxid.Valid(doc.IssuerCNPJ) {
		return []model.Alert{{
			Kind:     model.AlertInvalidCNPJ,
			Severity: model.SeverityHigh,
			Message:  fmt.Sprintf("CNPJ/CPF do emitente %s com dígitos verificadores incorretos", doc.IssuerCNPJ),
		}}, nil
	}
	return nil, []string{fmt.Sprintf("CNPJ/CPF do emitente %s com dígitos verificadores corretos", doc.IssuerCNPJ)}
}

func (a *Auditor) checkItemSum(doc *model.FiscalDocument) ([]model.Alert, []string) {
	if !doc.HasItems() {
		return nil, nil
	}
	sum := doc.ItemsTotal()
	if sum.Sub(doc.Total).Abs().GreaterThan(a.tolerance) {
		return []model.Alert{{
			Kind:     model.AlertTotalMismatch,
			Severity: model.SeverityMedium,
			Message: fmt.Sprintf("A soma dos itens (R$ %s) não corresponde ao valor total da nota (R$ %s)",
				sum.StringFixed(2), doc.Total.StringFixed(2)),
		}}, nil
	}
	return nil, []string{fmt.Sprintf("Soma dos itens (R$ %s) validada com sucesso contra o valor total da nota", sum.StringFixed(2))}
}

func (a *Auditor) checkICMS(doc *model.FiscalDocument) ([]model.Alert, []string) {
	icms := doc.ICMS
	if icms == nil || icms.Rate.IsZero() {
		return nil, nil
	}
	expected := dec.Percentage(icms.Base, icms.Rate)
	diff := icms.Amount.Sub(expected).Abs()
	if diff.GreaterThan(a.tolerance) {
		return []model.Alert{{
			Kind:     model.AlertICMSMismatch,
			Severity: model.SeverityHigh,
			Message:  fmt.Sprintf("ICMS declarado diverge do calculado. Diferença: R$ %s", diff.StringFixed(2)),
		}}, nil
	}
	return nil, []string{fmt.Sprintf("ICMS declarado (R$ %s) confere com o calculado", icms.Amount.StringFixed(2))}
}

// Outbound CFOP families start with 5 (intra-state), 6 (interstate) or
// 7 (export); any of them on a document flagged as an inbound operation is
// contradictory metadata.
func (a *Auditor) checkCFOPDirection(doc *model.FiscalDocument) ([]model.Alert, []string) {
	if doc.CFOP == "" {
		return nil, nil
	}
	outbound := strings.HasPrefix(doc.CFOP, "5") ||
		strings.HasPrefix(doc.CFOP, "6") ||
		strings.HasPrefix(doc.CFOP, "7")
	if outbound && doc.Inbound {
		return []model.Alert{{
			Kind:     model.AlertCFOPInconsistent,
			Severity: model.SeverityHigh,
			Message:  fmt.Sprintf("CFOP %s de saída em operação de entrada", doc.CFOP),
		}}, nil
	}
	return nil, nil
}
