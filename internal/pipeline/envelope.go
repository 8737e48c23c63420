package pipeline

import "github.com/fiscalia/nfe-auditor/internal/model"

// Envelope is the payload threaded through the pipeline stages. Stages only
// ever add to it; the document set by extraction is never replaced or
// dropped. The strong typing replaces an earlier free-form JSON handoff
// whose shape every stage had to re-discover.
type Envelope struct {
	Status         model.Status          `json:"status"`
	Alerts         []model.Alert         `json:"alertas"`
	ValidationsOK  []string              `json:"validacoes_ok"`
	Document       *model.FiscalDocument `json:"dados_fiscais"`
	Classification *model.Classification `json:"classificacao,omitempty"`
}

// checkContract verifies the envelope shape a stage depends on.
// A malformed envelope is an integration defect and fails the run.
func (e *Envelope) checkContract(stage string) error {
	if e == nil {
		return model.NewContractViolation(stage, "envelope is nil")
	}
	if e.Document == nil {
		return model.NewContractViolation(stage, "envelope lost its document")
	}
	if e.Document.Kind == "" {
		return model.NewContractViolation(stage, "document has no kind")
	}
	return nil
}
