package model

// Status is the outcome of an audit run
type Status string

const (
	// StatusOK means the audit completed; alerts may still be present
	StatusOK Status = "OK"
	// StatusFailed means the document could not be audited
	StatusFailed Status = "FALHA"
)

// Severity grades an alert
type Severity string

const (
	SeverityLow    Severity = "BAIXA"
	SeverityMedium Severity = "MEDIA"
	SeverityHigh   Severity = "ALTA"
)

// Alert kinds raised by the validation and sector rule engines
const (
	AlertTotalMismatch    = "DIVERGENCIA_TOTAL"
	AlertInvalidCNPJ      = "CNPJ_INVALIDO"
	AlertICMSMismatch     = "ERRO_CALCULO_ICMS"
	AlertCFOPInconsistent = "INCONSISTENCIA_CFOP"
	AlertCFOPIncompatible = "CFOP_INCOMPATIVEL"
	AlertLevyMissing      = "IMPOSTO_AUSENTE"
	AlertIPIMissing       = "IPI_AUSENTE"
	AlertExtractionFailed = "FALHA_EXTRACAO"
)

// Alert is one advisory finding. Alerts never fail an audit.
type Alert struct {
	Kind     string   `json:"tipo"`
	Severity Severity `json:"gravidade"`
	Message  string   `json:"detalhes"`
}

// AuditResult wraps a document with the findings of one audit run.
// It is created once per run and never mutated afterwards.
type AuditResult struct {
	Status        Status          `json:"status"`
	Alerts        []Alert         `json:"alertas"`
	ValidationsOK []string        `json:"validacoes_ok"`
	Document      *FiscalDocument `json:"dados_fiscais"`
}
