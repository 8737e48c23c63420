// Package pipeline sequences the four processing stages over one document:
// extraction, audit, classification, persistence. Stages run in that fixed
// order and each one hands the next a typed envelope.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fiscalia/nfe-auditor/internal/audit"
	"github.com/fiscalia/nfe-auditor/internal/model"
	"github.com/fiscalia/nfe-auditor/internal/sector"
	"github.com/fiscalia/nfe-auditor/internal/store"
)

// Extractor produces a canonical document from a raw reference
type Extractor interface {
	Extract(ctx context.Context, path string) (*model.FiscalDocument, error)
}

// Classifier assigns category and cost center to a document
type Classifier interface {
	Classify(ctx context.Context, doc *model.FiscalDocument) (model.Classification, error)
}

// Store persists the final record
type Store interface {
	Upsert(ctx context.Context, rec model.PersistedRecord) (string, error)
}

// Result is the outcome of one pipeline run
type Result struct {
	Envelope  *Envelope `json:"envelope,omitempty"`
	AccessKey string    `json:"chave_acesso,omitempty"`
	Persisted bool      `json:"persistido"`
	Warnings  []string  `json:"avisos,omitempty"`
	Error     error     `json:"-"`
}

// Summary renders a one-line human-readable outcome
func (r *Result) Summary() string {
	switch {
	case r.Error != nil:
		return fmt.Sprintf("processamento falhou: %v", r.Error)
	case r.Persisted:
		return fmt.Sprintf("documento com chave %s salvo com sucesso (%d alertas)",
			r.AccessKey, len(r.Envelope.Alerts))
	case r.Envelope != nil && r.Envelope.Status == model.StatusFailed:
		return "documento não pôde ser auditado"
	default:
		return "documento processado sem persistência"
	}
}

// Orchestrator owns the in-flight envelope for the duration of one run.
// The persistence store and the TIPI table are externally-lifetimed
// dependencies injected at construction; everything else is stateless.
type Orchestrator struct {
	extractor  Extractor
	auditor    *audit.Auditor
	classifier Classifier
	store      Store
	cnae       string
	log        *slog.Logger
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithExtractor sets the extraction collaborator
func WithExtractor(e Extractor) Option {
	return func(o *Orchestrator) { o.extractor = e }
}

// WithClassifier sets the classification collaborator
func WithClassifier(c Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

// WithStore sets the persistence layer
func WithStore(s Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithSectorCNAE enables the sector rule profile for the given CNAE code
func WithSectorCNAE(cnae string) Option {
	return func(o *Orchestrator) { o.cnae = cnae }
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New creates an orchestrator
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		auditor: audit.New(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessFile runs the full pipeline on a raw document reference
func (o *Orchestrator) ProcessFile(ctx context.Context, path string) *Result {
	if o.extractor == nil {
		return &Result{Error: model.NewExtractionError("file", "no extractor configured", nil)}
	}

	doc, err := o.extractor.Extract(ctx, path)
	if err != nil {
		o.log.Error("extraction failed", "path", path, "error", err)
		var extErr *model.ExtractionError
		if !errors.As(err, &extErr) {
			err = model.NewExtractionError("file", "extraction failed", err)
		}
		return &Result{
			Envelope: &Envelope{Status: model.StatusFailed, Alerts: []model.Alert{}, ValidationsOK: []string{}},
			Error:    err,
		}
	}
	return o.ProcessDocument(ctx, doc)
}

// ProcessDocument runs audit, classification and persistence on a pre-built
// canonical document.
func (o *Orchestrator) ProcessDocument(ctx context.Context, doc *model.FiscalDocument) *Result {
	env := &Envelope{Document: doc}
	result := &Result{Envelope: env}

	if err := o.auditStage(env); err != nil {
		result.Error = err
		return result
	}
	if env.Status == model.StatusFailed {
		// Malformed document: no classification, no persistence.
		return result
	}

	if err := o.classifyStage(ctx, env); err != nil {
		result.Error = err
		return result
	}

	key, warnings, err := o.persistStage(ctx, env)
	result.AccessKey = key
	result.Warnings = warnings
	if err != nil {
		result.Error = err
		return result
	}
	// A conflict warning means the row already existed and was not
	// necessarily overwritten.
	result.Persisted = len(warnings) == 0
	return result
}

func (o *Orchestrator) auditStage(env *Envelope) error {
	if err := env.checkContract("auditoria"); err != nil {
		return err
	}

	audited := o.auditor.Audit(env.Document)
	env.Status = audited.Status
	env.Alerts = audited.Alerts
	env.ValidationsOK = audited.ValidationsOK

	if env.Status == model.StatusOK && o.cnae != "" {
		profile := sector.ProfileFor(o.cnae)
		if !profile.Empty() {
			alerts, ok := sector.Apply(env.Document, profile)
			env.Alerts = append(env.Alerts, alerts...)
			env.ValidationsOK = append(env.ValidationsOK, ok...)
		}
	}

	o.log.Info("audit completed",
		"status", env.Status,
		"alerts", len(env.Alerts),
		"access_key", env.Document.AccessKey)
	return nil
}

func (o *Orchestrator) classifyStage(ctx context.Context, env *Envelope) error {
	if err := env.checkContract("classificacao"); err != nil {
		return err
	}
	if o.classifier == nil {
		return model.NewClassificationError("no classifier configured (LLM API key required)", nil)
	}

	cls, err := o.classifier.Classify(ctx, env.Document)
	if err != nil {
		o.log.Error("classification failed", "error", err)
		return err
	}
	env.Classification = &cls

	o.log.Info("document classified",
		"category", cls.Category,
		"cost_center", cls.CostCenter)
	return nil
}

func (o *Orchestrator) persistStage(ctx context.Context, env *Envelope) (string, []string, error) {
	if err := env.checkContract("persistencia"); err != nil {
		return "", nil, err
	}
	if o.store == nil {
		return "", nil, &store.StorageError{Op: "upsert", Cause: fmt.Errorf("no store configured")}
	}

	rec := model.RecordFrom(env.Document, env.Classification)
	key, err := o.store.Upsert(ctx, rec)
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			// Soft warning: the record already exists.
			o.log.Warn("storage conflict", "access_key", conflict.AccessKey)
			return key, []string{fmt.Sprintf("Conflito no banco de dados: %v", conflict)}, nil
		}
		o.log.Error("persistence failed", "error", err)
		return "", nil, err
	}

	o.log.Info("document persisted", "access_key", key)
	return key, nil, nil
}
