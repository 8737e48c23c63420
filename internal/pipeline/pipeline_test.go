package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalia/nfe-auditor/internal/model"
	"github.com/fiscalia/nfe-auditor/internal/pipeline"
	"github.com/fiscalia/nfe-auditor/internal/store"
)

type stubExtractor struct {
	doc *model.FiscalDocument
	err error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (*model.FiscalDocument, error) {
	return s.doc, s.err
}

type stubClassifier struct {
	cls    model.Classification
	err    error
	called int
}

func (s *stubClassifier) Classify(_ context.Context, _ *model.FiscalDocument) (model.Classification, error) {
	s.called++
	return s.cls, s.err
}

type stubStore struct {
	rec    model.PersistedRecord
	key    string
	err    error
	called int
}

func (s *stubStore) Upsert(_ context.Context, rec model.PersistedRecord) (string, error) {
	s.called++
	s.rec = rec
	if s.key != "" {
		return s.key, s.err
	}
	return rec.AccessKey, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validDocument() *model.FiscalDocument {
	return &model.FiscalDocument{
		Kind:       model.KindNFeXML,
		AccessKey:  "35240112345678000195550010000012341000012349",
		IssuerCNPJ: "11.222.333/0001-81",
		Total:      dec.RequireFromString("150.00"),
		IssueDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CFOP:       "5102",
		Items: []model.LineItem{
			{Number: 1, Description: "Parafuso sextavado", Total: dec.RequireFromString("150.00")},
		},
	}
}

func TestProcessDocument_HappyPath(t *testing.T) {
	classifier := &stubClassifier{cls: model.Classification{
		Category:   model.CategoryRawMaterial,
		CostCenter: model.CostCenterProduction,
	}}
	st := &stubStore{}

	orch := pipeline.New(
		pipeline.WithClassifier(classifier),
		pipeline.WithStore(st),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), validDocument())

	require.NoError(t, result.Error)
	assert.True(t, result.Persisted)
	assert.Equal(t, "35240112345678000195550010000012341000012349", result.AccessKey)
	assert.Empty(t, result.Warnings)

	require.NotNil(t, result.Envelope)
	assert.Equal(t, model.StatusOK, result.Envelope.Status)
	assert.Empty(t, result.Envelope.Alerts)
	require.NotNil(t, result.Envelope.Classification)
	assert.Equal(t, model.CategoryRawMaterial, result.Envelope.Classification.Category)

	assert.Equal(t, 1, classifier.called)
	assert.Equal(t, 1, st.called)
	assert.Equal(t, model.CategoryRawMaterial, st.rec.Category)
	assert.Equal(t, model.CostCenterProduction, st.rec.CostCenter)
}

func TestProcessDocument_AlertsStillPersist(t *testing.T) {
	doc := validDocument()
	doc.IssuerCNPJ = "11.222.333/0001-82"

	st := &stubStore{}
	orch := pipeline.New(
		pipeline.WithClassifier(&stubClassifier{cls: model.Classification{
			Category:   model.CategoryOther,
			CostCenter: model.CostCenterAdministrative,
		}}),
		pipeline.WithStore(st),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), doc)

	require.NoError(t, result.Error)
	assert.True(t, result.Persisted, "alerts are advisory, the document still persists")
	require.Len(t, result.Envelope.Alerts, 1)
	assert.Equal(t, model.AlertInvalidCNPJ, result.Envelope.Alerts[0].Kind)
}

func TestProcessDocument_FailedAuditSkipsLaterStages(t *testing.T) {
	doc := &model.FiscalDocument{
		Kind:          model.KindScannedPDF,
		ExtractionErr: "documento ilegível",
	}

	classifier := &stubClassifier{}
	st := &stubStore{}
	orch := pipeline.New(
		pipeline.WithClassifier(classifier),
		pipeline.WithStore(st),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), doc)

	require.NoError(t, result.Error)
	assert.False(t, result.Persisted)
	assert.Equal(t, model.StatusFailed, result.Envelope.Status)
	assert.Equal(t, 0, classifier.called)
	assert.Equal(t, 0, st.called)
}

func TestProcessDocument_ClassificationFailureStopsPipeline(t *testing.T) {
	classifier := &stubClassifier{err: model.NewClassificationError("llm unavailable", nil)}
	st := &stubStore{}
	orch := pipeline.New(
		pipeline.WithClassifier(classifier),
		pipeline.WithStore(st),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), validDocument())

	require.Error(t, result.Error)
	var clsErr *model.ClassificationError
	assert.ErrorAs(t, result.Error, &clsErr)
	assert.False(t, result.Persisted)
	assert.Equal(t, 0, st.called, "classification failure must not persist")
}

func TestProcessDocument_NoClassifierConfigured(t *testing.T) {
	orch := pipeline.New(
		pipeline.WithStore(&stubStore{}),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), validDocument())

	require.Error(t, result.Error)
	var clsErr *model.ClassificationError
	assert.ErrorAs(t, result.Error, &clsErr)
}

func TestProcessDocument_ConflictIsSoftWarning(t *testing.T) {
	st := &stubStore{
		key: "35240112345678000195550010000012341000012349",
		err: &store.ConflictError{
			AccessKey: "35240112345678000195550010000012341000012349",
			Cause:     fmt.Errorf("UNIQUE constraint failed"),
		},
	}
	orch := pipeline.New(
		pipeline.WithClassifier(&stubClassifier{cls: model.Classification{
			Category:   model.CategoryOther,
			CostCenter: model.CostCenterAdministrative,
		}}),
		pipeline.WithStore(st),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), validDocument())

	require.NoError(t, result.Error, "a conflict is not a failure")
	assert.False(t, result.Persisted)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Conflito")
	assert.Equal(t, "35240112345678000195550010000012341000012349", result.AccessKey)
}

func TestProcessDocument_StoreErrorFailsRun(t *testing.T) {
	st := &stubStore{err: &store.StorageError{Op: "upsert", Cause: fmt.Errorf("disk full")}}
	orch := pipeline.New(
		pipeline.WithClassifier(&stubClassifier{cls: model.Classification{
			Category:   model.CategoryOther,
			CostCenter: model.CostCenterAdministrative,
		}}),
		pipeline.WithStore(st),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), validDocument())

	require.Error(t, result.Error)
	assert.False(t, result.Persisted)
}

func TestProcessDocument_ContractViolationOnMissingKind(t *testing.T) {
	doc := validDocument()
	doc.Kind = ""

	orch := pipeline.New(
		pipeline.WithClassifier(&stubClassifier{}),
		pipeline.WithStore(&stubStore{}),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), doc)

	require.Error(t, result.Error)
	var violation *model.ContractViolation
	assert.ErrorAs(t, result.Error, &violation)
}

func TestProcessDocument_SectorRulesApplied(t *testing.T) {
	doc := validDocument()
	doc.CFOP = "5405"

	orch := pipeline.New(
		pipeline.WithClassifier(&stubClassifier{cls: model.Classification{
			Category:   model.CategoryRawMaterial,
			CostCenter: model.CostCenterProduction,
		}}),
		pipeline.WithStore(&stubStore{}),
		pipeline.WithSectorCNAE("0151-2/01"),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessDocument(context.Background(), doc)

	require.NoError(t, result.Error)
	kinds := make([]string, 0, len(result.Envelope.Alerts))
	for _, a := range result.Envelope.Alerts {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, model.AlertCFOPIncompatible)
	assert.Contains(t, kinds, model.AlertLevyMissing)
}

func TestProcessFile_ExtractionErrorYieldsFailedEnvelope(t *testing.T) {
	orch := pipeline.New(
		pipeline.WithExtractor(&stubExtractor{err: model.NewExtractionError("pdf", "no text layer", nil)}),
		pipeline.WithLogger(quietLogger()),
	)

	result := orch.ProcessFile(context.Background(), "nota.pdf")

	require.Error(t, result.Error)
	var extErr *model.ExtractionError
	assert.ErrorAs(t, result.Error, &extErr)
	require.NotNil(t, result.Envelope)
	assert.Equal(t, model.StatusFailed, result.Envelope.Status)
	assert.False(t, result.Persisted)
}

func TestProcessFile_NoExtractorConfigured(t *testing.T) {
	orch := pipeline.New(pipeline.WithLogger(quietLogger()))

	result := orch.ProcessFile(context.Background(), "nota.xml")

	require.Error(t, result.Error)
}

func TestResultSummary(t *testing.T) {
	persisted := &pipeline.Result{
		Envelope:  &pipeline.Envelope{Alerts: []model.Alert{}},
		AccessKey: "chave",
		Persisted: true,
	}
	assert.Contains(t, persisted.Summary(), "salvo com sucesso")

	failed := &pipeline.Result{Envelope: &pipeline.Envelope{Status: model.StatusFailed}}
	assert.Contains(t, failed.Summary(), "não pôde ser auditado")

	errored := &pipeline.Result{Error: fmt.Errorf("boom")}
	assert.Contains(t, errored.Summary(), "falhou")
}
