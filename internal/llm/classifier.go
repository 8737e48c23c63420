package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fiscalia/nfe-auditor/internal/model"
)

// Classifier assigns an accounting category and cost center to a fiscal
// document, based on its operation code and item descriptions.
type Classifier struct {
	client *Client
	model  string
}

// ClassifierOption configures the classifier
type ClassifierOption func(*Classifier)

// WithClassifierModel overrides the model used for classification
func WithClassifierModel(model string) ClassifierOption {
	return func(c *Classifier) {
		c.model = model
	}
}

// NewClassifier creates a classifier backed by the given client
func NewClassifier(client *Client, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		client: client,
		model:  ModelGPT4Turbo,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify asks the model for a classification and coerces the answer into
// the closed category and cost-center sets. Transport failures and empty
// answers are ClassificationErrors; out-of-vocabulary answers are not.
func (c *Classifier) Classify(ctx context.Context, doc *model.FiscalDocument) (model.Classification, error) {
	var cls model.Classification
	if doc == nil {
		return cls, model.NewClassificationError("no document to classify", nil)
	}

	cfop := doc.CFOP
	if cfop == "" {
		cfop = "Não informado"
	}
	prompt := fmt.Sprintf(userPromptClassifier, cfop, strings.Join(doc.ItemDescriptions(), ", "))

	response, err := c.client.ChatText(ctx, c.model, systemPromptClassifier, prompt)
	if err != nil {
		return cls, model.NewClassificationError("classifier request failed", err)
	}

	if err := json.Unmarshal([]byte(ExtractJSON(response)), &cls); err != nil {
		return cls, model.NewClassificationError("classifier returned malformed JSON", err)
	}
	if cls.Category == "" && cls.CostCenter == "" {
		return cls, model.NewClassificationError("classifier returned an empty classification", nil)
	}

	cls.Normalize()
	return cls, nil
}
