package server

import (
	"github.com/fiscalia/nfe-auditor/internal/model"
	"github.com/fiscalia/nfe-auditor/internal/pipeline"
	"github.com/fiscalia/nfe-auditor/internal/tipi"
)

// ProcessResponse is the response for process endpoints
type ProcessResponse struct {
	Status         model.Status          `json:"status"`
	AccessKey      string                `json:"chave_acesso,omitempty"`
	Persisted      bool                  `json:"persistido"`
	Alerts         []model.Alert         `json:"alertas"`
	ValidationsOK  []string              `json:"validacoes_ok"`
	Classification *model.Classification `json:"classificacao,omitempty"`
	Warnings       []string              `json:"avisos,omitempty"`
	Summary        string                `json:"resumo"`
}

func processResponseFrom(result *pipeline.Result) ProcessResponse {
	resp := ProcessResponse{
		AccessKey: result.AccessKey,
		Persisted: result.Persisted,
		Warnings:  result.Warnings,
		Summary:   result.Summary(),
	}
	if env := result.Envelope; env != nil {
		resp.Status = env.Status
		resp.Alerts = env.Alerts
		resp.ValidationsOK = env.ValidationsOK
		resp.Classification = env.Classification
	}
	return resp
}

// ValidateResponse is the response for the validate endpoint
type ValidateResponse struct {
	Status        model.Status  `json:"status"`
	Alerts        []model.Alert `json:"alertas"`
	ValidationsOK []string      `json:"validacoes_ok"`
}

// ResolveNCMRequest is the request for the NCM resolution endpoint
type ResolveNCMRequest struct {
	NCM string `json:"ncm" binding:"required"`
}

// ResolveNCMResponse is the response for the NCM resolution endpoint
type ResolveNCMResponse struct {
	Queried     string `json:"ncm_consultado"`
	Found       bool   `json:"encontrado"`
	NCM         string `json:"ncm_encontrado,omitempty"`
	Description string `json:"descricao,omitempty"`
	Rate        string `json:"aliquota,omitempty"`
	Ex          string `json:"ex,omitempty"`
}

func resolveResponseFrom(res tipi.Resolution) ResolveNCMResponse {
	resp := ResolveNCMResponse{
		Queried: res.Queried,
		Found:   res.Found,
	}
	if res.Found {
		resp.NCM = res.Record.NCM
		resp.Description = res.Record.Description
		resp.Rate = res.Record.Rate
		resp.Ex = res.Record.Ex
	}
	return resp
}

// RecordsResponse is the response for the persisted-records listing
type RecordsResponse struct {
	Records []model.PersistedRecord `json:"registros"`
	Count   int                     `json:"total"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}
