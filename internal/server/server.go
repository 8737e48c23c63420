// Package server exposes the processing pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fiscalia/nfe-auditor/internal/audit"
	"github.com/fiscalia/nfe-auditor/internal/config"
	"github.com/fiscalia/nfe-auditor/internal/extract"
	"github.com/fiscalia/nfe-auditor/internal/llm"
	"github.com/fiscalia/nfe-auditor/internal/model"
	"github.com/fiscalia/nfe-auditor/internal/pipeline"
	"github.com/fiscalia/nfe-auditor/internal/store"
	"github.com/fiscalia/nfe-auditor/internal/tipi"
)

// Server represents the HTTP API server
type Server struct {
	config       config.Config
	router       *gin.Engine
	orchestrator *pipeline.Orchestrator
	auditor      *audit.Auditor
	nfeParser    *extract.NFEParser
	docStore     *store.Store
	rateTable    *tipi.Table
	log          *slog.Logger
}

// NewServer creates a new API server wired to the given store and rate table
func NewServer(cfg config.Config, docStore *store.Store, rateTable *tipi.Table, log *slog.Logger) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Debug {
		router.Use(gin.Logger())
	}

	var classifier pipeline.Classifier
	var textExtractor extract.TextExtractor
	if cfg.LLMAPIKey != "" {
		var clientOpts []llm.ClientOption
		if cfg.LLMBaseURL != "" {
			clientOpts = append(clientOpts, llm.WithBaseURL(cfg.LLMBaseURL))
		}
		client := llm.NewClient(cfg.LLMAPIKey, clientOpts...)

		var classifierOpts []llm.ClassifierOption
		var extractorOpts []llm.ExtractorOption
		if cfg.LLMModel != "" {
			classifierOpts = append(classifierOpts, llm.WithClassifierModel(cfg.LLMModel))
			extractorOpts = append(extractorOpts, llm.WithExtractorModel(cfg.LLMModel))
		}
		classifier = llm.NewClassifier(client, classifierOpts...)
		textExtractor = llm.NewExtractor(client, extractorOpts...)
	}

	orchestrator := pipeline.New(
		pipeline.WithExtractor(extract.NewService(textExtractor)),
		pipeline.WithClassifier(classifier),
		pipeline.WithStore(docStore),
		pipeline.WithSectorCNAE(cfg.CNAE),
		pipeline.WithLogger(log),
	)

	s := &Server{
		config:       cfg,
		router:       router,
		orchestrator: orchestrator,
		auditor:      audit.New(),
		nfeParser:    extract.NewNFEParser(),
		docStore:     docStore,
		rateTable:    rateTable,
		log:          log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/process/xml", s.handleProcessXML)
		v1.POST("/validate", s.handleValidate)
		v1.POST("/ncm/resolve", s.handleResolveNCM)
		v1.GET("/documents", s.handleListDocuments)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleProcessXML runs the full pipeline on a raw NF-e XML body
func (s *Server) handleProcessXML(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	doc, err := s.nfeParser.Parse(ctx, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	result := s.orchestrator.ProcessDocument(ctx, doc)
	if result.Error != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: result.Error.Error()})
		return
	}

	c.JSON(http.StatusOK, processResponseFrom(result))
}

// handleValidate audits a raw NF-e XML body without classifying or persisting
func (s *Server) handleValidate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	doc, err := s.nfeParser.Parse(ctx, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	audited := s.auditor.Audit(doc)
	c.JSON(http.StatusOK, ValidateResponse{
		Status:        audited.Status,
		Alerts:        audited.Alerts,
		ValidationsOK: audited.ValidationsOK,
	})
}

func (s *Server) handleResolveNCM(c *gin.Context) {
	var req ResolveNCMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ncm is required"})
		return
	}
	if s.rateTable == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "TIPI table not loaded"})
		return
	}

	res := s.rateTable.Resolve(req.NCM)
	status := http.StatusOK
	if !res.Found {
		status = http.StatusNotFound
	}
	c.JSON(status, resolveResponseFrom(res))
}

func (s *Server) handleListDocuments(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	records, err := s.docStore.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if records == nil {
		records = []model.PersistedRecord{}
	}
	c.JSON(http.StatusOK, RecordsResponse{Records: records, Count: len(records)})
}
