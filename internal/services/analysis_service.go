// Package services implements the business logic layer between the HTTP
// handlers and the pipeline. Handlers stay thin and delegate here; services
// own orchestration, progress broadcasting and error shaping.
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sentipulse/internal/automation"
	"sentipulse/internal/config"
	apierrors "sentipulse/internal/errors"
	"sentipulse/internal/infrastructure"
	"sentipulse/internal/llm"
	"sentipulse/internal/pipeline"
	ws "sentipulse/internal/websocket"
)

// AnalysisService runs the sentiment analysis pipeline for a stock and
// mirrors its progress to the websocket hub.
type AnalysisService struct {
	pipeline *pipeline.Pipeline
	hub      *ws.Hub
	logger   *slog.Logger
}

// NewAnalysisService wires the pipeline stages from configuration
func NewAnalysisService(cfg *config.Config, hub *ws.Hub, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "analysis_service"))

	gemini := llm.NewClient(cfg.Gemini, logger)
	runner := automation.NewClient(cfg.Automation, logger)

	resolver := pipeline.NewSectorResolver(gemini, logger)
	fetcher := pipeline.NewNewsFetcher(runner, pipeline.DefaultSources(), cfg.Automation.Timeout, logger, metrics)
	synthesizer := pipeline.NewSentimentSynthesizer(gemini, logger)

	return &AnalysisService{
		pipeline: pipeline.New(resolver, fetcher, synthesizer, logger, metrics),
		hub:      hub,
		logger:   logger,
	}
}

// NewAnalysisServiceWithPipeline creates a service around an existing pipeline (for testing)
func NewAnalysisServiceWithPipeline(p *pipeline.Pipeline, hub *ws.Hub, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &AnalysisService{
		pipeline: p,
		hub:      hub,
		logger:   logger.With(slog.String("component", "analysis_service")),
	}
}

// Analyze validates the stock input and runs the full pipeline.
// Progress events are broadcast to websocket clients as they happen.
func (s *AnalysisService) Analyze(ctx context.Context, stock string) (*pipeline.Result, error) {
	stock = strings.TrimSpace(stock)
	if stock == "" {
		return nil, apierrors.ErrInvalidStock
	}

	start := time.Now()
	s.logger.InfoContext(ctx, "Starting analysis", slog.String("stock", stock))

	result, err := s.pipeline.Run(ctx, stock, s.onProgress)
	if err != nil {
		s.logger.ErrorContext(ctx, "Analysis failed",
			slog.String("stock", stock),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		if s.hub != nil {
			s.hub.BroadcastError(err.Error())
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Analysis complete",
		slog.String("stock", stock),
		slog.Duration("duration", time.Since(start)))
	if s.hub != nil {
		s.hub.BroadcastResult(result)
	}
	return result, nil
}

func (s *AnalysisService) onProgress(p pipeline.Progress) {
	if s.hub != nil {
		s.hub.BroadcastProgress(p)
	}
}
