// Package pipeline implements the staged analysis workflow. A run resolves
// the company profile first, then scrapes the configured news sources in
// parallel and feeds whatever they returned into sentiment synthesis.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "sentipulse/internal/errors"
	"sentipulse/internal/infrastructure"
	"sentipulse/internal/schema"
)

// Phase identifies one stage of the pipeline
type Phase string

const (
	PhaseSector    Phase = "sector"
	PhaseNews      Phase = "news"
	PhaseSentiment Phase = "sentiment"
	PhaseDone      Phase = "done"
)

// Progress is one progress event. NewsCompleted/NewsTotal are set only
// during the news phase.
type Progress struct {
	Phase         Phase  `json:"phase"`
	Message       string `json:"message"`
	NewsCompleted *int   `json:"news_completed,omitempty"`
	NewsTotal     *int   `json:"news_total,omitempty"`
}

// ProgressFunc observes progress events. Events are delivered synchronously
// and in order; the pipeline serializes invocations, so observers need no
// locking of their own.
type ProgressFunc func(Progress)

// Result is the single externally observable output of a successful run
type Result struct {
	Profile     *schema.CompanyProfile    `json:"profile"`
	NewsResults []schema.SourceNewsResult `json:"news_results"`
	Sentiment   *schema.SentimentReport   `json:"sentiment"`
}

// Resolver is the sector resolution stage
type Resolver interface {
	Resolve(ctx context.Context, stockInput string) (*schema.CompanyProfile, error)
}

// Fetcher is the parallel news scraping stage
type Fetcher interface {
	FetchAll(ctx context.Context, profile *schema.CompanyProfile, onProgress SourceProgressFunc) ([]schema.SourceNewsResult, error)
	SourceCount() int
}

// Synthesizer is the sentiment synthesis stage
type Synthesizer interface {
	Synthesize(ctx context.Context, companyName string, newsResults []schema.SourceNewsResult) (*schema.SentimentReport, error)
}

// Pipeline sequences the three stages, owns the cross-stage failure policy,
// and emits progress events. Each stage runs exactly once per run; there are
// no retries, and a stage failure surfaces verbatim to the caller.
type Pipeline struct {
	resolver    Resolver
	fetcher     Fetcher
	synthesizer Synthesizer
	logger      *slog.Logger
	metrics     *infrastructure.PipelineMetrics
}

// New creates a pipeline over the given stages
func New(resolver Resolver, fetcher Fetcher, synthesizer Synthesizer, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Pipeline {
	return &Pipeline{
		resolver:    resolver,
		fetcher:     fetcher,
		synthesizer: synthesizer,
		logger:      logger.With(slog.String("component", "pipeline")),
		metrics:     metrics,
	}
}

// Run executes one full analysis. Runs are independent: all state is local to
// the call, so concurrent runs share nothing.
func (p *Pipeline) Run(ctx context.Context, stockInput string, onProgress ProgressFunc) (*Result, error) {
	tracer := otel.Tracer(infrastructure.MeterName)
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(attribute.String("stock_input", stockInput))

	emit := func(pr Progress) {
		if onProgress != nil {
			onProgress(pr)
		}
	}

	// Stage 1: resolve sector and competitors.
	emit(Progress{Phase: PhaseSector, Message: "Fetching company info..."})

	start := time.Now()
	profile, err := p.resolver.Resolve(ctx, stockInput)
	p.metrics.RecordStage(ctx, string(PhaseSector), time.Since(start).Seconds())
	if err != nil {
		return nil, p.fail(ctx, span, PhaseSector, err)
	}

	// Stage 2: scrape news from all sources in parallel.
	total := p.fetcher.SourceCount()
	zero := 0
	emit(Progress{Phase: PhaseNews, Message: "Scraping finance news...", NewsCompleted: &zero, NewsTotal: &total})

	start = time.Now()
	newsResults, err := p.fetcher.FetchAll(ctx, profile, func(completed, total int) {
		c, t := completed, total
		emit(Progress{
			Phase:         PhaseNews,
			Message:       fmt.Sprintf("Scraping news (%d/%d sites)", completed, total),
			NewsCompleted: &c,
			NewsTotal:     &t,
		})
	})
	p.metrics.RecordStage(ctx, string(PhaseNews), time.Since(start).Seconds())
	if err != nil {
		return nil, p.fail(ctx, span, PhaseNews, err)
	}

	if len(newsResults) == 0 {
		return nil, p.fail(ctx, span, PhaseNews, apierrors.ErrNoSources)
	}

	// Stage 3: synthesize sentiment over the surviving corpus.
	emit(Progress{Phase: PhaseSentiment, Message: "Analyzing sentiment..."})

	start = time.Now()
	sentiment, err := p.synthesizer.Synthesize(ctx, profile.CompanyName, newsResults)
	p.metrics.RecordStage(ctx, string(PhaseSentiment), time.Since(start).Seconds())
	if err != nil {
		return nil, p.fail(ctx, span, PhaseSentiment, err)
	}

	emit(Progress{Phase: PhaseDone, Message: "Complete"})
	p.metrics.RecordRun(ctx, "success")
	span.SetStatus(codes.Ok, "")

	return &Result{
		Profile:     profile,
		NewsResults: newsResults,
		Sentiment:   sentiment,
	}, nil
}

// fail records the failing stage and returns the stage error unmodified
func (p *Pipeline) fail(ctx context.Context, span trace.Span, phase Phase, err error) error {
	p.logger.ErrorContext(ctx, "pipeline stage failed",
		slog.String("phase", string(phase)),
		slog.String("error", err.Error()))
	span.RecordError(err)
	span.SetStatus(codes.Error, string(phase))
	p.metrics.RecordRun(ctx, "failed")
	return err
}
