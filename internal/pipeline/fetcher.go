package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apierrors "sentipulse/internal/errors"
	"sentipulse/internal/infrastructure"
	"sentipulse/internal/schema"
)

// AutomationRunner is the browser automation service: one call per
// (url, goal, stealth) tuple returning the extracted payload.
type AutomationRunner interface {
	Run(ctx context.Context, url, goal string, useStealth bool) (map[string]any, error)
	IsConfigured() bool
}

// SourceProgressFunc receives (completed, total) after every individual
// source settles, success or failure, in completion order. Invocations are
// serialized by the fetcher.
type SourceProgressFunc func(completed, total int)

// NewsFetcher fans out one automation request per configured source and
// aggregates the survivors. Per-source failures degrade the source count
// only; they never abort sibling in-flight requests.
type NewsFetcher struct {
	runner  AutomationRunner
	sources []NewsSource
	timeout time.Duration
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewNewsFetcher creates a news fetcher over the given source configuration
func NewNewsFetcher(runner AutomationRunner, sources []NewsSource, timeout time.Duration, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *NewsFetcher {
	return &NewsFetcher{
		runner:  runner,
		sources: sources,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "news_fetcher")),
		metrics: metrics,
	}
}

// SourceCount returns the number of configured sources
func (f *NewsFetcher) SourceCount() int {
	return len(f.sources)
}

// FetchAll issues all source requests concurrently and returns the sources
// that yielded at least one article, in completion order. The aggregate is
// empty only if every source failed or returned nothing.
func (f *NewsFetcher) FetchAll(ctx context.Context, profile *schema.CompanyProfile, onProgress SourceProgressFunc) ([]schema.SourceNewsResult, error) {
	if !f.runner.IsConfigured() {
		return nil, apierrors.New(apierrors.KindConfiguration, "MINO_API_KEY is required")
	}

	query := fmt.Sprintf("%s OR %s", profile.CompanyName, profile.Ticker)
	total := len(f.sources)

	var (
		mu        sync.Mutex
		completed int
		results   []schema.SourceNewsResult
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range f.sources {
		src := src
		g.Go(func() error {
			result, err := f.fetchOne(gctx, src, query, profile.Ticker)

			mu.Lock()
			completed++
			done := completed
			if err != nil {
				f.logger.WarnContext(ctx, "news source failed",
					slog.String("source", src.Name),
					slog.String("error", err.Error()))
				f.metrics.RecordSourceFailure(ctx, src.Name)
			} else if len(result.Articles) == 0 {
				f.logger.InfoContext(ctx, "news source returned no articles",
					slog.String("source", src.Name))
			} else {
				results = append(results, *result)
				f.metrics.RecordSourceArticles(ctx, src.Name, len(result.Articles))
			}
			if onProgress != nil {
				onProgress(done, total)
			}
			mu.Unlock()

			// Failures are contained here so siblings keep running.
			return nil
		})
	}
	// Tasks never return errors; Wait is purely a join point.
	_ = g.Wait()

	f.logger.InfoContext(ctx, "news fetch complete",
		slog.Int("sources_configured", total),
		slog.Int("sources_with_articles", len(results)))

	return results, nil
}

// fetchOne runs one source request under its own deadline and normalizes the
// raw payload into the canonical shape.
func (f *NewsFetcher) fetchOne(ctx context.Context, src NewsSource, query, ticker string) (*schema.SourceNewsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url := src.URL(query, ticker)
	goal := buildNewsGoal(query, src.Name)

	raw, err := f.runner.Run(ctx, url, goal, src.UseStealth)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("empty automation result")
	}

	result := schema.NormalizeSourceResult(raw, src.Name)
	return &result, nil
}
