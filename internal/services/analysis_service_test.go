package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "sentipulse/internal/errors"
	"sentipulse/internal/pipeline"
	"sentipulse/internal/schema"
)

type recordingResolver struct {
	inputs  []string
	profile *schema.CompanyProfile
	err     error
}

func (r *recordingResolver) Resolve(ctx context.Context, stockInput string) (*schema.CompanyProfile, error) {
	r.inputs = append(r.inputs, stockInput)
	return r.profile, r.err
}

type fixedFetcher struct {
	results []schema.SourceNewsResult
}

func (f *fixedFetcher) FetchAll(ctx context.Context, profile *schema.CompanyProfile, onProgress pipeline.SourceProgressFunc) ([]schema.SourceNewsResult, error) {
	return f.results, nil
}

func (f *fixedFetcher) SourceCount() int { return 6 }

type fixedSynthesizer struct {
	report *schema.SentimentReport
}

func (s *fixedSynthesizer) Synthesize(ctx context.Context, companyName string, newsResults []schema.SourceNewsResult) (*schema.SentimentReport, error) {
	return s.report, nil
}

func newService(resolver pipeline.Resolver) (*AnalysisService, *recordingResolver) {
	rec, _ := resolver.(*recordingResolver)
	p := pipeline.New(
		resolver,
		&fixedFetcher{results: []schema.SourceNewsResult{
			{Source: "Reuters", Articles: []schema.ScrapedArticle{{Title: "t", URL: "u"}}},
		}},
		&fixedSynthesizer{report: &schema.SentimentReport{
			OverallSentiment: "neutral",
			ConfidenceScore:  0.5,
			Summary:          "ok",
		}},
		slog.Default(), nil)
	return NewAnalysisServiceWithPipeline(p, nil, slog.Default()), rec
}

func TestAnalyze(t *testing.T) {
	t.Run("empty input rejected before the pipeline runs", func(t *testing.T) {
		svc, rec := newService(&recordingResolver{})

		_, err := svc.Analyze(context.Background(), "")
		require.ErrorIs(t, err, apierrors.ErrInvalidStock)
		assert.Empty(t, rec.inputs)
	})

	t.Run("whitespace-only input rejected", func(t *testing.T) {
		svc, rec := newService(&recordingResolver{})

		_, err := svc.Analyze(context.Background(), "  \t ")
		require.ErrorIs(t, err, apierrors.ErrInvalidStock)
		assert.Empty(t, rec.inputs)
	})

	t.Run("input is trimmed before resolution", func(t *testing.T) {
		resolver := &recordingResolver{profile: &schema.CompanyProfile{
			CompanyName: "Apple Inc.", Ticker: "AAPL", Sector: "Technology", Competitors: []string{"x"},
		}}
		svc, rec := newService(resolver)

		result, err := svc.Analyze(context.Background(), "  apple  ")
		require.NoError(t, err)
		require.Len(t, rec.inputs, 1)
		assert.Equal(t, "apple", rec.inputs[0])
		assert.Equal(t, "AAPL", result.Profile.Ticker)
	})

	t.Run("pipeline error passes through untouched", func(t *testing.T) {
		cause := apierrors.New(apierrors.KindResolution, "Company not found or invalid stock symbol")
		svc, _ := newService(&recordingResolver{err: cause})

		_, err := svc.Analyze(context.Background(), "xyzzy")
		require.ErrorIs(t, err, cause)
	})
}
