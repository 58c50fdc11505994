package pipeline

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "sentipulse/internal/errors"
	"sentipulse/internal/schema"
)

const validReportJSON = `{
	"overall_sentiment": "bullish",
	"confidence_score": 0.82,
	"summary": "Coverage is broadly positive on strong earnings.",
	"key_themes": ["earnings", "product demand"],
	"article_sentiments": [
		{"title": "Apple beats estimates", "source": "Reuters", "sentiment": "positive", "relevance": 0.95}
	],
	"risk_factors": ["regulatory pressure"],
	"opportunities": ["services growth"]
}`

func sampleNews() []schema.SourceNewsResult {
	summary := "Shares rallied."
	return []schema.SourceNewsResult{
		{
			Source: "Reuters",
			Articles: []schema.ScrapedArticle{
				{Title: "Apple beats estimates", Summary: &summary, URL: "https://example.com/a"},
			},
		},
	}
}

func TestSynthesize(t *testing.T) {
	t.Run("valid output yields a report", func(t *testing.T) {
		completer := &fakeCompleter{configured: true, text: validReportJSON}
		s := NewSentimentSynthesizer(completer, slog.Default())

		report, err := s.Synthesize(context.Background(), "Apple Inc.", sampleNews())
		require.NoError(t, err)
		assert.Equal(t, "bullish", report.OverallSentiment)
		assert.InDelta(t, 0.82, report.ConfidenceScore, 1e-9)
		assert.Len(t, report.ArticleSentiments, 1)
	})

	t.Run("prompt embeds company and news corpus", func(t *testing.T) {
		completer := &fakeCompleter{configured: true, text: validReportJSON}
		s := NewSentimentSynthesizer(completer, slog.Default())

		_, err := s.Synthesize(context.Background(), "Apple Inc.", sampleNews())
		require.NoError(t, err)

		require.Len(t, completer.prompts, 1)
		prompt := completer.prompts[0]
		assert.Contains(t, prompt, "Company: Apple Inc.")
		assert.Contains(t, prompt, "Apple beats estimates")
		assert.Contains(t, prompt, `"source": "Reuters"`)
	})

	t.Run("out-of-range confidence fails as extraction fault", func(t *testing.T) {
		completer := &fakeCompleter{configured: true, text: `{
			"overall_sentiment": "bullish",
			"confidence_score": 1.4,
			"summary": "ok",
			"key_themes": [],
			"article_sentiments": []
		}`}
		s := NewSentimentSynthesizer(completer, slog.Default())

		_, err := s.Synthesize(context.Background(), "Apple Inc.", sampleNews())
		require.Error(t, err)
		assert.Equal(t, apierrors.KindSchema, apierrors.KindOf(err))

		var v *schema.Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "confidence_score", v.Field)
	})

	t.Run("unknown sentiment enum fails as extraction fault", func(t *testing.T) {
		completer := &fakeCompleter{configured: true, text: `{
			"overall_sentiment": "sideways",
			"confidence_score": 0.5,
			"summary": "ok",
			"key_themes": [],
			"article_sentiments": []
		}`}
		s := NewSentimentSynthesizer(completer, slog.Default())

		_, err := s.Synthesize(context.Background(), "Apple Inc.", sampleNews())
		require.Error(t, err)
		assert.Equal(t, apierrors.KindSchema, apierrors.KindOf(err))
	})

	t.Run("completer error surfaces verbatim", func(t *testing.T) {
		cause := apierrors.New(apierrors.KindUpstream, "Empty response from Gemini")
		completer := &fakeCompleter{configured: true, err: cause}
		s := NewSentimentSynthesizer(completer, slog.Default())

		_, err := s.Synthesize(context.Background(), "Apple Inc.", sampleNews())
		assert.Equal(t, error(cause), err)
	})
}
