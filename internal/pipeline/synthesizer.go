package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	apierrors "sentipulse/internal/errors"
	"sentipulse/internal/schema"
)

// SentimentSynthesizer feeds the aggregated news corpus into the completion
// service and validates the resulting sentiment report. Same fatal-abort
// policy as the resolver: no partial or default sentiment is ever fabricated.
type SentimentSynthesizer struct {
	completer Completer
	logger    *slog.Logger
}

// NewSentimentSynthesizer creates a new sentiment synthesizer
func NewSentimentSynthesizer(completer Completer, logger *slog.Logger) *SentimentSynthesizer {
	return &SentimentSynthesizer{
		completer: completer,
		logger:    logger.With(slog.String("component", "sentiment_synthesizer")),
	}
}

// sentimentSchema is the declared response shape for the synthesis call
var sentimentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"overall_sentiment": map[string]any{
			"type":        "string",
			"enum":        []string{"bullish", "bearish", "neutral", "mixed"},
			"description": "Aggregate sentiment",
		},
		"confidence_score": map[string]any{
			"type":        "number",
			"minimum":     0,
			"maximum":     1,
			"description": "Confidence 0-1",
		},
		"summary": map[string]any{"type": "string", "description": "Executive summary"},
		"key_themes": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"maxItems":    5,
			"description": "Main topics",
		},
		"article_sentiments": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":     map[string]any{"type": "string"},
					"source":    map[string]any{"type": "string"},
					"sentiment": map[string]any{"type": "string", "enum": []string{"positive", "neutral", "negative"}},
					"relevance": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				},
				"required": []string{"title", "source", "sentiment", "relevance"},
			},
			"description": "Per-article sentiment",
		},
		"risk_factors": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"maxItems":    5,
			"description": "Risk factors from news",
		},
		"opportunities": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"maxItems":    5,
			"description": "Opportunities from news",
		},
	},
	"required": []string{"overall_sentiment", "confidence_score", "summary", "key_themes", "article_sentiments"},
}

// newsCorpus is the serialized form of the aggregate fed to the prompt
type newsCorpus struct {
	Sources []schema.SourceNewsResult `json:"sources"`
}

// Synthesize runs the sentiment call over the surviving news results
func (s *SentimentSynthesizer) Synthesize(ctx context.Context, companyName string, newsResults []schema.SourceNewsResult) (*schema.SentimentReport, error) {
	payload, err := json.MarshalIndent(newsCorpus{Sources: newsResults}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling news corpus: %w", err)
	}

	prompt := fmt.Sprintf("%s\n\nCompany: %s\n\nNews data:\n%s", sentimentPrompt, companyName, payload)

	text, err := s.completer.GenerateJSON(ctx, prompt, sentimentSchema)
	if err != nil {
		return nil, err
	}

	var report schema.SentimentReport
	if err := schema.Decode(text, &report); err != nil {
		s.logger.ErrorContext(ctx, "synthesizer output failed validation",
			slog.String("company", companyName),
			slog.String("error", err.Error()))
		return nil, apierrors.Wrap(apierrors.KindSchema, err)
	}

	s.logger.InfoContext(ctx, "sentiment synthesized",
		slog.String("company", companyName),
		slog.String("overall", report.OverallSentiment),
		slog.Float64("confidence", report.ConfidenceScore),
		slog.Int("articles_assessed", len(report.ArticleSentiments)))

	return &report, nil
}
