package pipeline

import (
	"context"
	"log/slog"

	apierrors "sentipulse/internal/errors"
	"sentipulse/internal/schema"
)

// Completer is the structured-extraction completion service. It accepts a
// natural-language instruction plus a target JSON shape and returns raw text.
type Completer interface {
	GenerateJSON(ctx context.Context, prompt string, responseSchema map[string]any) (string, error)
	IsConfigured() bool
}

// SectorResolver maps a free-text company or ticker input to a validated
// CompanyProfile via a single completion call. There is no fallback company
// resolution: any failure here aborts the whole pipeline.
type SectorResolver struct {
	completer Completer
	logger    *slog.Logger
}

// NewSectorResolver creates a new sector resolver
func NewSectorResolver(completer Completer, logger *slog.Logger) *SectorResolver {
	return &SectorResolver{
		completer: completer,
		logger:    logger.With(slog.String("component", "sector_resolver")),
	}
}

// sectorSchema is the declared response shape for the resolver call
var sectorSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"company_name": map[string]any{"type": "string", "description": "Legal or common company name"},
		"ticker":       map[string]any{"type": "string", "description": "Primary exchange symbol"},
		"sector":       map[string]any{"type": "string", "description": "e.g. Technology, Healthcare"},
		"industry":     map[string]any{"type": "string", "description": "e.g. Software, Pharmaceuticals"},
		"competitors": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"minItems":    1,
			"maxItems":    10,
			"description": "Direct competitor company names",
		},
		"related_keywords": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"maxItems":    8,
			"description": "Sector/industry terms for news search",
		},
	},
	"required": []string{"company_name", "ticker", "sector", "competitors", "related_keywords"},
}

// Resolve runs the resolution call and validates its output. A schema
// violation here is an extraction-service fault, not a user-input fault, and
// is classified accordingly.
func (r *SectorResolver) Resolve(ctx context.Context, stockInput string) (*schema.CompanyProfile, error) {
	if !r.completer.IsConfigured() {
		return nil, apierrors.New(apierrors.KindConfiguration, "GEMINI_API_KEY is required")
	}

	prompt := sectorPrompt + "\n\nStock or company: " + stockInput

	text, err := r.completer.GenerateJSON(ctx, prompt, sectorSchema)
	if err != nil {
		return nil, err
	}

	var profile schema.CompanyProfile
	if err := schema.Decode(text, &profile); err != nil {
		r.logger.ErrorContext(ctx, "resolver output failed validation",
			slog.String("input", stockInput),
			slog.String("error", err.Error()))
		return nil, apierrors.Wrap(apierrors.KindSchema, err)
	}

	r.logger.InfoContext(ctx, "company resolved",
		slog.String("company", profile.CompanyName),
		slog.String("ticker", profile.Ticker),
		slog.String("sector", profile.Sector),
		slog.Int("competitors", len(profile.Competitors)))

	return &profile, nil
}
