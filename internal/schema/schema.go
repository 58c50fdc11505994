// Package schema defines the typed records exchanged between pipeline stages
// and the validation gate that protects them from malformed structured-
// extraction output. Validation is strict: out-of-range values fail the whole
// extraction call, they are never clamped.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CompanyProfile is the resolver's output: company identity, sector,
// competitors and keyword list. Produced once per run, immutable thereafter.
type CompanyProfile struct {
	CompanyName     string   `json:"company_name" validate:"required"`
	Ticker          string   `json:"ticker" validate:"required"`
	Sector          string   `json:"sector" validate:"required"`
	Industry        string   `json:"industry,omitempty"`
	Competitors     []string `json:"competitors" validate:"required,min=1,max=10"`
	RelatedKeywords []string `json:"related_keywords" validate:"max=8"`
}

// ScrapedArticle is one normalized article from an automation run
type ScrapedArticle struct {
	Title         string  `json:"title"`
	Summary       *string `json:"summary"`
	URL           string  `json:"url"`
	PublishedDate *string `json:"published_date"`
}

// SourceNewsResult is the surviving article set for one source
type SourceNewsResult struct {
	Source   string           `json:"source"`
	Articles []ScrapedArticle `json:"articles"`
}

// ArticleSentiment is the synthesizer's per-article judgment
type ArticleSentiment struct {
	Title     string  `json:"title" validate:"required"`
	Source    string  `json:"source" validate:"required"`
	Sentiment string  `json:"sentiment" validate:"required,oneof=positive neutral negative"`
	Relevance float64 `json:"relevance" validate:"min=0,max=1"`
}

// SentimentReport is the terminal artifact of a pipeline run
type SentimentReport struct {
	OverallSentiment  string             `json:"overall_sentiment" validate:"required,oneof=bullish bearish neutral mixed"`
	ConfidenceScore   float64            `json:"confidence_score" validate:"min=0,max=1"`
	Summary           string             `json:"summary" validate:"required"`
	KeyThemes         []string           `json:"key_themes" validate:"max=5"`
	ArticleSentiments []ArticleSentiment `json:"article_sentiments" validate:"dive"`
	RiskFactors       []string           `json:"risk_factors,omitempty" validate:"omitempty,max=5"`
	Opportunities     []string           `json:"opportunities,omitempty" validate:"omitempty,max=5"`
}

// Violation reports the first field that failed validation
type Violation struct {
	Field string
	Rule  string
}

// Error implements the error interface
func (v *Violation) Error() string {
	return fmt.Sprintf("schema violation: field %q failed rule %q", v.Field, v.Rule)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator configured to report JSON
// field names in violations.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks a value against its declared shape. The value is not
// mutated; validating an already-valid value is a no-op.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &Violation{Field: fieldPath(fe), Rule: fe.Tag()}
	}
	return &Violation{Field: "unknown", Rule: err.Error()}
}

// Decode parses completion-service text into v and validates the result.
// Markdown code fences around the JSON payload are tolerated.
func Decode(text string, v any) error {
	text = StripCodeFences(text)
	if text == "" {
		return &Violation{Field: "body", Rule: "empty"}
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return &Violation{Field: "body", Rule: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return Validate(v)
}

// StripCodeFences removes a surrounding markdown code block, if present
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}

// fieldPath strips the leading struct name from a validator namespace so the
// violation reports the JSON path ("competitors", "article_sentiments[2].relevance").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}
