package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSourceResult(t *testing.T) {
	t.Run("lowercase aliases", func(t *testing.T) {
		raw := map[string]any{
			"articles": []any{
				map[string]any{
					"title":          "Apple hits record high",
					"summary":        "Shares rallied.",
					"url":            "https://example.com/a",
					"published_date": "2026-08-29",
				},
			},
		}
		got := NormalizeSourceResult(raw, "Reuters")
		require.Len(t, got.Articles, 1)
		assert.Equal(t, "Reuters", got.Source)
		assert.Equal(t, "Apple hits record high", got.Articles[0].Title)
		require.NotNil(t, got.Articles[0].Summary)
		assert.Equal(t, "Shares rallied.", *got.Articles[0].Summary)
		require.NotNil(t, got.Articles[0].PublishedDate)
		assert.Equal(t, "2026-08-29", *got.Articles[0].PublishedDate)
	})

	t.Run("capitalized aliases", func(t *testing.T) {
		raw := map[string]any{
			"Articles": []any{
				map[string]any{
					"Title":         "Apple hits record high",
					"Summary":       "Shares rallied.",
					"link":          "https://example.com/a",
					"publishedDate": "2026-08-29",
				},
			},
		}
		got := NormalizeSourceResult(raw, "Reuters")
		require.Len(t, got.Articles, 1)
		assert.Equal(t, "Apple hits record high", got.Articles[0].Title)
		assert.Equal(t, "https://example.com/a", got.Articles[0].URL)
		require.NotNil(t, got.Articles[0].PublishedDate)
	})

	t.Run("alias variants converge", func(t *testing.T) {
		lower := map[string]any{
			"articles": []any{
				map[string]any{"title": "T", "summary": "S", "url": "U", "published_date": "D"},
			},
		}
		upper := map[string]any{
			"Articles": []any{
				map[string]any{"Title": "T", "Summary": "S", "URL": "U", "publishedDate": "D"},
			},
		}
		assert.Equal(t,
			NormalizeSourceResult(lower, "CNBC"),
			NormalizeSourceResult(upper, "CNBC"))
	})

	t.Run("missing optional fields map to nil", func(t *testing.T) {
		raw := map[string]any{
			"articles": []any{
				map[string]any{"title": "T", "url": "U"},
			},
		}
		got := NormalizeSourceResult(raw, "BBC Business")
		require.Len(t, got.Articles, 1)
		assert.Nil(t, got.Articles[0].Summary)
		assert.Nil(t, got.Articles[0].PublishedDate)
	})

	t.Run("missing title and url kept as empty strings", func(t *testing.T) {
		raw := map[string]any{
			"articles": []any{
				map[string]any{"summary": "orphaned"},
			},
		}
		got := NormalizeSourceResult(raw, "MarketWatch")
		require.Len(t, got.Articles, 1)
		assert.Empty(t, got.Articles[0].Title)
		assert.Empty(t, got.Articles[0].URL)
	})

	t.Run("no article list yields empty result", func(t *testing.T) {
		got := NormalizeSourceResult(map[string]any{"status": "DONE"}, "Yahoo Finance")
		assert.Empty(t, got.Articles)
		assert.NotNil(t, got.Articles)
	})

	t.Run("non-object entries are skipped", func(t *testing.T) {
		raw := map[string]any{
			"articles": []any{"just a string", map[string]any{"title": "T", "url": "U"}},
		}
		got := NormalizeSourceResult(raw, "Seeking Alpha")
		require.Len(t, got.Articles, 1)
		assert.Equal(t, "T", got.Articles[0].Title)
	})

	t.Run("non-string scalars are not stringified", func(t *testing.T) {
		raw := map[string]any{
			"articles": []any{
				map[string]any{"title": 42, "url": "U"},
			},
		}
		got := NormalizeSourceResult(raw, "CNBC")
		require.Len(t, got.Articles, 1)
		assert.Empty(t, got.Articles[0].Title)
	})
}
