package schema

// Automation results arrive with case- and alias-variant field names depending
// on what the browser agent decided to emit. The alias tables below are the
// single place that knowledge lives; downstream consumers only ever see the
// canonical ScrapedArticle shape.

var articleListAliases = []string{"articles", "Articles"}

var articleFieldAliases = map[string][]string{
	"title":          {"title", "Title"},
	"summary":        {"summary", "Summary"},
	"url":            {"url", "URL", "link"},
	"published_date": {"published_date", "publishedDate"},
}

// NormalizeSourceResult reconciles a raw automation payload into the canonical
// SourceNewsResult shape. Articles missing a title or url are kept with empty
// strings rather than dropped; only a payload with no article list at all
// yields an empty result.
func NormalizeSourceResult(raw map[string]any, sourceName string) SourceNewsResult {
	result := SourceNewsResult{Source: sourceName, Articles: []ScrapedArticle{}}

	var list []any
	for _, key := range articleListAliases {
		if v, ok := raw[key]; ok {
			if arr, ok := v.([]any); ok {
				list = arr
				break
			}
		}
	}

	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		result.Articles = append(result.Articles, normalizeArticle(obj))
	}

	return result
}

// normalizeArticle maps one raw article object to the canonical shape
func normalizeArticle(obj map[string]any) ScrapedArticle {
	return ScrapedArticle{
		Title:         aliasString(obj, "title"),
		Summary:       aliasStringPtr(obj, "summary"),
		URL:           aliasString(obj, "url"),
		PublishedDate: aliasStringPtr(obj, "published_date"),
	}
}

// aliasString returns the first non-empty value for any alias of the
// canonical field, or "" if none is present.
func aliasString(obj map[string]any, canonical string) string {
	for _, alias := range articleFieldAliases[canonical] {
		if v, ok := obj[alias]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// aliasStringPtr is aliasString for optional fields: absent or empty maps to nil
func aliasStringPtr(obj map[string]any, canonical string) *string {
	if s := aliasString(obj, canonical); s != "" {
		return &s
	}
	return nil
}

// stringify converts a raw JSON scalar to a string without inventing values
// for composite types.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return ""
	}
}
