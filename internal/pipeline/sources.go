package pipeline

import (
	"fmt"
	"net/url"
)

// NewsSource is the static configuration for one supported news outlet. The
// URL builder receives the search query and, where the outlet supports it,
// the resolved ticker symbol. Sources are never mutated at runtime.
type NewsSource struct {
	Name       string
	URL        func(query, ticker string) string
	UseStealth bool
}

// DefaultSources is the reference configuration of six news outlets
func DefaultSources() []NewsSource {
	return []NewsSource{
		{
			Name: "Reuters",
			URL: func(q, _ string) string {
				return "https://www.reuters.com/search/news?blob=" + url.QueryEscape(q)
			},
		},
		{
			Name: "Yahoo Finance",
			URL: func(_, ticker string) string {
				if ticker != "" {
					return fmt.Sprintf("https://finance.yahoo.com/quote/%s/news", ticker)
				}
				return "https://finance.yahoo.com/news/?q=" + url.QueryEscape("stocks")
			},
		},
		{
			Name: "CNBC",
			URL: func(q, _ string) string {
				return "https://www.cnbc.com/search/?query=" + url.QueryEscape(q)
			},
		},
		{
			Name: "MarketWatch",
			URL: func(q, _ string) string {
				return "https://www.marketwatch.com/search?q=" + url.QueryEscape(q)
			},
		},
		{
			Name: "Seeking Alpha",
			URL: func(q, _ string) string {
				return "https://seekingalpha.com/search?q=" + url.QueryEscape(q)
			},
			UseStealth: true,
		},
		{
			Name: "BBC Business",
			URL: func(q, _ string) string {
				return "https://www.bbc.com/search?q=" + url.QueryEscape(q+" business")
			},
		},
	}
}
