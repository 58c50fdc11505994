package pipeline

import "fmt"

// sectorPrompt instructs the completion service to resolve a free-text stock
// input into the CompanyProfile shape.
const sectorPrompt = `You are a financial research assistant. Given a stock ticker or company name, return ONLY valid JSON matching the schema. Use your knowledge of public companies: company_name (legal/common name), ticker (primary exchange symbol), sector (e.g. Technology, Healthcare), industry (e.g. Software), competitors (direct competitors, 3-8 names), related_keywords (sector/industry terms for news search). Be precise and factual. No extra text.`

// sentimentPrompt instructs the completion service to judge aggregate
// sentiment over the scraped news corpus.
const sentimentPrompt = `You are an investment analyst. You will receive JSON with news articles from multiple sources about a company, its competitors, and sector. Analyze sentiment and return ONLY valid JSON matching the schema. overall_sentiment: aggregate (bullish/bearish/neutral/mixed). confidence_score: 0-1 based on article volume and agreement. summary: 2-4 sentence executive summary. key_themes: main topics. article_sentiments: one entry per article with sentiment and relevance (0-1). risk_factors and opportunities: concise bullet points from the news. Be objective. No extra text.`

// buildNewsGoal renders the extraction goal for one automation run against a
// news source search page.
func buildNewsGoal(query, sourceName string) string {
	return fmt.Sprintf(`Search for news about %q. Extract the first 5 articles. For each: title (string), summary (1-2 sentences or null), url (full URL), published_date (ISO string or null). If a cookie/consent banner appears, close it first. Do not click into article detail pages. Return JSON: { "source": %q, "articles": [ { "title": "", "summary": "", "url": "", "published_date": "" } ] }`, query, sourceName)
}
