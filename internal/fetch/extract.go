package fetch

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/StockBoard/internal/config"
)

// Strategy is one step of the extraction chain. Extract reports false when it
// found nothing usable so the next strategy runs.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document) (string, bool)
}

// DefaultStrategies returns the extraction chain in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "body_table", Extract: fromBodyTable},
		{Name: "selector", Extract: fromSelectors},
		{Name: "table_score", Extract: fromScoredTableCells},
		{Name: "styled_cell", Extract: fromStyledCells},
		{Name: "best_cell", Extract: fromBestCell},
		{Name: "readability", Extract: fromReadability},
	}
}

// Extractor recovers post bodies from detail pages.
type Extractor struct {
	client     *Client
	strategies []Strategy
}

// NewExtractor creates an extractor using the default strategy chain.
func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client, strategies: DefaultStrategies()}
}

// Extract fetches link and returns its post body. Every failure is logged
// and yields "".
func (e *Extractor) Extract(ctx context.Context, link string) string {
	if link == "" {
		return ""
	}
	doc, err := e.client.Document(ctx, link)
	if err != nil {
		log.Printf("Failed to fetch post content %s: %v", link, err)
		return ""
	}
	text, name := e.ExtractDocument(doc)
	if text == "" {
		config.Debugf("no content extracted from %s", link)
		return ""
	}
	config.Debugf("extracted %d chars from %s via %s", runeLen(text), link, name)
	return text
}

// ExtractDocument runs the chain over an already parsed page and returns the
// body with the name of the strategy that produced it.
func (e *Extractor) ExtractDocument(doc *goquery.Document) (string, string) {
	for _, s := range e.strategies {
		if text, ok := s.Extract(doc); ok {
			return strings.TrimSpace(text), s.Name
		}
	}
	return "", ""
}

func fromBodyTable(doc *goquery.Document) (string, bool) {
	table := doc.Find(`table[summary="게시판 글 본문보기"]`).First()
	if table.Length() == 0 {
		return "", false
	}
	filter := lineFilter{tokens: bodyTableLineTokens, dropNumeric: true, dropMeta: true}

	var content string
	table.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		text := NodeText(td)
		if runeLen(text) <= 5 || !hasHangul(text) || containsAny(text, bodyTableHeaderTokens) {
			return true
		}
		if cleaned := filter.apply(text); runeLen(cleaned) > 5 {
			content = cleaned
			return false
		}
		return true
	})
	return content, content != ""
}

func fromSelectors(doc *goquery.Document) (string, bool) {
	filter := lineFilter{tokens: tableLineTokens, dropNumeric: true}
	for _, sel := range bodySelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if text := filter.apply(NodeText(el)); runeLen(text) > 10 {
			return text, true
		}
	}
	return "", false
}

func fromScoredTableCells(doc *goquery.Document) (string, bool) {
	filter := lineFilter{tokens: tableLineTokens, dropNumeric: true}
	best, bestScore := "", -1.0

	doc.Find("table tr td").Each(func(_ int, td *goquery.Selection) {
		text := NodeText(td)
		if runeLen(text) <= 5 || !hasHangul(text) || containsAny(text, tableNavTokens) {
			return
		}
		cleaned := filter.apply(text)
		if cleaned == "" {
			return
		}
		if score := hangulRatio(cleaned) * float64(runeLen(cleaned)); score > bestScore {
			best, bestScore = cleaned, score
		}
	})

	if runeLen(best) > 5 {
		return best, true
	}
	return "", false
}

func fromStyledCells(doc *goquery.Document) (string, bool) {
	filter := lineFilter{tokens: styledLineTokens}

	var content string
	doc.Find("td[style]").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		style := td.AttrOr("style", "")
		if !strings.Contains(style, "padding") && !strings.Contains(style, "height") {
			return true
		}
		text := NodeText(td)
		if runeLen(text) <= 5 || !hasHangul(text) {
			return true
		}
		if cleaned := filter.apply(text); runeLen(cleaned) > 5 {
			content = cleaned
			return false
		}
		return true
	})
	return content, content != ""
}

func fromBestCell(doc *goquery.Document) (string, bool) {
	best, bestScore := "", 0.0

	doc.Find("td").Each(func(_ int, td *goquery.Selection) {
		text := NodeText(td)
		if runeLen(text) <= 5 || !hasHangul(text) {
			return
		}
		if containsAny(firstRunes(text, 50), leadNavTokens) || isNumeric(text) {
			return
		}
		if score := hangulRatio(text) * float64(runeLen(text)); score > bestScore {
			best, bestScore = text, score
		}
	})
	if best == "" {
		return "", false
	}

	filter := lineFilter{tokens: fallbackLineTokens, dropNumeric: true}
	cleaned := filter.apply(best)
	return cleaned, cleaned != ""
}

// fromReadability handles pages outside the board's table layout. Chrome
// lines are filtered out and only substantial Korean text is accepted.
func fromReadability(doc *goquery.Document) (string, bool) {
	if doc.Url == nil {
		return "", false
	}
	raw, err := doc.Html()
	if err != nil {
		return "", false
	}
	article, err := readability.FromReader(strings.NewReader(raw), doc.Url)
	if err != nil {
		return "", false
	}
	filter := lineFilter{tokens: tableLineTokens, dropNumeric: true}
	text := filter.apply(article.TextContent)
	if runeLen(text) <= 100 || !hasHangul(text) {
		return "", false
	}
	return text, true
}
