package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/dustin/go-humanize"
)

// DailySummary renders per-day sentiment counts and the most frequent
// keywords for the last days calendar days.
func (g *Generator) DailySummary(days, topN int) (string, error) {
	if days <= 0 {
		days = 7
	}
	now := g.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.loc).AddDate(0, 0, -days)

	summary, err := g.db.GetDailySummary(g.stockCode, since)
	if err != nil {
		return "", err
	}
	keywords, err := g.db.GetKeywordCounts(g.stockCode, since, topN)
	if err != nil {
		return "", err
	}
	return formatDailySummary(g.stockCode, days, summary, keywords), nil
}

func formatDailySummary(stock string, days int, summary []database.DaySummary, keywords []database.KeywordCount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s analysis summary (last %d days) ===\n", stock, days)
	if len(summary) == 0 {
		b.WriteString("No analyzed posts in this period.\n")
		return b.String()
	}

	var total, pos, neg, neu, bull, bear int
	var scoreSum float64
	for _, d := range summary {
		total += d.Total
		pos += d.Positive
		neg += d.Negative
		neu += d.Neutral
		bull += d.Bullish
		bear += d.Bearish
		scoreSum += d.AvgSentiment
	}
	share := func(n int) string { return percent(float64(n) / float64(total)) }

	fmt.Fprintf(&b, "\nTotals:\n")
	fmt.Fprintf(&b, "  Analyzed posts: %s\n", humanize.Comma(int64(total)))
	fmt.Fprintf(&b, "  Positive: %d (%s)\n", pos, share(pos))
	fmt.Fprintf(&b, "  Negative: %d (%s)\n", neg, share(neg))
	fmt.Fprintf(&b, "  Neutral:  %d (%s)\n", neu, share(neu))
	fmt.Fprintf(&b, "  Bullish:  %d (%s)\n", bull, share(bull))
	fmt.Fprintf(&b, "  Bearish:  %d (%s)\n", bear, share(bear))
	// Mean of daily means, not weighted by post count.
	fmt.Fprintf(&b, "  Average sentiment: %.3f\n", scoreSum/float64(len(summary)))

	b.WriteString("\nDaily:\n")
	for _, d := range summary {
		var posRatio, bullRatio float64
		if d.Total > 0 {
			posRatio = float64(d.Positive) / float64(d.Total)
			bullRatio = float64(d.Bullish) / float64(d.Total)
		}
		fmt.Fprintf(&b, "  %s: positive %s, bullish %s (%d posts)\n", d.Day, percent(posRatio), percent(bullRatio), d.Total)
	}

	if len(keywords) > 0 {
		b.WriteString("\nTop keywords:\n")
		for i, k := range keywords {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "  %2d. %s: %d\n", i+1, k.Keyword, k.Count)
		}
	}
	return b.String()
}
