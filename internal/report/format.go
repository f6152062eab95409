package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Format renders the textual summary printed after a report is generated.
func (r *Report) Format() string {
	var b strings.Builder
	s := r.Summary
	t := r.Window.Type

	fmt.Fprintf(&b, "=== %s ===\n", t.Title())
	fmt.Fprintf(&b, "Window: %s (%s)\n", r.Window.Label, r.Window)
	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "  Total Posts:       %s\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(&b, "  Average Sentiment: %.4f\n", s.AvgSentiment)
	fmt.Fprintf(&b, "  Bullish Ratio:     %s\n", percent(s.BullishRatio))

	switch t {
	case PreMarket:
		fmt.Fprintf(&b, "  After Hours Posts (16-23h):  %d\n", s.AfterHours)
		fmt.Fprintf(&b, "  Early Morning Posts (0-8h):  %d\n", s.EarlyMorning)

	case PostMarket:
		fmt.Fprintf(&b, "  Peak Hour:         %02d:00 (%d posts)\n", s.PeakHour, s.PeakHourPosts)
		fmt.Fprintf(&b, "  Sentiment Trend:   %s (%+.4f)\n", trendWord(s.Trend), s.Trend)
		b.WriteString("\nHourly Breakdown:\n")
		writeBuckets(&b, s.Hourly)

	case Weekly:
		fmt.Fprintf(&b, "  Sentiment Trend:   %s (%+.4f)\n", trendWord(s.Trend), s.Trend)
		b.WriteString("\nBy Weekday:\n")
		writeBuckets(&b, s.Weekdays)
		b.WriteString("\nBy Session:\n")
		writeBuckets(&b, s.Sessions)

	case Monthly:
		fmt.Fprintf(&b, "  Bearish Ratio:     %s\n", percent(s.BearishRatio))
		fmt.Fprintf(&b, "  Neutral Ratio:     %s\n", percent(s.NeutralRatio))
		fmt.Fprintf(&b, "  Daily Average:     %.1f posts/day\n", s.DailyAverage)
		fmt.Fprintf(&b, "  Sentiment Trend:   %s (%+.4f)\n", trendWord(s.Trend), s.Trend)
		fmt.Fprintf(&b, "  Volatility:        %.4f\n", s.Volatility)
		fmt.Fprintf(&b, "  Peak Hour:         %02d:00 (%d posts)\n", s.PeakHour, s.PeakHourPosts)
		fmt.Fprintf(&b, "  Quiet Hour:        %02d:00 (%d posts)\n", s.QuietHour, s.QuietHourPosts)
		b.WriteString("\nBy Week:\n")
		writeBuckets(&b, s.Weeks)
		b.WriteString("\nBy Session:\n")
		writeBuckets(&b, s.Sessions)
	}

	fmt.Fprintf(&b, "\nSentiment: %d positive, %d negative, %d neutral\n", s.Positive, s.Negative, s.Neutral)
	if r.Path != "" {
		fmt.Fprintf(&b, "Chart: %s\n", r.Path)
	}
	return b.String()
}

func writeBuckets(b *strings.Builder, buckets []Bucket) {
	for _, bk := range buckets {
		fmt.Fprintf(b, "  %-12s | Posts: %4d | Sentiment: %6.3f | Bullish: %s\n",
			bk.Label, bk.Posts, bk.AvgSentiment, percent(bk.BullishRatio))
	}
}

func percent(ratio float64) string {
	return humanize.FtoaWithDigits(ratio*100, 1) + "%"
}

func trendWord(delta float64) string {
	if delta > 0 {
		return "Improving"
	}
	return "Declining"
}
