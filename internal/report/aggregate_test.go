package report

import (
	"math"
	"testing"

	"github.com/TobiSchelling/StockBoard/internal/database"
)

func wp(date, label, stance string, score float64) database.WindowPost {
	return database.WindowPost{Date: date, SentimentLabel: label, Stance: stance, SentimentScore: score}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAggregate(t *testing.T) {
	w, _ := ComputeWindow(Weekly, day(2024, 1, 10), stamp(2024, 1, 10, 0, 0, 0), kst)
	posts := []database.WindowPost{
		wp("2024-01-08 09:10:00", "positive", "bullish", 1),
		wp("2024-01-08 09:40:00", "negative", "bearish", -1),
		wp("2024-01-08 20:00:00", "neutral", "neutral", 0),
		wp("2024-01-09 09:05:00", "positive", "bullish", 0.5),
	}

	s := Aggregate(w, posts)
	if s.Total != 4 {
		t.Fatalf("expected 4 posts, got %d", s.Total)
	}
	if !approx(s.AvgSentiment, 0.125) {
		t.Errorf("AvgSentiment = %v", s.AvgSentiment)
	}
	if s.Positive != 2 || s.Negative != 1 || s.Neutral != 1 {
		t.Errorf("distribution = %d/%d/%d", s.Positive, s.Negative, s.Neutral)
	}
	if !approx(s.BullishRatio, 0.5) || !approx(s.BearishRatio, 0.25) || !approx(s.NeutralRatio, 0.25) {
		t.Errorf("ratios = %v/%v/%v", s.BullishRatio, s.BearishRatio, s.NeutralRatio)
	}
	if s.PeakHour != 9 || s.PeakHourPosts != 3 {
		t.Errorf("peak = %d (%d)", s.PeakHour, s.PeakHourPosts)
	}
	if s.QuietHour != 20 || s.QuietHourPosts != 1 {
		t.Errorf("quiet = %d (%d)", s.QuietHour, s.QuietHourPosts)
	}
	if s.AfterHours != 1 || s.EarlyMorning != 0 {
		t.Errorf("after hours %d, early morning %d", s.AfterHours, s.EarlyMorning)
	}

	if len(s.Daily) != 2 || s.Daily[0].Label != "01/08" || s.Daily[0].Posts != 3 {
		t.Errorf("unexpected daily buckets %+v", s.Daily)
	}
	// Daily trend: 0.5 - 0.0
	if !approx(s.Trend, 0.5) {
		t.Errorf("Trend = %v", s.Trend)
	}
	if len(s.Weekdays) != 2 || s.Weekdays[0].Label != "Mon" || s.Weekdays[1].Label != "Tue" {
		t.Errorf("unexpected weekday buckets %+v", s.Weekdays)
	}
	if len(s.Weeks) != 1 || s.Weeks[0].Label != "01/08" {
		t.Errorf("unexpected week buckets %+v", s.Weeks)
	}
	if len(s.Sessions) != 2 || s.Sessions[0].Label != "Market Hours" || s.Sessions[0].Posts != 3 {
		t.Errorf("unexpected sessions %+v", s.Sessions)
	}
	if !approx(s.Sessions[0].BullishRatio, 2.0/3.0) {
		t.Errorf("market session bullish ratio = %v", s.Sessions[0].BullishRatio)
	}
	if s.Volatility <= 0 {
		t.Errorf("expected positive volatility, got %v", s.Volatility)
	}
	if !approx(s.DailyAverage, 0.5) {
		t.Errorf("DailyAverage = %v over an 8 day window", s.DailyAverage)
	}

	if got := s.Chart(Weekly); len(got) != len(s.Weekdays) {
		t.Error("weekly chart should use weekday buckets")
	}
	if got := s.Chart(PostMarket); len(got) != len(s.Hourly) {
		t.Error("post market chart should use hourly buckets")
	}
}

func TestAggregateHourlyTrend(t *testing.T) {
	w, _ := ComputeWindow(PostMarket, day(2024, 1, 8), stamp(2024, 1, 8, 0, 0, 0), kst)
	s := Aggregate(w, []database.WindowPost{
		wp("2024-01-08 09:00:00", "negative", "bearish", -0.5),
		wp("2024-01-08 12:00:00", "neutral", "neutral", 0),
		wp("2024-01-08 15:30:00", "positive", "bullish", 1),
	})
	if !approx(s.Trend, 1.5) {
		t.Errorf("Trend = %v, want 1.5", s.Trend)
	}
}

func TestAggregateSkipsBadDates(t *testing.T) {
	w, _ := ComputeWindow(PostMarket, day(2024, 1, 8), stamp(2024, 1, 8, 0, 0, 0), kst)
	s := Aggregate(w, []database.WindowPost{wp("yesterday", "positive", "bullish", 1)})
	if s.Total != 0 || s.Hourly != nil {
		t.Errorf("expected empty summary, got %+v", s)
	}
}
