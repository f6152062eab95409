package collect

import (
	"testing"
	"time"
)

func fixedParser(now time.Time) *DateParser {
	p := NewDateParser(now.Location())
	p.now = func() time.Time { return now }
	return p
}

func TestParseDateRules(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, seoul)
	p := fixedParser(now)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"12.29", time.Date(2025, 12, 29, 0, 0, 0, 0, seoul)},
		{" 01.05 ", time.Date(2025, 1, 5, 0, 0, 0, 0, seoul)},
		{"2024.12.29", time.Date(2024, 12, 29, 0, 0, 0, 0, seoul)},
		{"2024.12.29 10:11", time.Date(2024, 12, 29, 10, 11, 0, 0, seoul)},
		{"12/29", time.Date(2025, 12, 29, 0, 0, 0, 0, seoul)},
		{"오늘", time.Date(2025, 3, 10, 0, 0, 0, 0, seoul)},
		{"어제", time.Date(2025, 3, 9, 0, 0, 0, 0, seoul)},
		{"today", time.Date(2025, 3, 10, 0, 0, 0, 0, seoul)},
		{"Yesterday", time.Date(2025, 3, 9, 0, 0, 0, 0, seoul)},
		{" TODAY ", time.Date(2025, 3, 10, 0, 0, 0, 0, seoul)},
		{"2024-06-01 08:00:00", time.Date(2024, 6, 1, 8, 0, 0, 0, seoul)},
	}
	for _, tt := range tests {
		got, ok := p.Parse(tt.in)
		if !ok {
			t.Errorf("Parse(%q) failed", tt.in)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDateMonthDayUsesCurrentYear(t *testing.T) {
	for _, year := range []int{2019, 2024, 2031} {
		p := fixedParser(time.Date(year, 7, 1, 12, 0, 0, 0, time.UTC))
		got, ok := p.Parse("12.29")
		if !ok {
			t.Fatalf("Parse failed for year %d", year)
		}
		if got.Year() != year || got.Month() != time.December || got.Day() != 29 {
			t.Errorf("year %d: got %v", year, got)
		}
	}
}

func TestParseDateFailures(t *testing.T) {
	p := fixedParser(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	for _, in := range []string{"", "13.45", "2024.02.30", "not a date", "내일"} {
		if got, ok := p.Parse(in); ok {
			t.Errorf("Parse(%q) = %v, expected failure", in, got)
		}
	}
}
