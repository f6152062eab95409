package report

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/TobiSchelling/StockBoard/internal/sentiment"
)

// Market session bounds, inclusive hours.
const (
	marketOpenHour  = 9
	marketCloseHour = 15
)

// Bucket aggregates the posts sharing one hour, day, weekday, week or session.
type Bucket struct {
	Label        string
	Key          int
	Posts        int
	AvgSentiment float64
	BullishRatio float64

	sum     float64
	bullish int
}

func (b *Bucket) add(p point) {
	b.Posts++
	b.sum += p.score
	if p.stance == sentiment.Bullish {
		b.bullish++
	}
}

func (b *Bucket) finish() {
	if b.Posts == 0 {
		return
	}
	b.AvgSentiment = b.sum / float64(b.Posts)
	b.BullishRatio = float64(b.bullish) / float64(b.Posts)
}

// Summary holds the aggregates of one report window.
type Summary struct {
	Total        int
	AvgSentiment float64
	Volatility   float64
	DailyAverage float64

	Positive, Negative, Neutral int
	BullishPosts, BearishPosts  int
	BullishRatio, BearishRatio  float64
	NeutralRatio                float64
	AfterHours, EarlyMorning    int
	PeakHour, PeakHourPosts     int
	QuietHour, QuietHourPosts   int

	// Trend is the last minus the first bucket average over hours for the
	// market reports and over days otherwise.
	Trend float64

	Hourly   []Bucket
	Daily    []Bucket
	Weekdays []Bucket
	Weeks    []Bucket
	Sessions []Bucket
}

// Chart returns the buckets a report type is charted over.
func (s *Summary) Chart(t Type) []Bucket {
	switch t {
	case Weekly:
		return s.Weekdays
	case Monthly:
		return s.Daily
	}
	return s.Hourly
}

type point struct {
	at     time.Time
	score  float64
	label  string
	stance string
}

// Aggregate summarizes the analyzed posts of window w. Posts whose stored
// date cannot be parsed are skipped.
func Aggregate(w Window, posts []database.WindowPost) *Summary {
	loc := w.Start.Location()
	points := make([]point, 0, len(posts))
	for _, p := range posts {
		at, err := time.ParseInLocation(database.DateLayout, p.Date, loc)
		if err != nil {
			log.Printf("Warning: skipping post %d with bad date %q", p.PostID, p.Date)
			continue
		}
		points = append(points, point{at: at, score: p.SentimentScore, label: p.SentimentLabel, stance: p.Stance})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

	s := &Summary{Total: len(points)}
	if s.Total == 0 {
		return s
	}

	hours := map[int]*Bucket{}
	days := map[int]*Bucket{}
	weekdays := map[int]*Bucket{}
	weeks := map[int]*Bucket{}
	sessions := map[int]*Bucket{}

	var sum float64
	for _, p := range points {
		sum += p.score
		switch p.label {
		case sentiment.Positive:
			s.Positive++
		case sentiment.Negative:
			s.Negative++
		default:
			s.Neutral++
		}
		switch p.stance {
		case sentiment.Bullish:
			s.BullishPosts++
		case sentiment.Bearish:
			s.BearishPosts++
		}

		h := p.at.Hour()
		if h >= 16 {
			s.AfterHours++
		}
		if h <= 8 {
			s.EarlyMorning++
		}

		bucketFor(hours, h, func() string { return fmt.Sprintf("%02d:00", h) }).add(p)

		day := dayKey(p.at)
		bucketFor(days, day, func() string { return p.at.Format("01/02") }).add(p)

		// Weekday keys run Monday=0 to Sunday=6.
		wd := (int(p.at.Weekday()) + 6) % 7
		bucketFor(weekdays, wd, func() string { return p.at.Weekday().String()[:3] }).add(p)

		monday := p.at.AddDate(0, 0, -wd)
		bucketFor(weeks, dayKey(monday), func() string { return monday.Format("01/02") }).add(p)

		session := 1
		if h >= marketOpenHour && h <= marketCloseHour {
			session = 0
		}
		bucketFor(sessions, session, func() string {
			if session == 0 {
				return "Market Hours"
			}
			return "After Hours"
		}).add(p)
	}

	n := float64(s.Total)
	s.AvgSentiment = sum / n
	s.BullishRatio = float64(s.BullishPosts) / n
	s.BearishRatio = float64(s.BearishPosts) / n
	s.NeutralRatio = float64(s.Total-s.BullishPosts-s.BearishPosts) / n
	s.Volatility = stddev(points, s.AvgSentiment)

	span := dayKey(w.End) - dayKey(w.Start) + 1
	if span < 1 {
		span = 1
	}
	s.DailyAverage = n / float64(span)

	s.Hourly = sorted(hours)
	s.Daily = sorted(days)
	s.Weekdays = sorted(weekdays)
	s.Weeks = sorted(weeks)
	s.Sessions = sorted(sessions)

	s.PeakHour, s.PeakHourPosts = s.Hourly[0].Key, s.Hourly[0].Posts
	s.QuietHour, s.QuietHourPosts = s.Hourly[0].Key, s.Hourly[0].Posts
	for _, b := range s.Hourly[1:] {
		if b.Posts > s.PeakHourPosts {
			s.PeakHour, s.PeakHourPosts = b.Key, b.Posts
		}
		if b.Posts < s.QuietHourPosts {
			s.QuietHour, s.QuietHourPosts = b.Key, b.Posts
		}
	}

	trend := s.Daily
	if w.Type == PreMarket || w.Type == PostMarket {
		trend = s.Hourly
	}
	if len(trend) > 1 {
		s.Trend = trend[len(trend)-1].AvgSentiment - trend[0].AvgSentiment
	}
	return s
}

func bucketFor(m map[int]*Bucket, key int, label func() string) *Bucket {
	b, ok := m[key]
	if !ok {
		b = &Bucket{Key: key, Label: label()}
		m[key] = b
	}
	return b
}

func sorted(m map[int]*Bucket) []Bucket {
	out := make([]Bucket, 0, len(m))
	for _, b := range m {
		b.finish()
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// dayKey numbers calendar days so that consecutive days differ by one.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// stddev is the sample standard deviation of the scores.
func stddev(points []point, mean float64) float64 {
	if len(points) < 2 {
		return 0
	}
	var ss float64
	for _, p := range points {
		d := p.score - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(points)-1))
}
