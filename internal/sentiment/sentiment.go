// Package sentiment scores board posts by keyword containment.
package sentiment

import (
	"math"
	"strings"
)

// Sentiment labels.
const (
	Positive = "positive"
	Negative = "negative"
	Neutral  = "neutral"
)

// Stances.
const (
	Bullish = "bullish"
	Bearish = "bearish"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

const (
	labelThreshold  = 0.2
	confidenceScale = 10.0
	maxKeywords     = 10
)

// Result is the classification of one text.
type Result struct {
	Score      float64  // (pos-neg)/(pos+neg), 0 when nothing matched
	Label      string   // Positive, Negative or Neutral
	Confidence float64  // min(matches/10, 1)
	Keywords   []string // matched positive then negative keywords, at most 10
	Stance     string   // Bullish, Bearish or Neutral
	Risk       string   // RiskLow, RiskMedium or RiskHigh
}

// NeutralResult is the result for text with no signal.
func NeutralResult() Result {
	return Result{Label: Neutral, Keywords: []string{}, Stance: Neutral, Risk: RiskLow}
}

// Classifier applies a Lexicon to text. It is stateless and safe for
// concurrent use.
type Classifier struct {
	lex Lexicon
}

// New creates a classifier for lex.
func New(lex Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Classify scores text. Each keyword counts once when text contains it,
// regardless of how often it occurs.
func (c *Classifier) Classify(text string) Result {
	if text == "" {
		return NeutralResult()
	}
	r := NeutralResult()

	pos := matches(text, c.lex.Positive)
	neg := matches(text, c.lex.Negative)
	total := len(pos) + len(neg)
	if total > 0 {
		score := float64(len(pos)-len(neg)) / float64(total)
		r.Score = round4(score)
		r.Confidence = round4(math.Min(float64(total)/confidenceScale, 1))
		switch {
		case score > labelThreshold:
			r.Label = Positive
		case score < -labelThreshold:
			r.Label = Negative
		}
	}

	kw := append(pos, neg...)
	if len(kw) > maxKeywords {
		kw = kw[:maxKeywords]
	}
	r.Keywords = kw

	bull := len(matches(text, c.lex.Bullish))
	bear := len(matches(text, c.lex.Bearish))
	switch {
	case bull > bear:
		r.Stance = Bullish
	case bear > bull:
		r.Stance = Bearish
	}

	switch risk := len(matches(text, c.lex.Risk)); {
	case risk >= 3:
		r.Risk = RiskHigh
	case risk >= 1:
		r.Risk = RiskMedium
	}
	return r
}

// matches returns the keywords contained in text, in list order.
func matches(text string, keywords []string) []string {
	out := []string{}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
