package sentiment

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// Lexicon holds the keyword tables the classifier matches against.
type Lexicon struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Bullish  []string `yaml:"bullish"`
	Bearish  []string `yaml:"bearish"`
	Risk     []string `yaml:"risk"`
}

// ParseLexicon reads keyword tables from YAML.
func ParseLexicon(data []byte) (Lexicon, error) {
	var l Lexicon
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Lexicon{}, fmt.Errorf("parsing lexicon: %w", err)
	}
	return l, nil
}

// DefaultLexicon returns the built-in keyword tables.
func DefaultLexicon() Lexicon {
	l, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(err)
	}
	return l
}

// Override replaces every table for which o has a non-empty list.
func (l Lexicon) Override(o Lexicon) Lexicon {
	pick := func(base, over []string) []string {
		if len(over) > 0 {
			return over
		}
		return base
	}
	return Lexicon{
		Positive: pick(l.Positive, o.Positive),
		Negative: pick(l.Negative, o.Negative),
		Bullish:  pick(l.Bullish, o.Bullish),
		Bearish:  pick(l.Bearish, o.Bearish),
		Risk:     pick(l.Risk, o.Risk),
	}
}
