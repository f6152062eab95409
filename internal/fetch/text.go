package fetch

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	leadingDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}`)
	maskedIPRe    = regexp.MustCompile(`^\d+\.\d+\.\*\*\*\.\d+`)
)

// NodeText joins the trimmed, non-empty text nodes under the selection with
// newlines. Script, style and comment content is ignored.
func NodeText(s *goquery.Selection) string {
	return strings.Join(textNodes(s), "\n")
}

// FlatText is NodeText without separators, the form listing cells use.
func FlatText(s *goquery.Selection) string {
	return strings.Join(textNodes(s), "")
}

func textNodes(s *goquery.Selection) []string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return parts
}

// DirectText returns the first non-blank text node that is a direct child of
// the selection's first node, trimmed.
func DirectText(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	for c := s.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if t := strings.TrimSpace(c.Data); t != "" {
			return t, true
		}
	}
	return "", false
}

// runeLen counts characters, not bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func isHangul(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}

func hasHangul(s string) bool {
	return strings.IndexFunc(s, isHangul) >= 0
}

// hangulRatio is the share of Hangul syllables among characters other than
// spaces and newlines.
func hangulRatio(s string) float64 {
	hangul, total := 0, 0
	for _, r := range s {
		if isHangul(r) {
			hangul++
		}
		if r != ' ' && r != '\n' {
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hangul) / float64(total)
}

// isNumeric reports whether s is only digits once thousands separators and
// dots are removed.
func isNumeric(s string) bool {
	s = strings.NewReplacer(",", "", ".", "").Replace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// firstRunes returns at most n leading characters of s.
func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// lineFilter decides which lines of a cell survive.
type lineFilter struct {
	tokens      []string
	dropNumeric bool
	dropMeta    bool // date- and masked-IP-prefixed lines
}

func (f lineFilter) apply(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || runeLen(line) <= 1 {
			continue
		}
		if f.dropNumeric && isNumeric(line) {
			continue
		}
		if containsAny(line, f.tokens) {
			continue
		}
		if f.dropMeta && (leadingDateRe.MatchString(line) || maskedIPRe.MatchString(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
