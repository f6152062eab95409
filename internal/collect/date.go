package collect

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	monthDayDotRe   = regexp.MustCompile(`^(\d{2})\.(\d{2})$`)
	fullDateDotRe   = regexp.MustCompile(`^(\d{4})\.(\d{2})\.(\d{2})$`)
	fullDateTimeRe  = regexp.MustCompile(`^(\d{4})\.(\d{2})\.(\d{2}) (\d{2}):(\d{2})$`)
	monthDaySlashRe = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
)

var (
	todayTokens     = []string{"오늘", "today"}
	yesterdayTokens = []string{"어제", "yesterday"}
)

// DateParser turns board date cells into timestamps in a fixed location.
type DateParser struct {
	loc *time.Location
	now func() time.Time
}

// NewDateParser creates a parser for loc. A nil loc means time.Local.
func NewDateParser(loc *time.Location) *DateParser {
	if loc == nil {
		loc = time.Local
	}
	return &DateParser{loc: loc, now: time.Now}
}

// Parse converts raw to a timestamp. It reports false, after logging a
// warning, when no rule or the generic parser understands the input.
//
// Rules in order: "MM.DD" and "MM/DD" in the current year, "YYYY.MM.DD",
// "YYYY.MM.DD HH:MM", 오늘/today and 어제/yesterday as the start of that day,
// then a generic date parser.
func (p *DateParser) Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	now := p.now().In(p.loc)

	switch {
	case monthDayDotRe.MatchString(s):
		m := monthDayDotRe.FindStringSubmatch(s)
		return p.date(raw, now.Year(), m[1], m[2], "0", "0")
	case fullDateDotRe.MatchString(s):
		m := fullDateDotRe.FindStringSubmatch(s)
		return p.date(raw, atoi(m[1]), m[2], m[3], "0", "0")
	case fullDateTimeRe.MatchString(s):
		m := fullDateTimeRe.FindStringSubmatch(s)
		return p.date(raw, atoi(m[1]), m[2], m[3], m[4], m[5])
	case monthDaySlashRe.MatchString(s):
		m := monthDaySlashRe.FindStringSubmatch(s)
		return p.date(raw, now.Year(), m[1], m[2], "0", "0")
	case isToken(s, todayTokens):
		return startOfDay(now), true
	case isToken(s, yesterdayTokens):
		return startOfDay(now.AddDate(0, 0, -1)), true
	}

	t, err := dateparse.ParseIn(s, p.loc)
	if err != nil {
		log.Printf("Warning: could not parse date %q: %v", raw, err)
		return time.Time{}, false
	}
	return t, true
}

// date builds a timestamp and rejects values time.Date would normalize,
// such as month 13 or February 30.
func (p *DateParser) date(raw string, year int, month, day, hour, minute string) (time.Time, bool) {
	mo, d, h, mi := atoi(month), atoi(day), atoi(hour), atoi(minute)
	t := time.Date(year, time.Month(mo), d, h, mi, 0, 0, p.loc)
	if t.Month() != time.Month(mo) || t.Day() != d || t.Hour() != h || t.Minute() != mi {
		log.Printf("Warning: could not parse date %q: out of range", raw)
		return time.Time{}, false
	}
	return t, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func isToken(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.EqualFold(s, t) {
			return true
		}
	}
	return false
}
