package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type names a report cadence.
type Type string

const (
	PreMarket  Type = "pre_market"
	PostMarket Type = "post_market"
	Weekly     Type = "weekly"
	Monthly    Type = "monthly"
)

// Types lists every report cadence in generation order.
var Types = []Type{PreMarket, PostMarket, Weekly, Monthly}

var (
	ErrUnknownType       = errors.New("unknown report type")
	ErrReferenceRequired = errors.New("reference date required")
	ErrInvalidReference  = errors.New("invalid reference date")
	ErrNoData            = errors.New("no analyzed posts in report window")
)

// ParseType validates a report type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Title returns the display name of a report type.
func (t Type) Title() string {
	switch t {
	case PreMarket:
		return "Pre-Market Report"
	case PostMarket:
		return "Post-Market Report"
	case Weekly:
		return "Weekly Report"
	case Monthly:
		return "Monthly Report"
	}
	return string(t)
}

// Reference anchors a report window. The zero value means no reference.
type Reference struct {
	Date time.Time
	// MonthOnly is set when only a year and month were given.
	MonthOnly bool
}

// IsZero reports whether no reference date was given.
func (r Reference) IsZero() bool { return r.Date.IsZero() }

// ParseReference accepts YYYYMMDD, YYYY-MM-DD, YYYY/MM/DD or YYYY-MM.
// An empty string yields the zero Reference.
func ParseReference(s string, loc *time.Location) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, nil
	}
	for _, layout := range []string{"20060102", "2006-01-02", "2006/01/02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Reference{Date: t}, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01", s, loc); err == nil {
		return Reference{Date: t, MonthOnly: true}, nil
	}
	return Reference{}, fmt.Errorf("%w: %q (use YYYYMMDD, YYYY-MM-DD or YYYY-MM)", ErrInvalidReference, s)
}

// Window is the absolute time range a report aggregates over. Start and End
// are both inclusive.
type Window struct {
	Type  Type
	Start time.Time
	End   time.Time
	Label string
}

func (w Window) String() string {
	return fmt.Sprintf("%s ~ %s", w.Start.Format("2006-01-02 15:04"), w.End.Format("2006-01-02 15:04"))
}

// ComputeWindow derives the window for a report type. now is only consulted
// for a monthly report without reference. All times are built in loc.
func ComputeWindow(t Type, ref Reference, now time.Time, loc *time.Location) (Window, error) {
	if ref.IsZero() && t != Monthly {
		if _, err := ParseType(string(t)); err != nil {
			return Window{}, err
		}
		return Window{}, fmt.Errorf("%s: %w", t, ErrReferenceRequired)
	}

	var day time.Time
	if !ref.IsZero() {
		d := ref.Date.In(loc)
		day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	}

	w := Window{Type: t}
	switch t {
	case PreMarket:
		base := day
		switch day.Weekday() {
		case time.Saturday:
			base = day.AddDate(0, 0, -1)
		case time.Sunday:
			base = day.AddDate(0, 0, -2)
		}
		w.Start = at(base, 16, 0, 0)
		w.End = at(day, 9, 0, 0)
		if w.Start.After(w.End) {
			w.Start = w.Start.AddDate(0, 0, -1)
		}
		w.Label = w.String()

	case PostMarket:
		w.Start = at(day, 9, 0, 0)
		w.End = at(day, 15, 59, 59)
		w.Label = day.Format("2006-01-02") + " trading hours"

	case Weekly:
		w.Start = day.AddDate(0, 0, -7)
		w.End = at(day, 23, 59, 59)
		w.Label = fmt.Sprintf("%s ~ %s", w.Start.Format("2006-01-02"), day.Format("2006-01-02"))

	case Monthly:
		if ref.IsZero() {
			n := now.In(loc)
			w.Start = n.AddDate(0, 0, -30)
			w.End = n
			w.Label = "Last 30 Days"
			break
		}
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 1, -1)
		w.Start = first
		w.End = at(last, 23, 59, 59)
		w.Label = first.Format("2006-01")

	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
	return w, nil
}

// TargetDate is the calendar day a report is filed under: the reference day,
// or the last day of a monthly window.
func (w Window) TargetDate(ref Reference) time.Time {
	d := w.End
	if !ref.IsZero() && w.Type != Monthly {
		d = ref.Date.In(w.End.Location())
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

func at(day time.Time, h, m, s int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, day.Location())
}
