package report

import (
	"strings"
	"time"
)

// All selects every report type.
const All = "all"

// DetermineType picks the report a trigger should produce. event is a CI
// event name ("schedule", "workflow_dispatch" or "push"), requested the type
// chosen for a manual run. Scheduled runs are mapped by the hour of now,
// which must already be in the report timezone.
func DetermineType(event, requested string, now time.Time) string {
	switch strings.TrimSpace(event) {
	case "workflow_dispatch":
		if r := strings.TrimSpace(requested); r != "" {
			return r
		}
		return string(PreMarket)
	case "push":
		return All
	}

	switch now.Hour() {
	case 8, 9:
		return string(PreMarket)
	case 18, 19:
		return string(PostMarket)
	case 22, 23:
		return string(Weekly)
	default:
		return string(Monthly)
	}
}

// Expand resolves a type name or "all" to report types.
func Expand(name string) ([]Type, error) {
	if strings.TrimSpace(name) == All {
		return Types, nil
	}
	t, err := ParseType(name)
	if err != nil {
		return nil, err
	}
	return []Type{t}, nil
}
