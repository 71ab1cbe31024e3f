package activity

import (
	"regexp"
	"strconv"
	"strings"
)

// Classification is the result of classifying a time field.
// SpanHours is nil when no single interval could be parsed; for
// multi-interval schedules it carries the summed span, informational only.
type Classification struct {
	IsFlexible bool
	SpanHours  *float64
}

var intervalRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*[-–—~]\s*(\d{1,2}):(\d{2})$`)

// TimeClassifier decides whether a time field describes a fixed schedule
// (specific clock intervals) or a flexible one (open-ended, unspecified, or a
// span wider than the policy threshold). Total: malformed input is flexible,
// never an error.
type TimeClassifier struct {
	thresholdHours float64
	markers        []string
}

func NewTimeClassifier(policy *Policy) *TimeClassifier {
	markers := make([]string, 0, len(policy.FlexibleMarkers))
	for _, m := range policy.FlexibleMarkers {
		markers = append(markers, normalizeField(m))
	}
	return &TimeClassifier{
		thresholdHours: policy.FlexThresholdHours,
		markers:        markers,
	}
}

func (c *TimeClassifier) Run(timeField string) Classification {
	normalized := normalizeField(timeField)
	if normalized == "" {
		return Classification{IsFlexible: true}
	}

	// A literal flexibility marker wins over any parseable interval.
	for _, marker := range c.markers {
		if marker != "" && strings.Contains(normalized, marker) {
			return Classification{IsFlexible: true}
		}
	}

	segments := splitIntervals(normalized)
	spans := make([]float64, 0, len(segments))
	for _, segment := range segments {
		span, ok := parseIntervalSpan(segment)
		if !ok {
			// No recognizable interval pattern: operationally flexible.
			return Classification{IsFlexible: true}
		}
		spans = append(spans, span)
	}

	if len(spans) > 1 {
		// Multiple concrete slots are themselves evidence of a fixed
		// schedule, regardless of individual span width.
		total := 0.0
		for _, span := range spans {
			total += span
		}
		return Classification{IsFlexible: false, SpanHours: &total}
	}

	span := spans[0]
	return Classification{
		IsFlexible: span >= c.thresholdHours,
		SpanHours:  &span,
	}
}

func splitIntervals(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

// parseIntervalSpan parses one "H:MM-H:MM" fragment and returns its span in
// hours. An end time earlier than the start crosses midnight.
func parseIntervalSpan(segment string) (float64, bool) {
	m := intervalRe.FindStringSubmatch(segment)
	if m == nil {
		return 0, false
	}

	startH, _ := strconv.Atoi(m[1])
	startM, _ := strconv.Atoi(m[2])
	endH, _ := strconv.Atoi(m[3])
	endM, _ := strconv.Atoi(m[4])

	if startH > 23 || endH > 23 || startM > 59 || endM > 59 {
		return 0, false
	}

	start := startH*60 + startM
	end := endH*60 + endM
	if end < start {
		end += 24 * 60
	}

	return float64(end-start) / 60.0, true
}
