package activity

import (
	"testing"
)

func newTestClassifier() *TimeClassifier {
	return NewTimeClassifier(DefaultPolicy())
}

func TestTimeClassifier_SingleInterval_Fixed(t *testing.T) {
	classifier := newTestClassifier()

	result := classifier.Run("09:30-10:30")

	if result.IsFlexible {
		t.Errorf("Expected fixed classification for a one-hour interval")
	}
	if result.SpanHours == nil {
		t.Fatalf("Expected span to be computed")
	}
	if *result.SpanHours != 1.0 {
		t.Errorf("Expected span of 1 hour, got %v", *result.SpanHours)
	}
}

func TestTimeClassifier_Empty_Flexible(t *testing.T) {
	classifier := newTestClassifier()

	result := classifier.Run("")

	if !result.IsFlexible {
		t.Errorf("Expected empty time to classify as flexible")
	}
	if result.SpanHours != nil {
		t.Errorf("Expected nil span for empty time, got %v", *result.SpanHours)
	}
}

func TestTimeClassifier_WideSpan_Flexible(t *testing.T) {
	classifier := newTestClassifier()

	// 16 hours exceeds the default 12h threshold
	result := classifier.Run("06:00-22:00")

	if !result.IsFlexible {
		t.Errorf("Expected a 16-hour span to classify as flexible")
	}
	if result.SpanHours == nil || *result.SpanHours != 16.0 {
		t.Errorf("Expected span of 16 hours, got %v", result.SpanHours)
	}
}

func TestTimeClassifier_MultipleIntervals_Fixed(t *testing.T) {
	classifier := newTestClassifier()

	// Multiple concrete slots mean a fixed schedule regardless of span
	result := classifier.Run("09:00-11:00,14:00-16:00")

	if result.IsFlexible {
		t.Errorf("Expected multiple intervals to classify as fixed")
	}
}

func TestTimeClassifier_MarkerWord_Flexible(t *testing.T) {
	classifier := newTestClassifier()

	// The marker wins even though an interval is parseable
	result := classifier.Run("09:00-10:00 flexible")

	if !result.IsFlexible {
		t.Errorf("Expected a flexibility marker to win over the interval")
	}
}

func TestTimeClassifier_CrossesMidnight(t *testing.T) {
	classifier := newTestClassifier()

	result := classifier.Run("22:00-02:00")

	if result.IsFlexible {
		t.Errorf("Expected a midnight-crossing 4-hour interval to be fixed")
	}
	if result.SpanHours == nil || *result.SpanHours != 4.0 {
		t.Errorf("Expected span of 4 hours, got %v", result.SpanHours)
	}
}

func TestTimeClassifier_Malformed_Flexible(t *testing.T) {
	classifier := newTestClassifier()

	cases := []string{
		"by appointment",
		"morningish",
		"25:00-26:00",
		"09:75-10:00",
		"-",
	}

	for _, input := range cases {
		result := classifier.Run(input)
		if !result.IsFlexible {
			t.Errorf("Expected %q to default to flexible", input)
		}
	}
}

func TestTimeClassifier_FullWidthDigits(t *testing.T) {
	classifier := newTestClassifier()

	// Full-width digits and dash should fold to ASCII before parsing
	result := classifier.Run("０９:００-１０:００")

	if result.IsFlexible {
		t.Errorf("Expected full-width interval to parse as fixed")
	}
}

func TestTimeClassifier_ThresholdBoundary(t *testing.T) {
	policy := DefaultPolicy()
	policy.FlexThresholdHours = 10
	classifier := NewTimeClassifier(policy)

	atThreshold := classifier.Run("08:00-18:00")
	if !atThreshold.IsFlexible {
		t.Errorf("Expected a span equal to the threshold to be flexible")
	}

	below := classifier.Run("08:00-17:59")
	if below.IsFlexible {
		t.Errorf("Expected a span below the threshold to be fixed")
	}
}
