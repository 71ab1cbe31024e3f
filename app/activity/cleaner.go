package activity

import (
	"regexp"
	"strings"
)

// TextDedupEngine removes the artifacts of repeated manual edits and earlier
// faulty merges from description text: repeated paragraphs, runs of warning
// markers, and stray punctuation-only lines. Idempotent: cleaning already
// clean text is a no-op.
type TextDedupEngine struct {
	markerRunRe *regexp.Regexp
	marker      string
}

// punctOnlyLineRe matches a line consisting solely of a single sentence-ending
// punctuation mark, in ASCII or full-width form.
var punctOnlyLineRe = regexp.MustCompile(`^[.!?。！？．]$`)

// strayLeadingPunct are the characters trimmed off the start of a cleaned
// description, leftovers of merges that dropped the text before a separator.
const strayLeadingPunct = ".,;:!?。，；：！？、 \t"

func NewTextDedupEngine(policy *Policy) *TextDedupEngine {
	marker := policy.WarningMarker
	quoted := regexp.QuoteMeta(marker)
	return &TextDedupEngine{
		marker:      marker,
		markerRunRe: regexp.MustCompile(`(?:` + quoted + `\s*){2,}`),
	}
}

func (e *TextDedupEngine) Run(description string) string {
	if description == "" {
		return ""
	}

	text := strings.ReplaceAll(description, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	seen := make(map[string]bool)
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		line = e.collapseMarkerRuns(line)
		trimmed := strings.TrimSpace(line)

		if punctOnlyLineRe.MatchString(trimmed) {
			continue
		}

		normalized := normalizeLine(line)
		if normalized == "" {
			// Blank (or symbol-only whitespace) lines are structural, not
			// content; they are handled by the blank-run collapse below.
			kept = append(kept, strings.TrimRight(line, " \t"))
			continue
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		kept = append(kept, strings.TrimRight(line, " \t"))
	}

	kept = collapseBlankRuns(kept)

	// Lines without content at the end of the document are leftovers too,
	// even when they carry more than one punctuation mark.
	for len(kept) > 0 && normalizeLine(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}

	result := strings.Join(kept, "\n")
	result = strings.TrimSpace(result)
	result = strings.TrimLeft(result, strayLeadingPunct)
	return strings.TrimSpace(result)
}

// collapseMarkerRuns reduces any run of two or more warning markers to one.
func (e *TextDedupEngine) collapseMarkerRuns(line string) string {
	if e.marker == "" || !strings.Contains(line, e.marker) {
		return line
	}
	return e.markerRunRe.ReplaceAllStringFunc(line, func(run string) string {
		if strings.HasSuffix(run, " ") {
			return e.marker + " "
		}
		return e.marker
	})
}

// collapseBlankRuns reduces runs of three or more blank lines to a single
// blank line. Shorter runs keep their original spacing.
func collapseBlankRuns(lines []string) []string {
	out := make([]string, 0, len(lines))
	blanks := 0
	flush := func() {
		if blanks >= 3 {
			blanks = 1
		}
		for ; blanks > 0; blanks-- {
			out = append(out, "")
		}
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()
	return out
}
