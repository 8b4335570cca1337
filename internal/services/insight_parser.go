package services

import (
	"regexp"
	"strconv"
	"strings"

	"gitstart-analyzer/internal/models"
)

const (
	// MaxSuggestions caps how many improvement suggestions survive parsing
	MaxSuggestions = 5

	// DefaultInsightScore is the neutral midpoint used when the reply
	// contains no recognizable rating. Explicit fallback, not silent failure.
	DefaultInsightScore = 5.0
)

// scorePattern matches the first "<number>/10" rating in the reply
var scorePattern = regexp.MustCompile(`(\d+(\.\d+)?)/10`)

// suggestion lines start with a list marker
var listMarkers = []string{"- ", "* ", "• ", "-", "*", "•"}

// ParseInsight extracts a numeric score and a bounded suggestion list from
// the model's free-text reply. The reply format is best-effort prose, so this
// is pattern matching with documented fallbacks, not a protocol.
func ParseInsight(content string) models.ModelInsight {
	insight := models.ModelInsight{
		RawScore: DefaultInsightScore,
	}

	if match := scorePattern.FindStringSubmatch(content); match != nil {
		if score, err := strconv.ParseFloat(match[1], 64); err == nil {
			insight.RawScore = score
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		suggestion, ok := stripListMarker(trimmed)
		if !ok || suggestion == "" {
			continue
		}
		insight.Suggestions = append(insight.Suggestions, suggestion)
		if len(insight.Suggestions) == MaxSuggestions {
			break
		}
	}

	return insight
}

// stripListMarker removes a leading list marker and surrounding whitespace,
// reporting whether the line was a list item at all.
func stripListMarker(line string) (string, bool) {
	for _, marker := range listMarkers {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	return "", false
}
