package classify

import (
	"encoding/json"
	"strings"

	"DailyBriefing/internal/domain"
)

const (
	fallbackSummaryLimit = 200
	fallbackImportance   = 5
)

type rawResult struct {
	Summary    string  `json:"summary"`
	Category   string  `json:"category"`
	Importance float64 `json:"importance"`
}

// ParseReply decodes a classifier reply. The model is asked for a JSON
// object {summary, category, importance}, but replies wrapped in prose are
// common, so the outermost brace-delimited span is tried first. Anything
// that still fails to decode degrades to a usable fallback: the first 200
// characters of the raw reply, category Other, importance 5.
func ParseReply(reply string) domain.ClassifyResult {
	if candidate, ok := extractJSONObject(reply); ok {
		var raw rawResult
		if err := json.Unmarshal([]byte(candidate), &raw); err == nil {
			return domain.ClassifyResult{
				Summary:    raw.Summary,
				Category:   domain.ParseCategory(raw.Category),
				Importance: raw.Importance,
			}
		}
	}

	return domain.ClassifyResult{
		Summary:    truncateRunes(strings.TrimSpace(reply), fallbackSummaryLimit),
		Category:   domain.CategoryOther,
		Importance: fallbackImportance,
	}
}

// extractJSONObject returns the span from the first '{' to the last '}'.
func extractJSONObject(reply string) (string, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return reply[start : end+1], true
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
