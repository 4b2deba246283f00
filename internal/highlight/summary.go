package highlight

import "unicode/utf8"

// DefaultPreviewChars is the preview length used by listing views.
const DefaultPreviewChars = 100

// Preview returns text cut to max runes with "..." appended when truncated.
func Preview(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}

// Stats is the count header shown above a listing.
type Stats struct {
	Total      int `json:"total"`
	Summarized int `json:"summarized"`
}

// Count tallies the highlights and how many carry a summary.
func Count(hs []Highlight) Stats {
	s := Stats{Total: len(hs)}
	for _, h := range hs {
		if h.HasSummary() {
			s.Summarized++
		}
	}
	return s
}
