package patternbot

import dompattern "github.com/kailas-cloud/patternbot/internal/domain/pattern"

// Pattern is a single named regular expression.
type Pattern struct {
	Key   string `json:"key"`
	Regex string `json:"regex"`
}

func patternsFromDomain(doc dompattern.Document) []Pattern {
	entries := doc.Entries()
	out := make([]Pattern, len(entries))
	for i, e := range entries {
		out[i] = Pattern{Key: e.Key, Regex: e.Pattern}
	}
	return out
}
