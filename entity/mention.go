// Package entity turns raw recognizer output into canonical, deduplicated
// entities. Mentions come in tagged with a kind and character offsets; the
// normalizer collapses surface variants ("Иван Петров" / "Иван" / "Петров")
// into one entity per real-world referent.
package entity

import "log/slog"

// Kind classifies what a mention refers to.
type Kind string

const (
	Person       Kind = "PERSON"
	Location     Kind = "LOC"
	Organization Kind = "ORG"
	Unknown      Kind = "UNKNOWN"
)

// Mention is one occurrence of an entity surface form at a specific offset
// range in the source text. Produced by a Recognizer; immutable afterwards.
type Mention struct {
	Text       string `json:"text"`       // surface form as written
	Start      int    `json:"start"`      // byte offset into the source text
	End        int    `json:"end"`        // byte offset, Start < End
	Normalized string `json:"normalized"` // lemmatized form from the morphological normalizer
	Kind       Kind   `json:"kind"`
}

// ValidMentions filters out mentions whose offsets do not index into text.
// Malformed recognizer output is a data-quality condition, not a failure:
// bad mentions are skipped and counted, never fatal.
func ValidMentions(text string, mentions []Mention) ([]Mention, int) {
	valid := make([]Mention, 0, len(mentions))
	skipped := 0
	for _, m := range mentions {
		if m.Start < 0 || m.End > len(text) || m.Start >= m.End {
			skipped++
			continue
		}
		valid = append(valid, m)
	}
	if skipped > 0 {
		slog.Warn("entity: skipped mentions with out-of-bounds offsets",
			"skipped", skipped, "kept", len(valid))
	}
	return valid, skipped
}
