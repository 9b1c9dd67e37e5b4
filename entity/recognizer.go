package entity

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Recognizer produces raw entity mentions from source text. The production
// recognizer is an external collaborator (a statistical NER model); the
// pipeline only requires this boundary.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Mention, error)
}

// Name-in-context patterns: a capitalized word (or pair) adjacent to a
// narrative verb. Deliberately strict — a capitalized word alone is mostly
// a sentence start, but one acting as the subject or object of сказал/жил/
// встретил is almost always a character.
var (
	reSubjectName = regexp.MustCompile(`([А-ЯЁA-Z][а-яёa-z]+(?:\s+[А-ЯЁA-Z][а-яёa-z]+)?)\s+(?:сказал|сказала|думал|думала|работал|работала|жил|жила|был|была|стал|стала|родился|родилась|познакомился|познакомилась|встретил|встретила|живёт|живет)`)
	reObjectName  = regexp.MustCompile(`(?:сказал|сказала|встретил|встретила|познакомился|познакомилась|знал|знала|любил|любила)\s+([А-ЯЁA-Z][а-яёa-z]+(?:\s+[А-ЯЁA-Z][а-яёa-z]+)?)`)
	reFullName    = regexp.MustCompile(`([А-ЯЁA-Z][а-яёa-z]+\s+[А-ЯЁA-Z][а-яёa-z]+)\s+(?:был|была|стал|стала|жил|жила|работал|работала|родился|родилась)`)
)

const (
	minNameWordLen = 2
	maxNameWordLen = 25
)

// RuleRecognizer is the built-in fallback: regex patterns over capitalized
// words adjacent to narrative verbs. It only finds persons; locations and
// organizations need the external recognizer.
type RuleRecognizer struct {
	lemma Lemmatizer
}

// NewRuleRecognizer creates the fallback recognizer. A nil lemmatizer means
// mentions keep their surface form as the normalized form.
func NewRuleRecognizer(l Lemmatizer) *RuleRecognizer {
	if l == nil {
		l = IdentityLemmatizer{}
	}
	return &RuleRecognizer{lemma: l}
}

// Recognize scans text for person names. Each distinct name (case-insensitive)
// is reported once, at its first match position.
func (r *RuleRecognizer) Recognize(_ context.Context, text string) ([]Mention, error) {
	var mentions []Mention
	seen := make(map[string]bool)

	for _, re := range []*regexp.Regexp{reSubjectName, reObjectName, reFullName} {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := idx[2], idx[3]
			name := strings.TrimSpace(text[start:end])
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			normalized, ok := r.normalizeName(name)
			if !ok {
				continue
			}
			seen[key] = true
			mentions = append(mentions, Mention{
				Text:       name,
				Start:      start,
				End:        end,
				Normalized: normalized,
				Kind:       Person,
			})
		}
	}
	return mentions, nil
}

// normalizeName lemmatizes each word of a candidate name, preserving the
// original capitalization. Rejects candidates with implausible word lengths.
func (r *RuleRecognizer) normalizeName(name string) (string, bool) {
	words := strings.Fields(name)
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		if n := utf8.RuneCountInString(w); n < minNameWordLen || n > maxNameWordLen {
			return "", false
		}
		base := r.lemma.Lemma(w)
		if base == "" {
			base = w
		}
		normalized = append(normalized, matchTitleCase(w, base))
	}
	if len(normalized) == 0 {
		return "", false
	}
	return strings.Join(normalized, " "), true
}
