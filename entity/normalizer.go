package entity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entity is the canonical, deduplicated representation of all mentions that
// denote the same referent. Name is unique per kind within one normalization
// run; display case comes from the first mention seen.
type Entity struct {
	Name         string `json:"name"`
	Kind         Kind   `json:"kind"`
	Text         string `json:"text"`  // surface form of the first absorbed mention
	Start        int    `json:"start"` // offsets of the first absorbed mention
	End          int    `json:"end"`
	MentionCount int    `json:"mention_count"`
}

// FirstName returns the first token of the canonical name. For single-token
// names it is the name itself.
func (e *Entity) FirstName() string {
	parts := strings.Fields(e.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Collection holds normalized entities grouped by kind, in first-seen order.
type Collection struct {
	order map[Kind][]*Entity
	index map[Kind]map[string]*Entity
}

func newCollection() *Collection {
	return &Collection{
		order: make(map[Kind][]*Entity),
		index: make(map[Kind]map[string]*Entity),
	}
}

// OfKind returns the entities of one kind in first-seen order. The returned
// slice is shared; callers must not mutate it.
func (c *Collection) OfKind(k Kind) []*Entity { return c.order[k] }

// Persons is shorthand for OfKind(Person).
func (c *Collection) Persons() []*Entity { return c.order[Person] }

// Locations is shorthand for OfKind(Location).
func (c *Collection) Locations() []*Entity { return c.order[Location] }

// Organizations is shorthand for OfKind(Organization).
func (c *Collection) Organizations() []*Entity { return c.order[Organization] }

// Lookup finds an entity by kind and canonicalization key (case-insensitive).
func (c *Collection) Lookup(k Kind, key string) (*Entity, bool) {
	e, ok := c.index[k][strings.ToLower(key)]
	return e, ok
}

// Len returns the total number of canonical entities across all kinds.
func (c *Collection) Len() int {
	n := 0
	for _, list := range c.order {
		n += len(list)
	}
	return n
}

// Normalizer collapses raw mentions into canonical entities.
type Normalizer struct {
	lemma Lemmatizer
}

// NewNormalizer creates a Normalizer. A nil lemmatizer falls back to the
// identity lemmatizer, which assumes mention.Normalized already carries the
// base form.
func NewNormalizer(l Lemmatizer) *Normalizer {
	if l == nil {
		l = IdentityLemmatizer{}
	}
	return &Normalizer{lemma: l}
}

// Normalize deduplicates mentions into canonical entities. Mentions are
// processed in input order; the first mention of each bucket supplies the
// display name and representative offsets. Running it twice on the same
// input yields identical collections.
func (n *Normalizer) Normalize(mentions []Mention) *Collection {
	c := newCollection()
	for _, m := range mentions {
		var name string
		switch m.Kind {
		case Person:
			name = personName(m)
		case Location:
			name = n.locationBaseForm(mentionForm(m))
		default:
			name = strings.TrimSpace(mentionForm(m))
		}
		if name == "" {
			continue
		}
		c.absorb(m, name)
	}
	return c
}

func (c *Collection) absorb(m Mention, name string) {
	key := strings.ToLower(name)
	idx, ok := c.index[m.Kind]
	if !ok {
		idx = make(map[string]*Entity)
		c.index[m.Kind] = idx
	}
	if e, ok := idx[key]; ok {
		e.MentionCount++
		return
	}
	e := &Entity{
		Name:         name,
		Kind:         m.Kind,
		Text:         strings.TrimSpace(m.Text),
		Start:        m.Start,
		End:          m.End,
		MentionCount: 1,
	}
	idx[key] = e
	c.order[m.Kind] = append(c.order[m.Kind], e)
}

// mentionForm prefers the lemmatized form, falling back to the raw surface.
func mentionForm(m Mention) string {
	if s := strings.TrimSpace(m.Normalized); s != "" {
		return s
	}
	return strings.TrimSpace(m.Text)
}

// personName builds the dedup key for a person: first token plus last token
// of the normalized form. Narrative text alternates full names with lone
// first names or surnames; keying on first+last folds "Иван Петров" and a
// later "Иван Петров" variant together. A lone first name that never
// co-occurs with a surname stays its own bucket — a known limitation, not
// a bug.
func personName(m Mention) string {
	parts := strings.Fields(mentionForm(m))
	switch {
	case len(parts) >= 2:
		return parts[0] + " " + parts[len(parts)-1]
	case len(parts) == 1:
		return parts[0]
	default:
		return ""
	}
}

var locationSep = regexp.MustCompile(`[\s-]+`)

// locationBaseForm reduces a location name to a nominative-like base by
// lemmatizing each component independently, keeping the original separator
// style (hyphen for compound names like Санкт-Петербург, space otherwise).
func (n *Normalizer) locationBaseForm(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	hyphenated := strings.Contains(name, "-")
	var parts []string
	for _, word := range locationSep.Split(name, -1) {
		if word == "" {
			continue
		}
		base := n.lemma.Lemma(word)
		if base == "" {
			base = word
		}
		parts = append(parts, matchTitleCase(word, base))
	}
	if len(parts) == 0 {
		return ""
	}
	sep := " "
	if hyphenated {
		sep = "-"
	}
	return strings.Join(parts, sep)
}

// matchTitleCase re-applies the original word's leading capitalization to
// its lemma, which analyzers typically return lowercased.
func matchTitleCase(original, lemma string) string {
	r, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(r) {
		return lemma
	}
	first, size := utf8.DecodeRuneInString(lemma)
	if first == utf8.RuneError {
		return lemma
	}
	return string(unicode.ToUpper(first)) + lemma[size:]
}
