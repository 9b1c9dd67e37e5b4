package entity

import (
	"strings"
	"testing"
)

// mapLemmatizer resolves words from a fixed table, passing unknown words
// through unchanged.
type mapLemmatizer map[string]string

func (m mapLemmatizer) Lemma(word string) string {
	if base, ok := m[strings.ToLower(word)]; ok {
		return base
	}
	return word
}

func personMention(text, sub, normalized string) Mention {
	start := strings.Index(text, sub)
	return Mention{Text: sub, Start: start, End: start + len(sub), Normalized: normalized, Kind: Person}
}

// ---------------------------------------------------------------------------
// Person deduplication
// ---------------------------------------------------------------------------

func TestNormalizePersonDedup(t *testing.T) {
	text := "Иван Петров шёл. Потом Иван Петров вернулся."
	n := NewNormalizer(nil)
	c := n.Normalize([]Mention{
		personMention(text, "Иван Петров", "Иван Петров"),
		{Text: "Иван Петров", Start: strings.LastIndex(text, "Иван Петров"),
			End: strings.LastIndex(text, "Иван Петров") + len("Иван Петров"),
			Normalized: "Иван Петров", Kind: Person},
	})

	persons := c.Persons()
	if len(persons) != 1 {
		t.Fatalf("got %d persons, want 1", len(persons))
	}
	p := persons[0]
	if p.Name != "Иван Петров" {
		t.Errorf("Name = %q, want %q", p.Name, "Иван Петров")
	}
	if p.MentionCount != 2 {
		t.Errorf("MentionCount = %d, want 2", p.MentionCount)
	}
	if p.Start != strings.Index(text, "Иван Петров") {
		t.Errorf("Start = %d, want offset of first mention", p.Start)
	}
}

func TestNormalizePersonFirstLastKey(t *testing.T) {
	n := NewNormalizer(nil)
	c := n.Normalize([]Mention{
		{Text: "Иван Сергеевич Петров", Start: 0, End: 41,
			Normalized: "Иван Сергеевич Петров", Kind: Person},
	})

	persons := c.Persons()
	if len(persons) != 1 {
		t.Fatalf("got %d persons, want 1", len(persons))
	}
	// Middle name is dropped: the canonical name is first token + last token.
	if persons[0].Name != "Иван Петров" {
		t.Errorf("Name = %q, want %q", persons[0].Name, "Иван Петров")
	}
}

// Two person mentions that lemmatization did not fold stay separate entities.
// Lone name parts are not merged into a full-name bucket either.
func TestNormalizePersonDistinctForms(t *testing.T) {
	n := NewNormalizer(nil)
	c := n.Normalize([]Mention{
		{Text: "Иван", Start: 0, End: 8, Normalized: "Иван", Kind: Person},
		{Text: "Ивана", Start: 20, End: 30, Normalized: "Ивана", Kind: Person},
	})
	if got := len(c.Persons()); got != 2 {
		t.Fatalf("got %d persons, want 2 distinct entities for unfolded forms", got)
	}

	c = n.Normalize([]Mention{
		{Text: "Иван Петров", Start: 0, End: 21, Normalized: "Иван Петров", Kind: Person},
		{Text: "Иван", Start: 30, End: 38, Normalized: "Иван", Kind: Person},
		{Text: "Петров", Start: 50, End: 62, Normalized: "Петров", Kind: Person},
	})
	if got := len(c.Persons()); got != 3 {
		t.Fatalf("got %d persons, want 3: single tokens do not join the two-token bucket", got)
	}
}

func TestNormalizePersonCaseInsensitive(t *testing.T) {
	n := NewNormalizer(nil)
	c := n.Normalize([]Mention{
		{Text: "АННА", Start: 0, End: 8, Normalized: "АННА", Kind: Person},
		{Text: "Анна", Start: 20, End: 28, Normalized: "Анна", Kind: Person},
	})
	persons := c.Persons()
	if len(persons) != 1 {
		t.Fatalf("got %d persons, want 1", len(persons))
	}
	// Display name comes from the first mention seen.
	if persons[0].Name != "АННА" {
		t.Errorf("Name = %q, want the first-seen casing", persons[0].Name)
	}
	if persons[0].MentionCount != 2 {
		t.Errorf("MentionCount = %d, want 2", persons[0].MentionCount)
	}
}

// ---------------------------------------------------------------------------
// Location base forms
// ---------------------------------------------------------------------------

func TestNormalizeLocationBaseForm(t *testing.T) {
	lemma := mapLemmatizer{"саратове": "саратов", "саратова": "саратов"}
	n := NewNormalizer(lemma)
	c := n.Normalize([]Mention{
		{Text: "Саратове", Start: 0, End: 16, Kind: Location},
		{Text: "Саратова", Start: 40, End: 56, Kind: Location},
	})

	locations := c.Locations()
	if len(locations) != 1 {
		t.Fatalf("got %d locations, want 1", len(locations))
	}
	if locations[0].Name != "Саратов" {
		t.Errorf("Name = %q, want %q (lemma with original capitalization)", locations[0].Name, "Саратов")
	}
	if locations[0].MentionCount != 2 {
		t.Errorf("MentionCount = %d, want 2", locations[0].MentionCount)
	}
}

func TestNormalizeLocationHyphenated(t *testing.T) {
	lemma := mapLemmatizer{"петербурге": "петербург"}
	n := NewNormalizer(lemma)
	c := n.Normalize([]Mention{
		{Text: "Санкт-Петербурге", Start: 0, End: 31, Kind: Location},
	})

	locations := c.Locations()
	if len(locations) != 1 {
		t.Fatalf("got %d locations, want 1", len(locations))
	}
	if locations[0].Name != "Санкт-Петербург" {
		t.Errorf("Name = %q, want hyphen preserved in %q", locations[0].Name, "Санкт-Петербург")
	}
}

func TestNormalizeLocationPrefersNormalizedForm(t *testing.T) {
	// When the recognizer already supplies the base form, the identity
	// lemmatizer is enough.
	n := NewNormalizer(nil)
	c := n.Normalize([]Mention{
		{Text: "Саратове", Start: 0, End: 16, Normalized: "Саратов", Kind: Location},
	})
	if got := c.Locations()[0].Name; got != "Саратов" {
		t.Errorf("Name = %q, want %q", got, "Саратов")
	}
}

// ---------------------------------------------------------------------------
// Collection behavior
// ---------------------------------------------------------------------------

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(nil)

	c := n.Normalize(nil)
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for nil input", c.Len())
	}
	if got := c.Persons(); len(got) != 0 {
		t.Errorf("Persons() = %v, want empty", got)
	}

	c = n.Normalize([]Mention{{Text: "   ", Start: 0, End: 3, Kind: Person}})
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for blank mention text", c.Len())
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	mentions := []Mention{
		{Text: "Иван Петров", Start: 0, End: 21, Normalized: "Иван Петров", Kind: Person},
		{Text: "Анна", Start: 30, End: 38, Normalized: "Анна", Kind: Person},
		{Text: "Саратов", Start: 50, End: 64, Normalized: "Саратов", Kind: Location},
	}
	n := NewNormalizer(nil)

	a := n.Normalize(mentions)
	b := n.Normalize(mentions)

	if a.Len() != b.Len() {
		t.Fatalf("Len mismatch between runs: %d vs %d", a.Len(), b.Len())
	}
	for i, p := range a.Persons() {
		if got := b.Persons()[i]; got.Name != p.Name || got.MentionCount != p.MentionCount {
			t.Errorf("person %d differs between runs: %+v vs %+v", i, p, got)
		}
	}
}

func TestCollectionLookup(t *testing.T) {
	n := NewNormalizer(nil)
	c := n.Normalize([]Mention{
		{Text: "Анна", Start: 0, End: 8, Normalized: "Анна", Kind: Person},
	})

	if _, ok := c.Lookup(Person, "анна"); !ok {
		t.Error("Lookup(Person, \"анна\") should find the entity case-insensitively")
	}
	if _, ok := c.Lookup(Location, "анна"); ok {
		t.Error("Lookup must not cross kinds")
	}
}

func TestEntityFirstName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Иван Петров", "Иван"},
		{"Анна", "Анна"},
		{"", ""},
	}
	for _, tt := range tests {
		e := &Entity{Name: tt.name}
		if got := e.FirstName(); got != tt.want {
			t.Errorf("FirstName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
