package relation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bookgraph/bookgraph/entity"
)

// collect builds a normalized collection from mentions located by substring
// search, so test fixtures stay readable.
func collect(t *testing.T, text string, mentions ...entity.Mention) *entity.Collection {
	t.Helper()
	for i := range mentions {
		start := strings.Index(text, mentions[i].Text)
		if start < 0 {
			t.Fatalf("fixture text does not contain %q", mentions[i].Text)
		}
		mentions[i].Start = start
		mentions[i].End = start + len(mentions[i].Text)
	}
	return entity.NewNormalizer(nil).Normalize(mentions)
}

func person(text, normalized string) entity.Mention {
	return entity.Mention{Text: text, Normalized: normalized, Kind: entity.Person}
}

func location(text, normalized string) entity.Mention {
	return entity.Mention{Text: text, Normalized: normalized, Kind: entity.Location}
}

// ---------------------------------------------------------------------------
// Residence extraction
// ---------------------------------------------------------------------------

func TestExtractResidenceKeyword(t *testing.T) {
	text := "Иван живёт в Саратове."
	entities := collect(t, text,
		person("Иван", "Иван"),
		location("Саратове", "Саратов"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	out := ex.Extract(text, entities)

	if len(out) != 1 {
		t.Fatalf("got %d candidates, want exactly 1: %+v", len(out), out)
	}
	c := out[0]
	if c.Source != "Иван" || c.Target != "Саратов" {
		t.Errorf("edge = %s -> %s, want Иван -> Саратов", c.Source, c.Target)
	}
	if c.Type != Residence {
		t.Errorf("Type = %s, want %s", c.Type, Residence)
	}
	if c.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", c.Confidence)
	}
	if c.SourceKind != entity.Person || c.TargetKind != entity.Location {
		t.Errorf("kinds = %s/%s, want PERSON/LOC", c.SourceKind, c.TargetKind)
	}
	if c.Context == "" {
		t.Error("Context should carry the matched window")
	}
}

func TestExtractResidenceProximity(t *testing.T) {
	// The person's mention offsets sit far from the residence phrasing, so
	// the keyword window around the mention finds nothing; only the
	// occurrence-based proximity pass can.
	text := "Анна улыбнулась." + strings.Repeat("x", 400) + "Анна жила недалеко. Самара была её домом."
	entities := collect(t, text,
		person("Анна", "Анна"),
		location("Самара", "Самара"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	out := ex.Extract(text, entities)

	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(out), out)
	}
	c := out[0]
	if c.Type != Residence {
		t.Errorf("Type = %s, want %s", c.Type, Residence)
	}
	if c.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75 from the proximity pass", c.Confidence)
	}
	if c.Source != "Анна" || c.Target != "Самара" {
		t.Errorf("edge = %s -> %s, want Анна -> Самара", c.Source, c.Target)
	}
}

func TestExtractResidenceDeclinedLocation(t *testing.T) {
	// The text uses a case form of the location; matching goes through the
	// generated declension variants of the base form.
	text := "Иван живёт в Москве уже давно."
	// The location mention points at the declined occurrence while its
	// normalized form is the base.
	mentions := []entity.Mention{
		{Text: "Иван", Start: 0, End: 8, Normalized: "Иван", Kind: entity.Person},
		{Text: "Москве", Start: strings.Index(text, "Москве"),
			End: strings.Index(text, "Москве") + len("Москве"), Normalized: "Москва", Kind: entity.Location},
	}
	entities := entity.NewNormalizer(nil).Normalize(mentions)

	ex := NewExtractor(DefaultKeywords(), 2)
	out := ex.Extract(text, entities)

	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(out), out)
	}
	if out[0].Target != "Москва" {
		t.Errorf("Target = %q, want the base form %q", out[0].Target, "Москва")
	}
}

func TestLocationVariants(t *testing.T) {
	loc := &entity.Entity{Name: "Москва", Text: "Москва", Kind: entity.Location}
	variants := locationVariants([]*entity.Entity{loc})

	forms := make(map[string]bool)
	for _, v := range variants {
		forms[v.form] = true
		if v.ent != loc {
			t.Errorf("variant %q points at the wrong entity", v.form)
		}
	}
	for _, want := range []string{"москва", "москве", "москву", "москвой"} {
		if !forms[want] {
			t.Errorf("variants missing %q: %v", want, forms)
		}
	}
	// No duplicates.
	if len(forms) != len(variants) {
		t.Errorf("variants contain duplicates: %d forms, %d entries", len(forms), len(variants))
	}
}

func TestVariantInWindow(t *testing.T) {
	if !variantInWindow("жил в старом осколе", "старый оскол") {
		t.Error("multi-word name should match on a distinctive component")
	}
	if variantInWindow("ушёл в сад", "старый дом") {
		t.Error("short components must not match")
	}
	if !variantInWindow("приехал в саратов", "саратов") {
		t.Error("whole-form match failed")
	}
}

// ---------------------------------------------------------------------------
// Person-person extraction
// ---------------------------------------------------------------------------

func TestExtractFriendship(t *testing.T) {
	text := "Пётр и Анна — друзья."
	entities := collect(t, text,
		person("Пётр", "Пётр"),
		person("Анна", "Анна"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	out := ex.Extract(text, entities)

	if len(out) != 1 {
		t.Fatalf("got %d candidates, want exactly 1 direction: %+v", len(out), out)
	}
	c := out[0]
	if c.Type != Friendship {
		t.Errorf("Type = %s, want %s", c.Type, Friendship)
	}
	if c.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75", c.Confidence)
	}
	if c.Source != "Пётр" || c.Target != "Анна" {
		t.Errorf("edge = %s -> %s, want Пётр -> Анна", c.Source, c.Target)
	}
	if c.IsReverse {
		t.Error("extraction must not mark candidates as reverse")
	}
}

func TestExtractFamilyAndWork(t *testing.T) {
	text := "Иван — брат Анны. Позже Иван работал вместе с Сергеем в конторе."
	entities := collect(t, text,
		person("Иван", "Иван"),
		person("Анны", "Анна"),
		person("Сергеем", "Сергей"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	out := ex.Extract(text, entities)

	types := make(map[Type]int)
	for _, c := range out {
		types[c.Type]++
	}
	if types[Family] == 0 {
		t.Errorf("expected a FAMILY relation, got %+v", out)
	}
	if types[Work] == 0 {
		t.Errorf("expected a WORK relation, got %+v", out)
	}
	// One direction per unordered pair and category.
	seen := make(map[tripleKey]bool)
	for _, c := range out {
		rev := tripleKey{c.Target, c.Source, c.Type}
		if seen[rev] {
			t.Errorf("both directions emitted for %s/%s %s", c.Source, c.Target, c.Type)
		}
		seen[c.key()] = true
	}
}

func TestExtractPersonPersonDistanceGate(t *testing.T) {
	// The cue sits near the first person, but the second person's nearest
	// occurrence is farther than the pairing distance allows.
	text := "Иван вспоминал брата." + strings.Repeat("y", 700) + "Анна гуляла одна."
	entities := collect(t, text,
		person("Иван", "Иван"),
		person("Анна", "Анна"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	out := ex.Extract(text, entities)

	for _, c := range out {
		if c.Type == Family {
			t.Errorf("FAMILY relation emitted across %d bytes: %+v", len(text), c)
		}
	}
}

// ---------------------------------------------------------------------------
// Fallback pairing
// ---------------------------------------------------------------------------

func TestExtractFallback(t *testing.T) {
	text := "Иван кивнул. Анна кивнула."
	entities := collect(t, text,
		person("Иван", "Иван"),
		person("Анна", "Анна"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	out := ex.Extract(text, entities)

	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1 fallback pairing: %+v", len(out), out)
	}
	c := out[0]
	if c.Type != Associated {
		t.Errorf("Type = %s, want %s", c.Type, Associated)
	}
	if c.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want 0.3", c.Confidence)
	}
	if c.Source != "Иван" || c.Target != "Анна" {
		t.Errorf("edge = %s -> %s, want text order Иван -> Анна", c.Source, c.Target)
	}
}

func TestExtractFallbackSkippedWhenStrategiesFire(t *testing.T) {
	text := "Пётр и Анна — друзья."
	entities := collect(t, text,
		person("Пётр", "Пётр"),
		person("Анна", "Анна"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	for _, c := range ex.Extract(text, entities) {
		if c.Type == Associated {
			t.Errorf("fallback must not run when extraction found %s", Friendship)
		}
	}
}

func TestExtractFallbackRespectsRadius(t *testing.T) {
	text := "Иван кивнул." + strings.Repeat("z", 1200) + "Анна кивнула."
	entities := collect(t, text,
		person("Иван", "Иван"),
		person("Анна", "Анна"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	out := ex.Extract(text, entities)
	if len(out) != 0 {
		t.Errorf("got %d candidates, want 0 beyond the pairing radius: %+v", len(out), out)
	}
}

// ---------------------------------------------------------------------------
// Edge cases and primitives
// ---------------------------------------------------------------------------

func TestExtractNoEntities(t *testing.T) {
	ex := NewExtractor(DefaultKeywords(), 2)
	empty := entity.NewNormalizer(nil).Normalize(nil)

	if out := ex.Extract("Иван живёт в Саратове.", empty); len(out) != 0 {
		t.Errorf("got %d candidates for an empty collection, want 0", len(out))
	}
	if out := ex.Extract("", empty); len(out) != 0 {
		t.Errorf("got %d candidates for empty text, want 0", len(out))
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := "Пётр и Анна — друзья. Иван живёт в Саратове. Анна знала Ивана."
	build := func() *entity.Collection {
		return collect(t, text,
			person("Пётр", "Пётр"),
			person("Анна", "Анна"),
			person("Иван", "Иван"),
			location("Саратове", "Саратов"),
		)
	}
	ex := NewExtractor(DefaultKeywords(), 4)

	first := ex.Extract(text, build())
	for run := 0; run < 5; run++ {
		again := ex.Extract(text, build())
		if len(again) != len(first) {
			t.Fatalf("run %d: got %d candidates, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: candidate %d differs:\n%+v\n%+v", run, i, again[i], first[i])
			}
		}
	}
}

func TestExtractContextCapped(t *testing.T) {
	text := "Иван живёт в Саратове." + strings.Repeat(" и снова шёл снег", 40)
	entities := collect(t, text,
		person("Иван", "Иван"),
		location("Саратове", "Саратов"),
	)

	ex := NewExtractor(DefaultKeywords(), 2)
	for _, c := range ex.Extract(text, entities) {
		if n := utf8.RuneCountInString(c.Context); n > 150 {
			t.Errorf("Context is %d runes, want <= 150", n)
		}
	}
}

func TestFindAllOverlapping(t *testing.T) {
	got := findAll("aaaa", "aa")
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("findAll = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("findAll = %v, want %v", got, want)
			break
		}
	}
}

func TestOccurrencesSortedUniqueCapped(t *testing.T) {
	lower := strings.Repeat("ab ", 50)
	got := occurrences(lower, 10, "ab", "a")
	if len(got) != 10 {
		t.Fatalf("got %d positions, want capped at 10", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("positions not strictly increasing: %v", got)
		}
	}
}

func TestClampRuneStart(t *testing.T) {
	s := "аб"
	if got := clampRuneStart(s, -5); got != 0 {
		t.Errorf("clampRuneStart(-5) = %d, want 0", got)
	}
	if got := clampRuneStart(s, 100); got != len(s) {
		t.Errorf("clampRuneStart(100) = %d, want %d", got, len(s))
	}
	// Index 1 splits the two-byte а; it must snap down to 0.
	if got := clampRuneStart(s, 1); got != 0 {
		t.Errorf("clampRuneStart(1) = %d, want 0", got)
	}
	if got := clampRuneStart(s, 2); got != 2 {
		t.Errorf("clampRuneStart(2) = %d, want 2", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("привет", 3); got != "при" {
		t.Errorf("truncateRunes = %q, want %q", got, "при")
	}
	if got := truncateRunes("hi", 10); got != "hi" {
		t.Errorf("truncateRunes = %q, want unchanged", got)
	}
}
