package relation

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bookgraph/bookgraph/entity"
)

const (
	// contextRadius is the primary window around a mention.
	contextRadius = 300
	// residenceWindowRadius / personWindowRadius bound the secondary search
	// window around a matched keyword.
	residenceWindowRadius = 100
	personWindowRadius    = 150
	// proximityRadius is how close a person and location occurrence must be
	// for the proximity-only residence sub-strategy; proximityPad widens the
	// inspected span on both sides.
	proximityRadius = 200
	proximityPad    = 100
	// pairDistance is the global sanity check for person-person relations.
	pairDistance = 600
	// fallbackRadius bounds Strategy C pairing.
	fallbackRadius = 1000
	// maxContextRunes caps stored context excerpts.
	maxContextRunes = 150
	// Occurrence caps keep pairwise scans bounded on large texts.
	maxLocOccurrences    = 20
	maxPersonOccurrences = 30

	confResidenceKeyword   = 0.8
	confResidenceProximity = 0.75
	confPersonPerson       = 0.75
	confFallback           = 0.3

	defaultWorkers = 8
)

// declensionEndings approximate Russian case forms of a location name when
// the trailing vowel of its base form is stripped. A stand-in for real
// morphological matching, which lives outside this module.
var declensionEndings = []string{"а", "е", "и", "у", "ом", "ой", "ами"}

const trailingVowels = "аеиоуыэюя"

// Extractor scans raw text around entity mentions and emits candidate
// relations. Per-person scans only read the shared immutable text and entity
// lists, so they fan out across workers; results merge back in entity order
// so the output stays deterministic.
type Extractor struct {
	kw      Keywords
	workers int
}

// NewExtractor creates an Extractor with the given keyword tables.
// workers <= 0 selects the default.
func NewExtractor(kw Keywords, workers int) *Extractor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Extractor{kw: kw, workers: workers}
}

// Extract runs all strategies over the text and returns deduplicated
// candidate relations in deterministic order. Absent entity kinds simply
// yield no relations; malformed input never raises an error.
func (e *Extractor) Extract(text string, entities *entity.Collection) []Candidate {
	lower := strings.ToLower(text)
	// Excerpts keep the original casing when offsets line up; for scripts
	// where lowercasing changes byte length they fall back to the lowered
	// text rather than risking misaligned slices.
	excerpt := text
	if len(lower) != len(text) {
		excerpt = lower
	}

	var out []Candidate
	personLoc := e.personLocation(excerpt, lower, entities)
	out = append(out, personLoc...)
	personPerson := e.personPerson(excerpt, lower, entities)
	out = append(out, personPerson...)

	persons := entities.Persons()
	if len(out) == 0 && len(persons) >= 2 {
		out = e.fallbackPairs(excerpt, lower, persons)
		slog.Debug("relation: fallback pairing engaged", "relations", len(out))
	}

	out = dedup(out)
	slog.Info("relation: extraction complete",
		"person_location", len(personLoc), "person_person", len(personPerson), "total", len(out))
	return out
}

// ---------------------------------------------------------------------------
// Strategy A: person <-> location (residence)
// ---------------------------------------------------------------------------

// locVariant is one searchable spelling of a location.
type locVariant struct {
	form string // lowercased
	ent  *entity.Entity
}

// locationVariants lists every known spelling of every location, in stable
// entity order: base form, original surface, and declined approximations
// built by stripping trailing vowels and re-appending common case endings.
func locationVariants(locations []*entity.Entity) []locVariant {
	var variants []locVariant
	seen := make(map[string]bool)
	add := func(form string, ent *entity.Entity) {
		form = strings.TrimSpace(form)
		if form == "" || seen[form] {
			return
		}
		seen[form] = true
		variants = append(variants, locVariant{form: form, ent: ent})
	}
	for _, loc := range locations {
		norm := strings.ToLower(loc.Name)
		add(norm, loc)
		add(strings.ToLower(loc.Text), loc)
		base := strings.TrimRight(norm, trailingVowels)
		if base != "" && base != norm {
			for _, ending := range declensionEndings {
				add(base+ending, loc)
			}
		}
	}
	return variants
}

// variantInWindow reports whether a location spelling occurs in the lowered
// search window, either whole or as any of its components longer than three
// characters (multi-word names match on a single distinctive part).
func variantInWindow(window, form string) bool {
	if strings.Contains(window, form) {
		return true
	}
	for _, part := range strings.Fields(form) {
		if utf8.RuneCountInString(part) > 3 && strings.Contains(window, part) {
			return true
		}
	}
	return false
}

func (e *Extractor) personLocation(excerpt, lower string, entities *entity.Collection) []Candidate {
	persons := entities.Persons()
	locations := entities.Locations()
	if len(persons) == 0 || len(locations) == 0 {
		return nil
	}
	variants := locationVariants(locations)

	keyword := e.fanOut(len(persons), func(i int) []Candidate {
		return e.residenceByKeyword(excerpt, lower, persons[i], variants)
	})
	proximity := e.fanOut(len(persons), func(i int) []Candidate {
		return e.residenceByProximity(excerpt, lower, persons[i], locations)
	})
	return dedup(append(keyword, proximity...))
}

// residenceByKeyword looks for a residence cue inside the primary window
// around the person's mention, then for any location spelling inside the
// secondary window around that cue. First matching location wins per cue.
func (e *Extractor) residenceByKeyword(excerpt, lower string, p *entity.Entity, variants []locVariant) []Candidate {
	ctxStart := clampRuneStart(lower, p.Start-contextRadius)
	ctxEnd := clampRuneStart(lower, p.End+contextRadius)
	if ctxStart >= ctxEnd {
		return nil
	}
	ctxLower := lower[ctxStart:ctxEnd]

	var out []Candidate
	for _, kw := range e.kw.Residence {
		pos := strings.Index(ctxLower, kw)
		if pos < 0 {
			continue
		}
		ws := clampRuneStart(ctxLower, pos-residenceWindowRadius)
		we := clampRuneStart(ctxLower, pos+residenceWindowRadius)
		windowLower := ctxLower[ws:we]
		for _, v := range variants {
			if !variantInWindow(windowLower, v.form) {
				continue
			}
			window := excerpt[ctxStart+ws : ctxStart+we]
			out = append(out, Candidate{
				Source:     p.Name,
				Target:     v.ent.Name,
				Type:       Residence,
				Confidence: confResidenceKeyword,
				Context:    truncateRunes(strings.TrimSpace(window), maxContextRunes),
				SourceKind: entity.Person,
				TargetKind: entity.Location,
			})
			break
		}
	}
	return out
}

// residenceByProximity pairs every occurrence of the person with every
// occurrence of each location; when a pair lies within proximityRadius and
// the span between them contains a residence cue, it emits a slightly less
// confident relation than the keyword strategy.
func (e *Extractor) residenceByProximity(excerpt, lower string, p *entity.Entity, locations []*entity.Entity) []Candidate {
	first := strings.ToLower(p.FirstName())
	if first == "" {
		return nil
	}
	personPos := occurrences(lower, maxLocOccurrences, first, strings.ToLower(p.Name))

	var out []Candidate
	for _, loc := range locations {
		locPos := occurrences(lower, maxLocOccurrences, strings.ToLower(loc.Name), strings.ToLower(loc.Text))

	pairs:
		for _, pp := range personPos {
			for _, lp := range locPos {
				if abs(pp-lp) >= proximityRadius {
					continue
				}
				lo, hi := pp, lp
				if lo > hi {
					lo, hi = hi, lo
				}
				spanStart := clampRuneStart(lower, lo-proximityPad)
				spanEnd := clampRuneStart(lower, hi+proximityPad)
				span := lower[spanStart:spanEnd]
				if !containsAny(span, e.kw.Residence) {
					continue
				}
				out = append(out, Candidate{
					Source:     p.Name,
					Target:     loc.Name,
					Type:       Residence,
					Confidence: confResidenceProximity,
					Context:    truncateRunes(strings.TrimSpace(excerpt[spanStart:spanEnd]), maxContextRunes),
					SourceKind: entity.Person,
					TargetKind: entity.Location,
				})
				break pairs
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Strategy B: person <-> person
// ---------------------------------------------------------------------------

func (e *Extractor) personPerson(excerpt, lower string, entities *entity.Collection) []Candidate {
	persons := entities.Persons()
	if len(persons) < 2 {
		return nil
	}
	out := e.fanOut(len(persons), func(i int) []Candidate {
		return e.personRelations(excerpt, lower, persons, i)
	})
	return dedupUnordered(out)
}

// personRelations scans every occurrence of persons[i] for category cues and
// a second person inside the secondary window. A hit additionally requires
// some occurrence pair of the two persons within pairDistance anywhere in
// the text, which filters out cues that merely share a long paragraph.
func (e *Extractor) personRelations(excerpt, lower string, persons []*entity.Entity, i int) []Candidate {
	p1 := persons[i]
	first := strings.ToLower(p1.FirstName())
	if first == "" {
		return nil
	}
	p1Pos := occurrences(lower, maxPersonOccurrences,
		first, strings.ToLower(p1.Name), strings.ToLower(p1.Text))

	var out []Candidate
	for _, pos := range p1Pos {
		ctxStart := clampRuneStart(lower, pos-contextRadius)
		ctxEnd := clampRuneStart(lower, pos+len(first)+contextRadius)
		if ctxStart >= ctxEnd {
			continue
		}
		ctxLower := lower[ctxStart:ctxEnd]

		for _, cat := range e.kw.personCategories() {
			for _, kw := range cat.words {
				kwPos := strings.Index(ctxLower, kw)
				if kwPos < 0 {
					continue
				}
				ws := clampRuneStart(ctxLower, kwPos-personWindowRadius)
				we := clampRuneStart(ctxLower, kwPos+personWindowRadius)
				windowLower := ctxLower[ws:we]

				for j, p2 := range persons {
					if j == i || p2.Name == p1.Name {
						continue
					}
					p2First := strings.ToLower(p2.FirstName())
					if p2First == "" {
						continue
					}
					if !containsAny(windowLower, []string{
						strings.ToLower(p2.Name), strings.ToLower(p2.Text), p2First,
					}) {
						continue
					}
					p2Pos := occurrences(lower, maxLocOccurrences,
						p2First, strings.ToLower(p2.Name), strings.ToLower(p2.Text))
					if !withinDistance(pos, p2Pos, pairDistance) {
						continue
					}
					window := excerpt[ctxStart+ws : ctxStart+we]
					out = append(out, Candidate{
						Source:     p1.Name,
						Target:     p2.Name,
						Type:       cat.typ,
						Confidence: confPersonPerson,
						Context:    truncateRunes(strings.TrimSpace(window), maxContextRunes),
						SourceKind: entity.Person,
						TargetKind: entity.Person,
					})
					break
				}
			}
		}
	}
	return out
}

// dedupUnordered removes exact triple duplicates and the mirrored
// (target, source, type) duplicate, so Strategy B never emits both
// directions for one unordered pair and category. Producing the mirror is
// the synthesizer's job alone.
func dedupUnordered(in []Candidate) []Candidate {
	seen := make(map[tripleKey]struct{}, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		k := c.key()
		reversed := tripleKey{c.Target, c.Source, c.Type}
		if _, dup := seen[k]; dup {
			continue
		}
		if _, dup := seen[reversed]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ---------------------------------------------------------------------------
// Strategy C: fallback pairing
// ---------------------------------------------------------------------------

// fallbackPairs runs only when strategies A and B found nothing. For each
// unordered person pair whose closest occurrences lie within fallbackRadius,
// it emits one low-confidence ASSOCIATED relation, source being the person
// seen first in the text. Deterministic and duplicate-safe: pairs are
// visited in entity order and each pair emits at most once.
func (e *Extractor) fallbackPairs(excerpt, lower string, persons []*entity.Entity) []Candidate {
	var out []Candidate
	for i := 0; i < len(persons); i++ {
		p1 := persons[i]
		p1Pos := occurrences(lower, maxLocOccurrences,
			strings.ToLower(p1.FirstName()), strings.ToLower(p1.Name))
		for j := i + 1; j < len(persons); j++ {
			p2 := persons[j]
			p2Pos := occurrences(lower, maxLocOccurrences,
				strings.ToLower(p2.FirstName()), strings.ToLower(p2.Name))

			lo, hi, found := closestPair(p1Pos, p2Pos)
			if !found || hi-lo >= fallbackRadius {
				continue
			}
			spanStart := clampRuneStart(lower, lo)
			spanEnd := clampRuneStart(lower, hi)
			out = append(out, Candidate{
				Source:     p1.Name,
				Target:     p2.Name,
				Type:       Associated,
				Confidence: confFallback,
				Context:    truncateRunes(strings.TrimSpace(excerpt[spanStart:spanEnd]), maxContextRunes),
				SourceKind: entity.Person,
				TargetKind: entity.Person,
			})
		}
	}
	return dedup(out)
}

// closestPair returns the closest (lo, hi) occurrence pair across two sorted
// position lists.
func closestPair(a, b []int) (lo, hi int, found bool) {
	best := -1
	for _, pa := range a {
		for _, pb := range b {
			d := abs(pa - pb)
			if best < 0 || d < best {
				best = d
				lo, hi = pa, pb
				if lo > hi {
					lo, hi = hi, lo
				}
			}
		}
	}
	return lo, hi, best >= 0
}

// ---------------------------------------------------------------------------
// Shared primitives
// ---------------------------------------------------------------------------

// fanOut runs scan for each index across the worker pool and concatenates
// results in index order, keeping the merge deterministic.
func (e *Extractor) fanOut(n int, scan func(i int) []Candidate) []Candidate {
	results := make([][]Candidate, n)
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = scan(i)
		}(i)
	}
	wg.Wait()

	var out []Candidate
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// occurrences finds all positions of any of the given lowercase forms in the
// lowered text: sorted, unique, capped at limit.
func occurrences(lower string, limit int, forms ...string) []int {
	seen := make(map[int]struct{})
	var positions []int
	for _, form := range forms {
		if form == "" {
			continue
		}
		for _, pos := range findAll(lower, form) {
			if _, dup := seen[pos]; dup {
				continue
			}
			seen[pos] = struct{}{}
			positions = append(positions, pos)
		}
	}
	sort.Ints(positions)
	if len(positions) > limit {
		positions = positions[:limit]
	}
	return positions
}

// findAll returns every position of needle in haystack, overlapping matches
// included.
func findAll(haystack, needle string) []int {
	var positions []int
	for start := 0; ; {
		pos := strings.Index(haystack[start:], needle)
		if pos < 0 {
			break
		}
		positions = append(positions, start+pos)
		start += pos + 1
	}
	return positions
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func withinDistance(pos int, others []int, max int) bool {
	for _, o := range others {
		if abs(pos-o) < max {
			return true
		}
	}
	return false
}

// clampRuneStart clamps i into [0, len(s)] and snaps it down to a rune
// boundary so window slices never split a multi-byte character.
func clampRuneStart(s string, i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
