package entity

// Lemmatizer reduces a single word to its base (nominative) form. Real
// morphology lives outside this module; callers plug in whatever analyzer
// their language needs. The default passes words through unchanged, which
// is correct whenever mention.Normalized already carries the lemma.
type Lemmatizer interface {
	Lemma(word string) string
}

// IdentityLemmatizer returns every word unchanged.
type IdentityLemmatizer struct{}

func (IdentityLemmatizer) Lemma(word string) string { return word }
