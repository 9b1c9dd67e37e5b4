package relation

// Keywords holds the lexical cue lists for each relation category. The
// tables are plain data handed to the extractor at construction, so tests
// can substitute alternate tables; nothing mutates them at runtime.
type Keywords struct {
	Residence  []string
	Family     []string
	Friendship []string
	Work       []string
	Love       []string
}

// DefaultKeywords returns the built-in Russian/English cue tables.
func DefaultKeywords() Keywords {
	return Keywords{
		Residence: []string{
			"из", "в", "живёт", "живет", "проживает", "родом", "родился", "родилась",
			"уроженец", "уроженка", "жил", "жила", "жили", "живут", "находится",
			"from", "lives in", "born in", "resides in", "native of",
		},
		Family: []string{
			"брат", "сестра", "мать", "отец", "сын", "дочь", "родственники", "родственник",
			"семья", "родители", "дед", "бабушка", "внук", "внучка", "дядя", "тётя",
			"brother", "sister", "mother", "father", "son", "daughter", "family", "relative",
			"parent", "grandfather", "grandmother", "uncle", "aunt",
		},
		Friendship: []string{
			"друзья", "друг", "подруга", "знаком", "встретил", "встретила", "знал", "знала",
			"friends", "friend", "met", "know", "knew", "acquaintance",
		},
		Work: []string{
			"коллеги", "коллега", "работал", "работала", "начальник", "подчинённый",
			"colleagues", "colleague", "worked", "boss", "employee", "manager",
		},
		Love: []string{
			"любовь", "любит", "любила", "женат", "замужем", "жена", "муж", "влюблён",
			"love", "loves", "married", "wife", "husband", "in love",
		},
	}
}

// personCategories returns the person-person categories paired with their
// cue lists, in the fixed order the extractor checks them.
func (k Keywords) personCategories() []struct {
	words []string
	typ   Type
} {
	return []struct {
		words []string
		typ   Type
	}{
		{k.Family, Family},
		{k.Friendship, Friendship},
		{k.Work, Work},
		{k.Love, Love},
	}
}
