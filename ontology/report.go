package ontology

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bookgraph/bookgraph/entity"
	"github.com/bookgraph/bookgraph/relation"
)

const reportRule = 80

// WriteReport renders a plain-text summary of the ontology: every entity
// with its counters, then every relation with its context excerpt.
func WriteReport(w io.Writer, o *Ontology) error {
	rule := strings.Repeat("=", reportRule)
	thin := strings.Repeat("-", reportRule)

	if _, err := fmt.Fprintf(w, "%s\nONTOLOGY\n%s\n\n", rule, rule); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	fmt.Fprintf(w, "ENTITIES (total: %d):\n%s\n", len(o.Entities), thin)
	for _, name := range o.EntityNames() {
		e := o.Entities[name]
		fmt.Fprintf(w, "  %s [%s]\n", e.Name, e.Kind)
		fmt.Fprintf(w, "    mentions: %d\n", e.MentionCount)
		fmt.Fprintf(w, "    relations: %d\n\n", e.TotalRelations)
	}

	fmt.Fprintf(w, "\nRELATIONS (total: %d):\n%s\n", len(o.Relations), thin)
	for _, r := range o.Relations {
		fmt.Fprintf(w, "  %s --[%s]--> %s (%.2f)\n", r.Source, r.Type, r.Target, r.Confidence)
		if r.Context != "" {
			fmt.Fprintf(w, "    context: %s\n", r.Context)
		}
		fmt.Fprintln(w)
	}

	stats := o.Stats()
	fmt.Fprintf(w, "\nSTATISTICS:\n%s\n", thin)
	fmt.Fprintf(w, "  entities:  %d\n", stats.TotalEntities)
	fmt.Fprintf(w, "  relations: %d\n", stats.TotalRelations)
	for _, kind := range sortedKindKeys(stats) {
		fmt.Fprintf(w, "  %-9s %d\n", strings.ToLower(string(kind))+":", stats.EntityKinds[kind])
	}
	for _, t := range sortedTypeKeys(stats) {
		fmt.Fprintf(w, "  %-14s %d\n", strings.ToLower(string(t))+":", stats.RelationTypes[t])
	}
	return nil
}

func sortedKindKeys(s Stats) []entity.Kind {
	keys := make([]entity.Kind, 0, len(s.EntityKinds))
	for k := range s.EntityKinds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedTypeKeys(s Stats) []relation.Type {
	keys := make([]relation.Type, 0, len(s.RelationTypes))
	for t := range s.RelationTypes {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
