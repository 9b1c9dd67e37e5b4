package relation

// Synthesize expands candidates with the mirror relation of every directed
// edge: RESIDENCE gets a HAS_RESIDENT back-edge, symmetric types get the
// reversed edge of the same type. Candidates are visited in input order and
// one running seen-set spans both originals and synthesized mirrors, so no
// (source, target, type) triple is ever emitted twice — including when two
// originals would synthesize the same mirror, or when the mirror already
// exists among the originals.
func Synthesize(candidates []Candidate) []Candidate {
	seen := make(map[tripleKey]struct{}, 2*len(candidates))
	out := make([]Candidate, 0, 2*len(candidates))
	for _, c := range candidates {
		k := c.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}

	originals := out
	for _, c := range originals {
		mk := c.mirrorKey()
		if _, dup := seen[mk]; dup {
			continue
		}
		seen[mk] = struct{}{}
		out = append(out, Candidate{
			Source:     c.Target,
			Target:     c.Source,
			Type:       c.Type.Mirror(),
			Confidence: c.Confidence,
			Context:    c.Context,
			SourceKind: c.TargetKind,
			TargetKind: c.SourceKind,
			IsReverse:  true,
		})
	}
	return out
}
