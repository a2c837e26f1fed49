package enrich

import (
	"strings"

	"liner/internal/research"
)

// VerifyAgainstSource keeps only relationships whose artist name appears in
// the source article text, case-insensitively. An empty source verifies
// nothing and returns the connections untouched, since absence of a source
// is not evidence against them.
func VerifyAgainstSource(conns research.Connections, source string) (research.Connections, int) {
	if source == "" || conns.Empty() {
		return conns, 0
	}
	sourceLower := strings.ToLower(source)
	dropped := 0
	keep := func(rels []research.Relationship) []research.Relationship {
		var out []research.Relationship
		for _, rel := range rels {
			if strings.Contains(sourceLower, strings.ToLower(rel.Name)) {
				out = append(out, rel)
			} else {
				dropped++
			}
		}
		return out
	}
	verified := research.Connections{
		Mentors:       keep(conns.Mentors),
		Collaborators: keep(conns.Collaborators),
		Influenced:    keep(conns.Influenced),
	}
	return verified, dropped
}
