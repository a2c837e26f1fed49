package enrich

import (
	"fmt"
	"strings"

	"liner/internal/card"
	"liner/internal/research"
)

// RenderRelationship formats one connection line. The format is load-bearing:
// ExtractConnections and the relationship graph both parse it back.
func RenderRelationship(rel research.Relationship) string {
	parts := []string{rel.Context}
	if rel.SpecificWorks != "" {
		parts = append(parts, fmt.Sprintf("(%s)", rel.SpecificWorks))
	}
	if rel.TimePeriod != "" {
		parts = append(parts, fmt.Sprintf("[%s]", rel.TimePeriod))
	}
	return fmt.Sprintf("- %s - %s", rel.Name, strings.Join(parts, " "))
}

// RenderConnections renders the Musical Connections section body with its
// three subsections. Empty categories are omitted.
func RenderConnections(c research.Connections) string {
	var buf strings.Builder
	write := func(header string, rels []research.Relationship) {
		if len(rels) == 0 {
			return
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(header + "\n\n")
		for _, rel := range rels {
			buf.WriteString(RenderRelationship(rel) + "\n")
		}
	}
	write(card.SubsectionMentors, c.Mentors)
	write(card.SubsectionCollaborators, c.Collaborators)
	write(card.SubsectionInfluenced, c.Influenced)
	return strings.TrimRight(buf.String(), "\n")
}

// RenderFunFacts renders the Fun Facts section body as a bullet list.
func RenderFunFacts(facts []string) string {
	lines := make([]string, 0, len(facts))
	for _, fact := range facts {
		fact = strings.TrimSpace(fact)
		if fact == "" {
			continue
		}
		lines = append(lines, "- "+fact)
	}
	return strings.Join(lines, "\n")
}
