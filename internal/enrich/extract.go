package enrich

import (
	"regexp"
	"strings"

	"liner/internal/card"
	"liner/internal/research"
)

var (
	worksSuffix  = regexp.MustCompile(`\(([^()]*)\)\s*$`)
	periodSuffix = regexp.MustCompile(`\[([^\[\]]*)\]\s*$`)
)

// ExtractConnections parses the Musical Connections section of a card body
// back into structured relationships. Lines that do not follow the rendered
// "- Name - context" shape are skipped rather than guessed at.
func ExtractConnections(body string) research.Connections {
	section, ok := card.ExtractSection(body, card.SectionConnections)
	if !ok {
		return research.Connections{}
	}
	return research.Connections{
		Mentors:       parseSubsection(section, card.SubsectionMentors),
		Collaborators: parseSubsection(section, card.SubsectionCollaborators),
		Influenced:    parseSubsection(section, card.SubsectionInfluenced),
	}
}

func parseSubsection(section, header string) []research.Relationship {
	content, ok := card.ExtractSection(section, header)
	if !ok {
		return nil
	}
	var rels []research.Relationship
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		name, detail, found := strings.Cut(line[2:], " - ")
		name = strings.TrimSpace(name)
		if name == "" || !found {
			continue
		}
		rel := research.Relationship{
			Name:       name,
			Confidence: research.DefaultRelationshipConfidence,
		}
		detail = strings.TrimSpace(detail)
		if m := periodSuffix.FindStringSubmatch(detail); m != nil {
			rel.TimePeriod = strings.TrimSpace(m[1])
			detail = strings.TrimSpace(detail[:len(detail)-len(m[0])])
		}
		if m := worksSuffix.FindStringSubmatch(detail); m != nil {
			rel.SpecificWorks = strings.TrimSpace(m[1])
			detail = strings.TrimSpace(detail[:len(detail)-len(m[0])])
		}
		rel.Context = detail
		rels = append(rels, rel)
	}
	return rels
}
