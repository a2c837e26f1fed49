package card

import (
	"strings"
)

// Canonical section headers. Section names are part of the on-disk contract;
// renaming one silently orphans content in every existing card.
const (
	SectionBiography   = "## Biography"
	SectionQuickInfo   = "## Quick Info"
	SectionFunFacts    = "## Fun Facts"
	SectionConnections = "## Musical Connections"
	SectionLinks       = "## External Links"

	SubsectionMentors       = "### Mentors/Influences"
	SubsectionCollaborators = "### Key Collaborators"
	SubsectionInfluenced    = "### Artists Influenced"
)

// headerLevel returns the heading level of a markdown line, or 0 when the
// line is not a heading.
func headerLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) || line[n] != ' ' {
		return 0
	}
	return n
}

// sectionSpan locates header in body and returns the byte range of its
// content: from the line after the header up to the next heading of equal or
// shallower level, or end of body. Returns ok=false when the header is not
// present.
func sectionSpan(body, header string) (headerStart, start, end int, ok bool) {
	level := headerLevel(header)
	lines := strings.Split(body, "\n")
	offset := 0
	headerStart, start = -1, -1
	for _, line := range lines {
		lineEnd := offset + len(line)
		if start < 0 {
			if strings.TrimRight(line, " \t") == header {
				headerStart = offset
				start = lineEnd
				if start < len(body) {
					start++ // past the newline
				}
			}
		} else if lvl := headerLevel(line); lvl > 0 && lvl <= level {
			return headerStart, start, offset, true
		}
		offset = lineEnd + 1
	}
	if start < 0 {
		return 0, 0, 0, false
	}
	return headerStart, start, len(body), true
}

// ExtractSection returns the trimmed content of the named section, and
// whether the section exists. Content runs from the header line to the next
// heading of equal or shallower level, so "## Musical Connections" includes
// its "###" subsections while "## Biography" stops at the next "##".
func ExtractSection(body, header string) (string, bool) {
	_, start, end, ok := sectionSpan(body, header)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(body[start:end]), true
}

// ReplaceSection swaps the content of the named section, appending the
// section at the end of the body when it is absent. Surrounding sections are
// untouched.
func ReplaceSection(body, header, content string) string {
	content = strings.TrimSpace(content)
	_, start, end, ok := sectionSpan(body, header)
	if !ok {
		out := strings.TrimRight(body, "\n")
		if out != "" {
			out += "\n\n"
		}
		return out + header + "\n\n" + content + "\n"
	}
	var buf strings.Builder
	buf.WriteString(body[:start])
	buf.WriteString("\n")
	buf.WriteString(content)
	buf.WriteString("\n\n")
	buf.WriteString(strings.TrimLeft(body[end:], "\n"))
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

// RemoveSection deletes the named section, header included. Removing a
// missing section is a no-op.
func RemoveSection(body, header string) string {
	headerStart, _, end, ok := sectionSpan(body, header)
	if !ok {
		return body
	}
	out := body[:headerStart] + strings.TrimLeft(body[end:], "\n")
	return strings.TrimRight(out, "\n") + "\n"
}
