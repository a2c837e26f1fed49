package card

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Document is a parsed artist card: ordered frontmatter and markdown body.
type Document struct {
	Meta *Frontmatter
	Body string
}

// Parse splits raw card text into frontmatter and body. Parsing never fails:
// text without a frontmatter block, or with YAML that does not decode, comes
// back with empty metadata and the full text as body. Callers that care about
// degraded parses check Malformed.
func Parse(raw string) (*Document, bool) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.HasPrefix(raw, delimiter+"\n") {
		return &Document{Meta: NewFrontmatter(), Body: raw}, strings.TrimSpace(raw) != ""
	}
	rest := raw[len(delimiter)+1:]
	var header, body string
	if idx := strings.Index(rest, "\n"+delimiter+"\n"); idx >= 0 {
		header = rest[:idx]
		body = rest[idx+len(delimiter)+2:]
	} else if strings.HasSuffix(rest, "\n"+delimiter) {
		header = rest[:len(rest)-len(delimiter)-1]
	} else {
		return &Document{Meta: NewFrontmatter(), Body: raw}, true
	}
	body = strings.TrimLeft(body, "\n")

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return &Document{Meta: NewFrontmatter(), Body: raw}, true
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return &Document{Meta: NewFrontmatter(), Body: body}, true
	}
	return &Document{Meta: newFrontmatterFrom(doc.Content[0]), Body: body}, false
}

// Serialize renders the document back to card text. Output always carries a
// frontmatter block (even an empty one) so a regenerated card parses cleanly,
// and ends with exactly one trailing newline.
func (d *Document) Serialize() (string, error) {
	header, err := d.Meta.encode()
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	buf.WriteString(delimiter + "\n")
	buf.WriteString(header)
	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(strings.TrimRight(d.Body, "\n"))
	buf.WriteString("\n")
	return buf.String(), nil
}

// Title returns the frontmatter title, falling back to the first level-one
// heading in the body.
func (d *Document) Title() string {
	if t := d.Meta.String(KeyTitle); t != "" {
		return t
	}
	for _, line := range strings.Split(d.Body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// Enhanced reports whether the card already carries an enhancement stamp.
func (d *Document) Enhanced() bool {
	return d.Meta.String(KeyEnhancedAt) != ""
}

// WikipediaURL returns the card's Wikipedia anchor, or "".
func (d *Document) WikipediaURL() string {
	urls := d.Meta.ChildIfPresent(KeyExternalURLs)
	if urls == nil {
		return ""
	}
	return urls.String(URLWikipedia)
}

// SetWikipediaURL records a new Wikipedia anchor.
func (d *Document) SetWikipediaURL(url string) {
	d.Meta.Child(KeyExternalURLs).SetString(URLWikipedia, url)
}
