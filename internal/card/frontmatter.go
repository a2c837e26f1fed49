package card

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata keys written or read by the pipeline. Custom keys added by other
// tools are preserved verbatim through parse/serialize.
const (
	KeyTitle              = "title"
	KeyGenres             = "genres"
	KeySpotifyData        = "spotify_data"
	KeyTopTracks          = "top_tracks"
	KeyAssociatedActs     = "associated_acts"
	KeyExternalURLs       = "external_urls"
	KeyLastUpdated        = "last_updated"
	KeyEnhancedAt         = "biography_enhanced_at"
	KeyDataQuality        = "data_quality"
	KeyConnections        = "musical_connections"
	KeyPrimarySource      = "primary_source"
	KeyResearchSources    = "research_sources"
	KeyOriginalWikiURL    = "original_wikipedia_url"
	KeyRecoveryAttempted  = "recovery_attempted_at"
	KeyQuarantineReason   = "quarantine_reason"
	KeyQuarantineDate     = "quarantine_date"
	KeyOriginalIssues     = "original_detection_issues"
	KeyOriginalLocation   = "original_location"
	KeyProvider           = "enhancement_provider"
	KeyNetworkExtracted   = "network_extracted"
	KeySourceVerified     = "source_verified"
)

// Nested keys under external_urls.
const (
	URLSpotify     = "spotify"
	URLWikipedia   = "wikipedia"
	URLMusicBrainz = "musicbrainz"
)

// Data quality states.
const (
	QualityNormal      = "normal"
	QualityProblematic = "problematic"
	QualityValidated   = "validated"
)

// Frontmatter is an order-preserving YAML mapping. Keys keep their original
// document order; new keys append at the end.
type Frontmatter struct {
	root *yaml.Node
}

// NewFrontmatter returns an empty mapping.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{root: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func newFrontmatterFrom(node *yaml.Node) *Frontmatter {
	if node == nil || node.Kind != yaml.MappingNode {
		return NewFrontmatter()
	}
	return &Frontmatter{root: node}
}

// Len reports the number of top-level keys.
func (f *Frontmatter) Len() int {
	return len(f.root.Content) / 2
}

// Keys returns the top-level keys in document order.
func (f *Frontmatter) Keys() []string {
	keys := make([]string, 0, f.Len())
	for i := 0; i+1 < len(f.root.Content); i += 2 {
		keys = append(keys, f.root.Content[i].Value)
	}
	return keys
}

// Has reports whether key is present.
func (f *Frontmatter) Has(key string) bool {
	_, ok := f.lookup(key)
	return ok
}

// String returns the scalar value for key, or "" when absent or non-scalar.
func (f *Frontmatter) String(key string) string {
	node, ok := f.lookup(key)
	if !ok || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

// Bool returns the boolean value for key, defaulting to false.
func (f *Frontmatter) Bool(key string) bool {
	return f.String(key) == "true"
}

// StringList returns the sequence value for key as strings. A scalar value is
// returned as a single-element list so sloppy hand-edited cards still read.
func (f *Frontmatter) StringList(key string) []string {
	node, ok := f.lookup(key)
	if !ok {
		return nil
	}
	switch node.Kind {
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode && item.Value != "" {
				out = append(out, item.Value)
			}
		}
		return out
	case yaml.ScalarNode:
		if node.Value == "" {
			return nil
		}
		return []string{node.Value}
	}
	return nil
}

// SetString sets key to a scalar value, replacing any existing value.
func (f *Frontmatter) SetString(key, value string) {
	f.set(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

// SetBool sets key to a YAML boolean.
func (f *Frontmatter) SetBool(key string, value bool) {
	f.set(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", value)})
}

// SetInt sets key to a YAML integer.
func (f *Frontmatter) SetInt(key string, value int) {
	f.set(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", value)})
}

// SetStringList sets key to a sequence of scalars.
func (f *Frontmatter) SetStringList(key string, values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	f.set(key, seq)
}

// Delete removes key if present.
func (f *Frontmatter) Delete(key string) {
	for i := 0; i+1 < len(f.root.Content); i += 2 {
		if f.root.Content[i].Value == key {
			f.root.Content = append(f.root.Content[:i], f.root.Content[i+2:]...)
			return
		}
	}
}

// Child returns the nested mapping under key, creating it when absent. Used
// for external_urls and similar grouped keys.
func (f *Frontmatter) Child(key string) *Frontmatter {
	node, ok := f.lookup(key)
	if ok && node.Kind == yaml.MappingNode {
		return &Frontmatter{root: node}
	}
	child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	f.set(key, child)
	return &Frontmatter{root: child}
}

// ChildIfPresent returns the nested mapping under key, or nil when absent.
func (f *Frontmatter) ChildIfPresent(key string) *Frontmatter {
	node, ok := f.lookup(key)
	if !ok || node.Kind != yaml.MappingNode {
		return nil
	}
	return &Frontmatter{root: node}
}

func (f *Frontmatter) lookup(key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(f.root.Content); i += 2 {
		if f.root.Content[i].Value == key {
			return f.root.Content[i+1], true
		}
	}
	return nil, false
}

func (f *Frontmatter) set(key string, value *yaml.Node) {
	for i := 0; i+1 < len(f.root.Content); i += 2 {
		if f.root.Content[i].Value == key {
			f.root.Content[i+1] = value
			return
		}
	}
	f.root.Content = append(f.root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value)
}

func (f *Frontmatter) encode() (string, error) {
	if f.Len() == 0 {
		return "", nil
	}
	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.root); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return buf.String(), nil
}
