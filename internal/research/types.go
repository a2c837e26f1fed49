package research

import (
	"context"
	"strings"
)

// DefaultRelationshipConfidence is assigned to relationships the provider
// returned without a score. Web-searched results are trusted highly by
// default; the verification pass can still strike them.
const DefaultRelationshipConfidence = 0.95

// Subject carries everything known about an artist before research starts.
// All fields beyond Name are optional context that sharpens provider queries.
type Subject struct {
	Name         string
	Key          string
	Genres       []string
	TopTracks    []string
	Popularity   int
	WikipediaURL string
}

// Relationship links the subject to another artist with provenance detail.
type Relationship struct {
	Name          string  `json:"name"`
	Context       string  `json:"context"`
	SpecificWorks string  `json:"specific_works,omitempty"`
	TimePeriod    string  `json:"time_period,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
}

// Connections groups relationships by direction of influence.
type Connections struct {
	Mentors       []Relationship `json:"mentors,omitempty"`
	Collaborators []Relationship `json:"collaborators,omitempty"`
	Influenced    []Relationship `json:"influenced,omitempty"`
}

// Total counts relationships across all categories.
func (c Connections) Total() int {
	return len(c.Mentors) + len(c.Collaborators) + len(c.Influenced)
}

// Empty reports whether no relationships are present.
func (c Connections) Empty() bool { return c.Total() == 0 }

// Names returns just the artist names from a category, in order.
func Names(rels []Relationship) []string {
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		out = append(out, rel.Name)
	}
	return out
}

// Result is a completed research pass over one artist.
type Result struct {
	Biography    string      `json:"biography"`
	Connections  Connections `json:"connections"`
	FunFacts     []string    `json:"fun_facts,omitempty"`
	WikipediaURL string      `json:"wikipedia_url,omitempty"`
	Sources      []string    `json:"sources,omitempty"`
}

// Normalize cleans a provider response in place: nameless relationships are
// dropped, missing confidences get the default, and all confidences are
// clamped into [0, 1].
func (r *Result) Normalize() {
	r.Connections.Mentors = normalizeRelationships(r.Connections.Mentors)
	r.Connections.Collaborators = normalizeRelationships(r.Connections.Collaborators)
	r.Connections.Influenced = normalizeRelationships(r.Connections.Influenced)
	r.Biography = strings.TrimSpace(r.Biography)
}

func normalizeRelationships(rels []Relationship) []Relationship {
	out := rels[:0]
	for _, rel := range rels {
		rel.Name = strings.TrimSpace(rel.Name)
		if rel.Name == "" {
			continue
		}
		switch {
		case rel.Confidence <= 0:
			rel.Confidence = DefaultRelationshipConfidence
		case rel.Confidence > 1:
			rel.Confidence = 1
		}
		out = append(out, rel)
	}
	return out
}

// Verification is the outcome of asking a provider whether a biography
// actually describes the subject.
type Verification struct {
	Accurate        bool     `json:"is_accurate"`
	Confidence      float64  `json:"confidence"`
	EntityType      string   `json:"entity_type,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	Issues          []string `json:"issues,omitempty"`
	SuggestedSearch string   `json:"suggested_search,omitempty"`
}

// SearchHit is one encyclopedia search result.
type SearchHit struct {
	Title       string
	Description string
	URL         string
}

// ArtistProfile is streaming-catalog metadata about an artist.
type ArtistProfile struct {
	Name       string
	Genres     []string
	Popularity int
	Followers  int
	SpotifyURL string
}

// Researcher performs web-backed research and accuracy verification.
type Researcher interface {
	Research(ctx context.Context, subject Subject) (*Result, error)
	VerifyBiography(ctx context.Context, subject Subject, biography string) (*Verification, error)
}

// Encyclopedia fetches article text and runs title searches.
type Encyclopedia interface {
	ArticleText(ctx context.Context, pageURL string) (string, error)
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// MetadataProvider refreshes catalog metadata for an artist.
type MetadataProvider interface {
	ArtistProfile(ctx context.Context, name string) (*ArtistProfile, error)
}
