package enrich

import (
	"time"

	"liner/internal/card"
	"liner/internal/research"
)

// ProviderPerplexity is the provider label stamped into enriched cards.
const ProviderPerplexity = "perplexity"

// Apply writes a research result into a card: the Biography section is
// replaced with the cleaned prose plus a provenance footer, Fun Facts and
// Musical Connections sections are rewritten when the result carries them,
// and the frontmatter gains the enhancement stamp. The card is only mutated
// in memory; persisting it is the caller's job.
func Apply(doc *card.Document, res *research.Result, provider string, now time.Time) {
	bio := card.CleanupArtifacts(res.Biography)
	if bio != "" {
		bio += "\n\n*Enhanced with " + provider + " research*"
		doc.Body = card.ReplaceSection(doc.Body, card.SectionBiography, bio)
	}
	if len(res.FunFacts) > 0 {
		doc.Body = card.ReplaceSection(doc.Body, card.SectionFunFacts, RenderFunFacts(res.FunFacts))
	}
	if !res.Connections.Empty() {
		doc.Body = card.ReplaceSection(doc.Body, card.SectionConnections, RenderConnections(res.Connections))
	}

	doc.Meta.SetString(card.KeyEnhancedAt, now.Format(time.RFC3339))
	doc.Meta.SetString(card.KeyProvider, provider)
	if len(res.Sources) > 0 {
		doc.Meta.SetString(card.KeyPrimarySource, provider)
		doc.Meta.SetStringList(card.KeyResearchSources, res.Sources)
	}
	if !res.Connections.Empty() {
		stored := doc.Meta.Child(card.KeyConnections)
		setNames(stored, "mentors", res.Connections.Mentors)
		setNames(stored, "collaborators", res.Connections.Collaborators)
		setNames(stored, "influenced", res.Connections.Influenced)
		doc.Meta.SetBool(card.KeyNetworkExtracted, true)
		doc.Meta.SetBool(card.KeySourceVerified, true)
	}
	if res.WikipediaURL != "" && doc.WikipediaURL() == "" {
		doc.SetWikipediaURL(res.WikipediaURL)
	}
}

func setNames(meta *card.Frontmatter, key string, rels []research.Relationship) {
	if len(rels) == 0 {
		return
	}
	meta.SetStringList(key, research.Names(rels))
}
