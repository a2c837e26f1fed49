// Package enrich turns research results into card content: it renders the
// Fun Facts and Musical Connections sections, stamps enhancement metadata
// into the frontmatter, and reads connection lists back out of already
// enriched cards. Rendering and parsing share one line format so the two
// stay inverse operations.
package enrich
