// Package card models the per-artist markdown document: a YAML frontmatter
// header plus a sectioned prose body.
//
// The package owns the canonical section vocabulary and the
// header-to-next-header span rule that all mutation logic relies on.
// Parsing fails soft: a card with a missing or malformed header yields empty
// metadata rather than an error, because downstream code treats that as
// "needs regeneration". Serialize(Parse(x)) is stable for any card this
// pipeline itself produced.
package card
