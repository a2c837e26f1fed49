// Package classify scores artist cards for signs of a bad source match,
// typically a Wikipedia page about food, a genre, or a list rather than the
// artist. Scoring is additive over independent heuristic checks and fully
// offline; no network calls happen here.
package classify
