// Package pipeline orchestrates an enhancement run over the card library.
//
// Each card moves through a small state machine: entry guards (already
// enhanced, no encyclopedia anchor), suspicion classification, then either
// the enrichment path (research, format, write) or the recovery path
// (re-research, credibility judgment, rewrite or quarantine). Outcomes are
// recorded in the run ledger and the relationship graph is flushed once at
// the end of the batch.
//
// Processing is strictly sequential. The relationship graph and quarantine
// log are shared, unsynchronized state, and provider pacing assumes one
// in-flight call at a time.
package pipeline
