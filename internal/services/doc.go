// Package services defines shared utilities consumed by the pipeline stages
// and the external provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp card keys, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate provider
//     and stage failures into consistent ledger statuses.
//
// Use these helpers when wiring new provider or stage logic so operational
// behaviour (error handling, observability) stays uniform across the
// pipeline.
package services
