package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"liner/internal/card"
	"liner/internal/enrich"
	"liner/internal/graph"
	"liner/internal/identity"
	"liner/internal/ledger"
	"liner/internal/library"
	"liner/internal/logging"
	"liner/internal/recovery"
	"liner/internal/research"
	"liner/internal/services"
)

// processCard runs one card through the state machine. Every exit path
// leaves a terminal status in the ledger; card-level failures are recorded,
// logged, and never abort the batch.
func (p *Pipeline) processCard(ctx context.Context, run *ledger.Run, relGraph *graph.Graph, entry library.Entry, opts Options) {
	ctx = services.WithRunID(ctx, run.ID)
	ctx = services.WithCardKey(ctx, entry.Key)
	logger := logging.WithContext(ctx, p.logger)

	item, err := p.store.NewItem(ctx, run.ID, entry.Key, identity.DisplayName(entry.Key))
	if err != nil {
		logger.Error("ledger insert failed", logging.Error(err))
		return
	}

	status, statusErr := p.advanceCard(ctx, item, relGraph, entry, opts, logger)
	item.Status = status
	if statusErr != nil {
		item.ErrorMessage = statusErr.Error()
	}
	if err := p.store.Update(ctx, item); err != nil {
		logger.Error("ledger update failed", logging.Error(err))
	}
	logger.Info("card processed",
		logging.String(logging.FieldArtist, item.Artist),
		logging.String("outcome", string(status)))
}

// advanceCard holds the actual decision logic and returns the terminal
// status. The ledger item is mutated along the way (artist, confidence,
// issues, connection counts) but persisted by the caller.
func (p *Pipeline) advanceCard(ctx context.Context, item *ledger.Item, relGraph *graph.Graph, entry library.Entry, opts Options, logger *slog.Logger) (ledger.Status, error) {
	doc, _, err := p.lib.Read(entry.Key)
	if err != nil {
		p.notifyError(ctx, err, entry.Key)
		return ledger.StatusFailed, err
	}
	if title := doc.Title(); title != "" {
		item.Artist = title
	}

	// Entry guards. Neither is an error: enhanced cards are done until
	// forced, and a card with no encyclopedia anchor has nothing to verify
	// research against.
	if doc.Enhanced() && !opts.Force {
		logger.Debug("card already enhanced")
		return ledger.StatusSkippedEnhanced, nil
	}
	if doc.WikipediaURL() == "" {
		logger.Debug("card has no encyclopedia anchor")
		return ledger.StatusSkippedNoAnchor, nil
	}

	subject := research.Subject{
		Name:         item.Artist,
		Key:          entry.Key,
		Genres:       doc.Meta.StringList(card.KeyGenres),
		WikipediaURL: doc.WikipediaURL(),
	}

	suggestedSearch := ""
	suspicious := false
	if !opts.SkipDetection {
		item.Status = ledger.StatusClassifying
		if err := p.store.Update(ctx, item); err != nil {
			logger.Warn("ledger transition failed", logging.Error(err))
		}

		result := p.classifier.Classify(doc, entry.Key)
		item.Confidence = result.Confidence
		item.Issues = result.Issues
		suspicious = result.Suspicious

		if !suspicious {
			// Second-chance detector for clean-looking cards: ask the
			// provider whether the existing biography describes a musician
			// at all.
			if verdict := p.verifyExisting(ctx, subject, doc, logger); verdict != nil {
				suspicious = true
				suggestedSearch = verdict.SuggestedSearch
				item.Confidence = verdict.Confidence
				item.Issues = append(item.Issues, verdict.Issues...)
				if len(item.Issues) == 0 && verdict.Reason != "" {
					item.Issues = []string{verdict.Reason}
				}
			}
		}
	}

	if suspicious {
		return p.recoverOrQuarantine(ctx, item, relGraph, entry, doc, subject, suggestedSearch, opts, logger)
	}
	return p.enrichCard(ctx, item, relGraph, entry, doc, subject, opts, logger)
}

// verifyExisting runs the provider verification pass over the card's current
// biography. It returns a non-nil verdict only when the provider explicitly
// flags the card; any provider failure or ambiguity counts as accurate.
func (p *Pipeline) verifyExisting(ctx context.Context, subject research.Subject, doc *card.Document, logger *slog.Logger) *research.Verification {
	biography, ok := card.ExtractSection(doc.Body, card.SectionBiography)
	biography = strings.TrimSpace(biography)
	if !ok || biography == "" {
		return nil
	}

	verdict, err := p.researcher.VerifyBiography(ctx, subject, biography)
	p.pace(ctx)
	if err != nil || verdict == nil {
		return nil
	}
	flagged := !verdict.Accurate
	switch strings.ToLower(verdict.EntityType) {
	case "album", "song":
		flagged = true
	}
	if !flagged {
		return nil
	}
	logger.Warn("verification flagged existing biography",
		logging.String(logging.FieldArtist, subject.Name),
		logging.String("entity_type", verdict.EntityType),
		logging.Float64("confidence", verdict.Confidence),
		logging.String("reason", verdict.Reason))
	return verdict
}

func (p *Pipeline) recoverOrQuarantine(ctx context.Context, item *ledger.Item, relGraph *graph.Graph, entry library.Entry, doc *card.Document, subject research.Subject, suggestedSearch string, opts Options, logger *slog.Logger) (ledger.Status, error) {
	item.Status = ledger.StatusRecovering
	if err := p.store.Update(ctx, item); err != nil {
		logger.Warn("ledger transition failed", logging.Error(err))
	}

	outcome := p.agent.Attempt(ctx, subject, suggestedSearch)
	p.pace(ctx)
	if !outcome.Success {
		return p.quarantineCard(ctx, item, entry, doc, outcome.Reason, opts, logger)
	}

	result := outcome.Result
	if outcome.SourceText != "" && !result.Connections.Empty() {
		verified, dropped := enrich.VerifyAgainstSource(result.Connections, outcome.SourceText)
		if dropped > 0 {
			logger.Info("dropped unverified connections",
				logging.Int("dropped", dropped),
				logging.Int("kept", verified.Total()))
		}
		result.Connections = verified
	}

	recovery.MarkRecovered(doc, result.WikipediaURL, time.Now())
	enrich.Apply(doc, result, enrich.ProviderPerplexity, time.Now())
	item.Connections = result.Connections.Total()

	if !opts.DryRun {
		if err := p.lib.Write(entry.Key, doc); err != nil {
			p.notifyError(ctx, err, entry.Key)
			return ledger.StatusFailed, err
		}
		if !result.Connections.Empty() {
			relGraph.Set(subject.Name, result.Connections, time.Now())
		}
		if err := p.notifier.NotifyRecovered(ctx, subject.Name); err != nil {
			logger.Warn("recovery notification failed", logging.Error(err))
		}
	}
	return ledger.StatusRecovered, nil
}

func (p *Pipeline) quarantineCard(ctx context.Context, item *ledger.Item, entry library.Entry, doc *card.Document, reason string, opts Options, logger *slog.Logger) (ledger.Status, error) {
	if reason == "" {
		reason = fmt.Sprintf("suspicion confidence %.2f at or above threshold", item.Confidence)
	}
	if opts.DryRun {
		logger.Info("dry run: would quarantine",
			logging.String(logging.FieldArtist, item.Artist),
			logging.String("reason", reason))
		return ledger.StatusQuarantined, nil
	}
	if _, err := p.quar.Quarantine(entry.Key, doc, reason, item.Issues, time.Now()); err != nil {
		p.notifyError(ctx, err, entry.Key)
		return ledger.StatusFailed, err
	}
	if err := p.notifier.NotifyQuarantine(ctx, item.Artist, reason); err != nil {
		logger.Warn("quarantine notification failed", logging.Error(err))
	}
	return ledger.StatusQuarantined, nil
}

func (p *Pipeline) enrichCard(ctx context.Context, item *ledger.Item, relGraph *graph.Graph, entry library.Entry, doc *card.Document, subject research.Subject, opts Options, logger *slog.Logger) (ledger.Status, error) {
	item.Status = ledger.StatusResearching
	if err := p.store.Update(ctx, item); err != nil {
		logger.Warn("ledger transition failed", logging.Error(err))
	}

	if p.metadata != nil {
		profile, err := p.metadata.ArtistProfile(ctx, subject.Name)
		p.pace(ctx)
		if err != nil {
			logger.Debug("metadata refresh unavailable", logging.Error(err))
		} else if profile != nil {
			if len(profile.Genres) > 0 {
				subject.Genres = profile.Genres
				doc.Meta.SetStringList(card.KeyGenres, profile.Genres)
			}
			subject.Popularity = profile.Popularity
			spotifyData := doc.Meta.Child(card.KeySpotifyData)
			spotifyData.SetInt("popularity", profile.Popularity)
			spotifyData.SetInt("followers", profile.Followers)
			if profile.SpotifyURL != "" {
				doc.Meta.Child(card.KeyExternalURLs).SetString(card.URLSpotify, profile.SpotifyURL)
			}
		}
	}

	result, err := p.researcher.Research(ctx, subject)
	p.pace(ctx)
	if err != nil {
		p.notifyError(ctx, err, subject.Name)
		return ledger.StatusFailed, err
	}

	enrich.Apply(doc, result, enrich.ProviderPerplexity, time.Now())
	item.Connections = result.Connections.Total()

	if !opts.DryRun {
		if err := p.lib.Write(entry.Key, doc); err != nil {
			p.notifyError(ctx, err, entry.Key)
			return ledger.StatusFailed, err
		}
		if !result.Connections.Empty() {
			relGraph.Set(subject.Name, result.Connections, time.Now())
		}
	}
	return ledger.StatusEnhanced, nil
}
