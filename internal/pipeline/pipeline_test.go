package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"liner/internal/card"
	"liner/internal/config"
	"liner/internal/ledger"
	"liner/internal/library"
	"liner/internal/logging"
	"liner/internal/pipeline"
	"liner/internal/quarantine"
	"liner/internal/research"
	"liner/internal/testsupport"
)

type fakeResearcher struct {
	result        *research.Result
	researchErr   error
	verification  *research.Verification
	researchCalls int
	verifyCalls   int
	lastSubject   research.Subject
}

func (f *fakeResearcher) Research(ctx context.Context, subject research.Subject) (*research.Result, error) {
	f.researchCalls++
	f.lastSubject = subject
	if f.researchErr != nil {
		return nil, f.researchErr
	}
	res := *f.result
	res.Normalize()
	return &res, nil
}

func (f *fakeResearcher) VerifyBiography(ctx context.Context, subject research.Subject, biography string) (*research.Verification, error) {
	f.verifyCalls++
	if f.verification != nil {
		return f.verification, nil
	}
	return &research.Verification{Accurate: true, Confidence: 0.9}, nil
}

func goodResult() *research.Result {
	return &research.Result{
		Biography: "Muddy Waters was an American blues musician whose electric band " +
			"reshaped Chicago blues. His albums for Chess Records made him a towering " +
			"figure in postwar American music, and his songs were recorded by artists " +
			"across generations. He performed constantly and mentored the players who " +
			"passed through his band on record after record.",
		Connections: research.Connections{
			Mentors:       []research.Relationship{{Name: "Son House", Context: "early slide guitar model"}},
			Collaborators: []research.Relationship{{Name: "Otis Spann", Context: "longtime pianist", TimePeriod: "1953-1969"}},
			Influenced:    []research.Relationship{{Name: "The Rolling Stones", Context: "named after his song"}},
		},
		FunFacts: []string{"Took his stage name from a childhood nickname."},
		Sources:  []string{"https://en.wikipedia.org/wiki/Muddy_Waters"},
	}
}

func newPipeline(t *testing.T, cfg *config.Config, researcher research.Researcher) (*pipeline.Pipeline, *ledger.Store) {
	t.Helper()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenLedger(t, cfg)
	lib := library.New(cfg.Paths, logging.NewNop())
	p, err := pipeline.New(cfg, pipeline.Deps{
		Library:    lib,
		Store:      store,
		Researcher: researcher,
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p, store
}

func readCard(t *testing.T, cfg *config.Config, key string) *card.Document {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(cfg.Paths.CardsDir, key+".md"))
	if err != nil {
		t.Fatalf("read card: %v", err)
	}
	doc, malformed := card.Parse(string(raw))
	if malformed {
		t.Fatalf("card frontmatter unreadable:\n%s", raw)
	}
	return doc
}

func TestRunEnhancesCleanCard(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Muddy_Waters",
		testsupport.CleanCard("Muddy Waters", "https://en.wikipedia.org/wiki/Muddy_Waters"))

	researcher := &fakeResearcher{result: goodResult()}
	p, store := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Processed != 1 || stats.Enhanced != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if stats.ConnectionsFound != 3 {
		t.Fatalf("expected 3 connections, got %d", stats.ConnectionsFound)
	}
	if researcher.researchCalls != 1 {
		t.Fatalf("expected 1 research call, got %d", researcher.researchCalls)
	}

	doc := readCard(t, cfg, "Muddy_Waters")
	if !doc.Enhanced() {
		t.Fatal("expected enhancement stamp on card")
	}
	if !strings.Contains(doc.Body, "- Son House - early slide guitar model") {
		t.Fatalf("expected rendered mentor line, got body:\n%s", doc.Body)
	}
	if !strings.Contains(doc.Body, "*Enhanced with perplexity research*") {
		t.Fatal("expected provenance footer in biography")
	}

	graphRaw, err := os.ReadFile(cfg.Paths.GraphPath)
	if err != nil {
		t.Fatalf("read graph: %v", err)
	}
	if !strings.Contains(string(graphRaw), "Otis Spann") {
		t.Fatalf("expected collaborator in graph file, got:\n%s", graphRaw)
	}

	item, err := store.LatestForCard(context.Background(), "Muddy_Waters")
	if err != nil {
		t.Fatalf("LatestForCard: %v", err)
	}
	if item == nil || item.Status != ledger.StatusEnhanced {
		t.Fatalf("unexpected ledger item: %#v", item)
	}
}

func TestRunSkipsEnhancedCardUnlessForced(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	content := strings.Replace(
		testsupport.CleanCard("Muddy Waters", "https://en.wikipedia.org/wiki/Muddy_Waters"),
		"type: artist\n",
		"type: artist\nbiography_enhanced_at: 2026-01-15T10:00:00Z\n", 1)
	testsupport.WriteCard(t, cfg, "Muddy_Waters", content)

	researcher := &fakeResearcher{result: goodResult()}
	p, _ := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.SkippedEnhanced != 1 || stats.Enhanced != 0 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if researcher.researchCalls != 0 {
		t.Fatalf("expected no research calls, got %d", researcher.researchCalls)
	}

	stats, err = p.Run(context.Background(), pipeline.Options{Force: true})
	if err != nil {
		t.Fatalf("forced Run failed: %v", err)
	}
	if stats.Enhanced != 1 {
		t.Fatalf("expected forced enhancement, got %#v", stats)
	}
}

func TestRunSkipsCardWithoutAnchor(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Mystery_Act",
		"---\ntitle: Mystery Act\ntype: artist\n---\n\n# Mystery Act\n\n## Biography\n\nNobody knows.\n")

	researcher := &fakeResearcher{result: goodResult()}
	p, _ := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.SkippedNoAnchor != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if researcher.researchCalls != 0 {
		t.Fatalf("expected no research calls, got %d", researcher.researchCalls)
	}
}

func suspiciousCard() string {
	return "---\n" +
		"title: Chicken Fried\n" +
		"type: artist\n" +
		"external_urls:\n" +
		"  wikipedia: https://en.wikipedia.org/wiki/Chicken_fried_food\n" +
		"---\n\n" +
		"# Chicken Fried\n\n" +
		"## Biography\n\n" +
		"This page does not contain information about a musician. The dish is " +
		"prepared by coating meat in flour and frying it in a pan.\n"
}

func TestRunQuarantinesUnrecoverableCard(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Chicken_Fried", suspiciousCard())

	researcher := &fakeResearcher{
		result: &research.Result{Biography: "No credible information exists about a musical act by this name."},
	}
	p, store := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Quarantined != 1 || stats.ProblemsDetected != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.CardsDir, "Chicken_Fried.md")); !os.IsNotExist(err) {
		t.Fatal("expected card removed from library")
	}
	moved, err := os.ReadFile(filepath.Join(cfg.Paths.QuarantineDir, "Chicken_Fried.md"))
	if err != nil {
		t.Fatalf("read quarantined card: %v", err)
	}
	if !strings.Contains(string(moved), "data_quality: problematic") {
		t.Fatalf("expected problematic quality flag, got:\n%s", moved)
	}

	logRaw, err := os.ReadFile(filepath.Join(cfg.Paths.QuarantineDir, quarantine.LogFileName))
	if err != nil {
		t.Fatalf("read quarantine log: %v", err)
	}
	if !strings.Contains(string(logRaw), "Chicken_Fried") {
		t.Fatalf("expected quarantine log record, got:\n%s", logRaw)
	}

	item, err := store.LatestForCard(context.Background(), "Chicken_Fried")
	if err != nil {
		t.Fatalf("LatestForCard: %v", err)
	}
	if item.Status != ledger.StatusQuarantined {
		t.Fatalf("expected quarantined status, got %s", item.Status)
	}
	if item.Confidence < 0.7 {
		t.Fatalf("expected recorded confidence at threshold, got %f", item.Confidence)
	}
}

func TestRunRecoversSuspiciousCard(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Chicken_Fried", suspiciousCard())

	result := goodResult()
	result.WikipediaURL = "https://en.wikipedia.org/wiki/Chicken_Fried_(band)"
	researcher := &fakeResearcher{result: result}
	p, store := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Recovered != 1 || stats.Quarantined != 0 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	doc := readCard(t, cfg, "Chicken_Fried")
	if doc.Meta.String(card.KeyDataQuality) != card.QualityValidated {
		t.Fatalf("expected validated quality, got %q", doc.Meta.String(card.KeyDataQuality))
	}
	if doc.Meta.String(card.KeyOriginalWikiURL) != "https://en.wikipedia.org/wiki/Chicken_fried_food" {
		t.Fatalf("expected original anchor preserved, got %q", doc.Meta.String(card.KeyOriginalWikiURL))
	}
	if doc.WikipediaURL() != "https://en.wikipedia.org/wiki/Chicken_Fried_(band)" {
		t.Fatalf("expected corrected anchor, got %q", doc.WikipediaURL())
	}

	item, err := store.LatestForCard(context.Background(), "Chicken_Fried")
	if err != nil {
		t.Fatalf("LatestForCard: %v", err)
	}
	if item.Status != ledger.StatusRecovered {
		t.Fatalf("expected recovered status, got %s", item.Status)
	}
}

func TestRunVerificationFlagsCleanLookingCard(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Arrival",
		testsupport.CleanCard("Arrival", "https://en.wikipedia.org/wiki/Arrival_(album)"))

	researcher := &fakeResearcher{
		result: goodResult(),
		verification: &research.Verification{
			Accurate:        false,
			Confidence:      0.9,
			EntityType:      "album",
			Reason:          "describes an ABBA album, not an artist",
			SuggestedSearch: "Arrival band",
		},
	}
	p, store := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if researcher.verifyCalls != 1 {
		t.Fatalf("expected 1 verification call, got %d", researcher.verifyCalls)
	}
	if stats.Recovered != 1 {
		t.Fatalf("expected verification to route into recovery, got %#v", stats)
	}

	item, err := store.LatestForCard(context.Background(), "Arrival")
	if err != nil {
		t.Fatalf("LatestForCard: %v", err)
	}
	if len(item.Issues) == 0 || !strings.Contains(item.Issues[0], "ABBA album") {
		t.Fatalf("expected verification reason in issues, got %#v", item.Issues)
	}
}

func TestRunSkipDetectionGoesStraightToEnrichment(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Chicken_Fried", suspiciousCard())

	researcher := &fakeResearcher{result: goodResult()}
	p, _ := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{SkipDetection: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Enhanced != 1 || stats.Quarantined != 0 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if researcher.verifyCalls != 0 {
		t.Fatalf("expected no verification calls, got %d", researcher.verifyCalls)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	original := testsupport.CleanCard("Muddy Waters", "https://en.wikipedia.org/wiki/Muddy_Waters")
	path := testsupport.WriteCard(t, cfg, "Muddy_Waters", original)

	researcher := &fakeResearcher{result: goodResult()}
	p, _ := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Enhanced != 1 {
		t.Fatalf("expected dry run to count outcomes, got %#v", stats)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read card: %v", err)
	}
	if string(after) != original {
		t.Fatal("expected card untouched in dry run")
	}
	if _, err := os.Stat(cfg.Paths.GraphPath); !os.IsNotExist(err) {
		t.Fatal("expected no graph file in dry run")
	}
}

func TestRunRecordsResearchFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Muddy_Waters",
		testsupport.CleanCard("Muddy Waters", "https://en.wikipedia.org/wiki/Muddy_Waters"))

	researcher := &fakeResearcher{researchErr: errors.New("provider unavailable")}
	p, store := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected one failure, got %#v", stats)
	}

	item, err := store.LatestForCard(context.Background(), "Muddy_Waters")
	if err != nil {
		t.Fatalf("LatestForCard: %v", err)
	}
	if item.Status != ledger.StatusFailed {
		t.Fatalf("expected failed status, got %s", item.Status)
	}
	if !strings.Contains(item.ErrorMessage, "provider unavailable") {
		t.Fatalf("expected error message recorded, got %q", item.ErrorMessage)
	}
}

func TestRunRestrictsToRequestedKeys(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Muddy_Waters",
		testsupport.CleanCard("Muddy Waters", "https://en.wikipedia.org/wiki/Muddy_Waters"))
	testsupport.WriteCard(t, cfg, "Etta_James",
		testsupport.CleanCard("Etta James", "https://en.wikipedia.org/wiki/Etta_James"))

	researcher := &fakeResearcher{result: goodResult()}
	p, _ := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{Keys: []string{"Etta_James"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Processed != 1 {
		t.Fatalf("expected single card processed, got %#v", stats)
	}
	if researcher.lastSubject.Name != "Etta James" {
		t.Fatalf("expected Etta James researched, got %q", researcher.lastSubject.Name)
	}
}

func TestRunEnhancesCardWithoutConnections(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRateLimit(0))
	testsupport.WriteCard(t, cfg, "Muddy_Waters",
		testsupport.CleanCard("Muddy Waters", "https://en.wikipedia.org/wiki/Muddy_Waters"))

	result := goodResult()
	result.Connections = research.Connections{}
	researcher := &fakeResearcher{result: result}
	p, store := newPipeline(t, cfg, researcher)

	stats, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Enhanced != 1 || stats.ConnectionsFound != 0 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	doc := readCard(t, cfg, "Muddy_Waters")
	if !doc.Enhanced() {
		t.Fatal("expected enhancement stamp despite empty connections")
	}
	if !strings.Contains(doc.Body, "*Enhanced with perplexity research*") {
		t.Fatal("expected rewritten biography on card")
	}
	if doc.Meta.Has(card.KeyConnections) {
		t.Fatal("expected no musical_connections key for connection-free result")
	}

	if _, err := os.Stat(cfg.Paths.GraphPath); !os.IsNotExist(err) {
		t.Fatalf("expected no graph file for connection-free run, stat err: %v", err)
	}

	item, err := store.LatestForCard(context.Background(), "Muddy_Waters")
	if err != nil {
		t.Fatalf("LatestForCard: %v", err)
	}
	if item == nil || item.Status != ledger.StatusEnhanced {
		t.Fatalf("unexpected ledger item: %#v", item)
	}
}
