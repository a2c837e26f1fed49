package recovery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"liner/internal/card"
	"liner/internal/logging"
	"liner/internal/research"
)

const credibleBiography = "The band formed in Memphis and released several influential albums. " +
	"Their music blended soul and rock, and the group toured relentlessly through the seventies. " +
	"Critics cite their records as a turning point for the genre, and later musicians covered their songs widely."

type fakeResearcher struct {
	result *research.Result
	err    error
}

func (f *fakeResearcher) Research(ctx context.Context, subject research.Subject) (*research.Result, error) {
	return f.result, f.err
}

func (f *fakeResearcher) VerifyBiography(ctx context.Context, subject research.Subject, biography string) (*research.Verification, error) {
	return &research.Verification{Accurate: true, Confidence: 1}, nil
}

type fakeEncyclopedia struct {
	hits     map[string][]research.SearchHit
	articles map[string]string
	searches []string
}

func (f *fakeEncyclopedia) Search(ctx context.Context, query string, limit int) ([]research.SearchHit, error) {
	f.searches = append(f.searches, query)
	return f.hits[query], nil
}

func (f *fakeEncyclopedia) ArticleText(ctx context.Context, pageURL string) (string, error) {
	text, ok := f.articles[pageURL]
	if !ok {
		return "", errors.New("no article")
	}
	return text, nil
}

func TestAttemptSucceedsWithCredibleResult(t *testing.T) {
	researcher := &fakeResearcher{result: &research.Result{
		Biography:    credibleBiography,
		WikipediaURL: "https://en.wikipedia.org/wiki/Big_Star",
	}}
	agent := NewAgent(researcher, nil, logging.NewNop())

	outcome := agent.Attempt(context.Background(), research.Subject{Name: "Big Star"}, "")
	if !outcome.Success {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Result.WikipediaURL != "https://en.wikipedia.org/wiki/Big_Star" {
		t.Fatalf("wikipedia url = %q", outcome.Result.WikipediaURL)
	}
}

func TestAttemptFailsOnResearchError(t *testing.T) {
	agent := NewAgent(&fakeResearcher{err: errors.New("provider down")}, nil, logging.NewNop())
	outcome := agent.Attempt(context.Background(), research.Subject{Name: "X"}, "")
	if outcome.Success {
		t.Fatalf("outcome should fail")
	}
	if !strings.Contains(outcome.Reason, "research failed") {
		t.Fatalf("reason = %q", outcome.Reason)
	}
}

func TestAttemptRejectsFailurePhrases(t *testing.T) {
	long := strings.Repeat("The subject has a long history in local media coverage. ", 10)
	researcher := &fakeResearcher{result: &research.Result{
		Biography: long + "Unfortunately this page is a recipe collection.",
	}}
	agent := NewAgent(researcher, nil, logging.NewNop())
	outcome := agent.Attempt(context.Background(), research.Subject{Name: "X"}, "")
	if outcome.Success {
		t.Fatalf("failure phrase accepted")
	}
	if !strings.Contains(outcome.Reason, "no credible artist info") {
		t.Fatalf("reason = %q", outcome.Reason)
	}
}

func TestAttemptRejectsShortBiography(t *testing.T) {
	researcher := &fakeResearcher{result: &research.Result{Biography: "A band."}}
	agent := NewAgent(researcher, nil, logging.NewNop())
	if outcome := agent.Attempt(context.Background(), research.Subject{Name: "X"}, ""); outcome.Success {
		t.Fatalf("short biography accepted")
	}
}

func TestAttemptRejectsNonMusicalText(t *testing.T) {
	researcher := &fakeResearcher{result: &research.Result{
		Biography: strings.Repeat("A company that manufactures industrial equipment in several countries. ", 5),
	}}
	agent := NewAgent(researcher, nil, logging.NewNop())
	outcome := agent.Attempt(context.Background(), research.Subject{Name: "X"}, "")
	if outcome.Success {
		t.Fatalf("non-musical text accepted")
	}
	if !strings.Contains(outcome.Reason, "lacks musical context") {
		t.Fatalf("reason = %q", outcome.Reason)
	}
}

func TestAttemptUsesSuggestedSearchFirst(t *testing.T) {
	researcher := &fakeResearcher{result: &research.Result{Biography: credibleBiography}}
	enc := &fakeEncyclopedia{
		hits: map[string][]research.SearchHit{
			"The Soul Rebels band": {
				{Title: "Soul Rebels (album)", Description: "1970 album", URL: "https://en.wikipedia.org/wiki/Soul_Rebels"},
				{Title: "The Soul Rebels", Description: "American brass band", URL: "https://en.wikipedia.org/wiki/The_Soul_Rebels"},
			},
		},
		articles: map[string]string{
			"https://en.wikipedia.org/wiki/The_Soul_Rebels": "The Soul Rebels are an American brass band from New Orleans.",
		},
	}
	agent := NewAgent(researcher, enc, logging.NewNop())

	outcome := agent.Attempt(context.Background(), research.Subject{Name: "The Soul Rebels"}, "The Soul Rebels band")
	if !outcome.Success {
		t.Fatalf("outcome = %+v", outcome)
	}
	if enc.searches[0] != "The Soul Rebels band" {
		t.Fatalf("first search = %q", enc.searches[0])
	}
	if outcome.SourceURL != "https://en.wikipedia.org/wiki/The_Soul_Rebels" {
		t.Fatalf("source url = %q (album page should be skipped)", outcome.SourceURL)
	}
	if !strings.Contains(outcome.SourceText, "brass band") {
		t.Fatalf("source text = %q", outcome.SourceText)
	}
	if outcome.Result.WikipediaURL != "https://en.wikipedia.org/wiki/The_Soul_Rebels" {
		t.Fatalf("result url = %q", outcome.Result.WikipediaURL)
	}
}

func TestExtractWikipediaURL(t *testing.T) {
	text := "See the article (https://en.wikipedia.org/wiki/Big_Star) for details."
	if got := ExtractWikipediaURL(text); got != "https://en.wikipedia.org/wiki/Big_Star" {
		t.Fatalf("url = %q", got)
	}
	if got := ExtractWikipediaURL("no links here"); got != "" {
		t.Fatalf("url = %q", got)
	}
}

func TestMarkRecovered(t *testing.T) {
	doc, _ := card.Parse("---\ntitle: X\nexternal_urls:\n  wikipedia: https://en.wikipedia.org/wiki/Wrong\n---\n\nbody\n")
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	MarkRecovered(doc, "https://en.wikipedia.org/wiki/Right", now)

	if got := doc.Meta.String(card.KeyDataQuality); got != card.QualityValidated {
		t.Fatalf("data_quality = %q", got)
	}
	if got := doc.Meta.String(card.KeyOriginalWikiURL); got != "https://en.wikipedia.org/wiki/Wrong" {
		t.Fatalf("original url = %q", got)
	}
	if got := doc.WikipediaURL(); got != "https://en.wikipedia.org/wiki/Right" {
		t.Fatalf("new url = %q", got)
	}
	if doc.Meta.String(card.KeyRecoveryAttempted) != "2026-08-30T12:00:00Z" {
		t.Fatalf("recovery_attempted_at = %q", doc.Meta.String(card.KeyRecoveryAttempted))
	}
}
