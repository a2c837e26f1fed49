// Package recovery tries to rebuild a suspicious card from fresh research
// before it is given up on. An attempt either produces a credible research
// result or a structured failure with a reason; provider errors never
// propagate past this package, because a failed recovery has a defined next
// step (quarantine) while a crashed run does not.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"liner/internal/card"
	"liner/internal/logging"
	"liner/internal/research"
)

// Phrases in a research response that mean the provider found nothing real.
var failurePhrases = []string{
	"no credible information",
	"cannot find information",
	"appears to be misidentified",
	"not a real artist",
	"not a musician",
	"not a band",
	"is a recipe",
	"is a list",
	"is a genre",
}

// A credible biography talks about music somewhere.
var musicalTerms = []string{
	"music", "musician", "band", "artist", "song", "album", "record", "perform",
}

// Search suffixes tried when the original Wikipedia anchor was wrong.
var disambiguators = []string{
	"%s band",
	"%s musician",
	"%s music group",
	"%s American band",
	"%s musical group",
}

// Terms in a hit description that mark it as an artist page.
var artistHitTerms = []string{"band", "musician", "group", "singer", "artist"}

const minBiographyLength = 200

var wikiURLPattern = regexp.MustCompile(`https?://en\.wikipedia\.org/wiki/[^\s\)\]"<>]+`)

// Outcome is the result of one recovery attempt.
type Outcome struct {
	Success    bool
	Reason     string
	Result     *research.Result
	SourceText string
	SourceURL  string
}

// Agent runs recovery attempts.
type Agent struct {
	researcher   research.Researcher
	encyclopedia research.Encyclopedia
	logger       *slog.Logger
}

// NewAgent constructs a recovery agent. The encyclopedia is optional; without
// it recovered connections simply skip source verification.
func NewAgent(researcher research.Researcher, encyclopedia research.Encyclopedia, logger *slog.Logger) *Agent {
	return &Agent{
		researcher:   researcher,
		encyclopedia: encyclopedia,
		logger:       logging.NewComponentLogger(logger, "recovery"),
	}
}

// Attempt researches the subject from scratch and judges whether the result
// is credible enough to rebuild the card from. suggestedSearch, when present,
// is tried first when hunting for a corrected encyclopedia anchor.
func (a *Agent) Attempt(ctx context.Context, subject research.Subject, suggestedSearch string) Outcome {
	a.logger.Info("attempting recovery", logging.String(logging.FieldArtist, subject.Name))

	result, err := a.researcher.Research(ctx, subject)
	if err != nil {
		a.logger.Warn("recovery research failed",
			logging.String(logging.FieldArtist, subject.Name),
			logging.Error(err))
		return Outcome{Reason: fmt.Sprintf("research failed: %v", err)}
	}
	if reason, credible := judgeCredibility(result.Biography); !credible {
		a.logger.Warn("recovery response not credible",
			logging.String(logging.FieldArtist, subject.Name),
			logging.String("reason", reason))
		return Outcome{Reason: reason}
	}
	if result.WikipediaURL == "" {
		result.WikipediaURL = ExtractWikipediaURL(result.Biography)
	}

	outcome := Outcome{Success: true, Result: result}
	if a.encyclopedia != nil {
		sourceText, sourceURL := a.fetchCorrectedArticle(ctx, subject.Name, suggestedSearch)
		outcome.SourceText = sourceText
		outcome.SourceURL = sourceURL
		if result.WikipediaURL == "" && sourceURL != "" {
			result.WikipediaURL = sourceURL
		}
	}
	a.logger.Info("recovery succeeded",
		logging.String(logging.FieldArtist, subject.Name),
		logging.Int("connections", result.Connections.Total()))
	return outcome
}

// fetchCorrectedArticle hunts for the artist's real encyclopedia page using
// disambiguated search terms and returns its text and URL, or empty strings.
func (a *Agent) fetchCorrectedArticle(ctx context.Context, artistName, suggestedSearch string) (string, string) {
	terms := make([]string, 0, len(disambiguators)+1)
	if suggestedSearch = strings.TrimSpace(suggestedSearch); suggestedSearch != "" {
		terms = append(terms, suggestedSearch)
	}
	for _, pattern := range disambiguators {
		terms = append(terms, fmt.Sprintf(pattern, artistName))
	}
	for _, term := range terms {
		hits, err := a.encyclopedia.Search(ctx, term, 5)
		if err != nil {
			a.logger.Debug("encyclopedia search failed",
				logging.String("term", term),
				logging.Error(err))
			continue
		}
		for _, hit := range hits {
			if !looksLikeArtistPage(hit) {
				continue
			}
			text, err := a.encyclopedia.ArticleText(ctx, hit.URL)
			if err != nil {
				a.logger.Debug("article fetch failed",
					logging.String("url", hit.URL),
					logging.Error(err))
				continue
			}
			a.logger.Info("found likely correct page",
				logging.String(logging.FieldArtist, artistName),
				logging.String("title", hit.Title))
			return text, hit.URL
		}
	}
	return "", ""
}

func looksLikeArtistPage(hit research.SearchHit) bool {
	descLower := strings.ToLower(hit.Description)
	titleLower := strings.ToLower(hit.Title)
	match := false
	for _, term := range artistHitTerms {
		if strings.Contains(descLower, term) {
			match = true
			break
		}
	}
	if !match {
		return false
	}
	return !strings.Contains(titleLower, "album") && !strings.Contains(titleLower, "song")
}

// judgeCredibility decides whether research prose is a real biography. The
// empty reason on success keeps call sites simple.
func judgeCredibility(biography string) (string, bool) {
	lower := strings.ToLower(biography)
	for _, phrase := range failurePhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Sprintf("response indicates no credible artist info: %q", phrase), false
		}
	}
	if len(biography) < minBiographyLength {
		return "response too short to be a credible biography", false
	}
	for _, term := range musicalTerms {
		if strings.Contains(lower, term) {
			return "", true
		}
	}
	return "response lacks musical context", false
}

// ExtractWikipediaURL pulls the first Wikipedia article URL out of prose,
// or returns "".
func ExtractWikipediaURL(text string) string {
	return wikiURLPattern.FindString(text)
}

// MarkRecovered stamps recovery metadata onto a card: the quality flag flips
// to validated, the attempt time is recorded, and when the research produced
// a corrected anchor the old one is preserved before being replaced.
func MarkRecovered(doc *card.Document, newWikipediaURL string, now time.Time) {
	doc.Meta.SetString(card.KeyDataQuality, card.QualityValidated)
	doc.Meta.SetString(card.KeyRecoveryAttempted, now.Format(time.RFC3339))
	if oldURL := doc.WikipediaURL(); oldURL != "" {
		doc.Meta.SetString(card.KeyOriginalWikiURL, oldURL)
	}
	if newWikipediaURL != "" {
		doc.SetWikipediaURL(newWikipediaURL)
	}
}
