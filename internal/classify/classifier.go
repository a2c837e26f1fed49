package classify

import (
	"fmt"
	"log/slog"
	"strings"

	"liner/internal/card"
	"liner/internal/config"
	"liner/internal/identity"
	"liner/internal/logging"
)

// URL fragments that mark a Wikipedia anchor as pointing at something other
// than an artist page.
var suspiciousURLPatterns = []string{
	"List_of_", "list_of_",
	"recipe", "Recipe",
	"_blues", "_jazz", "_music",
	"cuisine", "Cuisine",
	"food", "Food",
}

// Vocabulary that belongs in a cookbook, not a band biography.
var foodRecipeTerms = []string{
	"beefsteak", "flour", "recipe", "cook", "fried", "bake", "ingredient",
	"chicken-fried", "pan-fried", "deep-fried", "dish", "cuisine",
}

// Openings used by encyclopedia articles that define a genre or list.
var genreDefinitionPhrases = []string{
	"refers to the local",
	"is a genre",
	"is a list of",
	"is a subgenre",
	"is a style of music",
	"is a music genre",
	"is a type of",
}

// Associated-act entries that no real musician carries.
var genericAssociatedActs = []string{
	"beefsteak", "flour", "lists of songs", "lists of", "theme",
}

// Phrases a research model emits when it was handed the wrong source page.
var mismatchPhrases = []string{
	"impossible to create a biography",
	"does not contain information about",
	"focuses on the history of",
	"is not about",
	"no information about any artists",
}

// How far into the biography genre-definition phrases are searched.
const openingWindow = 200

// Result is the outcome of scoring one card.
type Result struct {
	Suspicious bool
	Confidence float64
	Issues     []string
}

// Classifier scores cards using weights from configuration. The zero value is
// not usable; construct with New.
type Classifier struct {
	weights config.Classifier
	logger  *slog.Logger
}

// New returns a classifier using the given weights.
func New(weights config.Classifier, logger *slog.Logger) *Classifier {
	return &Classifier{weights: weights, logger: logging.NewComponentLogger(logger, "classify")}
}

// Classify scores a card against its identity key. Points from each firing
// check accumulate; confidence is points scaled to [0, 1] and capped, and the
// card is suspicious when confidence reaches the configured threshold.
func (c *Classifier) Classify(doc *card.Document, key string) Result {
	var (
		points int
		issues []string
	)

	wikipediaURL := doc.WikipediaURL()
	biography, _ := card.ExtractSection(doc.Body, card.SectionBiography)
	biographyLower := strings.ToLower(biography)

	urlSuspicious := false
	for _, pattern := range suspiciousURLPatterns {
		if strings.Contains(wikipediaURL, pattern) {
			issues = append(issues, fmt.Sprintf("suspicious URL pattern %q in %s", pattern, wikipediaURL))
			points += c.weights.URLPatternPoints
			urlSuspicious = true
			break
		}
	}

	var foodTerms []string
	for _, term := range foodRecipeTerms {
		if strings.Contains(biographyLower, term) {
			foodTerms = append(foodTerms, term)
		}
	}
	switch {
	case len(foodTerms) > 0 && urlSuspicious:
		issues = append(issues, fmt.Sprintf("food/recipe terms matching suspicious URL: %s", strings.Join(clip(foodTerms, 3), ", ")))
		points += c.weights.FoodTermWithURLPoints
	case len(foodTerms) >= 2:
		issues = append(issues, fmt.Sprintf("biography contains food/recipe terms: %s", strings.Join(clip(foodTerms, 3), ", ")))
		points += c.weights.FoodTermPoints
	}

	opening := biographyLower
	if len(opening) > openingWindow {
		opening = opening[:openingWindow]
	}
	for _, phrase := range genreDefinitionPhrases {
		if strings.HasPrefix(biographyLower, phrase) || strings.Contains(opening, " "+phrase+" ") {
			issues = append(issues, fmt.Sprintf("biography opens as a genre definition: %q", phrase))
			points += c.weights.GenrePhrasePoints
			break
		}
	}

	var genericActs []string
	for _, act := range doc.Meta.StringList(card.KeyAssociatedActs) {
		actLower := strings.ToLower(act)
		for _, term := range genericAssociatedActs {
			if strings.Contains(actLower, term) {
				genericActs = append(genericActs, act)
				break
			}
		}
	}
	if len(genericActs) > 0 {
		issues = append(issues, fmt.Sprintf("generic associated acts: %s", strings.Join(genericActs, ", ")))
		points += c.weights.GenericActsPoints
	}

	for _, phrase := range mismatchPhrases {
		if strings.Contains(biographyLower, phrase) {
			issues = append(issues, fmt.Sprintf("biography states a source mismatch: %q", phrase))
			points += c.weights.MismatchPhrasePoints
			break
		}
	}

	if issue, diverged := titleDiverges(doc.Meta.String(card.KeyTitle), key); diverged {
		issues = append(issues, issue)
		points += c.weights.TitleDivergencePoints
	}

	confidence := float64(points) / 100.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	result := Result{
		Suspicious: confidence >= c.weights.SuspicionThreshold,
		Confidence: confidence,
		Issues:     issues,
	}
	if result.Suspicious {
		c.logger.Info("card flagged as suspicious",
			logging.String(logging.FieldCardKey, key),
			logging.Float64(logging.FieldConfidence, confidence),
			logging.Int("issues", len(issues)))
	} else {
		c.logger.Debug("card appears normal",
			logging.String(logging.FieldCardKey, key),
			logging.Float64(logging.FieldConfidence, confidence))
	}
	return result
}

// titleDiverges compares the frontmatter title against the identity key,
// ignoring case, spaces, and underscores. Small punctuation deltas pass; a
// character-set difference of more than two runes flags the card.
func titleDiverges(title, key string) (string, bool) {
	if title == "" || key == "" {
		return "", false
	}
	titleNorm := identity.Normalize(title)
	keyNorm := identity.Normalize(identity.DisplayName(key))
	if titleNorm == keyNorm {
		return "", false
	}
	keySet := make(map[rune]struct{}, len(keyNorm))
	for _, r := range keyNorm {
		keySet[r] = struct{}{}
	}
	excess := 0
	seen := make(map[rune]struct{})
	for _, r := range titleNorm {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := keySet[r]; !ok {
			excess++
		}
	}
	if excess <= 2 {
		return "", false
	}
	return fmt.Sprintf("title mismatch: frontmatter %q vs card key %q", title, key), true
}

func clip(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
