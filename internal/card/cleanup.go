package card

import (
	"regexp"
	"strings"
)

// Research providers tend to echo back the card's own structure: a leading
// "## Biography" header, or a synthetic "## <Name>: A Biography" title.
// Pasting that text under our own headers would double them up.
var (
	echoedBiographyHeader = regexp.MustCompile(`(?m)^##\s+Biography\s*$`)
	syntheticTitleHeader  = regexp.MustCompile(`(?m)^##\s+[^:\n]+:\s*A\s+Biography\s*$`)
	excessBlankLines      = regexp.MustCompile(`\n{3,}`)
)

// CleanupArtifacts strips echoed headers from provider-returned prose and
// collapses runs of blank lines. The result is ready to drop into a section
// body verbatim.
func CleanupArtifacts(text string) string {
	text = echoedBiographyHeader.ReplaceAllString(text, "")
	text = syntheticTitleHeader.ReplaceAllString(text, "")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
