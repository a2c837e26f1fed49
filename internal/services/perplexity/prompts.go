package perplexity

import (
	"fmt"
	"strings"

	"liner/internal/research"
)

const researchSystemPrompt = "You are an expert music researcher with access to web search. " +
	"Provide accurate, well-researched information about musical artists. " +
	"Always respond with valid JSON only. " +
	"Focus heavily on finding and verifying musical connections and relationships."

const verifySystemPrompt = "You are an expert at verifying biographical information accuracy. " +
	"Always respond with valid JSON only."

func buildResearchPrompt(subject research.Subject) string {
	genres := "Unknown"
	if len(subject.Genres) > 0 {
		genres = strings.Join(subject.Genres, ", ")
	}
	tracks := "Unknown"
	if len(subject.TopTracks) > 0 {
		top := subject.TopTracks
		if len(top) > 3 {
			top = top[:3]
		}
		tracks = strings.Join(top, ", ")
	}
	return fmt.Sprintf(`Research the musical artist %q and provide comprehensive biographical information.

CONTEXT FROM SPOTIFY:
- Genres: %s
- Popular tracks: %s

REQUIRED INFORMATION:
1. **Biography**: 2-3 flowing paragraphs covering:
   - Early life and musical beginnings
   - Career development and major milestones
   - Musical style, innovations, and legacy

2. **Musical Connections** (CRITICAL - be specific and accurate):
   - **Mentors/Influences**: Teachers, inspirations, stylistic influences
   - **Key Collaborators**: Frequent collaborators, band members, important partnerships
   - **Artists Influenced**: Students, proteges, musicians they inspired

   For each connection, provide:
   - Artist name
   - Nature of relationship/collaboration
   - Specific context (albums, bands, time periods)

3. **Fun Facts**: 3-4 interesting anecdotes or lesser-known details

4. **Sources**: Note Wikipedia URL if available

RESPONSE FORMAT (JSON):
{
  "biography": "2-3 paragraph biography text...",
  "connections": {
    "mentors": [
      {"name": "Artist Name", "context": "relationship description", "specific_works": "albums/projects", "time_period": "1950s-1960s"}
    ],
    "collaborators": [
      {"name": "Artist Name", "context": "nature of collaboration", "specific_works": "albums/bands", "time_period": "years"}
    ],
    "influenced": [
      {"name": "Artist Name", "context": "how they were influenced", "specific_works": "relevant works", "time_period": "years"}
    ]
  },
  "fun_facts": ["fact 1", "fact 2", "fact 3"],
  "wikipedia_url": "URL if found",
  "sources": ["source1", "source2"]
}

CRITICAL REQUIREMENTS:
- Use web search to find accurate, up-to-date information
- Verify all connections are real and documented
- Include specific album names, band names, and time periods for connections
- Only include information found in credible sources
- Provide factual, encyclopedic content`, subject.Name, genres, tracks)
}

func buildVerifyPrompt(subject research.Subject, biography string) string {
	genres := "Unknown"
	if len(subject.Genres) > 0 {
		genres = strings.Join(subject.Genres, ", ")
	}
	tracks := "Unknown"
	if len(subject.TopTracks) > 0 {
		top := subject.TopTracks
		if len(top) > 3 {
			top = top[:3]
		}
		tracks = strings.Join(top, ", ")
	}
	return fmt.Sprintf(`Verify if this biography accurately describes the artist %q.

ARTIST INFORMATION:
- Name: %s
- Spotify Genres: %s
- Top Tracks: %s
- Wikipedia URL: %s

CURRENT BIOGRAPHY:
%s

VERIFICATION TASKS:
1. Check if the biography is about a musical artist/band (not an album or song)
2. Verify the artist name appears prominently in the biography
3. Check if genres mentioned align with the Spotify genres above
4. Identify any clear mismatches (e.g., biography about an album instead of the artist)
5. Check if the Wikipedia URL seems correct for the artist

Respond in JSON:
{
  "is_accurate": true/false,
  "confidence": 0.0-1.0,
  "entity_type": "artist" or "album" or "song" or "other",
  "reason": "explanation",
  "issues": ["list of specific issues found"],
  "suggested_search": "alternative search term if inaccurate"
}`, subject.Name, subject.Name, genres, tracks, subject.WikipediaURL, biography)
}
