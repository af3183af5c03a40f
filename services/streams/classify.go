package streams

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Eduard289/cinematrix-cloud/models"
)

// qualityRule maps a release-title keyword to a quality label. Rules are
// evaluated in order; the first match wins, so 4K tokens shadow a "1080p"
// appearing later in the same title.
type qualityRule struct {
	tokens []string
	label  models.QualityLabel
}

var qualityRules = []qualityRule{
	{tokens: []string{"2160p", "4k"}, label: models.Quality4KUHD},
	{tokens: []string{"1080p"}, label: models.QualityFullHD1080},
	{tokens: []string{"720p"}, label: models.QualityHD720},
	{tokens: []string{"hdr"}, label: models.QualityHDR},
}

// classifyQuality derives a quality label from the full raw title via
// case-insensitive substring match against the ordered rule table.
func classifyQuality(raw string) models.QualityLabel {
	release := strings.ToLower(raw)
	for _, rule := range qualityRules {
		for _, token := range rule.tokens {
			if strings.Contains(release, token) {
				return rule.label
			}
		}
	}
	return models.QualityUnknown
}

// seederMarker is the glyph torrentio-style providers use to pack a seeder
// count into the title's metadata lines.
const seederMarker = "👤"

// extractSeedInfo returns the title line carrying the seeder marker, or "N/A".
func extractSeedInfo(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, seederMarker) {
			return strings.TrimSpace(line)
		}
	}
	return "N/A"
}

const maxDisplayTitleRunes = 80

// deriveDisplayTitle keeps the first line of the raw title. Providers pack
// quality and seeder metadata into subsequent newline-delimited segments.
func deriveDisplayTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}
	runes := []rune(title)
	if len(runes) > maxDisplayTitleRunes {
		title = string(runes[:maxDisplayTitleRunes])
	}
	return title
}

var infoHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// ValidInfoHash reports whether h is a well-formed BitTorrent info-hash.
func ValidInfoHash(h string) bool {
	return infoHashPattern.MatchString(h)
}

// BuildMagnet derives the magnet URI for a candidate's info-hash and the
// originating title's display name. Purely derived, never stored.
func BuildMagnet(infoHash, displayName string) string {
	b := strings.Builder{}
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(strings.ToLower(infoHash))
	b.WriteString("&dn=")
	b.WriteString(url.QueryEscape(displayName))
	return b.String()
}
