// Package sanitize implements the per-message text cleanup that runs before
// language handling: configured word removal, link handling, emoji
// stripping, emote removal and whitespace normalization, in that order.
package sanitize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/you/babel-chat/internal/core"
)

var linkPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://\S+`)

// Options configures a Sanitizer. LinkReplacement is only consulted when
// ReplaceLinks is true; IgnoreLinks wins over both.
type Options struct {
	DeleteWords     []string
	IgnoreLinks     bool
	ReplaceLinks    bool
	LinkReplacement string
	IgnoreEmoji     bool
}

type Sanitizer struct {
	opts Options
}

func New(opts Options) *Sanitizer {
	return &Sanitizer{opts: opts}
}

// Sanitize applies every cleanup step in fixed order and returns the
// normalized text. An empty result means the message carries nothing worth
// processing and must be dropped by the caller.
func (s *Sanitizer) Sanitize(raw string, emotes []core.EmoteSpan) string {
	text := raw

	for _, w := range s.opts.DeleteWords {
		if w == "" {
			continue
		}
		text = strings.ReplaceAll(text, w, "")
	}

	switch {
	case s.opts.IgnoreLinks:
		text = linkPattern.ReplaceAllString(text, "")
	case s.opts.ReplaceLinks:
		text = linkPattern.ReplaceAllString(text, s.opts.LinkReplacement)
	}

	if s.opts.IgnoreEmoji {
		text = stripEmoji(text)
	}

	if len(emotes) > 0 {
		text = removeEmotes(text, raw, emotes)
	}

	return strings.Join(strings.Fields(text), " ")
}

// removeEmotes resolves each span against the raw text (spans are rune
// offsets into the original message) and removes every occurrence of each
// resolved literal, longest first so that an emote whose text is a substring
// of another's cannot leave partial remnants.
func removeEmotes(text, raw string, emotes []core.EmoteSpan) string {
	runes := []rune(raw)
	literals := make([]string, 0, len(emotes))
	seen := make(map[string]struct{}, len(emotes))
	for _, span := range emotes {
		if span.Start < 0 || span.End >= len(runes) || span.Start > span.End {
			continue
		}
		lit := string(runes[span.Start : span.End+1])
		if lit == "" {
			continue
		}
		if _, ok := seen[lit]; ok {
			continue
		}
		seen[lit] = struct{}{}
		literals = append(literals, lit)
	}

	sort.Slice(literals, func(i, j int) bool {
		if len(literals[i]) != len(literals[j]) {
			return len(literals[i]) > len(literals[j])
		}
		return literals[i] < literals[j]
	})

	for _, lit := range literals {
		text = strings.ReplaceAll(text, lit, "")
	}
	return text
}

// emojiRanges is the fixed set of Unicode ranges treated as emoji.
var emojiRanges = [][2]rune{
	{0x1F1E6, 0x1F1FF}, // regional indicators
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F680, 0x1F6FF}, // transport & map
	{0x1F700, 0x1F77F}, // alchemical
	{0x1F780, 0x1F7FF}, // geometric shapes extended
	{0x1F800, 0x1F8FF}, // supplemental arrows-c
	{0x1F900, 0x1F9FF}, // supplemental symbols
	{0x1FA00, 0x1FAFF}, // symbols & pictographs extended-a
	{0x2600, 0x26FF},   // miscellaneous symbols
	{0x2700, 0x27BF},   // dingbats
	{0xFE00, 0xFE0F},   // variation selectors
	{0x200D, 0x200D},   // zero-width joiner
}

func isEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

func stripEmoji(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isEmoji(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
