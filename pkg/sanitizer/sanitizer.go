package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

const (
	MaxTitleRunes    = 200
	MaxRoomNameRunes = 100
	MaxIDRunes       = 64
)

var (
	reNotSlug       = regexp.MustCompile(`[^a-z0-9_-]+`)
	reMultiHyphen   = regexp.MustCompile(`-+`)
	reEdgeSeparator = regexp.MustCompile(`^[-_]+|[-_]+$`)
)

func trimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func truncate(max int) Strategy {
	return func(s string) string {
		runes := []rune(s)
		if len(runes) <= max {
			return s
		}
		return strings.TrimSpace(string(runes[:max]))
	}
}

func NormalizeTitle(input string) string {
	return Pipeline{TrimAndNormalize, truncate(MaxTitleRunes)}.Apply(input)
}

func NormalizeRoomName(input string) string {
	return Pipeline{TrimAndNormalize, truncate(MaxRoomNameRunes)}.Apply(input)
}

// NormalizeID turns free text into a lowercase slug, e.g. "Board Room 3" into
// "board-room-3".
func NormalizeID(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reNotSlug.ReplaceAllString(s, "-") },
		func(s string) string { return reMultiHyphen.ReplaceAllString(s, "-") },
		truncate(MaxIDRunes),
		func(s string) string { return reEdgeSeparator.ReplaceAllString(s, "") },
	}
	return p.Apply(input)
}

func NormalizeRole(input string) string {
	return trimAndLower(input)
}

// SanitizeSlice applies strategy to each value and keeps the first occurrence
// of every non-empty result.
func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
