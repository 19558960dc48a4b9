package theory

import (
	"sort"
	"strings"
)

type quality struct {
	name      string
	intervals []int
}

// Semitone intervals above the root, keyed by canonical quality name.
var qualities = map[string]quality{
	"maj":     {"maj", []int{0, 4, 7}},
	"min":     {"min", []int{0, 3, 7}},
	"dim":     {"dim", []int{0, 3, 6}},
	"aug":     {"aug", []int{0, 4, 8}},
	"sus2":    {"sus2", []int{0, 2, 7}},
	"sus4":    {"sus4", []int{0, 5, 7}},
	"5":       {"5", []int{0, 7}},
	"6":       {"6", []int{0, 4, 7, 9}},
	"min6":    {"min6", []int{0, 3, 7, 9}},
	"69":      {"69", []int{0, 4, 7, 9, 14}},
	"7":       {"7", []int{0, 4, 7, 10}},
	"maj7":    {"maj7", []int{0, 4, 7, 11}},
	"min7":    {"min7", []int{0, 3, 7, 10}},
	"minmaj7": {"minmaj7", []int{0, 3, 7, 11}},
	"dim7":    {"dim7", []int{0, 3, 6, 9}},
	"m7b5":    {"m7b5", []int{0, 3, 6, 10}},
	"aug7":    {"aug7", []int{0, 4, 8, 10}},
	"augmaj7": {"augmaj7", []int{0, 4, 8, 11}},
	"7sus2":   {"7sus2", []int{0, 2, 7, 10}},
	"7sus4":   {"7sus4", []int{0, 5, 7, 10}},
	"7b5":     {"7b5", []int{0, 4, 6, 10}},
	"7b9":     {"7b9", []int{0, 4, 7, 10, 13}},
	"7#9":     {"7#9", []int{0, 4, 7, 10, 15}},
	"add9":    {"add9", []int{0, 4, 7, 14}},
	"minadd9": {"minadd9", []int{0, 3, 7, 14}},
	"9":       {"9", []int{0, 4, 7, 10, 14}},
	"maj9":    {"maj9", []int{0, 4, 7, 11, 14}},
	"min9":    {"min9", []int{0, 3, 7, 10, 14}},
	"11":      {"11", []int{0, 4, 7, 10, 14, 17}},
	"maj11":   {"maj11", []int{0, 4, 7, 11, 14, 17}},
	"min11":   {"min11", []int{0, 3, 7, 10, 14, 17}},
	"13":      {"13", []int{0, 4, 7, 10, 14, 21}},
	"maj13":   {"maj13", []int{0, 4, 7, 11, 14, 21}},
	"min13":   {"min13", []int{0, 3, 7, 10, 14, 21}},
}

// Spellings accepted after case folding and cleanup; canonical names map to
// themselves implicitly.
var qualityAliases = map[string]string{
	"":       "maj",
	"major":  "maj",
	"m":      "min",
	"mi":     "min",
	"minor":  "min",
	"°":      "dim",
	"o":      "dim",
	"+":      "aug",
	"sus":    "sus4",
	"m6":     "min6",
	"dom7":   "7",
	"ma7":    "maj7",
	"m7":     "min7",
	"mi7":    "min7",
	"mmaj7":  "minmaj7",
	"°7":     "dim7",
	"o7":     "dim7",
	"ø":      "m7b5",
	"ø7":     "m7b5",
	"min7b5": "m7b5",
	"+7":     "aug7",
	"7#5":    "aug7",
	"7+5":    "aug7",
	"+maj7":  "augmaj7",
	"maj7#5": "augmaj7",
	"7sus":   "7sus4",
	"add2":   "add9",
	"madd9":  "minadd9",
	"m9":     "min9",
	"m11":    "min11",
	"m13":    "min13",
	"6add9":  "69",
	"maj79":  "maj9",
}

// lookupQuality normalizes the text after the root and finds its intervals.
func lookupQuality(text string) (quality, bool) {
	key := normalizeQuality(text)
	if alias, ok := qualityAliases[key]; ok {
		key = alias
	}
	q, ok := qualities[key]
	return q, ok
}

// normalizeQuality folds the spelling variants seen in lead sheets onto the
// table keys: capital M / Δ for major seventh, leading '-' for minor,
// parenthesized alterations, and '-' as a flat.
func normalizeQuality(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "Δ7", "maj7")
	s = strings.ReplaceAll(s, "∆7", "maj7")
	s = strings.ReplaceAll(s, "Δ", "maj7")
	s = strings.ReplaceAll(s, "∆", "maj7")
	s = strings.ReplaceAll(s, "mM", "mmaj")
	if strings.HasPrefix(s, "M") && !strings.HasPrefix(strings.ToLower(s), "maj") && !strings.HasPrefix(strings.ToLower(s), "min") {
		s = "maj" + s[1:]
	}
	if strings.HasPrefix(s, "-") {
		s = "m" + s[1:]
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "♭", "b")
	s = strings.ReplaceAll(s, "♯", "#")
	s = strings.ReplaceAll(s, "(5-)", "b5")
	s = strings.ReplaceAll(s, "(b5)", "b5")
	s = strings.ReplaceAll(s, "(#5)", "#5")
	s = strings.ReplaceAll(s, "(5#)", "#5")
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	s = strings.ReplaceAll(s, "-", "b")
	return s
}

// Qualities lists the canonical quality names, sorted.
func Qualities() []string {
	names := make([]string, 0, len(qualities))
	for name := range qualities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
