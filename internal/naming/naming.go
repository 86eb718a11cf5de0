// Package naming turns titles and URLs into deterministic, filesystem-safe
// names. Output only ever contains ASCII letters, digits, underscores and the
// dot separating the extension.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options controls how Sanitize decorates the sanitized core.
type Options struct {
	// Prefix is sanitized with the same rules and joined with "_". A
	// non-empty prefix is always joined, even when nothing survives
	// sanitizing, so "???" as prefix yields "_name".
	Prefix string
	// Extension is appended after a dot. Non-alphanumerics are dropped.
	Extension string
	// KeepSchemes leaves "http://" and "https://" in place.
	KeepSchemes bool
}

var (
	schemePattern   = regexp.MustCompile(`https?://`)
	disallowed      = regexp.MustCompile(`[^a-zA-Z0-9_ ./]`)
	separators      = regexp.MustCompile(`[./]`)
	collapsePattern = regexp.MustCompile(`[-\s_]+`)
	extensionStrip  = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Sanitize converts raw into a readable identifier.
//
//	Sanitize("Episode 1: Intro", Options{Prefix: "media/20240105", Extension: "mp3"})
//	// Media_20240105_Ep_1_Intro.mp3
//
// An input that sanitizes to nothing still receives the prefix and extension.
func Sanitize(raw string, opts Options) string {
	name := core(raw, !opts.KeepSchemes)

	if opts.Prefix != "" {
		name = core(opts.Prefix, !opts.KeepSchemes) + "_" + name
	}
	if ext := extensionStrip.ReplaceAllString(opts.Extension, ""); ext != "" {
		name = name + "." + ext
	}
	return name
}

func core(raw string, stripSchemes bool) string {
	s := strings.TrimSpace(raw)
	if stripSchemes {
		s = schemePattern.ReplaceAllString(s, "")
	}
	s = fold(s)
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "_")
	s = strings.ReplaceAll(s, "Episode", "Ep")
	s = collapsePattern.ReplaceAllString(s, "_")
	return titleCase(s)
}

// fold strips diacritics so accented letters survive as their ASCII base.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// titleCase upper-cases a letter that follows a non-letter and lower-cases
// every other letter, so "ep_1_intro" becomes "Ep_1_Intro" and "1st" "1St".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		isUpper := c >= 'A' && c <= 'Z'
		isLower := c >= 'a' && c <= 'z'
		switch {
		case (isUpper || isLower) && !prevLetter:
			if isLower {
				c -= 'a' - 'A'
			}
		case isUpper:
			c += 'a' - 'A'
		}
		prevLetter = isUpper || isLower
		b.WriteByte(c)
	}
	return b.String()
}
