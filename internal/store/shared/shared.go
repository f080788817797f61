package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxTagLen matches the tags.name column.
const MaxTagLen = 100

// NormalizeTag lowercases a free-form label, folds accents and collapses
// inner whitespace. It returns "" for labels with nothing left.
func NormalizeTag(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Normalize and strip combining marks (accent folding)
	t := transform.Chain(
		norm.NFKD,
		transform.RemoveFunc(func(r rune) bool { return unicode.Is(unicode.Mn, r) }),
		norm.NFC,
	)
	normed, _, _ := transform.String(t, s)

	var b strings.Builder
	b.Grow(len(normed))
	prevSpace := false
	for _, r := range normed {
		if unicode.IsSpace(r) {
			if !prevSpace && b.Len() > 0 {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
		prevSpace = false
	}
	return strings.TrimSpace(b.String())
}

// DedupTags normalizes via NormalizeTag and deduplicates, keeping first-seen
// order. Empty labels are dropped.
func DedupTags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		tag := NormalizeTag(s)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// NullIfEmpty maps "" to SQL NULL.
func NullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// LikeEscape escapes LIKE metacharacters so user input matches literally.
func LikeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
