package store

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const tagDelimiter = ","

// SplitTags breaks a delimited tag string into trimmed, non-empty tokens
func SplitTags(tags string) []string {
	parts := strings.Split(tags, tagDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = norm.NFC.String(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeTags rewrites a tag string as trimmed tokens joined by a bare comma.
// Duplicates are kept; the field is free-form.
func NormalizeTags(tags string) string {
	return strings.Join(SplitTags(tags), tagDelimiter)
}
