// Package normalize holds field normalization helpers used on every write
// path. Emails are normalized before any store write or query so the
// directory never accumulates case/whitespace variants.
package normalize

import (
	"strings"
	"unicode"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips the +91 country prefix and surrounding whitespace.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+91")
	return strings.TrimSpace(s)
}

// SearchBlob builds the precomputed search string for a record: for each
// non-blank field it emits the lowercase text plus space-stripped,
// dot-stripped, and alphanumeric-only variants, and a country-code-free
// variant for mobile numbers. Deduplicated, space-joined.
func SearchBlob(fields ...string) string {
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, f := range fields {
		clean := strings.ToLower(strings.TrimSpace(f))
		if clean == "" {
			continue
		}
		add(clean)
		add(strings.ReplaceAll(clean, " ", ""))
		add(strings.ReplaceAll(clean, ".", ""))
		add(alnumOnly(clean))
		if strings.Contains(f, "+91") {
			add(strings.ToLower(strings.TrimSpace(strings.ReplaceAll(f, "+91", ""))))
		}
	}
	return strings.Join(out, " ")
}

func alnumOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
