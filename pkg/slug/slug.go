// Package slug turns titles into URL-safe identifiers.
package slug

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type config struct {
	maxLength    int
	suffixLength int
}

// Option configures Make.
type Option func(*config)

// MaxLength truncates the slug (suffix included) to n runes.
func MaxLength(n int) Option {
	return func(c *config) { c.maxLength = n }
}

// WithSuffix appends a random lowercase alphanumeric suffix of n characters.
func WithSuffix(n int) Option {
	return func(c *config) { c.suffixLength = n }
}

// Make lowercases s, strips diacritics and joins runs of letters and digits
// with "-". "Summer Sale: Café!" becomes "summer-sale-cafe".
func Make(s string, opts ...Option) string {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	sep := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			sep = false
			continue
		}
		sep = true
	}
	out := b.String()

	limit := cfg.maxLength
	if cfg.suffixLength > 0 && limit > 0 {
		limit -= cfg.suffixLength + 1
	}
	if cfg.maxLength > 0 {
		if limit < 0 {
			limit = 0
		}
		if len(out) > limit {
			out = strings.TrimRight(out[:limit], "-")
		}
	}

	if cfg.suffixLength > 0 {
		suffix := randomSuffix(cfg.suffixLength)
		if out == "" {
			return suffix
		}
		return out + "-" + suffix
	}
	return out
}

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
