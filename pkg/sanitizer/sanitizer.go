// Package sanitizer normalizes user input before it is stored.
package sanitizer

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex     = regexp.MustCompile(`\s+`)
	unsafeFilenameRegex = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
)

// Apply runs transforms over value in order.
func Apply[T any](value T, transforms ...func(T) T) T {
	for _, fn := range transforms {
		value = fn(value)
	}
	return value
}

// Trim is strings.TrimSpace in transform form.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeWhitespace collapses whitespace runs into single spaces and trims.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// CleanStringSlice trims entries, drops empty ones and removes duplicates,
// keeping the first occurrence. The result is never nil.
func CleanStringSlice(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
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

// SanitizeFilename replaces characters that are unsafe in paths and object
// keys. Empty results become "file".
func SanitizeFilename(name string) string {
	safe := unsafeFilenameRegex.ReplaceAllString(name, "_")
	safe = strings.ReplaceAll(safe, " ", "-")
	safe = strings.Trim(safe, " .")
	if len(safe) > 255 {
		safe = safe[:255]
	}
	if safe == "" {
		return "file"
	}
	return safe
}

// Clamp bounds v to [lo, hi].
func Clamp[T ~int | ~int64 | ~float64](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
