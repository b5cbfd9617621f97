// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	// MaxLength is the longest slug Derive produces.
	MaxLength = 100

	// suffixLength is the hyphen plus six digits Derive appends.
	suffixLength = 7

	// fallback is used when a title has no usable characters.
	fallback = "post"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, whitespace or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace matches runs of spaces, tabs and newlines.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// valid matches lowercase alphanumeric words joined by single hyphens.
	valid = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Derive builds a post slug from a title: the generated base, cut to leave
// room for the suffix, followed by a hyphen and six random digits.
// Example: "Hello, World!" → "hello-world-482913"
func Derive(title string) string {
	base := Generate(title)
	if len(base) > MaxLength-suffixLength {
		base = strings.TrimRight(base[:MaxLength-suffixLength], "-")
	}
	if base == "" {
		base = fallback
	}
	return fmt.Sprintf("%s-%d", base, 100000+rand.IntN(900000))
}

// Valid reports whether s is an acceptable caller-supplied slug.
func Valid(s string) bool {
	return len(s) <= MaxLength && valid.MatchString(s)
}
