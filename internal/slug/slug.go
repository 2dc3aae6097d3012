// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns uploaded file names into readable object-key segments.
package slug

import (
	"path"
	"strings"
	"unicode"
)

// MaxRunes caps the length of a generated slug.
const MaxRunes = 60

// Generate lowercases s and keeps letters, digits and combining marks,
// joining every other run of characters with a single hyphen. Thai text
// survives intact because its vowel and tone marks are combining marks.
// Example: "Rice Field (2026)" → "rice-field-2026"
func Generate(s string) string {
	var b strings.Builder
	pending := false
	n := 0
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			hyphen := pending && b.Len() > 0
			if hyphen && n+2 > MaxRunes || n+1 > MaxRunes {
				return b.String()
			}
			if hyphen {
				b.WriteByte('-')
				n++
			}
			pending = false
			b.WriteRune(r)
			n++
		case r == '\'' || r == '’':
			// apostrophes join words
		default:
			pending = true
		}
	}
	return b.String()
}

// FromFilename slugs the base name of filename without its extension.
func FromFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return Generate(strings.TrimSuffix(base, path.Ext(base)))
}
