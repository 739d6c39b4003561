// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug folds user-supplied file names into the ASCII fragment used
// inside storage keys, so "Back Squat (Côte).mp4" is stored as
// ".../back-squat-cote.mp4".
package slug

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds a slug so storage keys stay well under filesystem limits.
const MaxLength = 64

var extension = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// stripMarks decomposes accented letters and drops the combining marks.
var stripMarks = transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}))

/*
From lower-cases s, folds accents to ASCII and joins every run of
letters/digits with a single hyphen. Anything outside [a-z0-9] acts as a
separator.

Parameters:
  - s: string

Returns:
  - string: possibly empty
*/
func From(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var builder strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(folded) {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			pendingHyphen = builder.Len() > 0
			continue
		}
		if pendingHyphen {
			if builder.Len()+1 >= MaxLength {
				break
			}
			builder.WriteByte('-')
			pendingHyphen = false
		}
		if builder.Len() >= MaxLength {
			break
		}
		builder.WriteRune(r)
	}

	return builder.String()
}

// FileName splits an upload name into a slugged base and a lower-case
// extension. An unusable base becomes fallback and an unusable extension
// becomes "".
//
//	slug.FileName("Mon Squat.MP4", "video") // "mon-squat", ".mp4"
func FileName(name, fallback string) (string, string) {
	rawExt := filepath.Ext(name)

	ext := strings.ToLower(rawExt)
	if !extension.MatchString(ext) {
		ext = ""
	}

	base := From(strings.TrimSuffix(filepath.Base(name), rawExt))
	if base == "" {
		base = fallback
	}
	return base, ext
}
