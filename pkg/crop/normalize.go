// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package crop

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var asciiFolder = strings.NewReplacer(
	"ı", "i",
	"ğ", "g",
	"ü", "u",
	"ş", "s",
	"ö", "o",
	"ç", "c",
)

// Normalize lowercases with Turkish rules, folds Turkish letters to ASCII and
// trims surrounding whitespace.
func Normalize(name string) string {
	// A Caser is stateful; one per call keeps Normalize safe for concurrent use
	lower := cases.Lower(language.Turkish)
	return asciiFolder.Replace(lower.String(strings.TrimSpace(name)))
}
