// Package resolve turns a clicked element into a stable identifier: a
// selector usable within the page's current DOM, a human-readable
// breadcrumb, and percentage coordinates as a DOM-independent fallback.
package resolve

import (
	"regexp"
	"strings"
)

// Patterns for machine-generated class names. Heuristic: false positives
// and negatives are acceptable, determinism is the contract.
var (
	// CSS-in-JS library prefix followed by a short hash, e.g. css-1q2w3e,
	// sc-bdVaJa, jsx-3428094, chakra-button__x9k2.
	cssInJSRe = regexp.MustCompile(`^(css|sc|emotion|jsx|chakra|mui|styled|tw)-[A-Za-z0-9]{3,}$`)

	// Trailing underscore hash suffix, e.g. header_a8f3x92 (CSS modules).
	moduleHashRe = regexp.MustCompile(`_[A-Za-z0-9]{5,}$`)

	// Very short letter prefix with a long numeric tail, e.g. c4281970.
	letterDigitsRe = regexp.MustCompile(`^[A-Za-z]{1,3}[0-9]{4,}$`)
)

// IsGeneratedClassName reports whether a class name looks machine-generated
// (CSS-in-JS hash, CSS-module suffix, minified token) rather than authored.
func IsGeneratedClassName(name string) bool {
	return cssInJSRe.MatchString(name) ||
		moduleHashRe.MatchString(name) ||
		letterDigitsRe.MatchString(name)
}

// FilterClasses drops generated tokens from a whitespace-separated class
// string and rejoins the survivors with single spaces. Idempotent; empty
// input yields empty output.
func FilterClasses(classString string) string {
	var kept []string
	for _, c := range strings.Fields(classString) {
		if !IsGeneratedClassName(c) {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " ")
}

// filteredClasses returns the authored class tokens of a class string.
func filteredClasses(classString string) []string {
	return strings.Fields(FilterClasses(classString))
}
