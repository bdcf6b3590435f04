package utils

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	DefaultReturnTo = "/Main_Page"
	wikiPrefix      = "/wiki/"
)

var absoluteURLRe = regexp.MustCompile(`(?i)^https?://`)

// NormalizeReturnTo turns a caller-supplied destination into a same-origin
// path. Absolute and protocol-relative URLs fall back to defaultPath, a
// leading /wiki/ is dropped and a missing leading slash is added. Paths with
// control characters are rejected since browsers drop tab, CR and LF while
// parsing, which can turn "/\t/host" into "//host".
func NormalizeReturnTo(raw, defaultPath string) string {
	if path, ok := normalizePath(raw); ok {
		return path
	}
	if path, ok := normalizePath(defaultPath); ok {
		return path
	}
	return DefaultReturnTo
}

func normalizePath(raw string) (string, bool) {
	if isOffsite(raw) {
		return "", false
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	for strings.HasPrefix(raw, wikiPrefix) {
		raw = raw[len(wikiPrefix)-1:]
	}
	// "/wiki//host" collapses to a protocol-relative URL
	if isOffsite(raw) {
		return "", false
	}
	return raw, true
}

func isOffsite(path string) bool {
	return path == "" ||
		strings.ContainsFunc(path, unicode.IsControl) ||
		absoluteURLRe.MatchString(path) ||
		strings.HasPrefix(path, "//") ||
		strings.HasPrefix(path, `/\`)
}
