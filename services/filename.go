package services

import (
	"regexp"
	"strings"
	"time"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-\s]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	underscoreRuns  = regexp.MustCompile(`_+`)
)

// SanitizeFileStem turns a project name into a filename stem. Characters
// outside letters, digits, underscore, hyphen and whitespace become
// underscores, whitespace runs become a single underscore, repeated
// underscores collapse and leading/trailing underscores are trimmed. An
// empty result falls back to "bill".
func SanitizeFileStem(name string) string {
	s := unsafeNameChars.ReplaceAllString(name, "_")
	s = strings.TrimSpace(s)
	s = whitespaceRuns.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "bill"
	}
	return s
}

// GenerateFileName returns "<stem>_Bill_YYYYMMDD_HHMMSS.<ext>" for the given
// instant, in the instant's own location.
func GenerateFileName(projectName, ext string, at time.Time) string {
	return SanitizeFileStem(projectName) + "_Bill_" + at.Format("20060102_150405") + "." + ext
}
