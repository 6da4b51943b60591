// Package titles derives human-readable chapter titles from Markdown text.
package titles

import (
	"regexp"
	"strings"
)

var (
	h1Pattern        = regexp.MustCompile(`(?m)^#[ \t]+(\S.*)$`)
	h2Pattern        = regexp.MustCompile(`(?m)^##[ \t]+(\S.*)$`)
	extensionPattern = regexp.MustCompile(`(?i)\.(md|markdown)$`)
)

// Extract returns the first level-1 heading, else the first level-2
// heading, else a title derived from fileName. Only single-line ATX
// headings are recognised.
func Extract(content, fileName string) string {
	if m := h1Pattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := h2Pattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	return FromFileName(fileName)
}

// FromFileName strips a Markdown extension and turns - and _ into spaces
func FromFileName(fileName string) string {
	name := extensionPattern.ReplaceAllString(fileName, "")
	return strings.NewReplacer("-", " ", "_", " ").Replace(name)
}
