package utils

import (
	"regexp"
	"strings"
)

// SearchPattern turns free text from a search box into a regular expression that
// matches it literally as a substring. An empty result means "no search".
func SearchPattern(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	return regexp.QuoteMeta(search)
}
