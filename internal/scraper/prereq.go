package scraper

import "strings"

// the colon-less plural comes before the singular so "Prerequisites CMPUT 201"
// doesn't split inside the word.
var prerequisiteMarkers = []string{
	"Prerequisite:",
	"Prerequisites:",
	"Prerequisites",
	"Prerequisite",
}

// SplitPrerequisites splits a course description at the first prerequisite
// marker present (in marker order). The prerequisites are re-prefixed with
// the marker and a colon, ok is false when there is no marker.
func SplitPrerequisites(text string) (description, prerequisites string, ok bool) {
	text = strings.TrimSpace(text)
	for _, marker := range prerequisiteMarkers {
		before, after, found := strings.Cut(text, marker)
		if !found {
			continue
		}
		label := strings.TrimSuffix(marker, ":")
		return strings.TrimSpace(before), label + ": " + strings.TrimSpace(after), true
	}
	return text, "", false
}
