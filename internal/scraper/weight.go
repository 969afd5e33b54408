package scraper

import (
	"regexp"
	"strings"
)

// Weight is the parsed form of a course weight descriptor such as
// "3 units (fi 6)(EITHER, 3-0-3)". Every field is nil when the descriptor
// doesn't carry it.
type Weight struct {
	Units        *string
	FeeIndex     *string
	Schedule     *string
	LectureHours *string
	SeminarHours *string
	LabHours     *string
}

type Hours struct {
	Lecture string
	Seminar string
	Lab     string
}

// ParseWeight composes the component parsers, a component that fails to
// parse is left absent.
func ParseWeight(text string) Weight {
	text = strings.TrimSpace(text)
	w := Weight{}
	if units, ok := parseUnits(text); ok {
		w.Units = &units
	}
	if fi, ok := parseFeeIndex(text); ok {
		w.FeeIndex = &fi
	}
	if schedule, ok := parseScheduleType(text); ok {
		w.Schedule = &schedule
	}
	if hours, ok := parseHours(text); ok {
		w.LectureHours = &hours.Lecture
		w.SeminarHours = &hours.Seminar
		w.LabHours = &hours.Lab
	}
	return w
}

func parseUnits(text string) (string, bool) {
	before, _, found := strings.Cut(text, "units")
	if !found {
		return "", false
	}
	units := strings.TrimSpace(before)
	return units, units != ""
}

var feeIndexRegex = regexp.MustCompile(`\(\s*fi\s*([^)]*?)\s*\)`)

func parseFeeIndex(text string) (string, bool) {
	groups := feeIndexRegex.FindStringSubmatch(text)
	if len(groups) < 2 || groups[1] == "" {
		return "", false
	}
	return groups[1], true
}

// scheduleGroup returns the contents of the last parenthesised group when
// it is of the form "<type>, <hours>".
func scheduleGroup(text string) (string, string, bool) {
	open := strings.LastIndex(text, "(")
	if open < 0 {
		return "", "", false
	}
	group := strings.TrimRight(strings.TrimSpace(text[open+1:]), ")")
	scheduleType, hours, found := strings.Cut(group, ",")
	if !found {
		return "", "", false
	}
	if rest, _, more := strings.Cut(hours, ","); more {
		hours = rest
	}
	return strings.TrimSpace(scheduleType), strings.TrimSpace(hours), true
}

func parseScheduleType(text string) (string, bool) {
	scheduleType, _, ok := scheduleGroup(text)
	if !ok || scheduleType == "" {
		return "", false
	}
	return scheduleType, true
}

func parseHours(text string) (Hours, bool) {
	_, hours, ok := scheduleGroup(text)
	if !ok {
		return Hours{}, false
	}
	parts := strings.Split(hours, "-")
	if len(parts) != 3 {
		return Hours{}, false
	}
	for i, p := range parts {
		parts[i] = strings.Trim(p, " )")
		if parts[i] == "" {
			return Hours{}, false
		}
	}
	return Hours{Lecture: parts[0], Seminar: parts[1], Lab: parts[2]}, true
}
