package scraper

import (
	"regexp"
	"strings"

	"catalog-backend/internal/catalog"
	"catalog-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	daysRegex = regexp.MustCompile(`\(([A-Za-z]+)\)`)
	timeRegex = regexp.MustCompile(`\d{2}:\d{2}`)
)

func parseMeeting(row *goquery.Selection) catalog.Meeting {
	meeting := catalog.Meeting{}

	sectionCell := row.Find(`td[data-card-title="Section"]`).First()
	if sectionCell.Length() > 0 {
		meeting.Section, meeting.Code = parseSection(htmlutil.Text(sectionCell))
	}

	capacityCell := row.Find(`td[data-card-title="Capacity"]`).First()
	if capacityCell.Length() > 0 {
		capacity := htmlutil.Text(capacityCell)
		meeting.Capacity = &capacity
	}

	timesCell := row.Find(`td[data-card-title="Class times"]`).First()
	if timesCell.Length() > 0 {
		pairs := parseDayTimePairs(timesCell)
		if len(pairs) > 0 {
			meeting.DayTimePairs = pairs
		}
	}

	return meeting
}

// parseSection splits "LECTURE A1 (12345)" into its label and code. Text
// without a parenthesis is all label.
func parseSection(text string) (section, code *string) {
	label, rest, found := strings.Cut(text, "(")
	label = strings.TrimSpace(label)
	if label != "" {
		section = &label
	}
	if !found {
		return section, nil
	}
	rest, _, _ = strings.Cut(rest, "(")
	rest = strings.TrimSpace(strings.Trim(rest, ")"))
	if rest != "" {
		code = &rest
	}
	return section, code
}

// parseDayTimePairs walks the markers of a class times cell in order. A
// calendar marker sets the current days, the clock marker after it emits
// one pair when it carries exactly two times and then clears them.
func parseDayTimePairs(cell *goquery.Selection) []catalog.DayTimePair {
	pairs := []catalog.DayTimePair{}
	currentDays := ""

	cell.Find(".col").Each(func(_ int, marker *goquery.Selection) {
		switch {
		case marker.Find("span.fa-calendar").Length() > 0:
			groups := daysRegex.FindStringSubmatch(htmlutil.Text(marker))
			if len(groups) == 2 {
				currentDays = groups[1]
			}
		case marker.Find("span.fa-clock").Length() > 0 && currentDays != "":
			times := timeRegex.FindAllString(htmlutil.Text(marker), -1)
			if len(times) == 2 {
				pairs = append(pairs, catalog.DayTimePair{
					Days:      currentDays,
					StartTime: times[0],
					EndTime:   times[1],
				})
			}
			currentDays = ""
		}
	})

	return pairs
}
