// Package ical renders a term of a course schedule as weekly recurring
// calendar events.
package ical

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"catalog-backend/internal/catalog"
	"catalog-backend/lib/timezone"

	ics "github.com/arran4/golang-ical"
)

const (
	productId       = "-//catalog-backend//class schedules//EN"
	localTimeFormat = "20060102T150405"
	utcTimeFormat   = "20060102T150405Z"
)

var weekdays = map[rune]struct {
	day  time.Weekday
	ical string
}{
	'U': {time.Sunday, "SU"},
	'M': {time.Monday, "MO"},
	'T': {time.Tuesday, "TU"},
	'W': {time.Wednesday, "WE"},
	'R': {time.Thursday, "TH"},
	'H': {time.Thursday, "TH"},
	'F': {time.Friday, "FR"},
	'S': {time.Saturday, "SA"},
}

type Options struct {
	CourseCode string
	CourseName string
	Term       string
	// First and Last are the first and last days classes are held on.
	First time.Time
	Last  time.Time
	// Now is used as the timestamp of every event.
	Now time.Time
}

// Build creates one event per day/time pair of every meeting in the term,
// repeating weekly on the pair's days between First and Last.
func Build(offering catalog.Term, opts Options) (*ics.Calendar, error) {
	if opts.Last.Before(opts.First) {
		return nil, fmt.Errorf("last day %s is before first day %s", opts.Last.Format(time.DateOnly), opts.First.Format(time.DateOnly))
	}
	first := inCampusTime(opts.First)
	until := time.Date(opts.Last.Year(), opts.Last.Month(), opts.Last.Day(), 23, 59, 59, 0, timezone.Location)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productId)
	cal.SetName(fmt.Sprintf("%s %s", opts.CourseCode, opts.Term))

	classTypes := make([]string, 0, len(offering))
	for classType := range offering {
		classTypes = append(classTypes, classType)
	}
	slices.Sort(classTypes)

	for _, classType := range classTypes {
		for i, meeting := range offering[classType] {
			for j, pair := range meeting.DayTimePairs {
				uid := strings.ToLower(fmt.Sprintf("%s-%s-%s-%d-%d@catalog-backend", opts.CourseCode, opts.Term, classType, i, j))
				err := addEvent(cal, uid, classType, meeting, pair, first, until, opts)
				if err != nil {
					return nil, fmt.Errorf("%s %s meeting %d: %w", opts.CourseCode, classType, i, err)
				}
			}
		}
	}
	return cal, nil
}

func addEvent(cal *ics.Calendar, uid, classType string, meeting catalog.Meeting, pair catalog.DayTimePair, first, until time.Time, opts Options) error {
	byDay, day, err := recurrence(pair.Days, first)
	if err != nil {
		return err
	}
	start, err := timezone.At(day, pair.StartTime)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := timezone.At(day, pair.EndTime)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if day.After(until) {
		return nil
	}

	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{timezone.Location.String()}}

	event := cal.AddEvent(uid)
	event.SetDtStampTime(opts.Now)
	event.SetSummary(summary(opts.CourseCode, classType, meeting))
	if opts.CourseName != "" {
		event.SetDescription(opts.CourseName)
	}
	event.SetProperty(ics.ComponentPropertyDtStart, start.Format(localTimeFormat), tzid)
	event.SetProperty(ics.ComponentPropertyDtEnd, end.Format(localTimeFormat), tzid)
	event.AddProperty(ics.ComponentPropertyRrule, fmt.Sprintf(
		"FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
		strings.Join(byDay, ","),
		until.UTC().Format(utcTimeFormat),
	))
	return nil
}

// recurrence turns a days string like "MWF" into BYDAY values and the
// first day on or after first that classes meet.
func recurrence(days string, first time.Time) ([]string, time.Time, error) {
	if days == "" {
		return nil, time.Time{}, fmt.Errorf("no days")
	}

	var byDay []string
	var earliest time.Time
	for _, r := range strings.ToUpper(days) {
		weekday, ok := weekdays[r]
		if !ok {
			return nil, time.Time{}, fmt.Errorf("unknown day %q in %q", r, days)
		}
		if slices.Contains(byDay, weekday.ical) {
			continue
		}
		byDay = append(byDay, weekday.ical)

		next := timezone.NextWeekday(first, weekday.day)
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	return byDay, earliest, nil
}

func summary(code, classType string, meeting catalog.Meeting) string {
	parts := []string{code, classType}
	if meeting.Section != nil {
		parts = append(parts, *meeting.Section)
	}
	return strings.Join(parts, " ")
}

func inCampusTime(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, timezone.Location)
}
