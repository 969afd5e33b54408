package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"catalog-backend/internal/catalog"
	"catalog-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	report_schedules_fetch = "schedules.fetch"
	report_schedules_parse = "schedules.parse"
	report_schedules_terms = "schedules.missing-terms"
)

const (
	notOfferedSelector = "div.alert.alert-warning"
	notOfferedNotice   = "no scheduled offerings"
	termSelector       = "div.container > div.mb-5"
)

var errMissingTermHeading = errors.New("term section without heading")

type scheduleResult struct {
	schedule catalog.Schedule
	ok       bool
}

// Schedules extracts the term offerings of every course. Courses whose
// page could not be fetched or has no term sections are left out, courses
// whose page failed to parse are recorded as "error".
func (s Scraper) Schedules(ctx context.Context, courses catalog.Courses) catalog.Schedules {
	codes := sortedKeys(courses)
	results := make([]scheduleResult, len(codes))

	errs := fanOut(s.workers, len(codes), func(i int) error {
		code := codes[i]
		doc, err := s.fetchDocument(ctx, courses[code].Link)
		if err != nil {
			s.tel.ReportWarning(report_schedules_fetch, err, code)
			return nil
		}
		schedule, ok, err := parseSchedule(doc)
		if err != nil {
			return err
		}
		if !ok {
			s.tel.ReportWarning(report_schedules_terms, code)
		}
		results[i] = scheduleResult{schedule: schedule, ok: ok}
		return nil
	})

	schedules := catalog.Schedules{}
	for i, code := range codes {
		if errs[i] != nil {
			s.tel.ReportBroken(report_schedules_parse, errs[i], code)
			schedules[code] = catalog.Errored()
			continue
		}
		if results[i].ok {
			schedules[code] = results[i].schedule
		}
	}
	return schedules
}

// parseSchedule returns ok=false for an offered page without term sections.
func parseSchedule(doc *goquery.Document) (catalog.Schedule, bool, error) {
	notOffered := false
	doc.Find(notOfferedSelector).EachWithBreak(func(_ int, alert *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(htmlutil.Text(alert)), notOfferedNotice) {
			notOffered = true
			return false
		}
		return true
	})
	if notOffered {
		return catalog.NotOffered(), true, nil
	}

	terms := doc.Find(termSelector)
	if terms.Length() == 0 {
		return catalog.Schedule{}, false, nil
	}

	nextTable := nextTables(doc.Selection)
	offerings := catalog.TermOfferings{}
	var err error
	terms.EachWithBreak(func(_ int, section *goquery.Selection) bool {
		heading := section.Find("h2").First()
		if heading.Length() == 0 {
			err = errMissingTermHeading
			return false
		}

		term := catalog.Term{}
		section.Find("h3").Each(func(_ int, h3 *goquery.Selection) {
			classType := capitalize(htmlutil.Text(h3))
			meetings := []catalog.Meeting{}

			table, found := nextTable[h3.Nodes[0]]
			if found {
				doc.FindNodes(table).Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
					meetings = append(meetings, parseMeeting(row))
				})
			}
			term[classType] = meetings
		})

		offerings[termLabel(htmlutil.Text(heading))] = term
		return true
	})
	if err != nil {
		return catalog.Schedule{}, false, fmt.Errorf("parse schedule: %w", err)
	}

	return catalog.Offered(offerings), true, nil
}

// nextTables maps every h3 to the first table after it in document order.
func nextTables(root *goquery.Selection) map[*html.Node]*html.Node {
	out := map[*html.Node]*html.Node{}
	var pending []*html.Node

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h3":
				pending = append(pending, n)
			case "table":
				for _, h3 := range pending {
					out[h3] = n
				}
				pending = pending[:0]
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return out
}

// termLabel turns "Fall Term 2024" into "Fall2024".
func termLabel(heading string) string {
	heading = strings.ReplaceAll(heading, "Term", "")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, heading)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
