package scraper

import (
	"context"
	"slices"

	"catalog-backend/internal/catalog"
	"catalog-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_subjects_fetch     = "subjects.fetch"
	report_subjects_container = "subjects.missing-container"
	report_subjects_item      = "subjects.item"
)

const subjectListSelector = "div.content > div.container > ul"

type subjectListing struct {
	code string
	name string
	link string
}

// Subjects lists the subjects of every faculty. A subject listed under
// several faculties is returned once with every faculty code.
func (s Scraper) Subjects(ctx context.Context, faculties catalog.Faculties) catalog.Subjects {
	codes := sortedKeys(faculties)
	listings := make([][]subjectListing, len(codes))

	errs := fanOut(s.workers, len(codes), func(i int) error {
		code := codes[i]
		doc, err := s.fetchDocument(ctx, faculties[code].Link)
		if err != nil {
			return err
		}
		listings[i] = s.parseSubjects(code, doc)
		return nil
	})
	for i, err := range errs {
		if err != nil {
			s.tel.ReportBroken(report_subjects_fetch, err, codes[i])
		}
	}

	return mergeSubjects(codes, listings)
}

func (s Scraper) parseSubjects(facultyCode string, doc *goquery.Document) []subjectListing {
	container := doc.Find(subjectListSelector).First()
	if container.Length() == 0 {
		s.tel.ReportWarning(report_subjects_container, facultyCode)
		return nil
	}

	var listings []subjectListing
	container.Find("li").Each(func(_ int, li *goquery.Selection) {
		anchor, ok := htmlutil.GetAnchor(s.root, li.Find("a"))
		if !ok {
			return
		}
		code, name, ok := splitListing(anchor.Name)
		if !ok {
			s.tel.ReportWarning(report_subjects_item, "no separator", facultyCode, anchor.Name)
			return
		}
		listings = append(listings, subjectListing{
			code: code,
			name: name,
			link: anchor.Url.String(),
		})
	})
	return listings
}

// mergeSubjects folds the per-faculty listings into one record set,
// facultyCodes[i] is the faculty listings[i] came from. The first sighting
// of a subject decides its name and link.
func mergeSubjects(facultyCodes []string, listings [][]subjectListing) catalog.Subjects {
	subjects := catalog.Subjects{}
	for i, facultyCode := range facultyCodes {
		for _, listing := range listings[i] {
			subject, seen := subjects[listing.code]
			if !seen {
				subject = catalog.Subject{
					Name:      listing.name,
					Link:      listing.link,
					Faculties: []string{},
				}
			}
			if !slices.Contains(subject.Faculties, facultyCode) {
				subject.Faculties = append(subject.Faculties, facultyCode)
			}
			subjects[listing.code] = subject
		}
	}
	return subjects
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
