package scraper

import (
	"context"
	"strings"
	"unicode"

	"catalog-backend/internal/catalog"
	"catalog-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_courses_fetch     = "courses.fetch"
	report_courses_container = "courses.missing-container"
	report_courses_item      = "courses.item"
)

const (
	courseContainerSelector = "div.container > div.mb-3.pb-3.border-bottom"
	defaultDescription      = "No description available."
)

type courseListing struct {
	code   string
	course catalog.Course
}

// Courses lists the courses of every subject keyed by their canonical code.
// When two subjects list the same course code, the subject that sorts last
// wins.
func (s Scraper) Courses(ctx context.Context, subjects catalog.Subjects) catalog.Courses {
	codes := sortedKeys(subjects)
	listings := make([][]courseListing, len(codes))

	errs := fanOut(s.workers, len(codes), func(i int) error {
		code := codes[i]
		doc, err := s.fetchDocument(ctx, subjects[code].Link)
		if err != nil {
			return err
		}
		listings[i] = s.parseCourses(code, doc)
		return nil
	})
	for i, err := range errs {
		if err != nil {
			s.tel.ReportBroken(report_courses_fetch, err, codes[i])
		}
	}

	courses := catalog.Courses{}
	for _, subjectListings := range listings {
		for _, listing := range subjectListings {
			courses[listing.code] = listing.course
		}
	}
	return courses
}

func (s Scraper) parseCourses(subjectCode string, doc *goquery.Document) []courseListing {
	containers := doc.Find(courseContainerSelector)
	if containers.Length() == 0 {
		s.tel.ReportWarning(report_courses_container, subjectCode)
		return nil
	}

	var listings []courseListing
	containers.Each(func(_ int, container *goquery.Selection) {
		listing, ok := s.parseCourse(subjectCode, container)
		if ok {
			listings = append(listings, listing)
		}
	})
	return listings
}

func (s Scraper) parseCourse(subjectCode string, container *goquery.Selection) (courseListing, bool) {
	anchor, ok := htmlutil.GetAnchor(s.root, container.Find("a[href]"))
	if !ok {
		return courseListing{}, false
	}
	code, name, ok := splitListing(anchor.Name)
	if !ok {
		s.tel.ReportWarning(report_courses_item, "no separator", subjectCode, anchor.Name)
		return courseListing{}, false
	}

	course := catalog.Course{
		Name:        name,
		Link:        anchor.Url.String(),
		Description: defaultDescription,
		SubjectCode: subjectCode,
	}

	weightTag := container.Find("b").First()
	if weightTag.Length() > 0 {
		weight := ParseWeight(htmlutil.Text(weightTag))
		course.Units = weight.Units
		course.FeeIndex = weight.FeeIndex
		course.Schedule = weight.Schedule
		course.LectureHours = weight.LectureHours
		course.SeminarHours = weight.SeminarHours
		course.LabHours = weight.LabHours
	}

	descriptionTag := container.Find("p").First()
	if descriptionTag.Length() > 0 {
		description, prerequisites, found := SplitPrerequisites(htmlutil.Text(descriptionTag))
		course.Description = description
		if found {
			course.Prerequisites = &prerequisites
		}
	}

	return courseListing{code: canonicalCourseCode(code), course: course}, true
}

// canonicalCourseCode drops every whitespace rune, "CMPUT 404" becomes
// "CMPUT404".
func canonicalCourseCode(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
}
