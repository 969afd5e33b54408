package scraper

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"
	"testing"

	"catalog-backend/internal/catalog"
	"catalog-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.html
var fixtures embed.FS

const testRoot = "https://apps.ualberta.ca"

var errFixtureMissing = errors.New("no fixture for url")

// fixtureFetcher serves testdata files by url.
type fixtureFetcher struct {
	pages map[string]string
	mutex sync.Mutex
	calls []string
}

func (f *fixtureFetcher) Fetch(_ context.Context, link string) (string, error) {
	f.mutex.Lock()
	f.calls = append(f.calls, link)
	f.mutex.Unlock()

	name, ok := f.pages[link]
	if !ok {
		return "", fmt.Errorf("%w: %s", errFixtureMissing, link)
	}
	contents, err := fixtures.ReadFile(path.Join("testdata", name))
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

func newFixtureScraper(t testing.TB, pages map[string]string) (Scraper, *telemetry.Recorder) {
	root, err := url.Parse(testRoot)
	require.NoError(t, err)

	rec := &telemetry.Recorder{}
	s := NewScraper(&fixtureFetcher{pages: pages}, Options{
		RootUrl:    root,
		CatalogUrl: testRoot + "/catalogue",
		Workers:    4,
	}, rec)
	return s, rec
}

func readFixture(t testing.TB, name string) *goquery.Document {
	contents, err := fixtures.ReadFile(path.Join("testdata", name))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(contents)))
	require.NoError(t, err)
	return doc
}

func TestFaculties(t *testing.T) {
	s, rec := newFixtureScraper(t, map[string]string{
		testRoot + "/catalogue": "catalogue.html",
	})

	faculties, err := s.Faculties(context.Background())
	require.NoError(t, err)

	expected := catalog.Faculties{
		"AR": {Name: "Faculty of Arts", Link: testRoot + "/catalogue/faculty/ar"},
		"EN": {Name: "Faculty of Engineering", Link: testRoot + "/catalogue/faculty/en"},
		"SC": {Name: "Faculty of Science", Link: testRoot + "/catalogue/faculty/sc"},
	}
	if diff := cmp.Diff(expected, faculties); diff != "" {
		t.Fatal(diff)
	}
	require.Len(t, rec.Find("warning", report_faculties_item), 2)
}

func TestFacultiesStructuralDrift(t *testing.T) {
	s, rec := newFixtureScraper(t, map[string]string{
		testRoot + "/catalogue": "catalogue_drift.html",
	})

	faculties, err := s.Faculties(context.Background())
	require.ErrorIs(t, err, ErrStructuralDrift)
	require.Empty(t, faculties)
	require.Len(t, rec.Find("warning", report_faculties_container), 1)
}

func TestFacultiesFetchFailure(t *testing.T) {
	s, rec := newFixtureScraper(t, map[string]string{})

	faculties, err := s.Faculties(context.Background())
	require.ErrorIs(t, err, errFixtureMissing)
	require.Empty(t, faculties)
	require.Len(t, rec.Find("broken", report_faculties_fetch), 1)
}

var testFaculties = catalog.Faculties{
	"AR": {Name: "Faculty of Arts", Link: testRoot + "/catalogue/faculty/ar"},
	"EN": {Name: "Faculty of Engineering", Link: testRoot + "/catalogue/faculty/en"},
	"SC": {Name: "Faculty of Science", Link: testRoot + "/catalogue/faculty/sc"},
	// fails to fetch
	"ZZ": {Name: "Faculty of Nothing", Link: testRoot + "/catalogue/faculty/zz"},
}

var facultyPages = map[string]string{
	testRoot + "/catalogue/faculty/ar": "faculty_ar.html",
	testRoot + "/catalogue/faculty/en": "faculty_en.html",
	testRoot + "/catalogue/faculty/sc": "faculty_sc.html",
}

func TestSubjects(t *testing.T) {
	s, rec := newFixtureScraper(t, facultyPages)

	subjects := s.Subjects(context.Background(), testFaculties)

	expected := catalog.Subjects{
		"CMPUT": {
			Name:      "Computing Science",
			Link:      testRoot + "/catalogue/course/cmput",
			Faculties: []string{"SC"},
		},
		"ECE": {
			Name:      "Electrical and Computer Engineering",
			Link:      testRoot + "/catalogue/course/ece",
			Faculties: []string{"EN"},
		},
		"INT D": {
			Name:      "Interdisciplinary Undergraduate and Graduate Courses (Engineering)",
			Link:      testRoot + "/catalogue/course/int_d",
			Faculties: []string{"EN", "SC"},
		},
		"MATH": {
			Name:      "Mathematics",
			Link:      testRoot + "/catalogue/course/math",
			Faculties: []string{"EN", "SC"},
		},
	}
	if diff := cmp.Diff(expected, subjects); diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, rec.Find("warning", report_subjects_container), 1)
	require.Len(t, rec.Find("warning", report_subjects_item), 1)
	require.Len(t, rec.Find("broken", report_subjects_fetch), 1)
}

func TestSubjectsMergeIsOrderIndependent(t *testing.T) {
	sc := subjectListing{code: "MATH", name: "Mathematics", link: "m"}
	en := subjectListing{code: "MATH", name: "Mathematics", link: "m"}
	dup := subjectListing{code: "CMPUT", name: "Computing Science", link: "c"}

	forward := mergeSubjects(
		[]string{"EN", "SC"},
		[][]subjectListing{{en}, {sc, dup, dup}},
	)
	require.Equal(t, []string{"EN", "SC"}, forward["MATH"].Faculties)
	require.Equal(t, []string{"SC"}, forward["CMPUT"].Faculties)

	// the stage always merges in sorted faculty order, so reversing the
	// faculties it was given changes nothing
	reversed := catalog.Faculties{}
	codes := sortedKeys(testFaculties)
	slices.Reverse(codes)
	for _, code := range codes {
		reversed[code] = testFaculties[code]
	}
	a, _ := newFixtureScraper(t, facultyPages)
	b, _ := newFixtureScraper(t, facultyPages)
	if diff := cmp.Diff(a.Subjects(context.Background(), testFaculties), b.Subjects(context.Background(), reversed)); diff != "" {
		t.Fatal(diff)
	}
}

func TestCourses(t *testing.T) {
	s, rec := newFixtureScraper(t, map[string]string{
		testRoot + "/catalogue/course/cmput": "subject_cmput.html",
		testRoot + "/catalogue/course/math":  "subject_math.html",
		// subject without course containers
		testRoot + "/catalogue/course/ece": "faculty_ar.html",
	})

	courses := s.Courses(context.Background(), catalog.Subjects{
		"CMPUT": {Name: "Computing Science", Link: testRoot + "/catalogue/course/cmput", Faculties: []string{"SC"}},
		"MATH":  {Name: "Mathematics", Link: testRoot + "/catalogue/course/math", Faculties: []string{"SC"}},
		"ECE":   {Name: "Electrical and Computer Engineering", Link: testRoot + "/catalogue/course/ece", Faculties: []string{"EN"}},
	})

	p := catalog.Ptr
	expected := catalog.Courses{
		"CMPUT174": {
			Name:         "Introduction to the Foundations of Computation I",
			Link:         testRoot + "/catalogue/course/cmput/174",
			Description:  "CMPUT 174 and 175 use a problem-driven approach to introduce the fundamental ideas of Computing Science.",
			Units:        p("3"),
			FeeIndex:     p("6"),
			Schedule:     p("EITHER"),
			LectureHours: p("3"),
			SeminarHours: p("0"),
			LabHours:     p("3"),
			SubjectCode:  "CMPUT",
		},
		"CMPUT201": {
			Name:          "Practical Programming Methodology",
			Link:          testRoot + "/catalogue/course/cmput/201",
			Description:   "Introduction to the principles, methods, tools, and practices of the professional programmer.",
			Units:         p("3"),
			Prerequisites: p("Prerequisites: CMPUT 175 or 275."),
			SubjectCode:   "CMPUT",
		},
		"CMPUT404": {
			Name:          "Web Applications and Architecture",
			Link:          testRoot + "/catalogue/course/cmput/404",
			Description:   "Design of software.",
			Units:         p("3"),
			FeeIndex:      p("6"),
			Schedule:      p("EITHER"),
			LectureHours:  p("3"),
			SeminarHours:  p("0"),
			LabHours:      p("1.5"),
			Prerequisites: p("Prerequisite: CMPUT 201."),
			SubjectCode:   "CMPUT",
		},
		"CMPUT499": {
			Name:        "Special Topics",
			Link:        testRoot + "/catalogue/course/cmput/499",
			Description: defaultDescription,
			SubjectCode: "CMPUT",
		},
		"MATH125": {
			Name:          "Linear Algebra I",
			Link:          testRoot + "/catalogue/course/math/125",
			Description:   "Systems of linear equations.",
			Units:         p("3"),
			FeeIndex:      p("6"),
			Schedule:      p("EITHER"),
			LectureHours:  p("3"),
			SeminarHours:  p("0"),
			LabHours:      p("1"),
			Prerequisites: p("Prerequisites: Mathematics 30-1."),
			SubjectCode:   "MATH",
		},
	}
	if diff := cmp.Diff(expected, courses); diff != "" {
		t.Fatal(diff)
	}
	require.Len(t, rec.Find("warning", report_courses_container), 1)

	for code := range courses {
		require.NotContains(t, code, " ")
	}
}

func TestCanonicalCourseCode(t *testing.T) {
	require.Equal(t, "CMPUT404", canonicalCourseCode("CMPUT 404"))
	require.Equal(t, "INTD101", canonicalCourseCode(" INT D\t101 "))
	require.Equal(t, "MATH125", canonicalCourseCode("MATH125"))
}

func TestSchedules(t *testing.T) {
	s, rec := newFixtureScraper(t, map[string]string{
		testRoot + "/catalogue/course/cmput/404": "course_cmput404.html",
		testRoot + "/catalogue/course/cmput/499": "course_not_offered.html",
		testRoot + "/catalogue/course/cmput/174": "course_no_terms.html",
		testRoot + "/catalogue/course/math/125":  "course_broken.html",
	})

	schedules := s.Schedules(context.Background(), catalog.Courses{
		"CMPUT404": {Link: testRoot + "/catalogue/course/cmput/404"},
		"CMPUT499": {Link: testRoot + "/catalogue/course/cmput/499"},
		"CMPUT174": {Link: testRoot + "/catalogue/course/cmput/174"},
		"MATH125":  {Link: testRoot + "/catalogue/course/math/125"},
		// fails to fetch
		"CMPUT201": {Link: testRoot + "/catalogue/course/cmput/201"},
	})

	p := catalog.Ptr
	expected := catalog.Schedules{
		"CMPUT404": catalog.Offered(catalog.TermOfferings{
			"Fall2024": {
				"Lecture": {
					{
						Section:  p("LECTURE A1"),
						Code:     p("81234"),
						Capacity: p("150"),
						DayTimePairs: []catalog.DayTimePair{
							{Days: "MWF", StartTime: "10:00", EndTime: "10:50"},
						},
					},
					{
						Section:  p("LECTURE A2"),
						Capacity: p("50"),
					},
				},
				"Lab": {
					{
						Section:  p("LAB H01"),
						Code:     p("81240"),
						Capacity: p("30"),
						DayTimePairs: []catalog.DayTimePair{
							{Days: "T", StartTime: "14:00", EndTime: "16:50"},
							{Days: "R", StartTime: "14:00", EndTime: "16:50"},
						},
					},
				},
			},
			"Winter2025": {
				"Seminar": {},
			},
		}),
		"CMPUT499": catalog.NotOffered(),
		"MATH125":  catalog.Errored(),
	}
	if diff := cmp.Diff(expected, schedules); diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, rec.Find("warning", report_schedules_terms), 1)
	require.Len(t, rec.Find("warning", report_schedules_fetch), 1)
	require.Len(t, rec.Find("broken", report_schedules_parse), 1)
}

type panickingFetcher struct {
	fixtureFetcher
	panicOn string
}

func (f *panickingFetcher) Fetch(ctx context.Context, link string) (string, error) {
	if link == f.panicOn {
		panic("connection state corrupted")
	}
	return f.fixtureFetcher.Fetch(ctx, link)
}

func TestSchedulesPanicIsContained(t *testing.T) {
	root, err := url.Parse(testRoot)
	require.NoError(t, err)

	fetcher := &panickingFetcher{
		fixtureFetcher: fixtureFetcher{pages: map[string]string{
			testRoot + "/a": "course_not_offered.html",
			testRoot + "/c": "course_not_offered.html",
		}},
		panicOn: testRoot + "/b",
	}
	s := NewScraper(fetcher, Options{RootUrl: root, CatalogUrl: testRoot, Workers: 2}, &telemetry.Recorder{})

	schedules := s.Schedules(context.Background(), catalog.Courses{
		"A": {Link: testRoot + "/a"},
		"B": {Link: testRoot + "/b"},
		"C": {Link: testRoot + "/c"},
	})
	if diff := cmp.Diff(catalog.Schedules{
		"A": catalog.NotOffered(),
		"B": catalog.Errored(),
		"C": catalog.NotOffered(),
	}, schedules); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseScheduleNextTableInDocumentOrder(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div class="container">
			<div class="mb-5">
				<h2>Spring Term 2025</h2>
				<h3>Lecture</h3>
				<h3>Lab</h3>
				<div><table><tbody>
					<tr><td data-card-title="Capacity">10</td></tr>
				</tbody></table></div>
			</div>
			<div class="mb-5">
				<h2>Spring Term 2025</h2>
				<h3>Seminar</h3>
			</div>
		</div>
	`))
	require.NoError(t, err)

	schedule, ok, err := parseSchedule(doc)
	require.NoError(t, err)
	require.True(t, ok)

	// the second term has the same label and replaces the first
	expected := catalog.Offered(catalog.TermOfferings{
		"Spring2025": {"Seminar": {}},
	})
	if diff := cmp.Diff(expected, schedule); diff != "" {
		t.Fatal(diff)
	}

	first := doc.Find("div.mb-5").First()
	tables := nextTables(doc.Selection)
	h3s := first.Find("h3")
	require.Equal(t, tables[h3s.Nodes[0]], tables[h3s.Nodes[1]])
	require.NotNil(t, tables[h3s.Nodes[0]])
}

func TestParseScheduleLastTermWins(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div class="container">
			<div class="mb-5">
				<h2>Fall Term 2024</h2>
				<h3>Lecture</h3>
				<table><tbody>
					<tr><td data-card-title="Section">LECTURE A1 (81234)</td></tr>
				</tbody></table>
			</div>
			<div class="mb-5">
				<h2>Fall  2024 Term</h2>
				<h3>Lab</h3>
				<table><tbody>
					<tr><td data-card-title="Section">LAB D1 (81240)</td></tr>
				</tbody></table>
			</div>
		</div>
	`))
	require.NoError(t, err)

	schedule, ok, err := parseSchedule(doc)
	require.NoError(t, err)
	require.True(t, ok)

	expected := catalog.Offered(catalog.TermOfferings{
		"Fall2024": {"Lab": {{
			Section: catalog.Ptr("LAB D1"),
			Code:    catalog.Ptr("81240"),
		}}},
	})
	if diff := cmp.Diff(expected, schedule); diff != "" {
		t.Fatal(diff)
	}
}

func TestTermLabel(t *testing.T) {
	require.Equal(t, "Fall2024", termLabel("Fall Term 2024"))
	require.Equal(t, "Winter2025", termLabel(" Winter  Term\n2025 "))
	require.Equal(t, "Summer2024", termLabel("Summer 2024"))
}

func TestCapitalize(t *testing.T) {
	require.Equal(t, "Lecture", capitalize("LECTURE"))
	require.Equal(t, "Lab", capitalize(" lab "))
	require.Equal(t, "Seminar", capitalize("Seminar"))
	require.Equal(t, "", capitalize(""))
}

func TestNotOfferedDetection(t *testing.T) {
	schedule, ok, err := parseSchedule(readFixture(t, "course_not_offered.html"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, catalog.NotOffered(), schedule)
	require.NotEqual(t, catalog.Offered(catalog.TermOfferings{}), schedule)
}
