// Package catalogapi serves the persisted record sets read-only.
package catalogapi

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"catalog-backend/internal/catalog"
	"catalog-backend/internal/components/assert"
	"catalog-backend/internal/components/telemetry"
	"catalog-backend/internal/store"

	"github.com/antzucaro/matchr"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const report_catalog_load = "catalog.load"

var (
	ErrNotFound          = errors.New("not found")
	ErrFacultyNotFound   = errors.New("faculty not found")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrCourseNotFound    = errors.New("course not found")
	ErrTermNotFound      = errors.New("term not found")
	ErrClassTypeNotFound = errors.New("class type not found")

	// ErrNotOffered is returned by nested schedule lookups of a course
	// that has no scheduled offerings.
	ErrNotOffered = errors.New("course not offered")
	// ErrScheduleFailed is returned by nested schedule lookups of a course
	// whose schedule page could not be parsed.
	ErrScheduleFailed = errors.New("course schedule could not be scraped")
)

// minSuggestionSimilarity is the lowest Jaro-Winkler similarity that is
// still offered as a suggestion.
const minSuggestionSimilarity = 0.7

// NotFoundError is returned by every lookup of an unknown key. It matches
// both ErrNotFound and its Kind with errors.Is.
type NotFoundError struct {
	Kind       error
	Key        string
	Suggestion string
}

func (e NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (did you mean %s?)", e.Kind, e.Key, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Key)
}

func (e NotFoundError) Unwrap() []error {
	return []error{ErrNotFound, e.Kind}
}

func notFound[V any](kind error, key string, known map[string]V) NotFoundError {
	return NotFoundError{
		Kind:       kind,
		Key:        key,
		Suggestion: suggest(key, known),
	}
}

// suggest returns the known key most similar to key.
func suggest[V any](key string, known map[string]V) string {
	candidates := make([]string, 0, len(known))
	for k := range known {
		candidates = append(candidates, k)
	}
	slices.Sort(candidates)

	var best string
	var bestSimilarity float64
	for _, candidate := range candidates {
		similarity := matchr.JaroWinkler(strings.ToUpper(key), strings.ToUpper(candidate), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = candidate
		}
	}
	if bestSimilarity < minSuggestionSimilarity {
		return ""
	}
	return best
}

// Catalog reads documents from a store, every document is cached for ttl
// so that a finished scrape run is picked up without a restart.
type Catalog struct {
	store store.Store
	cache *expirable.LRU[store.Document, any]
	tel   telemetry.API
}

func New(st store.Store, ttl time.Duration, tel telemetry.API) Catalog {
	assert.NotNil(tel)

	return Catalog{
		store: st,
		cache: expirable.NewLRU[store.Document, any](4, nil, ttl),
		tel:   telemetry.NewScopedAPI("catalogapi", tel),
	}
}

func load[T any](c Catalog, doc store.Document, read func() (T, error)) (T, error) {
	cached, hit := c.cache.Get(doc)
	if hit {
		return cached.(T), nil
	}

	value, err := read()
	if err != nil {
		c.tel.ReportBroken(report_catalog_load, err, string(doc))
		var empty T
		return empty, err
	}
	c.cache.Add(doc, value)
	return value, nil
}

func (c Catalog) Faculties() (catalog.Faculties, error) {
	return load(c, store.DocFaculties, c.store.Faculties)
}

func (c Catalog) Subjects() (catalog.Subjects, error) {
	return load(c, store.DocSubjects, c.store.Subjects)
}

func (c Catalog) Courses() (catalog.Courses, error) {
	return load(c, store.DocCourses, c.store.Courses)
}

func (c Catalog) Schedules() (catalog.Schedules, error) {
	return load(c, store.DocSchedules, c.store.Schedules)
}

// Faculty looks up a faculty, code is case-insensitive.
func (c Catalog) Faculty(code string) (catalog.Faculty, error) {
	faculties, err := c.Faculties()
	if err != nil {
		return catalog.Faculty{}, err
	}
	code = strings.ToUpper(code)
	faculty, ok := faculties[code]
	if !ok {
		return catalog.Faculty{}, notFound(ErrFacultyNotFound, code, faculties)
	}
	return faculty, nil
}

// Subject looks up a subject, code is case-sensitive as scraped.
func (c Catalog) Subject(code string) (catalog.Subject, error) {
	subjects, err := c.Subjects()
	if err != nil {
		return catalog.Subject{}, err
	}
	subject, ok := subjects[code]
	if !ok {
		return catalog.Subject{}, notFound(ErrSubjectNotFound, code, subjects)
	}
	return subject, nil
}

// Course looks up a course, code is case-insensitive and must not contain
// spaces ("CMPUT404", not "CMPUT 404").
func (c Catalog) Course(code string) (catalog.Course, error) {
	courses, err := c.Courses()
	if err != nil {
		return catalog.Course{}, err
	}
	code = strings.ToUpper(code)
	course, ok := courses[code]
	if !ok {
		return catalog.Course{}, notFound(ErrCourseNotFound, code, courses)
	}
	return course, nil
}

// Schedule looks up the schedule of a course, code is case-insensitive.
func (c Catalog) Schedule(code string) (catalog.Schedule, error) {
	schedules, err := c.Schedules()
	if err != nil {
		return catalog.Schedule{}, err
	}
	code = strings.ToUpper(code)
	schedule, ok := schedules[code]
	if !ok {
		return catalog.Schedule{}, notFound(ErrCourseNotFound, code, schedules)
	}
	return schedule, nil
}

// Term looks up one term of a course schedule, term is matched
// case-insensitively ("fall2024" finds "Fall2024").
func (c Catalog) Term(code, term string) (catalog.Term, error) {
	schedule, err := c.Schedule(code)
	if err != nil {
		return nil, err
	}
	switch schedule.Status {
	case catalog.StatusNotOffered:
		return nil, fmt.Errorf("%s: %w", strings.ToUpper(code), ErrNotOffered)
	case catalog.StatusError:
		return nil, fmt.Errorf("%s: %w", strings.ToUpper(code), ErrScheduleFailed)
	}

	key, ok := matchKey(schedule.Terms, term)
	if !ok {
		return nil, notFound(ErrTermNotFound, term, schedule.Terms)
	}
	return schedule.Terms[key], nil
}

// ClassType looks up the meetings of one class type within a term. A class
// type that exists without meetings yields an empty, non-nil slice.
func (c Catalog) ClassType(code, term, classType string) ([]catalog.Meeting, error) {
	offering, err := c.Term(code, term)
	if err != nil {
		return nil, err
	}
	key, ok := matchKey(offering, classType)
	if !ok {
		return nil, notFound(ErrClassTypeNotFound, classType, offering)
	}
	meetings := offering[key]
	if meetings == nil {
		meetings = []catalog.Meeting{}
	}
	return meetings, nil
}

// matchKey prefers an exact match and falls back to the first key (in
// sorted order) that matches case-insensitively.
func matchKey[V any](m map[string]V, key string) (string, bool) {
	_, ok := m[key]
	if ok {
		return key, true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}
