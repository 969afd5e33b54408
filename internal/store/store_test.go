package store

import (
	"os"
	"path/filepath"
	"testing"

	"catalog-backend/internal/catalog"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWriteFormat(t *testing.T) {
	s := New(t.TempDir())

	err := s.Write(DocFaculties, catalog.Faculties{
		"SC": {Name: "Faculty of Science", Link: "https://apps.ualberta.ca/catalogue/faculty/sc"},
		"AR": {Name: "Faculty of Arts & Letters", Link: "https://apps.ualberta.ca/catalogue/faculty/ar"},
	})
	require.NoError(t, err)

	contents, err := os.ReadFile(s.Path(DocFaculties))
	require.NoError(t, err)
	require.Equal(t, `{
    "AR": {
        "faculty_name": "Faculty of Arts & Letters",
        "faculty_link": "https://apps.ualberta.ca/catalogue/faculty/ar"
    },
    "SC": {
        "faculty_name": "Faculty of Science",
        "faculty_link": "https://apps.ualberta.ca/catalogue/faculty/sc"
    }
}
`, string(contents))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteIsDeterministic(t *testing.T) {
	s := New(t.TempDir())
	schedules := catalog.Schedules{
		"B": catalog.NotOffered(),
		"A": catalog.Offered(catalog.TermOfferings{
			"Fall2024": {"Lecture": {{Capacity: catalog.Ptr("10")}}, "Lab": {}},
		}),
		"C": catalog.Errored(),
	}

	require.NoError(t, s.Write(DocSchedules, schedules))
	first, err := os.ReadFile(s.Path(DocSchedules))
	require.NoError(t, err)

	read, err := s.Schedules()
	require.NoError(t, err)
	if diff := cmp.Diff(schedules, read); diff != "" {
		t.Fatal(diff)
	}

	require.NoError(t, s.Write(DocSchedules, read))
	second, err := os.ReadFile(s.Path(DocSchedules))
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestReadErrors(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "data"))

	_, err := s.Courses()
	require.ErrorIs(t, err, ErrDocumentMissing)

	require.NoError(t, os.MkdirAll(s.Dir(), 0755))
	require.NoError(t, os.WriteFile(s.Path(DocCourses), []byte(`{"CMPUT404": `), 0644))
	_, err = s.Courses()
	require.ErrorIs(t, err, ErrDocumentMalformed)
}
