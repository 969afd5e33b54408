// Package store persists one JSON document per pipeline stage.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"catalog-backend/internal/catalog"
	"catalog-backend/internal/components/assert"
)

type Document string

const (
	DocFaculties Document = "faculties"
	DocSubjects  Document = "subjects"
	DocCourses   Document = "courses"
	DocSchedules Document = "class_schedules"
)

var (
	ErrDocumentMissing   = errors.New("document missing")
	ErrDocumentMalformed = errors.New("document malformed")
)

// Store reads and writes documents in a directory.
type Store struct {
	dir string
}

func New(dir string) Store {
	assert.NotEmptyStr(dir)
	return Store{dir: dir}
}

func (s Store) Dir() string {
	return s.dir
}

func (s Store) Path(doc Document) string {
	return filepath.Join(s.dir, string(doc)+".json")
}

// Encode renders v the way every document is written: 4 space indents,
// sorted keys, html left unescaped and a trailing newline.
func Encode(v any) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	encoder := json.NewEncoder(buffer)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Write replaces the document with v, readers never see a partial file.
func (s Store) Write(doc Document, v any) error {
	serialized, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc, err)
	}

	err = os.MkdirAll(s.dir, 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, string(doc)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(serialized)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path(doc))
}

// Read decodes the document into v.
func (s Store) Read(doc Document, v any) error {
	contents, err := os.ReadFile(s.Path(doc))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrDocumentMissing, s.Path(doc))
	}
	if err != nil {
		return err
	}
	err = json.Unmarshal(contents, v)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrDocumentMalformed, s.Path(doc), err.Error())
	}
	return nil
}

func (s Store) Faculties() (catalog.Faculties, error) {
	var out catalog.Faculties
	err := s.Read(DocFaculties, &out)
	return out, err
}

func (s Store) Subjects() (catalog.Subjects, error) {
	var out catalog.Subjects
	err := s.Read(DocSubjects, &out)
	return out, err
}

func (s Store) Courses() (catalog.Courses, error) {
	var out catalog.Courses
	err := s.Read(DocCourses, &out)
	return out, err
}

func (s Store) Schedules() (catalog.Schedules, error) {
	var out catalog.Schedules
	err := s.Read(DocSchedules, &out)
	return out, err
}
