// Package catalog holds the record types produced by the scraping pipeline
// and served by the retrieval layer.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Faculty struct {
	Name string `json:"faculty_name"`
	Link string `json:"faculty_link"`
}

type Subject struct {
	Name      string   `json:"name"`
	Link      string   `json:"link"`
	Faculties []string `json:"faculties"`
}

// Course is a single catalog entry. Optional fields are nil when the source
// text does not carry them and are serialized as null.
type Course struct {
	Name          string  `json:"course_name"`
	Link          string  `json:"course_link"`
	Description   string  `json:"course_description"`
	Units         *string `json:"course_units"`
	FeeIndex      *string `json:"course_fee_index"`
	Schedule      *string `json:"course_schedule"`
	LectureHours  *string `json:"course_hrs_for_lecture"`
	SeminarHours  *string `json:"course_hrs_for_seminar"`
	LabHours      *string `json:"course_hrs_for_labtime"`
	Prerequisites *string `json:"course_prerequisites"`
	SubjectCode   string  `json:"subject_code"`
}

type DayTimePair struct {
	Days      string `json:"days"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Meeting is one row of a class-type table. Absent fields omit their key.
type Meeting struct {
	Section      *string       `json:"section,omitempty"`
	Code         *string       `json:"code,omitempty"`
	Capacity     *string       `json:"capacity,omitempty"`
	DayTimePairs []DayTimePair `json:"day_time_pairs,omitempty"`
}

// Term maps a class-type label ("Lecture", "Lab", ...) to its meetings in
// page order. A class type without rows maps to an empty, non-nil slice.
type Term map[string][]Meeting

// TermOfferings maps a term label ("Fall2024") to its class types.
type TermOfferings map[string]Term

type ScheduleStatus string

const (
	StatusOffered    ScheduleStatus = ""
	StatusNotOffered ScheduleStatus = "not offered"
	StatusError      ScheduleStatus = "error"
)

// Schedule is either a set of term offerings or one of the sentinels
// "not offered" and "error", which are serialized as bare strings.
type Schedule struct {
	Terms  TermOfferings
	Status ScheduleStatus
}

func Offered(terms TermOfferings) Schedule {
	return Schedule{Terms: terms}
}

func NotOffered() Schedule {
	return Schedule{Status: StatusNotOffered}
}

func Errored() Schedule {
	return Schedule{Status: StatusError}
}

func (s Schedule) IsOffered() bool {
	return s.Status == StatusOffered
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	var v any = s.Terms
	if s.Status != StatusOffered {
		v = string(s.Status)
	} else if s.Terms == nil {
		v = TermOfferings{}
	}

	buffer := bytes.NewBuffer(nil)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var status string
		err := json.Unmarshal(data, &status)
		if err != nil {
			return err
		}
		switch ScheduleStatus(status) {
		case StatusNotOffered, StatusError:
			*s = Schedule{Status: ScheduleStatus(status)}
			return nil
		}
		return fmt.Errorf("unknown schedule sentinel %q", status)
	}

	var terms TermOfferings
	err := json.Unmarshal(data, &terms)
	if err != nil {
		return err
	}
	if terms == nil {
		terms = TermOfferings{}
	}
	*s = Schedule{Terms: terms}
	return nil
}

type Faculties map[string]Faculty
type Subjects map[string]Subject
type Courses map[string]Course
type Schedules map[string]Schedule

// Ptr returns a pointer to s, used for optional fields.
func Ptr(s string) *string {
	return &s
}
