package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// ClearAll removes every exported row, children first.
func (q *Queries) ClearAll(ctx context.Context) error {
	for _, table := range []string{
		"day_time_pairs",
		"meetings",
		"term_class_types",
		"schedules",
		"courses",
		"subject_faculties",
		"subjects",
		"faculties",
	} {
		_, err := q.db.ExecContext(ctx, "delete from "+table)
		if err != nil {
			return err
		}
	}
	return nil
}

const insertFaculty = `insert into faculties (code, name, link) values (?, ?, ?)`

type InsertFacultyParams struct {
	Code string
	Name string
	Link string
}

func (q *Queries) InsertFaculty(ctx context.Context, arg InsertFacultyParams) error {
	_, err := q.db.ExecContext(ctx, insertFaculty, arg.Code, arg.Name, arg.Link)
	return err
}

const insertSubject = `insert into subjects (code, name, link) values (?, ?, ?)`

type InsertSubjectParams struct {
	Code string
	Name string
	Link string
}

func (q *Queries) InsertSubject(ctx context.Context, arg InsertSubjectParams) error {
	_, err := q.db.ExecContext(ctx, insertSubject, arg.Code, arg.Name, arg.Link)
	return err
}

const insertSubjectFaculty = `insert into subject_faculties (subject_code, faculty_code, position) values (?, ?, ?)`

type InsertSubjectFacultyParams struct {
	SubjectCode string
	FacultyCode string
	Position    int64
}

func (q *Queries) InsertSubjectFaculty(ctx context.Context, arg InsertSubjectFacultyParams) error {
	_, err := q.db.ExecContext(ctx, insertSubjectFaculty, arg.SubjectCode, arg.FacultyCode, arg.Position)
	return err
}

const insertCourse = `insert into courses (
    code, name, link, description, units, fee_index, schedule,
    lecture_hours, seminar_hours, lab_hours, prerequisites, subject_code
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertCourseParams struct {
	Code          string
	Name          string
	Link          string
	Description   string
	Units         sql.NullString
	FeeIndex      sql.NullString
	Schedule      sql.NullString
	LectureHours  sql.NullString
	SeminarHours  sql.NullString
	LabHours      sql.NullString
	Prerequisites sql.NullString
	SubjectCode   string
}

func (q *Queries) InsertCourse(ctx context.Context, arg InsertCourseParams) error {
	_, err := q.db.ExecContext(
		ctx, insertCourse,
		arg.Code,
		arg.Name,
		arg.Link,
		arg.Description,
		arg.Units,
		arg.FeeIndex,
		arg.Schedule,
		arg.LectureHours,
		arg.SeminarHours,
		arg.LabHours,
		arg.Prerequisites,
		arg.SubjectCode,
	)
	return err
}

const insertSchedule = `insert into schedules (course_code, status) values (?, ?)`

type InsertScheduleParams struct {
	CourseCode string
	Status     sql.NullString
}

func (q *Queries) InsertSchedule(ctx context.Context, arg InsertScheduleParams) error {
	_, err := q.db.ExecContext(ctx, insertSchedule, arg.CourseCode, arg.Status)
	return err
}

const insertTermClassType = `insert into term_class_types (course_code, term, class_type) values (?, ?, ?)`

type InsertTermClassTypeParams struct {
	CourseCode string
	Term       string
	ClassType  string
}

func (q *Queries) InsertTermClassType(ctx context.Context, arg InsertTermClassTypeParams) error {
	_, err := q.db.ExecContext(ctx, insertTermClassType, arg.CourseCode, arg.Term, arg.ClassType)
	return err
}

const insertMeeting = `insert into meetings (
    course_code, term, class_type, position, section, code, capacity
) values (?, ?, ?, ?, ?, ?, ?)
returning id`

type InsertMeetingParams struct {
	CourseCode string
	Term       string
	ClassType  string
	Position   int64
	Section    sql.NullString
	Code       sql.NullString
	Capacity   sql.NullString
}

func (q *Queries) InsertMeeting(ctx context.Context, arg InsertMeetingParams) (int64, error) {
	row := q.db.QueryRowContext(
		ctx, insertMeeting,
		arg.CourseCode,
		arg.Term,
		arg.ClassType,
		arg.Position,
		arg.Section,
		arg.Code,
		arg.Capacity,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const insertDayTimePair = `insert into day_time_pairs (
    meeting_id, position, days, start_time, end_time
) values (?, ?, ?, ?, ?)`

type InsertDayTimePairParams struct {
	MeetingId int64
	Position  int64
	Days      string
	StartTime string
	EndTime   string
}

func (q *Queries) InsertDayTimePair(ctx context.Context, arg InsertDayTimePairParams) error {
	_, err := q.db.ExecContext(ctx, insertDayTimePair, arg.MeetingId, arg.Position, arg.Days, arg.StartTime, arg.EndTime)
	return err
}

const countRows = `select
    (select count(*) from faculties),
    (select count(*) from subjects),
    (select count(*) from courses),
    (select count(*) from schedules),
    (select count(*) from term_class_types),
    (select count(*) from meetings)`

type CountRowsRow struct {
	Faculties  int64
	Subjects   int64
	Courses    int64
	Schedules  int64
	ClassTypes int64
	Meetings   int64
}

func (q *Queries) CountRows(ctx context.Context) (CountRowsRow, error) {
	row := q.db.QueryRowContext(ctx, countRows)
	var i CountRowsRow
	err := row.Scan(&i.Faculties, &i.Subjects, &i.Courses, &i.Schedules, &i.ClassTypes, &i.Meetings)
	return i, err
}

const getMeetingsForTerm = `select m.id, m.class_type, m.section, m.code, m.capacity
from meetings m
where m.course_code = ? and m.term = ?
order by m.class_type, m.position`

type GetMeetingsForTermRow struct {
	Id        int64
	ClassType string
	Section   sql.NullString
	Code      sql.NullString
	Capacity  sql.NullString
}

func (q *Queries) GetMeetingsForTerm(ctx context.Context, courseCode, term string) ([]GetMeetingsForTermRow, error) {
	rows, err := q.db.QueryContext(ctx, getMeetingsForTerm, courseCode, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetMeetingsForTermRow
	for rows.Next() {
		var i GetMeetingsForTermRow
		err := rows.Scan(&i.Id, &i.ClassType, &i.Section, &i.Code, &i.Capacity)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDayTimePairs = `select days, start_time, end_time
from day_time_pairs
where meeting_id = ?
order by position`

type GetDayTimePairsRow struct {
	Days      string
	StartTime string
	EndTime   string
}

func (q *Queries) GetDayTimePairs(ctx context.Context, meetingId int64) ([]GetDayTimePairsRow, error) {
	rows, err := q.db.QueryContext(ctx, getDayTimePairs, meetingId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetDayTimePairsRow
	for rows.Next() {
		var i GetDayTimePairsRow
		err := rows.Scan(&i.Days, &i.StartTime, &i.EndTime)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTermClassTypes = `select class_type from term_class_types
where course_code = ? and term = ?
order by class_type`

func (q *Queries) GetTermClassTypes(ctx context.Context, courseCode, term string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getTermClassTypes, courseCode, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var classType string
		err := rows.Scan(&classType)
		if err != nil {
			return nil, err
		}
		items = append(items, classType)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getScheduleStatus = `select status from schedules where course_code = ?`

func (q *Queries) GetScheduleStatus(ctx context.Context, courseCode string) (sql.NullString, error) {
	row := q.db.QueryRowContext(ctx, getScheduleStatus, courseCode)
	var status sql.NullString
	err := row.Scan(&status)
	return status, err
}

const getSubjectFaculties = `select faculty_code from subject_faculties where subject_code = ? order by position`

func (q *Queries) GetSubjectFaculties(ctx context.Context, subjectCode string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getSubjectFaculties, subjectCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var code string
		err := rows.Scan(&code)
		if err != nil {
			return nil, err
		}
		items = append(items, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
