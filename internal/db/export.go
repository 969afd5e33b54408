package db

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"catalog-backend/internal/catalog"
)

// Records is every record set of a scrape run.
type Records struct {
	Faculties catalog.Faculties
	Subjects  catalog.Subjects
	Courses   catalog.Courses
	Schedules catalog.Schedules
}

// Export replaces the contents of the database with records in a single
// transaction.
func Export(ctx context.Context, makeTx MakeTx, records Records) (err error) {
	qry, discard, commit, err := makeTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			discard()
		}
	}()

	err = qry.ClearAll(ctx)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	for _, code := range sortedKeys(records.Faculties) {
		faculty := records.Faculties[code]
		err = qry.InsertFaculty(ctx, InsertFacultyParams{
			Code: code,
			Name: faculty.Name,
			Link: faculty.Link,
		})
		if err != nil {
			return fmt.Errorf("faculty %s: %w", code, err)
		}
	}

	for _, code := range sortedKeys(records.Subjects) {
		err = exportSubject(ctx, qry, code, records.Subjects[code])
		if err != nil {
			return fmt.Errorf("subject %s: %w", code, err)
		}
	}

	for _, code := range sortedKeys(records.Courses) {
		course := records.Courses[code]
		err = qry.InsertCourse(ctx, InsertCourseParams{
			Code:          code,
			Name:          course.Name,
			Link:          course.Link,
			Description:   course.Description,
			Units:         nullString(course.Units),
			FeeIndex:      nullString(course.FeeIndex),
			Schedule:      nullString(course.Schedule),
			LectureHours:  nullString(course.LectureHours),
			SeminarHours:  nullString(course.SeminarHours),
			LabHours:      nullString(course.LabHours),
			Prerequisites: nullString(course.Prerequisites),
			SubjectCode:   course.SubjectCode,
		})
		if err != nil {
			return fmt.Errorf("course %s: %w", code, err)
		}
	}

	for _, code := range sortedKeys(records.Schedules) {
		err = exportSchedule(ctx, qry, code, records.Schedules[code])
		if err != nil {
			return fmt.Errorf("schedule %s: %w", code, err)
		}
	}

	return commit()
}

func exportSubject(ctx context.Context, qry *Queries, code string, subject catalog.Subject) error {
	err := qry.InsertSubject(ctx, InsertSubjectParams{
		Code: code,
		Name: subject.Name,
		Link: subject.Link,
	})
	if err != nil {
		return err
	}
	for i, faculty := range subject.Faculties {
		err = qry.InsertSubjectFaculty(ctx, InsertSubjectFacultyParams{
			SubjectCode: code,
			FacultyCode: faculty,
			Position:    int64(i),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func exportSchedule(ctx context.Context, qry *Queries, code string, schedule catalog.Schedule) error {
	status := sql.NullString{}
	if !schedule.IsOffered() {
		status = sql.NullString{String: string(schedule.Status), Valid: true}
	}
	err := qry.InsertSchedule(ctx, InsertScheduleParams{CourseCode: code, Status: status})
	if err != nil {
		return err
	}

	for _, term := range sortedKeys(schedule.Terms) {
		classTypes := schedule.Terms[term]
		for _, classType := range sortedKeys(classTypes) {
			err = qry.InsertTermClassType(ctx, InsertTermClassTypeParams{
				CourseCode: code,
				Term:       term,
				ClassType:  classType,
			})
			if err != nil {
				return err
			}
			for i, meeting := range classTypes[classType] {
				id, err := qry.InsertMeeting(ctx, InsertMeetingParams{
					CourseCode: code,
					Term:       term,
					ClassType:  classType,
					Position:   int64(i),
					Section:    nullString(meeting.Section),
					Code:       nullString(meeting.Code),
					Capacity:   nullString(meeting.Capacity),
				})
				if err != nil {
					return err
				}
				for j, pair := range meeting.DayTimePairs {
					err = qry.InsertDayTimePair(ctx, InsertDayTimePairParams{
						MeetingId: id,
						Position:  int64(j),
						Days:      pair.Days,
						StartTime: pair.StartTime,
						EndTime:   pair.EndTime,
					})
					if err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
