// Package pipeline runs the scraping stages in order, each stage reading its
// input from the document the previous stage persisted.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-backend/internal/catalog"
	"catalog-backend/internal/components/assert"
	"catalog-backend/internal/components/chrono"
	"catalog-backend/internal/components/telemetry"
	"catalog-backend/internal/store"

	"github.com/google/uuid"
)

const (
	report_pipeline_stage = "pipeline.stage"
	report_pipeline_load  = "pipeline.load"
	report_pipeline_write = "pipeline.write"
)

// ErrEmpty is returned when a stage reads an empty upstream document or
// produces no records. Nothing is written in either case so a site outage or
// markup change cannot blank out the previous documents.
var ErrEmpty = errors.New("no records")

type Stage string

const (
	StageFaculties Stage = "faculties"
	StageSubjects  Stage = "subjects"
	StageCourses   Stage = "courses"
	StageSchedules Stage = "schedules"
	StageAll       Stage = "all"
)

// Stages lists every runnable stage in execution order.
var Stages = []Stage{StageFaculties, StageSubjects, StageCourses, StageSchedules}

func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(s)))
	switch stage {
	case StageFaculties, StageSubjects, StageCourses, StageSchedules, StageAll:
		return stage, nil
	}
	return "", fmt.Errorf("unknown stage %q, expected one of faculties, subjects, courses, schedules or all", s)
}

// Extractor is implemented by scraper.Scraper.
type Extractor interface {
	Faculties(ctx context.Context) (catalog.Faculties, error)
	Subjects(ctx context.Context, faculties catalog.Faculties) catalog.Subjects
	Courses(ctx context.Context, subjects catalog.Subjects) catalog.Courses
	Schedules(ctx context.Context, courses catalog.Courses) catalog.Schedules
}

type StageResult struct {
	Stage    Stage
	Count    int
	Duration time.Duration
}

type Result struct {
	RunId  string
	Stages []StageResult
}

type Runner struct {
	extractor Extractor
	store     store.Store
	time      chrono.TimeAPI
	tel       telemetry.API
}

func NewRunner(extractor Extractor, st store.Store, time chrono.TimeAPI, tel telemetry.API) Runner {
	assert.NotNil(extractor)
	assert.NotNil(time)
	assert.NotNil(tel)

	return Runner{
		extractor: extractor,
		store:     st,
		time:      time,
		tel:       telemetry.NewScopedAPI("pipeline", tel),
	}
}

// Run runs a single stage, or every stage in order for StageAll. A stage
// whose input document is missing, malformed or empty fails and stops the
// run.
func (r Runner) Run(ctx context.Context, stage Stage) (Result, error) {
	result := Result{RunId: uuid.NewString()}

	stages := []Stage{stage}
	if stage == StageAll {
		stages = Stages
	}

	for _, s := range stages {
		start := r.time.Now()
		count, err := r.runStage(ctx, s)
		if err != nil {
			r.tel.ReportBroken(report_pipeline_stage, err, result.RunId, string(s))
			return result, fmt.Errorf("stage %s: %w", s, err)
		}
		duration := r.time.Now().Sub(start)

		r.tel.ReportCount(string(s), int64(count))
		r.tel.ReportDebug("stage finished", result.RunId, string(s), count, duration.String())
		result.Stages = append(result.Stages, StageResult{
			Stage:    s,
			Count:    count,
			Duration: duration,
		})
	}
	return result, nil
}

func (r Runner) runStage(ctx context.Context, stage Stage) (int, error) {
	switch stage {
	case StageFaculties:
		faculties, err := r.extractor.Faculties(ctx)
		if err != nil {
			return 0, err
		}
		return len(faculties), r.write(ctx, store.DocFaculties, faculties, len(faculties))

	case StageSubjects:
		faculties, err := r.store.Faculties()
		if err == nil {
			err = nonEmpty(store.DocFaculties, len(faculties))
		}
		if err != nil {
			r.tel.ReportBroken(report_pipeline_load, err)
			return 0, err
		}
		subjects := r.extractor.Subjects(ctx, faculties)
		return len(subjects), r.write(ctx, store.DocSubjects, subjects, len(subjects))

	case StageCourses:
		subjects, err := r.store.Subjects()
		if err == nil {
			err = nonEmpty(store.DocSubjects, len(subjects))
		}
		if err != nil {
			r.tel.ReportBroken(report_pipeline_load, err)
			return 0, err
		}
		courses := r.extractor.Courses(ctx, subjects)
		return len(courses), r.write(ctx, store.DocCourses, courses, len(courses))

	case StageSchedules:
		courses, err := r.store.Courses()
		if err == nil {
			err = nonEmpty(store.DocCourses, len(courses))
		}
		if err != nil {
			r.tel.ReportBroken(report_pipeline_load, err)
			return 0, err
		}
		schedules := r.extractor.Schedules(ctx, courses)
		return len(schedules), r.write(ctx, store.DocSchedules, schedules, len(schedules))
	}
	return 0, fmt.Errorf("unknown stage %q", stage)
}

func nonEmpty(doc store.Document, count int) error {
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrEmpty, doc)
	}
	return nil
}

// write persists a stage's output unless the run was cancelled or nothing
// was extracted, in which case the previous document is kept.
func (r Runner) write(ctx context.Context, doc store.Document, v any, count int) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	err := nonEmpty(doc, count)
	if err != nil {
		return err
	}
	err = r.store.Write(doc, v)
	if err != nil {
		r.tel.ReportBroken(report_pipeline_write, err, string(doc))
	}
	return err
}
