package catalog

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestScheduleJSON(t *testing.T) {
	schedules := Schedules{
		"CMPUT101": NotOffered(),
		"CMPUT174": Errored(),
		"CMPUT404": Offered(TermOfferings{
			"Fall2024": Term{
				"Lecture": {
					{
						Section:  Ptr("LECTURE A1"),
						Code:     Ptr("12345"),
						Capacity: Ptr("120"),
						DayTimePairs: []DayTimePair{
							{Days: "MWF", StartTime: "09:00", EndTime: "09:50"},
						},
					},
				},
				"Lab": {},
			},
		}),
	}

	serialized, err := json.Marshal(schedules)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"CMPUT101": "not offered",
		"CMPUT174": "error",
		"CMPUT404": {
			"Fall2024": {
				"Lab": [],
				"Lecture": [{
					"section": "LECTURE A1",
					"code": "12345",
					"capacity": "120",
					"day_time_pairs": [{"days": "MWF", "start_time": "09:00", "end_time": "09:50"}]
				}]
			}
		}
	}`, string(serialized))

	var parsed Schedules
	require.NoError(t, json.Unmarshal(serialized, &parsed))
	if diff := cmp.Diff(schedules, parsed); diff != "" {
		t.Fatal(diff)
	}
}

func TestScheduleUnknownSentinel(t *testing.T) {
	var s Schedule
	require.Error(t, json.Unmarshal([]byte(`"maybe"`), &s))
}

func TestMeetingOmitsAbsent(t *testing.T) {
	serialized, err := json.Marshal(Meeting{Capacity: Ptr("30")})
	require.NoError(t, err)
	require.JSONEq(t, `{"capacity": "30"}`, string(serialized))
}

func TestCourseNullOptionals(t *testing.T) {
	serialized, err := json.Marshal(Course{
		Name:        "Intro",
		Link:        "https://x/y",
		Description: "Desc",
		Units:       Ptr("3"),
		SubjectCode: "CMPUT",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"course_name": "Intro",
		"course_link": "https://x/y",
		"course_description": "Desc",
		"course_units": "3",
		"course_fee_index": null,
		"course_schedule": null,
		"course_hrs_for_lecture": null,
		"course_hrs_for_seminar": null,
		"course_hrs_for_labtime": null,
		"course_prerequisites": null,
		"subject_code": "CMPUT"
	}`, string(serialized))
}
