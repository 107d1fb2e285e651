package csvlog

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/models"
	"github.com/google/go-cmp/cmp"
)

const export = "\ufeff-----Strength-----\n" +
	"Date,Time,Exercise,# of Reps,Weight,Notes\n" +
	`"19/01/2026","18:34","Bicep Curl","6","50","Right"` + "\n" +
	`"19/01/2026","18:36","Bicep Curl","6","50",""` + "\n" +
	`"19/01/2026","18:40","Squat","5","102,5",""` + "\n" +
	`"19/01/2026","18:31","Bicep Curl","8","","warmup"` + "\n" +
	"\n" +
	`"2026-01-17","07:00","Squat","5","100",""` + "\n" +
	"-----Cardio-----\n" +
	"Date,Time,Activity,Duration\n" +
	`"20/01/2026","08:00","Run","30"` + "\n"

func ptr[T any](v T) *T { return &v }

// TestParseGroupsByDateAndExercise verifies rows are grouped per day, oldest
// first, with exercises in order of first appearance.
func TestParseGroupsByDateAndExercise(t *testing.T) {
	sessions, err := Parse(strings.NewReader(export), time.UTC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	first := sessions[0]
	if first.Date != (civil.Date{Year: 2026, Month: 1, Day: 17}) || len(first.Exercises) != 1 {
		t.Errorf("first session = %+v", first)
	}

	second := sessions[1]
	var names []string
	for _, ex := range second.Exercises {
		names = append(names, ex.Name)
	}
	if diff := cmp.Diff([]string{"Bicep Curl", "Squat"}, names); diff != "" {
		t.Errorf("exercise order (-want +got):\n%s", diff)
	}
	if got := second.SetCount(); got != 4 {
		t.Errorf("SetCount = %d, want 4", got)
	}
	if want := time.Date(2026, 1, 19, 18, 31, 0, 0, time.UTC); !second.StartedAt.Equal(want) {
		t.Errorf("StartedAt = %v, want %v", second.StartedAt, want)
	}
	if want := time.Date(2026, 1, 19, 18, 40, 0, 0, time.UTC); !second.CompletedAt.Equal(want) {
		t.Errorf("CompletedAt = %v, want %v", second.CompletedAt, want)
	}

	curl := second.Exercises[0]
	if curl.Notes != "Right" {
		t.Errorf("curl notes = %q, want the first row's note", curl.Notes)
	}
	wantSets := []models.LogSet{
		{PerformedAt: time.Date(2026, 1, 19, 18, 34, 0, 0, time.UTC), WeightKg: ptr(50.0), Reps: ptr(6), Notes: "Right"},
		{PerformedAt: time.Date(2026, 1, 19, 18, 36, 0, 0, time.UTC), WeightKg: ptr(50.0), Reps: ptr(6)},
		{PerformedAt: time.Date(2026, 1, 19, 18, 31, 0, 0, time.UTC), Reps: ptr(8), Notes: "warmup"},
	}
	if diff := cmp.Diff(wantSets, curl.Sets); diff != "" {
		t.Errorf("curl sets (-want +got):\n%s", diff)
	}
	if w := second.Exercises[1].Sets[0].WeightKg; w == nil || *w != 102.5 {
		t.Errorf("comma decimal weight = %v, want 102.5", w)
	}
}

// TestParseWithoutSections verifies a bare CSV table is accepted.
func TestParseWithoutSections(t *testing.T) {
	in := "Date,Time,Exercise,# of Reps,Weight,Notes\n2026-02-01,10:00,Row,8,60,\n"
	sessions, err := Parse(strings.NewReader(in), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Exercises[0].Name != "Row" {
		t.Fatalf("sessions = %+v", sessions)
	}
}

// TestParseErrors verifies malformed values are reported with their row.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bad date", "Date,Exercise\n31-31-2026,Squat\n", "row 1: cannot parse date"},
		{"bad time", "Date,Time,Exercise\n2026-01-01,late,Squat\n", "row 1: cannot parse time"},
		{"bad weight", "Date,Exercise,Weight\n2026-01-01,Squat,heavy\n", "row 1: invalid weight"},
		{"bad reps", "Date,Exercise,# of Reps\n2026-01-01,Squat,-1\n", "row 1: invalid reps"},
		{"missing column", "Time,Exercise\n10:00,Squat\n", `missing "Date" column`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in), time.UTC)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

// TestParseSkipsBlankRows verifies rows without a date or exercise are
// ignored and an empty file yields no sessions.
func TestParseSkipsBlankRows(t *testing.T) {
	sessions, err := Parse(strings.NewReader("Date,Exercise\n,Squat\n2026-01-01,\n"), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 0 {
		t.Errorf("got %d sessions, want 0", len(sessions))
	}
	sessions, err = Parse(strings.NewReader(""), time.UTC)
	if err != nil || sessions != nil {
		t.Errorf("empty input: sessions=%v err=%v", sessions, err)
	}
}
