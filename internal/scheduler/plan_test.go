package scheduler

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/calendar"
	"github.com/claude/workoutlog/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

var monday = civil.Date{Year: 2026, Month: time.January, Day: 5}

func weekly(wd time.Weekday) models.ProgramDay {
	return models.ProgramDay{ID: uuid.New(), Schedule: models.ScheduleWeekly, DayOfWeek: &wd}
}

func interval(gap int) models.ProgramDay {
	return models.ProgramDay{ID: uuid.New(), Schedule: models.ScheduleInterval, IntervalDays: &gap}
}

func keys(cs []Candidate) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.DayKey())
	}
	return out
}

// TestPlanWeekly verifies weekly days land on their weekday only.
func TestPlanWeekly(t *testing.T) {
	days := []models.ProgramDay{weekly(time.Monday), weekly(time.Thursday)}
	got := Plan(nil, nil, days, calendar.NewWindow(monday, 13))
	want := []string{"2026-01-05", "2026-01-08", "2026-01-12", "2026-01-15"}
	if diff := cmp.Diff(want, keys(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got[0].ProgramDayID != days[0].ID || got[1].ProgramDayID != days[1].ID {
		t.Error("candidates attributed to the wrong day")
	}
}

// TestPlanIdempotent verifies a second pass over the same window proposes
// nothing once the first pass is stored.
func TestPlanIdempotent(t *testing.T) {
	days := []models.ProgramDay{weekly(time.Monday), interval(3), interval(4)}
	w := calendar.NewWindow(monday, DefaultHorizonDays)

	first := Plan(nil, nil, days, w)
	existing := map[string]bool{}
	last := map[uuid.UUID]civil.Date{}
	for _, c := range first {
		if existing[c.DayKey()] {
			t.Fatalf("duplicate day %s in one pass", c.DayKey())
		}
		existing[c.DayKey()] = true
		if prev, ok := last[c.ProgramDayID]; !ok || c.Date.After(prev) {
			last[c.ProgramDayID] = c.Date
		}
	}

	if again := Plan(existing, last, days, w); len(again) != 0 {
		t.Errorf("second pass proposed %v", keys(again))
	}
}

// TestPlanIntervalCount verifies a rotating day with gap g over a window of
// W days fires about ceil(W/g) times.
func TestPlanIntervalCount(t *testing.T) {
	w := calendar.NewWindow(monday, DefaultHorizonDays)
	for _, gap := range []int{1, 2, 3, 4, 7} {
		got := Plan(nil, nil, []models.ProgramDay{interval(gap)}, w)
		want := int(math.Ceil(float64(w.Len()) / float64(gap)))
		if d := len(got) - want; d < -1 || d > 1 {
			t.Errorf("gap %d: %d occurrences, want %d±1", gap, len(got), want)
		}
	}
}

// TestPlanIntervalRotation verifies each interval day keeps its own gap and
// offset.
func TestPlanIntervalRotation(t *testing.T) {
	a, b := interval(2), interval(2)
	got := Plan(nil, nil, []models.ProgramDay{a, b}, calendar.NewWindow(monday, 5))

	byDay := map[uuid.UUID][]string{}
	for _, c := range got {
		byDay[c.ProgramDayID] = append(byDay[c.ProgramDayID], c.DayKey())
	}
	if diff := cmp.Diff([]string{"2026-01-05", "2026-01-07", "2026-01-09"}, byDay[a.ID]); diff != "" {
		t.Errorf("day a (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2026-01-06", "2026-01-08", "2026-01-10"}, byDay[b.ID]); diff != "" {
		t.Errorf("day b (-want +got):\n%s", diff)
	}
}

// TestPlanSparseCycle verifies a cycle with a rest day keeps each day on its
// cycle position, so the rest day stays between days 2 and 4.
func TestPlanSparseCycle(t *testing.T) {
	var days []models.ProgramDay
	for _, idx := range []int{1, 2, 4} {
		d := interval(4)
		d.CycleIndex = &idx
		days = append(days, d)
	}
	got := Plan(nil, nil, days, calendar.NewWindow(monday, 7))

	offsets := map[uuid.UUID][]int{}
	for _, c := range got {
		offsets[c.ProgramDayID] = append(offsets[c.ProgramDayID], c.Date.DaysSince(monday))
	}
	want := [][]int{{0, 4}, {1, 5}, {3, 7}}
	for i, d := range days {
		if diff := cmp.Diff(want[i], offsets[d.ID]); diff != "" {
			t.Errorf("cycle day %d (-want +got):\n%s", *d.CycleIndex, diff)
		}
	}
}

// TestPlanIntervalContinuesFromLast verifies an interval day resumes from its
// previous occurrence rather than from today.
func TestPlanIntervalContinuesFromLast(t *testing.T) {
	d := interval(3)
	last := map[uuid.UUID]civil.Date{d.ID: monday.AddDays(-7)}
	got := Plan(nil, last, []models.ProgramDay{d}, calendar.NewWindow(monday, 6))
	// -7, -4, -1, +2, +5
	want := []string{"2026-01-07", "2026-01-10"}
	if diff := cmp.Diff(want, keys(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// TestPlanFirstCandidateWins verifies two days on the same date keep only
// the earlier day's candidate, and existing keys are skipped.
func TestPlanFirstCandidateWins(t *testing.T) {
	first, second := weekly(time.Monday), weekly(time.Monday)
	existing := map[string]bool{"2026-01-12": true}
	got := Plan(existing, nil, []models.ProgramDay{first, second}, calendar.NewWindow(monday, 7))
	if len(got) != 1 || got[0].ProgramDayID != first.ID || got[0].DayKey() != "2026-01-05" {
		t.Errorf("got %+v", got)
	}
}

// TestPlanAnchored verifies anchored days fire only on their date and only
// inside the window.
func TestPlanAnchored(t *testing.T) {
	inside, outside := weekly(time.Wednesday), weekly(time.Wednesday)
	in := monday.AddDays(2)
	out := monday.AddDays(30)
	inside.Anchor = &in
	outside.Anchor = &out

	got := Plan(nil, nil, []models.ProgramDay{inside, outside}, calendar.NewWindow(monday, 13))
	if diff := cmp.Diff([]string{"2026-01-07"}, keys(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
