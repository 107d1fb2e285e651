// Package csvlog reads WorkoutLog CSV exports into workout history.
package csvlog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/models"
)

const (
	sectionMarker   = "-----"
	strengthSection = "Strength"

	colDate     = "Date"
	colTime     = "Time"
	colExercise = "Exercise"
	colReps     = "# of Reps"
	colWeight   = "Weight"
	colNotes    = "Notes"
)

var dateLayouts = []string{"02/01/2006", "2006-01-02"}

// Parse reads the Strength section of an export and groups its rows into one
// session per date, oldest first. Exercises keep their order of first
// appearance within the day. Times are interpreted in loc. A file without
// section markers is read as a bare CSV table.
func Parse(r io.Reader, loc *time.Location) ([]models.LogSession, error) {
	body, err := section(r)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(body))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := columns(header)
	for _, required := range []string{colDate, colExercise} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	days := map[civil.Date]*models.LogSession{}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if err := add(days, cols, rec, loc); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}

	sessions := make([]models.LogSession, 0, len(days))
	for _, s := range days {
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date.Before(sessions[j].Date) })
	return sessions, nil
}

// section returns the lines of the Strength section, or the whole input
// when it has no section markers.
func section(r io.Reader) (string, error) {
	var all, strength []string
	in, found := false, false

	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, sectionMarker) {
			if strings.Contains(trimmed, strengthSection) {
				in, found = true, true
				continue
			}
			if in {
				break
			}
			continue
		}
		if trimmed == "" {
			continue
		}
		if in {
			strength = append(strength, trimmed)
		}
		all = append(all, trimmed)
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if found {
		return strings.Join(strength, "\n"), nil
	}
	return strings.Join(all, "\n"), nil
}

func columns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	return cols
}

func field(cols map[string]int, rec []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func add(days map[civil.Date]*models.LogSession, cols map[string]int, rec []string, loc *time.Location) error {
	dateStr := field(cols, rec, colDate)
	name := field(cols, rec, colExercise)
	if dateStr == "" || name == "" {
		return nil
	}

	date, err := parseDate(dateStr)
	if err != nil {
		return err
	}
	at, err := parseTime(date, field(cols, rec, colTime), loc)
	if err != nil {
		return err
	}
	weight, err := parseWeight(field(cols, rec, colWeight))
	if err != nil {
		return err
	}
	reps, err := parseReps(field(cols, rec, colReps))
	if err != nil {
		return err
	}
	notes := field(cols, rec, colNotes)

	s, ok := days[date]
	if !ok {
		s = &models.LogSession{Date: date, StartedAt: at, CompletedAt: at}
		days[date] = s
	}
	if at.Before(s.StartedAt) {
		s.StartedAt = at
	}
	if at.After(s.CompletedAt) {
		s.CompletedAt = at
	}

	idx := -1
	for i := range s.Exercises {
		if s.Exercises[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.Exercises = append(s.Exercises, models.LogExercise{Name: name, Notes: notes, PerformedAt: at})
		idx = len(s.Exercises) - 1
	}
	s.Exercises[idx].Sets = append(s.Exercises[idx].Sets, models.LogSet{
		PerformedAt: at,
		WeightKg:    weight,
		Reps:        reps,
		Notes:       notes,
	})
	return nil
}

func parseDate(s string) (civil.Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("cannot parse date %q", s)
}

func parseTime(d civil.Date, s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return d.In(loc), nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse time %q", s)
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, loc), nil
}

// parseWeight accepts "102.5" and the comma decimal form "102,5".
func parseWeight(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f < 0 {
		return nil, fmt.Errorf("invalid weight %q", s)
	}
	return &f, nil
}

func parseReps(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid reps %q", s)
	}
	return &n, nil
}
