package calendar

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

// TestFormatDateForDisplayToday verifies that the current local day renders as "Today".
func TestFormatDateForDisplayToday(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.Local)
	if got := FormatDateForDisplayAt("2026-03-04", now); got != "Today" {
		t.Errorf("FormatDateForDisplayAt(today) = %q, want Today", got)
	}
}

// TestFormatDateForDisplayOtherDay verifies the long format for days other than today.
func TestFormatDateForDisplayOtherDay(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.Local)
	if got, want := FormatDateForDisplayAt("2026-03-05", now), "Thu, Mar 5, 2026"; got != want {
		t.Errorf("FormatDateForDisplayAt = %q, want %q", got, want)
	}
}

// TestFormatDateForDisplayInvalid verifies that garbage passes through untouched.
func TestFormatDateForDisplayInvalid(t *testing.T) {
	if got := FormatDateForDisplayAt("next tuesday", time.Now()); got != "next tuesday" {
		t.Errorf("got %q", got)
	}
}

// TestDateISOToday verifies the ISO shape of today's key.
func TestDateISOToday(t *testing.T) {
	got := DateISOToday()
	if _, err := time.Parse(DateLayout, got); err != nil {
		t.Errorf("DateISOToday() = %q is not an ISO date: %v", got, err)
	}
}

// TestParseWeekdayCode covers codes, full names and casing.
func TestParseWeekdayCode(t *testing.T) {
	cases := []struct {
		in   string
		want time.Weekday
	}{
		{"MON", time.Monday},
		{"tue", time.Tuesday},
		{" Sun ", time.Sunday},
		{"Saturday", time.Saturday},
		{"WEDNESDAY", time.Wednesday},
	}
	for _, tc := range cases {
		got, err := ParseWeekdayCode(tc.in)
		if err != nil {
			t.Errorf("ParseWeekdayCode(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseWeekdayCode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "MO", "FUNDAY", "Mond"} {
		if _, err := ParseWeekdayCode(bad); err == nil {
			t.Errorf("ParseWeekdayCode(%q): expected error", bad)
		}
	}
}

// TestWindow verifies inclusive bounds and day enumeration.
func TestWindow(t *testing.T) {
	start := civil.Date{Year: 2026, Month: time.February, Day: 27}
	w := NewWindow(start, 3)
	if w.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", w.Len())
	}
	days := w.Days()
	if days[3] != (civil.Date{Year: 2026, Month: time.March, Day: 2}) {
		t.Errorf("last day = %v, want 2026-03-02", days[3])
	}
	if !w.Contains(start) || !w.Contains(days[3]) {
		t.Error("window must contain its bounds")
	}
	if w.Contains(start.AddDays(-1)) || w.Contains(days[3].AddDays(1)) {
		t.Error("window must not contain days outside its bounds")
	}
	if (Window{Start: start, End: start.AddDays(-1)}).Len() != 0 {
		t.Error("inverted window must be empty")
	}
}

// TestWeekday verifies weekday extraction on civil dates.
func TestWeekday(t *testing.T) {
	if got := Weekday(civil.Date{Year: 2026, Month: time.October, Day: 19}); got != time.Monday {
		t.Errorf("Weekday(2026-10-19) = %v, want Monday", got)
	}
	if WeekdayCode(time.Thursday) != "THU" {
		t.Errorf("WeekdayCode(Thursday) = %q", WeekdayCode(time.Thursday))
	}
}
