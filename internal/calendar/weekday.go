package calendar

import (
	"fmt"
	"strings"
	"time"
)

var weekdayCodes = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// ParseWeekdayCode maps a weekday code ("MON") or full English day name
// ("Monday") to a time.Weekday. Matching is case-insensitive.
func ParseWeekdayCode(code string) (time.Weekday, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) > 3 {
		for _, d := range []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday} {
			if strings.EqualFold(c, d.String()) {
				return d, nil
			}
		}
		return 0, fmt.Errorf("unknown weekday code %q", code)
	}
	if d, ok := weekdayCodes[c]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown weekday code %q", code)
}

// WeekdayCode returns the three-letter upper-case code for d.
func WeekdayCode(d time.Weekday) string {
	return strings.ToUpper(d.String()[:3])
}
