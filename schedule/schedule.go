// Package schedule maps a wall-clock time to the class period happening then.
package schedule

import "time"

// Sentinel is reported whenever no period covers the current time.
const Sentinel = "Passing time"

// Period is a labeled time-of-day interval. Start and End are "15:04" strings
// and End is inclusive.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// Default is the built-in school day. Gaps between hours are passing time.
var Default = []Period{
	{Start: "00:00", End: "08:14", Label: "Good morning!"},
	{Start: "08:15", End: "09:06", Label: "1st Hour"},
	{Start: "09:09", End: "10:00", Label: "2nd Hour"},
	{Start: "10:03", End: "10:54", Label: "3rd Hour"},
	{Start: "10:57", End: "12:13", Label: "4th Hour"},
	{Start: "12:16", End: "13:07", Label: "5th Hour"},
	{Start: "13:10", End: "14:01", Label: "6th Hour"},
	{Start: "14:04", End: "14:57", Label: "7th Hour"},
	{Start: "14:58", End: "23:59", Label: "Have a great night!"},
}

// Classify returns the label of the first period containing now. Periods are
// scanned in list order, so with overlapping entries the earlier one wins; the
// list is deliberately not sorted or validated. A period with a malformed
// start or end time never matches.
func Classify(now time.Time, periods []Period) string {
	nowMinutes := now.Hour()*60 + now.Minute()

	for _, p := range periods {
		start, ok := timeToMinutes(p.Start)
		if !ok {
			continue
		}
		end, ok := timeToMinutes(p.End)
		if !ok {
			continue
		}
		if nowMinutes >= start && nowMinutes <= end {
			return p.Label
		}
	}
	return Sentinel
}

func timeToMinutes(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
