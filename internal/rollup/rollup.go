// Package rollup reduces per-hour recording availability into day and week
// summaries. Everything here is pure: inputs are never modified and results
// are recomputed from the current snapshot on every call.
package rollup

import (
	"fmt"
	"math"
	"sort"

	"github.com/five82/statdeck/internal/statsapi"
)

// Recording window. Hours run from RecordingStartHour up to but excluding
// RecordingEndHour, so the last slot of a day is hour_22.
const (
	RecordingStartHour  = 8
	RecordingEndHour    = 23
	TotalRecordingHours = RecordingEndHour - RecordingStartHour
)

// HourName returns the slot key of hour h ("hour_08").
func HourName(h int) string {
	return fmt.Sprintf("hour_%02d", h)
}

// HourNames lists every slot key of a day in order.
func HourNames() []string {
	names := make([]string, 0, TotalRecordingHours)
	for h := RecordingStartHour; h < RecordingEndHour; h++ {
		names = append(names, HourName(h))
	}
	return names
}

// Day is the rollup of one day of slots.
type Day struct {
	RecordedCount int
	TotalSizeMB   float64
	IsFuture      bool
}

// Percent is the share of the day's slots that hold a recording.
func (d Day) Percent() int {
	return Percent(d.RecordedCount, TotalRecordingHours)
}

// Week is the rollup of the days that already happened.
type Week struct {
	RecordedHours int
	TotalHours    int
	Percent       int
	TotalSizeMB   float64
}

// RollupDay counts recorded slots and sums their sizes. Hours missing from
// the map count as not recorded, and a slot that is not recorded adds no
// size even when the backend reports a partial file for it.
func RollupDay(hours map[string]statsapi.HourData) Day {
	var d Day
	for _, slot := range hours {
		if !slot.Recorded() {
			continue
		}
		d.RecordedCount++
		d.TotalSizeMB += slot.SizeMB
	}
	return d
}

// RollupRecordingDay is RollupDay over a wire day, carrying its future flag.
func RollupRecordingDay(day statsapi.DayRecording) Day {
	d := RollupDay(day.Hours)
	d.IsFuture = day.IsFuture
	return d
}

// RollupWeek sums the days that are not in the future. A future day adds
// to neither the recorded hours nor the possible hours.
func RollupWeek(days map[string]Day) Week {
	var w Week
	for _, d := range days {
		if d.IsFuture {
			continue
		}
		w.RecordedHours += d.RecordedCount
		w.TotalHours += TotalRecordingHours
		w.TotalSizeMB += d.TotalSizeMB
	}
	w.Percent = Percent(w.RecordedHours, w.TotalHours)
	return w
}

// Percent returns part/total as a rounded percentage, or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// RollupUserToday returns the rollup of the user's current day. ok is false
// when the snapshot carries no day flagged as today.
func RollupUserToday(u statsapi.RecordingUser) (Day, bool) {
	for _, day := range u.Days {
		if day.IsToday {
			return RollupRecordingDay(day), true
		}
	}
	return Day{}, false
}

// RollupUserWeek derives the user's week from their slots, ignoring the
// backend's own weekly summary.
func RollupUserWeek(u statsapi.RecordingUser) Week {
	days := make(map[string]Day, len(u.Days))
	for name, day := range u.Days {
		days[name] = RollupRecordingDay(day)
	}
	return RollupWeek(days)
}

// DayKeys returns the keys of days in ascending order. Keys are ISO dates,
// so this is chronological.
func DayKeys(days map[string]statsapi.DayRecording) []string {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
