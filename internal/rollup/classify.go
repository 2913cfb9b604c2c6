package rollup

import "github.com/five82/statdeck/internal/statsapi"

// DayFlags positions a day relative to now.
type DayFlags struct {
	IsToday  bool
	IsFuture bool
}

// Class describes how a slot is presented.
type Class struct {
	Available bool
	Future    bool
	Current   bool
}

// Playable reports whether the slot may be opened for playback.
func (c Class) Playable() bool {
	return c.Available && !c.Future
}

// ClassifySlot classifies the slot at hour of a day. A slot is future when
// its day is, or when its day is today and hour is after currentHour.
func ClassifySlot(slot statsapi.HourData, day DayFlags, hour, currentHour int) Class {
	return Class{
		Available: slot.Recorded(),
		Future:    day.IsFuture || (day.IsToday && hour > currentHour),
		Current:   day.IsToday && hour == currentHour,
	}
}

// ClassifyHour looks hour up in day and classifies it. An hour absent from
// the map is classified as a slot without a recording.
func ClassifyHour(day statsapi.DayRecording, hour, currentHour int) Class {
	flags := DayFlags{IsToday: day.IsToday, IsFuture: day.IsFuture}
	return ClassifySlot(day.Hours[HourName(hour)], flags, hour, currentHour)
}

// Level buckets a percentage for display.
type Level int

const (
	LevelBad Level = iota
	LevelWarning
	LevelGood
)

func (l Level) String() string {
	switch l {
	case LevelGood:
		return "good"
	case LevelWarning:
		return "warning"
	default:
		return "bad"
	}
}

// PercentLevel maps p to good (>= 80), warning (>= 50) or bad.
func PercentLevel(p int) Level {
	switch {
	case p >= 80:
		return LevelGood
	case p >= 50:
		return LevelWarning
	default:
		return LevelBad
	}
}
