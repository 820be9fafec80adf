package model

import "encoding/json"

// NoteEvent is one sounded note with its boundaries converted to seconds.
// Program is -1 when no program change preceded the note on.
type NoteEvent struct {
	Note      int     `json:"note" yaml:"note"`
	Velocity  int     `json:"velocity" yaml:"velocity"`
	Start     float64 `json:"start" yaml:"start"`
	End       float64 `json:"end" yaml:"end"`
	Channel   int     `json:"channel" yaml:"channel"`
	Track     int     `json:"track" yaml:"track"`
	TrackName string  `json:"track_name" yaml:"track_name"`
	Program   int     `json:"program" yaml:"program"`

	// set by the timeline generator only
	Role string `json:"role,omitempty" yaml:"role,omitempty"`
}

// NoProgram marks a note that sounded before any program change on its track.
const NoProgram = -1

// Duration is end minus start, never negative.
func (e NoteEvent) Duration() float64 {
	if e.End < e.Start {
		return 0
	}
	return e.End - e.Start
}

func (e NoteEvent) ToMap() map[string]any {
	m := map[string]any{
		"note":       e.Note,
		"velocity":   e.Velocity,
		"start":      e.Start,
		"end":        e.End,
		"channel":    e.Channel,
		"track":      e.Track,
		"track_name": nil,
		"program":    e.Program,
	}
	if e.TrackName != "" {
		m["track_name"] = e.TrackName
	}
	if e.Role != "" {
		m["role"] = e.Role
	}
	return m
}

func (e NoteEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// EventsToMaps converts a list of events for generic serializers.
func EventsToMaps(events []NoteEvent) []map[string]any {
	res := make([]map[string]any, 0, len(events))
	for _, e := range events {
		res = append(res, e.ToMap())
	}
	return res
}
