package model

// TrackMeta summarizes one track: its last seen name and every program used.
type TrackMeta struct {
	TrackID   int    `json:"track_id" yaml:"track_id"`
	TrackName string `json:"track_name" yaml:"track_name"`
	Programs  []int  `json:"programs" yaml:"programs"`
}

func (t TrackMeta) ToMap() map[string]any {
	var name any
	if t.TrackName != "" {
		name = t.TrackName
	}
	programs := make([]int, len(t.Programs))
	copy(programs, t.Programs)
	return map[string]any{
		"track_id":   t.TrackID,
		"track_name": name,
		"programs":   programs,
	}
}

// RoleMapping maps a track identifier (name, or id rendered as a string) to a role.
type RoleMapping = map[string]string

const RoleUnknown = "unknown"
