package model

type ChordType string

const (
	ChordMajor      ChordType = "major"
	ChordMinor      ChordType = "minor"
	ChordDiminished ChordType = "diminished"
	ChordCluster    ChordType = "cluster"
)

// Chord is the harmonic content of one analysis window. Root is nil for
// clusters that match no triad template.
type Chord struct {
	Time  float64   `json:"time" yaml:"time"`
	Root  *string   `json:"root" yaml:"root"`
	Type  ChordType `json:"type" yaml:"type"`
	Notes []int     `json:"notes" yaml:"notes"`
}

// RootName returns the root or "" for clusters.
func (c Chord) RootName() string {
	if c.Root == nil {
		return ""
	}
	return *c.Root
}

func (c Chord) ToMap() map[string]any {
	var root any
	if c.Root != nil {
		root = *c.Root
	}
	notes := make([]int, len(c.Notes))
	copy(notes, c.Notes)
	return map[string]any{
		"time":  c.Time,
		"root":  root,
		"type":  string(c.Type),
		"notes": notes,
	}
}
