package model

import "encoding/json"

// AnalysisResult is the canonical output shape handed to exporters and the
// http server. Key is empty when no analysis ran.
type AnalysisResult struct {
	Key            string         `json:"key"`
	Chords         []Chord        `json:"chords"`
	RhythmPatterns RhythmPattern  `json:"rhythm_patterns"`
	Events         []NoteEvent    `json:"events"`
	TrackMapping   RoleMapping    `json:"track_mapping"`
	Metadata       map[string]any `json:"metadata"`
}

func (r AnalysisResult) ToMap() map[string]any {
	var key any
	if r.Key != "" {
		key = r.Key
	}

	chords := make([]map[string]any, 0, len(r.Chords))
	for _, c := range r.Chords {
		chords = append(chords, c.ToMap())
	}

	patterns := make([][]any, 0, len(r.RhythmPatterns))
	for _, p := range r.RhythmPatterns {
		patterns = append(patterns, []any{p.Interval, p.Count})
	}

	mapping := make(map[string]any, len(r.TrackMapping))
	for k, v := range r.TrackMapping {
		mapping[k] = v
	}

	metadata := make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		metadata[k] = v
	}

	return map[string]any{
		"key":             key,
		"chords":          chords,
		"rhythm_patterns": patterns,
		"events":          EventsToMaps(r.Events),
		"track_mapping":   mapping,
		"metadata":        metadata,
	}
}

func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}
