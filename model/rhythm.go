package model

import (
	"encoding/json"
	"fmt"
)

// IntervalCount is one inter-onset interval and how often it occurred.
// It serializes as a two element [interval, count] list.
type IntervalCount struct {
	Interval float64
	Count    int
}

func (ic IntervalCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{ic.Interval, ic.Count})
}

func (ic *IntervalCount) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("rhythm pattern needs [interval, count], got %d values", len(pair))
	}
	ic.Interval = pair[0]
	ic.Count = int(pair[1])
	return nil
}

func (ic IntervalCount) MarshalYAML() (any, error) {
	return []any{ic.Interval, ic.Count}, nil
}

// RhythmPattern is sorted by descending count.
type RhythmPattern = []IntervalCount
