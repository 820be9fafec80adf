// Package validate holds the boundary checks shared by the analysis
// functions. Every check returns an *errs.ValidationError.
package validate

import (
	"math"
	"os"

	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/model"
)

func MidiFilePath(path string) error {
	if path == "" {
		return errs.Validation("path", "cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return errs.Validation("path", "midi file not found: %s", path)
	}
	if info.IsDir() {
		return errs.Validation("path", "not a file: %s", path)
	}
	return nil
}

func TicksPerBeat(tpb int) error {
	if tpb <= 0 {
		return errs.Validation("ticks_per_beat", "must be positive, got %d", tpb)
	}
	return nil
}

// Tempo is in microseconds per beat.
func Tempo(tempo int) error {
	if tempo <= 0 {
		return errs.Validation("tempo", "must be positive, got %d", tempo)
	}
	return nil
}

func Window(window float64) error {
	return positive("window", window)
}

func Quantize(quantize float64) error {
	return positive("quantize", quantize)
}

func TopK(k int) error {
	if k < 1 {
		return errs.Validation("top_k", "must be at least 1, got %d", k)
	}
	return nil
}

// Events checks the fields every analysis relies on: a note number in midi
// range and a finite, non-negative start.
func Events(events []model.NoteEvent) error {
	for i, ev := range events {
		if ev.Note < 0 || ev.Note > 127 {
			return errs.Validation("events", "event %d has note %d outside 0-127", i, ev.Note)
		}
		if math.IsNaN(ev.Start) || math.IsInf(ev.Start, 0) || ev.Start < 0 {
			return errs.Validation("events", "event %d has invalid start %v", i, ev.Start)
		}
		if math.IsNaN(ev.End) || math.IsInf(ev.End, 0) {
			return errs.Validation("events", "event %d has invalid end %v", i, ev.End)
		}
	}
	return nil
}

// Mapping rejects empty roles.
func Mapping(mapping model.RoleMapping) error {
	for k, v := range mapping {
		if v == "" {
			return errs.Validation("mapping", "role for %q is empty", k)
		}
	}
	return nil
}

func ConfigPath(path string) error {
	if path == "" {
		return errs.Validation("config_path", "cannot be empty")
	}
	return nil
}

func positive(field string, v float64) error {
	// also catches NaN
	if !(v > 0) || math.IsInf(v, 1) {
		return errs.Validation(field, "must be positive, got %v", v)
	}
	return nil
}
