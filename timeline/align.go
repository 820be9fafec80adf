// Package timeline quantizes note events onto a grid and flattens role
// grouped tracks into one ordered sequence.
package timeline

import (
	"math"
	"sort"

	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/util"
	"github.com/jsphweid/midiscan/validate"
)

// gridUnits is the index of the grid line nearest to v.
func gridUnits(v, q float64) float64 {
	return math.RoundToEven(v / q)
}

// AlignNotes snaps both boundaries of every event to the nearest multiple of
// quantize, stretching notes that collapse to a single grid unit. Events of the
// same note and channel that then overlap or touch are merged, keeping the
// latest end and the loudest velocity. The result is ordered by note, channel
// and start; events is left untouched.
func AlignNotes(events []model.NoteEvent, quantize float64) ([]model.NoteEvent, error) {
	if err := validate.Quantize(quantize); err != nil {
		return nil, err
	}
	if err := validate.Events(events); err != nil {
		return nil, err
	}

	snapped := make([]model.NoteEvent, 0, len(events))
	for _, ev := range events {
		start, end := gridUnits(ev.Start, quantize), gridUnits(ev.End, quantize)
		if end <= start {
			end = start + 1
		}
		ev.Start, ev.End = start*quantize, end*quantize
		snapped = append(snapped, ev)
	}

	sort.SliceStable(snapped, func(i, j int) bool {
		a, b := snapped[i], snapped[j]
		if a.Note != b.Note {
			return a.Note < b.Note
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		return a.Start < b.Start
	})

	res := make([]model.NoteEvent, 0, len(snapped))
	for _, ev := range snapped {
		if n := len(res); n > 0 {
			last := &res[n-1]
			if last.Note == ev.Note && last.Channel == ev.Channel && ev.Start <= last.End {
				last.End = util.Max(last.End, ev.End)
				last.Velocity = util.Max(last.Velocity, ev.Velocity)
				continue
			}
		}
		res = append(res, ev)
	}
	return res, nil
}
