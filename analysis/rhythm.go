package analysis

import (
	"sort"

	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/util"
	"github.com/jsphweid/midiscan/validate"
)

// Onsets returns the distinct start times of events in ascending order.
func Onsets(events []model.NoteEvent) []float64 {
	seen := make(map[float64]bool, len(events))
	res := make([]float64, 0, len(events))
	for _, ev := range events {
		if !seen[ev.Start] {
			seen[ev.Start] = true
			res = append(res, ev.Start)
		}
	}
	sort.Float64s(res)
	return res
}

// RhythmPattern counts inter-onset intervals, rounded to the microsecond, and
// returns the topK most frequent. Equal counts keep the order in which the
// intervals first occurred. Fewer than two onsets give an empty pattern.
func RhythmPattern(events []model.NoteEvent, topK int) (model.RhythmPattern, error) {
	if err := validate.TopK(topK); err != nil {
		return nil, err
	}
	if err := validate.Events(events); err != nil {
		return nil, err
	}

	onsets := Onsets(events)
	res := model.RhythmPattern{}
	if len(onsets) < 2 {
		return res, nil
	}

	index := make(map[float64]int)
	for i := 1; i < len(onsets); i++ {
		ioi := util.RoundTo(onsets[i]-onsets[i-1], 6)
		if at, ok := index[ioi]; ok {
			res[at].Count++
			continue
		}
		index[ioi] = len(res)
		res = append(res, model.IntervalCount{Interval: ioi, Count: 1})
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Count > res[j].Count
	})
	return res[:util.Min(topK, len(res))], nil
}
