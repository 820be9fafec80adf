// Package analysis derives tonal and rhythmic summaries from note events.
package analysis

import (
	"math"

	"github.com/jsphweid/midiscan/constants"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/util"
	"github.com/jsphweid/midiscan/validate"
)

// Krumhansl-Kessler probe tone profiles, tonic first.
var (
	MajorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	MinorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// PitchClassDistribution weights every pitch class by the total duration it
// sounds. The result sums to 1 unless every event has zero duration.
func PitchClassDistribution(events []model.NoteEvent) [12]float64 {
	var pc [12]float64
	for _, ev := range events {
		pc[util.PitchClass(ev.Note)] += ev.Duration()
	}
	total := util.Sum(pc[:])
	if total > 0 {
		for i := range pc {
			pc[i] /= total
		}
	}
	return pc
}

// rotate moves the tonic of profile to shift.
func rotate(profile [12]float64, shift int) [12]float64 {
	var res [12]float64
	for i := range res {
		res[i] = profile[(i-shift+12)%12]
	}
	return res
}

func dot(a, b [12]float64) float64 {
	var res float64
	for i := range a {
		res += a[i] * b[i]
	}
	return res
}

// DetectKey correlates the duration weighted pitch class distribution with all
// 24 rotated profiles and names the best one, e.g. "A minor". The first
// maximum wins ties, scanning tonics upward and major before minor. Without
// any sounding duration it returns constants.NoKey.
func DetectKey(events []model.NoteEvent) (string, error) {
	if err := validate.Events(events); err != nil {
		return "", err
	}
	if len(events) == 0 {
		return constants.NoKey, nil
	}

	pc := PitchClassDistribution(events)
	best, bestMode := -1, ""
	bestScore := math.Inf(-1)
	for shift := 0; shift < 12; shift++ {
		if s := dot(pc, rotate(MajorProfile, shift)); s > bestScore {
			best, bestMode, bestScore = shift, "major", s
		}
		if s := dot(pc, rotate(MinorProfile, shift)); s > bestScore {
			best, bestMode, bestScore = shift, "minor", s
		}
	}
	if best < 0 || bestScore <= 0 {
		return constants.NoKey, nil
	}
	return util.NoteNames[best] + " " + bestMode, nil
}
