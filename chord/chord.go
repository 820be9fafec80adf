package chord

import (
	"fmt"
	"sort"

	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/util"
	"github.com/jsphweid/midiscan/validate"
)

type template struct {
	kind      model.ChordType
	intervals []int
}

// tried in this order for every candidate root
var templates = []template{
	{kind: model.ChordMajor, intervals: []int{0, 4, 7}},
	{kind: model.ChordMinor, intervals: []int{0, 3, 7}},
	{kind: model.ChordDiminished, intervals: []int{0, 3, 6}},
}

// CreateChordKey joins notes in ascending order, e.g. "0-4-7". The input is
// not modified.
func CreateChordKey(notes []int) string {
	sorted := make([]int, len(notes))
	copy(sorted, notes)
	sort.Ints(sorted)
	var res string
	for i, note := range sorted {
		res += fmt.Sprintf("%v", note)
		if i < len(sorted)-1 {
			res += "-"
		}
	}
	return res
}

// Label is a short human readable name such as "C major" or "cluster 0-1-2".
func Label(c model.Chord) string {
	if c.Root == nil {
		return fmt.Sprintf("%s %s", c.Type, CreateChordKey(c.Notes))
	}
	return fmt.Sprintf("%s %s", *c.Root, c.Type)
}

// AnalyzeChords emits one chord per distinct onset t, built from the pitch
// classes of all events starting in [t, t+window). Windows of neighbouring
// onsets overlap and are not merged.
func AnalyzeChords(events []model.NoteEvent, window float64) ([]model.Chord, error) {
	if err := validate.Window(window); err != nil {
		return nil, err
	}
	if err := validate.Events(events); err != nil {
		return nil, err
	}

	sorted := make([]model.NoteEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	chords := []model.Chord{}
	for i, ev := range sorted {
		if i > 0 && sorted[i-1].Start == ev.Start {
			continue
		}
		t := ev.Start
		present := make(map[int]bool)
		for j := i; j < len(sorted) && sorted[j].Start < t+window; j++ {
			present[util.PitchClass(sorted[j].Note)] = true
		}
		chords = append(chords, classify(t, util.SortedKeys(present)))
	}
	return chords, nil
}

// classify names pcs, which must be sorted and distinct.
func classify(t float64, pcs []int) model.Chord {
	for _, root := range pcs {
		intervals := make(map[int]bool, len(pcs))
		for _, pc := range pcs {
			intervals[(pc-root+12)%12] = true
		}
		for _, tmpl := range templates {
			if containsAll(intervals, tmpl.intervals) {
				name := util.NoteNames[root]
				return model.Chord{Time: t, Root: &name, Type: tmpl.kind, Notes: pcs}
			}
		}
	}
	return model.Chord{Time: t, Type: model.ChordCluster, Notes: pcs}
}

func containsAll(set map[int]bool, want []int) bool {
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}
