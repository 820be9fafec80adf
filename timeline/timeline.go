package timeline

import (
	"sort"

	"github.com/jsphweid/midiscan/constants"
	"github.com/jsphweid/midiscan/mapper"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/util"
	"github.com/jsphweid/midiscan/validate"
)

// Timeline aligns notes on a fixed grid.
type Timeline struct {
	Quantize float64
}

func New(quantize float64) (*Timeline, error) {
	if err := validate.Quantize(quantize); err != nil {
		return nil, err
	}
	return &Timeline{Quantize: quantize}, nil
}

// Default uses constants.DefaultQuantize.
func Default() *Timeline {
	return &Timeline{Quantize: constants.DefaultQuantize}
}

func (tl *Timeline) AlignNotes(events []model.NoteEvent) ([]model.NoteEvent, error) {
	return AlignNotes(events, tl.Quantize)
}

// HandleOverlap is AlignNotes; merging overlapping notes happens as part of
// alignment.
func (tl *Timeline) HandleOverlap(events []model.NoteEvent) ([]model.NoteEvent, error) {
	return tl.AlignNotes(events)
}

// GenerateSequence flattens role grouped events into one list ordered by
// start, every event carrying its role. Roles are visited in name order so
// events starting together come out the same way on every call.
func (tl *Timeline) GenerateSequence(byRole map[string][]model.NoteEvent) []model.NoteEvent {
	return GenerateSequence(byRole)
}

func GenerateSequence(byRole map[string][]model.NoteEvent) []model.NoteEvent {
	var merged []model.NoteEvent
	for _, role := range util.SortedKeys(byRole) {
		for _, ev := range byRole[role] {
			ev.Role = role
			merged = append(merged, ev)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})
	return merged
}

// TrackKey is the identifier a mapping uses for the track of ev: its name, or
// track_{id} when unnamed.
func TrackKey(ev model.NoteEvent) string {
	if ev.TrackName != "" {
		return ev.TrackName
	}
	return mapper.TrackLabel(ev.Track)
}

// GroupByRole buckets events by the role mapping assigns their track,
// defaulting to unknown. Event order within a role is preserved.
func GroupByRole(events []model.NoteEvent, mapping model.RoleMapping) map[string][]model.NoteEvent {
	res := make(map[string][]model.NoteEvent)
	for _, ev := range events {
		role, ok := mapping[TrackKey(ev)]
		if !ok {
			role = model.RoleUnknown
		}
		res[role] = append(res[role], ev)
	}
	return res
}
