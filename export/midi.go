package export

import (
	"io"

	"github.com/jsphweid/midiscan/constants"
	"github.com/jsphweid/midiscan/midi"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/util"
	"github.com/pkg/errors"
)

// WriteMIDI renders the event timeline with one track per role.
func WriteMIDI(w io.Writer, res model.AnalysisResult) error {
	if len(res.Events) == 0 {
		return errors.New("no events to export")
	}
	byRole := make(map[string][]model.NoteEvent)
	for _, ev := range res.Events {
		role := ev.Role
		if role == "" {
			role = model.RoleUnknown
		}
		byRole[role] = append(byRole[role], ev)
	}

	parts := make([]midi.Part, 0, len(byRole))
	for _, role := range util.SortedKeys(byRole) {
		parts = append(parts, midi.Part{Name: role, Events: byRole[role]})
	}
	return midi.WriteParts(w, parts, constants.ExportTicksPerBeat, constants.ExportBPM)
}
