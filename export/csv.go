package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jsphweid/midiscan/model"
	"github.com/pkg/errors"
)

var csvHeader = []string{"note", "velocity", "start", "end", "channel", "track", "track_name", "program"}

// WriteCSV writes one row per event. The role column is only present when
// the events carry roles.
func WriteCSV(w io.Writer, res model.AnalysisResult) error {
	if len(res.Events) == 0 {
		return errors.New("no events to export")
	}

	withRole := false
	for _, ev := range res.Events {
		if ev.Role != "" {
			withRole = true
			break
		}
	}

	header := csvHeader
	if withRole {
		header = append(append([]string(nil), csvHeader...), "role")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, ev := range res.Events {
		row := []string{
			strconv.Itoa(ev.Note),
			strconv.Itoa(ev.Velocity),
			formatFloat(ev.Start),
			formatFloat(ev.End),
			strconv.Itoa(ev.Channel),
			strconv.Itoa(ev.Track),
			ev.TrackName,
			strconv.Itoa(ev.Program),
		}
		if withRole {
			row = append(row, ev.Role)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
