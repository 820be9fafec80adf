package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jsphweid/midiscan/chord"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/util"
)

// maxReportChords caps the chord listing of the text report.
const maxReportChords = 20

func WriteText(w io.Writer, res model.AnalysisResult) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "=== Music Analysis Report ===\n\n")

	if res.Key != "" {
		fmt.Fprintf(bw, "Detected Key: %s\n\n", res.Key)
	}

	if len(res.TrackMapping) > 0 {
		fmt.Fprint(bw, "Track Mapping:\n")
		for _, track := range util.SortedKeys(res.TrackMapping) {
			fmt.Fprintf(bw, "  %s: %s\n", track, res.TrackMapping[track])
		}
		fmt.Fprint(bw, "\n")
	}

	if len(res.Chords) > 0 {
		fmt.Fprintf(bw, "Chords (%d total):\n", len(res.Chords))
		for _, c := range res.Chords[:util.Min(len(res.Chords), maxReportChords)] {
			fmt.Fprintf(bw, "  %.2fs: %s\n", c.Time, chord.Label(c))
		}
		if len(res.Chords) > maxReportChords {
			fmt.Fprintf(bw, "  ... and %d more\n", len(res.Chords)-maxReportChords)
		}
		fmt.Fprint(bw, "\n")
	}

	if len(res.RhythmPatterns) > 0 {
		fmt.Fprint(bw, "Top Rhythm Patterns:\n")
		for _, p := range res.RhythmPatterns {
			fmt.Fprintf(bw, "  Interval: %.4fs, Count: %d\n", p.Interval, p.Count)
		}
		fmt.Fprint(bw, "\n")
	}

	if len(res.Events) > 0 {
		start, end := res.Events[0].Start, res.Events[0].End
		for _, ev := range res.Events[1:] {
			start = util.Min(start, ev.Start)
			end = util.Max(end, ev.End)
		}
		fmt.Fprintf(bw, "Total Events: %d\n", len(res.Events))
		fmt.Fprintf(bw, "Duration: %.2fs\n", end-start)
	}
	return bw.Flush()
}
