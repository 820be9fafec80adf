package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jsphweid/midiscan/mapper"
	"github.com/jsphweid/midiscan/midi"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/parser"
	"github.com/jsphweid/midiscan/validate"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tracksCmd)
}

var tracksCmd = &cobra.Command{
	Use:   "tracks <file>",
	Short: "Lists the tracks of a midi file",
	Long:  `Lists every track with its name, programs and the role its name maps to.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := cfg.Mapper()
		if err != nil {
			return err
		}
		if err := validate.MidiFilePath(args[0]); err != nil {
			return err
		}
		f, err := midi.ReadFile(args[0])
		if err != nil {
			return err
		}
		events, _, err := parser.ExtractNotes(f, parser.Options{})
		if err != nil {
			return err
		}
		return printTracks(os.Stdout, parser.DetectTracks(f), mapper.MapPrograms(events), m)
	},
}

// printTracks lists every track. Unnamed tracks take the role of the program
// their first note was played with, as the analysis does.
func printTracks(out io.Writer, tracks []model.TrackMeta, programRoles map[int]string, m *mapper.Mapper) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRACK\tNAME\tPROGRAMS\tROLE")
	for _, t := range tracks {
		role := model.RoleUnknown
		name := t.TrackName
		if name != "" {
			role = m.Map(name)
		} else {
			name = "-"
			if r, ok := programRoles[t.TrackID]; ok {
				role = r
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%v\t%s\n", t.TrackID, name, t.Programs, role)
	}
	return w.Flush()
}
