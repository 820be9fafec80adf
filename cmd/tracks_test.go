package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jsphweid/midiscan/mapper"
	"github.com/jsphweid/midiscan/midi"
	"github.com/jsphweid/midiscan/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTracksUsesFirstNoteProgram(t *testing.T) {
	f := &midi.File{TicksPerBeat: 480, Tracks: []midi.Track{
		{{Kind: midi.SetTempo, Tempo: 500000}},
		{
			{Kind: midi.ProgramChange, Program: 33},
			{Kind: midi.NoteOn, Note: 40, Velocity: 100},
			{Delta: 480, Kind: midi.NoteOff, Note: 40},
			{Kind: midi.ProgramChange, Program: 0},
			{Kind: midi.NoteOn, Note: 60, Velocity: 100},
			{Delta: 480, Kind: midi.NoteOff, Note: 60},
		},
		{
			{Kind: midi.TrackName, Name: "Drum Kit"},
			{Kind: midi.NoteOn, Channel: 9, Note: 36, Velocity: 100},
			{Delta: 240, Kind: midi.NoteOff, Channel: 9, Note: 36},
		},
	}}

	events, _, err := parser.ExtractNotes(f, parser.Options{})
	require.NoError(t, err)
	m, err := mapper.NewMapper(nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printTracks(&out, parser.DetectTracks(f), mapper.MapPrograms(events), m))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"TRACK", "NAME", "PROGRAMS", "ROLE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "-", "[]", "unknown"}, strings.Fields(lines[1]))
	// programs are listed sorted, the role follows the 33 the first note used
	assert.Equal(t, []string{"1", "-", "[0", "33]", "bass"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"2", "Drum", "Kit", "[]", "drums"}, strings.Fields(lines[3]))
}
