package parser

import (
	"testing"

	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/midi"
	"github.com/jsphweid/midiscan/model"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func on(delta uint32, ch, note, vel uint8) midi.Message {
	return midi.Message{Delta: delta, Kind: midi.NoteOn, Channel: ch, Note: note, Velocity: vel}
}

func off(delta uint32, ch, note uint8) midi.Message {
	return midi.Message{Delta: delta, Kind: midi.NoteOff, Channel: ch, Note: note}
}

func TestExtractTriad(t *testing.T) {
	f := &midi.File{TicksPerBeat: 480, Tracks: []midi.Track{{
		{Kind: midi.TrackName, Name: "Piano"},
		on(0, 0, 60, 90), on(0, 0, 64, 80), on(0, 0, 67, 70),
		off(960, 0, 60), off(0, 0, 64), on(0, 0, 67, 0),
	}}}

	events, stats, err := ExtractNotes(f, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total())
	require.Len(t, events, 3)

	assert := assert.New(t)
	for i, note := range []int{60, 64, 67} {
		assert.Equal(note, events[i].Note)
		assert.Equal(0.0, events[i].Start)
		assert.InDelta(1.0, events[i].End, 1e-12)
		assert.Equal("Piano", events[i].TrackName)
		assert.Equal(model.NoProgram, events[i].Program)
		assert.Equal(0, events[i].Track)
	}
	assert.Equal(70, events[2].Velocity)
}

func TestLastNoteOnWins(t *testing.T) {
	f := &midi.File{TicksPerBeat: 480, Tracks: []midi.Track{{
		on(0, 0, 60, 100),
		on(480, 0, 60, 50),
		off(480, 0, 60),
	}}}

	events, stats, err := ExtractNotes(f, Options{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.InDelta(t, 0.5, events[0].Start, 1e-12)
	assert.InDelta(t, 1.0, events[0].End, 1e-12)
	assert.Equal(t, 50, events[0].Velocity)
	assert.Equal(t, 1, stats.OverwrittenNoteOn)
}

func TestUnpairedMessagesAreDropped(t *testing.T) {
	f := &midi.File{TicksPerBeat: 480, Tracks: []midi.Track{{
		off(0, 0, 62),
		on(0, 1, 60, 100),
		on(0, 0, 60, 100),
		off(480, 0, 60),
	}}}

	logger, hook := test.NewNullLogger()
	events, stats, err := ExtractNotes(f, Options{Logger: logger})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Channel)

	assert.Equal(t, Stats{UnmatchedNoteOff: 1, UnclosedNoteOn: 1}, stats)
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "C4", hook.LastEntry().Data["note"])
}

func TestStrictModeFails(t *testing.T) {
	f := &midi.File{TicksPerBeat: 480, Tracks: []midi.Track{{on(0, 0, 60, 100)}}}
	_, stats, err := ExtractNotes(f, Options{Strict: true})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, 1, stats.UnclosedNoteOn)
}

func TestProgramAndNameAttribution(t *testing.T) {
	f := &midi.File{TicksPerBeat: 480, Tracks: []midi.Track{
		{
			{Kind: midi.SetTempo, Tempo: 250000},
		},
		{
			{Kind: midi.TrackName, Name: "first"},
			{Kind: midi.ProgramChange, Program: 33},
			on(0, 2, 40, 100),
			{Kind: midi.ProgramChange, Program: 34},
			{Kind: midi.TrackName, Name: "second"},
			off(480, 2, 40),
			on(0, 2, 41, 100),
			off(480, 2, 41),
		},
	}}

	events, _, err := ExtractNotes(f, Options{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert := assert.New(t)
	// program comes from the note on, name from the note off
	assert.Equal(33, events[0].Program)
	assert.Equal("second", events[0].TrackName)
	assert.Equal(34, events[1].Program)
	assert.Equal(1, events[0].Track)
	// 240 BPM from the conductor track
	assert.InDelta(0.25, events[0].End, 1e-12)
	assert.InDelta(0.5, events[1].End, 1e-12)
}

func TestEventsSortedAcrossTracks(t *testing.T) {
	f := &midi.File{TicksPerBeat: 480, Tracks: []midi.Track{
		{on(960, 0, 70, 100), off(480, 0, 70)},
		{on(0, 1, 50, 100), off(480, 1, 50), on(480, 1, 52, 100), off(480, 1, 52)},
	}}

	events, _, err := ExtractNotes(f, Options{})
	require.NoError(t, err)
	var notes []int
	for _, e := range events {
		notes = append(notes, e.Note)
	}
	assert.Equal(t, []int{50, 70, 52}, notes)
}

func TestExtractValidatesInput(t *testing.T) {
	_, _, err := ExtractNotes(nil, Options{})
	assert.True(t, errs.IsValidation(err))

	_, _, err = ExtractNotes(&midi.File{TicksPerBeat: 0}, Options{})
	assert.True(t, errs.IsValidation(err))

	_, _, err = ExtractNotes(&midi.File{TicksPerBeat: 96, Tracks: []midi.Track{{{Kind: midi.SetTempo, Tempo: 0}}}}, Options{})
	assert.True(t, errs.IsValidation(err))
}

func TestDetectTracks(t *testing.T) {
	f := &midi.File{TicksPerBeat: 480, Tracks: []midi.Track{
		{{Kind: midi.SetTempo, Tempo: 500000}},
		{
			{Kind: midi.TrackName, Name: "Strings"},
			{Kind: midi.ProgramChange, Program: 48},
			{Kind: midi.ProgramChange, Program: 40},
			{Kind: midi.ProgramChange, Program: 48},
			{Kind: midi.TrackName, Name: "Violin"},
		},
	}}

	assert.Equal(t, []model.TrackMeta{
		{TrackID: 0, Programs: []int{}},
		{TrackID: 1, TrackName: "Violin", Programs: []int{40, 48}},
	}, New(Options{}).DetectTracks(f))
}

func TestSortByStartCopies(t *testing.T) {
	in := []model.NoteEvent{{Note: 1, Start: 2}, {Note: 2, Start: 1}, {Note: 3, Start: 1}}
	out := SortByStart(in)
	assert.Equal(t, []int{2, 3, 1}, []int{out[0].Note, out[1].Note, out[2].Note})
	assert.Equal(t, 1, in[0].Note)
}

func TestParserMethods(t *testing.T) {
	p := New(Options{Strict: true})

	_, _, err := p.ParseFile("does-not-exist.mid")
	assert.True(t, errs.IsParsing(err))

	_, _, err = p.Parse(&midi.File{TicksPerBeat: 480, Tracks: []midi.Track{{off(0, 0, 60)}}})
	assert.True(t, errs.IsValidation(err))

	events := p.ExtractNoteEvents([]model.NoteEvent{{Note: 2, Start: 1}, {Note: 1, Start: 0}})
	assert.Equal(t, 1, events[0].Note)

	assert.Equal(t, map[string]any{
		"unmatched_note_off":  1,
		"unclosed_note_on":    0,
		"overwritten_note_on": 2,
	}, Stats{UnmatchedNoteOff: 1, OverwrittenNoteOn: 2}.ToMap())
}
