package parser

import (
	"sort"

	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/midi"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/tempo"
	"github.com/jsphweid/midiscan/util"
	"github.com/sirupsen/logrus"
)

// Options control how unpaired note messages are reported. Unpaired messages
// never produce events: a note on without a note off is dropped at the end of
// its track, a note off without a note on is ignored and a second note on for
// a sounding key replaces the first. Strict turns any of these into an error.
type Options struct {
	Strict bool
	Logger logrus.FieldLogger
}

// Stats counts the note messages that did not pair up.
type Stats struct {
	UnmatchedNoteOff  int
	UnclosedNoteOn    int
	OverwrittenNoteOn int
}

func (s Stats) Total() int {
	return s.UnmatchedNoteOff + s.UnclosedNoteOn + s.OverwrittenNoteOn
}

func (s Stats) ToMap() map[string]any {
	return map[string]any{
		"unmatched_note_off":  s.UnmatchedNoteOff,
		"unclosed_note_on":    s.UnclosedNoteOn,
		"overwritten_note_on": s.OverwrittenNoteOn,
	}
}

type noteKey struct {
	channel uint8
	note    uint8
}

type openNote struct {
	startTick int64
	velocity  uint8
	program   int
}

// ExtractNotes pairs note on/off messages of every track into events sorted by
// start time. The file is not modified.
func ExtractNotes(f *midi.File, opts Options) ([]model.NoteEvent, Stats, error) {
	var stats Stats
	if f == nil {
		return nil, stats, errs.Validation("file", "must not be nil")
	}
	if f.TicksPerBeat <= 0 {
		return nil, stats, errs.Validation("ticks_per_beat", "must be positive, got %d", f.TicksPerBeat)
	}

	tempoMap, err := tempo.BuildMap(f.Tracks)
	if err != nil {
		return nil, stats, err
	}
	conv, err := tempo.NewConverter(tempoMap, f.TicksPerBeat)
	if err != nil {
		return nil, stats, err
	}

	var events []model.NoteEvent
	for ti, track := range f.Tracks {
		events = append(events, extractTrack(ti, track, conv, &stats, opts.Logger)...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start < events[j].Start
	})

	if opts.Strict && stats.Total() > 0 {
		return nil, stats, errs.Validation("events", "%d unmatched note off, %d unclosed note on, %d overwritten note on",
			stats.UnmatchedNoteOff, stats.UnclosedNoteOn, stats.OverwrittenNoteOn)
	}
	return events, stats, nil
}

func extractTrack(ti int, track midi.Track, conv *tempo.Converter, stats *Stats, log logrus.FieldLogger) []model.NoteEvent {
	var res []model.NoteEvent
	var absTicks int64
	var trackName string
	program := model.NoProgram
	open := make(map[noteKey]openNote)

	for _, msg := range track {
		absTicks += int64(msg.Delta)
		key := noteKey{channel: msg.Channel, note: msg.Note}

		switch {
		case msg.Kind == midi.TrackName:
			trackName = msg.Name
		case msg.Kind == midi.ProgramChange:
			program = int(msg.Program)
		case msg.Kind == midi.NoteOn && msg.Velocity > 0:
			if _, ok := open[key]; ok {
				stats.OverwrittenNoteOn++
				warn(log, ti, key, "note on while already sounding, keeping the newer one")
			}
			open[key] = openNote{startTick: absTicks, velocity: msg.Velocity, program: program}
		case msg.Kind == midi.NoteOff || msg.Kind == midi.NoteOn:
			on, ok := open[key]
			if !ok {
				stats.UnmatchedNoteOff++
				warn(log, ti, key, "note off for unpressed note")
				continue
			}
			delete(open, key)
			res = append(res, model.NoteEvent{
				Note:      int(key.note),
				Velocity:  int(on.velocity),
				Start:     conv.Seconds(on.startTick),
				End:       conv.Seconds(absTicks),
				Channel:   int(key.channel),
				Track:     ti,
				TrackName: trackName,
				Program:   on.program,
			})
		}
	}

	for key := range open {
		stats.UnclosedNoteOn++
		warn(log, ti, key, "missing note off, dropping note")
	}
	return res
}

func warn(log logrus.FieldLogger, track int, key noteKey, msg string) {
	if log == nil {
		return
	}
	log.WithFields(logrus.Fields{
		"track":   track,
		"channel": key.channel,
		"note":    util.NoteName(int(key.note)),
	}).Warn(msg)
}

// DetectTracks reports the last track name and the sorted distinct programs of
// every track, in file order.
func DetectTracks(f *midi.File) []model.TrackMeta {
	if f == nil {
		return nil
	}
	res := make([]model.TrackMeta, 0, len(f.Tracks))
	for ti, track := range f.Tracks {
		meta := model.TrackMeta{TrackID: ti, Programs: []int{}}
		seen := make(map[int]bool)
		for _, msg := range track {
			switch msg.Kind {
			case midi.TrackName:
				meta.TrackName = msg.Name
			case midi.ProgramChange:
				p := int(msg.Program)
				if !seen[p] {
					seen[p] = true
					meta.Programs = append(meta.Programs, p)
				}
			}
		}
		sort.Ints(meta.Programs)
		res = append(res, meta)
	}
	return res
}

// SortByStart returns a start ordered copy of events.
func SortByStart(events []model.NoteEvent) []model.NoteEvent {
	res := make([]model.NoteEvent, len(events))
	copy(res, events)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Start < res[j].Start
	})
	return res
}

// Parser reads midi files with a fixed set of options.
type Parser struct {
	opts Options
}

func New(opts Options) *Parser {
	return &Parser{opts: opts}
}

func (p *Parser) ParseFile(path string) ([]model.NoteEvent, Stats, error) {
	f, err := midi.ReadFile(path)
	if err != nil {
		return nil, Stats{}, err
	}
	return ExtractNotes(f, p.opts)
}

func (p *Parser) Parse(f *midi.File) ([]model.NoteEvent, Stats, error) {
	return ExtractNotes(f, p.opts)
}

// ExtractNoteEvents orders events parsed elsewhere by start time.
func (p *Parser) ExtractNoteEvents(events []model.NoteEvent) []model.NoteEvent {
	return SortByStart(events)
}

func (p *Parser) DetectTracks(f *midi.File) []model.TrackMeta {
	return DetectTracks(f)
}
