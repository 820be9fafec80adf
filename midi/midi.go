package midi

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jsphweid/midiscan/errs"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

type Kind int

const (
	Other Kind = iota
	NoteOn
	NoteOff
	ProgramChange
	SetTempo
	TrackName
)

var kindNames = [...]string{"other", "note_on", "note_off", "program_change", "set_tempo", "track_name"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Message is one timed message of a track. Delta is in ticks since the previous
// message of the same track. Only the fields belonging to Kind are meaningful:
// Channel/Note/Velocity for notes, Channel/Program for program changes,
// Tempo (microseconds per beat) for set_tempo and Name for track_name.
type Message struct {
	Delta    uint32
	Kind     Kind
	Channel  uint8
	Note     uint8
	Velocity uint8
	Program  uint8
	Tempo    int
	Name     string
}

type Track []Message

// File is a decoded standard midi file reduced to what the analyzers consume.
type File struct {
	TicksPerBeat int
	Tracks       []Track
}

func ReadFile(path string) (*File, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Parsing(path, errors.Wrap(err, "read file"))
	}
	f, err := decode(dat)
	if err != nil {
		return nil, errs.Parsing(path, err)
	}
	return f, nil
}

func Read(r io.Reader) (*File, error) {
	dat, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Parsing("", errors.Wrap(err, "read stream"))
	}
	f, err := decode(dat)
	if err != nil {
		return nil, errs.Parsing("", err)
	}
	return f, nil
}

func decode(dat []byte) (f *File, e error) {
	// gomidi can panic on truncated input
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			f = nil
			e = fmt.Errorf("midi decoder panicked: %v", r)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrap(err, "decode smf")
	}
	return fromSMF(s)
}

// FromSMF adapts a gomidi file. Only metric time formats are supported.
func FromSMF(s *smf.SMF) (*File, error) {
	f, err := fromSMF(s)
	if err != nil {
		return nil, errs.Parsing("", err)
	}
	return f, nil
}

func fromSMF(s *smf.SMF) (*File, error) {
	tf, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v, expected metric ticks", s.TimeFormat)
	}
	if tf == 0 {
		return nil, errors.New("ticks per beat is zero")
	}

	res := &File{TicksPerBeat: int(tf)}
	for _, track := range s.Tracks {
		converted := make(Track, 0, len(track))
		for _, event := range track {
			converted = append(converted, convert(event))
		}
		res.Tracks = append(res.Tracks, converted)
	}
	return res, nil
}

func convert(event smf.Event) Message {
	msg := event.Message
	m := Message{Delta: event.Delta}

	var channel, key, velocity, program uint8
	var bpm float64
	var text string
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		m.Kind, m.Channel, m.Note, m.Velocity = NoteOn, channel, key, velocity
	case msg.GetNoteOff(&channel, &key, &velocity):
		m.Kind, m.Channel, m.Note, m.Velocity = NoteOff, channel, key, velocity
	case msg.GetProgramChange(&channel, &program):
		m.Kind, m.Channel, m.Program = ProgramChange, channel, program
	case msg.GetMetaTempo(&bpm):
		m.Kind, m.Tempo = SetTempo, tempoMicros(msg, bpm)
	case msg.GetMetaTrackName(&text):
		m.Kind, m.Name = TrackName, text
	}
	return m
}

// tempoMicros reads the raw 24 bit value (FF 51 03 tt tt tt) so no precision
// is lost going through bpm.
func tempoMicros(msg smf.Message, bpm float64) int {
	if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
		return int(msg[3])<<16 | int(msg[4])<<8 | int(msg[5])
	}
	if bpm <= 0 {
		return 0
	}
	return int(math.Round(60000000 / bpm))
}
