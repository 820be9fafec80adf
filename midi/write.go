package midi

import (
	"io"
	"math"
	"sort"

	"github.com/jsphweid/midiscan/model"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Part is a named group of events written as one track.
type Part struct {
	Name   string
	Events []model.NoteEvent
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  smf.Message
}

// WriteParts writes a format 1 file with a conductor track carrying a single
// tempo followed by one track per part. Seconds are converted back to ticks at
// that constant tempo.
func WriteParts(w io.Writer, parts []Part, ticksPerBeat int, bpm float64) error {
	if len(parts) == 0 {
		return errors.New("no parts to write")
	}
	if ticksPerBeat <= 0 || ticksPerBeat > math.MaxUint16 {
		return errors.Errorf("ticks per beat out of range: %d", ticksPerBeat)
	}
	if bpm <= 0 {
		return errors.Errorf("bpm must be positive, got %v", bpm)
	}

	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(ticksPerBeat)

	conductor := smf.Track{}
	conductor = append(conductor, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName("Tempo"))})
	conductor = append(conductor, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTempo(bpm))})
	conductor = append(conductor, smf.Event{Delta: 0, Message: smf.EOT})
	s.Add(conductor)

	ticksPerSecond := float64(ticksPerBeat) * bpm / 60.0
	for _, part := range parts {
		s.Add(partTrack(part, ticksPerSecond))
	}

	if _, err := s.WriteTo(w); err != nil {
		return errors.Wrap(err, "write midi")
	}
	return nil
}

func partTrack(part Part, ticksPerSecond float64) smf.Track {
	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName(part.Name))})

	programSet := make(map[uint8]bool)
	var timed []timedMessage
	for _, ev := range part.Events {
		channel := uint8(ev.Channel & 0x0F)
		if ev.Program >= 0 && !programSet[channel] {
			programSet[channel] = true
			track = append(track, smf.Event{Delta: 0, Message: smf.Message(gomidi.ProgramChange(channel, uint8(ev.Program)))})
		}
		start := toTicks(ev.Start, ticksPerSecond)
		end := toTicks(ev.End, ticksPerSecond)
		if end <= start {
			end = start + 1
		}
		timed = append(timed,
			timedMessage{tick: start, msg: smf.Message(gomidi.NoteOn(channel, uint8(ev.Note), uint8(ev.Velocity)))},
			timedMessage{tick: end, off: true, msg: smf.Message(gomidi.NoteOff(channel, uint8(ev.Note)))},
		)
	}

	// note offs first at equal ticks so retriggered pitches are not cut short
	sort.SliceStable(timed, func(i, j int) bool {
		if timed[i].tick != timed[j].tick {
			return timed[i].tick < timed[j].tick
		}
		return timed[i].off && !timed[j].off
	})

	var last uint32
	for _, tm := range timed {
		track = append(track, smf.Event{Delta: tm.tick - last, Message: tm.msg})
		last = tm.tick
	}
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

func toTicks(seconds, ticksPerSecond float64) uint32 {
	if seconds <= 0 {
		return 0
	}
	return uint32(math.Round(seconds * ticksPerSecond))
}
