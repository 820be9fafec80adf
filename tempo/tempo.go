package tempo

import (
	"sort"

	"github.com/jsphweid/midiscan/constants"
	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/midi"
)

// Entry is a tempo change point: from Tick on, a beat lasts Tempo microseconds.
type Entry struct {
	Tick  int64
	Tempo int
}

// Map is ordered by tick. The first entry is always the default tempo at tick
// 0; an explicit tempo at tick 0 follows it and wins because the converter
// uses the last entry applicable to a tick.
type Map []Entry

// BuildMap scans every track for set_tempo messages.
func BuildMap(tracks []midi.Track) (Map, error) {
	m := Map{{Tick: 0, Tempo: constants.DefaultTempo}}
	for ti, track := range tracks {
		var absTicks int64
		for _, msg := range track {
			absTicks += int64(msg.Delta)
			if msg.Kind != midi.SetTempo {
				continue
			}
			if msg.Tempo <= 0 {
				return nil, errs.Validation("tempo", "must be positive, got %d at tick %d of track %d", msg.Tempo, absTicks, ti)
			}
			m = append(m, Entry{Tick: absTicks, Tempo: msg.Tempo})
		}
	}

	sort.SliceStable(m, func(i, j int) bool {
		return m[i].Tick < m[j].Tick
	})
	return m, nil
}

// Validate checks a hand built map before conversion.
func (m Map) Validate() error {
	if len(m) == 0 {
		return errs.Validation("tempo_map", "must not be empty")
	}
	for i, e := range m {
		if e.Tempo <= 0 {
			return errs.Validation("tempo_map", "tempo must be positive, got %d at index %d", e.Tempo, i)
		}
		if e.Tick < 0 {
			return errs.Validation("tempo_map", "tick must not be negative, got %d at index %d", e.Tick, i)
		}
		if i > 0 && e.Tick < m[i-1].Tick {
			return errs.Validation("tempo_map", "entries out of order at index %d", i)
		}
	}
	return nil
}

// TickToSeconds walks the map segment by segment, so any number of tempo
// changes before ticks is accounted for. The map must be valid and start at
// tick 0.
func (m Map) TickToSeconds(ticks int64, ticksPerBeat int) float64 {
	if ticks <= 0 || len(m) == 0 {
		return 0
	}

	tpb := float64(ticksPerBeat)
	span := func(ticks int64, tempo int) float64 {
		return float64(ticks) * (float64(tempo) / 1000000.0) / tpb
	}

	var seconds float64
	var lastTick int64
	prev := m[0].Tempo
	for _, e := range m {
		if ticks <= e.Tick {
			// everything left runs at the previous tempo
			return seconds + span(ticks-lastTick, prev)
		}
		if e.Tick > lastTick {
			seconds += span(e.Tick-lastTick, prev)
		}
		lastTick = e.Tick
		prev = e.Tempo
	}
	return seconds + span(ticks-lastTick, prev)
}

// Converter binds a map to the file resolution.
type Converter struct {
	Map          Map
	TicksPerBeat int
}

func NewConverter(m Map, ticksPerBeat int) (*Converter, error) {
	if ticksPerBeat <= 0 {
		return nil, errs.Validation("ticks_per_beat", "must be positive, got %d", ticksPerBeat)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m[0].Tick != 0 {
		return nil, errs.Validation("tempo_map", "must start at tick 0, got %d", m[0].Tick)
	}
	return &Converter{Map: m, TicksPerBeat: ticksPerBeat}, nil
}

func (c *Converter) Seconds(ticks int64) float64 {
	return c.Map.TickToSeconds(ticks, c.TicksPerBeat)
}
