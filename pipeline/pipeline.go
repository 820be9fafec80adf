// Package pipeline runs every analysis over one midi file and assembles the
// AnalysisResult.
package pipeline

import (
	"github.com/google/uuid"
	"github.com/jsphweid/midiscan/analysis"
	"github.com/jsphweid/midiscan/chord"
	"github.com/jsphweid/midiscan/config"
	"github.com/jsphweid/midiscan/mapper"
	"github.com/jsphweid/midiscan/midi"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/parser"
	"github.com/jsphweid/midiscan/timeline"
	"github.com/jsphweid/midiscan/util"
	"github.com/jsphweid/midiscan/validate"
	"github.com/sirupsen/logrus"
)

// Analyzer is built from one Config and never changes afterwards, so it can
// be shared between goroutines.
type Analyzer struct {
	cfg    config.Config
	mapper *mapper.Mapper
	parser *parser.Parser
	log    logrus.FieldLogger
	newID  func() string
}

func New(cfg config.Config, log logrus.FieldLogger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := cfg.Mapper()
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:    cfg,
		mapper: m,
		parser: parser.New(parser.Options{Strict: cfg.Strict, Logger: log}),
		log:    log,
		newID:  uuid.NewString,
	}, nil
}

func (a *Analyzer) Config() config.Config {
	return a.cfg
}

func (a *Analyzer) AnalyzeFile(path string) (model.AnalysisResult, error) {
	if err := validate.MidiFilePath(path); err != nil {
		return model.AnalysisResult{}, err
	}
	f, err := midi.ReadFile(path)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	res, err := a.Analyze(f)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	res.Metadata["source"] = path
	return res, nil
}

// Analyze extracts the note events of f and runs key, chord and rhythm
// analysis over them. The returned events are the aligned timeline, each
// tagged with the role of its track.
func (a *Analyzer) Analyze(f *midi.File) (model.AnalysisResult, error) {
	var res model.AnalysisResult

	events, stats, err := a.parser.Parse(f)
	if err != nil {
		return res, err
	}
	tracks := a.parser.DetectTracks(f)
	mapping := a.mapTracks(events)

	key, err := analysis.DetectKey(events)
	if err != nil {
		return res, err
	}
	chords, err := chord.AnalyzeChords(events, a.cfg.ChordWindow)
	if err != nil {
		return res, err
	}
	rhythm, err := analysis.RhythmPattern(events, a.cfg.RhythmTopK)
	if err != nil {
		return res, err
	}
	tl := timeline.Timeline{Quantize: a.cfg.Quantize}
	aligned, err := tl.AlignNotes(events)
	if err != nil {
		return res, err
	}
	sequence := tl.GenerateSequence(timeline.GroupByRole(aligned, mapping))

	trackMaps := make([]map[string]any, 0, len(tracks))
	for _, t := range tracks {
		trackMaps = append(trackMaps, t.ToMap())
	}

	res = model.AnalysisResult{
		Key:            key,
		Chords:         chords,
		RhythmPatterns: rhythm,
		Events:         sequence,
		TrackMapping:   mapping,
		Metadata: map[string]any{
			"analysis_id":    a.newID(),
			"ticks_per_beat": f.TicksPerBeat,
			"tracks":         trackMaps,
			"note_count":     len(events),
			"duration":       duration(events),
			"stats":          stats.ToMap(),
		},
	}

	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"analysis_id": res.Metadata["analysis_id"],
			"events":      len(events),
			"key":         key,
			"chords":      len(chords),
		}).Debug("analysis complete")
	}
	return res, nil
}

// mapTracks maps track names through the configured rules. Tracks without a
// name fall back to the program of their first note.
func (a *Analyzer) mapTracks(events []model.NoteEvent) model.RoleMapping {
	mapping := a.mapper.AutoMapEvents(events)
	for label, role := range mapper.ProgramMapping(events) {
		if _, unnamed := mapping[label]; unnamed {
			mapping[label] = role
		}
	}
	return mapping
}

func duration(events []model.NoteEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	start, end := events[0].Start, events[0].End
	for _, ev := range events[1:] {
		start = util.Min(start, ev.Start)
		end = util.Max(end, ev.End)
	}
	return end - start
}
