package mapper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMapTracksDefaultRules(t *testing.T) {
	mapping, err := MapTracks([]string{"Grand Piano", "Electric Bass", "Drums", "Bass Guitar", "Lead Synth", ""}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMapping{
		"Grand Piano":   "piano",
		"Electric Bass": "bass",
		"Drums":         "drums",
		// guitar comes before bass
		"Bass Guitar": "guitar",
		"Lead Synth":  "unknown",
		"":            "unknown",
	}, mapping)
}

func TestMapTracksCustomRulesReplaceDefaults(t *testing.T) {
	mapping, err := MapTracks([]string{"Synth Lead", "Piano"}, Rules{{Pattern: "synth", Role: "synthesizer"}})
	require.NoError(t, err)
	assert.Equal(t, "synthesizer", mapping["Synth Lead"])
	assert.Equal(t, "unknown", mapping["Piano"])
}

func TestMapTracksInvalidPattern(t *testing.T) {
	_, err := MapTracks([]string{"x"}, Rules{{Pattern: "(", Role: "broken"}})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestRoleForProgramBoundaries(t *testing.T) {
	cases := map[int]string{
		-1: "unknown", 0: "piano", 7: "piano", 8: "unknown",
		23: "unknown", 24: "guitar", 31: "guitar", 32: "bass", 39: "bass",
		40: "strings", 47: "strings", 48: "unknown", 111: "unknown",
		112: "drums", 119: "drums", 120: "unknown",
	}
	for program, want := range cases {
		assert.Equalf(t, want, RoleForProgram(program), "program %d", program)
	}
}

func TestMapProgramsFirstEventWins(t *testing.T) {
	events := []model.NoteEvent{
		{Track: 1, Program: 33},
		{Track: 1, Program: 0},
		{Track: 0, Program: -1},
		{Track: 3, Program: 115},
	}
	assert.Equal(t, map[int]string{0: "unknown", 1: "bass", 3: "drums"}, MapPrograms(events))
	assert.Equal(t, model.RoleMapping{"track_0": "unknown", "track_1": "bass", "track_3": "drums"}, ProgramMapping(events))
}

func TestAutoMapEventsFallsBackToTrackLabels(t *testing.T) {
	m, err := NewMapper(nil)
	require.NoError(t, err)

	events := []model.NoteEvent{
		{Track: 0},
		{Track: 2, TrackName: "Drum Kit"},
		{Track: 2, TrackName: "Later name"},
	}
	assert.Equal(t, []string{"track_0", "track_1", "Drum Kit"}, TrackNames(events))
	assert.Equal(t, model.RoleMapping{
		"track_0":  "unknown",
		"track_1":  "unknown",
		"Drum Kit": "drums",
	}, m.AutoMapEvents(events))
}

func TestSetRulesReplaces(t *testing.T) {
	m, err := NewMapper(nil)
	require.NoError(t, err)
	assert.Equal(t, "piano", m.Map("piano"))

	require.NoError(t, m.SetRules(Rules{{Pattern: `.*synth.*`, Role: "synthesizer"}}))
	assert.Equal(t, "unknown", m.Map("piano"))
	assert.Equal(t, "synthesizer", m.Map("SYNTH pad"))
	assert.Len(t, m.Rules(), 1)

	assert.Error(t, m.SetRules(Rules{{Pattern: "ok", Role: ""}}))
	assert.Equal(t, "synthesizer", m.Map("synth"), "failed SetRules keeps previous rules")
}

func TestArrangementPreset(t *testing.T) {
	rules, ok := Preset("arrangement")
	require.True(t, ok)
	mapping, err := MapTracks([]string{"Lead Vocal", "Warm Pad", "Percussion"}, rules)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMapping{"Lead Vocal": "vocals", "Warm Pad": "harmony", "Percussion": "drums"}, mapping)

	_, ok = Preset("nope")
	assert.False(t, ok)
}

func TestParseRulesKeepsDocumentOrder(t *testing.T) {
	rules, err := ParseRules([]byte("zeta: first\nalpha: second\n'mid|dle': third\n"))
	require.NoError(t, err)
	assert.Equal(t, Rules{
		{Pattern: "zeta", Role: "first"},
		{Pattern: "alpha", Role: "second"},
		{Pattern: "mid|dle", Role: "third"},
	}, rules)

	out, err := yaml.Marshal(rules)
	require.NoError(t, err)
	assert.Equal(t, "zeta: first\nalpha: second\nmid|dle: third\n", string(out))
}

func TestParseRulesRejectsNonStrings(t *testing.T) {
	for _, doc := range []string{"5: bass\n", "bass: 5\n", "bass: [a, b]\n", "- a\n- b\n"} {
		_, err := ParseRules([]byte(doc))
		assert.Errorf(t, err, "doc %q", doc)
	}
}

func TestNewMapperFromFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(good, []byte("'.*keys.*': piano\n"), 0644))
	m, err := NewMapperFromFile(good)
	require.NoError(t, err)
	assert.Equal(t, "piano", m.Map("Keys 1"))

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte(""), 0644))
	m, err = NewMapperFromFile(empty)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules, m.Rules())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("key: [unclosed\n"), 0644))
	_, err = NewMapperFromFile(bad)
	assert.True(t, errs.IsConfiguration(err))

	badRegex := filepath.Join(dir, "regex.yaml")
	require.NoError(t, os.WriteFile(badRegex, []byte("'[': broken\n"), 0644))
	_, err = NewMapperFromFile(badRegex)
	assert.True(t, errs.IsConfiguration(err))

	_, err = NewMapperFromFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errs.IsConfiguration(err))
}
