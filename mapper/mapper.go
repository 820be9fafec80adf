package mapper

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/model"
)

// Rule assigns Role to any name the case insensitive Pattern matches anywhere in.
type Rule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Role    string `json:"role" yaml:"role"`
}

// Rules are tried in order, first match wins.
type Rules []Rule

var DefaultRules = Rules{
	{Pattern: `piano|grand`, Role: "piano"},
	{Pattern: `guitar`, Role: "guitar"},
	{Pattern: `bass`, Role: "bass"},
	{Pattern: `drum|perc`, Role: "drums"},
	{Pattern: `violin|cello|strings`, Role: "strings"},
	{Pattern: `flute|sax|clarinet`, Role: "winds"},
}

// ArrangementRules group tracks by function in the arrangement rather than by
// instrument family.
var ArrangementRules = Rules{
	{Pattern: `.*vocal.*|.*voice.*`, Role: "vocals"},
	{Pattern: `.*melody.*|.*lead.*`, Role: "melody"},
	{Pattern: `.*bass.*`, Role: "bass"},
	{Pattern: `.*drum.*|.*percussion.*`, Role: "drums"},
	{Pattern: `.*chord.*|.*pad.*`, Role: "harmony"},
}

// Preset returns a built in rule set by name.
func Preset(name string) (Rules, bool) {
	switch name {
	case "", "default":
		return DefaultRules, true
	case "arrangement":
		return ArrangementRules, true
	}
	return nil, false
}

type compiledRule struct {
	re   *regexp.Regexp
	role string
}

func compile(rules Rules) ([]compiledRule, error) {
	res := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if r.Role == "" {
			return nil, errs.Validation("rules", "rule %d (%q) has an empty role", i, r.Pattern)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, errs.Validation("rules", "rule %d has an invalid pattern %q: %v", i, r.Pattern, err)
		}
		res = append(res, compiledRule{re: re, role: r.Role})
	}
	return res, nil
}

func match(compiled []compiledRule, name string) string {
	for _, c := range compiled {
		if c.re.MatchString(name) {
			return c.role
		}
	}
	return model.RoleUnknown
}

// MapTracks assigns a role to every name. Empty rules mean DefaultRules.
func MapTracks(names []string, rules Rules) (model.RoleMapping, error) {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	compiled, err := compile(rules)
	if err != nil {
		return nil, err
	}
	mapping := make(model.RoleMapping, len(names))
	for _, name := range names {
		mapping[name] = match(compiled, name)
	}
	return mapping, nil
}

// RoleForProgram infers a role from General MIDI program families.
func RoleForProgram(program int) string {
	switch {
	case program >= 0 && program <= 7:
		return "piano"
	case program >= 24 && program <= 31:
		return "guitar"
	case program >= 32 && program <= 39:
		return "bass"
	case program >= 40 && program <= 47:
		return "strings"
	case program >= 112 && program <= 119:
		return "drums"
	}
	return model.RoleUnknown
}

// MapPrograms is the fallback when tracks carry no names: each track takes the
// role of the program of its first event.
func MapPrograms(events []model.NoteEvent) map[int]string {
	mapping := make(map[int]string)
	for _, ev := range events {
		if _, ok := mapping[ev.Track]; ok {
			continue
		}
		mapping[ev.Track] = RoleForProgram(ev.Program)
	}
	return mapping
}

// ProgramMapping renders MapPrograms keyed the same way AutoMapEvents labels
// unnamed tracks.
func ProgramMapping(events []model.NoteEvent) model.RoleMapping {
	byID := MapPrograms(events)
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	res := make(model.RoleMapping, len(ids))
	for _, id := range ids {
		res[TrackLabel(id)] = byID[id]
	}
	return res
}

func TrackLabel(id int) string {
	return fmt.Sprintf("track_%d", id)
}
