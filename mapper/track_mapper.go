package mapper

import (
	"os"

	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Mapper holds a compiled rule set.
type Mapper struct {
	rules    Rules
	compiled []compiledRule
}

// NewMapper compiles rules, falling back to DefaultRules when none are given.
func NewMapper(rules Rules) (*Mapper, error) {
	m := &Mapper{}
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if err := m.SetRules(rules); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMapperFromFile loads a yaml mapping of pattern to role. A file without
// rules yields DefaultRules; anything unreadable or malformed is a
// ConfigurationError.
func NewMapperFromFile(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configuration(path, errors.Wrap(err, "read mapping rules"))
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, errs.Configuration(path, err)
	}
	m, err := NewMapper(rules)
	if err != nil {
		return nil, errs.Configuration(path, err)
	}
	return m, nil
}

// SetRules replaces the current rules entirely.
func (m *Mapper) SetRules(rules Rules) error {
	compiled, err := compile(rules)
	if err != nil {
		return err
	}
	m.rules = append(Rules(nil), rules...)
	m.compiled = compiled
	return nil
}

func (m *Mapper) Rules() Rules {
	return append(Rules(nil), m.rules...)
}

func (m *Mapper) Map(name string) string {
	return match(m.compiled, name)
}

func (m *Mapper) AutoMapTracks(names []string) model.RoleMapping {
	mapping := make(model.RoleMapping, len(names))
	for _, name := range names {
		mapping[name] = m.Map(name)
	}
	return mapping
}

// AutoMapEvents names every track id from 0 to the highest one seen after the
// first event carrying a name, or track_{id}, and maps those names.
func (m *Mapper) AutoMapEvents(events []model.NoteEvent) model.RoleMapping {
	return m.AutoMapTracks(TrackNames(events))
}

// TrackNames lists one name per track id 0..max in id order.
func TrackNames(events []model.NoteEvent) []string {
	seen := make(map[int]string)
	maxID := -1
	for _, ev := range events {
		if ev.Track > maxID {
			maxID = ev.Track
		}
		if _, ok := seen[ev.Track]; !ok && ev.TrackName != "" {
			seen[ev.Track] = ev.TrackName
		}
	}

	names := make([]string, 0, maxID+1)
	for id := 0; id <= maxID; id++ {
		if name, ok := seen[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, TrackLabel(id))
		}
	}
	return names
}

// ParseRules decodes a yaml mapping, keeping document order as priority.
func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *Rules) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*r = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: mapping rules must be a mapping of pattern to role", value.Line)
	}

	rules := make(Rules, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Tag != "!!str" {
			return errors.Errorf("line %d: pattern must be a string", k.Line)
		}
		if v.Kind != yaml.ScalarNode || v.Tag != "!!str" {
			return errors.Errorf("line %d: role for %q must be a string", v.Line, k.Value)
		}
		rules = append(rules, Rule{Pattern: k.Value, Role: v.Value})
	}
	*r = rules
	return nil
}

func (r Rules) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, rule := range r {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rule.Pattern},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rule.Role},
		)
	}
	return node, nil
}
