package export

import (
	"io"

	"github.com/jsphweid/midiscan/model"
	"gopkg.in/yaml.v3"
)

// WriteYAML encodes the plain map form, so keys come out sorted.
func WriteYAML(w io.Writer, res model.AnalysisResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res.ToMap()); err != nil {
		return err
	}
	return enc.Close()
}
