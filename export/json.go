package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/validate"
	"github.com/pkg/errors"
)

func WriteJSON(w io.Writer, res model.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

// ReadJSON restores a result written by WriteJSON. Numbers inside metadata
// come back as float64.
func ReadJSON(r io.Reader) (model.AnalysisResult, error) {
	var res model.AnalysisResult
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return model.AnalysisResult{}, errs.Parsing("", errors.Wrap(err, "decode analysis json"))
	}
	if err := validate.Events(res.Events); err != nil {
		return model.AnalysisResult{}, err
	}
	if err := validate.Mapping(res.TrackMapping); err != nil {
		return model.AnalysisResult{}, err
	}
	if res.Chords == nil {
		res.Chords = []model.Chord{}
	}
	if res.TrackMapping == nil {
		res.TrackMapping = model.RoleMapping{}
	}
	if res.Metadata == nil {
		res.Metadata = map[string]any{}
	}
	return res, nil
}

func ReadJSONFile(path string) (model.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.AnalysisResult{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
