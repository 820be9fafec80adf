// Package export writes an AnalysisResult as json, csv, yaml, a plain text
// report or a midi file of its timeline.
package export

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/model"
	"github.com/pkg/errors"
)

type writerFunc func(w io.Writer, res model.AnalysisResult) error

var writers = map[string]writerFunc{
	"json": WriteJSON,
	"csv":  WriteCSV,
	"yaml": WriteYAML,
	"text": WriteText,
	"midi": WriteMIDI,
}

var aliases = map[string]string{
	"txt": "text",
	"yml": "yaml",
	"mid": "midi",
}

// Formats lists the canonical format names.
var Formats = []string{"json", "csv", "yaml", "text", "midi"}

// Normalize maps a user supplied format name to its canonical form, or ""
// when it is unsupported.
func Normalize(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if canonical, ok := aliases[format]; ok {
		return canonical
	}
	if _, ok := writers[format]; ok {
		return format
	}
	return ""
}

// Write encodes res to w in format.
func Write(w io.Writer, res model.AnalysisResult, format string) error {
	canonical := Normalize(format)
	if canonical == "" {
		return errs.Export(format, errors.Errorf("unsupported format, expected one of %s", strings.Join(Formats, ", ")))
	}
	if err := writers[canonical](w, res); err != nil {
		return errs.Export(canonical, err)
	}
	return nil
}

// Export writes res to path. Nothing is written when encoding fails.
func Export(res model.AnalysisResult, path, format string) error {
	var buf bytes.Buffer
	if err := Write(&buf, res, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errs.Export(Normalize(format), errors.Wrapf(err, "write %s", path))
	}
	return nil
}
