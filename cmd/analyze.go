package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/midiscan/config"
	"github.com/jsphweid/midiscan/export"
	"github.com/jsphweid/midiscan/pipeline"
	"github.com/jsphweid/midiscan/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var analyzeOpts struct {
	format   string
	output   string
	maxFiles int
	strict   bool
	window   float64
	quantize float64
	topK     int
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeOpts.format, "format", "f", "json", "output format: "+strings.Join(export.Formats, ", "))
	f.StringVarP(&analyzeOpts.output, "output", "o", "", "output file, or directory when analyzing several files (default stdout)")
	f.IntVar(&analyzeOpts.maxFiles, "max", 0, "analyze at most this many files from a directory, 0 for all")
	f.BoolVar(&analyzeOpts.strict, "strict", false, "fail on unpaired note messages")
	f.Float64Var(&analyzeOpts.window, "window", 0, "chord window in seconds")
	f.Float64Var(&analyzeOpts.quantize, "quantize", 0, "alignment grid in seconds")
	f.IntVar(&analyzeOpts.topK, "top-k", 0, "number of rhythm patterns to report")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file or directory>...",
	Short: "Analyzes midi files",
	Long: `Analyzes every given midi file, walking directories for .mid and .midi
files, and writes one result per file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = applyAnalyzeFlags(cmd, cfg)

		format := export.Normalize(analyzeOpts.format)
		if format == "" {
			return errors.Errorf("unsupported format %q", analyzeOpts.format)
		}

		var paths []string
		for _, arg := range args {
			found, err := util.GatherMidiPaths(arg, analyzeOpts.maxFiles)
			if err != nil {
				return err
			}
			paths = append(paths, found...)
		}
		if len(paths) == 0 {
			return errors.New("no midi files found")
		}

		a, err := pipeline.New(cfg, log)
		if err != nil {
			return err
		}
		return analyze(a, paths, format, analyzeOpts.output)
	},
}

func applyAnalyzeFlags(cmd *cobra.Command, cfg config.Config) config.Config {
	flags := cmd.Flags()
	if flags.Changed("strict") {
		cfg.Strict = analyzeOpts.strict
	}
	if flags.Changed("window") {
		cfg.ChordWindow = analyzeOpts.window
	}
	if flags.Changed("quantize") {
		cfg.Quantize = analyzeOpts.quantize
	}
	if flags.Changed("top-k") {
		cfg.RhythmTopK = analyzeOpts.topK
	}
	return cfg
}

func analyze(a *pipeline.Analyzer, paths []string, format, output string) error {
	multi := len(paths) > 1
	if multi && output != "" {
		if err := os.MkdirAll(output, 0755); err != nil {
			return errors.Wrapf(err, "create %s", output)
		}
	}

	for i, path := range paths {
		log.WithField("file", path).Debugf("analyzing %v of %v", i+1, len(paths))
		res, err := a.AnalyzeFile(path)
		if err != nil {
			if !multi {
				return err
			}
			log.WithError(err).WithField("file", path).Warn("skipping")
			continue
		}

		switch {
		case output == "":
			if err := export.Write(os.Stdout, res, format); err != nil {
				return err
			}
		case multi:
			if err := export.Export(res, filepath.Join(output, outputName(path, format)), format); err != nil {
				return err
			}
		default:
			if err := export.Export(res, output, format); err != nil {
				return err
			}
		}
	}
	return nil
}

var extensions = map[string]string{
	"json": ".json",
	"csv":  ".csv",
	"yaml": ".yaml",
	"text": ".txt",
	"midi": ".mid",
}

// outputName derives song.json from some/dir/song.mid.
func outputName(path, format string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if format == "midi" {
		base += ".aligned"
	}
	return fmt.Sprintf("%s%s", base, extensions[format])
}
