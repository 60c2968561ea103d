package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/artifact"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/config"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/engine"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/features"
)

type options struct {
	modelDir  string
	nMFCC     int
	silenceDB float64
	scorer    string
	json      bool
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "voiceguard",
		Short:         "Classify speech recordings as human or AI generated",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.modelDir, "model-dir", config.DefaultModelDir, "directory holding the trained model artifact")
	pf.IntVar(&opts.nMFCC, "n-mfcc", config.DefaultNMFCC, "number of cepstral coefficients")
	pf.Float64Var(&opts.silenceDB, "silence-db", config.DefaultSilenceThresholdDB, "silence threshold in dB below peak")
	pf.StringVar(&opts.scorer, "scorer", config.DefaultScorer, "scorer: auto or heuristic")
	pf.BoolVar(&opts.json, "json", false, "print JSON lines")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log scorer selection to stderr")

	root.AddCommand(newScoreCmd(opts), newFeaturesCmd(opts))
	return root
}

func (o *options) logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func (o *options) validate() error {
	if o.nMFCC < 1 {
		return fmt.Errorf("--n-mfcc must be at least 1, got %d", o.nMFCC)
	}
	if o.silenceDB <= 0 {
		return fmt.Errorf("--silence-db must be positive, got %v", o.silenceDB)
	}
	return nil
}

type scoreLine struct {
	File                     string  `json:"file"`
	Prediction               string  `json:"prediction"`
	ClassificationConfidence float64 `json:"classification_confidence"`
	Continuity               float64 `json:"continuity"`
	Scorer                   string  `json:"scorer"`
	Fallback                 string  `json:"fallback,omitempty"`
}

func newScoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score <file.wav>...",
		Short: "Classify one or more WAV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())
			cache := artifact.NewCache(opts.modelDir, logger)
			defer cache.Close()
			scorer, err := engine.Select(strings.ToLower(opts.scorer), cache, opts.nMFCC, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for _, path := range args {
				w, err := readWAV(path)
				if err != nil {
					return err
				}
				res := scorer.Score(w)
				line := scoreLine{
					File:                     path,
					Prediction:               string(res.Label),
					ClassificationConfidence: res.Confidence,
					Continuity:               engine.Continuity(w, opts.silenceDB),
					Scorer:                   string(res.Source),
					Fallback:                 res.Fallback,
				}
				if opts.json {
					if err := enc.Encode(line); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%.3f\t%.2f\t%s\n",
					line.File, line.Prediction, line.ClassificationConfidence, line.Continuity, line.Scorer)
			}
			return nil
		},
	}
}

func newFeaturesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "features <file.wav>",
		Short: "Print the feature vector of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			w, err := readWAV(args[0])
			if err != nil {
				return err
			}
			vec := features.Extractor{NMFCC: opts.nMFCC}.Extract(w)

			out := cmd.OutOrStdout()
			if opts.json {
				return json.NewEncoder(out).Encode(vec)
			}
			for _, v := range vec {
				fmt.Fprintln(out, strconv.FormatFloat(float64(v), 'g', -1, 32))
			}
			return nil
		},
	}
}

func readWAV(path string) (audio.Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Waveform{}, err
	}
	defer f.Close()
	w, err := audio.DecodeWAV(f)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}
