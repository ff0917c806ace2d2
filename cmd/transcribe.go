package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsphweid/midicom/constants"
	"github.com/jsphweid/midicom/model"
	"github.com/jsphweid/midicom/stem"
	"github.com/jsphweid/midicom/store"
	"github.com/jsphweid/midicom/transcribe"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	minDuration float64
	quantizeMs  int
)

func init() {
	transcribeCmd.Flags().Float64Var(&minDuration, "min-duration", 0, "minimum note duration in seconds (default MIDICOM_MIN_NOTE_DURATION or 0.1)")
	transcribeCmd.Flags().IntVar(&quantizeMs, "quantize", -1, "quantization grid in ms, 0 disables (default MIDICOM_QUANTIZE_MS or 50)")
	rootCmd.AddCommand(transcribeCmd)
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <signals.json> <out>",
	Short: "Transcribes onset and pitch signals to midi",
	Long: `Transcribes onset and pitch signals to midi. The signals file holds
{"stems": [{"name": ..., "onsets": [...], "pitches": [{"time": ..., "frequency": ...}]}]}.
With one stem <out> is the midi file, with several it is a directory that
receives one midi file per stem.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := transcribe.DefaultConfig()
		cfg.MinNoteDuration = constants.GetMinNoteDuration()
		cfg.QuantizeMs = constants.GetQuantizeMs()
		if minDuration > 0 {
			cfg.MinNoteDuration = minDuration
		}
		if quantizeMs >= 0 {
			cfg.QuantizeMs = quantizeMs
		}
		return transcribeFile(cmd.Context(), args[0], args[1], cfg)
	},
}

func readSignals(path string) ([]model.StemSignals, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var body model.TranscribeRequestBody
	if err := json.Unmarshal(dat, &body); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	if err := validateStems(body.Stems); err != nil {
		return nil, err
	}
	return body.Stems, nil
}

func transcribeFile(ctx context.Context, in, out string, cfg transcribe.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stems, err := readSignals(in)
	if err != nil {
		return err
	}
	results, err := stem.TranscribeAll(ctx, stems, cfg, constants.GetWorkers())
	if err != nil {
		return err
	}

	if len(results) == 1 {
		if err := results[0].Err; err != nil {
			return err
		}
		return writeMidi(out, results[0])
	}

	if err := os.MkdirAll(out, 0777); err != nil {
		return errors.Wrapf(err, "creating %s", out)
	}
	var written int
	for _, res := range results {
		if !res.Success() {
			logrus.WithField("stem", res.Name).WithError(res.Err).Warn("stem transcription failed")
			continue
		}
		if err := writeMidi(filepath.Join(out, store.MidiFilename(res.Name)), res); err != nil {
			return err
		}
		written++
	}
	if written == 0 {
		return stem.NoNotes(results)
	}
	return nil
}

func writeMidi(path string, res stem.Result) error {
	if err := os.WriteFile(path, res.Midi, 0666); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	fmt.Printf("%s: %d notes (%d onsets, %d pitch samples, %.2f notes/s) -> %s\n",
		res.Name, res.NumNotes(), res.OnsetsDetected, res.PitchDetected, res.NoteDensity(), path)
	return nil
}
