package stem

import (
	"context"
	"errors"

	"github.com/jsphweid/midicom/model"
	"github.com/jsphweid/midicom/transcribe"
	"golang.org/x/sync/errgroup"
)

type Input = model.StemSignals

type Result struct {
	Name string
	transcribe.Result

	// set when the stem produced no timeline, e.g. no notes were detected
	Err error
}

func (r Result) Success() bool {
	return r.Err == nil
}

func (r Result) Summary() model.StemSummary {
	s := model.StemSummary{
		Success:        r.Success(),
		OnsetsDetected: r.OnsetsDetected,
		PitchDetected:  r.PitchDetected,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
		return s
	}
	s.NumNotes = r.NumNotes()
	s.Duration = r.Timeline.Duration
	s.NoteDensity = r.NoteDensity()
	return s
}

// TranscribeAll transcribes every stem independently, at most limit at a
// time, and returns the results in input order. A stem without notes does not
// fail the others; its Result carries the error instead. Only cancellation of
// ctx or an invalid config aborts the whole run.
func TranscribeAll(ctx context.Context, inputs []Input, cfg transcribe.Config, limit int) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stemCfg := cfg
			stemCfg.TrackName = in.Name
			res, err := transcribe.TranscribeToMidi(in.Onsets, in.Pitches, stemCfg)
			if err != nil && !errors.Is(err, transcribe.ErrNoNotesDetected) {
				return err
			}
			results[i] = Result{Name: in.Name, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// NoNotes reports a run in which no stem produced notes, with the onset and
// pitch sample counts summed over every stem.
func NoNotes(results []Result) *transcribe.NoNotesError {
	err := &transcribe.NoNotesError{}
	for _, r := range results {
		err.Onsets += r.OnsetsDetected
		err.PitchSamples += r.PitchDetected
	}
	return err
}

// Merge combines the successful stems into one timeline, one track per stem,
// keeping the order of results.
func Merge(results []Result) model.Timeline {
	tracks := make([]model.Track, 0, len(results))
	for _, r := range results {
		if !r.Success() {
			continue
		}
		for _, t := range r.Timeline.Tracks {
			t.Stem = r.Name
			tracks = append(tracks, t)
		}
	}
	return model.Timeline{
		Duration:     model.TotalDuration(tracks),
		Tracks:       tracks,
		BPM:          transcribe.BPM,
		TicksPerBeat: transcribe.TicksPerBeat,
	}
}
