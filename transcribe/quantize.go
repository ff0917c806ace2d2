package transcribe

import (
	"math"

	"github.com/jsphweid/midicom/model"
)

// tolerates float noise when a length sits exactly on the minimum or the grid
const gridEpsilon = 1e-9

// Quantize snaps note starts and ends to a grid of quantizeMs milliseconds.
// A note left shorter than minDuration is stretched to the first grid line at
// least minDuration after its start, so quantizing twice changes nothing.
func Quantize(notes []model.Note, quantizeMs int, minDuration float64) []model.Note {
	res := make([]model.Note, len(notes))
	copy(res, notes)
	if quantizeMs <= 0 {
		return res
	}

	grid := float64(quantizeMs) / 1000
	minSteps := math.Ceil(minDuration/grid - gridEpsilon)
	for i, n := range res {
		startSteps := math.Round(n.Start / grid)
		steps := math.Round(n.End()/grid) - startSteps
		if steps*grid < minDuration-gridEpsilon {
			steps = minSteps
		}
		res[i].Start = startSteps * grid
		res[i].Duration = steps * grid
	}
	return res
}
