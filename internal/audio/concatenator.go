// Package audio joins narration tracks into the single audio track a
// longform render is timed against.
package audio

import "context"

// Concatenator joins audio files end to end.
type Concatenator interface {
	// Concat joins inputs in order into output, re-encoding to AAC so that
	// tracks with different codecs or sample rates can be combined. No
	// crossfade is applied between tracks.
	//
	// It returns the measured duration of output in seconds.
	Concat(ctx context.Context, inputs []string, output string) (float64, error)

	// Duration measures the length of an audio file in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}
