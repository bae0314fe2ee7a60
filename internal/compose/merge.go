package compose

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/maauso/mediacompose-api/internal/failure"
	"github.com/maauso/mediacompose-api/internal/media"
)

// MergedDuration returns the length of clips joined with a
// TransitionSeconds crossfade at every boundary.
func MergedDuration(durations []float64) float64 {
	if len(durations) == 0 {
		return 0
	}
	var sum float64
	for _, d := range durations {
		sum += d
	}
	return sum - float64(len(durations)-1)*TransitionSeconds
}

func (e *Engine) merge(ctx context.Context, req MergeRequest, workDir string) (Output, error) {
	res, err := Resolve(req.Quality, req.AspectRatio)
	if err != nil {
		return Output{}, err
	}
	if len(req.VideoURLs) < 2 {
		return Output{}, failure.Validation("at least 2 video URLs are required, got %d", len(req.VideoURLs))
	}

	paths, err := e.fetchAll(ctx, req.VideoURLs, workDir, "clip", ".mp4")
	if err != nil {
		return Output{}, err
	}

	clips := make([]media.Clip, len(paths))
	durations := make([]float64, len(paths))
	var total float64
	for i, p := range paths {
		info, err := e.processor.Probe(ctx, p)
		if err != nil {
			return Output{}, failure.Acquisition(err, "probe clip %d", i+1)
		}
		clips[i] = media.Clip{Path: p, Duration: info.Duration, HasAudio: info.HasAudio}
		durations[i] = info.Duration
		total += info.Duration
	}

	if total > MaxDurationSeconds {
		return Output{}, failure.Validation("total duration %.2fs exceeds maximum of %.0fs", total, MaxDurationSeconds)
	}
	for i, c := range clips {
		if c.Duration <= TransitionSeconds {
			return Output{}, failure.Composition(nil,
				"clip %d lasts %.2fs, must be longer than the %.1fs transition", i+1, c.Duration, TransitionSeconds)
		}
	}

	e.logger.Debug("merging clips",
		slog.Int("clips", len(clips)),
		slog.Float64("input_seconds", total),
		slog.Int("width", res.Width),
		slog.Int("height", res.Height),
	)

	output := filepath.Join(workDir, "merged.mp4")
	err = e.processor.MergeClips(ctx, media.MergeSpec{
		Clips:      clips,
		Width:      res.Width,
		Height:     res.Height,
		Transition: TransitionSeconds,
		Output:     output,
	})
	if err != nil {
		return Output{}, failure.Composition(err, "merge clips")
	}

	return Output{
		Path:            output,
		DurationSeconds: MergedDuration(durations),
		InputCount:      len(clips),
	}, nil
}
