package compose

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/maauso/mediacompose-api/internal/failure"
	"github.com/maauso/mediacompose-api/internal/media"
)

// PlanSlides splits total seconds evenly over count slides. Slide i shows
// images[i % len(images)], and the last slide absorbs the rounding
// remainder so that the durations sum to total.
func PlanSlides(images []string, total float64, count int) []media.Slide {
	if len(images) == 0 || count <= 0 || total <= 0 {
		return nil
	}

	each := total / float64(count)
	slides := make([]media.Slide, count)
	var used float64
	for i := range slides {
		slides[i] = media.Slide{Path: images[i%len(images)], Duration: each}
		if i < count-1 {
			used += each
		}
	}
	slides[count-1].Duration = total - used
	return slides
}

// LoopPasses returns how many plays of a background sequence lasting
// sequence seconds are needed to cover target seconds. Probed durations come
// from the container, which can outlast the video stream, so one spare pass
// is added and the render trims the excess.
func LoopPasses(target, sequence float64) int {
	if sequence <= 0 || target <= 0 {
		return 1
	}
	return int(math.Ceil(target/sequence)) + 1
}

func (e *Engine) longform(ctx context.Context, req LongformRequest, workDir string) (Output, error) {
	res, err := Resolve(req.Quality, Aspect16x9)
	if err != nil {
		return Output{}, err
	}
	if len(req.AudioURLs) == 0 {
		return Output{}, failure.Validation("at least one audio URL is required")
	}
	if req.BackgroundType != BackgroundImages && req.BackgroundType != BackgroundVideos {
		return Output{}, failure.Validation("unsupported background source %q", req.BackgroundType)
	}

	audioPaths, err := e.fetchAll(ctx, req.AudioURLs, workDir, "audio", ".mp3")
	if err != nil {
		return Output{}, err
	}

	narration := filepath.Join(workDir, "narration.m4a")
	duration, err := e.concatenator.Concat(ctx, audioPaths, narration)
	if err != nil {
		return Output{}, failure.Composition(err, "concatenate audio")
	}
	if duration <= 0 {
		return Output{}, failure.Validation("concatenated audio has no duration")
	}
	if duration > MaxDurationSeconds {
		e.logger.Warn("audio exceeds maximum duration, truncating",
			slog.Float64("audio_seconds", duration),
			slog.Float64("max_seconds", MaxDurationSeconds),
		)
		duration = MaxDurationSeconds
	}

	if len(req.BackgroundURLs) == 0 {
		return Output{}, failure.Composition(ErrEmptyBackground, "longform background")
	}

	output := filepath.Join(workDir, "longform.mp4")

	switch req.BackgroundType {
	case BackgroundImages:
		images, err := e.fetchAll(ctx, req.BackgroundURLs, workDir, "image", ".jpg")
		if err != nil {
			return Output{}, err
		}
		err = e.processor.RenderSlideshow(ctx, media.SlideshowSpec{
			Slides:    PlanSlides(images, duration, len(images)),
			AudioPath: narration,
			Width:     res.Width,
			Height:    res.Height,
			Duration:  duration,
			Output:    output,
		})
		if err != nil {
			return Output{}, failure.Composition(err, "render image background")
		}

	case BackgroundVideos:
		videos, err := e.fetchAll(ctx, req.BackgroundURLs, workDir, "background", ".mp4")
		if err != nil {
			return Output{}, err
		}
		var sequence float64
		for i, v := range videos {
			info, err := e.processor.Probe(ctx, v)
			if err != nil {
				return Output{}, failure.Acquisition(err, "probe background video %d", i+1)
			}
			sequence += info.Duration
		}
		if sequence <= 0 {
			return Output{}, failure.Composition(nil, "background videos have no duration")
		}
		passes := LoopPasses(duration, sequence)
		e.logger.Debug("looping background videos",
			slog.Int("videos", len(videos)),
			slog.Float64("sequence_seconds", sequence),
			slog.Int("passes", passes),
		)
		err = e.processor.RenderVideoLoop(ctx, media.LoopSpec{
			Videos:    videos,
			Passes:    passes,
			AudioPath: narration,
			Width:     res.Width,
			Height:    res.Height,
			Duration:  duration,
			Output:    output,
		})
		if err != nil {
			return Output{}, failure.Composition(err, "render video background")
		}
	}

	return Output{
		Path:            output,
		DurationSeconds: duration,
		InputCount:      len(req.BackgroundURLs),
	}, nil
}
