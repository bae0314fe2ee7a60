package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Static errors for media operations.
var (
	// ErrInvalidDimensions is returned when the provided dimensions are not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrNoInputs is returned when a render is requested without inputs.
	ErrNoInputs = errors.New("no input paths provided")
	// ErrTooFewClips is returned when a merge has fewer than two clips.
	ErrTooFewClips = errors.New("at least two clips are required")
	// ErrInvalidDuration is returned when duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
	// ErrNoDuration is returned when ffprobe reports no usable duration.
	ErrNoDuration = errors.New("could not determine media duration")
)

// Compile-time check that FFmpegProcessor implements Processor.
var _ Processor = (*FFmpegProcessor)(nil)

// FFmpegProcessor implements Processor using the ffmpeg and ffprobe CLIs.
type FFmpegProcessor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
// Empty paths default to "ffmpeg" and "ffprobe" (found via PATH).
func NewFFmpegProcessor(ffmpegPath, ffprobePath string) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Probe returns the duration and audio presence of a media file.
func (p *FFmpegProcessor) Probe(ctx context.Context, path string) (Info, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type",
		"-of", "default=noprint_wrappers=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Info{}, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return Info{}, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, strings.TrimSpace(stderr.String()))
	}

	return parseProbeOutput(stdout.String())
}

// parseProbeOutput reads "key=value" lines printed by ffprobe.
func parseProbeOutput(out string) (Info, error) {
	var info Info
	found := false

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "codec_type":
			if value == "audio" {
				info.HasAudio = true
			}
		case "duration":
			if value == "" || strings.EqualFold(value, "N/A") {
				continue
			}
			d, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Info{}, fmt.Errorf("parse duration %q: %w", value, err)
			}
			info.Duration = d
			found = true
		}
	}

	if !found {
		return Info{}, ErrNoDuration
	}
	return info, nil
}

// MergeClips joins clips in order with a crossfade of spec.Transition seconds.
func (p *FFmpegProcessor) MergeClips(ctx context.Context, spec MergeSpec) error {
	if len(spec.Clips) < 2 {
		return ErrTooFewClips
	}
	if err := checkDimensions(spec.Width, spec.Height); err != nil {
		return err
	}
	for i, c := range spec.Clips {
		if c.Duration <= spec.Transition {
			return fmt.Errorf("%w: clip %d lasts %.3fs, transition is %.3fs", ErrInvalidDuration, i, c.Duration, spec.Transition)
		}
	}
	return p.runFFmpeg(ctx, mergeArgs(spec))
}

// RenderSlideshow renders still images in order and muxes them with the audio track.
func (p *FFmpegProcessor) RenderSlideshow(ctx context.Context, spec SlideshowSpec) error {
	if len(spec.Slides) == 0 {
		return ErrNoInputs
	}
	if err := checkDimensions(spec.Width, spec.Height); err != nil {
		return err
	}
	if spec.Duration <= 0 {
		return fmt.Errorf("%w: got %.3f", ErrInvalidDuration, spec.Duration)
	}
	return p.runFFmpeg(ctx, slideshowArgs(spec))
}

// RenderVideoLoop renders a muted, looped background sequence muxed with the
// audio track. The intermediate sequence is written next to the output and
// removed afterwards.
func (p *FFmpegProcessor) RenderVideoLoop(ctx context.Context, spec LoopSpec) error {
	if len(spec.Videos) == 0 {
		return ErrNoInputs
	}
	if err := checkDimensions(spec.Width, spec.Height); err != nil {
		return err
	}
	if spec.Duration <= 0 {
		return fmt.Errorf("%w: got %.3f", ErrInvalidDuration, spec.Duration)
	}
	passes := spec.Passes
	if passes < 1 {
		passes = 1
	}

	sequence := filepath.Join(filepath.Dir(spec.Output), "background_sequence.mp4")
	defer func() { _ = os.Remove(sequence) }()

	if err := p.runFFmpeg(ctx, sequenceArgs(spec.Videos, spec.Width, spec.Height, sequence)); err != nil {
		return fmt.Errorf("build background sequence: %w", err)
	}
	if err := p.runFFmpeg(ctx, loopMuxArgs(sequence, passes, spec.AudioPath, spec.Duration, spec.Output)); err != nil {
		return fmt.Errorf("mux looped background: %w", err)
	}
	return nil
}

func checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, w, h)
	}
	return nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: tail(stderr.String(), 2000),
			Err:    err,
		}
	}

	return nil
}

// tail keeps the last n bytes of s; ffmpeg puts the useful part of a failure at the end.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

// Error leads with the last stderr line, which is where ffmpeg reports the
// cause, so it survives truncation of the persisted message.
func (e *FFmpegError) Error() string {
	if cause := lastLine(e.Stderr); cause != "" {
		return fmt.Sprintf("ffmpeg error: %s (%v)\nstderr: %s", cause, e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg error: %v", e.Err)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
