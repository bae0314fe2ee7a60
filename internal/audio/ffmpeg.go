package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoTracks is returned when Concat is called without inputs.
var ErrNoTracks = errors.New("no audio tracks provided")

// durationRe matches the "Duration: HH:MM:SS.frac" line ffmpeg prints for an input.
var durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

// FFmpegConcatenator implements Concatenator using ffmpeg CLI.
type FFmpegConcatenator struct {
	ffmpegPath string
}

// NewFFmpegConcatenator creates a new FFmpegConcatenator.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH).
func NewFFmpegConcatenator(ffmpegPath string) *FFmpegConcatenator {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegConcatenator{ffmpegPath: ffmpegPath}
}

// Concat implements Concatenator.Concat using the concat audio filter.
func (c *FFmpegConcatenator) Concat(ctx context.Context, inputs []string, output string) (float64, error) {
	if len(inputs) == 0 {
		return 0, ErrNoTracks
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return 0, fmt.Errorf("input file does not exist: %s", in)
		}
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, c.ffmpegPath, concatArgs(inputs, output)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("ffmpeg error: %s (%w), stderr: %s",
			lastLines(stderr.String(), 1), err, lastLines(stderr.String(), 20))
	}

	duration, err := c.Duration(ctx, output)
	if err != nil {
		return 0, fmt.Errorf("measure concatenated audio: %w", err)
	}
	return duration, nil
}

// concatArgs builds the ffmpeg arguments joining inputs with the concat filter.
func concatArgs(inputs []string, output string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	var graph strings.Builder
	for i, in := range inputs {
		args = append(args, "-i", in)
		fmt.Fprintf(&graph, "[%d:a:0]", i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=0:a=1[outa]", len(inputs))

	return append(args,
		"-filter_complex", graph.String(),
		"-map", "[outa]",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", "44100",
		"-ac", "2",
		output,
	)
}

// Duration returns the duration of an audio file in seconds.
func (c *FFmpegConcatenator) Duration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-i", path,
		"-hide_banner",
		"-f", "null", "-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// ffmpeg writes duration info to stderr and exits non-zero for some inputs.
	_ = cmd.Run()
	if ctx.Err() != nil {
		return 0, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
	}

	return parseDuration(stderr.String())
}

// parseDuration extracts the first "Duration:" value from ffmpeg output.
func parseDuration(output string) (float64, error) {
	matches := durationRe.FindStringSubmatch(output)
	if len(matches) < 5 {
		return 0, fmt.Errorf("could not parse duration from ffmpeg output: %s", lastLines(output, 5))
	}

	hours, _ := strconv.ParseFloat(matches[1], 64)
	minutes, _ := strconv.ParseFloat(matches[2], 64)
	secs, _ := strconv.ParseFloat(matches[3], 64)
	frac, _ := strconv.ParseFloat("0."+matches[4], 64)

	return hours*3600 + minutes*60 + secs + frac, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Verify interface implementation at compile time.
var _ Concatenator = (*FFmpegConcatenator)(nil)
