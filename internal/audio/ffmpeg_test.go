package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// checkFFmpeg skips test if ffmpeg is not available.
func checkFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
}

// createTestTone creates a sine tone with the given sample rate and channel count.
func createTestTone(t *testing.T, outputPath string, durationSec float64, sampleRate, channels int) {
	t.Helper()

	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi", "-i", fmt.Sprintf("sine=frequency=440:duration=%.3f", durationSec),
		"-ar", fmt.Sprint(sampleRate), "-ac", fmt.Sprint(channels),
		outputPath,
	)
	stderr, _ := cmd.CombinedOutput()
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Fatalf("failed to create test tone: %s", string(stderr))
	}
}

func TestFFmpegConcatenator_Concat(t *testing.T) {
	checkFFmpeg(t)

	tmpDir := t.TempDir()
	first := filepath.Join(tmpDir, "first.wav")
	second := filepath.Join(tmpDir, "second.mp3")
	createTestTone(t, first, 3, 16000, 1)
	createTestTone(t, second, 2, 44100, 2)

	output := filepath.Join(tmpDir, "out", "narration.m4a")
	c := NewFFmpegConcatenator("")

	duration, err := c.Concat(context.Background(), []string{first, second}, output)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}

	if duration < 4.8 || duration > 5.3 {
		t.Errorf("expected ~5s, got %.3f", duration)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestFFmpegConcatenator_SingleTrack(t *testing.T) {
	checkFFmpeg(t)

	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "only.wav")
	createTestTone(t, in, 2, 44100, 2)

	c := NewFFmpegConcatenator("")
	duration, err := c.Concat(context.Background(), []string{in}, filepath.Join(tmpDir, "narration.m4a"))
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if duration < 1.8 || duration > 2.3 {
		t.Errorf("expected ~2s, got %.3f", duration)
	}
}

func TestFFmpegConcatenator_ContextCancellation(t *testing.T) {
	checkFFmpeg(t)

	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "test.wav")
	createTestTone(t, in, 5, 16000, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewFFmpegConcatenator("")
	if _, err := c.Concat(ctx, []string{in}, filepath.Join(tmpDir, "out.m4a")); err == nil {
		t.Error("expected error with cancelled context")
	}
}

func TestFFmpegConcatenator_NoTracks(t *testing.T) {
	c := NewFFmpegConcatenator("")
	if _, err := c.Concat(context.Background(), nil, "/tmp/out.m4a"); err != ErrNoTracks {
		t.Errorf("expected ErrNoTracks, got %v", err)
	}
}

func TestFFmpegConcatenator_NonExistentFile(t *testing.T) {
	c := NewFFmpegConcatenator("")
	_, err := c.Concat(context.Background(), []string{"/nonexistent/file.wav"}, "/tmp/out.m4a")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestConcatArgs(t *testing.T) {
	args := concatArgs([]string{"a.mp3", "b.wav", "c.m4a"}, "out.m4a")
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-i a.mp3 -i b.wav -i c.m4a") {
		t.Errorf("inputs not in order: %s", joined)
	}
	if !strings.Contains(joined, "[0:a:0][1:a:0][2:a:0]concat=n=3:v=0:a=1[outa]") {
		t.Errorf("unexpected filter graph: %s", joined)
	}
	if !strings.Contains(joined, "-c:a aac") {
		t.Errorf("expected AAC re-encode: %s", joined)
	}
	if !strings.HasPrefix(joined, "-y -hide_banner -loglevel error ") {
		t.Errorf("expected quiet stderr flags first: %s", joined)
	}
	if strings.Contains(joined, "acrossfade") {
		t.Errorf("tracks must not crossfade: %s", joined)
	}
	if args[len(args)-1] != "out.m4a" {
		t.Errorf("output should be last argument, got %s", args[len(args)-1])
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{
			name:   "centiseconds",
			output: "Input #0, wav, from 'a.wav':\n  Duration: 00:01:05.50, bitrate: 256 kb/s\n",
			want:   65.5,
		},
		{
			name:   "hours",
			output: "  Duration: 01:00:00.25, start: 0.000000",
			want:   3600.25,
		},
		{
			name:   "first input wins",
			output: "  Duration: 00:00:10.00\n  Duration: 00:00:20.00\n",
			want:   10,
		},
		{
			name:    "no duration",
			output:  "/nonexistent.wav: No such file or directory",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestNewFFmpegConcatenator_DefaultPath(t *testing.T) {
	c := NewFFmpegConcatenator("")
	if c.ffmpegPath != "ffmpeg" {
		t.Errorf("expected default path 'ffmpeg', got '%s'", c.ffmpegPath)
	}
}

func TestNewFFmpegConcatenator_CustomPath(t *testing.T) {
	c := NewFFmpegConcatenator("/custom/path/ffmpeg")
	if c.ffmpegPath != "/custom/path/ffmpeg" {
		t.Errorf("expected custom path, got '%s'", c.ffmpegPath)
	}
}
