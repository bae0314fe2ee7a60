package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilter_PadsWithoutCropping(t *testing.T) {
	f := normalizeFilter(1280, 720)

	assert.Contains(t, f, "force_original_aspect_ratio=decrease")
	assert.Contains(t, f, "pad=1280:720:(ow-iw)/2:(oh-ih)/2:black")
	assert.Contains(t, f, "fps=30")
	assert.NotContains(t, f, "crop")
}

func TestMergeFilterGraph_Offsets(t *testing.T) {
	spec := MergeSpec{
		Clips: []Clip{
			{Path: "a.mp4", Duration: 10, HasAudio: true},
			{Path: "b.mp4", Duration: 8, HasAudio: true},
			{Path: "c.mp4", Duration: 6, HasAudio: true},
		},
		Width:      1280,
		Height:     720,
		Transition: 0.5,
	}

	graph := mergeFilterGraph(spec)

	// Boundaries start at 10-0.5 and 18-1.0.
	assert.Contains(t, graph, "[v0][v1]xfade=transition=fade:duration=0.500:offset=9.500[vx1]")
	assert.Contains(t, graph, "[vx1][v2]xfade=transition=fade:duration=0.500:offset=17.000[outv]")
	assert.Contains(t, graph, "[a0][a1]acrossfade=d=0.500:c1=tri:c2=tri[ax1]")
	assert.Contains(t, graph, "[ax1][a2]acrossfade=d=0.500:c1=tri:c2=tri[outa]")
	assert.NotContains(t, graph, "anullsrc")
}

func TestMergeFilterGraph_SilentClip(t *testing.T) {
	spec := MergeSpec{
		Clips: []Clip{
			{Path: "a.mp4", Duration: 4, HasAudio: true},
			{Path: "b.mp4", Duration: 3, HasAudio: false},
		},
		Width:      720,
		Height:     720,
		Transition: 0.5,
	}

	graph := mergeFilterGraph(spec)

	assert.Contains(t, graph, "[0:a]")
	assert.NotContains(t, graph, "[1:a]")
	assert.Contains(t, graph, "anullsrc=r=44100:cl=stereo")
	assert.Contains(t, graph, "atrim=0:3.000,asetpts=PTS-STARTPTS[a1]")
}

func TestMergeArgs(t *testing.T) {
	spec := MergeSpec{
		Clips:      []Clip{{Path: "a.mp4", Duration: 4}, {Path: "b.mp4", Duration: 4}},
		Width:      1920,
		Height:     1080,
		Transition: 0.5,
		Output:     "out.mp4",
	}

	args := mergeArgs(spec)

	require.NotEmpty(t, args)
	assert.Equal(t, "out.mp4", args[len(args)-1])
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i a.mp4 -i b.mp4")
	assert.Contains(t, joined, "-map [outv] -map [outa]")
	assert.Contains(t, joined, "-c:v libx264 -preset medium -crf 23")
	assert.Contains(t, joined, "-c:a aac -b:a 128k")
}

func TestSlideshowArgs(t *testing.T) {
	spec := SlideshowSpec{
		Slides:    []Slide{{Path: "one.png", Duration: 20}, {Path: "two.png", Duration: 20}},
		AudioPath: "narration.m4a",
		Width:     1280,
		Height:    720,
		Duration:  40,
		Output:    "out.mp4",
	}

	args := slideshowArgs(spec)
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-loop 1 -t 20.000 -i one.png")
	assert.Contains(t, joined, "-loop 1 -t 20.000 -i two.png")
	assert.Contains(t, joined, "-i narration.m4a")
	assert.Contains(t, joined, "[v0][v1]concat=n=2:v=1:a=0[outv]")
	assert.Contains(t, joined, "-map 2:a:0")
	assert.Contains(t, joined, "-t 40.000 out.mp4")
}

func TestSequenceArgs_Muted(t *testing.T) {
	args := sequenceArgs([]string{"a.mp4", "b.mp4"}, 1080, 1920, "seq.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "concat=n=2:v=1:a=0[outv]")
	assert.Contains(t, args, "-an")
	assert.NotContains(t, joined, "[0:a]")
	assert.Equal(t, "seq.mp4", args[len(args)-1])
}

func TestLoopMuxArgs(t *testing.T) {
	args := loopMuxArgs("seq.mp4", 4, "narration.m4a", 100, "out.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-stream_loop 3 -i seq.mp4")
	assert.Contains(t, joined, "-map 0:v:0 -map 1:a:0")
	assert.Contains(t, joined, "-t 100.000 out.mp4")
}

func TestRenderArgs_QuietStderr(t *testing.T) {
	builders := map[string][]string{
		"merge": mergeArgs(MergeSpec{
			Clips:  []Clip{{Path: "a.mp4", Duration: 5, HasAudio: true}},
			Width:  1920,
			Height: 1080,
			Output: "out.mp4",
		}),
		"slideshow": slideshowArgs(SlideshowSpec{
			Slides:    []Slide{{Path: "one.png", Duration: 10}},
			AudioPath: "narration.m4a",
			Width:     1280,
			Height:    720,
			Duration:  10,
			Output:    "out.mp4",
		}),
		"sequence": sequenceArgs([]string{"a.mp4"}, 1280, 720, "seq.mp4"),
		"loop":     loopMuxArgs("seq.mp4", 2, "narration.m4a", 30, "out.mp4"),
	}

	for name, args := range builders {
		t.Run(name, func(t *testing.T) {
			require.GreaterOrEqual(t, len(args), 4)
			assert.Equal(t, []string{"-y", "-hide_banner", "-loglevel", "error"}, args[:4])
		})
	}
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "0.500", seconds(0.5))
	assert.Equal(t, "7200.000", seconds(7200))
	assert.Equal(t, "33.333", seconds(100.0/3))
}
