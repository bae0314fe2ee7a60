// Package media provides probing and ffmpeg-backed rendering of video,
// audio and still-image inputs into normalized outputs.
package media

import "context"

// Info describes a probed media file.
type Info struct {
	// Duration is the container duration in seconds.
	Duration float64
	// HasAudio reports whether the file carries at least one audio stream.
	HasAudio bool
}

// Clip is a local video input for a crossfade merge.
type Clip struct {
	Path     string
	Duration float64
	HasAudio bool
}

// MergeSpec describes a crossfade merge of clips into one output.
type MergeSpec struct {
	// Clips are joined in slice order.
	Clips []Clip
	// Width and Height are the canonical output resolution.
	Width  int
	Height int
	// Transition is the crossfade length in seconds at every clip boundary.
	Transition float64
	// Output is the destination file path.
	Output string
}

// Slide is one still image shown for Duration seconds.
type Slide struct {
	Path     string
	Duration float64
}

// SlideshowSpec describes a still-image background muxed with an audio track.
type SlideshowSpec struct {
	Slides    []Slide
	AudioPath string
	Width     int
	Height    int
	// Duration is the exact output length in seconds.
	Duration float64
	Output   string
}

// LoopSpec describes a looping video background muxed with an audio track.
// Audio carried by the background videos is never mapped to the output.
type LoopSpec struct {
	// Videos are concatenated in slice order to form one background pass.
	Videos []string
	// Passes is how many times the full sequence is played (>= 1).
	Passes    int
	AudioPath string
	Width     int
	Height    int
	// Duration is the exact output length in seconds; the last pass is trimmed.
	Duration float64
	Output   string
}

// Prober reports duration and audio presence of a local media file.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// Processor defines the rendering operations used by the composition engine.
// Implementations should use ffmpeg or similar tools for media manipulation.
type Processor interface {
	Prober

	// MergeClips scales and pads every clip to the target resolution without
	// cropping and joins them in order with a video and audio crossfade.
	MergeClips(ctx context.Context, spec MergeSpec) error

	// RenderSlideshow shows every slide in order for its duration and muxes
	// the result with the audio track.
	RenderSlideshow(ctx context.Context, spec SlideshowSpec) error

	// RenderVideoLoop concatenates the muted background videos, repeats the
	// sequence and trims it to the audio track's duration.
	RenderVideoLoop(ctx context.Context, spec LoopSpec) error
}
