package compose

import "github.com/maauso/mediacompose-api/internal/failure"

// Quality is the vertical resolution class of a render.
type Quality string

// Supported qualities.
const (
	Quality720  Quality = "720"
	Quality1080 Quality = "1080"
)

// AspectRatio is the output frame shape.
type AspectRatio string

// Supported aspect ratios.
const (
	Aspect16x9 AspectRatio = "16:9"
	Aspect9x16 AspectRatio = "9:16"
	Aspect1x1  AspectRatio = "1:1"
)

// Resolution is an output frame size in pixels.
type Resolution struct {
	Width  int
	Height int
}

var resolutions = map[Quality]map[AspectRatio]Resolution{
	Quality720: {
		Aspect16x9: {Width: 1280, Height: 720},
		Aspect9x16: {Width: 720, Height: 1280},
		Aspect1x1:  {Width: 720, Height: 720},
	},
	Quality1080: {
		Aspect16x9: {Width: 1920, Height: 1080},
		Aspect9x16: {Width: 1080, Height: 1920},
		Aspect1x1:  {Width: 1080, Height: 1080},
	},
}

// Resolve looks up the canonical resolution for a quality and aspect ratio.
func Resolve(q Quality, a AspectRatio) (Resolution, error) {
	byAspect, ok := resolutions[q]
	if !ok {
		return Resolution{}, failure.Validation("unsupported quality %q", q)
	}
	r, ok := byAspect[a]
	if !ok {
		return Resolution{}, failure.Validation("unsupported aspect ratio %q", a)
	}
	return r, nil
}
