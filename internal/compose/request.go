package compose

// Kind names a composition variant.
type Kind string

// Composition variants.
const (
	KindClipMerge Kind = "clip_merge"
	KindLongform  Kind = "longform"
)

// Request is a composition request. It is implemented only by MergeRequest
// and LongformRequest.
type Request interface {
	Kind() Kind
	sealed()
}

// MergeRequest joins ordered clips with crossfades.
type MergeRequest struct {
	VideoURLs   []string
	Quality     Quality
	AspectRatio AspectRatio
}

// Kind implements Request.
func (MergeRequest) Kind() Kind { return KindClipMerge }
func (MergeRequest) sealed()    {}

// BackgroundType selects how a longform background is rendered.
type BackgroundType string

// Background types.
const (
	BackgroundImages BackgroundType = "images"
	BackgroundVideos BackgroundType = "videos"
)

// LongformRequest renders concatenated narration over a background. The
// aspect ratio is always 16:9.
type LongformRequest struct {
	AudioURLs      []string
	BackgroundType BackgroundType
	BackgroundURLs []string
	Quality        Quality
}

// Kind implements Request.
func (LongformRequest) Kind() Kind { return KindLongform }
func (LongformRequest) sealed()    {}

// Request size limits.
const (
	MinMergeClips       = 2
	MaxMergeClips       = 10
	MaxAudioTracks      = 30
	MaxBackgroundImages = 15
	MaxBackgroundVideos = 5
)

// MaxBackgrounds returns how many background URLs t accepts, or 0 for an
// unknown type.
func MaxBackgrounds(t BackgroundType) int {
	switch t {
	case BackgroundImages:
		return MaxBackgroundImages
	case BackgroundVideos:
		return MaxBackgroundVideos
	default:
		return 0
	}
}
