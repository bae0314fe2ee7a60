package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Output encoding shared by every render so normalized pieces can be joined.
const (
	FrameRate       = 30
	PixelFormat     = "yuv420p"
	VideoCodec      = "libx264"
	VideoPreset     = "medium"
	VideoCRF        = "23"
	AudioCodec      = "aac"
	AudioBitrate    = "128k"
	AudioSampleRate = 44100
)

// normalizeFilter scales to fit within w x h keeping the source aspect ratio,
// then pads with black bars to exactly w x h. It never crops.
func normalizeFilter(w, h int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,setsar=1,fps=%d,format=%s",
		w, h, w, h, FrameRate, PixelFormat,
	)
}

// audioNormalizeFilter brings every audio branch to the same sample layout.
func audioNormalizeFilter() string {
	return fmt.Sprintf("aformat=sample_fmts=fltp:sample_rates=%d:channel_layouts=stereo", AudioSampleRate)
}

// seconds formats a duration for ffmpeg arguments.
func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// encodeArgs returns the video/audio encoder arguments.
func encodeArgs() []string {
	return []string{
		"-c:v", VideoCodec,
		"-preset", VideoPreset,
		"-crf", VideoCRF,
		"-pix_fmt", PixelFormat,
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-movflags", "+faststart",
	}
}

// mergeFilterGraph builds the filter_complex for a crossfade merge.
//
// Clip i is normalized to [v{i}] and [a{i}]. The xfade for boundary i starts at
// sum(d[0..i-1]) - i*t, so the merged length is sum(d) - (n-1)*t.
// Clips without audio get a generated silent branch of the same length.
func mergeFilterGraph(spec MergeSpec) string {
	n := len(spec.Clips)
	t := spec.Transition
	parts := make([]string, 0, 4*n)

	for i := range spec.Clips {
		parts = append(parts, fmt.Sprintf("[%d:v]%s[v%d]", i, normalizeFilter(spec.Width, spec.Height), i))
	}

	for i, c := range spec.Clips {
		if c.HasAudio {
			parts = append(parts, fmt.Sprintf("[%d:a]%s,atrim=0:%s,asetpts=PTS-STARTPTS[a%d]",
				i, audioNormalizeFilter(), seconds(c.Duration), i))
			continue
		}
		parts = append(parts, fmt.Sprintf("anullsrc=r=%d:cl=stereo,%s,atrim=0:%s,asetpts=PTS-STARTPTS[a%d]",
			AudioSampleRate, audioNormalizeFilter(), seconds(c.Duration), i))
	}

	prevV, prevA := "v0", "a0"
	elapsed := spec.Clips[0].Duration
	for i := 1; i < n; i++ {
		offset := elapsed - float64(i)*t
		outV, outA := fmt.Sprintf("vx%d", i), fmt.Sprintf("ax%d", i)
		if i == n-1 {
			outV, outA = "outv", "outa"
		}
		parts = append(parts,
			fmt.Sprintf("[%s][v%d]xfade=transition=fade:duration=%s:offset=%s[%s]",
				prevV, i, seconds(t), seconds(offset), outV),
			fmt.Sprintf("[%s][a%d]acrossfade=d=%s:c1=tri:c2=tri[%s]",
				prevA, i, seconds(t), outA),
		)
		prevV, prevA = outV, outA
		elapsed += spec.Clips[i].Duration
	}

	return strings.Join(parts, ";")
}

// globalArgs starts every render invocation. The banner and progress output
// are suppressed so stderr carries only the error lines.
func globalArgs() []string {
	return []string{"-y", "-hide_banner", "-loglevel", "error"}
}

// mergeArgs returns the full ffmpeg argument list for MergeClips.
func mergeArgs(spec MergeSpec) []string {
	args := globalArgs()
	for _, c := range spec.Clips {
		args = append(args, "-i", c.Path)
	}
	args = append(args,
		"-filter_complex", mergeFilterGraph(spec),
		"-map", "[outv]",
		"-map", "[outa]",
	)
	args = append(args, encodeArgs()...)
	return append(args, spec.Output)
}

// slideshowArgs returns the ffmpeg argument list for RenderSlideshow.
// Slide i is input i, the audio track is input len(slides).
func slideshowArgs(spec SlideshowSpec) []string {
	n := len(spec.Slides)
	args := globalArgs()
	for _, s := range spec.Slides {
		args = append(args, "-loop", "1", "-t", seconds(s.Duration), "-i", s.Path)
	}
	args = append(args, "-i", spec.AudioPath)

	parts := make([]string, 0, n+1)
	var concatIn strings.Builder
	for i := range spec.Slides {
		parts = append(parts, fmt.Sprintf("[%d:v]%s[v%d]", i, normalizeFilter(spec.Width, spec.Height), i))
		fmt.Fprintf(&concatIn, "[v%d]", i)
	}
	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[outv]", concatIn.String(), n))

	args = append(args,
		"-filter_complex", strings.Join(parts, ";"),
		"-map", "[outv]",
		"-map", fmt.Sprintf("%d:a:0", n),
	)
	args = append(args, encodeArgs()...)
	return append(args, "-t", seconds(spec.Duration), spec.Output)
}

// sequenceArgs returns the ffmpeg argument list that normalizes and
// concatenates background videos into one muted pass.
func sequenceArgs(videos []string, w, h int, output string) []string {
	args := globalArgs()
	for _, v := range videos {
		args = append(args, "-i", v)
	}

	parts := make([]string, 0, len(videos)+1)
	var concatIn strings.Builder
	for i := range videos {
		parts = append(parts, fmt.Sprintf("[%d:v]%s[v%d]", i, normalizeFilter(w, h), i))
		fmt.Fprintf(&concatIn, "[v%d]", i)
	}
	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[outv]", concatIn.String(), len(videos)))

	return append(args,
		"-filter_complex", strings.Join(parts, ";"),
		"-map", "[outv]",
		"-an",
		"-c:v", VideoCodec,
		"-preset", VideoPreset,
		"-crf", VideoCRF,
		"-pix_fmt", PixelFormat,
		output,
	)
}

// loopMuxArgs returns the ffmpeg argument list that repeats the background
// sequence, maps only the external audio track and trims to duration.
func loopMuxArgs(sequence string, passes int, audioPath string, duration float64, output string) []string {
	args := append(globalArgs(),
		"-stream_loop", strconv.Itoa(passes-1),
		"-i", sequence,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
	)
	args = append(args, encodeArgs()...)
	return append(args, "-t", seconds(duration), output)
}
