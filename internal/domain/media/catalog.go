// Package media holds the closed enumerations used by conversion requests and
// the compatibility rules between them.
package media

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

type MediaType string

const (
	MP3  MediaType = "mp3"
	AAC  MediaType = "aac"
	M4A  MediaType = "m4a"
	WAV  MediaType = "wav"
	FLAC MediaType = "flac"
	OGG  MediaType = "ogg"
	MP4  MediaType = "mp4"
	MKV  MediaType = "mkv"
	WEBM MediaType = "webm"
	MOV  MediaType = "mov"
	AVI  MediaType = "avi"
	GIF  MediaType = "gif"
)

var audioTargets = map[MediaType]bool{MP3: true, AAC: true, M4A: true, WAV: true, FLAC: true, OGG: true}
var videoTargets = map[MediaType]bool{MP4: true, MKV: true, WEBM: true, MOV: true, AVI: true}

func (m MediaType) Known() bool { return audioTargets[m] || videoTargets[m] || m == GIF }

func (m MediaType) IsAudio() bool { return audioTargets[m] }

func (m MediaType) IsVideo() bool { return videoTargets[m] }

// IsLossless reports whether a bitrate is meaningless for the target.
func (m MediaType) IsLossless() bool { return m == WAV || m == FLAC }

type ChannelType string

const (
	Mono   ChannelType = "MONO"
	Stereo ChannelType = "STEREO"
)

func (c ChannelType) Known() bool { return c == Mono || c == Stereo }

// Count maps the layout to an ffmpeg channel count.
func (c ChannelType) Count() int {
	if c == Stereo {
		return 2
	}
	return 1
}

// Source is the passthrough value shared by codec, preset and resolution enums.
const Source = "source"

type VideoCodec string

const (
	VideoSource VideoCodec = Source
	H264        VideoCodec = "h264"
	H265        VideoCodec = "h265"
	VP9         VideoCodec = "vp9"
	AV1         VideoCodec = "av1"
)

func (v VideoCodec) Known() bool {
	switch v {
	case VideoSource, H264, H265, VP9, AV1:
		return true
	}
	return false
}

type AudioCodec string

const (
	AudioSource AudioCodec = Source
	AudioAAC    AudioCodec = "aac"
	AC3         AudioCodec = "ac3"
	AudioFLAC   AudioCodec = "flac"
	DTS         AudioCodec = "dts"
	Opus        AudioCodec = "opus"
)

func (a AudioCodec) Known() bool {
	switch a {
	case AudioSource, AudioAAC, AC3, AudioFLAC, DTS, Opus:
		return true
	}
	return false
}

type EncoderPreset string

const PresetSource EncoderPreset = Source

var presets = map[EncoderPreset]bool{
	PresetSource: true, "ultrafast": true, "superfast": true, "veryfast": true, "faster": true,
	"fast": true, "medium": true, "slow": true, "slower": true, "veryslow": true,
}

func (p EncoderPreset) Known() bool { return presets[p] }

type Resolution string

const (
	ResolutionSource Resolution = Source
	R144             Resolution = "144p"
	R240             Resolution = "240p"
	R360             Resolution = "360p"
	R480             Resolution = "480p"
	R720             Resolution = "720p"
	R1080            Resolution = "1080p"
	R1440            Resolution = "1440p"
	R2160            Resolution = "2160p"
)

var heights = map[Resolution]int{
	R144: 144, R240: 240, R360: 360, R480: 480,
	R720: 720, R1080: 1080, R1440: 1440, R2160: 2160,
}

func (r Resolution) Known() bool {
	_, ok := heights[r]
	return ok || r == ResolutionSource
}

// IsSource treats an empty tier as "unchanged".
func (r Resolution) IsSource() bool { return r == ResolutionSource || r == "" }

// Height returns the fixed output height of a tier. Source has no height.
func (r Resolution) Height() (int, bool) {
	h, ok := heights[r]
	return h, ok
}

// AllowedBitrates lists the accepted audio bitrates in kbps.
var AllowedBitrates = []int{64, 96, 128, 192, 256, 320}

func IsAllowedBitrate(kbps int) bool {
	for _, b := range AllowedBitrates {
		if b == kbps {
			return true
		}
	}
	return false
}

const (
	MaxCRF       = 51
	MaxFrameRate = 240
)

// Broadcast and disc containers the filetype registry does not know.
var extraVideoContainers = map[string]bool{
	"mpeg": true, "mpg": true, "ts": true, "mts": true, "m2ts": true, "vob": true,
}

// IsVideoContainerFile reports whether the extension of name belongs to a
// known video container.
func IsVideoContainerFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	if extraVideoContainers[ext] {
		return true
	}
	return filetype.GetType(ext).MIME.Type == "video"
}

// ContainerAllows checks the codec pair against the target container.
// It returns the rejection reason, or "" when the pair is allowed.
func ContainerAllows(container MediaType, v VideoCodec, a AudioCodec) string {
	switch container {
	case MP4:
		if v == VP9 || v == AV1 {
			return "mp4 container does not support " + string(v) + " video"
		}
		if a == AudioFLAC || a == DTS {
			return "mp4 container does not support " + string(a) + " audio"
		}
	case WEBM:
		if v != VP9 && v != AV1 && v != VideoSource {
			return "webm container requires vp9, av1 or source video"
		}
		if a != Opus && a != AudioSource {
			return "webm container requires opus or source audio"
		}
	}
	return ""
}
