package model

import (
	"media-job-intake/internal/domain/media"
)

type RequestKind string

const (
	KindAudio RequestKind = "audio"
	KindVideo RequestKind = "video"
	KindGif   RequestKind = "gif"
)

// ConvertRequest is a closed variant: Kind selects which of Audio, Video or Gif
// is set. Build it through the New*Request constructors.
type ConvertRequest struct {
	Kind        RequestKind
	StorageID   string
	FileName    string
	Duration    string
	ToMediaType media.MediaType

	Audio *AudioOptions
	Video *VideoOptions
	Gif   *GifOptions
}

type AudioOptions struct {
	Bitrate     int // kbps
	ChannelType media.ChannelType
	SampleRate  int // Hz
}

type VideoOptions struct {
	VideoCodec    media.VideoCodec
	AudioCodec    media.AudioCodec
	EncoderPreset media.EncoderPreset
	CRF           int
	FrameRate     int // 0 keeps the source rate
	Resolution    media.Resolution
}

type GifOptions struct {
	StartSeconds    int
	DurationSeconds int
	FPS             int
	Resolution      media.Resolution
}

// Source describes the input file shared by every request kind.
type Source struct {
	StorageID   string
	FileName    string
	Duration    string
	ToMediaType string
}

func (s Source) request(kind RequestKind) ConvertRequest {
	return ConvertRequest{
		Kind:        kind,
		StorageID:   s.StorageID,
		FileName:    s.FileName,
		Duration:    s.Duration,
		ToMediaType: media.MediaType(s.ToMediaType),
	}
}

func NewAudioRequest(src Source, opts AudioOptions) ConvertRequest {
	r := src.request(KindAudio)
	r.Audio = &opts
	return r
}

func NewVideoRequest(src Source, opts VideoOptions) ConvertRequest {
	r := src.request(KindVideo)
	r.Video = &opts
	return r
}

func NewGifRequest(src Source, opts GifOptions) ConvertRequest {
	r := src.request(KindGif)
	r.Gif = &opts
	return r
}

// IsVideo reports whether the produced output carries a video stream.
func (r ConvertRequest) IsVideo() bool { return r.Kind == KindVideo || r.Kind == KindGif }
