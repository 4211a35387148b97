package api

import (
	"media-job-intake/internal/domain/media"
	"media-job-intake/internal/domain/model"
)

type sourceFields struct {
	StorageID   string `json:"storageId"`
	FileName    string `json:"fileName"`
	Duration    string `json:"duration"`
	ToMediaType string `json:"toMediaType"`
}

func (s sourceFields) source() model.Source {
	return model.Source{
		StorageID:   s.StorageID,
		FileName:    s.FileName,
		Duration:    s.Duration,
		ToMediaType: s.ToMediaType,
	}
}

type audioRequest struct {
	sourceFields
	Bitrate     int    `json:"bitrate"`
	ChannelType string `json:"channelType"`
	SampleRate  int    `json:"sampleRate"`
}

func (r audioRequest) toModel() model.ConvertRequest {
	return model.NewAudioRequest(r.source(), model.AudioOptions{
		Bitrate:     r.Bitrate,
		ChannelType: media.ChannelType(r.ChannelType),
		SampleRate:  r.SampleRate,
	})
}

type videoRequest struct {
	sourceFields
	VideoCodec    string `json:"videoCodec"`
	AudioCodec    string `json:"audioCodec"`
	EncoderPreset string `json:"encoderPreset"`
	CRF           int    `json:"crf"`
	FrameRate     int    `json:"frameRate"`
	Resolution    string `json:"resolution"`
}

func (r videoRequest) toModel() model.ConvertRequest {
	return model.NewVideoRequest(r.source(), model.VideoOptions{
		VideoCodec:    media.VideoCodec(r.VideoCodec),
		AudioCodec:    media.AudioCodec(r.AudioCodec),
		EncoderPreset: media.EncoderPreset(r.EncoderPreset),
		CRF:           r.CRF,
		FrameRate:     r.FrameRate,
		Resolution:    media.Resolution(r.Resolution),
	})
}

type gifRequest struct {
	sourceFields
	StartTimeSeconds int    `json:"startTimeSeconds"`
	DurationSeconds  int    `json:"durationSeconds"`
	FPS              int    `json:"fps"`
	Resolution       string `json:"resolution"`
}

func (r gifRequest) toModel() model.ConvertRequest {
	return model.NewGifRequest(r.source(), model.GifOptions{
		StartSeconds:    r.StartTimeSeconds,
		DurationSeconds: r.DurationSeconds,
		FPS:             r.FPS,
		Resolution:      media.Resolution(r.Resolution),
	})
}
