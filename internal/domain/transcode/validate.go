// Package transcode validates conversion requests and compiles them into ffmpeg
// argument lines for the worker tier.
package transcode

import (
	"fmt"
	"strings"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/media"
	"media-job-intake/internal/domain/model"
)

// Validate accepts a request or returns a *domain.ValidationError with the reason.
func Validate(req model.ConvertRequest) error {
	if strings.TrimSpace(req.StorageID) == "" {
		return domain.NewValidationError("Missing storage id")
	}
	if !req.ToMediaType.Known() {
		return domain.NewValidationError("Unsupported media type")
	}
	switch req.Kind {
	case model.KindAudio:
		if req.Audio == nil {
			return domain.NewValidationError("Missing audio options")
		}
		return validateAudio(req.ToMediaType, *req.Audio)
	case model.KindVideo:
		if req.Video == nil {
			return domain.NewValidationError("Missing video options")
		}
		return validateVideo(req.ToMediaType, *req.Video)
	case model.KindGif:
		if req.Gif == nil {
			return domain.NewValidationError("Missing gif options")
		}
		return validateGif(req.ToMediaType, *req.Gif)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownRequestKind, req.Kind)
	}
}

func validateAudio(target media.MediaType, o model.AudioOptions) error {
	if !target.IsAudio() {
		return domain.NewValidationError("Unsupported media type")
	}
	if !o.ChannelType.Known() {
		return domain.NewValidationError("Unsupported channel type")
	}
	if !media.IsAllowedBitrate(o.Bitrate) {
		return domain.NewValidationError("Unsupported bitrate")
	}
	if o.SampleRate <= 0 {
		return domain.NewValidationError("Unsupported sample rate")
	}
	return nil
}

func validateVideo(target media.MediaType, o model.VideoOptions) error {
	if !target.IsVideo() {
		return domain.NewValidationError("Unsupported media type")
	}
	if !o.VideoCodec.Known() {
		return domain.NewValidationError("Unsupported video codec")
	}
	if !o.AudioCodec.Known() {
		return domain.NewValidationError("Unsupported audio codec")
	}
	if !o.EncoderPreset.Known() {
		return domain.NewValidationError("Unsupported encoder preset")
	}
	if !o.Resolution.Known() && o.Resolution != "" {
		return domain.NewValidationError("Unsupported resolution")
	}
	if o.CRF < 0 || o.CRF > media.MaxCRF {
		return domain.NewValidationError(fmt.Sprintf("CRF must be between 0 and %d", media.MaxCRF))
	}
	if o.FrameRate < 0 || o.FrameRate > media.MaxFrameRate {
		return domain.NewValidationError(fmt.Sprintf("Frame rate must be between 0 and %d", media.MaxFrameRate))
	}
	if o.VideoCodec == media.VideoSource {
		if o.FrameRate > 0 {
			return domain.NewValidationError("cannot change frame rate when codec is source")
		}
		if !o.Resolution.IsSource() {
			return domain.NewValidationError("cannot change resolution when codec is source")
		}
	}
	if reason := media.ContainerAllows(target, o.VideoCodec, o.AudioCodec); reason != "" {
		return domain.NewValidationError(reason)
	}
	return nil
}

func validateGif(target media.MediaType, o model.GifOptions) error {
	if target != media.GIF {
		return domain.NewValidationError("Unsupported media type")
	}
	if !o.Resolution.Known() && o.Resolution != "" {
		return domain.NewValidationError("Unsupported resolution")
	}
	if o.FPS < 0 || o.FPS > media.MaxFrameRate {
		return domain.NewValidationError(fmt.Sprintf("FPS must be between 0 and %d", media.MaxFrameRate))
	}
	if o.StartSeconds < 0 {
		return domain.NewValidationError("Start time cannot be negative")
	}
	if o.DurationSeconds <= 0 {
		return domain.NewValidationError("Duration must be greater than zero")
	}
	return nil
}
