package transcode

import (
	"fmt"
	"strconv"
	"strings"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/media"
	"media-job-intake/internal/domain/model"
)

const (
	defaultGifFPS        = 10
	defaultGifResolution = media.R480
	videoAudioBitrate    = "192k"
)

var audioEncoders = map[media.MediaType]string{
	media.MP3:  "libmp3lame",
	media.AAC:  "aac",
	media.M4A:  "aac",
	media.WAV:  "pcm_s16le",
	media.FLAC: "flac",
	media.OGG:  "libvorbis",
}

var videoEncoders = map[media.VideoCodec]string{
	media.H264: "libx264",
	media.H265: "libx265",
	media.VP9:  "libvpx-vp9",
	media.AV1:  "libaom-av1",
}

var streamAudioEncoders = map[media.AudioCodec]string{
	media.AudioAAC:  "aac",
	media.AC3:       "ac3",
	media.AudioFLAC: "flac",
	media.DTS:       "dca",
	media.Opus:      "libopus",
}

// Compile turns a validated request into the ffmpeg argument line run by a worker.
// Values the validator should have rejected yield domain.ErrCompile.
func Compile(req model.ConvertRequest, inputPath, outputPath string) (string, error) {
	var (
		args []string
		err  error
	)
	switch req.Kind {
	case model.KindAudio:
		if req.Audio == nil {
			return "", fmt.Errorf("%w: missing audio options", domain.ErrCompile)
		}
		args, err = audioArgs(req, *req.Audio, inputPath)
	case model.KindVideo:
		if req.Video == nil {
			return "", fmt.Errorf("%w: missing video options", domain.ErrCompile)
		}
		args, err = videoArgs(req.ToMediaType, *req.Video, inputPath)
	case model.KindGif:
		if req.Gif == nil {
			return "", fmt.Errorf("%w: missing gif options", domain.ErrCompile)
		}
		args, err = gifArgs(*req.Gif, inputPath)
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownRequestKind, req.Kind)
	}
	if err != nil {
		return "", err
	}
	args = append(args, outputPath)
	return strings.Join(args, " "), nil
}

func audioArgs(req model.ConvertRequest, o model.AudioOptions, in string) ([]string, error) {
	codec, ok := audioEncoders[req.ToMediaType]
	if !ok {
		return nil, fmt.Errorf("%w: no audio encoder for %q", domain.ErrCompile, req.ToMediaType)
	}
	args := []string{"-y", "-i", in, "-progress", "pipe:1"}
	if media.IsVideoContainerFile(req.FileName) {
		args = append(args, "-vn")
	}
	args = append(args, "-c:a", codec)
	if !req.ToMediaType.IsLossless() {
		args = append(args, "-ac", strconv.Itoa(o.ChannelType.Count()))
	}
	args = append(args, "-ar", strconv.Itoa(o.SampleRate))
	if !req.ToMediaType.IsLossless() {
		args = append(args, "-b:a", strconv.Itoa(o.Bitrate)+"k")
	}
	return args, nil
}

func videoArgs(container media.MediaType, o model.VideoOptions, in string) ([]string, error) {
	args := []string{"-y", "-i", in, "-progress", "pipe:1", "-map", "0:v:0", "-map", "0:a:0?"}

	if o.VideoCodec == media.VideoSource {
		args = append(args, "-c:v", "copy")
	} else {
		enc, ok := videoEncoders[o.VideoCodec]
		if !ok {
			return nil, fmt.Errorf("%w: no video encoder for %q", domain.ErrCompile, o.VideoCodec)
		}
		args = append(args, "-c:v", enc)
		x26x := o.VideoCodec == media.H264 || o.VideoCodec == media.H265
		if x26x && o.EncoderPreset != media.PresetSource {
			if !o.EncoderPreset.Known() {
				return nil, fmt.Errorf("%w: unknown preset %q", domain.ErrCompile, o.EncoderPreset)
			}
			args = append(args, "-preset", string(o.EncoderPreset))
		}
		if x26x && o.CRF > 0 {
			args = append(args, "-crf", strconv.Itoa(o.CRF))
		}
		if o.FrameRate > 0 {
			args = append(args, "-r", strconv.Itoa(o.FrameRate))
		}
		if !o.Resolution.IsSource() {
			h, ok := o.Resolution.Height()
			if !ok {
				return nil, fmt.Errorf("%w: unknown resolution %q", domain.ErrCompile, o.Resolution)
			}
			args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", h))
		}
		args = append(args, "-pix_fmt", "yuv420p")
	}

	if o.AudioCodec == media.AudioSource {
		args = append(args, "-c:a", "copy")
	} else {
		enc, ok := streamAudioEncoders[o.AudioCodec]
		if !ok {
			return nil, fmt.Errorf("%w: no audio encoder for %q", domain.ErrCompile, o.AudioCodec)
		}
		args = append(args, "-c:a", enc)
		if o.AudioCodec != media.AudioFLAC {
			args = append(args, "-b:a", videoAudioBitrate)
		}
	}

	if container == media.MP4 {
		args = append(args, "-movflags", "+faststart")
	}
	return args, nil
}

func gifArgs(o model.GifOptions, in string) ([]string, error) {
	args := []string{"-y"}
	if o.StartSeconds > 0 {
		args = append(args, "-ss", strconv.Itoa(o.StartSeconds))
	}
	args = append(args, "-i", in)
	if o.DurationSeconds > 0 {
		args = append(args, "-t", strconv.Itoa(o.DurationSeconds))
	}

	fps := o.FPS
	if fps <= 0 {
		fps = defaultGifFPS
	}
	res := o.Resolution
	if res.IsSource() {
		res = defaultGifResolution
	}
	h, ok := res.Height()
	if !ok {
		return nil, fmt.Errorf("%w: unknown resolution %q", domain.ErrCompile, o.Resolution)
	}

	graph := fmt.Sprintf(
		"fps=%d,scale=-1:%d:flags=lanczos,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse",
		fps, h,
	)
	args = append(args, "-progress", "pipe:1", "-filter_complex", graph, "-loop", "0")
	return args, nil
}
