//go:build !integration

package media

import "testing"

func TestIsVideoContainerFile(t *testing.T) {
	cases := map[string]bool{
		"clip.mp4":    true,
		"CLIP.MKV":    true,
		"talk.webm":   true,
		"holiday.mov": true,
		"old.avi":     true,
		"tape.mpeg":   true,
		"tape.MPG":    true,
		"stream.ts":   true,
		"camera.mts":  true,
		"disc.m2ts":   true,
		"dvd.VOB":     true,
		"track.m4a":   false,
		"track.flac":  false,
		"song.mp3":    false,
		"voice.wav":   false,
		"noextension": false,
		"archive.zip": false,
		"weird.name.": false,
	}
	for name, want := range cases {
		if got := IsVideoContainerFile(name); got != want {
			t.Errorf("IsVideoContainerFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestResolutionHeight(t *testing.T) {
	want := map[Resolution]int{R144: 144, R240: 240, R360: 360, R480: 480, R720: 720, R1080: 1080, R1440: 1440, R2160: 2160}
	for r, h := range want {
		got, ok := r.Height()
		if !ok || got != h {
			t.Errorf("%s: got (%d, %v), want %d", r, got, ok, h)
		}
	}
	if _, ok := ResolutionSource.Height(); ok {
		t.Error("source must not map to a height")
	}
	if !Resolution("").IsSource() {
		t.Error("empty resolution should be treated as source")
	}
}

func TestMediaTypeGroups(t *testing.T) {
	for _, m := range []MediaType{MP3, AAC, M4A, WAV, FLAC, OGG} {
		if !m.IsAudio() || m.IsVideo() || !m.Known() {
			t.Errorf("%s should be a known audio target", m)
		}
	}
	for _, m := range []MediaType{MP4, MKV, WEBM, MOV, AVI} {
		if !m.IsVideo() || m.IsAudio() || !m.Known() {
			t.Errorf("%s should be a known video container", m)
		}
	}
	if MediaType("wma").Known() {
		t.Error("wma must be unknown")
	}
	if !WAV.IsLossless() || !FLAC.IsLossless() || MP3.IsLossless() {
		t.Error("unexpected lossless classification")
	}
}

func TestContainerAllows(t *testing.T) {
	cases := []struct {
		c     MediaType
		v     VideoCodec
		a     AudioCodec
		allow bool
	}{
		{MP4, H264, AudioAAC, true},
		{MP4, VideoSource, AudioSource, true},
		{MP4, VP9, AudioAAC, false},
		{MP4, AV1, AudioAAC, false},
		{MP4, H265, AudioFLAC, false},
		{MP4, H265, DTS, false},
		{WEBM, VP9, Opus, true},
		{WEBM, AV1, AudioSource, true},
		{WEBM, VideoSource, Opus, true},
		{WEBM, H264, Opus, false},
		{WEBM, VP9, AudioAAC, false},
		{MKV, VP9, DTS, true},
	}
	for _, tc := range cases {
		got := ContainerAllows(tc.c, tc.v, tc.a) == ""
		if got != tc.allow {
			t.Errorf("%s/%s/%s: allowed=%v, want %v", tc.c, tc.v, tc.a, got, tc.allow)
		}
	}
}

func TestChannelCount(t *testing.T) {
	if Stereo.Count() != 2 || Mono.Count() != 1 {
		t.Fatal("unexpected channel counts")
	}
}
