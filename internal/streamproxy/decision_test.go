package streamproxy

import (
	"testing"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/profile"
)

func h264AacSource(container string) catalog.MediaSource {
	return catalog.MediaSource{
		Container: container,
		MediaStreams: []catalog.MediaStream{
			{Type: catalog.StreamVideo, Codec: "h264"},
			{Type: catalog.StreamAudio, Codec: "aac"},
		},
	}
}

func TestDecideNoProfileTranscodes(t *testing.T) {
	d := decide("SomeDevice/1.0", nil, h264AacSource("mp4"))
	if d.DirectPlay {
		t.Error("expected no profile to force transcode")
	}
}

func TestDecideVLCSpecialCase(t *testing.T) {
	prof := profile.Profile{UserAgentMatch: "*"}
	d := decide("VLC/3.0.16 LibVLC/3.0.16", &prof, h264AacSource("mkv"))
	if !d.DirectPlay {
		t.Error("expected VLC with compatible container/codecs to direct-play")
	}
}

func TestDecideVLCIncompatibleCodecFallsThrough(t *testing.T) {
	prof := profile.Profile{UserAgentMatch: "*"} // no direct play rules
	source := catalog.MediaSource{
		Container: "mp4",
		MediaStreams: []catalog.MediaStream{
			{Type: catalog.StreamVideo, Codec: "vp9"},
			{Type: catalog.StreamAudio, Codec: "opus"},
		},
	}
	d := decide("VLC/3.0.16", &prof, source)
	if d.DirectPlay {
		t.Error("expected incompatible VLC codecs to fall through to profile matching")
	}
}

func TestDecideProfileDirectPlayRuleMatches(t *testing.T) {
	prof := profile.Profile{
		UserAgentMatch: "*",
		DirectPlay: []profile.DirectPlayRule{
			{MediaType: "Video", Container: "mp4", VideoCodec: "h264", AudioCodec: "aac"},
		},
	}
	d := decide("Generic Renderer", &prof, h264AacSource("mp4"))
	if !d.DirectPlay {
		t.Error("expected profile direct-play rule to match")
	}
}
