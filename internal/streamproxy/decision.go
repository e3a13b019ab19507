package streamproxy

import (
	"strings"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/profile"
)

var vlcDirectPlayContainers = map[string]bool{"mp4": true, "mkv": true, "avi": true, "mov": true}
var vlcDirectPlayVideoCodecs = map[string]bool{"h264": true, "hevc": true, "mpeg4": true, "mpeg2video": true, "vc1": true}
var vlcDirectPlayAudioCodecs = map[string]bool{"aac": true, "mp3": true, "ac3": true, "eac3": true, "dts": true}

// Decision is the direct-play vs transcode outcome for one stream
// request, along with the codec/container triple it was computed from.
type Decision struct {
	DirectPlay bool
	MediaType  string
	Container  string
	VideoCodec string
	AudioCodec string
}

// decide implements the §4.5 direct-play decision tree.
func decide(userAgent string, prof *profile.Profile, source catalog.MediaSource) Decision {
	d := Decision{MediaType: "Video", Container: strings.ToLower(source.Container)}
	if v, ok := source.VideoStream(); ok {
		d.VideoCodec = strings.ToLower(v.Codec)
	}
	if a, ok := source.AudioStream(); ok {
		d.AudioCodec = strings.ToLower(a.Codec)
	}

	if prof == nil || d.Container == "" {
		return d
	}

	if strings.Contains(strings.ToUpper(userAgent), "VLC") &&
		vlcDirectPlayContainers[d.Container] &&
		vlcDirectPlayVideoCodecs[d.VideoCodec] &&
		vlcDirectPlayAudioCodecs[d.AudioCodec] {
		d.DirectPlay = true
		return d
	}

	d.DirectPlay = prof.MatchesDirectPlay(d.MediaType, d.Container, d.VideoCodec, d.AudioCodec)
	return d
}
