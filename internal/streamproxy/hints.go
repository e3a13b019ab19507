package streamproxy

import "strings"

// deviceHints returns the per-vendor StreamURL query hints for a
// direct-play request, keyed by user-agent substring per §4.5.
func deviceHints(userAgent string) map[string]string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "samsung"):
		return map[string]string{
			"EnableAutoStreamCopy": "true",
			"AllowVideoStreamCopy": "true",
			"AllowAudioStreamCopy": "true",
		}
	case strings.Contains(ua, "xbox"):
		return map[string]string{
			"VideoCodec":           "h264",
			"AudioCodec":           "aac",
			"EnableAutoStreamCopy": "false",
		}
	case strings.Contains(ua, "lg") || strings.Contains(ua, "webos"):
		return map[string]string{
			"EnableAutoStreamCopy": "true",
		}
	default:
		return nil
	}
}
