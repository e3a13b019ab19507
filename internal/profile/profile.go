// Package profile matches an incoming renderer request to a DeviceProfile:
// the direct-play rules and bitrate cap that govern how StreamProxy serves
// that device. A profile carries no DLNA flag template; the DLNA flags
// sent to renderers are fixed strings in streamproxy and cds.
package profile

import "strings"

// DirectPlayRule describes one combination of (media_type, container,
// video_codec, audio_codec) a device can play without transcoding. An
// empty field means "any".
type DirectPlayRule struct {
	MediaType  string
	Container  string
	VideoCodec string
	AudioCodec string
}

// TranscodingRule describes a fallback rendition a device accepts when
// direct-play isn't possible.
type TranscodingRule struct {
	MediaType  string
	Container  string
	VideoCodec string
	AudioCodec string
	Protocol   string
}

// Profile is a DeviceProfile: the set of rules a particular renderer
// (or class of renderer) is matched against.
type Profile struct {
	ID                  string
	Name                string
	UserAgentMatch      string // substring match; "*" marks the default profile
	Manufacturer        string
	ModelName           string
	MaxStreamingBitrate int
	DirectPlay          []DirectPlayRule
	Transcoding         []TranscodingRule
}

// IsDefault reports whether this is the wildcard fallback profile.
func (p Profile) IsDefault() bool {
	return p.UserAgentMatch == "*"
}

// Matches reports whether this profile applies to the given request
// attributes, per the rule order in the matcher's Match method.
func (p Profile) Matches(userAgent, manufacturer, modelName string) bool {
	if p.IsDefault() {
		return true
	}
	if p.UserAgentMatch != "" && containsFold(userAgent, p.UserAgentMatch) {
		return true
	}
	if p.Manufacturer != "" && manufacturer != "" && strings.EqualFold(p.Manufacturer, manufacturer) {
		return true
	}
	if p.ModelName != "" && modelName != "" && strings.EqualFold(p.ModelName, modelName) {
		return true
	}
	return false
}

// MatchesDirectPlay reports whether any DirectPlay rule covers the given
// (media_type, container, video_codec, audio_codec), treating an empty
// rule field as "any".
func (p Profile) MatchesDirectPlay(mediaType, container, videoCodec, audioCodec string) bool {
	for _, r := range p.DirectPlay {
		if ruleFieldMatches(r.MediaType, mediaType) &&
			ruleFieldMatches(r.Container, container) &&
			ruleFieldMatches(r.VideoCodec, videoCodec) &&
			ruleFieldMatches(r.AudioCodec, audioCodec) {
			return true
		}
	}
	return false
}

func ruleFieldMatches(ruleValue, actual string) bool {
	if ruleValue == "" {
		return true
	}
	return strings.EqualFold(ruleValue, actual)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// DefaultFallback is the constructed profile used when no admin-defined
// default profile exists: permissive mp4/h264/aac direct-play.
func DefaultFallback() Profile {
	return Profile{
		ID:                  "fallback",
		Name:                "Generic DLNA Renderer",
		UserAgentMatch:      "*",
		MaxStreamingBitrate: 8_000_000,
		DirectPlay: []DirectPlayRule{
			{MediaType: "Video", Container: "mp4", VideoCodec: "h264", AudioCodec: "aac"},
		},
		Transcoding: []TranscodingRule{
			{MediaType: "Video", Container: "mp4", VideoCodec: "h264", AudioCodec: "aac", Protocol: "http-get"},
		},
	}
}

// Matcher holds the admin-defined profile list and resolves requests
// against it.
type Matcher struct {
	profiles []Profile
}

// NewMatcher builds a Matcher from an admin-defined profile list. If no
// profile in the list is the wildcard default, one is appended so a
// default always exists after initialization.
func NewMatcher(profiles []Profile) *Matcher {
	m := &Matcher{profiles: append([]Profile(nil), profiles...)}
	hasDefault := false
	for _, p := range m.profiles {
		if p.IsDefault() {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		m.profiles = append(m.profiles, DefaultFallback())
	}
	return m
}

// Match returns the first non-default profile (in admin-defined order)
// satisfying the match rules for userAgent/manufacturer/modelName. The
// wildcard default profile is skipped during that scan wherever it sits
// in the list and is returned only when no other profile matches;
// DefaultFallback is returned only when the list holds no default.
func (m *Matcher) Match(userAgent, manufacturer, modelName string) Profile {
	var def *Profile
	for i := range m.profiles {
		p := &m.profiles[i]
		if p.IsDefault() {
			def = p
			continue
		}
		if p.Matches(userAgent, manufacturer, modelName) {
			return *p
		}
	}
	if def != nil {
		return *def
	}
	return DefaultFallback()
}
