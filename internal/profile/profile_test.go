package profile

import "testing"

func TestMatcherMatch(t *testing.T) {
	samsung := Profile{
		ID:             "samsung",
		UserAgentMatch: "SEC_HHP",
		Manufacturer:   "Samsung",
	}
	xbox := Profile{
		ID:             "xbox",
		UserAgentMatch: "Xbox",
	}
	wildcard := Profile{
		ID:             "default",
		UserAgentMatch: "*",
	}
	m := NewMatcher([]Profile{samsung, xbox, wildcard})

	tests := []struct {
		name         string
		userAgent    string
		manufacturer string
		modelName    string
		want         string
	}{
		{"samsung UA substring match", "SEC_HHP[TV] SamsungTV", "", "", "samsung"},
		{"samsung manufacturer match", "SomeGenericAgent/1.0", "Samsung", "", "samsung"},
		{"xbox UA match", "Xbox/Console", "", "", "xbox"},
		{"unmatched falls back to wildcard", "RandomRenderer/2.0", "", "", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.userAgent, tt.manufacturer, tt.modelName)
			if got.ID != tt.want {
				t.Errorf("Match(%q, %q, %q) = %q, want %q", tt.userAgent, tt.manufacturer, tt.modelName, got.ID, tt.want)
			}
		})
	}
}

func TestNewMatcherAddsDefaultWhenMissing(t *testing.T) {
	m := NewMatcher([]Profile{{ID: "only-specific", UserAgentMatch: "Foo"}})
	got := m.Match("totally unrelated agent", "", "")
	if got.ID != "fallback" {
		t.Errorf("expected constructed fallback profile, got %q", got.ID)
	}
}

func TestProfileMatchesDirectPlay(t *testing.T) {
	p := Profile{
		DirectPlay: []DirectPlayRule{
			{MediaType: "Video", Container: "mp4", VideoCodec: "h264", AudioCodec: "aac"},
			{MediaType: "Video", Container: "mkv"}, // any codec
		},
	}

	tests := []struct {
		name                                       string
		mediaType, container, videoCodec, audioCodec string
		want                                       bool
	}{
		{"exact match", "Video", "mp4", "h264", "aac", true},
		{"wrong audio codec", "Video", "mp4", "h264", "mp3", false},
		{"container-only rule matches any codec", "Video", "mkv", "hevc", "dts", true},
		{"no matching container", "Video", "avi", "h264", "aac", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.MatchesDirectPlay(tt.mediaType, tt.container, tt.videoCodec, tt.audioCodec)
			if got != tt.want {
				t.Errorf("MatchesDirectPlay(%q,%q,%q,%q) = %v, want %v", tt.mediaType, tt.container, tt.videoCodec, tt.audioCodec, got, tt.want)
			}
		})
	}
}
