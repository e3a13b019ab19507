package catalog

import "testing"

func TestCatalogItemIsContainer(t *testing.T) {
	tests := []struct {
		name string
		typ  ItemType
		want bool
	}{
		{"movie is not a container", TypeMovie, false},
		{"episode is not a container", TypeEpisode, false},
		{"season is a container", TypeSeason, true},
		{"series is a container", TypeSeries, true},
		{"collection folder is a container", TypeCollectionFolder, true},
		{"music album is a container", TypeMusicAlbum, true},
		{"audio is not a container", TypeAudio, false},
		{"photo is not a container", TypePhoto, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := CatalogItem{Type: tt.typ}
			if got := item.IsContainer(); got != tt.want {
				t.Errorf("IsContainer() for %s = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestMediaSourceStreamLookup(t *testing.T) {
	ms := MediaSource{
		MediaStreams: []MediaStream{
			{Type: StreamSubtitle, Index: 0},
			{Type: StreamVideo, Index: 1, Codec: "h264"},
			{Type: StreamAudio, Index: 2, Codec: "aac"},
		},
	}

	video, ok := ms.VideoStream()
	if !ok || video.Codec != "h264" {
		t.Errorf("VideoStream() = %+v, %v; want h264 stream", video, ok)
	}

	audio, ok := ms.AudioStream()
	if !ok || audio.Codec != "aac" {
		t.Errorf("AudioStream() = %+v, %v; want aac stream", audio, ok)
	}

	empty := MediaSource{}
	if _, ok := empty.VideoStream(); ok {
		t.Error("VideoStream() on empty source should return false")
	}
}

func TestCatalogItemPrimaryMediaSource(t *testing.T) {
	item := CatalogItem{}
	if _, ok := item.PrimaryMediaSource(); ok {
		t.Error("expected no primary media source on empty item")
	}

	item.MediaSources = []MediaSource{{Container: "mkv"}, {Container: "mp4"}}
	src, ok := item.PrimaryMediaSource()
	if !ok || src.Container != "mkv" {
		t.Errorf("PrimaryMediaSource() = %+v, %v; want first source mkv", src, ok)
	}
}
