// Package catalog defines the contract this server uses to read an
// external media library and to report playback telemetry back to it.
// The concrete implementation of that library (authentication, HTTP
// wire format, caching) lives outside this module; callers supply any
// Client.
package catalog

// ItemType tags a CatalogItem with its place in the UPnP class mapping
// and in the container/media-type split used by Browse inclusion rules.
type ItemType string

const (
	TypeMovie            ItemType = "Movie"
	TypeEpisode          ItemType = "Episode"
	TypeSeason           ItemType = "Season"
	TypeSeries           ItemType = "Series"
	TypeAudio            ItemType = "Audio"
	TypeMusicAlbum       ItemType = "MusicAlbum"
	TypeMusicArtist      ItemType = "MusicArtist"
	TypeMusicVideo       ItemType = "MusicVideo"
	TypePhoto            ItemType = "Photo"
	TypeVideo            ItemType = "Video"
	TypeAudioBook        ItemType = "AudioBook"
	TypeFolder           ItemType = "Folder"
	TypeCollectionFolder ItemType = "CollectionFolder"
	TypeBoxSet           ItemType = "BoxSet"
	TypePlaylist         ItemType = "Playlist"
	TypeUserView         ItemType = "UserView"
	TypeAggregateFolder  ItemType = "AggregateFolder"
)

// CollectionType narrows the library-root icon/class for a top-level
// CollectionFolder (a "library" in the spec's ObjectID vocabulary).
type CollectionType string

const (
	CollectionMovies   CollectionType = "movies"
	CollectionTVShows  CollectionType = "tvshows"
	CollectionMusic    CollectionType = "music"
	CollectionPhotos   CollectionType = "photos"
	CollectionPlaylist CollectionType = "playlists"
)

// StreamType distinguishes video, audio and subtitle tracks within a
// MediaSource.
type StreamType string

const (
	StreamVideo    StreamType = "Video"
	StreamAudio    StreamType = "Audio"
	StreamSubtitle StreamType = "Subtitle"
)

// MediaStream describes a single elementary stream inside a MediaSource.
type MediaStream struct {
	Type         StreamType
	Codec        string
	Width        int
	Height       int
	Language     string
	Channels     int
	SampleRate   int
	Index        int
	IsExternal   bool
}

// MediaSource describes one playable rendition of a CatalogItem.
type MediaSource struct {
	Container     string
	Size          int64
	Bitrate       int
	RunTimeTicks  int64
	MediaStreams  []MediaStream
}

// VideoStream returns the first video stream, if any.
func (m MediaSource) VideoStream() (MediaStream, bool) {
	for _, s := range m.MediaStreams {
		if s.Type == StreamVideo {
			return s, true
		}
	}
	return MediaStream{}, false
}

// AudioStream returns the first audio stream, if any.
func (m MediaSource) AudioStream() (MediaStream, bool) {
	for _, s := range m.MediaStreams {
		if s.Type == StreamAudio {
			return s, true
		}
	}
	return MediaStream{}, false
}

// CatalogItem is the library-side view of one node in the catalog tree:
// a library, a folder, a series/season, or a playable item.
type CatalogItem struct {
	ID                 string
	Name               string
	Type               ItemType
	CollectionType      CollectionType
	ParentID           string
	ChildCount         *int
	RunTimeTicks       *int64
	IndexNumber        *int
	ParentIndexNumber  *int
	ProductionYear     *int
	Overview           string
	Genres             []string
	SeriesName         string
	Album              string
	Artists            []string
	MediaSources       []MediaSource
}

// IsContainer reports whether this item's type is browsed as a UPnP
// container rather than an item.
func (c CatalogItem) IsContainer() bool {
	switch c.Type {
	case TypeAggregateFolder, TypeCollectionFolder, TypeBoxSet, TypeFolder,
		TypeUserView, TypeSeries, TypeSeason, TypeMusicAlbum, TypeMusicArtist, TypePlaylist:
		return true
	}
	return false
}

// PrimaryMediaSource returns the first media source, if any.
func (c CatalogItem) PrimaryMediaSource() (MediaSource, bool) {
	if len(c.MediaSources) == 0 {
		return MediaSource{}, false
	}
	return c.MediaSources[0], true
}

// UserData carries per-user playback state for a single item.
type UserData struct {
	PlaybackPositionTicks int64
	Played                bool
}

// StreamOptions parameterizes StreamURL construction.
type StreamOptions struct {
	DirectPlay         bool
	Container          string
	VideoCodec         string
	AudioCodec         string
	MaxStreamingBitrate int
	StartTimeTicks     int64
	DeviceHints        map[string]string
}

// PlaybackStart is the payload for the Start telemetry call.
type PlaybackStart struct {
	UserID         string
	ItemID         string
	SessionID      string
	PlayMethod     string
	StartTimeTicks int64
	PositionTicks  int64
}

// PlaybackProgress is the payload for the Progress telemetry call.
type PlaybackProgress struct {
	UserID        string
	ItemID        string
	SessionID     string
	PlayMethod    string
	PositionTicks int64
	IsPaused      bool
}

// PlaybackStop is the payload for the Stop telemetry call.
type PlaybackStop struct {
	UserID        string
	ItemID        string
	SessionID     string
	PlayMethod    string
	PositionTicks int64
	Failed        bool
}

// TicksPerSecond is the number of 100ns ticks in one second (§ Glossary).
const TicksPerSecond = 10_000_000
