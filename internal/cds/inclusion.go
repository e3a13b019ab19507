package cds

import (
	"strings"

	"dlnabridge/internal/catalog"
)

var excludedFolderNames = map[string]struct{}{
	"behind the scenes": {},
	"deleted scenes":    {},
	"interviews":        {},
	"scenes":            {},
	"samples":           {},
	"shorts":            {},
	"featurettes":       {},
	"extras":            {},
	"trailers":          {},
	"theme videos":      {},
	"theme songs":       {},
	"specials":          {},
}

var containerTypes = map[catalog.ItemType]struct{}{
	catalog.TypeAggregateFolder:  {},
	catalog.TypeCollectionFolder: {},
	catalog.TypeBoxSet:           {},
	catalog.TypeFolder:           {},
	catalog.TypeUserView:         {},
	catalog.TypeSeries:           {},
	catalog.TypeSeason:           {},
	catalog.TypeMusicAlbum:       {},
	catalog.TypeMusicArtist:      {},
	catalog.TypePlaylist:         {},
}

var mediaTypes = map[catalog.ItemType]struct{}{
	catalog.TypeMovie:     {},
	catalog.TypeEpisode:   {},
	catalog.TypeAudio:     {},
	catalog.TypePhoto:     {},
	catalog.TypeVideo:     {},
	catalog.TypeMusicVideo: {},
	catalog.TypeAudioBook: {},
}

// included reports whether a catalog item satisfies the Browse inclusion
// rules: it has an id, its name isn't in the excluded-folder set, and its
// type is a known container or media type.
func included(item catalog.CatalogItem) bool {
	if item.ID == "" {
		return false
	}
	if _, excluded := excludedFolderNames[strings.ToLower(item.Name)]; excluded {
		return false
	}
	if _, ok := containerTypes[item.Type]; ok {
		return true
	}
	if _, ok := mediaTypes[item.Type]; ok {
		return true
	}
	return false
}

// isContainerType reports whether t is browsed as a UPnP container.
func isContainerType(t catalog.ItemType) bool {
	_, ok := containerTypes[t]
	return ok
}
