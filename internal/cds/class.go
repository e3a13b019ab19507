package cds

import "dlnabridge/internal/catalog"

// upnpClass maps a CatalogItem's type to its default upnp:class.
func upnpClass(t catalog.ItemType) string {
	switch t {
	case catalog.TypeMovie:
		return "object.item.videoItem.movie"
	case catalog.TypeEpisode, catalog.TypeVideo:
		return "object.item.videoItem"
	case catalog.TypeMusicVideo:
		return "object.item.videoItem.musicVideoClip"
	case catalog.TypeAudio, catalog.TypeAudioBook:
		return "object.item.audioItem.musicTrack"
	case catalog.TypePhoto:
		return "object.item.imageItem.photo"
	case catalog.TypeSeries, catalog.TypeSeason:
		return "object.container.album.videoAlbum"
	case catalog.TypeMusicAlbum:
		return "object.container.album.musicAlbum"
	case catalog.TypeMusicArtist:
		return "object.container.person.musicArtist"
	case catalog.TypeCollectionFolder, catalog.TypeFolder:
		return "object.container.storageFolder"
	default:
		return "object.container.storageFolder"
	}
}

// libraryRootClass overrides the class used for a top-level library
// container based on its collection_type.
func libraryRootClass(ct catalog.CollectionType) string {
	switch ct {
	case catalog.CollectionMovies, catalog.CollectionTVShows:
		return "object.container.genre.movieGenre"
	case catalog.CollectionPhotos:
		return "object.container.album.photoAlbum"
	default:
		return "object.container.storageFolder"
	}
}
