package cds

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/templates"
)

const didlHeader = `<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/" xmlns:sec="http://www.sec.co.kr/">`
const didlFooter = `</DIDL-Lite>`

// renderContext carries the per-request state DIDL rendering needs
// beyond a single CatalogItem: how to address this server, and whether
// the requesting renderer gets Samsung-specific extras.
type renderContext struct {
	renderer   *templates.Renderer
	baseURL    string // e.g. "http://192.168.1.50:8200"
	isSamsung  bool
	imageURLOf func(itemID string) string
}

// buildDIDL renders a list of already-filtered, already-sorted children
// into one DIDL-Lite document. idFor computes the DIDL id string for
// each child. buildDIDLWithClass additionally takes classFor, which, if
// non-nil, overrides the default upnp:class for container children (used
// for library roots, whose class depends on collection_type).
func buildDIDL(rc renderContext, children []catalog.CatalogItem, idFor func(catalog.CatalogItem) string, parentID string) (string, error) {
	return buildDIDLWithClass(rc, children, idFor, parentID, nil)
}

func buildDIDLWithClass(rc renderContext, children []catalog.CatalogItem, idFor func(catalog.CatalogItem) string, parentID string, classFor func(catalog.CatalogItem) string) (string, error) {
	var body bytes.Buffer
	body.WriteString(didlHeader)

	for _, item := range children {
		var frag bytes.Buffer
		var err error
		if item.IsContainer() {
			class := upnpClass(item.Type)
			if classFor != nil {
				class = classFor(item)
			}
			err = renderContainerClass(rc, &frag, item, idFor(item), parentID, class)
		} else {
			err = renderItem(rc, &frag, item, idFor(item), parentID)
		}
		if err != nil {
			return "", err
		}
		body.Write(frag.Bytes())
	}

	body.WriteString(didlFooter)
	return body.String(), nil
}

type containerData struct {
	ID, ParentID, Title, Class string
	ChildCount                 int
	AlbumArtURI                string
	IsSamsung                  bool
}

// renderContainerClass renders any container with the given upnp:class.
// Callers pass libraryRootClass for library-root containers, whose class
// depends on collection_type, and upnpClass for every other container.
func renderContainerClass(rc renderContext, w *bytes.Buffer, item catalog.CatalogItem, id, parentID, class string) error {
	childCount := 0
	if item.ChildCount != nil {
		childCount = *item.ChildCount
	}
	data := containerData{
		ID:          id,
		ParentID:    parentID,
		Title:       xmlEscape(item.Name),
		Class:       class,
		ChildCount:  childCount,
		AlbumArtURI: rc.imageURLOf(item.ID),
		IsSamsung:   rc.isSamsung,
	}
	return rc.renderer.RenderTo(w, "didl_container.xml", data)
}

type itemData struct {
	ID, ParentID, Title, Class string
	AlbumArtURI, Description   string
	ProductionYear             string
	EpisodeNumber              string
	EpisodeSeason              string
	SeriesTitle                string
	Album                      string
	Artists                    []string
	Genres                     []string
	IsSamsung                  bool
	ResProtocolInfo            string
	ResURL                     string
	Size, Duration, Resolution string
	Bitrate                    string
	SampleFrequency            string
	NrAudioChannels            string
}

func renderItem(rc renderContext, w *bytes.Buffer, item catalog.CatalogItem, id, parentID string) error {
	title := xmlEscape(item.Name)
	if item.Type == catalog.TypeEpisode && item.IndexNumber != nil {
		title = xmlEscape(fmt.Sprintf("%d. %s", *item.IndexNumber, item.Name))
	}

	data := itemData{
		ID:       id,
		ParentID: parentID,
		Title:    title,
		Class:    upnpClass(item.Type),
		ResURL:   xmlEscape(fmt.Sprintf("%s/stream/%s", rc.baseURL, item.ID)),
		IsSamsung: rc.isSamsung,
	}

	if item.Overview != "" {
		data.Description = xmlEscape(truncate(item.Overview, 200))
	}
	if item.ProductionYear != nil {
		data.ProductionYear = fmt.Sprintf("%d", *item.ProductionYear)
	}
	if url := rc.imageURLOf(item.ID); url != "" {
		data.AlbumArtURI = url
	}

	if item.Type == catalog.TypeEpisode {
		if item.IndexNumber != nil {
			data.EpisodeNumber = fmt.Sprintf("%d", *item.IndexNumber)
		}
		if item.ParentIndexNumber != nil {
			data.EpisodeSeason = fmt.Sprintf("%d", *item.ParentIndexNumber)
		}
		if item.SeriesName != "" {
			data.SeriesTitle = xmlEscape(item.SeriesName)
		}
	}

	if item.Type == catalog.TypeAudio || item.Type == catalog.TypeAudioBook {
		if item.Album != "" {
			data.Album = xmlEscape(item.Album)
		}
		for i, artist := range item.Artists {
			if i >= 3 {
				break
			}
			data.Artists = append(data.Artists, xmlEscape(artist))
		}
	}

	for i, genre := range item.Genres {
		if i >= 2 {
			break
		}
		data.Genres = append(data.Genres, xmlEscape(genre))
	}

	source, hasSource := item.PrimaryMediaSource()
	mime := mimeTypeFor(source.Container)
	dlnaFlags := "DLNA.ORG_OP=01;DLNA.ORG_FLAGS=01700000000000000000000000000000"
	if rc.isSamsung {
		dlnaFlags = "DLNA.ORG_PN=AVC_MP4_MP_HD_1080i_AAC;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=01700000000000000000000000000000"
	}
	data.ResProtocolInfo = fmt.Sprintf("http-get:*:%s:%s", mime, dlnaFlags)

	if hasSource {
		if source.Size > 0 {
			data.Size = fmt.Sprintf("%d", source.Size)
		}
		if source.Bitrate > 0 {
			data.Bitrate = fmt.Sprintf("%d", source.Bitrate)
		}
		if source.RunTimeTicks > 0 {
			data.Duration = formatDuration(source.RunTimeTicks)
		}
		if video, ok := source.VideoStream(); ok && video.Width > 0 && video.Height > 0 {
			data.Resolution = fmt.Sprintf("%dx%d", video.Width, video.Height)
		}
		if audio, ok := source.AudioStream(); ok {
			if audio.SampleRate > 0 {
				data.SampleFrequency = fmt.Sprintf("%d", audio.SampleRate)
			}
			if audio.Channels > 0 {
				data.NrAudioChannels = fmt.Sprintf("%d", audio.Channels)
			}
		}
	}

	return rc.renderer.RenderTo(w, "didl_item.xml", data)
}

func xmlEscape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

// formatDuration renders ticks as "H:MM:SS.mmm".
func formatDuration(ticks int64) string {
	totalMillis := ticks / (catalog.TicksPerSecond / 1000)
	hours := totalMillis / 3_600_000
	totalMillis -= hours * 3_600_000
	minutes := totalMillis / 60_000
	totalMillis -= minutes * 60_000
	seconds := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func mimeTypeFor(container string) string {
	switch strings.ToLower(container) {
	case "mp4", "m4v":
		return "video/mp4"
	case "mkv":
		return "video/x-matroska"
	case "avi":
		return "video/x-msvideo"
	case "mov":
		return "video/quicktime"
	case "mp3":
		return "audio/mpeg"
	case "flac":
		return "audio/flac"
	case "aac", "m4a":
		return "audio/mp4"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
