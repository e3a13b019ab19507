package catalog

import "context"

// Client is the contract this server needs from the upstream media
// library. Authentication, wire format and caching belong to whatever
// satisfies this interface; the rest of this module only depends on
// these methods.
type Client interface {
	// ListLibraries returns the top-level libraries (object_id "0"'s children).
	ListLibraries(ctx context.Context) ([]CatalogItem, error)

	// ListChildren returns the direct, non-recursive children of parentID.
	ListChildren(ctx context.Context, parentID string) ([]CatalogItem, error)

	// GetItem fetches a single catalog item by id.
	GetItem(ctx context.Context, id string) (*CatalogItem, error)

	// StreamURL builds the upstream media URL for an item under the given options.
	StreamURL(ctx context.Context, id string, opts StreamOptions) (string, error)

	// ImageURL builds the upstream URL for an item's image of the given type (e.g. "Primary").
	ImageURL(ctx context.Context, id string, imageType string) (string, error)

	// SubtitleURLCandidates returns, in priority order, upstream URLs
	// that may serve the subtitle stream at the given embedded index.
	// The caller tries each until one returns non-HTML content.
	SubtitleURLCandidates(ctx context.Context, id string, index int) ([]string, error)

	// UserData fetches resume/played state for an item.
	UserData(ctx context.Context, userID, itemID string) (*UserData, error)

	ReportStart(ctx context.Context, p PlaybackStart) error
	ReportProgress(ctx context.Context, p PlaybackProgress) error
	ReportStop(ctx context.Context, p PlaybackStop) error
	MarkPlayed(ctx context.Context, userID, itemID string) error
}
