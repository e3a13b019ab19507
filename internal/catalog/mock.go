package catalog

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is an in-memory Client used by component tests across the
// cds, playback, streamproxy and httpserver packages. Items are addressed
// by ID; ListChildren filters by ParentID. Telemetry calls are recorded
// rather than sent anywhere.
type MockClient struct {
	mu       sync.Mutex
	Items    map[string]CatalogItem
	UserDatas map[string]UserData // keyed by itemID

	Starts    []PlaybackStart
	Progresses []PlaybackProgress
	Stops     []PlaybackStop
	MarkedPlayed []string

	// StreamURLFunc, if set, overrides the default stream URL construction.
	StreamURLFunc func(id string, opts StreamOptions) (string, error)

	// SubtitleOverride, if non-nil, overrides SubtitleURLCandidates entirely.
	SubtitleOverride []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		Items:     make(map[string]CatalogItem),
		UserDatas: make(map[string]UserData),
	}
}

// AddItem registers an item for later retrieval/listing.
func (m *MockClient) AddItem(item CatalogItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items[item.ID] = item
}

func (m *MockClient) ListLibraries(ctx context.Context) ([]CatalogItem, error) {
	return m.ListChildren(ctx, "")
}

func (m *MockClient) ListChildren(ctx context.Context, parentID string) ([]CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CatalogItem
	for _, it := range m.Items {
		if it.ParentID == parentID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *MockClient) GetItem(ctx context.Context, id string) (*CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.Items[id]
	if !ok {
		return nil, fmt.Errorf("mock catalog: item %q not found", id)
	}
	return &it, nil
}

func (m *MockClient) StreamURL(ctx context.Context, id string, opts StreamOptions) (string, error) {
	if m.StreamURLFunc != nil {
		return m.StreamURLFunc(id, opts)
	}
	if opts.DirectPlay {
		return fmt.Sprintf("http://upstream.test/Videos/%s/stream", id), nil
	}
	return fmt.Sprintf("http://upstream.test/Videos/%s/stream.mp4", id), nil
}

func (m *MockClient) ImageURL(ctx context.Context, id string, imageType string) (string, error) {
	return fmt.Sprintf("http://upstream.test/Items/%s/Images/%s", id, imageType), nil
}

func (m *MockClient) SubtitleURLCandidates(ctx context.Context, id string, index int) ([]string, error) {
	if m.SubtitleOverride != nil {
		return m.SubtitleOverride, nil
	}
	return []string{fmt.Sprintf("http://upstream.test/Videos/%s/Subtitles/%d", id, index)}, nil
}

func (m *MockClient) UserData(ctx context.Context, userID, itemID string) (*UserData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ud, ok := m.UserDatas[itemID]
	if !ok {
		return &UserData{}, nil
	}
	return &ud, nil
}

func (m *MockClient) ReportStart(ctx context.Context, p PlaybackStart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Starts = append(m.Starts, p)
	return nil
}

func (m *MockClient) ReportProgress(ctx context.Context, p PlaybackProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Progresses = append(m.Progresses, p)
	return nil
}

func (m *MockClient) ReportStop(ctx context.Context, p PlaybackStop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stops = append(m.Stops, p)
	return nil
}

func (m *MockClient) MarkPlayed(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkedPlayed = append(m.MarkedPlayed, itemID)
	return nil
}

var _ Client = (*MockClient)(nil)
