package streamproxy

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/playback"
	"dlnabridge/internal/profile"
)

func newTestProxy(t *testing.T) (*Proxy, *catalog.MockClient) {
	t.Helper()
	mock := catalog.NewMockClient()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	matcher := profile.NewMatcher(nil)
	tracker := playback.NewTracker(logger, mock)
	return New(logger, mock, matcher, tracker), mock
}

func TestServeHTTPItemNotFound(t *testing.T) {
	p, _ := newTestProxy(t)
	req := httptest.NewRequest(http.MethodGet, "/stream/missing", nil)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req, "missing")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", rec.Code)
	}
}

func TestServeHTTPNoMediaSource(t *testing.T) {
	p, mock := newTestProxy(t)
	mock.AddItem(catalog.CatalogItem{ID: "item1", Type: catalog.TypeMovie})

	req := httptest.NewRequest(http.MethodGet, "/stream/item1", nil)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req, "item1")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for item with no media source, got %d", rec.Code)
	}
}

func TestParseRangeStart(t *testing.T) {
	tests := []struct {
		header string
		want   int64
	}{
		{"", 0},
		{"bytes=1048576-", 1048576},
		{"bytes=0-499", 0},
		{"not-a-range", 0},
	}
	for _, tt := range tests {
		if got := parseRangeStart(tt.header); got != tt.want {
			t.Errorf("parseRangeStart(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}

func TestDeviceHintsByVendor(t *testing.T) {
	if h := deviceHints("SAMSUNG Smart TV"); h["EnableAutoStreamCopy"] != "true" {
		t.Errorf("expected samsung hints, got %v", h)
	}
	if h := deviceHints("Xbox One"); h["VideoCodec"] != "h264" {
		t.Errorf("expected xbox hints, got %v", h)
	}
	if h := deviceHints("LG webOS TV"); h["EnableAutoStreamCopy"] != "true" {
		t.Errorf("expected lg hints, got %v", h)
	}
	if h := deviceHints("Generic Renderer"); h != nil {
		t.Errorf("expected no hints for unknown vendor, got %v", h)
	}
}
