package cds

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/templates"
)

func newTestCD(t *testing.T) (*ContentDirectory, *catalog.MockClient) {
	t.Helper()
	renderer, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() returned error: %v", err)
	}
	mock := catalog.NewMockClient()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cd := New(logger, mock, renderer, func(r *http.Request) string {
		return "http://" + r.Host
	})
	return cd, mock
}

func browseSOAPBody(objectID, flag string) string {
	return `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
<s:Body>
<u:Browse xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1">
<ObjectID>` + objectID + `</ObjectID>
<BrowseFlag>` + flag + `</BrowseFlag>
<Filter>*</Filter>
<StartingIndex>0</StartingIndex>
<RequestedCount>0</RequestedCount>
<SortCriteria></SortCriteria>
</u:Browse>
</s:Body>
</s:Envelope>`
}

func TestHandleControlBrowseRoot(t *testing.T) {
	cd, mock := newTestCD(t)
	mock.AddItem(catalog.CatalogItem{ID: "lib1", Name: "Movies", Type: catalog.TypeCollectionFolder, CollectionType: catalog.CollectionMovies})

	req := httptest.NewRequest(http.MethodPost, "/ContentDirectory/control", strings.NewReader(browseSOAPBody("0", "BrowseDirectChildren")))
	req.Host = "192.168.1.50:8200"
	rec := httptest.NewRecorder()

	cd.HandleControl(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "NumberReturned&gt;1") && !strings.Contains(body, "NumberReturned>1") {
		t.Errorf("expected one library returned, got body: %s", body)
	}
	if !strings.Contains(body, "library:lib1") {
		t.Errorf("expected library object id to be prefixed, got body: %s", body)
	}
	if !strings.Contains(body, "object.container.genre.movieGenre") {
		t.Errorf("expected Movies library to render as object.container.genre.movieGenre, got body: %s", body)
	}
}

func TestHandleControlBrowseLibraryChildren(t *testing.T) {
	cd, mock := newTestCD(t)
	mock.AddItem(catalog.CatalogItem{ID: "lib1", Name: "Movies", Type: catalog.TypeCollectionFolder})
	mock.AddItem(catalog.CatalogItem{ID: "movie1", ParentID: "lib1", Name: "Some Movie", Type: catalog.TypeMovie})
	mock.AddItem(catalog.CatalogItem{ID: "trailer1", ParentID: "lib1", Name: "Trailers", Type: catalog.TypeFolder})

	req := httptest.NewRequest(http.MethodPost, "/ContentDirectory/control", strings.NewReader(browseSOAPBody("library:lib1", "BrowseDirectChildren")))
	req.Host = "192.168.1.50:8200"
	rec := httptest.NewRecorder()

	cd.HandleControl(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "movie1") {
		t.Errorf("expected movie1 in result, got: %s", body)
	}
	if strings.Contains(body, "trailer1") {
		t.Errorf("expected excluded Trailers folder to be omitted, got: %s", body)
	}
}

func TestHandleControlUnknownActionFaults(t *testing.T) {
	cd, _ := newTestCD(t)
	req := httptest.NewRequest(http.MethodPost, "/ContentDirectory/control", strings.NewReader(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body></s:Body></s:Envelope>`))
	rec := httptest.NewRecorder()

	cd.HandleControl(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown action, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid Action") {
		t.Errorf("expected Invalid Action fault body, got: %s", rec.Body.String())
	}
}

func TestHandleControlMalformedSOAPFaults(t *testing.T) {
	cd, _ := newTestCD(t)
	req := httptest.NewRequest(http.MethodPost, "/ContentDirectory/control", strings.NewReader("not xml at all"))
	rec := httptest.NewRecorder()

	cd.HandleControl(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed soap, got %d", rec.Code)
	}
}

func TestPaginate(t *testing.T) {
	items := []catalog.CatalogItem{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}

	tests := []struct {
		name           string
		startingIndex  int
		requestedCount int
		wantIDs        []string
	}{
		{"no bound returns all", 0, 0, []string{"1", "2", "3", "4"}},
		{"offset and count", 1, 2, []string{"2", "3"}},
		{"offset beyond length clamps to empty", 10, 2, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginate(items, tt.startingIndex, tt.requestedCount)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("paginate() returned %d items, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("paginate()[%d] = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}
