package catalog

import (
	"context"
	"testing"
)

func TestMockClientListChildrenFiltersByParent(t *testing.T) {
	m := NewMockClient()
	m.AddItem(CatalogItem{ID: "lib1", ParentID: "", Type: TypeCollectionFolder})
	m.AddItem(CatalogItem{ID: "movie1", ParentID: "lib1", Type: TypeMovie})
	m.AddItem(CatalogItem{ID: "movie2", ParentID: "lib1", Type: TypeMovie})
	m.AddItem(CatalogItem{ID: "other", ParentID: "lib2", Type: TypeMovie})

	children, err := m.ListChildren(context.Background(), "lib1")
	if err != nil {
		t.Fatalf("ListChildren returned error: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children of lib1, got %d", len(children))
	}
}

func TestMockClientGetItemNotFound(t *testing.T) {
	m := NewMockClient()
	if _, err := m.GetItem(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing item, got nil")
	}
}

func TestMockClientTelemetryRecorded(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()

	if err := m.ReportStart(ctx, PlaybackStart{ItemID: "movie1", SessionID: "s1"}); err != nil {
		t.Fatalf("ReportStart: %v", err)
	}
	if err := m.ReportProgress(ctx, PlaybackProgress{ItemID: "movie1", SessionID: "s1", PositionTicks: 5 * TicksPerSecond}); err != nil {
		t.Fatalf("ReportProgress: %v", err)
	}
	if err := m.ReportStop(ctx, PlaybackStop{ItemID: "movie1", SessionID: "s1"}); err != nil {
		t.Fatalf("ReportStop: %v", err)
	}
	if err := m.MarkPlayed(ctx, "user1", "movie1"); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}

	if len(m.Starts) != 1 || len(m.Progresses) != 1 || len(m.Stops) != 1 || len(m.MarkedPlayed) != 1 {
		t.Errorf("expected one recorded call per telemetry method, got starts=%d progresses=%d stops=%d played=%d",
			len(m.Starts), len(m.Progresses), len(m.Stops), len(m.MarkedPlayed))
	}
}

func TestMockClientStreamURLDirectPlayVsTranscode(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()

	direct, err := m.StreamURL(ctx, "movie1", StreamOptions{DirectPlay: true})
	if err != nil {
		t.Fatalf("StreamURL direct: %v", err)
	}
	transcoded, err := m.StreamURL(ctx, "movie1", StreamOptions{DirectPlay: false})
	if err != nil {
		t.Fatalf("StreamURL transcoded: %v", err)
	}
	if direct == transcoded {
		t.Error("expected direct-play and transcoded URLs to differ")
	}
}
