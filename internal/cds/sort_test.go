package cds

import (
	"testing"

	"dlnabridge/internal/catalog"
)

func intPtr(i int) *int { return &i }

func TestSortChildrenContainersFirstThenTitle(t *testing.T) {
	items := []catalog.CatalogItem{
		{ID: "1", Name: "Zebra Movie", Type: catalog.TypeMovie},
		{ID: "2", Name: "Apple Folder", Type: catalog.TypeFolder},
		{ID: "3", Name: "Apple Movie", Type: catalog.TypeMovie},
	}
	sortChildren(items, "", false)

	if items[0].ID != "2" {
		t.Fatalf("expected container first, got %+v", items)
	}
	if items[1].ID != "3" || items[2].ID != "1" {
		t.Fatalf("expected items sorted by title after containers, got %+v", items)
	}
}

func TestSortChildrenBySortIndexForEpisodes(t *testing.T) {
	items := []catalog.CatalogItem{
		{ID: "ep3", Name: "Episode Three", Type: catalog.TypeEpisode, IndexNumber: intPtr(3)},
		{ID: "ep1", Name: "Episode One", Type: catalog.TypeEpisode, IndexNumber: intPtr(1)},
		{ID: "ep2", Name: "Episode Two", Type: catalog.TypeEpisode, IndexNumber: intPtr(2)},
	}
	sortChildren(items, "", false)

	want := []string{"ep1", "ep2", "ep3"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("expected order %v, got %v", want, idsOf(items))
		}
	}
}

func TestSortChildrenExplicitTitleCriteria(t *testing.T) {
	items := []catalog.CatalogItem{
		{ID: "b", Name: "Beta", Type: catalog.TypeMovie},
		{ID: "a", Name: "Alpha", Type: catalog.TypeMovie},
	}
	sortChildren(items, "dc:title", false)
	if items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("expected title order, got %v", idsOf(items))
	}
}

func TestSortChildrenSamsungOverride(t *testing.T) {
	items := []catalog.CatalogItem{
		{ID: "b", Name: "Beta", Type: catalog.TypeMovie, IndexNumber: intPtr(1)},
		{ID: "a", Name: "Alpha", Type: catalog.TypeMovie, IndexNumber: intPtr(2)},
	}
	sortChildren(items, "", true)
	if items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("expected samsung title-first order, got %v", idsOf(items))
	}
}

func idsOf(items []catalog.CatalogItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
