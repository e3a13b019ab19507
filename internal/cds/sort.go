package cds

import (
	"sort"
	"strings"

	"dlnabridge/internal/catalog"
)

// sortIndex returns item.IndexNumber when present, else +infinity so
// unindexed items sort after indexed ones.
func sortIndex(item catalog.CatalogItem) int {
	if item.IndexNumber != nil {
		return *item.IndexNumber
	}
	return int(^uint(0) >> 1) // max int
}

// sortChildren orders children per the default Browse sort rule
// (containers first, then by (sort_index, title)), honoring an explicit
// SortCriteria of dc:title or dc:date, and the Samsung override
// (container first, title, sort_index).
func sortChildren(items []catalog.CatalogItem, sortCriteria string, isSamsung bool) {
	switch {
	case isSamsung:
		sort.SliceStable(items, func(i, j int) bool {
			return lessSamsung(items[i], items[j])
		})
	case strings.Contains(sortCriteria, "dc:title"):
		sort.SliceStable(items, func(i, j int) bool {
			return lessContainersFirst(items[i], items[j], func(a, b catalog.CatalogItem) bool {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			})
		})
	case strings.Contains(sortCriteria, "dc:date"):
		sort.SliceStable(items, func(i, j int) bool {
			return lessContainersFirst(items[i], items[j], func(a, b catalog.CatalogItem) bool {
				return yearOf(a) < yearOf(b)
			})
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return lessDefault(items[i], items[j])
		})
	}
}

func yearOf(item catalog.CatalogItem) int {
	if item.ProductionYear != nil {
		return *item.ProductionYear
	}
	return 0
}

func lessContainersFirst(a, b catalog.CatalogItem, tiebreak func(a, b catalog.CatalogItem) bool) bool {
	aContainer, bContainer := isContainerType(a.Type), isContainerType(b.Type)
	if aContainer != bContainer {
		return aContainer
	}
	return tiebreak(a, b)
}

func lessDefault(a, b catalog.CatalogItem) bool {
	aContainer, bContainer := isContainerType(a.Type), isContainerType(b.Type)
	if aContainer != bContainer {
		return aContainer
	}
	ai, bi := sortIndex(a), sortIndex(b)
	if ai != bi {
		return ai < bi
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

func lessSamsung(a, b catalog.CatalogItem) bool {
	aContainer, bContainer := isContainerType(a.Type), isContainerType(b.Type)
	if aContainer != bContainer {
		return aContainer
	}
	at, bt := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if at != bt {
		return at < bt
	}
	return sortIndex(a) < sortIndex(b)
}
