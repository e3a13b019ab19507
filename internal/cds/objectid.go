package cds

import "strings"

// kind distinguishes what a parsed ObjectID refers to.
type kind int

const (
	kindRoot kind = iota
	kindLibrary
	kindItem
	kindInvalid
)

type objectID struct {
	kind kind
	id   string // the catalog item id for kindLibrary/kindItem; empty for root/invalid
}

const libraryPrefix = "library:"

// parseObjectID resolves a BrowseRequest's object_id into one of:
// the literal root, a top-level library reference, or an arbitrary
// catalog item id. Anything else (including a malformed/non-uuid-shaped
// value) is invalid and yields an empty Browse result.
func parseObjectID(raw string) objectID {
	if raw == "0" {
		return objectID{kind: kindRoot}
	}
	if strings.HasPrefix(raw, libraryPrefix) {
		id := strings.TrimPrefix(raw, libraryPrefix)
		if id == "" {
			return objectID{kind: kindInvalid}
		}
		return objectID{kind: kindLibrary, id: id}
	}
	if looksLikeUUID(raw) {
		return objectID{kind: kindItem, id: raw}
	}
	return objectID{kind: kindInvalid}
}

// looksLikeUUID applies a permissive shape check (8-4-4-4-12 hex groups)
// rather than a strict RFC4122 parse, since upstream catalog ids only
// need to be unambiguous, not necessarily canonical UUIDs.
func looksLikeUUID(s string) bool {
	groups := strings.Split(s, "-")
	if len(groups) != 5 {
		return false
	}
	wantLens := [5]int{8, 4, 4, 4, 12}
	for i, g := range groups {
		if len(g) != wantLens[i] || !isHex(g) {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') && !(r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

// libraryObjectID formats a top-level library's ObjectID per the
// "library:<uuid>" convention.
func libraryObjectID(id string) string {
	return libraryPrefix + id
}
