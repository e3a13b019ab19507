package cds

import "testing"

func TestParseObjectID(t *testing.T) {
	const validUUID = "11111111-2222-3333-4444-555555555555"
	tests := []struct {
		name     string
		raw      string
		wantKind kind
		wantID   string
	}{
		{"root", "0", kindRoot, ""},
		{"library", "library:" + validUUID, kindLibrary, validUUID},
		{"empty library suffix is invalid", "library:", kindInvalid, ""},
		{"bare uuid item", validUUID, kindItem, validUUID},
		{"garbage is invalid", "not-a-uuid-at-all", kindInvalid, ""},
		{"wrong group count is invalid", "1111-2222-3333", kindInvalid, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseObjectID(tt.raw)
			if got.kind != tt.wantKind {
				t.Errorf("parseObjectID(%q).kind = %v, want %v", tt.raw, got.kind, tt.wantKind)
			}
			if got.id != tt.wantID {
				t.Errorf("parseObjectID(%q).id = %q, want %q", tt.raw, got.id, tt.wantID)
			}
		})
	}
}
