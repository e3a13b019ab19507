package discovery

import (
	"log/slog"
	"net"
	"os"
	"testing"
	"time"
)

func testEngine() *Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewEngine(logger, Config{
		HostIP:     "192.168.1.50",
		Port:       8200,
		DeviceUUID: "11111111-2222-3333-4444-555555555555",
		ServerName: "Linux/5.10 UPnP/1.0 dlnabridge/1.0",
	})
}

func TestParseSearchRequest(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want searchRequest
	}{
		{
			name: "full M-SEARCH",
			msg:  "M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nMAN: \"ssdp:discover\"\r\nMX: 2\r\nST: ssdp:all\r\nUSER-AGENT: Samsung/TV\r\n\r\n",
			want: searchRequest{st: "ssdp:all", ua: "Samsung/TV", mx: 2},
		},
		{
			name: "missing ST defaults to ssdp:all",
			msg:  "M-SEARCH * HTTP/1.1\r\nMX: 1\r\n\r\n",
			want: searchRequest{st: "ssdp:all", mx: 1},
		},
		{
			name: "missing MX defaults to 1",
			msg:  "M-SEARCH * HTTP/1.1\r\nST: upnp:rootdevice\r\n\r\n",
			want: searchRequest{st: "upnp:rootdevice", mx: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSearchRequest(tt.msg)
			if got != tt.want {
				t.Errorf("parseSearchRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMatchingTargets(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name    string
		st      string
		wantLen int
	}{
		{"ssdp:all expands to every NT", "ssdp:all", 5},
		{"rootdevice matches one", "upnp:rootdevice", 1},
		{"device uuid matches one", "uuid:" + e.cfg.DeviceUUID, 1},
		{"content directory matches one", "urn:schemas-upnp-org:service:ContentDirectory:1", 1},
		{"unknown ST matches nothing", "urn:schemas-upnp-org:device:Printer:1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.matchingTargets(tt.st)
			if len(got) != tt.wantLen {
				t.Errorf("matchingTargets(%q) returned %d targets, want %d", tt.st, len(got), tt.wantLen)
			}
		})
	}
}

func TestResponseDelayRespectsVendorFloors(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name     string
		ua       string
		mx       int
		minFloor time.Duration
		maxCeil  time.Duration
	}{
		{"samsung floor 100ms", "SEC_HHP/Samsung TV", 3, 100 * time.Millisecond, 3000 * time.Millisecond},
		{"lg floor 200ms", "LG webOS TV", 3, 200 * time.Millisecond, 3000 * time.Millisecond},
		{"xbox floor zero", "Xbox/Console", 3, 0, 3000 * time.Millisecond},
		{"generic capped at mx*1000", "GenericRenderer/1.0", 1, 0, 1000 * time.Millisecond},
		{"mx capped at 3000ms ceiling", "GenericRenderer/1.0", 10, 0, 3000 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				d := e.responseDelay(searchRequest{ua: tt.ua, mx: tt.mx})
				if d < tt.minFloor || d > tt.maxCeil {
					t.Fatalf("responseDelay(ua=%q, mx=%d) = %v, want within [%v, %v]", tt.ua, tt.mx, d, tt.minFloor, tt.maxCeil)
				}
			}
		})
	}
}

func TestHandleSearchDedupWithinWindow(t *testing.T) {
	e := testEngine()
	key := "10.0.0.5:4000"
	seen := time.Now()
	e.recent[key] = seen

	e.handleSearch(&net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 4000}, "M-SEARCH * HTTP/1.1\r\nST: ssdp:all\r\nMX: 1\r\n\r\n")

	e.mu.Lock()
	last := e.recent[key]
	e.mu.Unlock()
	if !last.Equal(seen) {
		t.Fatal("expected a repeat M-SEARCH within the dedup window to be dropped without refreshing its entry")
	}
}

func TestSweepEvictsOldEntries(t *testing.T) {
	e := testEngine()
	e.recent["stale:1"] = time.Now().Add(-sweepAge - time.Minute)
	e.recent["fresh:1"] = time.Now()

	e.sweep()

	if _, ok := e.recent["stale:1"]; ok {
		t.Error("expected stale entry to be evicted")
	}
	if _, ok := e.recent["fresh:1"]; !ok {
		t.Error("expected fresh entry to survive sweep")
	}
}
