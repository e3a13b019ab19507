// Package discovery implements SSDP: UPnP Device Architecture 1.0
// multicast discovery, with the BootID/ConfigID extensions. It answers
// M-SEARCH requests, advertises ssdp:alive on a schedule, and sends
// ssdp:byebye on shutdown.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"dlnabridge/internal/observability"
)

const (
	ssdpAddr       = "239.255.255.250:1900"
	ssdpPort       = 1900
	maxAge         = 1800
	advertiseEvery = 25 * time.Minute
	dedupWindow    = 2 * time.Second
	sweepEvery     = 5 * time.Minute
	sweepAge       = 10 * time.Minute
	notifySpacing  = 250 * time.Millisecond
)

// searchTargets is the USN table: every (ST, NT) pair this device answers
// M-SEARCH for and advertises via NOTIFY, in the order they're sent.
func searchTargets(deviceUUID string) []struct{ ST, NT string } {
	return []struct{ ST, NT string }{
		{"upnp:rootdevice", "upnp:rootdevice"},
		{"uuid:" + deviceUUID, "uuid:" + deviceUUID},
		{"urn:schemas-upnp-org:device:MediaServer:1", "urn:schemas-upnp-org:device:MediaServer:1"},
		{"urn:schemas-upnp-org:service:ContentDirectory:1", "urn:schemas-upnp-org:service:ContentDirectory:1"},
		{"urn:schemas-upnp-org:service:ConnectionManager:1", "urn:schemas-upnp-org:service:ConnectionManager:1"},
	}
}

// Config parameterizes one Engine instance.
type Config struct {
	HostIP     string
	Port       int
	DeviceUUID string
	ServerName string // e.g. "Linux/5.10 UPnP/1.0 DLNADOC/1.50 dlnabridge/1.0"
}

// Engine owns the SSDP multicast socket, the M-SEARCH responder and the
// periodic ssdp:alive advertiser. One Engine serves one device.
type Engine struct {
	logger *slog.Logger
	cfg    Config

	mu       sync.Mutex
	bootID   int64
	configID int64
	recent   map[string]time.Time // "ip:port" -> last M-SEARCH seen
}

// NewEngine constructs an Engine. BootID starts at 1 per spec.
func NewEngine(logger *slog.Logger, cfg Config) *Engine {
	return &Engine{
		logger:   logger,
		cfg:      cfg,
		bootID:   1,
		configID: 1,
		recent:   make(map[string]time.Time),
	}
}

// Start runs the multicast listener, the alive-advertisement scheduler,
// the hourly BootID tick and the dedup-table sweep until ctx is cancelled,
// at which point it sends ssdp:byebye and returns.
func (e *Engine) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return fmt.Errorf("resolve ssdp multicast address: %w", err)
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("bind ssdp multicast listener: %w", err)
	}
	conn.SetReadBuffer(4096)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); e.listen(ctx, conn) }()
	go func() { defer wg.Done(); e.advertiseLoop(ctx) }()
	go func() { defer wg.Done(); e.sweepLoop(ctx) }()

	<-ctx.Done()
	e.sendByebye()
	conn.Close()
	wg.Wait()
	return nil
}

func (e *Engine) listen(ctx context.Context, conn *net.UDPConn) {
	buf := make([]byte, 2048)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.Warn("ssdp read error", "error", err)
			continue
		}
		msg := string(buf[:n])
		if !strings.HasPrefix(msg, "M-SEARCH") {
			continue
		}
		e.handleSearch(src, msg)
	}
}

type searchRequest struct {
	st string
	ua string
	mx int
}

func parseSearchRequest(msg string) searchRequest {
	req := searchRequest{st: "ssdp:all", mx: 1}
	for _, line := range strings.Split(msg, "\r\n") {
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "ST:"):
			if v := headerValue(line); v != "" {
				req.st = v
			}
		case strings.HasPrefix(upper, "USER-AGENT:"):
			req.ua = headerValue(line)
		case strings.HasPrefix(upper, "MX:"):
			if v, err := strconv.Atoi(headerValue(line)); err == nil {
				req.mx = v
			}
		}
	}
	return req
}

func headerValue(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (e *Engine) handleSearch(src *net.UDPAddr, msg string) {
	req := parseSearchRequest(msg)
	key := src.String()

	e.mu.Lock()
	if last, ok := e.recent[key]; ok && time.Since(last) < dedupWindow {
		e.mu.Unlock()
		return
	}
	e.recent[key] = time.Now()
	e.mu.Unlock()

	observability.SsdpSearchesTotal.WithLabelValues(req.st).Inc()

	targets := e.matchingTargets(req.st)
	if len(targets) == 0 {
		return
	}

	delay := e.responseDelay(req)
	go func() {
		time.Sleep(delay)
		e.respondTo(src, req, targets)
	}()
}

// matchingTargets returns the (ST, USN) responses owed for a given
// search target, per the USN table in the SSDP spec.
func (e *Engine) matchingTargets(st string) []struct{ ST, USN string } {
	all := searchTargets(e.cfg.DeviceUUID)
	var out []struct{ ST, USN string }
	switch st {
	case "ssdp:all":
		for _, t := range all {
			out = append(out, struct{ ST, USN string }{t.ST, e.usnFor(t)})
		}
	case "upnp:rootdevice":
		out = append(out, struct{ ST, USN string }{"upnp:rootdevice", "uuid:" + e.cfg.DeviceUUID + "::upnp:rootdevice"})
	case "uuid:" + e.cfg.DeviceUUID:
		out = append(out, struct{ ST, USN string }{"uuid:" + e.cfg.DeviceUUID, "uuid:" + e.cfg.DeviceUUID})
	default:
		for _, t := range all {
			if t.ST == st {
				out = append(out, struct{ ST, USN string }{t.ST, e.usnFor(t)})
			}
		}
	}
	return out
}

func (e *Engine) usnFor(t struct{ ST, NT string }) string {
	if t.ST == "upnp:rootdevice" {
		return "uuid:" + e.cfg.DeviceUUID + "::upnp:rootdevice"
	}
	if t.ST == "uuid:"+e.cfg.DeviceUUID {
		return "uuid:" + e.cfg.DeviceUUID
	}
	return "uuid:" + e.cfg.DeviceUUID + "::" + t.ST
}

// responseDelay picks a random delay within [0, min(MX*1000, 3000)]ms,
// enforcing per-vendor floors for renderers known to drop replies sent
// too quickly after the request.
func (e *Engine) responseDelay(req searchRequest) time.Duration {
	ceiling := req.mx * 1000
	if ceiling > 3000 {
		ceiling = 3000
	}
	if ceiling < 0 {
		ceiling = 0
	}
	floor := 0
	ua := strings.ToLower(req.ua)
	switch {
	case strings.Contains(ua, "samsung") || strings.Contains(ua, "tizen"):
		floor = 100
	case strings.Contains(ua, "lg") || strings.Contains(ua, "webos"):
		floor = 200
	case strings.Contains(ua, "xbox"):
		floor = 0
	}
	if floor > ceiling {
		ceiling = floor
	}
	spread := ceiling - floor
	chosen := floor
	if spread > 0 {
		chosen += rand.Intn(spread + 1)
	}
	return time.Duration(chosen) * time.Millisecond
}

func (e *Engine) respondTo(dst *net.UDPAddr, req searchRequest, targets []struct{ ST, USN string }) {
	conn, err := net.DialUDP("udp4", nil, dst)
	if err != nil {
		e.logger.Warn("ssdp respond: dial failed", "error", err)
		return
	}
	defer conn.Close()

	e.mu.Lock()
	bootID, configID := e.bootID, e.configID
	e.mu.Unlock()

	isSamsung := strings.Contains(strings.ToLower(req.ua), "samsung")

	for i, t := range targets {
		var b strings.Builder
		fmt.Fprintf(&b, "HTTP/1.1 200 OK\r\n")
		fmt.Fprintf(&b, "CACHE-CONTROL: max-age=%d\r\n", maxAge)
		fmt.Fprintf(&b, "DATE: %s\r\n", time.Now().UTC().Format(time.RFC1123))
		fmt.Fprintf(&b, "EXT:\r\n")
		fmt.Fprintf(&b, "LOCATION: http://%s:%d/device.xml\r\n", e.cfg.HostIP, e.cfg.Port)
		fmt.Fprintf(&b, "SERVER: %s\r\n", e.cfg.ServerName)
		fmt.Fprintf(&b, "ST: %s\r\n", t.ST)
		fmt.Fprintf(&b, "USN: %s\r\n", t.USN)
		fmt.Fprintf(&b, "BOOTID.UPNP.ORG: %d\r\n", bootID)
		fmt.Fprintf(&b, "CONFIGID.UPNP.ORG: %d\r\n", configID)
		if isSamsung {
			fmt.Fprintf(&b, "SEARCHPORT.UPNP.ORG: %d\r\n", ssdpPort)
		}
		b.WriteString("\r\n")

		if _, err := conn.Write([]byte(b.String())); err != nil {
			e.logger.Warn("ssdp respond: write failed", "error", err)
		}
		if i < len(targets)-1 {
			time.Sleep(notifySpacing)
		}
	}
}

func (e *Engine) advertiseLoop(ctx context.Context) {
	e.sendAlive()
	select {
	case <-ctx.Done():
		return
	case <-time.After(1500 * time.Millisecond):
	}
	e.sendAlive()

	ticker := time.NewTicker(advertiseEvery)
	defer ticker.Stop()
	hourly := time.NewTicker(time.Hour)
	defer hourly.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sendAlive()
		case <-hourly.C:
			e.mu.Lock()
			e.bootID++
			e.mu.Unlock()
		}
	}
}

func (e *Engine) sendAlive() {
	e.sendNotify("ssdp:alive")
}

func (e *Engine) sendByebye() {
	e.sendNotify("ssdp:byebye")
}

func (e *Engine) sendNotify(nts string) {
	addr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		e.logger.Warn("ssdp notify: resolve failed", "error", err)
		return
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		e.logger.Warn("ssdp notify: dial failed", "error", err)
		return
	}
	defer conn.Close()

	e.mu.Lock()
	bootID, configID := e.bootID, e.configID
	e.mu.Unlock()

	targets := searchTargets(e.cfg.DeviceUUID)
	for i, t := range targets {
		var b strings.Builder
		fmt.Fprintf(&b, "NOTIFY * HTTP/1.1\r\n")
		fmt.Fprintf(&b, "HOST: %s\r\n", ssdpAddr)
		if nts == "ssdp:alive" {
			fmt.Fprintf(&b, "CACHE-CONTROL: max-age=%d\r\n", maxAge)
			fmt.Fprintf(&b, "LOCATION: http://%s:%d/device.xml\r\n", e.cfg.HostIP, e.cfg.Port)
		}
		fmt.Fprintf(&b, "NT: %s\r\n", t.NT)
		fmt.Fprintf(&b, "NTS: %s\r\n", nts)
		if nts == "ssdp:alive" {
			fmt.Fprintf(&b, "SERVER: %s\r\n", e.cfg.ServerName)
		}
		fmt.Fprintf(&b, "USN: %s\r\n", e.usnFor(t))
		fmt.Fprintf(&b, "BOOTID.UPNP.ORG: %d\r\n", bootID)
		if nts == "ssdp:alive" {
			fmt.Fprintf(&b, "CONFIGID.UPNP.ORG: %d\r\n", configID)
		}
		b.WriteString("\r\n")

		if _, err := conn.Write([]byte(b.String())); err != nil {
			e.logger.Warn("ssdp notify: write failed", "error", err, "nts", nts)
		}
		observability.SsdpNotifiesTotal.WithLabelValues(nts).Inc()
		if i < len(targets)-1 {
			time.Sleep(notifySpacing)
		}
	}
}

func (e *Engine) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweep()
		}
	}
}

func (e *Engine) sweep() {
	cutoff := time.Now().Add(-sweepAge)
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, t := range e.recent {
		if t.Before(cutoff) {
			delete(e.recent, k)
		}
	}
}
