// Package streamproxy serves /stream/{id}: it decides direct-play vs
// transcode, builds the upstream media URL, and pumps bytes to the
// renderer while feeding the playback tracker.
package streamproxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/observability"
	"dlnabridge/internal/playback"
	"dlnabridge/internal/profile"
)

const (
	copyBufferSize   = 64 * 1024
	progressEvery    = 15 * time.Second
	pauseMinBytes    = 5 * 1024 * 1024
	pauseMinElapsed  = 30 * time.Second
	pauseMaxFraction = 0.95

	// maxConcurrentStreams bounds simultaneous upstream fetches so a burst
	// of renderers can't open unbounded connections against the catalog.
	maxConcurrentStreams = 32
)

// Proxy streams catalog items to DLNA renderers.
type Proxy struct {
	logger  *slog.Logger
	catalog catalog.Client
	matcher *profile.Matcher
	tracker *playback.Tracker
	client  *http.Client
	limiter *concurrencyLimiter
}

func New(logger *slog.Logger, client catalog.Client, matcher *profile.Matcher, tracker *playback.Tracker) *Proxy {
	return &Proxy{
		logger:  logger,
		catalog: client,
		matcher: matcher,
		tracker: tracker,
		client:  &http.Client{},
		limiter: newConcurrencyLimiter(maxConcurrentStreams),
	}
}

// ServeHTTP handles GET/HEAD /stream/{id}.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request, itemID string) {
	ctx := r.Context()
	item, err := p.catalog.GetItem(ctx, itemID)
	if err != nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	source, ok := item.PrimaryMediaSource()
	if !ok {
		http.Error(w, "no playable media source", http.StatusNotFound)
		return
	}

	userAgent := r.UserAgent()
	deviceProfile := p.matcher.Match(userAgent, r.Header.Get("X-AV-Device-Manufacturer"), r.Header.Get("X-AV-Device-Model"))
	decision := decide(userAgent, &deviceProfile, source)
	observability.PlaybackDecisionsTotal.WithLabelValues(decisionLabel(decision.DirectPlay)).Inc()

	rangeStart := parseRangeStart(r.Header.Get("Range"))
	var seekTicks int64
	if rangeStart > 1<<20 {
		durationSeconds := float64(source.RunTimeTicks) / catalog.TicksPerSecond
		seekTicks = playback.ComputeSeekTicks(rangeStart, durationSeconds, source.RunTimeTicks)
	}
	if userData, err := p.catalog.UserData(ctx, "", itemID); err == nil {
		seekTicks = playback.ResolveStartTicks(seekTicks, userData)
	}

	playMethod := "Transcode"
	if decision.DirectPlay {
		playMethod = "DirectPlay"
	}

	upstreamURL, err := p.buildUpstreamURL(ctx, itemID, decision, deviceProfile, userAgent, seekTicks)
	if err != nil {
		http.Error(w, "failed to resolve stream", http.StatusBadGateway)
		return
	}

	if err := p.limiter.acquire(ctx); err != nil {
		http.Error(w, "server busy", http.StatusServiceUnavailable)
		return
	}
	defer p.limiter.release()

	sess, _ := p.tracker.Begin(ctx, "", itemID, userAgent, r.RemoteAddr, seekTicks, playMethod)

	upstreamReq, err := http.NewRequestWithContext(ctx, r.Method, upstreamURL, nil)
	if err != nil {
		http.Error(w, "failed to build upstream request", http.StatusInternalServerError)
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		upstreamReq.Header.Set("Range", rng)
	}

	resp, err := p.client.Do(upstreamReq)
	if err != nil {
		p.logger.Warn("streamproxy: upstream request failed", "item", itemID, "error", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	p.copyHeaders(w, resp, decision.DirectPlay)

	status := http.StatusOK
	if resp.StatusCode == http.StatusPartialContent {
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}

	observability.ActiveStreams.Inc()
	defer observability.ActiveStreams.Dec()

	p.pump(ctx, w, resp.Body, sess.SessionID, playMethod, source.RunTimeTicks)
}

func decisionLabel(directPlay bool) string {
	if directPlay {
		return "direct_play"
	}
	return "transcode"
}

func (p *Proxy) buildUpstreamURL(ctx context.Context, itemID string, d Decision, prof profile.Profile, userAgent string, seekTicks int64) (string, error) {
	opts := catalog.StreamOptions{
		DirectPlay:          d.DirectPlay,
		Container:           d.Container,
		VideoCodec:          d.VideoCodec,
		AudioCodec:          d.AudioCodec,
		MaxStreamingBitrate: prof.MaxStreamingBitrate,
		StartTimeTicks:      seekTicks,
	}
	if d.DirectPlay {
		opts.DeviceHints = deviceHints(userAgent)
	}
	return p.catalog.StreamURL(ctx, itemID, opts)
}

func (p *Proxy) copyHeaders(w http.ResponseWriter, resp *http.Response, directPlay bool) {
	for _, h := range []string{"Content-Length", "Accept-Ranges", "Content-Range", "Cache-Control", "Last-Modified", "ETag", "Content-Type"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("transferMode.dlna.org", "Streaming")
	if directPlay {
		w.Header().Set("contentFeatures.dlna.org", "DLNA.ORG_OP=01;DLNA.ORG_FLAGS=01700000000000000000000000000000")
	}
}

// pump copies the upstream body to w, reporting progress every 15s and
// applying the disconnect-vs-pause heuristic on write failure.
func (p *Proxy) pump(ctx context.Context, w http.ResponseWriter, src io.Reader, sessionID, playMethod string, totalTicks int64) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, copyBufferSize)

	start := time.Now()
	lastProgress := start
	var totalBytes int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				p.onInterrupted(ctx, sessionID, playMethod, totalBytes, start, totalTicks)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			totalBytes += int64(n)
			observability.StreamBytesTotal.Add(float64(n))
			p.tracker.Touch(sessionID, int64(n))
		}
		if time.Since(lastProgress) >= progressEvery {
			p.tracker.ReportProgress(ctx, sessionID, false, playMethod)
			lastProgress = time.Now()
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				p.tracker.Stop(ctx, sessionID, playMethod, totalTicks, true)
				return
			}
			p.onInterrupted(ctx, sessionID, playMethod, totalBytes, start, totalTicks)
			return
		}
	}
}

func (p *Proxy) onInterrupted(ctx context.Context, sessionID, playMethod string, totalBytes int64, start time.Time, totalTicks int64) {
	elapsed := time.Since(start)
	if totalBytes >= pauseMinBytes && elapsed >= pauseMinElapsed && !pastThreshold(sessionID, p.tracker, totalTicks, pauseMaxFraction) {
		p.tracker.Pause(ctx, sessionID, playMethod)
		return
	}
	p.tracker.Stop(ctx, sessionID, playMethod, 0, false)
}

// pastThreshold reports whether the session's current position has
// already passed fraction·totalTicks (used to distinguish a disconnect
// near end-of-stream, which should Stop, from a genuine pause).
func pastThreshold(sessionID string, tracker *playback.Tracker, totalTicks int64, fraction float64) bool {
	if totalTicks <= 0 {
		return false
	}
	ticks := tracker.CurrentTicks(sessionID)
	return float64(ticks) >= fraction*float64(totalTicks)
}

func parseRangeStart(rangeHeader string) int64 {
	if rangeHeader == "" {
		return 0
	}
	const prefix = "bytes="
	if !strings.HasPrefix(rangeHeader, prefix) {
		return 0
	}
	spec := strings.TrimPrefix(rangeHeader, prefix)
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) == 0 || parts[0] == "" {
		return 0
	}
	n, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
