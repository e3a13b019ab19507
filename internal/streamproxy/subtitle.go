package streamproxy

import (
	"io"
	"net/http"
	"strings"
)

const noSubtitlesFallback = "1\n00:00:00,000 --> 00:00:05,000\nNo subtitles available\n\n"

// ServeSubtitle handles GET /subtitle/{id}/{index}. It tries each
// upstream candidate URL in order and proxies the first one whose
// response isn't HTML (an upstream login/error page); if none qualify
// it serves a one-cue SRT placeholder so the renderer doesn't stall.
func (p *Proxy) ServeSubtitle(w http.ResponseWriter, r *http.Request, itemID string, index int) {
	ctx := r.Context()
	candidates, err := p.catalog.SubtitleURLCandidates(ctx, itemID, index)
	if err != nil || len(candidates) == 0 {
		p.writeFallbackSubtitle(w)
		return
	}

	for _, candidate := range candidates {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
		if err != nil {
			continue
		}
		resp, err := p.client.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode >= 300 || strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
			resp.Body.Close()
			continue
		}
		w.Header().Set("Content-Type", "application/x-subrip")
		w.WriteHeader(http.StatusOK)
		io.Copy(w, resp.Body)
		resp.Body.Close()
		return
	}

	p.writeFallbackSubtitle(w)
}

func (p *Proxy) writeFallbackSubtitle(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/x-subrip")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, noSubtitlesFallback)
}
