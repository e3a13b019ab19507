// Package httpserver wires the route table of the DLNA control plane:
// device/SCPD documents, ContentDirectory/ConnectionManager SOAP
// control, event subscription stubs, the stream/subtitle proxy and the
// diagnostic metrics surface, composed with the SSDP engine and the
// playback tracker's lifecycle.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dlnabridge/internal/cds"
	"dlnabridge/internal/connmgr"
	"dlnabridge/internal/device"
	"dlnabridge/internal/discovery"
	"dlnabridge/internal/middleware"
	"dlnabridge/internal/playback"
	"dlnabridge/internal/streamproxy"
	"dlnabridge/internal/templates"
)

const (
	defaultSubscriptionTimeout = 1800 * time.Second
	configID                   = 1
)

// Deps bundles every collaborator DlnaServer composes. All fields are
// required except RateLimiter, Discovery and ActivityNotifier, which may
// be nil.
type Deps struct {
	Logger           *slog.Logger
	Descriptor       device.Descriptor
	Renderer         *templates.Renderer
	CDS              *cds.ContentDirectory
	ConnMgr          *connmgr.ConnectionManager
	Proxy            *streamproxy.Proxy
	Tracker          *playback.Tracker
	Discovery        *discovery.Engine
	RateLimiter      *middleware.IPRateLimiter
	ActivityNotifier middleware.ActivityNotifier
}

// DlnaServer owns the HTTP listener, the SSDP engine and the playback
// tracker's sweep loop: one process, one device.
type DlnaServer struct {
	logger     *slog.Logger
	descriptor device.Descriptor
	renderer   *templates.Renderer
	cds        *cds.ContentDirectory
	connmgr    *connmgr.ConnectionManager
	proxy      *streamproxy.Proxy
	tracker    *playback.Tracker
	discovery  *discovery.Engine
	limiter    *middleware.IPRateLimiter
	notifier   middleware.ActivityNotifier

	mu   sync.Mutex
	subs map[string]time.Time // SID -> expiry, for SUBSCRIBE/UNSUBSCRIBE bookkeeping
}

func New(d Deps) *DlnaServer {
	return &DlnaServer{
		logger:     d.Logger,
		descriptor: d.Descriptor,
		renderer:   d.Renderer,
		cds:        d.CDS,
		connmgr:    d.ConnMgr,
		proxy:      d.Proxy,
		tracker:    d.Tracker,
		discovery:  d.Discovery,
		limiter:    d.RateLimiter,
		notifier:   d.ActivityNotifier,
		subs:       make(map[string]time.Time),
	}
}

// Routes builds the chi router implementing the route table: device
// description, SCPD documents, SOAP control, event subscription,
// streaming/subtitle proxy and the metrics surface.
func (s *DlnaServer) Routes() http.Handler {
	r := chi.NewRouter()

	base := middleware.Chain(http.HandlerFunc(s.handleDeviceXML), middleware.WithLogging(s.logger, s.notifier), middleware.WithObservability())
	r.Method(http.MethodGet, "/device.xml", base)

	r.Method(http.MethodGet, "/ContentDirectory/scpd.xml", s.wrap(s.renderStatic("content_scpd.xml")))
	r.Method(http.MethodGet, "/ConnectionManager/scpd.xml", s.wrap(s.renderStatic("connection_scpd.xml")))

	r.Method(http.MethodPost, "/ContentDirectory/control", s.wrap(s.limited(http.HandlerFunc(s.cds.HandleControl))))
	r.Method(http.MethodPost, "/ConnectionManager/control", s.wrap(http.HandlerFunc(s.connmgr.HandleControl)))

	for _, path := range []string{"/ContentDirectory/event", "/ConnectionManager/event"} {
		r.Route(path, func(sr chi.Router) {
			sr.Method("SUBSCRIBE", "/", s.wrap(http.HandlerFunc(s.handleSubscribe)))
			sr.Method("UNSUBSCRIBE", "/", s.wrap(http.HandlerFunc(s.handleUnsubscribe)))
			sr.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Allow", "SUBSCRIBE, UNSUBSCRIBE")
				w.WriteHeader(http.StatusMethodNotAllowed)
			})
		})
	}

	r.Method(http.MethodGet, "/stream/{id}", s.wrap(s.limited(http.HandlerFunc(s.handleStream))))
	r.Method(http.MethodHead, "/stream/{id}", s.wrap(s.limited(http.HandlerFunc(s.handleStream))))
	r.Method(http.MethodGet, "/subtitle/{id}/{index}", s.wrap(http.HandlerFunc(s.handleSubtitle)))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return r
}

// wrap applies the ambient logging/observability middleware every route
// shares, mirroring the teacher's withLogging/withObservability chain.
func (s *DlnaServer) wrap(h http.Handler) http.Handler {
	return middleware.Chain(h, middleware.WithLogging(s.logger, s.notifier), middleware.WithObservability())
}

func (s *DlnaServer) limited(h http.Handler) http.Handler {
	if s.limiter == nil {
		return h
	}
	return middleware.Chain(h, s.limiter.Middleware)
}

func (s *DlnaServer) renderStatic(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.renderer.Render(w, name, nil); err != nil {
			s.logger.Error("httpserver: render static template", "template", name, "error", err)
		}
	})
}

func (s *DlnaServer) handleDeviceXML(w http.ResponseWriter, r *http.Request) {
	data := struct {
		ConfigID     int
		FriendlyName string
		Manufacturer string
		ModelName    string
		ModelNumber  string
		UUID         string
		BaseURL      string
	}{
		ConfigID:     configID,
		FriendlyName: s.descriptor.FriendlyName,
		Manufacturer: s.descriptor.Manufacturer,
		ModelName:    s.descriptor.ModelName,
		ModelNumber:  s.descriptor.ModelNumber,
		UUID:         s.descriptor.UUID,
		BaseURL:      baseURL(r),
	}
	w.Header().Set("Cache-Control", "max-age=1800")
	if err := s.renderer.Render(w, "device_description.xml", data); err != nil {
		s.logger.Error("httpserver: render device description", "error", err)
	}
}

func (s *DlnaServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("CALLBACK") == "" && r.Header.Get("SID") == "" {
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	}

	sid := r.Header.Get("SID")
	if sid == "" {
		var err error
		sid, err = newSID()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	s.mu.Lock()
	s.subs[sid] = time.Now().Add(defaultSubscriptionTimeout)
	s.mu.Unlock()

	w.Header().Set("SID", sid)
	w.Header().Set("TIMEOUT", fmt.Sprintf("Second-%d", int(defaultSubscriptionTimeout.Seconds())))
	w.WriteHeader(http.StatusOK)
}

func (s *DlnaServer) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get("SID")
	s.mu.Lock()
	delete(s.subs, sid)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *DlnaServer) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.proxy.ServeHTTP(w, r, id)
}

func (s *DlnaServer) handleSubtitle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid subtitle index", http.StatusBadRequest)
		return
	}
	s.proxy.ServeSubtitle(w, r, id, index)
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func newSID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return "uuid:" + id.String(), nil
}

// Run starts the SSDP engine and the playback tracker's sweep loop,
// serves HTTP until ctx is cancelled, then shuts the server down within
// shutdownTimeout.
func (s *DlnaServer) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	go s.tracker.Run(ctx)

	if s.discovery != nil {
		go func() {
			if err := s.discovery.Start(ctx); err != nil {
				s.logger.Error("ssdp engine stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("dlna server closed unexpectedly: %w", err)
		}
	}()

	s.logger.Info("dlna server started", "addr", addr)

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down gracefully", "timeout", shutdownTimeout)
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("dlna server stopped")
	return nil
}
