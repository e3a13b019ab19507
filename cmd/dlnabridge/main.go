package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/cds"
	"dlnabridge/internal/config"
	"dlnabridge/internal/connmgr"
	"dlnabridge/internal/device"
	"dlnabridge/internal/discovery"
	"dlnabridge/internal/httpserver"
	"dlnabridge/internal/middleware"
	"dlnabridge/internal/playback"
	"dlnabridge/internal/profile"
	"dlnabridge/internal/streamproxy"
	"dlnabridge/internal/templates"
)

const (
	rateLimitRPS   = 20
	rateLimitBurst = 40
)

type App struct {
	logger  *slog.Logger
	cfg     *config.Config
	server  *httpserver.DlnaServer
	monitor *shutdownMonitor
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	catalogClient := catalog.NewHTTPClient(cfg.Catalog.ServerUrl, cfg.Catalog.AccessToken, cfg.Catalog.UserId)
	matcher := profile.NewMatcher(cfg.Profiles)
	tracker := playback.NewTracker(logger, catalogClient)
	proxy := streamproxy.New(logger, catalogClient, matcher, tracker)

	baseURLFn := func(r *http.Request) string {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	contentDirectory := cds.New(logger, catalogClient, renderer, baseURLFn)
	connectionManager := connmgr.New(logger, renderer)

	hostIdentity, err := getLocalIP()
	if err != nil {
		return nil, fmt.Errorf("failed to determine local IP: %w", err)
	}

	desc := device.New(hostIdentity, cfg.Dlna.ServerName, cfg.Dlna.ServerName, cfg.Identity.AppName, cfg.Identity.AppName, cfg.Identity.AppVersion, cfg.Dlna.Port)

	discoveryEngine := discovery.NewEngine(logger, discovery.Config{
		HostIP:     hostIdentity,
		Port:       cfg.Dlna.Port,
		DeviceUUID: desc.UUID,
		ServerName: "Linux/5.10 UPnP/1.0 DLNADOC/1.50 dlnabridge/1.0",
	})

	monitor := newShutdownMonitor(cfg.ShutdownTimers, logger)
	limiter := middleware.NewIPRateLimiter(context.Background(), rateLimitRPS, rateLimitBurst, false)

	server := httpserver.New(httpserver.Deps{
		Logger:           logger,
		Descriptor:       desc,
		Renderer:         renderer,
		CDS:              contentDirectory,
		ConnMgr:          connectionManager,
		Proxy:            proxy,
		Tracker:          tracker,
		Discovery:        discoveryEngine,
		RateLimiter:      limiter,
		ActivityNotifier: monitor,
	})

	return &App{
		logger:  logger,
		cfg:     cfg,
		server:  server,
		monitor: monitor,
	}, nil
}

func main() {
	stderr := os.Stderr

	cfg := config.DefaultConfig()
	if err := config.ParseArgs(cfg, os.Args[1:], stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", "dlnabridge")

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func (a *App) Run(rootCtx context.Context) error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.monitor.Start(ctx)

	go func() {
		select {
		case <-ctx.Done():
			return
		case err := <-a.monitor.StopCh:
			a.logger.Info("auto-shutdown triggered", "reason", err)
			stop()
		}
	}()

	addr := ":" + strconv.Itoa(a.cfg.Dlna.Port)
	return a.server.Run(ctx, addr, a.cfg.Timeouts.Shutdown)
}

func getLocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", fmt.Errorf("get local IP: %w", err)
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
