// Package config parses and validates command-line configuration for
// the DLNA bridge: listening ports, upstream catalog credentials,
// client identity, logging level, shutdown timers, and the inline
// device-profile flag.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"dlnabridge/internal/profile"
)

type HttpTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

type DlnaConfig struct {
	Port       int
	ServerName string
}

type WebConfig struct {
	Port int
}

type CatalogConfig struct {
	ServerUrl   string
	AccessToken string
	UserId      string
}

type IdentityConfig struct {
	AppName    string
	AppVersion string
	DeviceName string
	DeviceId   string
}

type ShutdownTimersConfig struct {
	InactiveLimit time.Duration
	SleepTimer    time.Duration
	TimeToEnd     time.Time
}

type LogConfig struct {
	Level slog.Level
}

type Config struct {
	Dlna           DlnaConfig
	Web            WebConfig
	Catalog        CatalogConfig
	Identity       IdentityConfig
	Timeouts       HttpTimeoutsConfig
	ShutdownTimers ShutdownTimersConfig
	Logger         LogConfig
	Profiles       []profile.Profile
}

// deviceProfileFlag accumulates repeated -profile flags, each a compact
// colon-delimited inline DeviceProfile definition, mirroring the
// teacher's mountFlag shape for repeated structured flags.
type deviceProfileFlag []profile.Profile

func (d *deviceProfileFlag) String() string {
	return "DeviceProfile: userAgentMatch:container:videoCodec:audioCodec:maxBitrate"
}

// Set parses "userAgentMatch:container:videoCodec:audioCodec:maxBitrate"
// into a Profile with a single DirectPlay rule covering Video media.
func (d *deviceProfileFlag) Set(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 5 {
		return fmt.Errorf("invalid profile format, expected 'userAgentMatch:container:videoCodec:audioCodec:maxBitrate'")
	}

	uaMatch := strings.TrimSpace(parts[0])
	if uaMatch == "" {
		return fmt.Errorf("profile user-agent match cannot be empty")
	}

	maxBitrate, err := strconv.Atoi(strings.TrimSpace(parts[4]))
	if err != nil {
		return fmt.Errorf("invalid max bitrate: %w", err)
	}

	*d = append(*d, profile.Profile{
		ID:                  uaMatch,
		Name:                uaMatch,
		UserAgentMatch:      uaMatch,
		MaxStreamingBitrate: maxBitrate,
		DirectPlay: []profile.DirectPlayRule{
			{MediaType: "Video", Container: parts[1], VideoCodec: parts[2], AudioCodec: parts[3]},
		},
	})

	return nil
}

const noTimeout = time.Duration(0)

func DefaultConfig() *Config {
	return &Config{
		Dlna: DlnaConfig{
			Port:       8200,
			ServerName: "dlnabridge",
		},
		Web: WebConfig{
			Port: 8201,
		},
		Timeouts: HttpTimeoutsConfig{
			Read:     5 * time.Second,
			Idle:     30 * time.Second,
			Write:    1 * time.Hour,
			Shutdown: 15 * time.Second,
		},
		ShutdownTimers: ShutdownTimersConfig{
			InactiveLimit: 30 * time.Minute,
			SleepTimer:    noTimeout,
			TimeToEnd:     time.Time{},
		},
		Logger: LogConfig{
			Level: slog.LevelInfo,
		},
		Identity: IdentityConfig{
			AppName:    "dlnabridge",
			AppVersion: "1.0",
			DeviceName: "dlnabridge",
		},
	}
}

func ParseArgs(cfg *Config, args []string, stderr io.Writer) error {
	defaultCfg := DefaultConfig()

	fs := flag.NewFlagSet("dlnabridge", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [options]\n\n", fs.Name())
		fmt.Fprintln(fs.Output(), "A DLNA/UPnP bridge that exposes a Jellyfin-style media catalog to renderers.")
		fmt.Fprintln(fs.Output(), "\nOptions:")
		fs.PrintDefaults()
	}

	fs.IntVar(&cfg.Dlna.Port, "dlna.port", defaultCfg.Dlna.Port, "DLNA HTTP control port")
	fs.StringVar(&cfg.Dlna.ServerName, "dlna.serverName", defaultCfg.Dlna.ServerName, "DLNA friendly server name (max 64 chars)")
	fs.IntVar(&cfg.Web.Port, "web.port", defaultCfg.Web.Port, "Diagnostic HTTP port (validated only, nothing listens on it; /metrics is served on dlna.port)")

	fs.StringVar(&cfg.Catalog.ServerUrl, "catalog.serverUrl", "", "Upstream catalog base URL")
	fs.StringVar(&cfg.Catalog.AccessToken, "catalog.accessToken", "", "Upstream catalog API access token")
	fs.StringVar(&cfg.Catalog.UserId, "catalog.userId", "", "Upstream catalog user id (UUID)")

	fs.StringVar(&cfg.Identity.AppName, "identity.appName", defaultCfg.Identity.AppName, "Client identity: application name reported to the catalog")
	fs.StringVar(&cfg.Identity.AppVersion, "identity.appVersion", defaultCfg.Identity.AppVersion, "Client identity: application version")
	fs.StringVar(&cfg.Identity.DeviceName, "identity.deviceName", defaultCfg.Identity.DeviceName, "Client identity: device name")
	fs.StringVar(&cfg.Identity.DeviceId, "identity.deviceId", "", "Client identity: device id (generated if empty)")

	var logLevelStr string
	fs.StringVar(&logLevelStr, "logger.level", "info", "Log level (debug, info, warn, error)")

	fs.DurationVar(&cfg.ShutdownTimers.InactiveLimit, "shutdown.inactive", defaultCfg.ShutdownTimers.InactiveLimit, "Shutdown after duration of inactivity (e.g. 30m)")
	fs.DurationVar(&cfg.ShutdownTimers.SleepTimer, "shutdown.sleep", defaultCfg.ShutdownTimers.SleepTimer, "Shutdown after specific duration (e.g. 2h)")

	var timeToEndStr string
	fs.StringVar(&timeToEndStr, "shutdown.at", "", "Shutdown at specific time (format HH:MM, e.g. 23:30)")

	var profiles deviceProfileFlag
	fs.Var(&profiles, "profile", "Inline DeviceProfile: userAgentMatch:container:videoCodec:audioCodec:maxBitrate (repeatable)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := validatePort(cfg.Dlna.Port); err != nil {
		return fmt.Errorf("dlna.port: %w", err)
	}
	if cfg.Web.Port != 0 {
		if err := validatePort(cfg.Web.Port); err != nil {
			return fmt.Errorf("web.port: %w", err)
		}
	}

	serverName, err := validateFriendlyName(cfg.Dlna.ServerName)
	if err != nil {
		return fmt.Errorf("dlna.serverName: %w", err)
	}
	cfg.Dlna.ServerName = serverName

	serverURL, err := validateServerURL(cfg.Catalog.ServerUrl)
	if err != nil {
		return fmt.Errorf("catalog.serverUrl: %w", err)
	}
	cfg.Catalog.ServerUrl = serverURL

	if strings.TrimSpace(cfg.Catalog.AccessToken) == "" {
		return fmt.Errorf("catalog.accessToken: must not be empty")
	}

	userID, err := validateUUID(cfg.Catalog.UserId)
	if err != nil {
		return fmt.Errorf("catalog.userId: %w", err)
	}
	cfg.Catalog.UserId = userID

	level, err := validateLoggerLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("logger.level: %w", err)
	}
	cfg.Logger.Level = level

	timeToEnd, err := validateTimeToEnd(timeToEndStr)
	if err != nil {
		return fmt.Errorf("shutdown.at: %w", err)
	}
	cfg.ShutdownTimers.TimeToEnd = timeToEnd

	if cfg.Identity.DeviceId == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate device id: %w", err)
		}
		cfg.Identity.DeviceId = id.String()
	}

	if len(profiles) > 0 {
		cfg.Profiles = profiles
	}

	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be in [1, 65535], got %d", port)
	}
	return nil
}

func validateFriendlyName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("server name cannot be empty")
	}
	if len(name) > 64 {
		return "", fmt.Errorf("server name too long (max 64 chars, got %d)", len(name))
	}
	return name, nil
}

func validateServerURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("must be an absolute URL, got %q", raw)
	}
	return strings.TrimSuffix(raw, "/"), nil
}

func validateUUID(uuidStr string) (string, error) {
	if strings.TrimSpace(uuidStr) == "" {
		return "", fmt.Errorf("must not be empty")
	}
	id, err := uuid.FromString(uuidStr)
	if err != nil {
		return "", fmt.Errorf("invalid UUID %q: %w", uuidStr, err)
	}
	return id.String(), nil
}

func validateLoggerLevel(logLevelStr string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevelStr)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", logLevelStr, err)
	}
	return level, nil
}

func validateTimeToEnd(timeToEndStr string) (time.Time, error) {
	if timeToEndStr == "" {
		return time.Time{}, nil
	}

	now := time.Now()
	parsed, err := time.Parse("15:04", timeToEndStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format %q (expected HH:MM): %w", timeToEndStr, err)
	}

	result := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
	if result.Before(now) {
		result = result.Add(24 * time.Hour)
	}

	return result, nil
}
