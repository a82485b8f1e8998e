// Package config loads the controller's configuration: a flat set of
// environment-variable-backed server/ambient settings (following the
// teacher's envString/envInt/envBool idiom) plus a structural JSON file
// describing renderers and the media server, matching
// original_source/main.py's load_config() reading config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/derHeinz/dlna-mediacontroller/internal/soap"
)

// RendererConfig is one statically configured renderer entry from the
// config file.
type RendererConfig struct {
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases"`
	URL          string   `json:"url"`
	ControlURL   string   `json:"control_url"`
	MAC          string   `json:"mac"`
	Capabilities []string `json:"capabilities"`
	SendMetadata bool     `json:"send_metadata"`
}

// MediaServerConfig is the single ContentDirectory endpoint this
// controller searches, matching the original's "for now only one media
// server" simplification.
type MediaServerConfig struct {
	Name        string `json:"name"`
	ControlURL  string `json:"control_url"`
	SearchCount int    `json:"search_count"`
}

// FileConfig is the structural part of configuration, read from a JSON
// file rather than flat env vars since it is a list, not a scalar.
type FileConfig struct {
	Renderers   []RendererConfig  `json:"renderers"`
	MediaServer MediaServerConfig `json:"media_server"`
}

// Config holds the complete, resolved server configuration.
type Config struct {
	Host string
	Port string

	DiscoveryIntervalSeconds int
	DiscoveryTimeoutMs       int
	PollIntervalSeconds      int
	SOAPTimeoutMs            int

	AuditEnabled       bool
	AuditDBPath        string
	AuditRetentionDays int

	AuthEnabled bool
	AuthSecret  string

	Renderers   []RendererConfig
	MediaServer MediaServerConfig
}

// DiscoveryInterval returns DiscoveryIntervalSeconds as a Duration.
func (c Config) DiscoveryInterval() time.Duration {
	return time.Duration(c.DiscoveryIntervalSeconds) * time.Second
}

// DiscoveryTimeout returns DiscoveryTimeoutMs as a Duration.
func (c Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.DiscoveryTimeoutMs) * time.Millisecond
}

// PollInterval returns PollIntervalSeconds as a Duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// SOAPTimeout returns SOAPTimeoutMs as a Duration.
func (c Config) SOAPTimeout() time.Duration {
	return time.Duration(c.SOAPTimeoutMs) * time.Millisecond
}

// Load reads configuration from environment variables plus the renderer/
// media-server JSON file referenced by CONFIG_PATH (default
// ./config.json).
func Load() (Config, error) {
	host := envString("HOST", "0.0.0.0")
	port := envString("PORT", "9000")

	discoveryInterval := envInt("DISCOVERY_INTERVAL_SECONDS", 300)
	discoveryTimeout := envInt("DISCOVERY_TIMEOUT_MS", 5000)
	pollInterval := envInt("POLL_INTERVAL_SECONDS", 10)
	soapTimeout := envInt("SOAP_TIMEOUT_MS", 5000)

	auditEnabled := envBool("AUDIT_ENABLED", true)
	auditDBPath := envString("AUDIT_DB_PATH", "./data/audit.db")
	auditRetentionDays := envInt("AUDIT_RETENTION_DAYS", 90)

	authEnabled := envBool("AUTH_ENABLED", false)
	authSecret := envString("AUTH_SECRET", "")

	if authEnabled && len(strings.TrimSpace(authSecret)) < 32 {
		return Config{}, fmt.Errorf("AUTH_SECRET must be at least 32 characters when AUTH_ENABLED=true")
	}

	configPath := envString("CONFIG_PATH", "./config.json")
	fileCfg, err := loadFileConfig(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", configPath, err)
	}
	if fileCfg.MediaServer.SearchCount <= 0 {
		fileCfg.MediaServer.SearchCount = soap.DefaultRequestedCount
	}

	return Config{
		Host:                     host,
		Port:                     port,
		DiscoveryIntervalSeconds: discoveryInterval,
		DiscoveryTimeoutMs:       discoveryTimeout,
		PollIntervalSeconds:      pollInterval,
		SOAPTimeoutMs:            soapTimeout,
		AuditEnabled:             auditEnabled,
		AuditDBPath:              auditDBPath,
		AuditRetentionDays:       auditRetentionDays,
		AuthEnabled:              authEnabled,
		AuthSecret:               authSecret,
		Renderers:                fileCfg.Renderers,
		MediaServer:              fileCfg.MediaServer,
	}, nil
}

func loadFileConfig(path string) (FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, err
	}
	var fileCfg FileConfig
	if err := json.Unmarshal(raw, &fileCfg); err != nil {
		return FileConfig{}, err
	}
	return fileCfg, nil
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}
