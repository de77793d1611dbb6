package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	SocketPath        string
	DBPath            string
	Premium           bool
	DesktopNotify     bool
	ReconcileInterval time.Duration
	EntitlementTTL    time.Duration
	ShutdownTimeout   time.Duration
	ClientTimeout     time.Duration
	GradualVolumeRamp time.Duration
	SessionTickPeriod time.Duration
}

func DefaultConfig() Config {
	return Config{
		SocketPath:        defaultSocketPath(),
		DBPath:            defaultDBPath(),
		Premium:           false,
		DesktopNotify:     true,
		ReconcileInterval: 1 * time.Minute,
		EntitlementTTL:    5 * time.Minute,
		ShutdownTimeout:   5 * time.Second,
		ClientTimeout:     5 * time.Second,
		GradualVolumeRamp: 3 * time.Second,
		SessionTickPeriod: 1 * time.Second,
	}
}

// FromEnv layers a .env file (if present in the working directory) and
// process environment variables over the defaults.
func FromEnv() Config {
	_ = godotenv.Load()
	cfg := DefaultConfig()
	if v := os.Getenv("ALARMD_SOCKET"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("ALARMD_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ALARMD_PREMIUM"); v != "" {
		cfg.Premium = parseBool(v, cfg.Premium)
	}
	if v := os.Getenv("ALARMD_DESKTOP_NOTIFY"); v != "" {
		cfg.DesktopNotify = parseBool(v, cfg.DesktopNotify)
	}
	if v := os.Getenv("ALARMD_RECONCILE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ReconcileInterval = d
		}
	}
	return cfg
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func defaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir != "" {
		return filepath.Join(runtimeDir, "alarmd", "alarmd.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".alarmd.sock"
	}
	return filepath.Join(home, ".local", "state", "alarmd", "alarmd.sock")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "alarmd.db"
	}
	return filepath.Join(home, ".local", "state", "alarmd", "state.db")
}
