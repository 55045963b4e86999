// Package config loads ClientConfig from a .env file (via godotenv) with
// environment-variable overrides, with the precedence env beats file
// beats built-in default.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// OverflowPolicy selects what the session does when the consumer queue
// is full.
type OverflowPolicy string

const (
	OverflowDropOldest OverflowPolicy = "drop-oldest"
	OverflowError      OverflowPolicy = "error"
)

// ClientConfig holds the client's runtime tunables.
type ClientConfig struct {
	ScanTimeout    time.Duration
	ConnectTimeout time.Duration
	CommandTimeout time.Duration

	QueueCapacity int
	OverflowPolicy OverflowPolicy

	ClockRoundtripEnabled  bool
	ClockRoundtripInterval time.Duration

	// RealTimeRateHz is the default real-time streaming rate; 0 means
	// "device default" (50 Hz).
	RealTimeRateHz uint16

	// DebugHTTPAddr, when non-empty, starts the optional debug status
	// endpoint at this address.
	DebugHTTPAddr string
	LogLevel      logrus.Level
}

// Default returns the built-in defaults, used as the base layer under
// .env and then environment-variable overrides.
func Default() ClientConfig {
	return ClientConfig{
		ScanTimeout:            10 * time.Second,
		ConnectTimeout:         10 * time.Second,
		CommandTimeout:         2 * time.Second,
		QueueCapacity:          256,
		OverflowPolicy:         OverflowDropOldest,
		ClockRoundtripEnabled:  false,
		ClockRoundtripInterval: time.Second,
		RealTimeRateHz:         0,
		DebugHTTPAddr:          "",
		LogLevel:               logrus.InfoLevel,
	}
}

// Load builds a ClientConfig starting from Default(), then applying
// values from a .env file found by walking up from the working
// directory, then applying any corresponding environment variables.
func Load() (ClientConfig, error) {
	cfg := Default()

	envPath := filepath.Join(findProjectRoot(), ".env")
	if fileVars, err := godotenv.Read(envPath); err == nil {
		applyVars(&cfg, fileVars)
	}
	applyVars(&cfg, envFromOS())

	return cfg, nil
}

func envFromOS() map[string]string {
	vars := map[string]string{}
	for _, key := range []string{
		"CAPTURE2GO_SCAN_TIMEOUT", "CAPTURE2GO_CONNECT_TIMEOUT", "CAPTURE2GO_COMMAND_TIMEOUT",
		"CAPTURE2GO_QUEUE_CAPACITY", "CAPTURE2GO_OVERFLOW_POLICY",
		"CAPTURE2GO_CLOCK_ROUNDTRIP_ENABLED", "CAPTURE2GO_CLOCK_ROUNDTRIP_INTERVAL",
		"CAPTURE2GO_REALTIME_RATE_HZ", "CAPTURE2GO_DEBUG_HTTP_ADDR", "CAPTURE2GO_LOG_LEVEL",
	} {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}
	return vars
}

func applyVars(cfg *ClientConfig, vars map[string]string) {
	if v, ok := vars["CAPTURE2GO_SCAN_TIMEOUT"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ScanTimeout = d
		}
	}
	if v, ok := vars["CAPTURE2GO_CONNECT_TIMEOUT"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ConnectTimeout = d
		}
	}
	if v, ok := vars["CAPTURE2GO_COMMAND_TIMEOUT"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CommandTimeout = d
		}
	}
	if v, ok := vars["CAPTURE2GO_QUEUE_CAPACITY"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueCapacity = n
		}
	}
	if v, ok := vars["CAPTURE2GO_OVERFLOW_POLICY"]; ok {
		switch OverflowPolicy(v) {
		case OverflowDropOldest, OverflowError:
			cfg.OverflowPolicy = OverflowPolicy(v)
		}
	}
	if v, ok := vars["CAPTURE2GO_CLOCK_ROUNDTRIP_ENABLED"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ClockRoundtripEnabled = b
		}
	}
	if v, ok := vars["CAPTURE2GO_CLOCK_ROUNDTRIP_INTERVAL"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ClockRoundtripInterval = d
		}
	}
	if v, ok := vars["CAPTURE2GO_REALTIME_RATE_HZ"]; ok {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			cfg.RealTimeRateHz = uint16(n)
		}
	}
	if v, ok := vars["CAPTURE2GO_DEBUG_HTTP_ADDR"]; ok {
		cfg.DebugHTTPAddr = v
	}
	if v, ok := vars["CAPTURE2GO_LOG_LEVEL"]; ok {
		if lvl, err := logrus.ParseLevel(v); err == nil {
			cfg.LogLevel = lvl
		}
	}
}

func findProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if _, err := os.Stat(filepath.Join(cwd, ".env")); err == nil {
		return cwd
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return cwd
		}
		cwd = parent
	}
}
