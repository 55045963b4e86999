package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDocumentedValues(t *testing.T) {
	cfg := Default()
	require.Equal(t, 10*time.Second, cfg.ScanTimeout)
	require.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	require.Equal(t, 2*time.Second, cfg.CommandTimeout)
	require.Equal(t, 256, cfg.QueueCapacity)
	require.Equal(t, OverflowDropOldest, cfg.OverflowPolicy)
	require.False(t, cfg.ClockRoundtripEnabled)
	require.EqualValues(t, 0, cfg.RealTimeRateHz)
	require.Empty(t, cfg.DebugHTTPAddr)
	require.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestApplyVarsOverridesIndividualFields(t *testing.T) {
	cfg := Default()
	applyVars(&cfg, map[string]string{
		"CAPTURE2GO_QUEUE_CAPACITY":           "1024",
		"CAPTURE2GO_OVERFLOW_POLICY":          "error",
		"CAPTURE2GO_CLOCK_ROUNDTRIP_ENABLED":  "true",
		"CAPTURE2GO_CLOCK_ROUNDTRIP_INTERVAL": "500ms",
		"CAPTURE2GO_REALTIME_RATE_HZ":         "200",
		"CAPTURE2GO_DEBUG_HTTP_ADDR":          "localhost:9000",
		"CAPTURE2GO_LOG_LEVEL":                "debug",
	})

	require.Equal(t, 1024, cfg.QueueCapacity)
	require.Equal(t, OverflowError, cfg.OverflowPolicy)
	require.True(t, cfg.ClockRoundtripEnabled)
	require.Equal(t, 500*time.Millisecond, cfg.ClockRoundtripInterval)
	require.EqualValues(t, 200, cfg.RealTimeRateHz)
	require.Equal(t, "localhost:9000", cfg.DebugHTTPAddr)
	require.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestApplyVarsIgnoresUnparsableValues(t *testing.T) {
	cfg := Default()
	applyVars(&cfg, map[string]string{
		"CAPTURE2GO_QUEUE_CAPACITY":  "not-a-number",
		"CAPTURE2GO_OVERFLOW_POLICY": "not-a-policy",
	})
	require.Equal(t, Default().QueueCapacity, cfg.QueueCapacity)
	require.Equal(t, Default().OverflowPolicy, cfg.OverflowPolicy)
}
