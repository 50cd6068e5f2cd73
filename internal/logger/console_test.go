package logger

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		logLevel     string
		messageLevel string
		shouldAppear bool
	}{
		{name: "trace sees debug", logLevel: "trace", messageLevel: "debug", shouldAppear: true},
		{name: "debug sees debug", logLevel: "debug", messageLevel: "debug", shouldAppear: true},
		{name: "info blocks debug", logLevel: "info", messageLevel: "debug", shouldAppear: false},
		{name: "info sees info", logLevel: "info", messageLevel: "info", shouldAppear: true},
		{name: "info sees error", logLevel: "info", messageLevel: "error", shouldAppear: true},
		{name: "warn blocks info", logLevel: "warn", messageLevel: "info", shouldAppear: false},
		{name: "warn sees warn", logLevel: "warn", messageLevel: "warn", shouldAppear: true},
		{name: "error blocks warn", logLevel: "error", messageLevel: "warn", shouldAppear: false},
		{name: "error sees error", logLevel: "error", messageLevel: "error", shouldAppear: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := NewConsoleLogger(buf, tt.logLevel)

			switch tt.messageLevel {
			case "debug":
				l.LogDebug("msg")
			case "info":
				l.LogInfo("msg")
			case "warn":
				l.LogWarn("msg")
			case "error":
				l.LogError("msg")
			}

			assert.Equal(t, tt.shouldAppear, strings.Contains(buf.String(), "msg"))
		})
	}
}

func TestConsoleLoggerFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "info")

	l.LogWarn("container is stopped")

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[WARN\] container is stopped\n$`)
	assert.Regexp(t, pattern, buf.String())
}

func TestNormalizeLogLevel(t *testing.T) {
	assert.Equal(t, "info", normalizeLogLevel(""))
	assert.Equal(t, "info", normalizeLogLevel("verbose"))
	assert.Equal(t, "debug", normalizeLogLevel(" DEBUG "))
	assert.Equal(t, "warn", normalizeLogLevel("warning"))
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "error")

	l.LogInfo("hidden")
	l.SetLevel("debug")
	l.LogDebug("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Equal(t, "debug", l.Level())
}

func TestNilWriterDiscards(t *testing.T) {
	l := NewConsoleLogger(nil, "trace")
	assert.NotPanics(t, func() { l.LogError("nothing") })
}
