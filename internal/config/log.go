package config

import (
	"log"
	"strings"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetLevel enables debug output for "DEBUG"; any other level keeps it off.
func SetLevel(level string) {
	debugEnabled.Store(strings.EqualFold(strings.TrimSpace(level), "DEBUG"))
}

// EnableDebug forces debug output on, used by --verbose.
func EnableDebug() {
	debugEnabled.Store(true)
}

// Debugf logs only when debug output is enabled.
func Debugf(format string, args ...any) {
	if debugEnabled.Load() {
		log.Printf("DEBUG "+format, args...)
	}
}
