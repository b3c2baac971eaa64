package logging

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// LogLevel orders message severities.
type LogLevel int

const (
	// DEBUG for detailed diagnostics, verbose.
	DEBUG LogLevel = iota
	// INFO for normal operation messages.
	INFO
	// WARN for conditions worth attention that do not fail anything.
	WARN
	// ERROR for failures the process survives.
	ERROR
	// FATAL for failures that terminate the process.
	FATAL
)

// Level labels as they appear in output.
const (
	labelDebug = "DEBUG"
	labelInfo  = "INFO"
	labelWarn  = "WARN"
	labelError = "ERROR"
	labelFatal = "FATAL"
)

// InvalidLevelError reports an unparseable level string.
type InvalidLevelError struct {
	Level string
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid log level: %s (must be DEBUG, INFO, WARN, ERROR, or FATAL)", e.Level)
}

// LogField is one structured key/value pair.
type LogField struct {
	Key   string
	Value interface{}
}

// Field builds a structured logging field.
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger writes leveled messages for one named component. Immutable: the
// With* methods return new instances.
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
}

// componentLogLevels holds per-component overrides, keyed by exact name or
// a "prefix.*" pattern.
var (
	componentLogLevels = make(map[string]LogLevel)
	componentLogMutex  sync.RWMutex
)

// SetComponentLogLevels replaces the per-component overrides. Patterns are
// exact names ("api") or prefix wildcards ("collect.*").
func SetComponentLogLevels(levels map[string]string) error {
	if levels == nil {
		return nil
	}

	parsed := make(map[string]LogLevel, len(levels))
	for name, levelStr := range levels {
		level, err := parseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("component %q: %w", name, err)
		}
		parsed[name] = level
	}

	componentLogMutex.Lock()
	defer componentLogMutex.Unlock()
	componentLogLevels = parsed
	return nil
}

// GetComponentLogLevel resolves the override for a component name: exact
// match first, then the most specific (longest) matching wildcard. Returns
// -1 when nothing matches.
func GetComponentLogLevel(name string) LogLevel {
	componentLogMutex.RLock()
	defer componentLogMutex.RUnlock()

	if level, ok := componentLogLevels[name]; ok {
		return level
	}

	var matches []string
	for pattern := range componentLogLevels {
		if matchesPattern(name, pattern) {
			matches = append(matches, pattern)
		}
	}
	if len(matches) == 0 {
		return LogLevel(-1)
	}
	sort.Slice(matches, func(i, j int) bool { return len(matches[i]) > len(matches[j]) })
	return componentLogLevels[matches[0]]
}

// matchesPattern reports whether name matches an exact pattern or a
// "prefix.*" wildcard.
func matchesPattern(name, pattern string) bool {
	if name == pattern {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(name, prefix+".")
	}
	return false
}
