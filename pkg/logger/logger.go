package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var (
	mu           sync.RWMutex
	currentLevel = INFO
	sink         fileSink
)

// fileSink is an optional JSON-lines file target with size-based rotation.
type fileSink struct {
	file         *os.File
	path         string
	maxSizeBytes int64
	maxAgeDays   int
	written      int64
}

type entry struct {
	Level     string                 `json:"level"`
	Timestamp string                 `json:"timestamp"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// EnableFileLogging mirrors log entries to a JSON-lines file. maxSizeMB <= 0
// disables rotation; maxAgeDays <= 0 disables cleanup of rotated files.
func EnableFileLogging(path string, maxSizeMB, maxAgeDays int) error {
	mu.Lock()
	defer mu.Unlock()

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	var written int64
	if stat, err := file.Stat(); err == nil {
		written = stat.Size()
	}

	if sink.file != nil {
		sink.file.Close()
	}
	sink = fileSink{
		file:         file,
		path:         path,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
		maxAgeDays:   maxAgeDays,
		written:      written,
	}

	log.Println("File logging enabled:", path)
	return nil
}

func DisableFileLogging() {
	mu.Lock()
	defer mu.Unlock()
	if sink.file != nil {
		sink.file.Close()
		sink = fileSink{}
	}
}

func (s *fileSink) rotate() {
	if s.maxSizeBytes <= 0 || s.written < s.maxSizeBytes {
		return
	}

	s.file.Close()
	rotated := fmt.Sprintf("%s.%s", s.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(s.path, rotated); err != nil {
		log.Printf("Failed to rotate log file: %v", err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("Failed to reopen log file after rotation: %v", err)
		s.file = nil
		return
	}
	s.file = file
	s.written = 0

	go cleanRotated(s.path, s.maxAgeDays)
}

func cleanRotated(path string, maxAgeDays int) {
	if maxAgeDays <= 0 {
		return
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), base+".") {
			continue
		}
		if info, err := e.Info(); err == nil && info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}

func logMessage(level LogLevel, component, message string, fields map[string]interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if level < currentLevel {
		return
	}

	e := entry{
		Level:     levelNames[level],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	if sink.file != nil {
		sink.rotate()
		if data, err := json.Marshal(e); err == nil && sink.file != nil {
			if n, err := sink.file.WriteString(string(data) + "\n"); err == nil {
				sink.written += int64(n)
			}
		}
	}

	var fieldStr string
	if len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for k, v := range fields {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		fieldStr = fmt.Sprintf(" {%s}", strings.Join(parts, ", "))
	}

	prefix := ""
	if component != "" {
		prefix = fmt.Sprintf(" %s:", component)
	}

	log.Printf("[%s] [%s]%s %s%s", e.Timestamp, e.Level, prefix, message, fieldStr)

	if level == FATAL {
		os.Exit(1)
	}
}

func Debug(message string) { logMessage(DEBUG, "", message, nil) }

func Info(message string) { logMessage(INFO, "", message, nil) }

func Warn(message string) { logMessage(WARN, "", message, nil) }

func Error(message string) { logMessage(ERROR, "", message, nil) }

func Fatal(message string) { logMessage(FATAL, "", message, nil) }

func DebugC(component, message string) { logMessage(DEBUG, component, message, nil) }

func InfoC(component, message string) { logMessage(INFO, component, message, nil) }

func WarnC(component, message string) { logMessage(WARN, component, message, nil) }

func ErrorC(component, message string) { logMessage(ERROR, component, message, nil) }

func FatalC(component, message string) { logMessage(FATAL, component, message, nil) }

func DebugCF(component, message string, fields map[string]interface{}) {
	logMessage(DEBUG, component, message, fields)
}

func InfoCF(component, message string, fields map[string]interface{}) {
	logMessage(INFO, component, message, fields)
}

func WarnCF(component, message string, fields map[string]interface{}) {
	logMessage(WARN, component, message, fields)
}

func ErrorCF(component, message string, fields map[string]interface{}) {
	logMessage(ERROR, component, message, fields)
}
