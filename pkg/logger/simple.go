package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// SimpleLogger is a dependency-free structured logger. It supports a
// key=value text mode and a JSON mode selected via LOG_FORMAT.
type SimpleLogger struct {
	level  LogLevel
	format string
	fields map[string]interface{}
}

// NewSimpleLogger builds a logger honoring LOG_LEVEL/LOG_FORMAT from the
// environment, matching the defaults a freshly started process would use.
func NewSimpleLogger() *SimpleLogger {
	l := &SimpleLogger{
		level:  InfoLevel,
		format: strings.ToLower(os.Getenv("LOG_FORMAT")),
		fields: make(map[string]interface{}),
	}
	l.SetLevel(GetLogLevel())
	return l
}

func (l *SimpleLogger) Debug(msg string, fields ...interface{}) {
	if l.level <= DebugLevel {
		l.log("DEBUG", msg, fields...)
	}
}

func (l *SimpleLogger) Info(msg string, fields ...interface{}) {
	if l.level <= InfoLevel {
		l.log("INFO", msg, fields...)
	}
}

func (l *SimpleLogger) Warn(msg string, fields ...interface{}) {
	if l.level <= WarnLevel {
		l.log("WARN", msg, fields...)
	}
}

func (l *SimpleLogger) Error(msg string, fields ...interface{}) {
	if l.level <= ErrorLevel {
		l.log("ERROR", msg, fields...)
	}
}

func (l *SimpleLogger) SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.level = DebugLevel
	case "INFO":
		l.level = InfoLevel
	case "WARN", "WARNING":
		l.level = WarnLevel
	case "ERROR":
		l.level = ErrorLevel
	}
}

func (l *SimpleLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *SimpleLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &SimpleLogger{level: l.level, format: l.format, fields: merged}
}

func (l *SimpleLogger) log(level, msg string, fields ...interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(fields)/2+1)
	for k, v := range l.fields {
		merged[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		merged[key] = fields[i+1]
	}
	// A lone trailing field with no paired value is still worth keeping,
	// just unlabeled.
	if len(fields)%2 == 1 {
		merged[fmt.Sprintf("arg%d", len(fields)-1)] = fields[len(fields)-1]
	}

	if l.format == "json" {
		record := map[string]interface{}{
			"level":     level,
			"msg":       msg,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		}
		for k, v := range merged {
			record[k] = v
		}
		data, err := json.Marshal(record)
		if err != nil {
			log.Printf("[%s] %s (field encoding error: %v)", level, msg, err)
			return
		}
		log.Println(string(data))
		return
	}

	parts := make([]string, 0, len(merged)+2)
	parts = append(parts, fmt.Sprintf("[%s]", level), msg)
	for k, v := range merged {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	log.Println(strings.Join(parts, " "))
}

// GetLogLevel reads the minimum level from the environment, defaulting to INFO.
func GetLogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "INFO"
	}
	return level
}
