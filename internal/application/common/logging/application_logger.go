package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ApplicationLogger defines the interface for structured application logging.
type ApplicationLogger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)
	ErrorWithError(ctx context.Context, err error, message string, fields Fields)
	LogPerformance(ctx context.Context, operation string, duration time.Duration, fields Fields)
	WithComponent(component string) ApplicationLogger
}

// Fields represents structured logging fields.
type Fields map[string]interface{}

// Config represents logger configuration.
type Config struct {
	Level  string
	Format string // json, text
	Output string // stdout, stderr, buffer (for testing)
}

// LogEntry is the JSON shape of a single log line.
type LogEntry struct {
	Timestamp     string                 `json:"timestamp"`
	Level         string                 `json:"level"`
	Message       string                 `json:"message"`
	CorrelationID string                 `json:"correlation_id"`
	Component     string                 `json:"component"`
	Operation     string                 `json:"operation,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type contextKey string

const CorrelationIDKey contextKey = "correlation_id"

var levelRank = map[string]int{ //nolint:gochecknoglobals // Static lookup table.
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// lockedBuffer guards the test buffer, which is shared by every component logger.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type applicationLoggerImpl struct {
	config    Config
	component string
	buffer    *lockedBuffer
	logger    *log.Logger
}

// NewApplicationLogger creates a new application logger.
func NewApplicationLogger(config Config) (ApplicationLogger, error) {
	config.Level = strings.ToUpper(config.Level)
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	impl := &applicationLoggerImpl{config: config}

	var out io.Writer
	switch config.Output {
	case "buffer":
		impl.buffer = &lockedBuffer{}
		out = impl.buffer
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}
	impl.logger = log.New(out, "", 0)

	return impl, nil
}

func validateConfig(config Config) error {
	if _, ok := levelRank[config.Level]; !ok {
		return fmt.Errorf("invalid log level: %s", config.Level)
	}
	if config.Format != "json" && config.Format != "text" {
		return fmt.Errorf("invalid log format: %s", config.Format)
	}
	switch config.Output {
	case "stdout", "stderr", "buffer":
	default:
		return fmt.Errorf("invalid log output: %s", config.Output)
	}
	return nil
}

func (l *applicationLoggerImpl) shouldLog(level string) bool {
	return levelRank[level] >= levelRank[l.config.Level]
}

// Debug logs debug messages.
func (l *applicationLoggerImpl) Debug(ctx context.Context, message string, fields Fields) {
	l.log(ctx, "DEBUG", message, "", fields)
}

// Info logs info messages.
func (l *applicationLoggerImpl) Info(ctx context.Context, message string, fields Fields) {
	l.log(ctx, "INFO", message, "", fields)
}

// Warn logs warning messages.
func (l *applicationLoggerImpl) Warn(ctx context.Context, message string, fields Fields) {
	l.log(ctx, "WARN", message, "", fields)
}

// Error logs error messages.
func (l *applicationLoggerImpl) Error(ctx context.Context, message string, fields Fields) {
	l.log(ctx, "ERROR", message, "", fields)
}

// ErrorWithError logs error messages with an error object.
func (l *applicationLoggerImpl) ErrorWithError(ctx context.Context, err error, message string, fields Fields) {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	l.log(ctx, "ERROR", message, errStr, fields)
}

// LogPerformance logs the duration of a named operation.
func (l *applicationLoggerImpl) LogPerformance(
	ctx context.Context,
	operation string,
	duration time.Duration,
	fields Fields,
) {
	merged := make(Fields, len(fields)+2)
	for k, v := range fields {
		merged[k] = v
	}
	merged["operation"] = operation
	merged["duration"] = duration.String()
	l.log(ctx, "INFO", "Performance metrics for "+operation, "", merged)
}

// WithComponent creates a logger that shares output with l but tags entries with component.
func (l *applicationLoggerImpl) WithComponent(component string) ApplicationLogger {
	return &applicationLoggerImpl{
		config:    l.config,
		component: component,
		buffer:    l.buffer,
		logger:    l.logger,
	}
}

func (l *applicationLoggerImpl) log(ctx context.Context, level, message, errStr string, fields Fields) {
	if !l.shouldLog(level) {
		return
	}

	component := l.component
	if component == "" {
		component = "default"
	}

	entry := LogEntry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Level:         level,
		Message:       message,
		CorrelationID: getOrGenerateCorrelationID(ctx),
		Component:     component,
		Error:         errStr,
	}
	if len(fields) > 0 {
		entry.Metadata = make(map[string]interface{}, len(fields))
		for key, value := range fields {
			if op, ok := value.(string); ok && key == "operation" {
				entry.Operation = op
			}
			entry.Metadata[key] = value
		}
	}

	l.write(entry)
}

func (l *applicationLoggerImpl) write(entry LogEntry) {
	if l.config.Format == "json" {
		data, err := json.Marshal(entry)
		if err != nil {
			l.logger.Printf(`{"level":"ERROR","message":"unable to encode log entry","error":%q}`, err.Error())
			return
		}
		l.logger.Println(string(data))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", entry.Timestamp, entry.Level, entry.Component, entry.Message)
	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%q", entry.Error)
	}
	keys := make([]string, 0, len(entry.Metadata))
	for k := range entry.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Metadata[k])
	}
	l.logger.Print(b.String())
}

func getOrGenerateCorrelationID(ctx context.Context) string {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

// WithCorrelationID returns a context whose log entries carry id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// CorrelationIDFromContext returns the correlation id stored in ctx, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// BufferedOutput returns everything written by a logger created with Output "buffer".
func BufferedOutput(logger ApplicationLogger) string {
	if impl, ok := logger.(*applicationLoggerImpl); ok && impl.buffer != nil {
		return impl.buffer.String()
	}
	return ""
}

// BufferedEntries decodes the JSON lines written by a buffered logger.
func BufferedEntries(logger ApplicationLogger) []LogEntry {
	var entries []LogEntry
	for _, line := range strings.Split(BufferedOutput(logger), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}
