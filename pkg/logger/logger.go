package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"
)

var std = newLogger()

// Options controls where and how verbosely the service logs
type Options struct {
	Level      string // DEBUG, INFO, WARN or ERROR
	Directory  string
	MaxAgeDays int
	ToFile     bool
}

// LogFormatter log formatter structure
type LogFormatter struct {
	TimestampFormat string
	LevelDesc       []string
}

// Format format entry in custom format
func (f *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(f.TimestampFormat)
	level := f.LevelDesc[entry.Level]

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", timestamp, level, entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func newLogger() *log.Logger {
	l := log.New()
	l.SetFormatter(&LogFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		LevelDesc:       []string{"PANIC", "FATAL", "ERROR", "WARN", "INFO", "DEBUG", "TRACE"},
	})
	l.SetOutput(os.Stdout)
	l.SetLevel(log.InfoLevel)
	return l
}

// Init initializes the logger from LOG_LEVEL, LOG_DIRECTORY, LOG_FILE_MAX_AGE
// and LOG_TO_FILE
func Init() {
	maxAge, err := strconv.Atoi(os.Getenv("LOG_FILE_MAX_AGE"))
	if err != nil || maxAge <= 0 {
		maxAge = 2
	}
	toFile, _ := strconv.ParseBool(os.Getenv("LOG_TO_FILE"))

	opts := Options{
		Level:      os.Getenv("LOG_LEVEL"),
		Directory:  os.Getenv("LOG_DIRECTORY"),
		MaxAgeDays: maxAge,
		ToFile:     toFile,
	}
	if err := Configure(opts); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v, logging to stdout\n", err)
	}
}

// Configure applies opts. With ToFile the output goes to hourly rotated files
// under a folder per day, and rotated files are gzipped.
func Configure(opts Options) error {
	std.SetLevel(parseLevel(opts.Level))

	if !opts.ToFile {
		std.SetOutput(os.Stdout)
		return nil
	}

	if opts.Directory == "" {
		opts.Directory = "./logs"
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 2
	}

	logFile := filepath.Join(opts.Directory, ".log")
	dateFolder, err := createLogFolder(logFile)
	if err != nil {
		return fmt.Errorf("create log folder: %w", err)
	}

	rl, err := initializeLogRotation(logFile, dateFolder, opts.MaxAgeDays)
	if err != nil {
		return fmt.Errorf("init log rotation: %w", err)
	}
	std.SetOutput(io.MultiWriter(os.Stdout, rl))

	deleteOldLogFilesRoutine(opts.Directory, opts.MaxAgeDays)
	return nil
}

// SetOutput redirects all log output
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetLevel changes the minimum level that is written
func SetLevel(level string) {
	std.SetLevel(parseLevel(level))
}

func parseLevel(level string) log.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return log.DebugLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Info logs informational messages
func Info(message string) {
	std.Info(message)
}

// Error logs error messages
func Error(message string) {
	std.Error(message)
}

// Debug logs debug messages
func Debug(message string) {
	std.Debug(message)
}

// Warn logs warning messages
func Warn(message string) {
	std.Warn(message)
}

// Fatal logs fatal error and exits
func Fatal(message string) {
	std.Fatal(message)
}

// Infof logs formatted informational message
func Infof(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Warnf logs formatted warning message
func Warnf(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Errorf logs formatted error message
func Errorf(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Debugf logs formatted debug message
func Debugf(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

// WithFields logs with additional context
func WithFields(fields map[string]interface{}, message string) {
	std.WithFields(log.Fields(fields)).Info(message)
}

// WriteLog writes a log entry at the given level tagged with a request id and key
func WriteLog(level string, requestID string, key string, message interface{}) {
	if requestID == "" {
		requestID = "no-uuid-found"
	}

	line := fmt.Sprintf("[%v] [%v] | %+v", key, requestID, message)
	switch strings.ToUpper(level) {
	case "ERROR":
		std.Error(line)
	case "WARN", "WARNING":
		std.Warn(line)
	case "DEBUG":
		std.Debug(line)
	default:
		std.Info(line)
	}
}

func sortedKeys(fields log.Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// createLogFolder creates a folder for logs based on the current date
func createLogFolder(logFile string) (string, error) {
	baseDir := filepath.Dir(logFile)
	dateFolder := filepath.Join(baseDir, time.Now().Format("2006-01-02"))
	err := os.MkdirAll(dateFolder, 0755)
	return dateFolder, err
}

func initializeLogRotation(logFile, dateFolder string, maxAgeDays int) (*rotatelogs.RotateLogs, error) {
	return rotatelogs.New(
		fmt.Sprintf("%s/%%Y-%%m-%%d-%%H%s", dateFolder, filepath.Base(logFile)),
		rotatelogs.WithLinkName(fmt.Sprintf("%s/%s", dateFolder, filepath.Base(logFile))),
		rotatelogs.WithRotationTime(time.Hour),
		rotatelogs.WithMaxAge(time.Duration(maxAgeDays)*24*time.Hour),
		rotatelogs.WithHandler(rotatelogs.HandlerFunc(func(e rotatelogs.Event) {
			if e.Type() != rotatelogs.FileRotatedEventType {
				return
			}
			previous := e.(*rotatelogs.FileRotatedEvent).PreviousFile()
			if previous == "" {
				return
			}
			if err := compressLogFile(previous); err != nil {
				std.Warnf("compress rotated log: %v", err)
			}
		})),
	)
}
