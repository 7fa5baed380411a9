// Package logging provides the leveled logger shared by the slicemovie tools.
//
// Console lines are written as plain messages so progress output reads like
// ordinary command output. When a log file is configured every message is also
// appended, with timestamp and level, to a size-rotated file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
)

// ModeFlag is the minimum severity a message needs to be written.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	SilentMode
)

// String returns the level label used in the log file.
func (m ModeFlag) String() string {
	switch m {
	case DebugMode:
		return "DEBUG"
	case InfoMode:
		return "INFO"
	case WarningMode:
		return "WARNING"
	case ErrorMode:
		return "ERROR"
	case SilentMode:
		return "SILENT"
	default:
		return fmt.Sprintf("ModeFlag(%d)", uint(m))
	}
}

// Config configures a Logger.
type Config struct {
	// File is the rotating log file. Empty disables file logging.
	File string `yaml:"file" toml:"file"`
	// MaxSize is the size in megabytes before the file is rotated.
	MaxSize int `yaml:"max_log_size" toml:"max_log_size"`
	// MaxAge is the number of days rotated files are kept.
	MaxAge int `yaml:"max_log_age" toml:"max_log_age"`
	// Verbose enables debug messages.
	Verbose bool `yaml:"verbose" toml:"verbose"`
	// Quiet suppresses informational console output. Warnings and errors
	// are still printed.
	Quiet bool `yaml:"-" toml:"-"`
}

// Logger writes leveled messages to the console and an optional file.
// A nil *Logger discards everything.
type Logger struct {
	mu      sync.Mutex
	console io.Writer
	mode    ModeFlag
	quiet   bool
	file    *lumberjack.Logger
	flog    *log.Logger
}

// New creates a logger printing to stdout.
func New(cfg Config) *Logger {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter creates a logger printing console lines to w.
func NewWithWriter(w io.Writer, cfg Config) *Logger {
	l := &Logger{
		console: w,
		mode:    InfoMode,
		quiet:   cfg.Quiet,
	}
	if cfg.Verbose {
		l.mode = DebugMode
	}
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  cfg.MaxSize, // megabytes
			MaxAge:   cfg.MaxAge,  // days
		}
		l.flog = log.New(l.file, "", log.LstdFlags)
	}
	return l
}

// Discard returns a logger that drops all messages.
func Discard() *Logger {
	return NewWithWriter(io.Discard, Config{Quiet: true})
}

// SetMode sets the severity required for a message to be written.
func (l *Logger) SetMode(m ModeFlag) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.mode = m
	l.mu.Unlock()
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.output(DebugMode, format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.output(InfoMode, format, args...)
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.output(WarningMode, format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.output(ErrorMode, format, args...)
}

func (l *Logger) output(level ModeFlag, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.mode {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")

	if l.flog != nil {
		l.flog.Printf(" %s %s", level, msg)
	}
	if l.quiet && level < WarningMode {
		return
	}
	fmt.Fprintln(l.console, msg)
}

// Shutdown closes the log file, if any.
func (l *Logger) Shutdown() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
