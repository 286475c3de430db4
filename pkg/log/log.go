// Package log provides colored console messages for the user and a
// structured debug logger for transport events.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var red = color.New(color.FgRed).FprintfFunc()
var blue = color.New(color.FgBlue).FprintfFunc()

// ErrorMsg prints an error message to stderr in red color.
func ErrorMsg(format string, a ...interface{}) {
	red(os.Stderr, "[!] Error: "+format, a...)
}

// InfoMsg prints an informational message to stderr in blue color.
func InfoMsg(format string, a ...interface{}) {
	blue(os.Stderr, "[+] "+format, a...)
}

// Logger writes user messages to stderr and, when verbose, structured
// debug events. A nil *Logger is valid and discards everything.
type Logger struct {
	verbose bool
	z       *zap.Logger
}

// NewLogger creates a Logger. Debug events are only emitted when verbose is set.
func NewLogger(verbose bool) *Logger {
	return newLogger(verbose, os.Stderr)
}

func newLogger(verbose bool, w io.Writer) *Logger {
	if !verbose {
		return &Logger{z: zap.NewNop()}
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.DebugLevel)

	return &Logger{
		verbose: true,
		z:       zap.New(core),
	}
}

// Verbose reports whether debug events are emitted.
func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

// ErrorMsg prints an error message to stderr in red color.
func (l *Logger) ErrorMsg(format string, a ...interface{}) {
	if l == nil {
		return
	}
	ErrorMsg(format, a...)
}

// InfoMsg prints an informational message to stderr in blue color.
func (l *Logger) InfoMsg(format string, a ...interface{}) {
	if l == nil {
		return
	}
	InfoMsg(format, a...)
}

// VerboseMsg emits a formatted debug message if verbose logging is enabled.
func (l *Logger) VerboseMsg(format string, a ...interface{}) {
	if !l.Verbose() {
		return
	}
	l.z.Debug(fmt.Sprintf(format, a...))
}

// Debug emits a structured debug event.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if !l.Verbose() {
		return
	}
	l.z.Debug(msg, fields...)
}

// Sync flushes buffered debug events.
func (l *Logger) Sync() {
	if l == nil || l.z == nil {
		return
	}
	_ = l.z.Sync()
}
