// Package observability provides bear's structured, leveled logger. bear has
// no cloud logging backend to ship to: every session is local and
// interactive, so severities are rendered to a local writer (stdout or a
// debug file) rather than a remote sink.
package observability

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Severity is a four-level taxonomy, kept even though there is no cloud sink
// to route it to.
type Severity string

const (
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Logger writes tagged, leveled lines to an underlying writer.
type Logger struct {
	out *log.Logger
	min Severity
}

var severityRank = map[Severity]int{
	SeverityDebug:   0,
	SeverityInfo:    1,
	SeverityWarning: 2,
	SeverityError:   3,
}

// New returns a Logger writing to w (typically os.Stdout), suppressing
// anything below min.
func New(w io.Writer, min Severity) *Logger {
	return &Logger{out: log.New(w, "", 0), min: min}
}

// Default is a Logger writing INFO and above to stdout.
func Default() *Logger { return New(os.Stdout, SeverityInfo) }

func (l *Logger) log(sev Severity, format string, args ...any) {
	if severityRank[sev] < severityRank[l.min] {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.out.Printf("%s [bear] [%s] %s", time.Now().Format(time.RFC3339), sev, msg)
}

func (l *Logger) Debug(format string, args ...any)   { l.log(SeverityDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)    { l.log(SeverityInfo, format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.log(SeverityWarning, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.log(SeverityError, format, args...) }
