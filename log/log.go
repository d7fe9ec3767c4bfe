package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// output is a structure for std logs.
type output struct {
	std     io.Writer
	message string
}

var (
	mu           sync.RWMutex
	globalLogger *logger

	// stdout and stderr are swapped in tests.
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Init inits global logger. Messages logged before Init, or after Close, are
// discarded.
func Init(level string, json bool) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.close()
	}
	globalLogger = newLogger(level, json)
}

// logLevel is the level of Logger.
type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelWarning
	levelError
)

// String returns the string representation of logLevel.
func (l logLevel) String() string {
	switch l {
	case levelInfo:
		return ""
	case levelError:
		return "ERROR "
	case levelWarning:
		return "WARNING "
	case levelDebug:
		return "DEBUG "
	default:
		return "UNKNOWN "
	}
}

// levelFromString returns logLevel for given string. It
// return `levelInfo` as a default.
func levelFromString(s string) logLevel {
	switch s {
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warning":
		return levelWarning
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// logger is a structure for logging messages.
type logger struct {
	// outputCh is used to synchronize writes to standard output. Multi-line
	// logging is not possible if all workers print logs at the same time.
	outputCh chan output
	donech   chan struct{}
	json     bool
	level    logLevel
}

// newLogger creates new logger.
func newLogger(level string, json bool) *logger {
	logLevel := levelFromString(level)
	logger := &logger{
		outputCh: make(chan output, 10000),
		donech:   make(chan struct{}),
		json:     json,
		level:    logLevel,
	}
	go logger.out()
	return logger
}

// printf prints message according to the given level, message and std mode.
func (l *logger) printf(level logLevel, message Message, std io.Writer) {
	if level < l.level {
		return
	}

	if l.json {
		l.outputCh <- output{
			message: message.JSON(),
			std:     std,
		}
	} else {
		l.outputCh <- output{
			message: fmt.Sprintf("%v%v", level, message.String()),
			std:     std,
		}
	}
}

func printf(level logLevel, message Message, std io.Writer) {
	mu.RLock()
	defer mu.RUnlock()

	if globalLogger == nil {
		return
	}
	globalLogger.printf(level, message, std)
}

// Debug prints message in debug mode.
func Debug(msg Message) {
	printf(levelDebug, msg, stdout)
}

// Info prints message in info mode.
func Info(msg Message) {
	printf(levelInfo, msg, stdout)
}

// Warning prints message in warning mode.
func Warning(msg Message) {
	printf(levelWarning, msg, stderr)
}

// Error prints message in error mode.
func Error(msg Message) {
	printf(levelError, msg, stderr)
}

// out listens for outputCh and logs messages.
func (l *logger) out() {
	defer close(l.donech)

	for output := range l.outputCh {
		_, _ = fmt.Fprintln(output.std, output.message)
	}
}

func (l *logger) close() {
	close(l.outputCh)
	<-l.donech
}

// Close flushes pending messages and closes the logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		return
	}
	globalLogger.close()
	globalLogger = nil
}
