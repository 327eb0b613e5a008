package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// The LOGLEVEL environment variable tunes verbosity as a comma-separated
// list of directives: a bare level sets the default, "tag=level" pins one
// component's logger. The tags in this repo are receiver, decode, va,
// audio, input, window and main, e.g.
//
//	LOGLEVEL=warn,decode=debug,window=1
const envVar = "LOGLEVEL"

var (
	defaultLevel = Info
	tagLevels    = map[string]Level{}
)

func init() {
	for _, directive := range strings.Split(os.Getenv(envVar), ",") {
		if directive == "" {
			continue
		}
		tag, levelString, scoped := strings.Cut(directive, "=")
		if !scoped {
			levelString = tag
		}
		level, err := parseLevel(levelString)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring %s directive %q: %v\n",
				envVar, directive, err)
			continue
		}
		if scoped {
			tagLevels[tag] = level
		} else {
			defaultLevel = level
		}
	}
	DefaultLogger.Level = defaultLevel
}

// determineLevel resolves a logger's level: an explicit LOGLEVEL
// directive for the tag wins, anything else keeps the fallback.
func determineLevel(tag string, fallback Level) Level {
	if level, ok := tagLevels[tag]; ok {
		return level
	}
	return fallback
}

type Logger struct {
	// The level at which this logger logs. Any log messages intended for a higher
	// (more verbose) log level are ignored.
	Level

	// Tag used to filter and classify log messages.
	Tag string

	out io.Writer

	// Mutex to prevent messages from different goroutines from interleaving.
	// Shared by all derived loggers.
	mu *sync.Mutex
}

// Write to stderr by default.
var DefaultLogger = &Logger{defaultLevel, "", os.Stderr, new(sync.Mutex)}

// Override the destination for this logger.
func (log *Logger) SetDestination(out io.Writer) {
	log.out = out
}

// Derive a new logger with the given tag. Look up the level based on the tag.
func (log *Logger) WithTag(tag string) *Logger {
	return &Logger{determineLevel(tag, log.Level), tag, log.out, log.mu}
}

// Derive a new logger with the given default level. This can still be
// overridden at runtime.
func (log *Logger) WithDefaultLevel(level Level) *Logger {
	return &Logger{determineLevel(log.Tag, level), log.Tag, log.out, log.mu}
}

var (
	prefixColor = color.New(color.Faint)
	levelColors = map[Level]*color.Color{
		Error: color.New(color.FgRed, color.Bold),
		Warn:  color.New(color.FgRed),
		Info:  color.New(color.Reset),
		Debug: color.New(color.FgGreen),
	}
	verboseColor = color.New(color.FgYellow)
)

func (l Level) sprintf(format string, a ...interface{}) string {
	if c, ok := levelColors[l]; ok {
		return c.Sprintf(format, a...)
	}
	return verboseColor.Sprintf(format, a...)
}

// Log a message at the given level. Include the file and line number from
// 'calldepth' steps up the call stack.
func (log *Logger) Log(level Level, calldepth int, format string, a ...interface{}) {
	if level > log.Level {
		// Message is too verbose for this logger.
		return
	}

	// Get the caller of Error()/Warn()/Info()/etc.
	_, file, line, ok := runtime.Caller(calldepth + 1)
	if !ok {
		file = "?"
	}

	prefix := prefixColor.Sprintf("%s %c/%s[%s:%d]",
		time.Now().Format(timestampFormat), level.letter(), log.Tag,
		filepath.Base(file), line)
	msg := level.sprintf(format, a...)
	if n := len(msg); n == 0 || msg[n-1] != '\n' {
		msg += "\n"
	}

	// Lock before writing to avoid interleaving of log messages.
	log.mu.Lock()
	fmt.Fprintf(log.out, "%s %s", prefix, msg)
	log.mu.Unlock()
}

func (log *Logger) Error(format string, a ...interface{}) {
	log.Log(Error, 1, format, a...)
}

func (log *Logger) Warn(format string, a ...interface{}) {
	log.Log(Warn, 1, format, a...)
}

func (log *Logger) Info(format string, a ...interface{}) {
	log.Log(Info, 1, format, a...)
}

func (log *Logger) Debug(format string, a ...interface{}) {
	log.Log(Debug, 1, format, a...)
}

func (log *Logger) Trace(n int, format string, a ...interface{}) {
	log.Log(Level(n), 1, format, a...)
}
