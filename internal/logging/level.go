package logging

import (
	"strconv"

	"github.com/pkg/errors"
)

// Level selects how much a logger emits. Higher is more verbose; the
// named levels cover normal operation, Debug is numeric level 1, and
// numeric levels up to MaxLevel allow finer per-frame tracing (e.g. the
// headless presenter logs every ShowFrame at level 1, i.e. Debug).
type Level int

const (
	Error Level = iota - 2
	Warn
	Info
	Debug

	// Highest accepted numeric trace level.
	MaxLevel Level = 9
)

// levelNames maps the spellings accepted in LOGLEVEL directives. TRACE is
// shorthand for the maximum numeric level.
var levelNames = map[string]Level{
	"E": Error, "ERROR": Error,
	"W": Warn, "WARN": Warn,
	"I": Info, "INFO": Info,
	"D": Debug, "DEBUG": Debug,
	"T": MaxLevel, "TRACE": MaxLevel,
}

func parseLevel(s string) (Level, error) {
	if level, ok := levelNames[upper(s)]; ok {
		return level, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("unknown logging level %q", s)
	}
	if level := Level(n); level >= Error && level <= MaxLevel {
		return level, nil
	}
	return 0, errors.Errorf("numeric logging level %d out of range", n)
}

// upper is ASCII-only uppercasing; directives never carry anything else.
func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func (l Level) String() string {
	for name, level := range levelNames {
		if level == l && len(name) > 1 {
			return name
		}
	}
	return strconv.Itoa(int(l))
}

// letter is the single-character level marker in the message prefix.
func (l Level) letter() byte {
	if l <= Debug {
		return "EWID"[l-Error]
	}
	return byte('0' + l)
}
