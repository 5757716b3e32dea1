// Package logger writes key=value log lines for the mailer.
// Debug lines only appear when verbose mode is on (--verbose).
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	std     = log.New(os.Stderr, "", log.LstdFlags)
)

// SetVerbose enables or disables debug lines.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput swaps the destination. Tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

func Debug(msg string, kv ...any) {
	if !IsVerbose() {
		return
	}
	emit("debug", msg, kv)
}

func Info(msg string, kv ...any)  { emit("info", msg, kv) }
func Warn(msg string, kv ...any)  { emit("warn", msg, kv) }
func Error(msg string, kv ...any) { emit("error", msg, kv) }

func emit(level, msg string, kv []any) {
	mu.RLock()
	defer mu.RUnlock()
	std.Print(Format(level, msg, kv...))
}

// Format renders one line: level=info msg="..." k=v ...
// A trailing key without a value is written as key=(missing).
func Format(level, msg string, kv ...any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "level=%s msg=%q", level, msg)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			fmt.Fprintf(&b, " %s=(missing)", key)
			break
		}
		fmt.Fprintf(&b, " %s=%s", key, value(kv[i+1]))
	}
	return b.String()
}

func value(v any) string {
	if err, ok := v.(error); ok {
		v = err.Error()
	}
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
