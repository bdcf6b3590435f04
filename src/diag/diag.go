// Package diag writes the step-by-step login trace used to debug provider and
// cookie problems. It is a no-op unless enabled and never reports failures.
package diag

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

type Fields map[string]any

type Logger struct {
	mu      sync.Mutex
	enabled bool
	path    string
	out     io.Writer
	now     func() time.Time
}

// New returns a Logger appending to path when enabled is true.
func New(enabled bool, path string) *Logger {
	return &Logger{enabled: enabled, path: path, now: time.Now}
}

// NewWriter returns an enabled Logger writing to w.
func NewWriter(w io.Writer) *Logger {
	return &Logger{enabled: true, out: w, now: time.Now}
}

func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

// Log records one step as `[time] STEP | {json}`.
func (l *Logger) Log(step string, fields Fields) {
	if !l.Enabled() {
		return
	}

	line := fmt.Sprintf("[%s] %s", l.now().Format(time.RFC3339), step)
	if len(fields) > 0 {
		if data, err := json.Marshal(fields); err == nil {
			line += " | " + string(data)
		}
	}
	line += "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out != nil {
		_, _ = io.WriteString(l.out, line)
		return
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line)
}
