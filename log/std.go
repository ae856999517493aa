package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// stdLogger writes leveled, timestamped lines to an io.Writer.
type stdLogger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewStdLogger returns a Logger that writes plain-text lines to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{w: w, now: time.Now}
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	buf := fmt.Sprintf("%s level=%s", l.now().Format(time.RFC3339), level.String())
	for i := 0; i < len(keyvals); i += 2 {
		buf += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	_, err := fmt.Fprintln(l.w, buf)
	return err
}
