package main

import (
	"fmt"
	"os"
)

// stderrLogger implements bundle.Logger by writing to standard error.
type stderrLogger struct {
	verbose bool
}

func (l *stderrLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.verbose {
		l.log("debug", msg, keysAndValues)
	}
}

func (l *stderrLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log("info", msg, keysAndValues)
}

func (l *stderrLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log("warn", msg, keysAndValues)
}

func (l *stderrLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log("error", msg, keysAndValues)
}

func (l *stderrLogger) log(level, msg string, keysAndValues []interface{}) {
	fmt.Fprintf(os.Stderr, "%s: %s", level, msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(os.Stderr, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	fmt.Fprintln(os.Stderr)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
