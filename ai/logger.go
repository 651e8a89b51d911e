// logger.go provides file-based logging for ALL provider exchanges.
//
// Logs are written to ~/.sqlsage/logs/ai.log with timestamps. When a
// plan refuses to parse or a correction keeps looping, the raw exchange
// in this file is the first thing to read.
package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// logClip bounds a single logged payload. Correction prompts carry the
// full schema block and failure history, which can run to many KB.
const logClip = 4000

func clipPayload(s string) string {
	if len(s) <= logClip {
		return s
	}
	cut := logClip
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n... (%d more bytes)", len(s)-cut)
}

var (
	logOnce sync.Once
	logFile *os.File
)

// initLog opens (or creates) the log file. Called once lazily.
func initLog() {
	logOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return
		}
		logDir := filepath.Join(homeDir, ".sqlsage", "logs")
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return
		}
		logPath := filepath.Join(logDir, "ai.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return
		}
		logFile = f
	})
}

func logWrite(s string) {
	initLog()
	if logFile != nil {
		logFile.WriteString(s) //nolint:errcheck
	}
}

// LogPath returns the exchange log location, empty when logging is
// unavailable.
func LogPath() string {
	initLog()
	if logFile == nil {
		return ""
	}
	return logFile.Name()
}

// logRequest logs a provider request with the operation name and its
// prompt sections.
func logRequest(operation string, provider string, sections map[string]string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"\n════════════════════════════════════════════════════════════════\n"+
			"[REQUEST] %s  |  Op: %s  |  Provider: %s\n"+
			"════════════════════════════════════════════════════════════════\n",
		ts, operation, provider,
	))
	for k, v := range sections {
		sb.WriteString(fmt.Sprintf("%s:\n%s\n────────────────────────────────────────\n", k, clipPayload(v)))
	}
	logWrite(sb.String())
}

// logResponse logs a provider response for the given operation.
func logResponse(operation string, response string, err error) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	errStr := "(none)"
	if err != nil {
		errStr = err.Error()
	}
	entry := fmt.Sprintf(
		"[RESPONSE] %s  |  Op: %s\n"+
			"────────────────────────────────────────\n"+
			"Error: %s\n"+
			"Response:\n%s\n"+
			"════════════════════════════════════════════════════════════════\n\n",
		ts, operation, errStr, clipPayload(response),
	)
	logWrite(entry)
}
