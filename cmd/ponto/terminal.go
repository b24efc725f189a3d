package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"registro-ponto/internal/core/capture"

	"github.com/schollz/progressbar/v3"
)

// terminalBridge zeigt eine Erfassungssitzung im Terminal: Statuszeilen und Countdown-Balken
type terminalBridge struct {
	capture.NopBridge

	mu      sync.Mutex
	out     io.Writer
	bar     *progressbar.ProgressBar
	window  int
	outcome *capture.Outcome
}

func newTerminalBridge(out io.Writer, window time.Duration) *terminalBridge {
	seconds := int((window + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return &terminalBridge{
		out:    out,
		window: seconds,
		bar: progressbar.NewOptions(seconds,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("⏱  waiting for a face"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (t *terminalBridge) OnStatus(text string, severity capture.Severity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.bar.Clear()
	fmt.Fprintf(t.out, "%s %s\n", severityMark(severity), text)
}

func (t *terminalBridge) OnRemainingTime(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bar.Describe(fmt.Sprintf("⏱  %ds left", seconds))
	_ = t.bar.Set(t.window - seconds)
}

func (t *terminalBridge) OnOutcome(o capture.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcome = &o
	_ = t.bar.Finish()
}

// Outcome liefert das gemeldete Ergebnis, nil bei gestoppter Sitzung
func (t *terminalBridge) Outcome() *capture.Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

func severityMark(s capture.Severity) string {
	switch s {
	case capture.SeveritySuccess:
		return "✔"
	case capture.SeverityWarning:
		return "!"
	case capture.SeverityError:
		return "✘"
	default:
		return "•"
	}
}
