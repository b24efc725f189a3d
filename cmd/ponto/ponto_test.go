package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalBridge(t *testing.T) {
	var out bytes.Buffer
	term := newTerminalBridge(&out, 5*time.Second)
	assert.Equal(t, 5, term.window)

	term.OnStatus("Câmera iniciada. Posicione seu rosto...", capture.SeverityInfo)
	term.OnRemainingTime(4)
	term.OnRemainingTime(3)
	term.OnPreviewFrame([]byte{0xff, 0xd8})
	assert.Nil(t, term.Outcome())

	term.OnStatus("Ponto registrado: Ana (123)", capture.SeveritySuccess)
	term.OnOutcome(capture.Outcome{Kind: capture.OutcomeMatched, Message: "Ponto registrado: Ana (123)"})

	text := out.String()
	assert.Contains(t, text, "• Câmera iniciada. Posicione seu rosto...")
	assert.Contains(t, text, "✔ Ponto registrado: Ana (123)")
	require.NotNil(t, term.Outcome())
	assert.Equal(t, capture.OutcomeMatched, term.Outcome().Kind)
}

func TestTerminalBridgeWindowRoundsUp(t *testing.T) {
	assert.Equal(t, 2, newTerminalBridge(&bytes.Buffer{}, 1500*time.Millisecond).window)
	assert.Equal(t, 1, newTerminalBridge(&bytes.Buffer{}, 0).window)
}

func TestSeverityMark(t *testing.T) {
	assert.Equal(t, "!", severityMark(capture.SeverityWarning))
	assert.Equal(t, "✘", severityMark(capture.SeverityError))
	assert.Equal(t, "•", severityMark(capture.SeverityInfo))
}

func TestPrintPersons(t *testing.T) {
	var out bytes.Buffer
	printPersons(&out, nil)
	assert.Equal(t, "No employees enrolled.\n", out.String())

	out.Reset()
	printPersons(&out, []models.Person{
		{ID: 1, Name: "Ana Souza", BadgeID: "123", IdentityEncoding: strings.Repeat("ab", 32)},
		{ID: 2, Name: "Bruno", BadgeID: "77", IdentityEncoding: "abc"},
	})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "BADGE")
	assert.Contains(t, lines[2], "Ana Souza")
	assert.Contains(t, lines[2], "abababababab...")
	assert.Contains(t, lines[3], "abc")
}

func TestExitCode(t *testing.T) {
	err := fmt.Errorf("capture: %w", exitCode(1))
	var code exitCode
	require.True(t, errors.As(err, &code))
	assert.Equal(t, exitCode(1), code)
	assert.Equal(t, "exit status 1", code.Error())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "capture", "migrate", "registry"} {
		assert.True(t, names[want], want)
	}

	cmd, _, err := rootCmd.Find([]string{"registry", "list"})
	require.NoError(t, err)
	assert.Equal(t, "list", cmd.Name())
	assert.Equal(t, "config.yaml", rootCmd.PersistentFlags().Lookup("config").DefValue)
}
