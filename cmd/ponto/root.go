package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

// exitCode beendet den Prozess mit einem bestimmten Status, ohne einen Fehler auszugeben
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

var rootCmd = &cobra.Command{
	Use:   "ponto",
	Short: "Face recognition attendance kiosk",
	Long: `ponto identifies employees from a camera feed and records their attendance.
Run "ponto serve" for the kiosk with its HTTP API, or "ponto capture" for a
single session in the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
}

func initEnv() {
	// .env ist optional, Fehlen ist kein Fehler
	_ = godotenv.Load()
}

func execute() int {
	// Strg+C und SIGTERM brechen den Kontext des Befehls ab
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	var code exitCode
	switch {
	case err == nil:
		return 0
	case errors.As(err, &code):
		return int(code)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}
