package main

import (
	"fmt"

	"registro-ponto/internal/app"
	"registro-ponto/internal/core/capture"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var captureLang string

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Run one capture session in the terminal",
	Long: `Run a single capture session against the configured camera and record the
attendance of the first enrolled face. Ctrl+C stops the session.
The exit status is 0 when an attendance was recorded and 1 otherwise.`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVar(&captureLang, "lang", "", "Message language (default from config)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	a, err := app.Bootstrap(configPath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	lang := captureLang
	if lang == "" || !a.Translator.Supports(lang) {
		lang = a.Translator.DefaultLanguageTag()
	}

	term := newTerminalBridge(cmd.ErrOrStderr(), a.Config.Camera.SessionWindow)
	pipeline, err := a.NewPipeline(capture.Bridges{term}, nil)
	if err != nil {
		return err
	}
	if pipeline.Queue != nil {
		go app.DrainLocal(cmd.Context(), pipeline.Queue)
	}

	s := capture.NewSession(uuid.NewString(), lang)
	state := pipeline.Controller.Run(cmd.Context(), s, a.Translator.Localizer(lang))
	log.WithFields(log.Fields{"session_id": s.ID, "state": state}).Debug("Terminal capture finished")

	if o := term.Outcome(); o != nil {
		fmt.Fprintln(cmd.OutOrStdout(), o.Message)
	}
	if state != capture.StateMatched {
		return exitCode(1)
	}
	return nil
}
