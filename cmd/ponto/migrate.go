package main

import (
	"fmt"

	"registro-ponto/internal/app"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Bootstrap(configPath, true)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Database schema is up to date: %s\n", a.Config.DB.File)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
