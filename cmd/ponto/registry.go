package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"registro-ponto/internal/app"
	"registro-ponto/internal/core/models"

	"github.com/spf13/cobra"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the identity registry",
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrolled employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Bootstrap(configPath, false)
		if err != nil {
			return err
		}
		defer a.Close()

		persons, err := a.Repo.ListPersons(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list persons: %w", err)
		}
		printPersons(cmd.OutOrStdout(), persons)
		return nil
	},
}

func init() {
	registryCmd.AddCommand(registryListCmd)
	rootCmd.AddCommand(registryCmd)
}

func printPersons(out io.Writer, persons []models.Person) {
	if len(persons) == 0 {
		fmt.Fprintln(out, "No employees enrolled.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBADGE\tENCODING")
	fmt.Fprintln(w, "--\t----\t-----\t--------")
	for _, p := range persons {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.BadgeID, shortEncoding(p.IdentityEncoding))
	}
	w.Flush()
}

func shortEncoding(hex string) string {
	if len(hex) <= 12 {
		return hex
	}
	return hex[:12] + "..."
}
