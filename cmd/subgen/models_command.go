package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"subgen/internal/transcribe"
)

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "models",
		Short:       "List available model tiers",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			caser := cases.Title(language.English)
			rows := make([][]string, 0, len(transcribe.Tiers()))
			for _, tier := range transcribe.Tiers() {
				rows = append(rows, []string{
					string(tier),
					caser.String(string(tier)),
					tier.Describe(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tier", "Name", "Trade-off"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
