package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/semlint/rules"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List registered rules with their default severities",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, rule := range rules.DefaultRegistry.All() {
				if _, err := fmt.Fprintf(w, "%-22s %-8s %s\n", rule.ID(), rule.Severity(), rule.Description()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
