package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newEvaluateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Train on the definitions and report accuracy on the held-out split",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := bootstrap(cfg, logger, false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			held := a.model.HeldOut()
			if len(held) == 0 {
				fmt.Fprintln(out, "No held-out examples (TEST_SIZE is 0).")
				return nil
			}

			report := a.model.Evaluate(held)
			fmt.Fprintf(out, "%-24s  %7s  %5s\n", "TAG", "CORRECT", "TOTAL")
			for _, tag := range report.Tags() {
				tr := report.PerTag[tag]
				fmt.Fprintf(out, "%-24s  %7d  %5d\n", tag, tr.Correct, tr.Total)
			}
			fmt.Fprintf(out, "\nAccuracy: %.2f%% (%d/%d)\n", report.Accuracy*100, report.Correct, report.Total)
			return nil
		},
	}
}
