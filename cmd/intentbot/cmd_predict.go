package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/avvvet/intentbot/internal/classifier"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPredictCmd(v *viper.Viper) *cobra.Command {
	var showScores bool

	cmd := &cobra.Command{
		Use:   "predict <message>",
		Short: "Classify one message and print the bot's reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := bootstrap(cfg, logger, false)
			if err != nil {
				return err
			}

			message := strings.Join(args, " ")
			reply := a.handler.ProcessMessage(cmd.Context(), message)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Outcome:  %s\n", reply.Outcome)
			if reply.Tag != "" {
				fmt.Fprintf(out, "Intent:   %s\n", reply.Tag)
			}
			fmt.Fprintf(out, "Response: %s\n", reply.Response)

			if !showScores {
				return nil
			}
			p, err := a.model.Predict(message)
			if errors.Is(err, classifier.ErrNoFeatures) {
				fmt.Fprintln(out, "\nNo known terms in message.")
				return nil
			}
			if err != nil {
				return err
			}

			tags := make([]string, 0, len(p.Scores))
			for tag := range p.Scores {
				tags = append(tags, tag)
			}
			sort.Slice(tags, func(i, j int) bool { return p.Scores[tags[i]] > p.Scores[tags[j]] })

			fmt.Fprintf(out, "\n%-24s  %s\n", "TAG", "LOG SCORE")
			for _, tag := range tags {
				fmt.Fprintf(out, "%-24s  %.4f\n", tag, p.Scores[tag])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showScores, "scores", false, "print per-intent scores")
	return cmd
}
