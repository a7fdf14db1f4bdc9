package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quiz-assessment/internal/assessment"
	"quiz-assessment/internal/config"
)

// NewHistoryCmd prints the attempt history summary of a user on a quiz.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var (
		userID string
		quizID string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show best, latest and average scores of a user on a quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			d, err := buildDeps(cmd.Context(), cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer d.close()

			summary, err := d.service().History(cmd.Context(), userID, quizID)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}

func printSummary(w io.Writer, s assessment.Summary) error {
	if !s.HasData {
		_, err := fmt.Fprintln(w, "no attempts yet")
		return err
	}
	fmt.Fprintf(w, "attempts: %d  best: %.1f%%  latest: %.1f%%  average: %d%%\n\n",
		len(s.Attempts), s.Best, s.Latest, s.Average)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPLETED\tSCORE\tPERCENT\tMASTERY")
	for _, a := range s.Attempts {
		fmt.Fprintf(tw, "%s\t%d/%d\t%.1f%%\t%s\n",
			a.CompletedAt.Format("2006-01-02 15:04"), a.Score, a.MaxScore, a.Percentage, a.MasteryLevel)
	}
	return tw.Flush()
}
