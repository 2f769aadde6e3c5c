package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naveenspark/haven/pkg/domain"
)

func newMoodCmd(c *cli) *cobra.Command {
	list := func(cmd *cobra.Command, _ []string) error {
		svc, err := c.session()
		if err != nil {
			return err
		}
		entries, err := svc.Client.ListMoods(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(c.out, dimStyle.Render("no check-ins yet")) //nolint:errcheck
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(c.out, "%-12s %-6s %2d/10  %s\n", //nolint:errcheck
				e.CreatedAt.Local().Format("Jan 2 15:04"), e.Mood, e.Score, e.Note)
		}
		return nil
	}

	cmd := &cobra.Command{
		Use:   "mood",
		Short: "Show or log a mood check-in",
		Args:  cobra.NoArgs,
		RunE:  list,
	}

	var (
		note  string
		score int
	)
	logCmd := &cobra.Command{
		Use:       "log <" + strings.Join(domain.Moods, "|") + ">",
		Short:     "Log how you are feeling",
		Args:      cobra.ExactArgs(1),
		ValidArgs: domain.Moods,
		RunE: func(cmd *cobra.Command, args []string) error {
			mood := strings.ToLower(args[0])
			if !slices.Contains(domain.Moods, mood) {
				return fmt.Errorf("unknown mood %q, pick one of: %s", args[0], strings.Join(domain.Moods, ", "))
			}
			if score == 0 {
				score = domain.DefaultMoodScore(mood)
			}
			svc, err := c.session()
			if err != nil {
				return err
			}
			entry, err := svc.Client.LogMood(cmd.Context(), domain.MoodEntry{Mood: mood, Score: score, Note: note})
			if err != nil {
				return err
			}
			c.console.Info(fmt.Sprintf("logged %s (%d/10), thanks for checking in", entry.Mood, entry.Score))
			return nil
		},
	}
	logCmd.Flags().StringVarP(&note, "note", "n", "", "optional note, up to 500 characters")
	logCmd.Flags().IntVar(&score, "score", 0, "score from 1 to 10 (default depends on mood)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show your mood history, newest first",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		logCmd,
	)
	return cmd
}
