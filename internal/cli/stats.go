package cli

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	out(cmd, "Tasks:         %d\n", st.TotalTasks)
	out(cmd, "Active:        %d\n", st.ActiveTasks)
	out(cmd, "Completed:     %d (%.0f%%)\n", st.CompletedTasks, st.CompletionRate)
	out(cmd, "High priority: %d\n", st.HighPriorityTasks)
	out(cmd, "Categories:    %d\n", st.CategoryCount)
	return nil
}
