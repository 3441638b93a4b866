package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/taskboard/internal/client"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"ls", "list"},
	Short:   "List tasks",
	Long: `List tasks, optionally filtered and sorted.

Examples:
  taskctl tasks
  taskctl tasks --status active --sort priority
  taskctl tasks --priority high,medium --search report
  taskctl tasks --category null`,
	RunE: runTasks,
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task at the top of the list",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed (--undo reopens it)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <index>",
	Short: "Move a task to a position in its pane (active or completed)",
	Long: `Move a task within the manual order. The index counts within the task's
pane, starting at 0. With --across the task switches panes and its
completion flips.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

var (
	listSearch   string
	listPriority string
	listCategory string
	listStatus   string
	listSort     string

	addDesc     string
	addPriority string
	addCategory string
	addDue      string

	doneUndo   bool
	moveAcross bool
)

func init() {
	tasksCmd.Flags().StringVarP(&listSearch, "search", "s", "", "match title or description")
	tasksCmd.Flags().StringVarP(&listPriority, "priority", "p", "", "comma separated priorities")
	tasksCmd.Flags().StringVarP(&listCategory, "category", "c", "", "category id, or null for uncategorized")
	tasksCmd.Flags().StringVar(&listStatus, "status", "", "all, active or completed")
	tasksCmd.Flags().StringVar(&listSort, "sort", "", "manual, createdAt, dueDate, priority or alphabetical")

	addCmd.Flags().StringVarP(&addDesc, "desc", "d", "", "description")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "HIGH, MEDIUM or LOW")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "category id or name")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date, YYYY-MM-DD or RFC 3339")

	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "reopen instead")
	moveCmd.Flags().BoolVar(&moveAcross, "across", false, "move into the other pane")
}

func runTasks(cmd *cobra.Command, args []string) error {
	params := map[string][]string{}
	for k, v := range map[string]string{
		"search": listSearch, "priority": listPriority, "categoryId": listCategory,
		"status": listStatus, "sortBy": listSort,
	} {
		if v != "" {
			params[k] = []string{v}
		}
	}
	f, errs := query.Parse(params)
	if len(errs) > 0 {
		return fmt.Errorf("%s %s", errs[0].Path, errs[0].Message)
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	tasks, err := c.Tasks(ctx, f)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		out(cmd, "No tasks found. Add one with: taskctl add \"Your task\"\n")
		return nil
	}
	printTasks(cmd, tasks)
	return nil
}

func printTasks(cmd *cobra.Command, tasks []model.Task) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tPRIORITY\tCATEGORY\tDUE\tTITLE")
	for _, t := range tasks {
		done := " "
		if t.IsCompleted {
			done = "x"
		}
		cat := "-"
		if t.Category != nil {
			cat = t.Category.Name
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\t%s\t%s\n", shortID(t.ID), done, t.Priority, cat, due, t.Title)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runAdd(cmd *cobra.Command, args []string) error {
	in := client.NewTask{Title: strings.Join(args, " ")}
	if addDesc != "" {
		in.Description = &addDesc
	}
	if addPriority != "" {
		p, ok := model.ParsePriority(addPriority)
		if !ok {
			return fmt.Errorf("unknown priority %q", addPriority)
		}
		in.Priority = string(p)
	}
	if addDue != "" {
		due, err := parseDue(addDue)
		if err != nil {
			return err
		}
		in.DueDate = &due
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if addCategory != "" {
		id, err := resolveCategory(ctx, c, addCategory)
		if err != nil {
			return err
		}
		in.CategoryID = &id
	}

	t, err := c.CreateTask(ctx, in)
	if err != nil {
		return err
	}
	out(cmd, "Added %s %s\n", shortID(t.ID), t.Title)
	return nil
}

// parseDue accepts a calendar date (midnight UTC) or a full timestamp.
func parseDue(s string) (string, error) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.UTC().Format(time.RFC3339), nil
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d.UTC().Format(time.RFC3339), nil
	}
	return "", fmt.Errorf("invalid due date %q", s)
}

func runDone(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	id, err := resolveTask(ctx, c, args[0])
	if err != nil {
		return err
	}
	t, err := c.UpdateTask(ctx, id, map[string]any{"isCompleted": !doneUndo})
	if err != nil {
		return err
	}
	state := "completed"
	if !t.IsCompleted {
		state = "reopened"
	}
	out(cmd, "%s %s\n", state, t.Title)
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	id, err := resolveTask(ctx, c, args[0])
	if err != nil {
		return err
	}
	if err := c.DeleteTask(ctx, id); err != nil {
		return err
	}
	out(cmd, "Deleted %s\n", shortID(id))
	return nil
}

func runMove(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("index must be a number: %w", err)
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	board := client.NewBoard(c, query.Filter{})
	if err := board.Load(ctx); err != nil {
		return err
	}
	id, err := matchID(board.Tasks(), args[0])
	if err != nil {
		return err
	}
	if moveAcross {
		err = board.MoveAcross(ctx, id, index)
	} else {
		err = board.Move(ctx, id, index)
	}
	if err != nil {
		return err
	}
	printTasks(cmd, board.Tasks())
	return nil
}

// resolveTask turns a full id or unique id prefix into a task id.
func resolveTask(ctx context.Context, c *client.Client, ref string) (string, error) {
	tasks, err := c.Tasks(ctx, query.Filter{})
	if err != nil {
		return "", err
	}
	return matchID(tasks, ref)
}

func matchID(tasks []model.Task, ref string) (string, error) {
	var hits []string
	for _, t := range tasks {
		if t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			hits = append(hits, t.ID)
		}
	}
	switch len(hits) {
	case 0:
		return "", fmt.Errorf("no task matches %q", ref)
	case 1:
		return hits[0], nil
	}
	return "", fmt.Errorf("%q is ambiguous (%d tasks)", ref, len(hits))
}
