package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iliyamo/taskboard/internal/client"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat"},
	Short:   "List categories with their open task counts",
	RunE:    runCategories,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a category",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategoryAdd,
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename <id|name> <new name>",
	Short: "Rename a category",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCategoryRename,
}

var categoryRmCmd = &cobra.Command{
	Use:   "rm <id|name>",
	Short: "Delete a category; its tasks become uncategorized",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryRm,
}

var categoryColor string

func init() {
	categoryAddCmd.Flags().StringVar(&categoryColor, "color", "", "color class, e.g. bg-green-500")

	categoriesCmd.AddCommand(categoryAddCmd)
	categoriesCmd.AddCommand(categoryRenameCmd)
	categoriesCmd.AddCommand(categoryRmCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list, err := c.Categories(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tOPEN\tDEFAULT")
	fmt.Fprintf(w, "-\tAll\t%d\t\n", list.AllCount)
	for _, cat := range list.Categories {
		def := ""
		if cat.IsDefault {
			def = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", shortID(cat.ID), cat.Name, cat.TaskCount, def)
	}
	return w.Flush()
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cat, err := c.CreateCategory(ctx, strings.Join(args, " "), categoryColor)
	if err != nil {
		return err
	}
	out(cmd, "Created %s %s\n", shortID(cat.ID), cat.Name)
	return nil
}

func runCategoryRename(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	id, err := resolveCategory(ctx, c, args[0])
	if err != nil {
		return err
	}
	name := strings.Join(args[1:], " ")
	cat, err := c.UpdateCategory(ctx, id, &name, nil)
	if err != nil {
		return err
	}
	out(cmd, "Renamed to %s\n", cat.Name)
	return nil
}

func runCategoryRm(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	id, err := resolveCategory(ctx, c, args[0])
	if err != nil {
		return err
	}
	if err := c.DeleteCategory(ctx, id); err != nil {
		return err
	}
	out(cmd, "Deleted %s\n", shortID(id))
	return nil
}

// resolveCategory accepts an id, a unique id prefix or a case-insensitive
// name.
func resolveCategory(ctx context.Context, c *client.Client, ref string) (string, error) {
	list, err := c.Categories(ctx)
	if err != nil {
		return "", err
	}
	var hits []string
	for _, cat := range list.Categories {
		if cat.ID == ref || strings.EqualFold(cat.Name, ref) {
			return cat.ID, nil
		}
		if strings.HasPrefix(cat.ID, ref) {
			hits = append(hits, cat.ID)
		}
	}
	if len(hits) == 1 {
		return hits[0], nil
	}
	return "", fmt.Errorf("no single category matches %q", ref)
}
