package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/wedplan/internal/actions"
	"github.com/existflow/wedplan/internal/insight"
	"github.com/existflow/wedplan/internal/model"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage task categories",
}

var categoryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List categories with progress",
	RunE:    runCategoryList,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryAdd,
}

var categoryEditCmd = &cobra.Command{
	Use:   "edit <category>",
	Short: "Edit a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryEdit,
}

var categoryDeleteCmd = &cobra.Command{
	Use:     "delete <category>",
	Aliases: []string{"rm"},
	Short:   "Delete a category that has no tasks",
	Args:    cobra.ExactArgs(1),
	RunE:    runCategoryDelete,
}

func init() {
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryEditCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)

	for _, c := range []*cobra.Command{categoryAddCmd, categoryEditCmd} {
		c.Flags().StringP("description", "d", "", "Description")
		c.Flags().String("color", "", "Color token, e.g. bg-rose-500")
		c.Flags().String("icon", "", "Icon or emoji")
		c.Flags().String("timeline", "", "Timeline (12-months, 6-months, 3-months, 1-month, 1-week, day-of)")
	}
	categoryEditCmd.Flags().StringP("name", "n", "", "New name")
}

func categoryInput(cmd *cobra.Command, in *actions.CategoryInput) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name, _ = flags.GetString("name")
	}
	if flags.Changed("description") {
		in.Description, _ = flags.GetString("description")
	}
	if flags.Changed("color") {
		in.Color, _ = flags.GetString("color")
	}
	if flags.Changed("icon") {
		in.Icon, _ = flags.GetString("icon")
	}
	if flags.Changed("timeline") {
		raw, _ := flags.GetString("timeline")
		tl, err := model.ParseTimeline(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", actions.ErrInvalidCategory, err)
		}
		in.Timeline = tl
	}
	return nil
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	for _, cp := range insight.ByCategory(snap.Tasks, snap.Categories) {
		c := cp.Category
		fmt.Fprintf(out, "  %s  %s %-24s %-10s %s\n", shortID(c.ID), c.Icon, truncate(c.Name, 24),
			c.Timeline, mutedStyle.Render(fmt.Sprintf("%d/%d (%d%%)", cp.Completed, cp.Total, cp.Percent())))
	}
	fmt.Fprintln(out)
	return nil
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	if _, err := a.loaded(); err != nil {
		return err
	}

	in := actions.CategoryInput{Name: args[0]}
	if err := categoryInput(cmd, &in); err != nil {
		return userError(err)
	}
	cat, err := a.actions.CreateCategory(cmd.Context(), in)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("✅ Created category: %s %s (%s)\n", cat.Icon, cat.Name, shortID(cat.ID))
	return nil
}

func runCategoryEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}
	cat, err := resolveCategory(snap.Categories, args[0])
	if err != nil {
		return userError(err)
	}

	in := actions.CategoryInput{
		Name:        cat.Name,
		Description: cat.Description,
		Color:       cat.Color,
		Icon:        cat.Icon,
		Timeline:    cat.Timeline,
	}
	if err := categoryInput(cmd, &in); err != nil {
		return userError(err)
	}
	if err := a.actions.UpdateCategory(cmd.Context(), cat.ID, in); err != nil {
		return userError(err)
	}
	fmt.Printf("✏️  Updated category: %s\n", in.Name)
	return nil
}

func runCategoryDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}
	cat, err := resolveCategory(snap.Categories, args[0])
	if err != nil {
		return userError(err)
	}

	if !confirm(fmt.Sprintf("Delete category %q?", cat.Name)) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err := a.actions.DeleteCategory(cmd.Context(), cat.ID); err != nil {
		return userError(err)
	}
	fmt.Printf("🗑️  Deleted category: %s\n", cat.Name)
	return nil
}
