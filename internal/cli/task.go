package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/wedplan/internal/actions"
	"github.com/existflow/wedplan/internal/filter"
	"github.com/existflow/wedplan/internal/insight"
	"github.com/existflow/wedplan/internal/model"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Manage checklist tasks",
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks grouped by category.

Examples:
  wedplan task list
  wedplan task list --status pending --sort priority
  wedplan task list --search catering --category "Venue & Catering"`,
	RunE: runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task to a category.

Examples:
  wedplan task add "Book the venue" --category "Venue & Catering"
  wedplan task add "Send invitations" -c Undangan -p high --due 2025-04-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTaskAdd,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Toggle a task's completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete <task-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task and its notes",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskDelete,
}

var (
	listSearch   string
	listPriority string
	listStatus   string
	listSort     string
	listCategory string
)

func init() {
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)

	taskListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Search title and description")
	taskListCmd.Flags().StringVarP(&listPriority, "priority", "p", filter.PriorityAll, "Priority filter (all, urgent, high, medium, low)")
	taskListCmd.Flags().StringVar(&listStatus, "status", string(filter.StatusAll), "Status filter (all, pending, completed, important, overdue)")
	taskListCmd.Flags().StringVar(&listSort, "sort", "", "Sort order (title, title_desc, priority, priority_desc, due_date, created_at, created_at_desc)")
	taskListCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only this category")

	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		c.Flags().StringP("category", "c", "", "Category name or id")
		c.Flags().StringP("priority", "p", "", "Priority (urgent, high, medium, low)")
		c.Flags().String("due", "", "Due date (YYYY-MM-DD, 'none' to clear)")
		c.Flags().StringP("description", "d", "", "Description")
		c.Flags().String("venue", "", "Venue or location")
		c.Flags().Bool("important", false, "Mark as important")
	}
	taskEditCmd.Flags().StringP("title", "t", "", "New title")
}

// listOptions validates the list flags.
func listOptions() (filter.Options, error) {
	opts := filter.Defaults()
	if cfg != nil && cfg.DefaultSort != "" {
		if key, ok := filter.ParseSortKey(cfg.DefaultSort); ok {
			opts.Sort = key
		}
	}

	opts.Search = listSearch
	if listPriority != filter.PriorityAll {
		p, err := model.ParsePriority(listPriority)
		if err != nil {
			return opts, err
		}
		opts.Priority = string(p)
	}
	status, ok := filter.ParseStatus(listStatus)
	if !ok {
		return opts, fmt.Errorf("unknown status %q", listStatus)
	}
	opts.Status = status
	if listSort != "" {
		key, ok := filter.ParseSortKey(listSort)
		if !ok {
			return opts, fmt.Errorf("unknown sort %q", listSort)
		}
		opts.Sort = key
	}
	return opts, nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	opts, err := listOptions()
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}

	now := time.Now()
	tasks := filter.Apply(snap.Tasks, opts, now)
	cats := snap.Categories
	if listCategory != "" {
		cat, err := resolveCategory(cats, listCategory)
		if err != nil {
			return userError(err)
		}
		cats = []model.Category{cat}
		tasks = filter.InCategory(tasks, cat.ID)
	}

	out := cmd.OutOrStdout()
	printDigest(out, insight.Summarize(snap.Tasks, now))

	progress := insight.ByCategory(snap.Tasks, cats)
	shown := 0
	for i, g := range filter.GroupByCategory(tasks, cats) {
		if len(g.Tasks) == 0 && listCategory == "" {
			continue
		}
		printCategoryHeader(out, g.Category, progress[i].Progress)
		for _, t := range g.Tasks {
			printTask(out, t, now)
			shown++
		}
	}

	if shown == 0 {
		fmt.Fprintln(out, "No tasks found. Add one with: wedplan task add \"Your task\" --category <name>")
		return nil
	}
	fmt.Fprintln(out)
	return nil
}

// taskInput applies the add/edit flags to in.
func taskInput(cmd *cobra.Command, cats []model.Category, in *actions.TaskInput) error {
	flags := cmd.Flags()
	if flags.Changed("category") {
		ref, _ := flags.GetString("category")
		cat, err := resolveCategory(cats, ref)
		if err != nil {
			return err
		}
		in.CategoryID = cat.ID
	}
	if flags.Changed("priority") {
		raw, _ := flags.GetString("priority")
		p, err := model.ParsePriority(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", actions.ErrInvalidTask, err)
		}
		in.Priority = p
	}
	if flags.Changed("due") {
		raw, _ := flags.GetString("due")
		if raw == "" || strings.EqualFold(raw, "none") {
			in.DueDate = nil
		} else {
			d, err := model.ParseDate(raw)
			if err != nil {
				return fmt.Errorf("%w: due date must be YYYY-MM-DD", actions.ErrInvalidTask)
			}
			in.DueDate = &d
		}
	}
	if flags.Changed("description") {
		in.Description, _ = flags.GetString("description")
	}
	if flags.Changed("venue") {
		in.VenueLocation, _ = flags.GetString("venue")
	}
	if flags.Changed("important") {
		in.IsImportant, _ = flags.GetBool("important")
	}
	return nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("category") {
		return fmt.Errorf("--category is required")
	}

	in := actions.TaskInput{Title: strings.Join(args, " ")}
	if err := taskInput(cmd, snap.Categories, &in); err != nil {
		return userError(err)
	}

	task, err := a.actions.CreateTask(cmd.Context(), in)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("✅ Added: %s (%s)\n", task.Title, shortID(task.ID))
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}
	task, err := resolveTask(snap.Tasks, args[0])
	if err != nil {
		return userError(err)
	}

	in := actions.TaskInput{
		Title:         task.Title,
		Description:   task.Description,
		CategoryID:    task.CategoryID,
		Priority:      task.Priority,
		DueDate:       task.DueDate,
		VenueLocation: task.VenueLocation,
		IsImportant:   task.IsImportant,
	}
	if cmd.Flags().Changed("title") {
		in.Title, _ = cmd.Flags().GetString("title")
	}
	if err := taskInput(cmd, snap.Categories, &in); err != nil {
		return userError(err)
	}

	if err := a.actions.UpdateTask(cmd.Context(), task.ID, in); err != nil {
		return userError(err)
	}
	fmt.Printf("✏️  Updated: %s\n", in.Title)
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}
	task, err := resolveTask(snap.Tasks, args[0])
	if err != nil {
		return userError(err)
	}

	done, err := a.actions.ToggleTask(cmd.Context(), task.ID)
	if err != nil {
		return userError(err)
	}
	if done {
		fmt.Printf("✅ Completed: %s\n", task.Title)
	} else {
		fmt.Printf("↩️  Reopened: %s\n", task.Title)
	}
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}
	task, err := resolveTask(snap.Tasks, args[0])
	if err != nil {
		return userError(err)
	}

	if !confirm(fmt.Sprintf("Delete %q and its notes?", task.Title)) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err := a.actions.DeleteTask(cmd.Context(), task.ID); err != nil {
		return userError(err)
	}
	fmt.Printf("🗑️  Deleted: %s\n", task.Title)
	return nil
}
