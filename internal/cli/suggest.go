package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/existflow/wedplan/internal/model"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <category>",
	Short: "Show task ideas for a category and add one",
	Long: `Show the suggested tasks for one of the default categories.

Examples:
  wedplan suggest Undangan
  wedplan suggest Undangan --add 2`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

var suggestAdd int

func init() {
	suggestCmd.Flags().IntVar(&suggestAdd, "add", 0, "Add suggestion number N as a task")
}

func runSuggest(cmd *cobra.Command, args []string) error {
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

	list := model.SuggestionsFor(cat.Name)
	if len(list) == 0 {
		fmt.Printf("No suggestions for %s.\n", cat.Name)
		return nil
	}

	if suggestAdd > 0 {
		if suggestAdd > len(list) {
			return fmt.Errorf("pick a suggestion between 1 and %d", len(list))
		}
		task, err := a.actions.AddSuggestion(cmd.Context(), cat.ID, list[suggestAdd-1])
		if err != nil {
			return userError(err)
		}
		fmt.Printf("✅ Added: %s (%s)\n", task.Title, shortID(task.ID))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s %s\n", cat.Icon, headingStyle.Render("Ideas for "+cat.Name))
	for i, s := range list {
		fmt.Fprintf(out, "  %2s. %-32s %s  %s\n", strconv.Itoa(i+1), s.Title, priorityLabel(s.Priority), mutedStyle.Render(s.Timeline))
		fmt.Fprintf(out, "      %s\n", mutedStyle.Render(s.Description))
	}
	fmt.Fprintln(out, "\nAdd one with: wedplan suggest", strconv.Quote(cat.Name), "--add N")
	return nil
}
