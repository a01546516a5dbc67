package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/wedplan/internal/actions"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notes, newest first",
	RunE:    runNoteList,
}

var noteAddCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Add a general note, or a task note with --task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNoteAdd,
}

var noteDeleteCmd = &cobra.Command{
	Use:     "delete <note-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE:    runNoteDelete,
}

var (
	noteTask  string
	noteTitle string
)

func init() {
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteDeleteCmd)

	noteListCmd.Flags().StringVar(&noteTask, "task", "", "Only notes of this task")
	noteAddCmd.Flags().StringVar(&noteTask, "task", "", "Attach the note to this task")
	noteAddCmd.Flags().StringVarP(&noteTitle, "title", "t", "", "Note title")
}

func runNoteList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}

	taskID := ""
	if noteTask != "" {
		t, err := resolveTask(snap.Tasks, noteTask)
		if err != nil {
			return userError(err)
		}
		taskID = t.ID
	}
	titles := make(map[string]string, len(snap.Tasks))
	for _, t := range snap.Tasks {
		titles[t.ID] = t.Title
	}

	out := cmd.OutOrStdout()
	shown := 0
	for _, n := range snap.Notes {
		if taskID != "" && n.TaskID != taskID {
			continue
		}
		label := "general"
		if !n.IsGeneral {
			label = "task: " + truncate(titles[n.TaskID], 30)
		}
		head := n.Title
		if head == "" {
			head = truncate(strings.SplitN(n.Content, "\n", 2)[0], 40)
		}
		fmt.Fprintf(out, "  %s  %s  %s\n", shortID(n.ID), headingStyle.Render(head), mutedStyle.Render(label))
		if n.Title != "" {
			fmt.Fprintf(out, "            %s\n", truncate(n.Content, 60))
		}
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "No notes yet. Add one with: wedplan note add \"Your note\"")
	}
	return nil
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}

	in := actions.NoteInput{
		Title:     noteTitle,
		Content:   strings.Join(args, " "),
		IsGeneral: noteTask == "",
	}
	if noteTask != "" {
		t, err := resolveTask(snap.Tasks, noteTask)
		if err != nil {
			return userError(err)
		}
		in.TaskID = t.ID
	}

	n, err := a.actions.CreateNote(cmd.Context(), in)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("📝 Note added (%s)\n", shortID(n.ID))
	return nil
}

func runNoteDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	snap, err := a.loaded()
	if err != nil {
		return err
	}
	n, err := resolveNote(snap.Notes, args[0])
	if err != nil {
		return userError(err)
	}

	if err := a.actions.DeleteNote(cmd.Context(), n.ID); err != nil {
		return userError(err)
	}
	fmt.Println("🗑️  Note deleted.")
	return nil
}
