package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/wedplan/internal/insight"
	"github.com/existflow/wedplan/internal/model"
)

var weddingCmd = &cobra.Command{
	Use:   "wedding",
	Short: "Set or show the wedding date",
}

var weddingSetCmd = &cobra.Command{
	Use:   "set <YYYY-MM-DD>",
	Short: "Set the wedding date",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeddingSet,
}

var weddingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the wedding date",
	RunE:  runWeddingClear,
}

var weddingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the wedding date, countdown and progress",
	RunE:  runWeddingShow,
}

func init() {
	weddingCmd.AddCommand(weddingSetCmd)
	weddingCmd.AddCommand(weddingClearCmd)
	weddingCmd.AddCommand(weddingShowCmd)
}

func runWeddingSet(cmd *cobra.Command, args []string) error {
	date, err := model.ParseDate(args[0])
	if err != nil {
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD", args[0])
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	if err := a.session.UpdateWeddingDate(cmd.Context(), &date); err != nil {
		return userError(err)
	}
	fmt.Printf("💍 Wedding date set to %s (%s)\n", date, insight.Until(date, time.Now()))
	return nil
}

func runWeddingClear(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	if err := a.session.UpdateWeddingDate(cmd.Context(), nil); err != nil {
		return userError(err)
	}
	fmt.Println("Wedding date cleared.")
	return nil
}

func runWeddingShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	id, err := a.identity()
	if err != nil {
		return err
	}
	if id.WeddingDate == nil {
		fmt.Println("No wedding date yet. Set one with: wedplan wedding set YYYY-MM-DD")
	} else {
		fmt.Printf("💍 %s\n", headingStyle.Render(id.WeddingDate.Time().Format("Monday, 2 January 2006")))
		fmt.Printf("⏳ %s\n", insight.Until(*id.WeddingDate, time.Now()))
	}

	snap, err := a.loaded()
	if err != nil {
		return err
	}
	p := insight.Overall(snap.Tasks)
	fmt.Printf("✅ %d/%d tasks done (%d%%)\n", p.Completed, p.Total, p.Percent())
	printDigest(cmd.OutOrStdout(), insight.Summarize(snap.Tasks, time.Now()))
	return nil
}
