package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/existflow/wedplan/internal/config"
	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/tui"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
)

var rootCmd = &cobra.Command{
	Use:   "wedplan",
	Short: "wedplan - wedding planning checklist in your terminal",
	Long: `wedplan keeps your wedding checklist, categories and notes in sync
with your account, and counts down to the big day.

Run 'wedplan' without arguments to launch the interactive dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			loaded = config.DefaultConfig()
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			loaded.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			loaded.LogConsole = logConsole
			configChanged = true
		}

		if configChanged {
			if err := loaded.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}
		cfg = loaded

		if err := logger.Init(cfg.Logger()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("wedplan started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return userError(err)
		}
		defer a.Close()

		refresher := datasync.NewAutoRefresh(a.data, cfg.RefreshInterval, 0)
		defer refresher.Stop()

		logger.Info("Launching TUI")
		m := tui.NewModel(ctx, tui.Deps{
			Session:   a.session,
			Data:      a.data,
			Actions:   a.actions,
			Refresher: refresher,
			Sort:      cfg.DefaultSort,
		})
		p := tea.NewProgram(m, tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("wedplan exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(weddingCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(configCmd)
}
