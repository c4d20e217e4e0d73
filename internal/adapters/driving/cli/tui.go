package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/services"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

var tuiAutoRefresh time.Duration

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for gangboyz.

The TUI searches the catalogue and edits banner crops with keyboard
navigation.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Select
  Ctrl+R   - Refresh
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&tuiAutoRefresh, "auto-refresh", 0, "refresh the index on this interval (0 = off)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := tui.NewPorts(searchService, cropService, transformEngine)

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(cmd.Context())

	if tuiAutoRefresh > 0 {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		refresher := services.NewIndexRefresher(searchService, tuiAutoRefresh)
		go func() {
			if err := refresher.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("auto refresh: %v", err)
			}
		}()
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
