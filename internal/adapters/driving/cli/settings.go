package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

var errNoSettingsService = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure search, crop and upload settings.

Settings are stored in config.toml. Crop settings must be the same for the
editor and every renderer; change them only together with the storefront.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting",
	Long: `Validates and stores one setting.

List values are comma separated. Categories are written as id=Name pairs:

  gangboyz settings set search.categories "camisetas=Camisetas,calcas=Calças"`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the common settings step by step.`,
	RunE:  runSettingsWizard,
}

func init() {
	// Values such as -1 are arguments, not flags.
	settingsSetCmd.Flags().SetInterspersed(false)

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Collections: %s\n", strings.Join(settings.Search.Collections, ", "))
	cmd.Printf("  Categories: %s\n", formatCategories(settings.Search.Categories))
	cmd.Printf("  Cache TTL: %s\n", settings.Search.CacheTTL)
	cmd.Printf("  Refresh interval: %s\n", settings.Search.RefreshInterval)
	cmd.Printf("  Default limit: %d\n", settings.Search.DefaultLimit)
	cmd.Println()

	cmd.Println("[Crop]")
	cmd.Printf("  Translate percent: %g\n", settings.Crop.TranslatePercent)
	cmd.Printf("  Drag sensitivity: %g\n", settings.Crop.DragSensitivity())
	cmd.Printf("  Scale range: %g - %g\n", settings.Crop.MinScale, settings.Crop.MaxScale)
	cmd.Printf("  Zoom step: %g\n", settings.Crop.ZoomStep)
	cmd.Printf("  Translate bound: %g\n", settings.Crop.TranslateBound)
	cmd.Printf("  Key prefix: %s\n", settings.Crop.KeyPrefix)
	cmd.Println()

	cmd.Println("[Upload]")
	dir := settings.Upload.Dir
	if dir == "" {
		dir = "(data directory)"
	}
	cmd.Printf("  Directory: %s\n", dir)
	if settings.Upload.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Upload.BaseURL)
	} else {
		cmd.Printf("  Base URL: (not set, file:// locators)\n")
	}
	cmd.Printf("  Max size: %d bytes\n", settings.Upload.MaxBytes)

	return nil
}

func formatCategories(seeds []domain.CategorySeed) string {
	parts := make([]string, 0, len(seeds))
	for _, s := range seeds {
		parts = append(parts, s.ID+"="+s.Name)
	}
	return strings.Join(parts, ", ")
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// wizardStep prompts for one setting. current renders the stored value.
type wizardStep struct {
	key     string
	prompt  string
	current func(*domain.AppSettings) string
}

var wizardSteps = []wizardStep{
	{"search.collections", "Collections to index (comma separated)", func(s *domain.AppSettings) string {
		return strings.Join(s.Search.Collections, ",")
	}},
	{"search.categories", "Top-level categories (id=Name, comma separated)", func(s *domain.AppSettings) string {
		return strings.ReplaceAll(formatCategories(s.Search.Categories), ", ", ",")
	}},
	{"search.refresh_interval_seconds", "Seconds between index rebuilds", func(s *domain.AppSettings) string {
		return strconv.Itoa(int(s.Search.RefreshInterval.Seconds()))
	}},
	{"search.cache_ttl_seconds", "Seconds a search result stays cached", func(s *domain.AppSettings) string {
		return strconv.Itoa(int(s.Search.CacheTTL.Seconds()))
	}},
	{"upload.dir", "Upload directory", func(s *domain.AppSettings) string {
		return s.Upload.Dir
	}},
	{"upload.base_url", "Public base URL of uploads", func(s *domain.AppSettings) string {
		return s.Upload.BaseURL
	}},
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Gang Boyz Settings Wizard")
	cmd.Println("=========================")
	cmd.Println("Press Enter to keep the current value.")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	for i, step := range wizardSteps {
		current := step.current(settings)
		for {
			cmd.Printf("Step %d: %s [%s]: ", i+1, step.prompt, current)
			input := readLine(reader)
			if input == "" {
				break
			}
			if err := settingsService.Set(step.key, input); err != nil {
				cmd.Printf("  %v\n", err)
				continue
			}
			break
		}
	}

	cmd.Println()
	cmd.Println("Settings saved.")
	return nil
}

// readLine reads one trimmed line. EOF reads as an empty line.
func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
