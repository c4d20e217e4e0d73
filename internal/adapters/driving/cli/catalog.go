package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/watch"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

var errNoCatalogService = errors.New("catalog service not configured")

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Import and export catalogue collections",
	Long: `Moves catalogue collections in and out of the store.

A catalogue document maps collection keys to lists of records, for example:

  gang-boyz-products:
    - id: prod-1
      name: Moletom Gang
      price: 199.9
      categories: [moletons]

YAML and JSON documents are accepted. The format follows the file extension
unless --format is given.`,
}

var catalogFormat string

var catalogImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a catalogue document",
	Long: `Writes every collection in the document to the store and rebuilds the
search index. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the configured collections",
	Long:  `Writes the configured collections as one document, to stdout by default.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogExport,
}

var catalogListJSON bool

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured collections",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogDebounce time.Duration

var catalogWatchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Re-import a catalogue document whenever it changes",
	Long: `Imports the document, then watches it and imports it again after every
change. The search index is rebuilt after each import; a rebuild held back
by the refresh interval is retried until it runs.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogWatch,
}

func init() {
	catalogCmd.PersistentFlags().StringVarP(&catalogFormat, "format", "f", "", "document format: yaml or json")
	catalogListCmd.Flags().BoolVar(&catalogListJSON, "json", false, "output as JSON")
	catalogWatchCmd.Flags().DurationVar(&catalogDebounce, "debounce", 0, "wait this long after a change before importing")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogWatchCmd)
	rootCmd.AddCommand(catalogCmd)
}

// resolveFormat picks the --format value, then the file extension, then YAML.
func resolveFormat(path string) (driving.CatalogFormat, error) {
	if catalogFormat != "" {
		switch f := driving.CatalogFormat(strings.ToLower(catalogFormat)); f {
		case driving.CatalogYAML, driving.CatalogJSON:
			return f, nil
		default:
			return "", fmt.Errorf("%w: catalogue format %q", domain.ErrUnsupportedType, catalogFormat)
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return driving.CatalogJSON, nil
	default:
		return driving.CatalogYAML, nil
	}
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errNoCatalogService
	}

	path := args[0]
	format, err := resolveFormat(path)
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	n, err := catalogService.Import(cmd.Context(), r, format)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Imported %d collections.\n", n)

	if searchService != nil {
		if err := refreshIndex(cmd); err != nil {
			return err
		}
		cmd.Printf("Index: %d records.\n", searchService.Stats().Records)
	}
	return nil
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errNoCatalogService
	}

	path := ""
	if len(args) == 1 && args[0] != "-" {
		path = args[0]
	}
	format, err := resolveFormat(path)
	if err != nil {
		return err
	}

	if path == "" {
		return catalogService.Export(cmd.Context(), cmd.OutOrStdout(), format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := catalogService.Export(cmd.Context(), f, format); err != nil {
		f.Close()
		return fmt.Errorf("export failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cmd.Printf("Exported catalogue to %s\n", path)
	return nil
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errNoCatalogService
	}

	infos, err := catalogService.Collections(cmd.Context())
	if err != nil {
		return err
	}

	if catalogListJSON {
		return outputJSON(cmd, infos)
	}

	cmd.Println("Collections")
	cmd.Println("===========")
	for _, info := range infos {
		status := fmt.Sprintf("%d records", info.Elements)
		switch {
		case !info.Present:
			status = "missing"
		case !info.Valid:
			status = "malformed"
		}
		cmd.Printf("  %-28s %s\n", info.Key, status)
	}
	return nil
}

func runCatalogWatch(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errNoCatalogService
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	path := args[0]
	format, err := resolveFormat(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if changeFeed != nil {
		changes, unsubscribe := changeFeed.Subscribe()
		defer unsubscribe()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case key, ok := <-changes:
					if !ok {
						return
					}
					logger.Debug("changed: %s", key)
				}
			}
		}()
	}

	w := watch.NewCatalogWatcher(path, format, catalogService, searchService)
	if catalogDebounce > 0 {
		w.SetDebounce(catalogDebounce)
	}
	w.OnReload(func(r watch.Reload) {
		switch {
		case r.Err != nil:
			cmd.PrintErrf("Reload failed: %v\n", r.Err)
		case r.Imported == 0 && r.Refreshed:
			cmd.Printf("Index rebuilt: %d records.\n", searchService.Stats().Records)
		case r.Refreshed:
			cmd.Printf("Imported %d collections, index has %d records.\n", r.Imported, searchService.Stats().Records)
		default:
			cmd.Printf("Imported %d collections, index rebuild pending.\n", r.Imported)
		}
	})

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", path)
	if err := w.Run(ctx); err != nil {
		return err
	}
	return nil
}
