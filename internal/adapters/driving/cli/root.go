package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// Environment variables read when the matching flag is not set.
const (
	EnvDataDir   = "GANGBOYZ_DATA_DIR"
	EnvConfigDir = "GANGBOYZ_CONFIG_DIR"
	EnvMemory    = "GANGBOYZ_MEMORY"
)

// envOptions mirrors Options for the environment.
type envOptions struct {
	DataDir   string `env:"GANGBOYZ_DATA_DIR"`
	ConfigDir string `env:"GANGBOYZ_CONFIG_DIR"`
	Memory    bool   `env:"GANGBOYZ_MEMORY"`
}

// annotationNoServices marks commands that run without building services.
const annotationNoServices = "gangboyz/no-services"

// version is set at build time.
var version = "dev"

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Options select where services keep their state.
type Options struct {
	// DataDir holds the store database.
	DataDir string

	// ConfigDir holds config.toml.
	ConfigDir string

	// Memory keeps everything in memory; nothing is persisted.
	Memory bool
}

// ChangeFeed delivers the keys of resources that changed.
type ChangeFeed interface {
	Subscribe() (<-chan string, func())
}

// Services are the application services the commands drive.
type Services struct {
	Search   driving.SearchService
	Crop     driving.CropService
	Engine   driving.TransformEngine
	Settings driving.SettingsService
	Catalog  driving.CatalogService
	Prober   driven.ImageProber
	Changes  ChangeFeed

	// Metrics serves the Prometheus metrics. May be nil.
	Metrics http.Handler

	// Close releases the underlying stores. May be nil.
	Close func() error
}

// ServiceFactory builds services for one command invocation.
type ServiceFactory func(ctx context.Context, opts Options) (*Services, error)

// Services used by the commands.
var (
	searchService   driving.SearchService
	cropService     driving.CropService
	transformEngine driving.TransformEngine
	settingsService driving.SettingsService
	catalogService  driving.CatalogService
	imageProber     driven.ImageProber
	changeFeed      ChangeFeed
	metricsHandler  http.Handler
)

var (
	serviceFactory ServiceFactory
	activeServices *Services
	ownsServices   bool
)

var (
	verbose  bool
	rootOpts Options
)

var rootCmd = &cobra.Command{
	Use:   "gangboyz",
	Short: "Gang Boyz storefront search and banner crops",
	Long: `gangboyz searches the storefront catalogue and manages the crops of
its banner images.

Collections are read from the store and indexed in memory. Banner crops are
stored per slot as a scale and translation that every renderer applies the
same way.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&rootOpts.Memory, "memory", false, "keep the store and settings in memory (env "+EnvMemory+")")
	flags.StringVar(&rootOpts.DataDir, "data-dir", "", "directory of the store database (env "+EnvDataDir+")")
	flags.StringVar(&rootOpts.ConfigDir, "config-dir", "", "directory of config.toml (env "+EnvConfigDir+")")
}

// SetServiceFactory sets the factory used to build services before a command runs.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// SetServices installs ready-made services. The caller keeps ownership and
// closes them. Passing nil clears them.
func SetServices(s *Services) {
	activeServices = s
	ownsServices = false
	if s == nil {
		s = &Services{}
	}
	searchService = s.Search
	cropService = s.Crop
	transformEngine = s.Engine
	settingsService = s.Settings
	catalogService = s.Catalog
	imageProber = s.Prober
	changeFeed = s.Changes
	metricsHandler = s.Metrics
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	// PersistentPostRunE is skipped when a command fails.
	defer func() { _ = Shutdown() }()
	return rootCmd.ExecuteContext(ctx)
}

// Shutdown closes services built by the factory. It is safe to call twice.
func Shutdown() error {
	if !ownsServices || activeServices == nil {
		return nil
	}
	closeFn := activeServices.Close
	SetServices(nil)
	if closeFn != nil {
		return closeFn()
	}
	return nil
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationNoServices] == "true" || activeServices != nil || serviceFactory == nil {
		return nil
	}

	var fromEnv envOptions
	if err := env.Parse(&fromEnv); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	opts := rootOpts
	if opts.DataDir == "" {
		opts.DataDir = fromEnv.DataDir
	}
	if opts.ConfigDir == "" {
		opts.ConfigDir = fromEnv.ConfigDir
	}
	if !cmd.Flags().Changed("memory") {
		opts.Memory = fromEnv.Memory
	}

	s, err := serviceFactory(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("initialise services: %w", err)
	}
	SetServices(s)
	ownsServices = true
	logger.Debug("services ready (memory=%t data=%q config=%q)", opts.Memory, opts.DataDir, opts.ConfigDir)
	return nil
}

func teardownServices(_ *cobra.Command, _ []string) error {
	return Shutdown()
}
