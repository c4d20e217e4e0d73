package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/mcp"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/watch"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/services"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

var (
	mcpWatchFile   string
	mcpAutoRefresh time.Duration
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search the
catalogue and read banner crops.

By default, the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Use --watch to keep a catalogue document imported while serving; the
search index is rebuilt after every change to it. Use --auto-refresh to
rebuild the index periodically when another process writes the store.

Examples:
  # Stdio mode (default)
  gangboyz mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  gangboyz mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "gangboyz": {
        "command": "/path/to/gangboyz",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringVar(&mcpWatchFile, "watch", "", "catalogue document to re-import on change")
	mcpServeCmd.Flags().DurationVar(&mcpAutoRefresh, "auto-refresh", 0, "refresh the index on this interval (0 = off)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	ports := &mcp.Ports{
		Search: searchService,
		Crop:   cropService,
		Engine: transformEngine,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}
	if metricsHandler != nil {
		server.SetMetricsHandler(metricsHandler)
	}

	ctx := cmd.Context()
	g, gctx := errgroup.WithContext(ctx)

	if mcpWatchFile != "" {
		if catalogService == nil {
			return errNoCatalogService
		}
		format, err := resolveFormat(mcpWatchFile)
		if err != nil {
			return err
		}
		w := watch.NewCatalogWatcher(mcpWatchFile, format, catalogService, searchService)
		w.OnReload(func(r watch.Reload) {
			if r.Err != nil {
				logger.Warn("catalogue reload: %v", r.Err)
			}
		})
		g.Go(func() error { return w.Run(gctx) })
	}

	if mcpAutoRefresh > 0 {
		refresher := services.NewIndexRefresher(searchService, mcpAutoRefresh)
		g.Go(func() error {
			if err := refresher.Start(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			if metricsHandler != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Metrics at http://localhost%s/metrics\n", addr)
			}
			return server.RunHTTP(gctx, addr)
		}
		return server.Run(gctx)
	})

	return g.Wait()
}
