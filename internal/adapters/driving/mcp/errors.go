// Package mcp provides an MCP (Model Context Protocol) server adapter for gangboyz.
// It lets AI assistants search the storefront catalogue and inspect banner crops.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrCropUnavailable is returned by crop tools when no crop service is wired.
var ErrCropUnavailable = errors.New("mcp: crop service not configured")
