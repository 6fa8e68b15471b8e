// Package mcp provides an MCP (Model Context Protocol) server adapter for shelf.
// It lets AI assistants search the ebook library and browse past searches.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
