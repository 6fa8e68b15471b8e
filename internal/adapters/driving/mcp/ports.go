package mcp

import (
	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Search runs and recalls searches.
	Search driving.SearchService

	// Library lists indexed books. Optional.
	Library driving.LibraryService

	// UserID owns searches made through this server when a call does not
	// name its caller in UserHeader. Defaults to domain.DefaultUserID.
	UserID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

func (p *Ports) user() string {
	if p.UserID == "" {
		return domain.DefaultUserID
	}
	return p.UserID
}
