// ABOUTME: Read-only MCP resources and the site://info resource.
// ABOUTME: Resource payloads are encoded as JSON text contents.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2389/cms-mcp/internal/cms"
	"github.com/2389/cms-mcp/internal/store"
)

// SiteInfoURI is the URI of the site information resource.
const SiteInfoURI = "site://info"

// Resource is a named, read-only document served through resources/read.
type Resource struct {
	URI         string
	Name        string
	Description string

	// Read returns the value to encode as the resource body.
	Read func(ctx context.Context) (any, error)
}

func (r Resource) info() MCPResourceInfo {
	return MCPResourceInfo{
		URI:         r.URI,
		Name:        r.Name,
		Description: r.Description,
		MimeType:    "application/json",
	}
}

func (r Resource) read(ctx context.Context) (MCPResourceContents, error) {
	value, err := r.Read(ctx)
	if err != nil {
		return MCPResourceContents{}, err
	}
	text, err := json.Marshal(value)
	if err != nil {
		return MCPResourceContents{}, fmt.Errorf("encoding %s: %w", r.URI, err)
	}
	return MCPResourceContents{URI: r.URI, MimeType: "application/json", Text: string(text)}, nil
}

// SiteInfoResource exposes the site's name, URL, admin email, store version,
// and published post and page counts.
func SiteInfoResource(site cms.Site, st store.Store) Resource {
	return Resource{
		URI:         SiteInfoURI,
		Name:        "Site Information",
		Description: "General information about the site",
		Read: func(ctx context.Context) (any, error) {
			return site.Info(ctx, st)
		},
	}
}
