// ABOUTME: Registers the content and taxonomy packs with a tool registry
// ABOUTME: Shared by the HTTP and stdio entry points so both expose the same tools

package cms

import (
	"fmt"

	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/store"
)

// Register adds the content and taxonomy packs backed by st to r.
func Register(r *packs.Registry, st store.Store, site Site) error {
	for _, pack := range []*packs.Pack{ContentPack(st, site), TaxonomyPack(st)} {
		if err := r.RegisterPack(pack); err != nil {
			return fmt.Errorf("registering %s: %w", pack.ID, err)
		}
	}
	return nil
}
