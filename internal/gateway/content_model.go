// ABOUTME: Registers configured content types and taxonomies with the store
// ABOUTME: Runs on every start; registrations are upserts so edits to the config take effect

package gateway

import (
	"context"
	"fmt"

	"github.com/2389/cms-mcp/internal/config"
	"github.com/2389/cms-mcp/internal/store"
)

// applyContentModel registers cfg's content types, then its taxonomies.
// A taxonomy may only attach to content types that exist once the content
// types are registered.
func applyContentModel(ctx context.Context, st store.Store, cfg *config.Config) error {
	for _, ct := range cfg.ContentTypes {
		if err := st.EnsurePostType(ctx, postTypeFromConfig(ct)); err != nil {
			return fmt.Errorf("registering content type %s: %w", ct.Name, err)
		}
	}

	for _, tc := range cfg.Taxonomies {
		for _, objectType := range tc.ObjectTypes {
			ok, err := st.TypeExists(ctx, objectType)
			if err != nil {
				return fmt.Errorf("checking content type %s: %w", objectType, err)
			}
			if !ok {
				return fmt.Errorf("taxonomy %s: unknown content type %q", tc.Name, objectType)
			}
		}
		if err := st.EnsureTaxonomy(ctx, taxonomyFromConfig(tc)); err != nil {
			return fmt.Errorf("registering taxonomy %s: %w", tc.Name, err)
		}
	}
	return nil
}

func postTypeFromConfig(ct config.ContentTypeConfig) *store.PostType {
	return &store.PostType{
		Name:          ct.Name,
		Label:         ct.Label,
		SingularLabel: ct.SingularLabel,
		Description:   ct.Description,
		Public:        ct.IsPublic(),
		Hierarchical:  ct.Hierarchical,
		ShowUI:        true,
		ShowInRest:    true,
		RestBase:      ct.RestBase,
		HasArchive:    ct.HasArchive,
		MenuIcon:      ct.MenuIcon,
		Supports:      ct.Supports,
	}
}

func taxonomyFromConfig(tc config.TaxonomyConfig) *store.Taxonomy {
	return &store.Taxonomy{
		Name:          tc.Name,
		Label:         tc.Label,
		SingularLabel: tc.SingularLabel,
		Description:   tc.Description,
		Public:        tc.IsPublic(),
		Hierarchical:  tc.Hierarchical,
		ShowUI:        true,
		ShowInRest:    true,
		ShowTagcloud:  tc.ShowTagcloud,
		ObjectTypes:   tc.ObjectTypes,
	}
}
