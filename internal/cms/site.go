// ABOUTME: Site identity used to build public and admin links for content
// ABOUTME: Also assembles the site information exposed as an MCP resource

package cms

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389/cms-mcp/internal/store"
)

// Site describes the public site the content belongs to.
type Site struct {
	Name       string
	URL        string
	AdminEmail string
}

func (s Site) base() string {
	return strings.TrimRight(s.URL, "/")
}

// Permalink returns the public URL of p. Unpublished content is addressed by
// ID since its slug is not yet routable.
func (s Site) Permalink(p *store.Post) string {
	if p.Status != store.StatusPublish {
		return fmt.Sprintf("%s/?p=%d", s.base(), p.ID)
	}
	switch p.Type {
	case "post", "page":
		return s.base() + "/" + p.Slug + "/"
	default:
		return s.base() + "/" + p.Type + "/" + p.Slug + "/"
	}
}

// EditURL returns the admin URL for editing content id.
func (s Site) EditURL(id int64) string {
	return fmt.Sprintf("%s/admin/content/%d/edit", s.base(), id)
}

// SiteInfo is the payload of the site information resource.
type SiteInfo struct {
	SiteName   string `json:"site_name"`
	SiteURL    string `json:"site_url"`
	AdminEmail string `json:"admin_email"`
	Version    string `json:"version"`
	PostsCount int64  `json:"posts_count"`
	PagesCount int64  `json:"pages_count"`
}

// Info reports the site identity, the store version and the number of
// published posts and pages.
func (s Site) Info(ctx context.Context, st store.Store) (*SiteInfo, error) {
	version, err := st.Version(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := st.CountPosts(ctx, "post")
	if err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	pages, err := st.CountPosts(ctx, "page")
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	return &SiteInfo{
		SiteName:   s.Name,
		SiteURL:    s.URL,
		AdminEmail: s.AdminEmail,
		Version:    version,
		PostsCount: posts[store.StatusPublish],
		PagesCount: pages[store.StatusPublish],
	}, nil
}
