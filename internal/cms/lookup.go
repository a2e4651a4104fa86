// ABOUTME: Content lookup by slug and by public URL
// ABOUTME: URL lookup guesses likely content types from path keywords before falling back to post and page

package cms

import (
	"context"
	"net/url"
	"strings"

	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/store"
)

var defaultLookupTypes = []string{"post", "page"}

// urlTypeHints maps URL keywords to the content types they usually belong
// to. Order matters: earlier matches are searched first.
var urlTypeHints = []struct {
	keyword string
	types   []string
}{
	{"documentation", []string{"documentation", "docs", "doc"}},
	{"docs", []string{"documentation", "docs", "doc"}},
	{"products", []string{"product"}},
	{"product", []string{"product"}},
	{"portfolio", []string{"portfolio", "project"}},
	{"services", []string{"service"}},
	{"testimonials", []string{"testimonial"}},
	{"team", []string{"team_member", "staff"}},
	{"events", []string{"event"}},
	{"courses", []string{"course", "lesson"}},
}

type slugMatch struct {
	Found       bool          `json:"found"`
	ContentType string        `json:"content_type"`
	Content     contentDetail `json:"content"`
}

// GetBySlug searches the given content types, in order, for a slug. Unknown
// types are skipped.
func (c *contentTools) GetBySlug(ctx context.Context, params packs.Params) (packs.Result, error) {
	slug := params.String("slug")
	types := defaultLookupTypes
	if params.Has("content_types") {
		types = stringList(params.Slice("content_types"))
	}

	p, err := c.findBySlug(ctx, slug, types)
	if err != nil {
		return packs.Result{}, err
	}
	if p == nil {
		return packs.Result{}, domainError(store.CodeNotFound,
			"No content found with slug '%s' in content types: %s", slug, strings.Join(types, ", "))
	}

	detail, err := c.detail(ctx, p)
	if err != nil {
		return packs.Result{}, err
	}
	return packs.OK(slugMatch{Found: true, ContentType: p.Type, Content: detail}, "Content found successfully"), nil
}

type urlMatch struct {
	Found       bool          `json:"found"`
	ContentType string        `json:"content_type"`
	ContentID   int64         `json:"content_id"`
	OriginalURL string        `json:"original_url"`
	Updated     bool          `json:"updated"`
	Content     contentDetail `json:"content"`
}

// FindByURL resolves a public URL to content via its last path segment and,
// when update_fields carries title, content or status, updates the match.
func (c *contentTools) FindByURL(ctx context.Context, params packs.Params) (packs.Result, error) {
	rawURL := params.String("url")
	slug := slugFromURL(rawURL)
	if slug == "" {
		return packs.Result{}, packs.NewValidationError("Could not extract slug from URL",
			map[string]string{"url": "Invalid URL format"})
	}

	p, err := c.findBySlug(ctx, slug, guessTypes(rawURL))
	if err != nil {
		return packs.Result{}, err
	}
	if p == nil {
		return packs.Result{}, domainError(store.CodeNotFound, "No content found with URL: %s", rawURL)
	}

	fields := packs.Params(params.Map("update_fields"))
	patch := store.PostPatch{
		Title:   optString(fields, "title"),
		Content: optString(fields, "content"),
		Status:  optString(fields, "status"),
	}
	updated := !patch.Empty()
	if updated {
		if p, err = c.store.UpdatePost(ctx, p.ID, patch); err != nil {
			return packs.Result{}, failed("update content", err)
		}
	}

	detail, err := c.detail(ctx, p)
	if err != nil {
		return packs.Result{}, err
	}
	message := "Content found successfully"
	if updated {
		message = "Content found and updated"
	}
	return packs.OK(urlMatch{
		Found:       true,
		ContentType: p.Type,
		ContentID:   p.ID,
		OriginalURL: rawURL,
		Updated:     updated,
		Content:     detail,
	}, message), nil
}

// findBySlug returns the first non-trashed post with slug among types, or
// nil when there is none.
func (c *contentTools) findBySlug(ctx context.Context, slug string, types []string) (*store.Post, error) {
	for _, t := range types {
		ok, err := c.store.TypeExists(ctx, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		posts, err := c.store.ListPosts(ctx, store.PostQuery{
			Type:   t,
			Status: store.StatusAny,
			Slug:   slug,
			Limit:  1,
		})
		if err != nil {
			return nil, err
		}
		if len(posts) > 0 {
			return posts[0], nil
		}
	}
	return nil, nil
}

// slugFromURL returns the last non-empty segment of the URL path.
func slugFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// guessTypes lists the content types to search for a URL, hinted types
// first, then post and page, without duplicates.
func guessTypes(raw string) []string {
	lower := strings.ToLower(raw)
	seen := make(map[string]bool)
	var out []string
	add := func(types ...string) {
		for _, t := range types {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	for _, hint := range urlTypeHints {
		if strings.Contains(lower, hint.keyword) {
			add(hint.types...)
		}
	}
	add(defaultLookupTypes...)
	return out
}

func stringList(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
