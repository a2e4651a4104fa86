// ABOUTME: Output shapes for content, post types, taxonomies and terms
// ABOUTME: Field names match what MCP clients of the content tools expect

package cms

import (
	"context"
	"regexp"
	"strings"

	"github.com/2389/cms-mcp/internal/store"
)

// excerptWords is the length of generated excerpts in list output.
const excerptWords = 20

type authorRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type contentSummary struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	Status   string    `json:"status"`
	Type     string    `json:"type"`
	Date     string    `json:"date"`
	Modified string    `json:"modified"`
	Author   authorRef `json:"author"`
	Excerpt  string    `json:"excerpt"`
	URL      string    `json:"url"`
	EditURL  string    `json:"edit_url"`
}

type contentDetail struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	Date          string    `json:"date"`
	Modified      string    `json:"modified"`
	Author        authorRef `json:"author"`
	Parent        int64     `json:"parent"`
	MenuOrder     int64     `json:"menu_order"`
	CommentStatus string    `json:"comment_status"`
	PingStatus    string    `json:"ping_status"`
	URL           string    `json:"url"`
	EditURL       string    `json:"edit_url"`
}

type contentRef struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Modified string `json:"modified,omitempty"`
	URL      string `json:"url"`
	EditURL  string `json:"edit_url"`
}

func (c *contentTools) author(ctx context.Context, id int64) (authorRef, error) {
	name, err := c.store.AuthorName(ctx, id)
	if err != nil {
		return authorRef{}, err
	}
	return authorRef{ID: id, Name: name}, nil
}

func (c *contentTools) summary(ctx context.Context, p *store.Post) (contentSummary, error) {
	author, err := c.author(ctx, p.AuthorID)
	if err != nil {
		return contentSummary{}, err
	}
	return contentSummary{
		ID:       p.ID,
		Title:    p.Title,
		Slug:     p.Slug,
		Status:   p.Status,
		Type:     p.Type,
		Date:     p.CreatedAt.Format(store.DateLayout),
		Modified: p.ModifiedAt.Format(store.DateLayout),
		Author:   author,
		Excerpt:  trimWords(stripTags(p.Content), excerptWords),
		URL:      c.site.Permalink(p),
		EditURL:  c.site.EditURL(p.ID),
	}, nil
}

func (c *contentTools) detail(ctx context.Context, p *store.Post) (contentDetail, error) {
	author, err := c.author(ctx, p.AuthorID)
	if err != nil {
		return contentDetail{}, err
	}
	return contentDetail{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Content:       p.Content,
		Excerpt:       p.Excerpt,
		Status:        p.Status,
		Type:          p.Type,
		Date:          p.CreatedAt.Format(store.DateLayout),
		Modified:      p.ModifiedAt.Format(store.DateLayout),
		Author:        author,
		Parent:        p.ParentID,
		MenuOrder:     p.MenuOrder,
		CommentStatus: p.CommentStatus,
		PingStatus:    p.PingStatus,
		URL:           c.site.Permalink(p),
		EditURL:       c.site.EditURL(p.ID),
	}, nil
}

func (c *contentTools) ref(p *store.Post, withModified bool) contentRef {
	r := contentRef{
		ID:      p.ID,
		Title:   p.Title,
		Slug:    p.Slug,
		Type:    p.Type,
		Status:  p.Status,
		URL:     c.site.Permalink(p),
		EditURL: c.site.EditURL(p.ID),
	}
	if withModified {
		r.Modified = p.ModifiedAt.Format(store.DateLayout)
	}
	return r
}

type typeLabels struct {
	Name         string `json:"name"`
	SingularName string `json:"singular_name"`
}

type statusCounts struct {
	Publish int64 `json:"publish"`
	Draft   int64 `json:"draft"`
	Pending int64 `json:"pending"`
	Private int64 `json:"private"`
	Trash   int64 `json:"trash"`
}

type postTypeInfo struct {
	Name         string       `json:"name"`
	Label        string       `json:"label"`
	Labels       typeLabels   `json:"labels"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	Hierarchical bool         `json:"hierarchical"`
	ShowUI       bool         `json:"show_ui"`
	ShowInRest   bool         `json:"show_in_rest"`
	RestBase     string       `json:"rest_base"`
	HasArchive   bool         `json:"has_archive"`
	MenuIcon     string       `json:"menu_icon,omitempty"`
	Supports     []string     `json:"supports"`
	Taxonomies   []string     `json:"taxonomies"`
	Counts       statusCounts `json:"counts"`
}

func newPostTypeInfo(pt *store.PostType, taxonomies []string, counts map[string]int64) postTypeInfo {
	supports := pt.Supports
	if supports == nil {
		supports = []string{}
	}
	return postTypeInfo{
		Name:         pt.Name,
		Label:        pt.Label,
		Labels:       typeLabels{Name: pt.Label, SingularName: pt.SingularLabel},
		Description:  pt.Description,
		Public:       pt.Public,
		Hierarchical: pt.Hierarchical,
		ShowUI:       pt.ShowUI,
		ShowInRest:   pt.ShowInRest,
		RestBase:     pt.RestBase,
		HasArchive:   pt.HasArchive,
		MenuIcon:     pt.MenuIcon,
		Supports:     supports,
		Taxonomies:   taxonomies,
		Counts: statusCounts{
			Publish: counts[store.StatusPublish],
			Draft:   counts[store.StatusDraft],
			Pending: counts[store.StatusPending],
			Private: counts[store.StatusPrivate],
			Trash:   counts[store.StatusTrash],
		},
	}
}

type taxonomyInfo struct {
	Name         string     `json:"name"`
	Label        string     `json:"label"`
	Labels       typeLabels `json:"labels"`
	Description  string     `json:"description"`
	Public       bool       `json:"public"`
	Hierarchical bool       `json:"hierarchical"`
	ShowUI       bool       `json:"show_ui"`
	ShowInRest   bool       `json:"show_in_rest"`
	RestBase     string     `json:"rest_base"`
	ShowTagcloud bool       `json:"show_tagcloud"`
	ObjectTypes  []string   `json:"object_types"`
}

func newTaxonomyInfo(t *store.Taxonomy) taxonomyInfo {
	objectTypes := t.ObjectTypes
	if objectTypes == nil {
		objectTypes = []string{}
	}
	return taxonomyInfo{
		Name:         t.Name,
		Label:        t.Label,
		Labels:       typeLabels{Name: t.Label, SingularName: t.SingularLabel},
		Description:  t.Description,
		Public:       t.Public,
		Hierarchical: t.Hierarchical,
		ShowUI:       t.ShowUI,
		ShowInRest:   t.ShowInRest,
		RestBase:     t.RestBase,
		ShowTagcloud: t.ShowTagcloud,
		ObjectTypes:  objectTypes,
	}
}

type termInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Taxonomy    string `json:"taxonomy,omitempty"`
	Parent      int64  `json:"parent"`
	Count       int64  `json:"count"`
}

func newTermInfo(t *store.Term) termInfo {
	return termInfo{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		Taxonomy:    t.Taxonomy,
		Parent:      t.Parent,
		Count:       t.Count,
	}
}

func newTermInfos(terms []*store.Term, withTaxonomy bool) []termInfo {
	out := make([]termInfo, 0, len(terms))
	for _, t := range terms {
		info := newTermInfo(t)
		if !withTaxonomy {
			info.Taxonomy = ""
		}
		out = append(out, info)
	}
	return out
}

type termRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy,omitempty"`
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}

// trimWords keeps the first n words of s, appending an ellipsis when words
// were dropped.
func trimWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}
