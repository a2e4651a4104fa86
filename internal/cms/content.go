// ABOUTME: Content pack: list, read, create, update, delete and discover content of any type
// ABOUTME: Handlers map validated parameters onto the store and shape the results

package cms

import (
	"context"

	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/schema"
	"github.com/2389/cms-mcp/internal/store"
)

// ContentPackID identifies the content pack in the registry.
const ContentPackID = "cms:content"

// List defaults.
const (
	defaultPerPage = 10
	defaultOrderBy = "date"
	defaultOrder   = "DESC"
)

var (
	listStatuses   = []string{store.StatusPublish, store.StatusDraft, store.StatusPending, store.StatusPrivate, store.StatusTrash, store.StatusAny}
	createStatuses = []string{store.StatusPublish, store.StatusDraft, store.StatusPending, store.StatusPrivate, store.StatusFuture}
	updateStatuses = []string{store.StatusPublish, store.StatusDraft, store.StatusPending, store.StatusPrivate, store.StatusTrash}
	openClosed     = []string{"open", "closed"}
)

type contentTools struct {
	store store.Store
	site  Site
}

// ContentPack creates the content pack over st. Links in results are built
// from site.
func ContentPack(st store.Store, site Site) *packs.Pack {
	c := &contentTools{store: st, site: site}
	return &packs.Pack{
		ID: ContentPackID,
		Tools: []*packs.Tool{
			{
				Name: "list_content",
				Description: "List content of any type (posts, pages, custom post types). " +
					"Supports filtering by status, author and search, with pagination and ordering.",
				Schema: schema.New(
					schema.F("content_type", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("status", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(listStatuses...)),
					schema.F("per_page", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(1), schema.Max(100)),
					schema.F("page", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("orderby", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf("date", "title", "modified", "author", "ID")),
					schema.F("order", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf("ASC", "DESC")),
					schema.F("author", schema.Optional(), schema.TypeIs(schema.Int)),
					schema.F("search", schema.Optional(), schema.TypeIs(schema.String)),
				),
				Handler: c.List,
			},
			{
				Name:        "get_content",
				Description: "Get detailed information about a specific piece of content by ID.",
				Schema: schema.New(
					schema.F("content_id", schema.Required(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("content_type", schema.Optional(), schema.TypeIs(schema.String), schema.NotEmpty()),
				),
				Handler: c.Get,
			},
			{
				Name: "create_content",
				Description: "Create new content of any type (post, page, custom post type). " +
					"Supports setting title, content, status, author, and more. " +
					"Content may be given as HTML or as markdown.",
				Schema: schema.New(
					schema.F("content_type", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("title", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty(), schema.MaxLength(200)),
					schema.F("content", schema.Required(), schema.TypeIs(schema.String)),
					schema.F("content_format", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(FormatHTML, FormatMarkdown)),
					schema.F("status", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(createStatuses...)),
					schema.F("author_id", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("excerpt", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("slug", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("parent_id", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(0)),
					schema.F("menu_order", schema.Optional(), schema.TypeIs(schema.Int)),
					schema.F("comment_status", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(openClosed...)),
					schema.F("ping_status", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(openClosed...)),
				),
				Handler: c.Create,
			},
			{
				Name: "update_content",
				Description: "Update existing content by ID. Supports partial updates - " +
					"only provide fields you want to change.",
				Schema: schema.New(
					schema.F("content_id", schema.Required(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("title", schema.Optional(), schema.TypeIs(schema.String), schema.NotEmpty(), schema.MaxLength(200)),
					schema.F("content", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("content_format", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(FormatHTML, FormatMarkdown)),
					schema.F("status", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(updateStatuses...)),
					schema.F("author_id", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("excerpt", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("slug", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("parent_id", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(0)),
					schema.F("menu_order", schema.Optional(), schema.TypeIs(schema.Int)),
					schema.F("comment_status", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(openClosed...)),
					schema.F("ping_status", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf(openClosed...)),
				),
				Handler: c.Update,
			},
			{
				Name: "delete_content",
				Description: "Delete content by ID. By default moves to trash - " +
					"set force_delete to permanently delete.",
				Schema: schema.New(
					schema.F("content_id", schema.Required(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("force_delete", schema.Optional(), schema.TypeIs(schema.Bool)),
				),
				Destructive: true,
				Operation:   "Deleting content",
				Handler:     c.Delete,
			},
			{
				Name: "discover_content_types",
				Description: "Discover all available content types (post types). " +
					"Returns each type's settings, supported features, taxonomies and post counts.",
				Schema: schema.New(
					schema.F("show_ui", schema.Optional(), schema.TypeIs(schema.Bool)),
					schema.F("public", schema.Optional(), schema.TypeIs(schema.Bool)),
				),
				Handler: c.DiscoverTypes,
			},
			{
				Name:        "get_content_by_slug",
				Description: "Searches for content by slug across one or more content types.",
				Schema: schema.New(
					schema.F("slug", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("content_types", schema.Optional(), schema.TypeIs(schema.Array)),
				),
				Handler: c.GetBySlug,
			},
			{
				Name:        "find_content_by_url",
				Description: "Finds content by its URL, automatically detecting the content type, and optionally updates it.",
				Schema: schema.New(
					schema.F("url", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("update_fields", schema.Optional(), schema.TypeIs(schema.Array)),
				),
				Handler: c.FindByURL,
			},
		},
	}
}

type contentList struct {
	ContentType string           `json:"content_type"`
	Count       int              `json:"count"`
	Page        int64            `json:"page"`
	PerPage     int64            `json:"per_page"`
	Items       []contentSummary `json:"items"`
}

// List returns one page of content of a type.
func (c *contentTools) List(ctx context.Context, params packs.Params) (packs.Result, error) {
	contentType := params.String("content_type")
	if err := requireType(ctx, c.store, contentType); err != nil {
		return packs.Result{}, err
	}

	perPage := params.IntOr("per_page", defaultPerPage)
	page := params.IntOr("page", 1)
	posts, err := c.store.ListPosts(ctx, store.PostQuery{
		Type:     contentType,
		Status:   params.StringOr("status", store.StatusPublish),
		AuthorID: params.Int("author"),
		Search:   params.String("search"),
		OrderBy:  params.StringOr("orderby", defaultOrderBy),
		Order:    params.StringOr("order", defaultOrder),
		Limit:    int(perPage),
		Offset:   int((page - 1) * perPage),
	})
	if err != nil {
		return packs.Result{}, err
	}

	items := make([]contentSummary, 0, len(posts))
	for _, p := range posts {
		item, err := c.summary(ctx, p)
		if err != nil {
			return packs.Result{}, err
		}
		items = append(items, item)
	}

	return packs.OK(contentList{
		ContentType: contentType,
		Count:       len(items),
		Page:        page,
		PerPage:     perPage,
		Items:       items,
	}, ""), nil
}

// Get returns one piece of content, optionally checking its type.
func (c *contentTools) Get(ctx context.Context, params packs.Params) (packs.Result, error) {
	id := params.Int("content_id")
	p, err := c.store.GetPost(ctx, id)
	if err != nil {
		return packs.Result{}, err
	}
	if want := params.String("content_type"); want != "" && p.Type != want {
		return packs.Result{}, domainError(store.CodeNotFound,
			"Content with ID %d is of type '%s', not '%s'", id, p.Type, want)
	}

	out, err := c.detail(ctx, p)
	if err != nil {
		return packs.Result{}, err
	}
	return packs.OK(out, ""), nil
}

// Create inserts new content. Status defaults to draft.
func (c *contentTools) Create(ctx context.Context, params packs.Params) (packs.Result, error) {
	contentType := params.String("content_type")
	if err := requireType(ctx, c.store, contentType); err != nil {
		return packs.Result{}, err
	}

	body, err := renderContent(params.String("content"), params.String("content_format"))
	if err != nil {
		return packs.Result{}, err
	}

	created, err := c.store.CreatePost(ctx, &store.Post{
		Type:          contentType,
		Title:         params.String("title"),
		Content:       body,
		Status:        params.StringOr("status", store.StatusDraft),
		AuthorID:      params.Int("author_id"),
		Excerpt:       params.String("excerpt"),
		Slug:          params.String("slug"),
		ParentID:      params.Int("parent_id"),
		MenuOrder:     params.Int("menu_order"),
		CommentStatus: params.String("comment_status"),
		PingStatus:    params.String("ping_status"),
	})
	if err != nil {
		return packs.Result{}, failed("create content", err)
	}

	return packs.OK(c.ref(created, false), "Content created successfully"), nil
}

// Update applies a partial update to existing content.
func (c *contentTools) Update(ctx context.Context, params packs.Params) (packs.Result, error) {
	id := params.Int("content_id")
	if _, err := c.store.GetPost(ctx, id); err != nil {
		return packs.Result{}, err
	}

	patch := store.PostPatch{
		Title:         optString(params, "title"),
		Content:       optString(params, "content"),
		Status:        optString(params, "status"),
		AuthorID:      optInt(params, "author_id"),
		Excerpt:       optString(params, "excerpt"),
		Slug:          optString(params, "slug"),
		ParentID:      optInt(params, "parent_id"),
		MenuOrder:     optInt(params, "menu_order"),
		CommentStatus: optString(params, "comment_status"),
		PingStatus:    optString(params, "ping_status"),
	}
	if patch.Content != nil {
		body, err := renderContent(*patch.Content, params.String("content_format"))
		if err != nil {
			return packs.Result{}, err
		}
		patch.Content = &body
	}

	updated, err := c.store.UpdatePost(ctx, id, patch)
	if err != nil {
		return packs.Result{}, failed("update content", err)
	}

	return packs.OK(c.ref(updated, true), "Content updated successfully"), nil
}

type deletedContent struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Slug               string `json:"slug"`
	Type               string `json:"type"`
	PreviousStatus     string `json:"previous_status"`
	PermanentlyDeleted bool   `json:"permanently_deleted"`
	CurrentStatus      string `json:"current_status,omitempty"`
}

// Delete trashes content, or removes it permanently with force_delete.
func (c *contentTools) Delete(ctx context.Context, params packs.Params) (packs.Result, error) {
	id := params.Int("content_id")
	force := params.Bool("force_delete")

	before, err := c.store.DeletePost(ctx, id, force)
	if err != nil {
		return packs.Result{}, err
	}

	out := deletedContent{
		ID:                 before.ID,
		Title:              before.Title,
		Slug:               before.Slug,
		Type:               before.Type,
		PreviousStatus:     before.Status,
		PermanentlyDeleted: force,
	}
	if force {
		return packs.OK(out, "Content permanently deleted"), nil
	}
	out.CurrentStatus = store.StatusTrash
	return packs.OK(out, "Content moved to trash"), nil
}

type contentTypeList struct {
	ContentTypes []postTypeInfo `json:"content_types"`
	Count        int            `json:"count"`
}

// DiscoverTypes lists registered post types with their post counts.
func (c *contentTools) DiscoverTypes(ctx context.Context, params packs.Params) (packs.Result, error) {
	types, err := c.store.ListPostTypes(ctx, typeFilter(params))
	if err != nil {
		return packs.Result{}, err
	}

	out := make([]postTypeInfo, 0, len(types))
	for _, pt := range types {
		counts, err := c.store.CountPosts(ctx, pt.Name)
		if err != nil {
			return packs.Result{}, err
		}
		taxonomies, err := c.store.ObjectTaxonomies(ctx, pt.Name)
		if err != nil {
			return packs.Result{}, err
		}
		out = append(out, newPostTypeInfo(pt, taxonomies, counts))
	}

	return packs.OK(contentTypeList{ContentTypes: out, Count: len(out)}, "Content types discovered successfully"), nil
}

func typeFilter(params packs.Params) store.TypeFilter {
	var f store.TypeFilter
	if params.Has("show_ui") {
		v := params.Bool("show_ui")
		f.ShowUI = &v
	}
	if params.Has("public") {
		v := params.Bool("public")
		f.Public = &v
	}
	return f
}

func optString(params packs.Params, name string) *string {
	if !params.Has(name) {
		return nil
	}
	v := params.String(name)
	return &v
}

func optInt(params packs.Params, name string) *int64 {
	if !params.Has(name) {
		return nil
	}
	v := params.Int(name)
	return &v
}
