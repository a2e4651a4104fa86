// ABOUTME: Tests for the content pack tools through the executor
// ABOUTME: Covers defaults, partial updates, markdown input, trash versus force delete, and safe mode

package cms

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/store"
)

func TestListContent(t *testing.T) {
	f := newFixture(t, false)

	first := f.createPost(t, &store.Post{Type: "post", Title: "First", Status: store.StatusPublish,
		Content: "<p>" + strings.Repeat("word ", 30) + "</p>"})
	second := f.createPost(t, &store.Post{Type: "post", Title: "Second", Status: store.StatusPublish})
	f.createPost(t, &store.Post{Type: "post", Title: "Draft", Status: store.StatusDraft})

	out := f.mustSucceed(t, "list_content", `{"content_type":"post"}`)
	list, ok := out.Data.(contentList)
	require.True(t, ok)

	assert.Equal(t, "post", list.ContentType)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, int64(1), list.Page)
	assert.Equal(t, int64(10), list.PerPage)
	require.Len(t, list.Items, 2)
	assert.Equal(t, second.ID, list.Items[0].ID, "newest first")
	assert.Equal(t, first.ID, list.Items[1].ID)

	item := list.Items[1]
	assert.Equal(t, "Administrator", item.Author.Name)
	assert.Equal(t, strings.TrimSpace(strings.Repeat("word ", 20))+"…", item.Excerpt)
	assert.Equal(t, "https://example.com/first/", item.URL)
	assert.Equal(t, fmt.Sprintf("https://example.com/admin/content/%d/edit", first.ID), item.EditURL)
}

func TestListContent_Pagination(t *testing.T) {
	f := newFixture(t, false)

	for i := range 5 {
		f.createPost(t, &store.Post{Type: "page", Title: fmt.Sprintf("Page %d", i), Status: store.StatusPublish})
	}

	out := f.mustSucceed(t, "list_content", `{"content_type":"page","per_page":2,"page":3,"orderby":"title","order":"ASC"}`)
	list := out.Data.(contentList)
	assert.Equal(t, int64(3), list.Page)
	assert.Equal(t, int64(2), list.PerPage)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Page 4", list.Items[0].Title)

	out = f.mustSucceed(t, "list_content", `{"content_type":"page","status":"any","search":"Page 2"}`)
	assert.Equal(t, 1, out.Data.(contentList).Count)
}

func TestListContent_Failures(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name   string
		args   string
		kind   packs.FailureKind
		errMsg string
		errors map[string]string
	}{
		{
			name:   "unknown type",
			args:   `{"content_type":"product"}`,
			kind:   packs.KindDomainError,
			errMsg: "Store error: Content type 'product' does not exist",
		},
		{
			name:   "missing type",
			args:   `{}`,
			kind:   packs.KindValidationFailed,
			errMsg: packs.MsgValidationFailed,
			errors: map[string]string{"content_type": "Field 'content_type' is required"},
		},
		{
			name:   "bad paging",
			args:   `{"content_type":"post","per_page":0,"page":1.5,"status":"archived"}`,
			kind:   packs.KindValidationFailed,
			errMsg: packs.MsgValidationFailed,
			errors: map[string]string{
				"per_page": "per_page must be at least 1",
				"page":     "page must be an integer",
				"status":   "status must be one of: publish, draft, pending, private, trash, any",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := f.call(t, "list_content", tt.args)
			assert.False(t, out.Success)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.errMsg, out.Error)
			assert.Equal(t, tt.errors, out.Errors)
		})
	}
}

func TestGetContent(t *testing.T) {
	f := newFixture(t, false)
	page := f.createPost(t, &store.Post{Type: "page", Title: "About", Content: "<p>About us</p>",
		Excerpt: "Who we are", MenuOrder: 3, CommentStatus: "closed"})

	out := f.mustSucceed(t, "get_content", fmt.Sprintf(`{"content_id":%d}`, page.ID))
	detail := out.Data.(contentDetail)
	assert.Equal(t, "About", detail.Title)
	assert.Equal(t, "<p>About us</p>", detail.Content)
	assert.Equal(t, "Who we are", detail.Excerpt)
	assert.Equal(t, int64(3), detail.MenuOrder)
	assert.Equal(t, "closed", detail.CommentStatus)
	assert.Equal(t, store.StatusDraft, detail.Status)
	assert.Equal(t, fmt.Sprintf("https://example.com/?p=%d", page.ID), detail.URL)

	out = f.call(t, "get_content", fmt.Sprintf(`{"content_id":%d,"content_type":"post"}`, page.ID))
	assert.False(t, out.Success)
	assert.Equal(t, fmt.Sprintf("Store error: Content with ID %d is of type 'page', not 'post'", page.ID), out.Error)

	out = f.call(t, "get_content", `{"content_id":999}`)
	assert.Equal(t, packs.KindDomainError, out.Kind)
	assert.Equal(t, "Store error: Content with ID 999 not found", out.Error)
	assert.Equal(t, store.CodeNotFound, out.Code)
}

func TestCreateContent(t *testing.T) {
	f := newFixture(t, false)

	out := f.mustSucceed(t, "create_content", `{"content_type":"post","title":"Hello World","content":"<p>Hi</p>"}`)
	assert.Equal(t, "Content created successfully", out.Message)
	ref := out.Data.(contentRef)
	assert.Equal(t, "hello-world", ref.Slug)
	assert.Equal(t, store.StatusDraft, ref.Status)
	assert.Equal(t, "post", ref.Type)
	assert.Empty(t, ref.Modified)

	stored, err := f.store.GetPost(t.Context(), ref.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", stored.Content)
}

func TestCreateContent_Markdown(t *testing.T) {
	f := newFixture(t, false)

	out := f.mustSucceed(t, "create_content",
		`{"content_type":"page","title":"Docs","content":"# Intro\n\nSome *emphasis*","content_format":"markdown","status":"publish"}`)
	ref := out.Data.(contentRef)

	stored, err := f.store.GetPost(t.Context(), ref.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Content, "<h1>Intro</h1>")
	assert.Contains(t, stored.Content, "<em>emphasis</em>")
	assert.Equal(t, "https://example.com/docs/", ref.URL)
}

func TestCreateContent_Failures(t *testing.T) {
	f := newFixture(t, false)

	out := f.call(t, "create_content", `{"content_type":"post","title":"","content":"x","status":"trash"}`)
	assert.Equal(t, packs.KindValidationFailed, out.Kind)
	assert.Equal(t, map[string]string{
		"title":  "title must not be empty",
		"status": "status must be one of: publish, draft, pending, private, future",
	}, out.Errors)

	out = f.call(t, "create_content", `{"content_type":"post","title":"`+strings.Repeat("x", 201)+`","content":"x"}`)
	assert.Equal(t, "title must be at most 200 characters", out.Errors["title"])

	out = f.call(t, "create_content", `{"content_type":"page","title":"Child","content":"x","parent_id":999}`)
	assert.Equal(t, packs.KindDomainError, out.Kind)
	assert.Equal(t, "Store error: Failed to create content: Parent content with ID 999 does not exist", out.Error)
	assert.Equal(t, store.CodeInvalid, out.Code)

	out = f.call(t, "create_content", `{"content_type":"product","title":"Widget","content":"x"}`)
	assert.Equal(t, "Store error: Content type 'product' does not exist", out.Error)
}

func TestUpdateContent(t *testing.T) {
	f := newFixture(t, false)
	p := f.createPost(t, &store.Post{Type: "post", Title: "Before", Content: "old"})

	out := f.mustSucceed(t, "update_content",
		fmt.Sprintf(`{"content_id":%d,"title":"After","status":"publish","menu_order":2}`, p.ID))
	assert.Equal(t, "Content updated successfully", out.Message)
	ref := out.Data.(contentRef)
	assert.Equal(t, "After", ref.Title)
	assert.Equal(t, store.StatusPublish, ref.Status)
	assert.NotEmpty(t, ref.Modified)

	stored, err := f.store.GetPost(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", stored.Content)
	assert.Equal(t, int64(2), stored.MenuOrder)

	f.mustSucceed(t, "update_content",
		fmt.Sprintf(`{"content_id":%d,"content":"**bold**","content_format":"markdown"}`, p.ID))
	stored, err = f.store.GetPost(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Content, "<strong>bold</strong>")

	out = f.call(t, "update_content", `{"content_id":4242,"title":"x"}`)
	assert.Equal(t, "Store error: Content with ID 4242 not found", out.Error)

	out = f.call(t, "update_content", fmt.Sprintf(`{"content_id":%d,"parent_id":%d}`, p.ID, p.ID))
	assert.Equal(t, "Store error: Failed to update content: Content cannot be its own parent", out.Error)
}

func TestDeleteContent(t *testing.T) {
	f := newFixture(t, false)
	p := f.createPost(t, &store.Post{Type: "post", Title: "Doomed", Status: store.StatusPublish})

	out := f.mustSucceed(t, "delete_content", fmt.Sprintf(`{"content_id":%d}`, p.ID))
	assert.Equal(t, "Content moved to trash", out.Message)
	deleted := out.Data.(deletedContent)
	assert.Equal(t, store.StatusPublish, deleted.PreviousStatus)
	assert.False(t, deleted.PermanentlyDeleted)
	assert.Equal(t, store.StatusTrash, deleted.CurrentStatus)

	out = f.mustSucceed(t, "delete_content", fmt.Sprintf(`{"content_id":%d,"force_delete":true}`, p.ID))
	assert.Equal(t, "Content permanently deleted", out.Message)
	deleted = out.Data.(deletedContent)
	assert.Equal(t, store.StatusTrash, deleted.PreviousStatus)
	assert.True(t, deleted.PermanentlyDeleted)
	assert.Empty(t, deleted.CurrentStatus)

	out = f.call(t, "delete_content", fmt.Sprintf(`{"content_id":%d}`, p.ID))
	assert.Equal(t, store.CodeNotFound, out.Code)
}

func TestDeleteContent_SafeMode(t *testing.T) {
	f := newFixture(t, true)
	p := f.createPost(t, &store.Post{Type: "post", Title: "Protected"})

	out := f.call(t, "delete_content", fmt.Sprintf(`{"content_id":%d,"force_delete":true}`, p.ID))

	assert.False(t, out.Success)
	assert.Equal(t, packs.KindSafeModeBlocked, out.Kind)
	assert.Equal(t, "Operation blocked: Safe mode is enabled. Deleting content is not allowed.", out.Error)
	assert.Equal(t, map[string]string{"safe_mode": "enabled"}, out.Errors)
	assert.Zero(t, f.counter.Calls())

	got, err := f.store.GetPost(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusDraft, got.Status)

	// Validation still runs first.
	out = f.call(t, "delete_content", `{"content_id":0}`)
	assert.Equal(t, packs.KindValidationFailed, out.Kind)

	// Non-destructive writes remain available.
	f.mustSucceed(t, "update_content", fmt.Sprintf(`{"content_id":%d,"title":"Still editable"}`, p.ID))
}

func TestDiscoverContentTypes(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.store.EnsurePostType(t.Context(), &store.PostType{Name: "product", Public: false, ShowUI: true}))
	f.createPost(t, &store.Post{Type: "post", Title: "One", Status: store.StatusPublish})
	f.createPost(t, &store.Post{Type: "post", Title: "Two"})

	out := f.mustSucceed(t, "discover_content_types", `{}`)
	assert.Equal(t, "Content types discovered successfully", out.Message)
	list := out.Data.(contentTypeList)
	require.Equal(t, 3, list.Count)

	byName := map[string]postTypeInfo{}
	for _, pt := range list.ContentTypes {
		byName[pt.Name] = pt
	}
	post := byName["post"]
	assert.Equal(t, int64(1), post.Counts.Publish)
	assert.Equal(t, int64(1), post.Counts.Draft)
	assert.Equal(t, []string{"category", "post_tag"}, post.Taxonomies)
	assert.Equal(t, "Post", post.Labels.SingularName)
	assert.Equal(t, []string{}, byName["product"].Taxonomies)

	out = f.mustSucceed(t, "discover_content_types", `{"public":false}`)
	list = out.Data.(contentTypeList)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "product", list.ContentTypes[0].Name)

	out = f.call(t, "discover_content_types", `{"public":"yes"}`)
	assert.Equal(t, "public must be a boolean", out.Errors["public"])
}
