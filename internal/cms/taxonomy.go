// ABOUTME: Taxonomy pack: discover taxonomies, manage terms, and attach terms to content
// ABOUTME: Every term operation first checks that the taxonomy is registered

package cms

import (
	"context"
	"errors"

	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/schema"
	"github.com/2389/cms-mcp/internal/store"
)

// TaxonomyPackID identifies the taxonomy pack in the registry.
const TaxonomyPackID = "cms:taxonomy"

type taxonomyTools struct {
	store store.Store
}

// TaxonomyPack creates the taxonomy pack over st.
func TaxonomyPack(st store.Store) *packs.Pack {
	t := &taxonomyTools{store: st}
	return &packs.Pack{
		ID: TaxonomyPackID,
		Tools: []*packs.Tool{
			{
				Name: "discover_taxonomies",
				Description: "Discover all available taxonomies. " +
					"Returns each taxonomy's settings and the content types it applies to.",
				Schema: schema.New(
					schema.F("show_ui", schema.Optional(), schema.TypeIs(schema.Bool)),
					schema.F("public", schema.Optional(), schema.TypeIs(schema.Bool)),
				),
				Handler: t.Discover,
			},
			{
				Name:        "get_taxonomy",
				Description: "Get detailed information about a specific taxonomy by name.",
				Schema: schema.New(
					schema.F("taxonomy", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
				),
				Handler: t.GetTaxonomy,
			},
			{
				Name:        "list_terms",
				Description: "List terms in a taxonomy with filtering and pagination options.",
				Schema: schema.New(
					schema.F("taxonomy", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("hide_empty", schema.Optional(), schema.TypeIs(schema.Bool)),
					schema.F("parent", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(0)),
					schema.F("search", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("per_page", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(1), schema.Max(100)),
					schema.F("page", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("orderby", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf("name", "slug", "term_id", "count", "term_order")),
					schema.F("order", schema.Optional(), schema.TypeIs(schema.String), schema.OneOf("asc", "desc")),
				),
				Handler: t.ListTerms,
			},
			{
				Name:        "get_term",
				Description: "Get detailed information about a specific term by ID or slug.",
				Schema: schema.New(
					schema.F("taxonomy", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("term_id", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("slug", schema.Optional(), schema.TypeIs(schema.String), schema.NotEmpty()),
				),
				Handler: t.GetTerm,
			},
			{
				Name:        "create_term",
				Description: "Create a new term in a taxonomy.",
				Schema: schema.New(
					schema.F("taxonomy", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("name", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("slug", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("description", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("parent", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(0)),
				),
				Handler: t.CreateTerm,
			},
			{
				Name:        "update_term",
				Description: "Update an existing term. Supports partial updates - only provide fields you want to change.",
				Schema: schema.New(
					schema.F("term_id", schema.Required(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("taxonomy", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("name", schema.Optional(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("slug", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("description", schema.Optional(), schema.TypeIs(schema.String)),
					schema.F("parent", schema.Optional(), schema.TypeIs(schema.Int), schema.Min(0)),
				),
				Handler: t.UpdateTerm,
			},
			{
				Name:        "delete_term",
				Description: "Delete a term from a taxonomy permanently.",
				Schema: schema.New(
					schema.F("term_id", schema.Required(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("taxonomy", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
				),
				Destructive: true,
				Operation:   "Deleting terms",
				Handler:     t.DeleteTerm,
			},
			{
				Name:        "assign_terms_to_content",
				Description: "Assign terms to content. Can replace or append to existing terms.",
				Schema: schema.New(
					schema.F("content_id", schema.Required(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("taxonomy", schema.Required(), schema.TypeIs(schema.String), schema.NotEmpty()),
					schema.F("term_ids", schema.Required(), schema.TypeIs(schema.Array)),
					schema.F("append", schema.Optional(), schema.TypeIs(schema.Bool)),
				),
				Handler: t.AssignTerms,
			},
			{
				Name:        "get_content_terms",
				Description: "Gets all taxonomy terms assigned to content of any type.",
				Schema: schema.New(
					schema.F("content_id", schema.Required(), schema.TypeIs(schema.Int), schema.Min(1)),
					schema.F("taxonomy", schema.Optional(), schema.TypeIs(schema.String), schema.NotEmpty()),
				),
				Handler: t.ContentTerms,
			},
		},
	}
}

type taxonomyList struct {
	Taxonomies []taxonomyInfo `json:"taxonomies"`
	Count      int            `json:"count"`
}

// Discover lists registered taxonomies.
func (t *taxonomyTools) Discover(ctx context.Context, params packs.Params) (packs.Result, error) {
	taxonomies, err := t.store.ListTaxonomies(ctx, typeFilter(params))
	if err != nil {
		return packs.Result{}, err
	}
	out := make([]taxonomyInfo, 0, len(taxonomies))
	for _, tax := range taxonomies {
		out = append(out, newTaxonomyInfo(tax))
	}
	return packs.OK(taxonomyList{Taxonomies: out, Count: len(out)}, "Taxonomies discovered successfully"), nil
}

// GetTaxonomy returns one taxonomy by name.
func (t *taxonomyTools) GetTaxonomy(ctx context.Context, params packs.Params) (packs.Result, error) {
	tax, err := t.store.GetTaxonomy(ctx, params.String("taxonomy"))
	if err != nil {
		return packs.Result{}, err
	}
	return packs.OK(newTaxonomyInfo(tax), "Taxonomy retrieved successfully"), nil
}

type termList struct {
	Taxonomy string     `json:"taxonomy"`
	Terms    []termInfo `json:"terms"`
	Count    int        `json:"count"`
	Page     int64      `json:"page"`
	PerPage  int64      `json:"per_page"`
}

// ListTerms lists the terms of a taxonomy. Without per_page every matching
// term is returned.
func (t *taxonomyTools) ListTerms(ctx context.Context, params packs.Params) (packs.Result, error) {
	taxonomy := params.String("taxonomy")
	if err := requireTaxonomy(ctx, t.store, taxonomy); err != nil {
		return packs.Result{}, err
	}

	q := store.TermQuery{
		Taxonomy:  taxonomy,
		HideEmpty: params.Bool("hide_empty"),
		Search:    params.String("search"),
		OrderBy:   params.String("orderby"),
		Order:     params.String("order"),
	}
	if params.Has("parent") {
		parent := params.Int("parent")
		q.Parent = &parent
	}
	page := params.IntOr("page", 1)
	if params.Has("per_page") {
		q.Limit = int(params.Int("per_page"))
		q.Offset = int(page-1) * q.Limit
	}

	terms, err := t.store.ListTerms(ctx, q)
	if err != nil {
		return packs.Result{}, failed("retrieve terms", err)
	}

	out := newTermInfos(terms, true)
	return packs.OK(termList{
		Taxonomy: taxonomy,
		Terms:    out,
		Count:    len(out),
		Page:     page,
		PerPage:  params.IntOr("per_page", int64(len(out))),
	}, "Terms retrieved successfully"), nil
}

// GetTerm returns one term by ID or, failing that, by slug.
func (t *taxonomyTools) GetTerm(ctx context.Context, params packs.Params) (packs.Result, error) {
	taxonomy := params.String("taxonomy")
	if err := requireTaxonomy(ctx, t.store, taxonomy); err != nil {
		return packs.Result{}, err
	}

	var (
		term       *store.Term
		identifier any
		err        error
	)
	switch {
	case params.Has("term_id"):
		identifier = params.Int("term_id")
		term, err = t.store.GetTerm(ctx, taxonomy, params.Int("term_id"))
	case params.Has("slug"):
		identifier = params.String("slug")
		term, err = t.store.GetTermBySlug(ctx, taxonomy, params.String("slug"))
	default:
		return packs.Result{}, packs.NewValidationError("Either term_id or slug must be provided",
			map[string]string{"term": "Either term_id or slug is required"})
	}
	if errors.Is(err, store.ErrNotFound) {
		return packs.Result{}, domainError(store.CodeNotFound, "Term '%v' not found in taxonomy '%s'", identifier, taxonomy)
	}
	if err != nil {
		return packs.Result{}, err
	}
	return packs.OK(newTermInfo(term), "Term retrieved successfully"), nil
}

// CreateTerm adds a term to a taxonomy.
func (t *taxonomyTools) CreateTerm(ctx context.Context, params packs.Params) (packs.Result, error) {
	taxonomy := params.String("taxonomy")
	if err := requireTaxonomy(ctx, t.store, taxonomy); err != nil {
		return packs.Result{}, err
	}

	term, err := t.store.CreateTerm(ctx, &store.Term{
		Taxonomy:    taxonomy,
		Name:        params.String("name"),
		Slug:        params.String("slug"),
		Description: params.String("description"),
		Parent:      params.Int("parent"),
	})
	if err != nil {
		return packs.Result{}, failed("create term", err)
	}
	return packs.OK(newTermInfo(term), "Term created successfully"), nil
}

// UpdateTerm applies a partial update to a term.
func (t *taxonomyTools) UpdateTerm(ctx context.Context, params packs.Params) (packs.Result, error) {
	taxonomy := params.String("taxonomy")
	if err := requireTaxonomy(ctx, t.store, taxonomy); err != nil {
		return packs.Result{}, err
	}
	id := params.Int("term_id")
	if _, err := t.store.GetTerm(ctx, taxonomy, id); err != nil {
		return packs.Result{}, err
	}

	term, err := t.store.UpdateTerm(ctx, taxonomy, id, store.TermPatch{
		Name:        optString(params, "name"),
		Slug:        optString(params, "slug"),
		Description: optString(params, "description"),
		Parent:      optInt(params, "parent"),
	})
	if err != nil {
		return packs.Result{}, failed("update term", err)
	}
	return packs.OK(newTermInfo(term), "Term updated successfully"), nil
}

// DeleteTerm removes a term permanently.
func (t *taxonomyTools) DeleteTerm(ctx context.Context, params packs.Params) (packs.Result, error) {
	taxonomy := params.String("taxonomy")
	if err := requireTaxonomy(ctx, t.store, taxonomy); err != nil {
		return packs.Result{}, err
	}
	id := params.Int("term_id")
	term, err := t.store.GetTerm(ctx, taxonomy, id)
	if err != nil {
		return packs.Result{}, err
	}

	if err := t.store.DeleteTerm(ctx, taxonomy, id); err != nil {
		return packs.Result{}, failed("delete term", err)
	}
	return packs.OK(termRef{
		ID:       term.ID,
		Name:     term.Name,
		Slug:     term.Slug,
		Taxonomy: term.Taxonomy,
	}, "Term deleted successfully"), nil
}

type termAssignment struct {
	ContentID       int64     `json:"content_id"`
	Taxonomy        string    `json:"taxonomy"`
	AssignedTermIDs []int64   `json:"assigned_term_ids"`
	Terms           []termRef `json:"terms"`
	Operation       string    `json:"operation"`
}

// AssignTerms sets the terms of a taxonomy on content, replacing existing
// ones unless append is set.
func (t *taxonomyTools) AssignTerms(ctx context.Context, params packs.Params) (packs.Result, error) {
	contentID := params.Int("content_id")
	if _, err := t.store.GetPost(ctx, contentID); err != nil {
		return packs.Result{}, err
	}
	taxonomy := params.String("taxonomy")
	if err := requireTaxonomy(ctx, t.store, taxonomy); err != nil {
		return packs.Result{}, err
	}

	appendTerms := params.Bool("append")
	assigned, err := t.store.SetObjectTerms(ctx, contentID, taxonomy, params.Ints("term_ids"), appendTerms)
	if err != nil {
		return packs.Result{}, failed("assign terms", err)
	}

	terms, err := t.store.GetObjectTerms(ctx, contentID, taxonomy)
	if err != nil {
		return packs.Result{}, err
	}
	refs := make([]termRef, 0, len(terms))
	for _, term := range terms {
		refs = append(refs, termRef{ID: term.ID, Name: term.Name, Slug: term.Slug})
	}

	operation := "replaced"
	if appendTerms {
		operation = "appended"
	}
	return packs.OK(termAssignment{
		ContentID:       contentID,
		Taxonomy:        taxonomy,
		AssignedTermIDs: assigned,
		Terms:           refs,
		Operation:       operation,
	}, "Terms assigned successfully"), nil
}

type contentTerms struct {
	ContentID   int64                 `json:"content_id"`
	ContentType string                `json:"content_type"`
	Terms       map[string][]termInfo `json:"terms"`
}

// ContentTerms returns the terms attached to content, for one taxonomy or
// for every taxonomy of the content's type that has terms on it.
func (t *taxonomyTools) ContentTerms(ctx context.Context, params packs.Params) (packs.Result, error) {
	contentID := params.Int("content_id")
	post, err := t.store.GetPost(ctx, contentID)
	if err != nil {
		return packs.Result{}, err
	}

	out := contentTerms{
		ContentID:   contentID,
		ContentType: post.Type,
		Terms:       map[string][]termInfo{},
	}

	if params.Has("taxonomy") {
		taxonomy := params.String("taxonomy")
		if err := requireTaxonomy(ctx, t.store, taxonomy); err != nil {
			return packs.Result{}, err
		}
		terms, err := t.store.GetObjectTerms(ctx, contentID, taxonomy)
		if err != nil {
			return packs.Result{}, failed("get terms", err)
		}
		out.Terms[taxonomy] = newTermInfos(terms, false)
		return packs.OK(out, "Content terms retrieved successfully"), nil
	}

	taxonomies, err := t.store.ObjectTaxonomies(ctx, post.Type)
	if err != nil {
		return packs.Result{}, err
	}
	for _, taxonomy := range taxonomies {
		terms, err := t.store.GetObjectTerms(ctx, contentID, taxonomy)
		if err != nil {
			return packs.Result{}, err
		}
		if len(terms) > 0 {
			out.Terms[taxonomy] = newTermInfos(terms, false)
		}
	}
	return packs.OK(out, "Content terms retrieved successfully"), nil
}
