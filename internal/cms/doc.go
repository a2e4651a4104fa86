// Package cms implements the content-management tools exposed over MCP.
//
// Two packs are provided:
//
//   - ContentPack: list_content, get_content, create_content, update_content,
//     delete_content, discover_content_types, get_content_by_slug and
//     find_content_by_url
//   - TaxonomyPack: discover_taxonomies, get_taxonomy, list_terms, get_term,
//     create_term, update_term, delete_term, assign_terms_to_content and
//     get_content_terms
//
// Handlers run only after the executor has validated their parameters
// against the declared schema and, for delete_content and delete_term,
// checked safe mode. They translate parameters into store calls and shape
// the results; store failures surface as packs.DomainError values carrying
// the store's error code.
//
// Content submitted with content_format set to "markdown" is converted to
// HTML before it is stored.
package cms
