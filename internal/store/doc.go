// Package store persists CMS content in SQLite.
//
// # Data Model
//
//   - PostType: a kind of content (post, page, or a configured custom type)
//   - Post: one piece of content, addressed by ID or by slug within its type
//   - Taxonomy: a grouping of terms attached to one or more post types
//   - Term: a member of a taxonomy, optionally nested under a parent term
//
// Posts and terms are linked through term relationships. A term's Count is
// the number of non-trashed posts it is attached to.
//
// # Defaults
//
// NewSQLiteStore seeds the post and page types, the category and post_tag
// taxonomies, an Uncategorized category, and a default author. Seeding is
// idempotent.
//
// # Slugs
//
// Slugs are derived from titles or names with Slugify. Post slugs are unique
// within a post type and term slugs within a taxonomy; derived slugs gain a
// numeric suffix on collision.
//
// # Deletion
//
// DeletePost moves a post to the trash unless force is set, in which case the
// post and its relationships are removed. Trashed posts are excluded from
// listings unless the trash status is requested explicitly.
//
// # Error Handling
//
// Domain failures are returned as *Error carrying a numeric code:
//
//   - CodeNotFound: the post, term, or taxonomy does not exist
//   - CodeConflict: a name or slug is already taken
//   - CodeInvalid: a reference or value is not acceptable
//
// IsError distinguishes them from infrastructure errors, and
// errors.Is(err, ErrNotFound) matches not-found errors.
//
// All methods accept context.Context for cancellation support.
package store
